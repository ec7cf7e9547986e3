// Package webhook receives lead submissions from ad platforms and feeds them
// into the regular lead intake, so webhook leads get the same normalization,
// duplicate detection and lifecycle as manually entered ones.
package webhook

import (
	"strings"

	"leadbook_backend/internal/leads/transport"
)

// MetaLeadPayload is the relevant slice of a Meta Lead Ads webhook change.
type MetaLeadPayload struct {
	LeadgenID  string          `json:"leadgen_id"`
	CampaignID string          `json:"campaign_id"`
	AdID       string          `json:"ad_id"`
	FieldData  []MetaLeadField `json:"field_data"`
}

type MetaLeadField struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// GoogleLeadPayload is the Google Ads lead form webhook body.
type GoogleLeadPayload struct {
	LeadID         string             `json:"lead_id"`
	CampaignID     string             `json:"campaign_id"`
	CreativeID     string             `json:"creative_id"`
	GoogleKey      string             `json:"google_key"`
	UserColumnData []GoogleColumnData `json:"user_column_data"`
}

type GoogleColumnData struct {
	ColumnName  string `json:"column_name"`
	StringValue string `json:"string_value"`
	ColumnID    string `json:"column_id"`
}

// mapMetaLead flattens a Meta field_data payload into a lead create request.
// Field names follow Meta's standard question keys.
func mapMetaLead(payload MetaLeadPayload) transport.CreateLeadRequest {
	req := transport.CreateLeadRequest{
		Source:           transport.LeadSourceMeta,
		SourceCampaignID: payload.CampaignID,
		SourceAdID:       payload.AdID,
	}

	for _, field := range payload.FieldData {
		if len(field.Values) == 0 {
			continue
		}
		value := strings.TrimSpace(field.Values[0])
		if value == "" {
			continue
		}

		switch strings.ToLower(field.Name) {
		case "full_name", "name":
			req.Name = value
		case "phone_number", "phone":
			req.Phone = value
		case "email":
			req.Email = value
		case "city", "location":
			req.Location = value
		case "street_address", "address":
			req.Address = value
		case "service", "service_category":
			req.ServiceCategory = value
		default:
			// Custom questions land in the notes.
			if req.Notes != "" {
				req.Notes += "; "
			}
			req.Notes += field.Name + ": " + value
		}
	}

	return req
}

// mapGoogleLead flattens Google Ads column data into a lead create request.
func mapGoogleLead(payload GoogleLeadPayload) transport.CreateLeadRequest {
	req := transport.CreateLeadRequest{
		Source:           transport.LeadSourceGoogleAds,
		SourceCampaignID: payload.CampaignID,
		SourceAdID:       payload.CreativeID,
	}

	for _, col := range payload.UserColumnData {
		value := strings.TrimSpace(col.StringValue)
		if value == "" {
			continue
		}

		label := strings.ToLower(col.ColumnName)
		switch {
		case strings.Contains(label, "name"):
			req.Name = value
		case strings.Contains(label, "phone"):
			req.Phone = value
		case strings.Contains(label, "email"):
			req.Email = value
		case strings.Contains(label, "city"), strings.Contains(label, "location"):
			req.Location = value
		default:
			if req.Notes != "" {
				req.Notes += "; "
			}
			req.Notes += col.ColumnName + ": " + value
		}
	}

	return req
}
