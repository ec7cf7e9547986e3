package service

import (
	"leadbook_backend/internal/leads/repository"
	"leadbook_backend/internal/leads/transport"
)

func toLeadResponse(lead repository.Lead) transport.LeadResponse {
	services := lead.Services
	if services == nil {
		services = []string{}
	}

	return transport.LeadResponse{
		ID:                   lead.ID,
		Name:                 lead.Name,
		Phone:                lead.Phone,
		Email:                lead.Email,
		Location:             lead.Location,
		Address:              lead.Address,
		Services:             services,
		ServiceCategory:      lead.ServiceCategory,
		Notes:                lead.Notes,
		Source:               lead.Source,
		SourceCampaignID:     lead.SourceCampaignID,
		SourceAdID:           lead.SourceAdID,
		Status:               lead.Status,
		IsFresh:              lead.IsFresh,
		AssignedToUserID:     lead.AssignedToUserID,
		AssignedToTier:       lead.AssignedToTier,
		AssignedToName:       lead.AssignedToName,
		AssignedByUserID:     lead.AssignedByUserID,
		AssignedByName:       lead.AssignedByName,
		AssignedAt:           lead.AssignedAt,
		ConvertedAt:          lead.ConvertedAt,
		ConvertedToBookingID: lead.ConvertedToBookingID,
		LastContactedAt:      lead.LastContactedAt,
		CreatedAt:            lead.CreatedAt,
		UpdatedAt:            lead.UpdatedAt,
	}
}

func toLeadResponses(leads []repository.Lead) []transport.LeadResponse {
	responses := make([]transport.LeadResponse, 0, len(leads))
	for _, lead := range leads {
		responses = append(responses, toLeadResponse(lead))
	}
	return responses
}

func toCommentResponse(comment repository.Comment) transport.CommentResponse {
	return transport.CommentResponse{
		ID:        comment.ID,
		LeadID:    comment.LeadID,
		UserID:    comment.UserID,
		UserName:  comment.UserName,
		Comment:   comment.Comment,
		CreatedAt: comment.CreatedAt,
	}
}

func toCommentResponses(comments []repository.Comment) []transport.CommentResponse {
	responses := make([]transport.CommentResponse, 0, len(comments))
	for _, comment := range comments {
		responses = append(responses, toCommentResponse(comment))
	}
	return responses
}

func toHistoryResponses(entries []repository.StatusHistoryEntry) []transport.StatusHistoryResponse {
	responses := make([]transport.StatusHistoryResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, transport.StatusHistoryResponse{
			ID:              entry.ID,
			LeadID:          entry.LeadID,
			OldStatus:       entry.OldStatus,
			NewStatus:       entry.NewStatus,
			ChangedByUserID: entry.ChangedByUserID,
			ChangedByName:   entry.ChangedByName,
			Notes:           entry.Notes,
			CreatedAt:       entry.CreatedAt,
		})
	}
	return responses
}
