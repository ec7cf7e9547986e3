package transport

import (
	"time"

	"github.com/google/uuid"
)

// Enum values
type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "new"
	LeadStatusContacted LeadStatus = "contacted"
	LeadStatusFollowUp  LeadStatus = "follow-up"
	LeadStatusQualified LeadStatus = "qualified"
	LeadStatusConverted LeadStatus = "converted"
	LeadStatusLost      LeadStatus = "lost"
)

type LeadSource string

const (
	LeadSourceMeta      LeadSource = "meta"
	LeadSourceGoogleAds LeadSource = "google_ads"
	LeadSourceManual    LeadSource = "manual"
)

// Request DTOs.
// Field-shape validation (lengths, enum membership, formats) lives here in
// the validate tags; the service layer only checks business invariants.

type CreateLeadRequest struct {
	Name             string     `json:"name" validate:"required,min=2,max=100"`
	Phone            string     `json:"phone" validate:"required,min=10,max=15"`
	Email            string     `json:"email,omitempty" validate:"omitempty,email"`
	Location         string     `json:"location,omitempty" validate:"omitempty,max=200"`
	Address          string     `json:"address,omitempty" validate:"omitempty,max=500"`
	Services         []string   `json:"services,omitempty" validate:"omitempty,dive,min=1"`
	ServiceCategory  string     `json:"service_category,omitempty" validate:"omitempty,max=100"`
	Notes            string     `json:"notes,omitempty" validate:"omitempty,max=1000"`
	Source           LeadSource `json:"source" validate:"required,oneof=meta google_ads manual"`
	SourceCampaignID string     `json:"source_campaign_id,omitempty" validate:"omitempty,max=255"`
	SourceAdID       string     `json:"source_ad_id,omitempty" validate:"omitempty,max=255"`
}

type AssignLeadRequest struct {
	AssignedToUserID uuid.UUID `json:"assigned_to_user_id" validate:"required"`
}

type UpdateLeadStatusRequest struct {
	Status LeadStatus `json:"status" validate:"required,oneof=new contacted follow-up qualified converted lost"`
	Notes  string     `json:"notes,omitempty" validate:"omitempty,max=500"`
}

type AddCommentRequest struct {
	Comment string `json:"comment" validate:"required,min=1,max=1000"`
}

type ListLeadsRequest struct {
	Page       int
	PageSize   int
	Status     *LeadStatus
	Source     *LeadSource
	AssignedTo *uuid.UUID
	TierFilter *int
	Search     string
	DateFrom   *time.Time
	DateTo     *time.Time
}

// Response DTOs

type LeadResponse struct {
	ID                   uuid.UUID  `json:"id"`
	Name                 string     `json:"name"`
	Phone                string     `json:"phone"`
	Email                *string    `json:"email,omitempty"`
	Location             *string    `json:"location,omitempty"`
	Address              *string    `json:"address,omitempty"`
	Services             []string   `json:"services"`
	ServiceCategory      *string    `json:"service_category,omitempty"`
	Notes                *string    `json:"notes,omitempty"`
	Source               string     `json:"source"`
	SourceCampaignID     *string    `json:"source_campaign_id,omitempty"`
	SourceAdID           *string    `json:"source_ad_id,omitempty"`
	Status               string     `json:"status"`
	IsFresh              bool       `json:"is_fresh"`
	AssignedToUserID     *uuid.UUID `json:"assigned_to_user_id,omitempty"`
	AssignedToTier       *int       `json:"assigned_to_tier,omitempty"`
	AssignedToName       *string    `json:"assigned_to_name,omitempty"`
	AssignedByUserID     *uuid.UUID `json:"assigned_by_user_id,omitempty"`
	AssignedByName       *string    `json:"assigned_by_name,omitempty"`
	AssignedAt           *time.Time `json:"assigned_at,omitempty"`
	ConvertedAt          *time.Time `json:"converted_at,omitempty"`
	ConvertedToBookingID *uuid.UUID `json:"converted_to_booking_id,omitempty"`
	LastContactedAt      *time.Time `json:"last_contacted_at,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// DuplicateLeadDetails identifies the conflicting lead on a duplicate-phone
// error so the caller can surface it.
type DuplicateLeadDetails struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type LeadListResponse struct {
	Leads      []LeadResponse `json:"leads"`
	Pagination Pagination     `json:"pagination"`
}

type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

type CommentResponse struct {
	ID        uuid.UUID `json:"id"`
	LeadID    uuid.UUID `json:"lead_id"`
	UserID    uuid.UUID `json:"user_id"`
	UserName  string    `json:"user_name"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

type StatusHistoryResponse struct {
	ID              uuid.UUID `json:"id"`
	LeadID          uuid.UUID `json:"lead_id"`
	OldStatus       *string   `json:"old_status"`
	NewStatus       string    `json:"new_status"`
	ChangedByUserID uuid.UUID `json:"changed_by_user_id"`
	ChangedByName   string    `json:"changed_by_name"`
	Notes           *string   `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// LeadGroup is one bucket of the grouped listing (by location or by
// service category).
type LeadGroup struct {
	Key   string         `json:"key"`
	Count int            `json:"count"`
	Leads []LeadResponse `json:"leads"`
}

type GroupedLeadsResponse struct {
	Groups []LeadGroup `json:"groups"`
}
