package transport

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

type CreateBookingRequest struct {
	CustomerName string    `json:"customer_name" validate:"required,min=2,max=100"`
	Phone        string    `json:"phone" validate:"required,min=10,max=15"`
	Email        string    `json:"email,omitempty" validate:"omitempty,email"`
	Location     string    `json:"location" validate:"required,max=200"`
	Services     []string  `json:"services" validate:"required,min=1,dive,min=1"`
	Date         time.Time `json:"date" validate:"required"`
	TimeSlot     string    `json:"time_slot" validate:"required,datetime=15:04"`
	Notes        string    `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

type UpdateBookingStatusRequest struct {
	Status BookingStatus `json:"status" validate:"required,oneof=pending confirmed completed cancelled"`
}

type ListBookingsRequest struct {
	Page     int
	PageSize int
	Status   *BookingStatus
}

type BookingResponse struct {
	ID              uuid.UUID  `json:"id"`
	CustomerName    string     `json:"customer_name"`
	Phone           string     `json:"phone"`
	Email           *string    `json:"email,omitempty"`
	Location        string     `json:"location"`
	Services        []string   `json:"services"`
	Date            time.Time  `json:"date"`
	TimeSlot        string     `json:"time_slot"`
	Notes           *string    `json:"notes,omitempty"`
	Status          string     `json:"status"`
	LeadID          *uuid.UUID `json:"lead_id,omitempty"`
	CreatedByUserID uuid.UUID  `json:"created_by_user_id"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// CreateBookingResponse reports whether the booking converted a lead, so the
// caller can show "lead converted" feedback without a second request.
type CreateBookingResponse struct {
	Booking         BookingResponse `json:"booking"`
	LeadConverted   bool            `json:"lead_converted"`
	ConvertedLeadID *uuid.UUID      `json:"converted_lead_id,omitempty"`
}

type BookingListResponse struct {
	Bookings   []BookingResponse `json:"bookings"`
	Pagination Pagination        `json:"pagination"`
}

type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}
