// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"leadbook_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Leads Domain Events
// =============================================================================

// LeadCreated is published when a new lead is created.
type LeadCreated struct {
	BaseEvent
	LeadID uuid.UUID `json:"leadId"`
	Name   string    `json:"name"`
	Phone  string    `json:"phone"`
	Source string    `json:"source"`
}

func (e LeadCreated) EventName() string { return "leads.created" }

// LeadAssigned is published when a lead is assigned to a user.
type LeadAssigned struct {
	BaseEvent
	LeadID       uuid.UUID `json:"leadId"`
	LeadName     string    `json:"leadName"`
	LeadPhone    string    `json:"leadPhone"`
	AssigneeID   uuid.UUID `json:"assigneeId"`
	AssigneeTier int       `json:"assigneeTier"`
	AssignedByID uuid.UUID `json:"assignedById"`
}

func (e LeadAssigned) EventName() string { return "leads.assigned" }

// LeadStatusChanged is published after a successful status transition.
type LeadStatusChanged struct {
	BaseEvent
	LeadID      uuid.UUID `json:"leadId"`
	OldStatus   string    `json:"oldStatus"`
	NewStatus   string    `json:"newStatus"`
	ChangedByID uuid.UUID `json:"changedById"`
}

func (e LeadStatusChanged) EventName() string { return "leads.status_changed" }

// LeadConverted is published when a booking creation converts a lead.
type LeadConverted struct {
	BaseEvent
	LeadID    uuid.UUID `json:"leadId"`
	BookingID uuid.UUID `json:"bookingId"`
	Phone     string    `json:"phone"`
}

func (e LeadConverted) EventName() string { return "leads.converted" }

// =============================================================================
// Bookings Domain Events
// =============================================================================

// BookingCreated is published for every new booking, converted or not.
type BookingCreated struct {
	BaseEvent
	BookingID uuid.UUID  `json:"bookingId"`
	LeadID    *uuid.UUID `json:"leadId,omitempty"`
	Phone     string     `json:"phone"`
}

func (e BookingCreated) EventName() string { return "bookings.created" }
