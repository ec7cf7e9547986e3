// Package policy is the single authorization rule set for lead mutations.
// Every mutating operation consults these functions before touching the
// store; no handler or service carries its own tier checks.
//
// The functions are pure: they take the actor and the relevant lead state
// and return a decision, with no lookups or side effects.
package policy

import (
	"leadbook_backend/platform/apperr"

	"github.com/google/uuid"
)

// Tier is the four-level role hierarchy.
type Tier int

const (
	TierAdmin        Tier = 1
	TierAreaManager  Tier = 2
	TierStoreManager Tier = 3
	TierSalesRep     Tier = 4
)

// Actor is the per-request identity performing an operation. It is resolved
// by the HTTP layer and passed into every core operation explicitly.
type Actor struct {
	ID   uuid.UUID
	Tier Tier
}

// TierName returns the display name for a tier level.
func TierName(tier Tier) string {
	switch tier {
	case TierAdmin:
		return "Admin"
	case TierAreaManager:
		return "Area Manager"
	case TierStoreManager:
		return "Store Manager"
	case TierSalesRep:
		return "Sales Rep"
	default:
		return "Unknown"
	}
}

// CanAssign reports whether the tier may assign leads to users.
// Only Admins and Area Managers may assign.
func CanAssign(tier Tier) bool {
	return tier == TierAdmin || tier == TierAreaManager
}

// CanMutateLead reports whether the actor may mutate the given lead:
// Admins and Area Managers may mutate any lead, everyone else only leads
// assigned to them.
func CanMutateLead(actor Actor, assignedToUserID *uuid.UUID) bool {
	if CanAssign(actor.Tier) {
		return true
	}
	return assignedToUserID != nil && *assignedToUserID == actor.ID
}

// CheckUpdateStatus applies the status-mutation rule: the CanMutateLead rule,
// then the fresh-lead lock. A fresh lead must be assigned before any status
// transition, regardless of the actor's tier.
// Returns nil if permitted, or a typed error describing the denial.
func CheckUpdateStatus(actor Actor, assignedToUserID *uuid.UUID, isFresh bool) error {
	if !CanMutateLead(actor, assignedToUserID) {
		return apperr.Forbidden("you can only update status of leads assigned to you")
	}
	if isFresh {
		return apperr.FreshLead("cannot update status of a fresh lead, assign it first")
	}
	return nil
}
