package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type AssignLeadParams struct {
	LeadID           uuid.UUID
	AssignedToUserID uuid.UUID
	AssignedToTier   int
	AssignedByUserID uuid.UUID
}

// Assign routes a lead to a user and clears the fresh flag. The row is locked
// for the duration of the transaction so concurrent assignments serialize and
// the second writer overwrites the first instead of interleaving. Assignment
// does not touch the status history.
func (r *Repository) Assign(ctx context.Context, params AssignLeadParams) (Lead, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Lead{}, err
	}
	defer tx.Rollback(ctx)

	var lockedID uuid.UUID
	err = tx.QueryRow(ctx, `
		SELECT id FROM leads WHERE id = $1 AND is_active = true FOR UPDATE
	`, params.LeadID).Scan(&lockedID)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	if err != nil {
		return Lead{}, err
	}

	row := tx.QueryRow(ctx, `
		UPDATE leads
		SET assigned_to_user_id = $2,
		    assigned_to_tier = $3,
		    assigned_by_user_id = $4,
		    assigned_at = now(),
		    is_fresh = false,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+unprefixedLeadColumns(),
		params.LeadID, params.AssignedToUserID, params.AssignedToTier, params.AssignedByUserID,
	)

	lead, err := scanLead(row)
	if err != nil {
		return Lead{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Lead{}, err
	}

	return lead, nil
}

type UpdateStatusParams struct {
	LeadID          uuid.UUID
	Status          string
	Notes           *string
	ChangedByUserID uuid.UUID
}

// UpdateStatus moves a lead to a new status and records the transition in
// lead_status_history within the same transaction. A status set to
// "contacted" also stamps last_contacted_at. The previous status is returned
// alongside the updated lead; same-status transitions are recorded like any
// other.
func (r *Repository) UpdateStatus(ctx context.Context, params UpdateStatusParams) (Lead, string, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Lead{}, "", err
	}
	defer tx.Rollback(ctx)

	var oldStatus string
	err = tx.QueryRow(ctx, `
		SELECT status FROM leads WHERE id = $1 AND is_active = true FOR UPDATE
	`, params.LeadID).Scan(&oldStatus)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, "", ErrNotFound
	}
	if err != nil {
		return Lead{}, "", err
	}

	row := tx.QueryRow(ctx, `
		UPDATE leads
		SET status = $2,
		    last_contacted_at = CASE WHEN $2 = 'contacted' THEN now() ELSE last_contacted_at END,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+unprefixedLeadColumns(),
		params.LeadID, params.Status,
	)

	lead, err := scanLead(row)
	if err != nil {
		return Lead{}, "", err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO lead_status_history (lead_id, old_status, new_status, notes, changed_by_user_id)
		VALUES ($1, $2, $3, $4, $5)
	`, params.LeadID, oldStatus, params.Status, params.Notes, params.ChangedByUserID)
	if err != nil {
		return Lead{}, "", err
	}

	if err := tx.Commit(ctx); err != nil {
		return Lead{}, "", err
	}

	return lead, oldStatus, nil
}
