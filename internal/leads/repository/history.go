package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type StatusHistoryEntry struct {
	ID              uuid.UUID
	LeadID          uuid.UUID
	OldStatus       *string
	NewStatus       string
	Notes           *string
	ChangedByUserID uuid.UUID
	ChangedByName   string
	CreatedAt       time.Time
}

// ListHistory returns a lead's status transitions, newest first.
func (r *Repository) ListHistory(ctx context.Context, leadID uuid.UUID) ([]StatusHistoryEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT h.id, h.lead_id, h.old_status, h.new_status, h.notes, h.changed_by_user_id, u.name, h.created_at
		FROM lead_status_history h
		JOIN users u ON h.changed_by_user_id = u.id
		WHERE h.lead_id = $1
		ORDER BY h.created_at DESC
	`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]StatusHistoryEntry, 0)
	for rows.Next() {
		var entry StatusHistoryEntry
		err := rows.Scan(&entry.ID, &entry.LeadID, &entry.OldStatus, &entry.NewStatus,
			&entry.Notes, &entry.ChangedByUserID, &entry.ChangedByName, &entry.CreatedAt)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return entries, nil
}
