// Package repository owns the lead rows and their status history. All status
// and assignment writes go through transactions defined here; nothing else in
// the codebase touches the leads tables.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("lead not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Lead struct {
	ID                   uuid.UUID
	Name                 string
	Phone                string
	Email                *string
	Location             *string
	Address              *string
	Services             []string
	ServiceCategory      *string
	Notes                *string
	Source               string
	SourceCampaignID     *string
	SourceAdID           *string
	Status               string
	IsFresh              bool
	AssignedToUserID     *uuid.UUID
	AssignedToTier       *int
	AssignedByUserID     *uuid.UUID
	AssignedAt           *time.Time
	ConvertedAt          *time.Time
	ConvertedToBookingID *uuid.UUID
	IsActive             bool
	LastContactedAt      *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time

	// Populated only by queries that join users.
	AssignedToName *string
	AssignedByName *string
}

const leadColumns = `l.id, l.name, l.phone, l.email, l.location, l.address, l.services, l.service_category,
	l.notes, l.source, l.source_campaign_id, l.source_ad_id, l.status, l.is_fresh,
	l.assigned_to_user_id, l.assigned_to_tier, l.assigned_by_user_id, l.assigned_at,
	l.converted_at, l.converted_to_booking_id, l.is_active, l.last_contacted_at, l.created_at, l.updated_at`

// unprefixedLeadColumns strips the table alias for use in RETURNING clauses.
func unprefixedLeadColumns() string {
	return strings.ReplaceAll(leadColumns, "l.", "")
}

const leadJoins = `
	LEFT JOIN users u ON l.assigned_to_user_id = u.id
	LEFT JOIN users ab ON l.assigned_by_user_id = ab.id`

func scanLead(row pgx.Row) (Lead, error) {
	var lead Lead
	err := row.Scan(
		&lead.ID, &lead.Name, &lead.Phone, &lead.Email, &lead.Location, &lead.Address,
		&lead.Services, &lead.ServiceCategory, &lead.Notes, &lead.Source,
		&lead.SourceCampaignID, &lead.SourceAdID, &lead.Status, &lead.IsFresh,
		&lead.AssignedToUserID, &lead.AssignedToTier, &lead.AssignedByUserID, &lead.AssignedAt,
		&lead.ConvertedAt, &lead.ConvertedToBookingID, &lead.IsActive, &lead.LastContactedAt,
		&lead.CreatedAt, &lead.UpdatedAt,
	)
	return lead, err
}

func scanLeadWithNames(row pgx.Row) (Lead, error) {
	var lead Lead
	err := row.Scan(
		&lead.ID, &lead.Name, &lead.Phone, &lead.Email, &lead.Location, &lead.Address,
		&lead.Services, &lead.ServiceCategory, &lead.Notes, &lead.Source,
		&lead.SourceCampaignID, &lead.SourceAdID, &lead.Status, &lead.IsFresh,
		&lead.AssignedToUserID, &lead.AssignedToTier, &lead.AssignedByUserID, &lead.AssignedAt,
		&lead.ConvertedAt, &lead.ConvertedToBookingID, &lead.IsActive, &lead.LastContactedAt,
		&lead.CreatedAt, &lead.UpdatedAt,
		&lead.AssignedToName, &lead.AssignedByName,
	)
	return lead, err
}

type CreateLeadParams struct {
	Name             string
	Phone            string
	Email            *string
	Location         *string
	Address          *string
	Services         []string
	ServiceCategory  *string
	Notes            *string
	Source           string
	SourceCampaignID *string
	SourceAdID       *string
}

// Create inserts a new lead with status=new and is_fresh=true. Services
// default to an empty list, never NULL.
func (r *Repository) Create(ctx context.Context, params CreateLeadParams) (Lead, error) {
	services := params.Services
	if services == nil {
		services = []string{}
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO leads (
			name, phone, email, location, address, services, service_category,
			notes, source, source_campaign_id, source_ad_id, status, is_fresh
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 'new', true)
		RETURNING `+unprefixedLeadColumns(),
		params.Name, params.Phone, params.Email, params.Location, params.Address,
		services, params.ServiceCategory, params.Notes, params.Source,
		params.SourceCampaignID, params.SourceAdID,
	)

	return scanLead(row)
}

// GetByID returns an active lead with assignee names resolved.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Lead, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+leadColumns+`, u.name, ab.name
		FROM leads l`+leadJoins+`
		WHERE l.id = $1 AND l.is_active = true
	`, id)

	lead, err := scanLeadWithNames(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return lead, err
}

// GetActiveUnconvertedByPhone returns the oldest active, unconverted lead for
// the phone number. This is the duplicate-check lookup: at most one such lead
// should exist, but under races more than one can, so oldest-first keeps the
// answer deterministic.
func (r *Repository) GetActiveUnconvertedByPhone(ctx context.Context, phoneNumber string) (Lead, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+leadColumns+`
		FROM leads l
		WHERE l.phone = $1 AND l.is_active = true AND l.status <> 'converted'
		ORDER BY l.created_at ASC
		LIMIT 1
	`, phoneNumber)

	lead, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return lead, err
}

type ListParams struct {
	Status     *string
	Source     *string
	AssignedTo *uuid.UUID
	TierFilter *int
	Search     string
	DateFrom   *time.Time
	DateTo     *time.Time
	Offset     int
	Limit      int
}

// List returns a page of active leads plus the total count for pagination.
func (r *Repository) List(ctx context.Context, params ListParams) ([]Lead, int, error) {
	whereClause, args, argIdx := buildLeadListWhere(params)

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM leads l WHERE %s", whereClause)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, params.Limit, params.Offset)
	query := fmt.Sprintf(`
		SELECT %s, u.name, ab.name
		FROM leads l%s
		WHERE %s
		ORDER BY l.created_at DESC
		LIMIT $%d OFFSET $%d
	`, leadColumns, leadJoins, whereClause, argIdx, argIdx+1)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	leads := make([]Lead, 0)
	for rows.Next() {
		lead, err := scanLeadWithNames(rows)
		if err != nil {
			return nil, 0, err
		}
		leads = append(leads, lead)
	}

	if rows.Err() != nil {
		return nil, 0, rows.Err()
	}

	return leads, total, nil
}

func buildLeadListWhere(params ListParams) (string, []interface{}, int) {
	whereClauses := []string{"l.is_active = true"}
	args := []interface{}{}
	argIdx := 1

	addEquals := func(column string, value interface{}) {
		whereClauses = append(whereClauses, fmt.Sprintf("%s = $%d", column, argIdx))
		args = append(args, value)
		argIdx++
	}

	if params.Status != nil {
		addEquals("l.status", *params.Status)
	}
	if params.Source != nil {
		addEquals("l.source", *params.Source)
	}
	if params.AssignedTo != nil {
		addEquals("l.assigned_to_user_id", *params.AssignedTo)
	}
	if params.TierFilter != nil {
		addEquals("l.assigned_to_tier", *params.TierFilter)
	}
	if params.Search != "" {
		searchPattern := "%" + params.Search + "%"
		whereClauses = append(whereClauses, fmt.Sprintf(
			"(l.name ILIKE $%d OR l.phone ILIKE $%d OR l.email ILIKE $%d)",
			argIdx, argIdx, argIdx,
		))
		args = append(args, searchPattern)
		argIdx++
	}
	if params.DateFrom != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("l.created_at >= $%d", argIdx))
		args = append(args, *params.DateFrom)
		argIdx++
	}
	if params.DateTo != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("l.created_at <= $%d", argIdx))
		args = append(args, *params.DateTo)
		argIdx++
	}

	return strings.Join(whereClauses, " AND "), args, argIdx
}

// ListActive returns all active leads with names resolved, newest first.
// Used by the grouped listing views.
func (r *Repository) ListActive(ctx context.Context) ([]Lead, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+leadColumns+`, u.name, ab.name
		FROM leads l`+leadJoins+`
		WHERE l.is_active = true
		ORDER BY l.created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := make([]Lead, 0)
	for rows.Next() {
		lead, err := scanLeadWithNames(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return leads, nil
}

// Deactivate soft-deletes a lead. Inactive leads are excluded from every
// lookup, including the duplicate-phone check and conversion matching.
func (r *Repository) Deactivate(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE leads SET is_active = false, updated_at = now()
		WHERE id = $1 AND is_active = true
	`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
