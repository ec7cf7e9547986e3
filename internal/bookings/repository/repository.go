// Package repository persists bookings and performs the lead conversion
// transaction. Conversion is the only place where a booking write touches the
// leads tables, and it happens inside a single transaction so a booking and
// its lead conversion commit or fail together.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("booking not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Booking struct {
	ID              uuid.UUID
	CustomerName    string
	Phone           string
	Email           *string
	Location        string
	Services        []string
	Date            time.Time
	TimeSlot        string
	Notes           *string
	Status          string
	LeadID          *uuid.UUID
	CreatedByUserID uuid.UUID
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

const bookingColumns = `id, customer_name, phone, email, location, services, date, time_slot,
	notes, status, lead_id, created_by_user_id, created_at, updated_at`

func scanBooking(row pgx.Row) (Booking, error) {
	var booking Booking
	err := row.Scan(
		&booking.ID, &booking.CustomerName, &booking.Phone, &booking.Email,
		&booking.Location, &booking.Services, &booking.Date, &booking.TimeSlot,
		&booking.Notes, &booking.Status, &booking.LeadID, &booking.CreatedByUserID,
		&booking.CreatedAt, &booking.UpdatedAt,
	)
	return booking, err
}

type CreateBookingParams struct {
	CustomerName    string
	Phone           string
	Email           *string
	Location        string
	Services        []string
	Date            time.Time
	TimeSlot        string
	Notes           *string
	CreatedByUserID uuid.UUID
}

// conversionNote is recorded on the lead's status history when a booking
// converts it.
const conversionNote = "Auto-converted via booking creation"

// CreateWithConversion inserts the booking and, if an active unconverted lead
// matches the booking's phone number, converts that lead in the same
// transaction. The candidate lead row is locked before it is read, so two
// concurrent bookings for the same number serialize and only one of them
// converts the lead. When several candidate leads exist the oldest one wins.
//
// Returns the booking and the converted lead's ID, or nil when no lead
// matched.
func (r *Repository) CreateWithConversion(ctx context.Context, params CreateBookingParams) (Booking, *uuid.UUID, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Booking{}, nil, err
	}
	defer tx.Rollback(ctx)

	services := params.Services
	if services == nil {
		services = []string{}
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO bookings (
			customer_name, phone, email, location, services, date,
			time_slot, notes, status, created_by_user_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'pending', $9)
		RETURNING `+bookingColumns,
		params.CustomerName, params.Phone, params.Email, params.Location,
		services, params.Date, params.TimeSlot, params.Notes, params.CreatedByUserID,
	)
	booking, err := scanBooking(row)
	if err != nil {
		return Booking{}, nil, err
	}

	var leadID uuid.UUID
	var oldStatus string
	err = tx.QueryRow(ctx, `
		SELECT id, status FROM leads
		WHERE phone = $1 AND is_active = true AND status <> 'converted'
		ORDER BY created_at ASC
		LIMIT 1
		FOR UPDATE
	`, params.Phone).Scan(&leadID, &oldStatus)

	if errors.Is(err, pgx.ErrNoRows) {
		// No matching lead. The booking stands on its own.
		if err := tx.Commit(ctx); err != nil {
			return Booking{}, nil, err
		}
		return booking, nil, nil
	}
	if err != nil {
		return Booking{}, nil, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE leads
		SET status = 'converted',
		    converted_at = now(),
		    converted_to_booking_id = $2,
		    updated_at = now()
		WHERE id = $1
	`, leadID, booking.ID)
	if err != nil {
		return Booking{}, nil, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE bookings SET lead_id = $2, updated_at = now() WHERE id = $1
	`, booking.ID, leadID)
	if err != nil {
		return Booking{}, nil, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO lead_status_history (lead_id, old_status, new_status, notes, changed_by_user_id)
		VALUES ($1, $2, 'converted', $3, $4)
	`, leadID, oldStatus, conversionNote, params.CreatedByUserID)
	if err != nil {
		return Booking{}, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Booking{}, nil, err
	}

	booking.LeadID = &leadID
	return booking, &leadID, nil
}

// GetByID returns a booking by its ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Booking, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+bookingColumns+` FROM bookings WHERE id = $1
	`, id)

	booking, err := scanBooking(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Booking{}, ErrNotFound
	}
	return booking, err
}

type ListParams struct {
	Status *string
	Offset int
	Limit  int
}

// List returns a page of bookings, newest first, plus the total count.
func (r *Repository) List(ctx context.Context, params ListParams) ([]Booking, int, error) {
	where := "TRUE"
	args := []interface{}{}
	if params.Status != nil {
		where = "status = $1"
		args = append(args, *params.Status)
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM bookings WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limitIdx := len(args) + 1
	args = append(args, params.Limit, params.Offset)
	query := fmt.Sprintf(`
		SELECT %s FROM bookings
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, bookingColumns, where, limitIdx, limitIdx+1)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	bookings := make([]Booking, 0)
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, 0, err
		}
		bookings = append(bookings, booking)
	}

	if rows.Err() != nil {
		return nil, 0, rows.Err()
	}

	return bookings, total, nil
}

// UpdateStatus moves a booking between its own states (pending, confirmed,
// completed, cancelled). Booking status is independent of the lead lifecycle;
// cancelling a booking does not un-convert its lead.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (Booking, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE bookings SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+bookingColumns,
		id, status)

	booking, err := scanBooking(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Booking{}, ErrNotFound
	}
	return booking, err
}
