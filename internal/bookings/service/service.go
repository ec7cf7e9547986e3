// Package service implements booking creation with automatic lead
// conversion. Any booking whose phone number matches an active, unconverted
// lead converts that lead as a side effect of the same transaction.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"leadbook_backend/internal/bookings/repository"
	"leadbook_backend/internal/bookings/transport"
	"leadbook_backend/internal/events"
	"leadbook_backend/platform/apperr"
	"leadbook_backend/platform/config"
	"leadbook_backend/platform/logger"
	"leadbook_backend/platform/phone"
	"leadbook_backend/platform/validator"
)

// BookingRepository is the persistence surface the conversion coordinator
// needs.
type BookingRepository interface {
	CreateWithConversion(ctx context.Context, params repository.CreateBookingParams) (repository.Booking, *uuid.UUID, error)
	GetByID(ctx context.Context, id uuid.UUID) (repository.Booking, error)
	List(ctx context.Context, params repository.ListParams) ([]repository.Booking, int, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) (repository.Booking, error)
}

type Service struct {
	repo      BookingRepository
	bus       events.Bus
	validator *validator.Validator
	log       *logger.Logger
	txTimeout time.Duration
}

func NewService(
	repo BookingRepository,
	bus events.Bus,
	v *validator.Validator,
	log *logger.Logger,
	cfg config.StoreConfig,
) *Service {
	return &Service{
		repo:      repo,
		bus:       bus,
		validator: v,
		log:       log,
		txTimeout: cfg.GetTxTimeout(),
	}
}

// Create books a customer and converts their lead if one exists. The phone
// number is normalized the same way lead intake normalizes it, so a booking
// placed with a differently formatted number still matches the lead. The
// booking and the conversion commit together or not at all; a failed
// conversion never leaves an orphan booking behind.
func (s *Service) Create(ctx context.Context, actorID uuid.UUID, req transport.CreateBookingRequest) (transport.CreateBookingResponse, error) {
	const op = "bookings.Create"

	if err := s.validator.Struct(req); err != nil {
		return transport.CreateBookingResponse{}, apperr.Validation(err.Error())
	}

	normalizedPhone := phone.NormalizeE164(req.Phone)

	ctx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	booking, convertedLeadID, err := s.repo.CreateWithConversion(ctx, repository.CreateBookingParams{
		CustomerName:    req.CustomerName,
		Phone:           normalizedPhone,
		Email:           optional(req.Email),
		Location:        req.Location,
		Services:        req.Services,
		Date:            req.Date,
		TimeSlot:        req.TimeSlot,
		Notes:           optional(req.Notes),
		CreatedByUserID: actorID,
	})
	if err != nil {
		return transport.CreateBookingResponse{}, apperr.Transient("failed to create booking", err).WithOp(op)
	}

	s.bus.Publish(ctx, events.BookingCreated{
		BaseEvent: events.NewBaseEvent(),
		BookingID: booking.ID,
		LeadID:    convertedLeadID,
		Phone:     booking.Phone,
	})

	if convertedLeadID != nil {
		s.log.LeadEvent("lead_converted", convertedLeadID.String())
		s.bus.Publish(ctx, events.LeadConverted{
			BaseEvent: events.NewBaseEvent(),
			LeadID:    *convertedLeadID,
			BookingID: booking.ID,
			Phone:     booking.Phone,
		})
	}

	return transport.CreateBookingResponse{
		Booking:         toBookingResponse(booking),
		LeadConverted:   convertedLeadID != nil,
		ConvertedLeadID: convertedLeadID,
	}, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (transport.BookingResponse, error) {
	booking, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.BookingResponse{}, apperr.NotFound("booking not found")
		}
		return transport.BookingResponse{}, apperr.Wrap(apperr.KindInternal, "booking lookup failed", err)
	}
	return toBookingResponse(booking), nil
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func (s *Service) List(ctx context.Context, req transport.ListBookingsRequest) (transport.BookingListResponse, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	params := repository.ListParams{
		Offset: (page - 1) * pageSize,
		Limit:  pageSize,
	}
	if req.Status != nil {
		status := string(*req.Status)
		params.Status = &status
	}

	bookings, total, err := s.repo.List(ctx, params)
	if err != nil {
		return transport.BookingListResponse{}, apperr.Wrap(apperr.KindInternal, "failed to list bookings", err)
	}

	responses := make([]transport.BookingResponse, 0, len(bookings))
	for _, booking := range bookings {
		responses = append(responses, toBookingResponse(booking))
	}

	return transport.BookingListResponse{
		Bookings: responses,
		Pagination: transport.Pagination{
			Page:  page,
			Limit: pageSize,
			Total: total,
			Pages: (total + pageSize - 1) / pageSize,
		},
	}, nil
}

// UpdateStatus changes the booking's own state. This never feeds back into
// the lead lifecycle; a converted lead stays converted even if its booking is
// cancelled.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, req transport.UpdateBookingStatusRequest) (transport.BookingResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return transport.BookingResponse{}, apperr.Validation(err.Error())
	}

	ctx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	booking, err := s.repo.UpdateStatus(ctx, id, string(req.Status))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.BookingResponse{}, apperr.NotFound("booking not found")
		}
		return transport.BookingResponse{}, apperr.Transient("failed to update booking status", err)
	}
	return toBookingResponse(booking), nil
}

func toBookingResponse(booking repository.Booking) transport.BookingResponse {
	services := booking.Services
	if services == nil {
		services = []string{}
	}
	return transport.BookingResponse{
		ID:              booking.ID,
		CustomerName:    booking.CustomerName,
		Phone:           booking.Phone,
		Email:           booking.Email,
		Location:        booking.Location,
		Services:        services,
		Date:            booking.Date,
		TimeSlot:        booking.TimeSlot,
		Notes:           booking.Notes,
		Status:          booking.Status,
		LeadID:          booking.LeadID,
		CreatedByUserID: booking.CreatedByUserID,
		CreatedAt:       booking.CreatedAt,
		UpdatedAt:       booking.UpdatedAt,
	}
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
