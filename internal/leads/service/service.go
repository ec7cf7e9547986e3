// Package service implements the lead lifecycle rules: intake with
// duplicate detection, assignment routing, status transitions, comments
// and the listing views. Authorization decisions are delegated to the
// policy package; all persistence goes through the repository.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"leadbook_backend/internal/events"
	"leadbook_backend/internal/leads/policy"
	"leadbook_backend/internal/leads/repository"
	"leadbook_backend/internal/leads/transport"
	"leadbook_backend/platform/apperr"
	"leadbook_backend/platform/config"
	"leadbook_backend/platform/logger"
	"leadbook_backend/platform/phone"
	"leadbook_backend/platform/validator"
)

// LeadRepository is the persistence surface the lifecycle engine needs.
type LeadRepository interface {
	Create(ctx context.Context, params repository.CreateLeadParams) (repository.Lead, error)
	GetByID(ctx context.Context, id uuid.UUID) (repository.Lead, error)
	GetActiveUnconvertedByPhone(ctx context.Context, phoneNumber string) (repository.Lead, error)
	List(ctx context.Context, params repository.ListParams) ([]repository.Lead, int, error)
	ListActive(ctx context.Context) ([]repository.Lead, error)
	Assign(ctx context.Context, params repository.AssignLeadParams) (repository.Lead, error)
	UpdateStatus(ctx context.Context, params repository.UpdateStatusParams) (repository.Lead, string, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
	AddComment(ctx context.Context, params repository.AddCommentParams) (repository.Comment, error)
	ListComments(ctx context.Context, leadID uuid.UUID) ([]repository.Comment, error)
	ListHistory(ctx context.Context, leadID uuid.UUID) ([]repository.StatusHistoryEntry, error)
}

// Assignee is the slice of a user record assignment needs.
type Assignee struct {
	ID       uuid.UUID
	Name     string
	Email    string
	Tier     int
	IsActive bool
}

// UserDirectory resolves assignment targets against the user store.
type UserDirectory interface {
	Assignee(ctx context.Context, id uuid.UUID) (Assignee, error)
}

var ErrAssigneeNotFound = errors.New("assignee not found")

type Service struct {
	repo      LeadRepository
	users     UserDirectory
	bus       events.Bus
	validator *validator.Validator
	log       *logger.Logger
	txTimeout time.Duration
}

func NewService(
	repo LeadRepository,
	users UserDirectory,
	bus events.Bus,
	v *validator.Validator,
	log *logger.Logger,
	cfg config.StoreConfig,
) *Service {
	return &Service{
		repo:      repo,
		users:     users,
		bus:       bus,
		validator: v,
		log:       log,
		txTimeout: cfg.GetTxTimeout(),
	}
}

// Create registers a new lead. The phone number is normalized before the
// duplicate check so that formatting variants of the same number collide. A
// lead counts as a duplicate only while an active, unconverted lead holds the
// same number; converted and soft-deleted leads free the number up again.
func (s *Service) Create(ctx context.Context, req transport.CreateLeadRequest) (transport.LeadResponse, error) {
	const op = "leads.Create"

	if err := s.validator.Struct(req); err != nil {
		return transport.LeadResponse{}, apperr.Validation(err.Error())
	}

	normalizedPhone := phone.NormalizeE164(req.Phone)

	existing, err := s.repo.GetActiveUnconvertedByPhone(ctx, normalizedPhone)
	if err == nil {
		return transport.LeadResponse{}, apperr.Duplicate("a lead with this phone number already exists").
			WithDetails(transport.DuplicateLeadDetails{ID: existing.ID, Name: existing.Name}).
			WithOp(op)
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return transport.LeadResponse{}, apperr.Transient("lead lookup failed", err).WithOp(op)
	}

	ctx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	lead, err := s.repo.Create(ctx, repository.CreateLeadParams{
		Name:             req.Name,
		Phone:            normalizedPhone,
		Email:            optional(req.Email),
		Location:         optional(req.Location),
		Address:          optional(req.Address),
		Services:         req.Services,
		ServiceCategory:  optional(req.ServiceCategory),
		Notes:            optional(req.Notes),
		Source:           string(req.Source),
		SourceCampaignID: optional(req.SourceCampaignID),
		SourceAdID:       optional(req.SourceAdID),
	})
	if err != nil {
		return transport.LeadResponse{}, apperr.Transient("failed to create lead", err).WithOp(op)
	}

	s.log.LeadEvent("lead_created", lead.ID.String())
	s.bus.Publish(ctx, events.LeadCreated{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		Name:      lead.Name,
		Phone:     lead.Phone,
		Source:    lead.Source,
	})

	return toLeadResponse(lead), nil
}

// Assign routes a lead to a user. Only tiers with assignment permission may
// call this; the assignee's tier is snapshotted on the lead so later tier
// changes do not rewrite history. Assignment clears the fresh flag, which is
// what unlocks status updates for the assignee.
func (s *Service) Assign(ctx context.Context, actor policy.Actor, leadID uuid.UUID, req transport.AssignLeadRequest) (transport.LeadResponse, error) {
	const op = "leads.Assign"

	if err := s.validator.Struct(req); err != nil {
		return transport.LeadResponse{}, apperr.Validation(err.Error())
	}
	if !policy.CanAssign(actor.Tier) {
		return transport.LeadResponse{}, apperr.Forbidden("only admins and area managers can assign leads").WithOp(op)
	}

	assignee, err := s.users.Assignee(ctx, req.AssignedToUserID)
	if err != nil {
		if errors.Is(err, ErrAssigneeNotFound) {
			return transport.LeadResponse{}, apperr.NotFound("assigned user not found").WithOp(op)
		}
		return transport.LeadResponse{}, apperr.Transient("assignee lookup failed", err).WithOp(op)
	}
	if !assignee.IsActive {
		return transport.LeadResponse{}, apperr.Validation("assigned user is inactive").WithOp(op)
	}

	ctx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	lead, err := s.repo.Assign(ctx, repository.AssignLeadParams{
		LeadID:           leadID,
		AssignedToUserID: assignee.ID,
		AssignedToTier:   assignee.Tier,
		AssignedByUserID: actor.ID,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.LeadResponse{}, apperr.NotFound("lead not found").WithOp(op)
		}
		return transport.LeadResponse{}, apperr.Transient("failed to assign lead", err).WithOp(op)
	}

	s.log.LeadEvent("lead_assigned", lead.ID.String())
	s.bus.Publish(ctx, events.LeadAssigned{
		BaseEvent:    events.NewBaseEvent(),
		LeadID:       lead.ID,
		LeadName:     lead.Name,
		LeadPhone:    lead.Phone,
		AssigneeID:   assignee.ID,
		AssigneeTier: assignee.Tier,
		AssignedByID: actor.ID,
	})

	return toLeadResponse(lead), nil
}

// UpdateStatus moves a lead through its lifecycle. Fresh leads reject status
// updates until they have been assigned; below assignment-capable tiers only
// the current assignee may update. Setting the same status again is allowed
// and still produces a history entry.
func (s *Service) UpdateStatus(ctx context.Context, actor policy.Actor, leadID uuid.UUID, req transport.UpdateLeadStatusRequest) (transport.LeadResponse, error) {
	const op = "leads.UpdateStatus"

	if err := s.validator.Struct(req); err != nil {
		return transport.LeadResponse{}, apperr.Validation(err.Error())
	}

	current, err := s.repo.GetByID(ctx, leadID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.LeadResponse{}, apperr.NotFound("lead not found").WithOp(op)
		}
		return transport.LeadResponse{}, apperr.Transient("lead lookup failed", err).WithOp(op)
	}

	if err := policy.CheckUpdateStatus(actor, current.AssignedToUserID, current.IsFresh); err != nil {
		return transport.LeadResponse{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	lead, oldStatus, err := s.repo.UpdateStatus(ctx, repository.UpdateStatusParams{
		LeadID:          leadID,
		Status:          string(req.Status),
		Notes:           optional(req.Notes),
		ChangedByUserID: actor.ID,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.LeadResponse{}, apperr.NotFound("lead not found").WithOp(op)
		}
		return transport.LeadResponse{}, apperr.Transient("failed to update lead status", err).WithOp(op)
	}

	if oldStatus == lead.Status {
		s.log.LeadEvent("lead_status_unchanged", lead.ID.String())
	} else {
		s.log.LeadEvent("lead_status_changed", lead.ID.String())
	}
	s.bus.Publish(ctx, events.LeadStatusChanged{
		BaseEvent:   events.NewBaseEvent(),
		LeadID:      lead.ID,
		OldStatus:   oldStatus,
		NewStatus:   lead.Status,
		ChangedByID: actor.ID,
	})

	return toLeadResponse(lead), nil
}

// AddComment appends a free-form note to the lead. The same check as status
// mutation applies: below assignment-capable tiers, only the assignee may
// comment.
func (s *Service) AddComment(ctx context.Context, actor policy.Actor, leadID uuid.UUID, req transport.AddCommentRequest) (transport.CommentResponse, error) {
	const op = "leads.AddComment"

	if err := s.validator.Struct(req); err != nil {
		return transport.CommentResponse{}, apperr.Validation(err.Error())
	}

	current, err := s.repo.GetByID(ctx, leadID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.CommentResponse{}, apperr.NotFound("lead not found").WithOp(op)
		}
		return transport.CommentResponse{}, apperr.Transient("lead lookup failed", err).WithOp(op)
	}

	if !policy.CanMutateLead(actor, current.AssignedToUserID) {
		return transport.CommentResponse{}, apperr.Forbidden("you can only comment on leads assigned to you").WithOp(op)
	}

	comment, err := s.repo.AddComment(ctx, repository.AddCommentParams{
		LeadID:  leadID,
		UserID:  actor.ID,
		Comment: req.Comment,
	})
	if err != nil {
		return transport.CommentResponse{}, apperr.Transient("failed to add comment", err).WithOp(op)
	}

	return toCommentResponse(comment), nil
}

func (s *Service) GetByID(ctx context.Context, leadID uuid.UUID) (transport.LeadResponse, error) {
	lead, err := s.repo.GetByID(ctx, leadID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.LeadResponse{}, apperr.NotFound("lead not found")
		}
		return transport.LeadResponse{}, apperr.Wrap(apperr.KindInternal, "lead lookup failed", err)
	}
	return toLeadResponse(lead), nil
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func (s *Service) List(ctx context.Context, req transport.ListLeadsRequest) (transport.LeadListResponse, error) {
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
		AssignedTo: req.AssignedTo,
		TierFilter: req.TierFilter,
		Search:     req.Search,
		DateFrom:   req.DateFrom,
		DateTo:     req.DateTo,
		Offset:     (page - 1) * pageSize,
		Limit:      pageSize,
	}
	if req.Status != nil {
		status := string(*req.Status)
		params.Status = &status
	}
	if req.Source != nil {
		source := string(*req.Source)
		params.Source = &source
	}

	leads, total, err := s.repo.List(ctx, params)
	if err != nil {
		return transport.LeadListResponse{}, apperr.Wrap(apperr.KindInternal, "failed to list leads", err)
	}

	pages := (total + pageSize - 1) / pageSize
	return transport.LeadListResponse{
		Leads: toLeadResponses(leads),
		Pagination: transport.Pagination{
			Page:  page,
			Limit: pageSize,
			Total: total,
			Pages: pages,
		},
	}, nil
}

// GroupedByLocation buckets all active leads by their location field.
// Leads without a location land in the "unspecified" bucket.
func (s *Service) GroupedByLocation(ctx context.Context) (transport.GroupedLeadsResponse, error) {
	return s.grouped(ctx, func(lead repository.Lead) string {
		if lead.Location == nil || *lead.Location == "" {
			return "unspecified"
		}
		return *lead.Location
	})
}

// GroupedByCategory buckets all active leads by service category.
func (s *Service) GroupedByCategory(ctx context.Context) (transport.GroupedLeadsResponse, error) {
	return s.grouped(ctx, func(lead repository.Lead) string {
		if lead.ServiceCategory == nil || *lead.ServiceCategory == "" {
			return "unspecified"
		}
		return *lead.ServiceCategory
	})
}

func (s *Service) grouped(ctx context.Context, keyFn func(repository.Lead) string) (transport.GroupedLeadsResponse, error) {
	leads, err := s.repo.ListActive(ctx)
	if err != nil {
		return transport.GroupedLeadsResponse{}, apperr.Wrap(apperr.KindInternal, "failed to list leads", err)
	}

	buckets := make(map[string][]transport.LeadResponse)
	order := make([]string, 0)
	for _, lead := range leads {
		key := keyFn(lead)
		if _, seen := buckets[key]; !seen {
			order = append(order, key)
		}
		buckets[key] = append(buckets[key], toLeadResponse(lead))
	}

	groups := make([]transport.LeadGroup, 0, len(order))
	for _, key := range order {
		groups = append(groups, transport.LeadGroup{
			Key:   key,
			Count: len(buckets[key]),
			Leads: buckets[key],
		})
	}

	return transport.GroupedLeadsResponse{Groups: groups}, nil
}

func (s *Service) ListComments(ctx context.Context, leadID uuid.UUID) ([]transport.CommentResponse, error) {
	if _, err := s.repo.GetByID(ctx, leadID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("lead not found")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "lead lookup failed", err)
	}

	comments, err := s.repo.ListComments(ctx, leadID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list comments", err)
	}
	return toCommentResponses(comments), nil
}

func (s *Service) ListHistory(ctx context.Context, leadID uuid.UUID) ([]transport.StatusHistoryResponse, error) {
	if _, err := s.repo.GetByID(ctx, leadID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("lead not found")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "lead lookup failed", err)
	}

	entries, err := s.repo.ListHistory(ctx, leadID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list status history", err)
	}
	return toHistoryResponses(entries), nil
}

// Delete soft-deletes a lead. Admin only. The row stays in place so history
// and reporting keep working; every active-lead query filters it out.
func (s *Service) Delete(ctx context.Context, actor policy.Actor, leadID uuid.UUID) error {
	const op = "leads.Delete"

	if actor.Tier != policy.TierAdmin {
		return apperr.Forbidden("only admins can delete leads").WithOp(op)
	}

	ctx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	if err := s.repo.Deactivate(ctx, leadID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("lead not found").WithOp(op)
		}
		return apperr.Transient("failed to delete lead", err).WithOp(op)
	}

	s.log.LeadEvent("lead_deleted", leadID.String())
	return nil
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
