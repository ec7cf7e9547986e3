// Package service provides the user directory: lookups for assignment
// targets, tier-grouped listings and admin user creation.
package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"leadbook_backend/internal/auth/password"
	"leadbook_backend/internal/leads/policy"
	leadssvc "leadbook_backend/internal/leads/service"
	"leadbook_backend/internal/users/repository"
	"leadbook_backend/internal/users/transport"
	"leadbook_backend/platform/apperr"
	"leadbook_backend/platform/phone"
	"leadbook_backend/platform/validator"
)

type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (repository.User, error)
	ListActive(ctx context.Context) ([]repository.User, error)
	Create(ctx context.Context, params repository.CreateUserParams) (repository.User, error)
}

type Service struct {
	repo      UserRepository
	validator *validator.Validator
}

func NewService(repo UserRepository, v *validator.Validator) *Service {
	return &Service{repo: repo, validator: v}
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (transport.UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.UserResponse{}, apperr.NotFound("user not found")
		}
		return transport.UserResponse{}, apperr.Wrap(apperr.KindInternal, "user lookup failed", err)
	}
	return toUserResponse(user), nil
}

// GroupedByTier returns the active user directory bucketed by tier, most
// privileged first. Every tier appears even when empty so clients can render
// a stable layout.
func (s *Service) GroupedByTier(ctx context.Context) (transport.GroupedUsersResponse, error) {
	users, err := s.repo.ListActive(ctx)
	if err != nil {
		return transport.GroupedUsersResponse{}, apperr.Wrap(apperr.KindInternal, "failed to list users", err)
	}

	groups := make([]transport.TierGroup, 0, 4)
	for tier := 1; tier <= 4; tier++ {
		groups = append(groups, transport.TierGroup{
			Tier:     tier,
			TierName: policy.TierName(policy.Tier(tier)),
			Users:    []transport.UserResponse{},
		})
	}
	for _, user := range users {
		if user.Tier < 1 || user.Tier > 4 {
			continue
		}
		groups[user.Tier-1].Users = append(groups[user.Tier-1].Users, toUserResponse(user))
	}

	return transport.GroupedUsersResponse{Groups: groups}, nil
}

// Create registers a new user. Admin only; the tier is set at creation and
// the password is stored as a bcrypt hash.
func (s *Service) Create(ctx context.Context, actor policy.Actor, req transport.CreateUserRequest) (transport.UserResponse, error) {
	const op = "users.Create"

	if actor.Tier != policy.TierAdmin {
		return transport.UserResponse{}, apperr.Forbidden("only admins can create users").WithOp(op)
	}
	if err := s.validator.Struct(req); err != nil {
		return transport.UserResponse{}, apperr.Validation(err.Error())
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		return transport.UserResponse{}, apperr.Wrap(apperr.KindInternal, "failed to hash password", err)
	}

	params := repository.CreateUserParams{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Tier:         req.Tier,
	}
	if req.Phone != "" {
		normalized := phone.NormalizeE164(req.Phone)
		params.Phone = &normalized
	}

	user, err := s.repo.Create(ctx, params)
	if err != nil {
		return transport.UserResponse{}, apperr.Transient("failed to create user", err).WithOp(op)
	}

	return toUserResponse(user), nil
}

func toUserResponse(user repository.User) transport.UserResponse {
	return transport.UserResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Phone:     user.Phone,
		Tier:      user.Tier,
		TierName:  policy.TierName(policy.Tier(user.Tier)),
		IsActive:  user.IsActive,
		CreatedAt: user.CreatedAt,
	}
}

// Directory adapts the user service to the lead module's assignment lookup.
type Directory struct {
	repo UserRepository
}

func NewDirectory(repo UserRepository) *Directory {
	return &Directory{repo: repo}
}

func (d *Directory) Assignee(ctx context.Context, id uuid.UUID) (leadssvc.Assignee, error) {
	user, err := d.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return leadssvc.Assignee{}, leadssvc.ErrAssigneeNotFound
		}
		return leadssvc.Assignee{}, err
	}
	return leadssvc.Assignee{
		ID:       user.ID,
		Name:     user.Name,
		Email:    user.Email,
		Tier:     user.Tier,
		IsActive: user.IsActive,
	}, nil
}
