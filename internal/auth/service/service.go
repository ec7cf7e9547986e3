// Package service implements credential verification and access token
// issuance. Tokens carry the user's ID and tier; the HTTP middleware places
// both on the request context, so downstream code never re-reads the user
// row to make a permission decision.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"leadbook_backend/internal/auth/password"
	"leadbook_backend/internal/auth/transport"
	"leadbook_backend/internal/leads/policy"
	"leadbook_backend/internal/users/repository"
	"leadbook_backend/platform/apperr"
	"leadbook_backend/platform/config"
	"leadbook_backend/platform/logger"
	"leadbook_backend/platform/validator"
)

type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (repository.User, error)
	GetByEmail(ctx context.Context, email string) (repository.User, error)
}

type Service struct {
	repo      UserRepository
	cfg       config.AuthServiceConfig
	validator *validator.Validator
	log       *logger.Logger
}

func NewService(repo UserRepository, cfg config.AuthServiceConfig, v *validator.Validator, log *logger.Logger) *Service {
	return &Service{repo: repo, cfg: cfg, validator: v, log: log}
}

// Login verifies the credentials and returns a signed access token. Unknown
// emails and wrong passwords produce the same error so the endpoint does not
// leak which accounts exist.
func (s *Service) Login(ctx context.Context, req transport.LoginRequest) (transport.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return transport.LoginResponse{}, apperr.Validation(err.Error())
	}

	user, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.log.AuthEvent("login", req.Email, false, "unknown email")
			return transport.LoginResponse{}, apperr.Unauthorized("invalid credentials")
		}
		return transport.LoginResponse{}, apperr.Transient("login failed", err)
	}

	if err := password.Compare(user.PasswordHash, req.Password); err != nil {
		s.log.AuthEvent("login", req.Email, false, "wrong password")
		return transport.LoginResponse{}, apperr.Unauthorized("invalid credentials")
	}
	if !user.IsActive {
		s.log.AuthEvent("login", req.Email, false, "inactive account")
		return transport.LoginResponse{}, apperr.Unauthorized("account is inactive")
	}

	expiresAt := time.Now().Add(s.cfg.GetAccessTokenTTL())
	accessToken, err := s.signAccessToken(user, expiresAt)
	if err != nil {
		return transport.LoginResponse{}, apperr.Wrap(apperr.KindInternal, "failed to sign token", err)
	}

	s.log.AuthEvent("login", req.Email, true, "")
	return transport.LoginResponse{
		AccessToken: accessToken,
		ExpiresAt:   expiresAt,
		User:        toProfile(user),
	}, nil
}

// Me returns the profile for the authenticated user.
func (s *Service) Me(ctx context.Context, userID uuid.UUID) (transport.UserProfile, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.UserProfile{}, apperr.NotFound("user not found")
		}
		return transport.UserProfile{}, apperr.Wrap(apperr.KindInternal, "user lookup failed", err)
	}
	return toProfile(user), nil
}

func (s *Service) signAccessToken(user repository.User, expiresAt time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sub":  user.ID.String(),
		"tier": user.Tier,
		"iat":  time.Now().Unix(),
		"exp":  expiresAt.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.GetJWTSecret()))
}

func toProfile(user repository.User) transport.UserProfile {
	return transport.UserProfile{
		ID:       user.ID,
		Name:     user.Name,
		Email:    user.Email,
		Tier:     user.Tier,
		TierName: policy.TierName(policy.Tier(user.Tier)),
	}
}
