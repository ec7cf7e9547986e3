// Package auth provides the authentication bounded context module.
package auth

import (
	"leadbook_backend/internal/auth/handler"
	"leadbook_backend/internal/auth/service"
	apphttp "leadbook_backend/internal/http"
	usersrepo "leadbook_backend/internal/users/repository"
	"leadbook_backend/platform/config"
	"leadbook_backend/platform/logger"
	"leadbook_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the auth bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
}

// NewModule creates and initializes the auth module.
func NewModule(pool *pgxpool.Pool, cfg *config.Config, val *validator.Validator, log *logger.Logger) *Module {
	repo := usersrepo.New(pool)
	svc := service.NewService(repo, cfg, val, log)

	return &Module{handler: handler.NewHandler(svc)}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "auth"
}

// RegisterRoutes mounts auth routes. Login sits outside the protected group
// with a stricter per-IP rate limit; /me requires a valid token.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	authGroup := ctx.V1.Group("/auth")
	authGroup.POST("/login", ctx.AuthRateLimiter.RateLimit(), m.handler.Login)

	protected := ctx.Protected.Group("/auth")
	protected.GET("/me", m.handler.Me)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
