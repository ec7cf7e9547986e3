// Package leads provides the lead lifecycle bounded context module.
// This file defines the module that encapsulates all leads setup and route registration.
package leads

import (
	apphttp "leadbook_backend/internal/http"
	"leadbook_backend/internal/leads/handler"
	"leadbook_backend/internal/leads/repository"
	"leadbook_backend/internal/leads/service"
	"leadbook_backend/platform/config"
	"leadbook_backend/platform/events"
	"leadbook_backend/platform/httpkit"
	"leadbook_backend/platform/logger"
	"leadbook_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the leads module with all its dependencies.
// The user directory is provided by the users module; leads only needs enough
// of a user record to validate assignment targets.
func NewModule(
	pool *pgxpool.Pool,
	eventBus events.Bus,
	users service.UserDirectory,
	val *validator.Validator,
	cfg *config.Config,
	log *logger.Logger,
) *Module {
	repo := repository.New(pool)
	svc := service.NewService(repo, users, eventBus, val, log, cfg)
	h := handler.NewHandler(svc)

	return &Module{
		handler: h,
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Service returns the lead service for use by other modules.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts leads routes on the provided router context.
// Creation and assignment are restricted to admins and area managers at the
// route level; finer-grained rules (assignee-only mutation, the fresh-lead
// lock, admin-only delete) live in the service.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	leads := ctx.Protected.Group("/leads")

	leads.GET("", m.handler.List)
	leads.POST("", httpkit.RequireMaxTier(2), m.handler.Create)
	leads.GET("/grouped/location", m.handler.GroupedByLocation)
	leads.GET("/grouped/category", m.handler.GroupedByCategory)
	leads.GET("/:id", m.handler.Get)
	leads.DELETE("/:id", m.handler.Delete)
	leads.PUT("/:id/assign", httpkit.RequireMaxTier(2), m.handler.Assign)
	leads.PATCH("/:id/status", m.handler.UpdateStatus)
	leads.POST("/:id/comments", m.handler.AddComment)
	leads.GET("/:id/comments", m.handler.ListComments)
	leads.GET("/:id/history", m.handler.ListHistory)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
