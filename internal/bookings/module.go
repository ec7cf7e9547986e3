// Package bookings provides the bookings bounded context module, including
// the automatic lead conversion that runs when a booking's phone number
// matches an open lead.
package bookings

import (
	"leadbook_backend/internal/bookings/handler"
	"leadbook_backend/internal/bookings/repository"
	"leadbook_backend/internal/bookings/service"
	apphttp "leadbook_backend/internal/http"
	"leadbook_backend/platform/config"
	"leadbook_backend/platform/events"
	"leadbook_backend/platform/logger"
	"leadbook_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the bookings bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the bookings module.
func NewModule(
	pool *pgxpool.Pool,
	eventBus events.Bus,
	val *validator.Validator,
	cfg *config.Config,
	log *logger.Logger,
) *Module {
	repo := repository.New(pool)
	svc := service.NewService(repo, eventBus, val, log, cfg)

	return &Module{
		handler: handler.NewHandler(svc),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "bookings"
}

// Service returns the booking service for use by other modules.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts bookings routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	bookings := ctx.Protected.Group("/bookings")

	bookings.GET("", m.handler.List)
	bookings.POST("", m.handler.Create)
	bookings.GET("/:id", m.handler.Get)
	bookings.PATCH("/:id/status", m.handler.UpdateStatus)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
