// Package users provides the user directory bounded context module.
package users

import (
	apphttp "leadbook_backend/internal/http"
	leadssvc "leadbook_backend/internal/leads/service"
	"leadbook_backend/internal/users/handler"
	"leadbook_backend/internal/users/repository"
	"leadbook_backend/internal/users/service"
	"leadbook_backend/platform/httpkit"
	"leadbook_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the users bounded context module implementing http.Module.
type Module struct {
	handler   *handler.Handler
	service   *service.Service
	directory *service.Directory
}

// NewModule creates and initializes the users module.
func NewModule(pool *pgxpool.Pool, val *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.NewService(repo, val)

	return &Module{
		handler:   handler.NewHandler(svc),
		service:   svc,
		directory: service.NewDirectory(repo),
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "users"
}

// Directory returns the assignment lookup used by the leads module.
func (m *Module) Directory() leadssvc.UserDirectory {
	return m.directory
}

// RegisterRoutes mounts users routes on the provided router context. The
// whole directory is restricted to tier 1 and 2 staff.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	users := ctx.Protected.Group("/users", httpkit.RequireMaxTier(2))

	users.GET("/grouped", m.handler.GroupedByTier)
	users.GET("/:id", m.handler.Get)
	users.POST("", m.handler.Create)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
