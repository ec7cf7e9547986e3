package webhook

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	apphttp "leadbook_backend/internal/http"
	"leadbook_backend/platform/config"
	"leadbook_backend/platform/logger"
)

// Module is the webhook intake module implementing http.Module.
type Module struct {
	handler *Handler
	cfg     config.WebhookConfig
}

// NewModule creates the webhook module. The lead intake is the regular lead
// service, so webhook leads share its duplicate and normalization rules.
func NewModule(leads LeadIntake, cfg config.WebhookConfig, log *logger.Logger) *Module {
	return &Module{
		handler: NewHandler(leads, log),
		cfg:     cfg,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "webhook"
}

// RegisterRoutes mounts webhook routes. These sit outside the JWT-protected
// group; callers authenticate with a shared token instead.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	webhooks := ctx.V1.Group("/webhooks")
	webhooks.Use(m.tokenAuth())

	webhooks.POST("/meta", m.handler.Meta)
	webhooks.POST("/google-ads", m.handler.Google)
}

func (m *Module) tokenAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("X-Webhook-Token")
		expected := m.cfg.GetWebhookToken()
		if expected == "" || subtle.ConstantTimeCompare([]byte(token), []byte(expected)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid webhook token"})
			return
		}
		c.Next()
	}
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
