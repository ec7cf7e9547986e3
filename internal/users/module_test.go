package users

import (
	"net/http"
	"net/http/httptest"
	"testing"

	apphttp "leadbook_backend/internal/http"
	"leadbook_backend/platform/httpkit"
	"leadbook_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// identityStub sets the authenticated actor the way AuthRequired would,
// without a real token.
func identityStub(tier int) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(httpkit.ContextUserIDKey, uuid.New())
		c.Set(httpkit.ContextTierKey, tier)
		c.Next()
	}
}

func newUsersRouter(t *testing.T, authMiddleware gin.HandlerFunc) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	v1 := engine.Group("/api/v1")
	protected := v1.Group("")
	protected.Use(authMiddleware)

	module := NewModule(nil, validator.New())
	module.RegisterRoutes(&apphttp.RouterContext{
		Engine:    engine,
		V1:        v1,
		Protected: protected,
	})
	return engine
}

func TestDirectoryRoutesRejectLowerTiers(t *testing.T) {
	tests := []struct {
		name string
		tier int
	}{
		{name: "team lead", tier: 3},
		{name: "sales rep", tier: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newUsersRouter(t, identityStub(tt.tier))

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/v1/users/grouped", nil)
			engine.ServeHTTP(w, req)

			if w.Code != http.StatusForbidden {
				t.Fatalf("tier %d got status %d, want %d", tt.tier, w.Code, http.StatusForbidden)
			}
		})
	}
}

func TestDirectoryRoutesRejectUnauthenticated(t *testing.T) {
	passthrough := func(c *gin.Context) { c.Next() }
	engine := newUsersRouter(t, passthrough)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/grouped", nil)
	engine.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("unauthenticated got status %d, want %d", w.Code, http.StatusForbidden)
	}
}

func TestDirectoryRoutesAdmitManagerTiers(t *testing.T) {
	tests := []struct {
		name string
		tier int
	}{
		{name: "admin", tier: 1},
		{name: "manager", tier: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newUsersRouter(t, identityStub(tt.tier))

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/v1/users/grouped", nil)
			engine.ServeHTTP(w, req)

			// The tier gate must let the request through to the handler.
			// With no database behind the module the handler itself fails,
			// so only assert the gate did not reject.
			if w.Code == http.StatusForbidden {
				t.Fatalf("tier %d was rejected by the tier gate", tt.tier)
			}
		})
	}
}
