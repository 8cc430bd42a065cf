package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/domain/identity"
	"github.com/investorcrm/backend/internal/domain/shared"
	"github.com/investorcrm/backend/internal/infrastructure/auth"
	"github.com/investorcrm/backend/internal/infrastructure/config"
	"github.com/investorcrm/backend/internal/interfaces/http/handler"
	"github.com/investorcrm/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())
	assert.Equal(t, "v1", r.apiVersion)
	assert.Equal(t, "/api/v1", r.BasePath())
	assert.Empty(t, r.registrars)

	r = NewRouter(gin.New(), WithAPIVersion("v2"))
	assert.Equal(t, "/api/v2", r.BasePath())
}

func TestDomainGroup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	var order []string
	mark := func(name string) gin.HandlerFunc {
		return func(c *gin.Context) {
			order = append(order, name)
			c.Next()
		}
	}

	group := NewDomainGroup("test", "/test").Use(mark("group"), nil)
	group.GET("/ping", nil, mark("route"), func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	sub := group.Group("sub", "/sub").Use(mark("sub"))
	sub.DELETE("/:id", func(c *gin.Context) { c.String(http.StatusOK, c.Param("id")) })

	r.Register(group)
	r.Setup()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/test/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
	assert.Equal(t, []string{"group", "route"}, order)

	order = nil
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/test/sub/42", nil))
	assert.Equal(t, "42", w.Body.String())
	assert.Equal(t, []string{"group", "sub"}, order)

	assert.Equal(t, "test", group.Name())
	assert.Equal(t, "/test", group.Prefix())
}

// roleAuthenticator accepts tokens that are role names
type roleAuthenticator struct{}

func (roleAuthenticator) Authenticate(_ context.Context, token string) (*auth.Claims, error) {
	role := identity.Role(token)
	if !role.IsValid() {
		return nil, shared.NewDomainError("TOKEN_INVALID", "Invalid token")
	}
	return &auth.Claims{TenantID: uuid.New(), UserID: uuid.New(), Role: token, TokenType: auth.TokenTypeAccess}, nil
}

func newAPI(t *testing.T) *gin.Engine {
	t.Helper()
	engine := gin.New()
	r := NewRouter(engine)

	authenticate := middleware.Auth(middleware.AuthConfig{Authenticator: roleAuthenticator{}})
	RegisterAPI(r, Handlers{
		System:      handler.NewSystemHandler("crm", "test", nil, nil),
		Auth:        handler.NewAuthHandler(nil, handler.NewSessionCookies(config.CookieConfig{})),
		User:        handler.NewUserHandler(nil),
		Investor:    handler.NewInvestorHandler(nil),
		Contact:     handler.NewContactHandler(nil),
		Activity:    handler.NewActivityHandler(nil),
		Task:        handler.NewTaskHandler(nil),
		Meeting:     handler.NewMeetingHandler(nil),
		Network:     handler.NewNetworkHandler(nil),
		Preferences: handler.NewPreferencesHandler(nil),
		Audit:       handler.NewAuditHandler(nil),
		Integration: handler.NewIntegrationHandler(nil, nil, nil, ""),
		Assistant:   handler.NewAssistantHandler(nil, nil),
		Report:      handler.NewReportHandler(nil),
		Realtime:    handler.NewRealtimeHandler(nil, config.RealtimeConfig{}),
	}, Guards{
		Auth:         authenticate,
		RealtimeAuth: middleware.Auth(middleware.AuthConfig{Authenticator: roleAuthenticator{}, AllowQueryToken: true}),
		CSRF:         middleware.CSRF(true),
		LLMRateLimit: func(c *gin.Context) {
			c.AbortWithStatus(http.StatusTooManyRequests)
		},
	})
	r.Setup()
	return engine
}

func TestRegisterAPI_Routes(t *testing.T) {
	engine := newAPI(t)

	registered := map[string]bool{}
	for _, route := range engine.Routes() {
		registered[route.Method+" "+route.Path] = true
	}

	expected := []string{
		"GET /api/v1/health",
		"GET /api/v1/ready",
		"GET /api/v1/metrics",
		"POST /api/v1/auth/register",
		"POST /api/v1/auth/login",
		"POST /api/v1/auth/refresh",
		"POST /api/v1/auth/logout",
		"GET /api/v1/auth/me",
		"GET /api/v1/auth/csrf",
		"PUT /api/v1/auth/password",
		"POST /api/v1/users",
		"PUT /api/v1/users/:id/role",
		"POST /api/v1/users/:id/deactivate",
		"GET /api/v1/investors",
		"POST /api/v1/investors/:id/restore",
		"POST /api/v1/investors/:id/stage",
		"POST /api/v1/investors/bulk/stage",
		"GET /api/v1/investors/deleted",
		"GET /api/v1/investors/pipeline",
		"GET /api/v1/investors/:id/timeline",
		"GET /api/v1/investors/:id/warm-intros",
		"GET /api/v1/investors/:id/news",
		"POST /api/v1/contacts/:id/primary",
		"DELETE /api/v1/activities/:id",
		"GET /api/v1/tasks/overdue",
		"GET /api/v1/tasks/mine",
		"POST /api/v1/tasks/:id/reopen",
		"POST /api/v1/meetings/:id/analyze",
		"GET /api/v1/meetings/:id/transcript-upload-url",
		"POST /api/v1/network/import",
		"GET /api/v1/network/import-url",
		"POST /api/v1/network/import/from-storage",
		"POST /api/v1/network/match",
		"POST /api/v1/network/relationships/:id/dismiss",
		"POST /api/v1/filters/:id/default",
		"PUT /api/v1/preferences",
		"GET /api/v1/audit/:entity_type/:entity_id",
		"GET /api/v1/integrations/google/auth-url",
		"GET /api/v1/integrations/google/callback",
		"DELETE /api/v1/integrations/google",
		"POST /api/v1/integrations/google/sync",
		"POST /api/v1/messages/send",
		"GET /api/v1/webhooks/whatsapp",
		"POST /api/v1/webhooks/whatsapp",
		"POST /api/v1/assistant/chat",
		"GET /api/v1/assistant/conversations/:id",
		"GET /api/v1/search",
		"POST /api/v1/reports/pipeline",
		"GET /api/v1/realtime",
	}
	var missing []string
	for _, route := range expected {
		if !registered[route] {
			missing = append(missing, route)
		}
	}
	sort.Strings(missing)
	assert.Empty(t, missing)
}

func TestRegisterAPI_Guards(t *testing.T) {
	engine := newAPI(t)
	id := uuid.NewString()

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"health is public", http.MethodGet, "/api/v1/health", "", http.StatusOK},
		{"protected route needs a token", http.MethodGet, "/api/v1/investors", "", http.StatusUnauthorized},
		{"bad token", http.MethodGet, "/api/v1/investors", "root", http.StatusUnauthorized},
		{"viewer cannot create", http.MethodPost, "/api/v1/investors", "viewer", http.StatusForbidden},
		{"member cannot delete", http.MethodDelete, "/api/v1/investors/" + id, "member", http.StatusForbidden},
		{"member cannot read audit", http.MethodGet, "/api/v1/audit", "member", http.StatusForbidden},
		{"member cannot invite", http.MethodPost, "/api/v1/users", "member", http.StatusForbidden},
		{"viewer cannot use the assistant", http.MethodPost, "/api/v1/assistant/chat", "viewer", http.StatusForbidden},
		{"assistant is rate limited per user", http.MethodPost, "/api/v1/assistant/chat", "member", http.StatusTooManyRequests},
		{"analyze is rate limited per user", http.MethodPost, "/api/v1/meetings/" + id + "/analyze", "member", http.StatusTooManyRequests},
		{"viewer cannot export", http.MethodPost, "/api/v1/reports/pipeline", "viewer", http.StatusForbidden},
		{"viewer cannot import", http.MethodPost, "/api/v1/network/import", "viewer", http.StatusForbidden},
		{"realtime needs a token", http.MethodGet, "/api/v1/realtime", "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestRegisterAPI_PublicCallbacks(t *testing.T) {
	engine := newAPI(t)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/integrations/google/callback?error=access_denied", nil))
	require.NotEqual(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "GOOGLE_CONSENT_DENIED")
}

func TestRegisterAPI_CookieSessionsNeedCSRF(t *testing.T) {
	engine := newAPI(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/investors", nil)
	req.AddCookie(&http.Cookie{Name: middleware.AccessCookieName, Value: "member"})
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "CSRF")
}
