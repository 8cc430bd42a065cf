package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/domain/identity"
	"github.com/investorcrm/backend/internal/domain/shared"
	"github.com/investorcrm/backend/internal/infrastructure/auth"
	"github.com/investorcrm/backend/internal/infrastructure/config"
	"github.com/investorcrm/backend/internal/infrastructure/logger"
	"github.com/stretchr/testify/assert"
)

type stubAuthenticator struct {
	claims *auth.Claims
	err    error
	tokens []string
}

func (s *stubAuthenticator) Authenticate(_ context.Context, token string) (*auth.Claims, error) {
	s.tokens = append(s.tokens, token)
	if s.err != nil {
		return nil, s.err
	}
	return s.claims, nil
}

func newClaims(role identity.Role) *auth.Claims {
	return &auth.Claims{TenantID: uuid.New(), UserID: uuid.New(), Role: string(role), TokenType: auth.TokenTypeAccess}
}

func authRouter(a Authenticator, allowQuery bool) *gin.Engine {
	router := gin.New()
	router.Use(RequestID(), Auth(AuthConfig{Authenticator: a, AllowQueryToken: allowQuery}))
	router.GET("/test", func(c *gin.Context) {
		userID, _ := GetUserID(c)
		tenantID, _ := GetTenantID(c)
		c.JSON(http.StatusOK, gin.H{
			"user_id":    userID,
			"tenant_id":  tenantID,
			"role":       GetRole(c),
			"via_cookie": AuthenticatedViaCookie(c),
			"log_tenant": logger.GetTenantID(c.Request.Context()),
		})
	})
	return router
}

func TestAuth_BearerToken(t *testing.T) {
	claims := newClaims(identity.RoleMember)
	stub := &stubAuthenticator{claims: claims}
	router := authRouter(stub, false)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer abc.def.ghi")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"abc.def.ghi"}, stub.tokens)
	assert.Contains(t, w.Body.String(), claims.UserID.String())
	assert.Contains(t, w.Body.String(), `"log_tenant":"`+claims.TenantID.String())
	assert.Contains(t, w.Body.String(), `"via_cookie":false`)
	assert.Contains(t, w.Body.String(), `"role":"member"`)
}

func TestAuth_CookieToken(t *testing.T) {
	stub := &stubAuthenticator{claims: newClaims(identity.RoleViewer)}
	router := authRouter(stub, false)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.AddCookie(&http.Cookie{Name: AccessCookieName, Value: "cookie-token"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"cookie-token"}, stub.tokens)
	assert.Contains(t, w.Body.String(), `"via_cookie":true`)
}

func TestAuth_QueryToken(t *testing.T) {
	stub := &stubAuthenticator{claims: newClaims(identity.RoleViewer)}

	w := httptest.NewRecorder()
	authRouter(stub, false).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test?token=q", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code, "query tokens are opt-in")

	w = httptest.NewRecorder()
	authRouter(stub, true).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test?token=q", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"q"}, stub.tokens)
}

func TestAuth_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		err      error
		status   int
		wantCode string
	}{
		{"missing", "", nil, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"not bearer", "Basic dXNlcjpwYXNz", nil, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"expired", "Bearer t", shared.NewDomainError("TOKEN_EXPIRED", "Token has expired"), http.StatusUnauthorized, "TOKEN_EXPIRED"},
		{"revoked", "Bearer t", shared.NewDomainError("TOKEN_REVOKED", "Session has been revoked"), http.StatusUnauthorized, "TOKEN_REVOKED"},
		{"blacklist down", "Bearer t", errors.New("redis: connection refused"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := authRouter(&stubAuthenticator{err: tt.err, claims: newClaims(identity.RoleOwner)}, false)
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), `"code":"`+tt.wantCode+`"`)
			assert.Contains(t, w.Body.String(), `"request_id":"`)
		})
	}
}

func TestAuth_RealService(t *testing.T) {
	jwtService := auth.NewJWTService(testJWTConfig())
	pair, err := jwtService.GenerateTokenPair(auth.GenerateTokenInput{
		TenantID: uuid.New(), UserID: uuid.New(), Email: "a@b.io", Role: string(identity.RoleAdmin),
	})
	assert.NoError(t, err)

	router := authRouter(jwtAuthenticator{jwtService}, false)
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer "+pair.RefreshToken)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "refresh tokens cannot authenticate requests")
}

type jwtAuthenticator struct {
	svc *auth.JWTService
}

func (a jwtAuthenticator) Authenticate(_ context.Context, token string) (*auth.Claims, error) {
	claims, err := a.svc.ValidateAccessToken(token)
	if err != nil {
		return nil, shared.WrapDomainError("TOKEN_INVALID", "Invalid token", err)
	}
	return claims, nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:                 "test-secret-key-at-least-32-chars",
		RefreshSecret:          "test-refresh-secret-key-32-chars",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 7 * 24 * time.Hour,
		Issuer:                 "test-issuer",
		MaxRefreshCount:        10,
	}
}
