package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	identityapp "github.com/investorcrm/backend/internal/application/identity"
	"github.com/investorcrm/backend/internal/infrastructure/auth"
	"github.com/investorcrm/backend/internal/infrastructure/config"
	"github.com/investorcrm/backend/internal/infrastructure/persistence"
	"github.com/investorcrm/backend/internal/interfaces/http/dto"
	"github.com/investorcrm/backend/internal/interfaces/http/middleware"
	"github.com/investorcrm/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testPassword = "launch2024"

type authFixture struct {
	router *gin.Engine
	auth   *identityapp.AuthService
}

func newAuthFixture(t *testing.T) *authFixture {
	db := testutil.NewSQLiteDB(t)
	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-that-is-at-least-32-characters",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 24 * time.Hour,
		Issuer:                 "investorcrm-test",
		MaxRefreshCount:        5,
	})
	authService := identityapp.NewAuthService(
		persistence.NewGormTenantRepository(db),
		persistence.NewGormUserRepository(db),
		persistence.NewGormIdentityTransaction(db),
		jwtService,
		auth.NewInMemoryTokenBlacklist(),
		testutil.NewRecordingPublisher(),
		identityapp.DefaultAuthServiceConfig(),
		zap.NewNop(),
	)
	h := NewAuthHandler(authService, NewSessionCookies(config.CookieConfig{SameSite: "lax"}))

	router := gin.New()
	router.Use(middleware.RequestID())
	public := router.Group("/auth")
	public.POST("/register", h.Register)
	public.POST("/login", h.Login)
	public.POST("/refresh", h.RefreshToken)
	public.GET("/csrf", h.CSRFToken)

	protected := router.Group("/auth")
	protected.Use(middleware.CSRF(true), middleware.Auth(middleware.AuthConfig{Authenticator: authService}))
	protected.POST("/logout", h.Logout)
	protected.GET("/me", h.GetCurrentUser)
	protected.PUT("/me", h.UpdateProfile)
	protected.PUT("/password", h.ChangePassword)

	return &authFixture{router: router, auth: authService}
}

func (f *authFixture) do(t *testing.T, method, path string, body any, mutate func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	return testutil.DoJSON(t, f.router, method, path, body, mutate)
}

func (f *authFixture) register(t *testing.T) LoginResponse {
	t.Helper()
	w := f.do(t, http.MethodPost, "/auth/register", RegisterRequest{
		CompanyName: "Acme Robotics",
		Email:       "founder@acme.io",
		Password:    testPassword,
		DisplayName: "Ada",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return testutil.DecodeData[LoginResponse](t, w)
}

func cookieByName(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func bearer(token string) func(*http.Request) {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func TestAuthHandler_Register(t *testing.T) {
	f := newAuthFixture(t)

	w := f.do(t, http.MethodPost, "/auth/register", RegisterRequest{
		CompanyName: "Acme Robotics",
		Email:       "founder@acme.io",
		Password:    testPassword,
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	resp := testutil.DecodeData[LoginResponse](t, w)
	assert.Equal(t, "acme-robotics", resp.User.TenantSlug)
	assert.Equal(t, "owner", resp.User.Role)
	assert.Equal(t, "Bearer", resp.Token.TokenType)
	assert.NotEmpty(t, resp.CSRFToken)

	access := cookieByName(w, middleware.AccessCookieName)
	require.NotNil(t, access)
	assert.True(t, access.HttpOnly)
	assert.Equal(t, resp.Token.AccessToken, access.Value)

	csrf := cookieByName(w, middleware.CSRFCookieName)
	require.NotNil(t, csrf)
	assert.False(t, csrf.HttpOnly)
	assert.Equal(t, resp.CSRFToken, csrf.Value)

	t.Run("duplicate workspace", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/auth/register", RegisterRequest{
			CompanyName: "Acme Robotics",
			Email:       "someone@acme.io",
			Password:    testPassword,
		}, nil)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("validation", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/auth/register", gin.H{"company_name": "A", "email": "nope"}, nil)
		testutil.AssertErrorResponse(t, w, http.StatusBadRequest, dto.ErrCodeValidation)
	})
}

func TestAuthHandler_Login(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t)

	tests := []struct {
		name     string
		body     any
		wantCode int
		wantErr  string
	}{
		{"success", LoginRequest{Email: "founder@acme.io", Password: testPassword}, http.StatusOK, ""},
		{"wrong password", LoginRequest{Email: "founder@acme.io", Password: "wrong-pass1"}, http.StatusUnauthorized, dto.ErrCodeInvalidCredentials},
		{"unknown email", LoginRequest{Email: "ghost@acme.io", Password: testPassword}, http.StatusUnauthorized, dto.ErrCodeInvalidCredentials},
		{"missing password", gin.H{"email": "founder@acme.io"}, http.StatusBadRequest, dto.ErrCodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, http.MethodPost, "/auth/login", tt.body, nil)
			assert.Equal(t, tt.wantCode, w.Code, w.Body.String())
			if tt.wantErr != "" {
				assert.Equal(t, tt.wantErr, testutil.DecodeResponse(t, w).Error.Code)
				return
			}
			resp := testutil.DecodeData[LoginResponse](t, w)
			assert.Equal(t, "founder@acme.io", resp.User.Email)
			assert.NotNil(t, cookieByName(w, middleware.RefreshCookieName))
		})
	}
}

func TestAuthHandler_RefreshToken(t *testing.T) {
	f := newAuthFixture(t)
	session := f.register(t)

	t.Run("from body", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/auth/refresh", RefreshTokenRequest{RefreshToken: session.Token.RefreshToken}, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		resp := testutil.DecodeData[RefreshTokenResponse](t, w)
		assert.NotEmpty(t, resp.Token.AccessToken)
		assert.NotEmpty(t, resp.CSRFToken)
	})

	t.Run("from cookie", func(t *testing.T) {
		login := f.do(t, http.MethodPost, "/auth/login", LoginRequest{Email: "founder@acme.io", Password: testPassword}, nil)
		refresh := cookieByName(login, middleware.RefreshCookieName)
		require.NotNil(t, refresh)

		w := f.do(t, http.MethodPost, "/auth/refresh", nil, func(r *http.Request) { r.AddCookie(refresh) })
		assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	})

	t.Run("missing token", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/auth/refresh", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("invalid token clears cookies", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/auth/refresh", RefreshTokenRequest{RefreshToken: "garbage"}, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		cleared := cookieByName(w, middleware.AccessCookieName)
		require.NotNil(t, cleared)
		assert.Empty(t, cleared.Value)
		assert.True(t, cleared.MaxAge < 0)
	})
}

func TestAuthHandler_MeAndLogout(t *testing.T) {
	f := newAuthFixture(t)
	session := f.register(t)

	w := f.do(t, http.MethodGet, "/auth/me", nil, bearer(session.Token.AccessToken))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	me := testutil.DecodeData[identityapp.UserInfo](t, w)
	assert.Equal(t, session.User.ID, me.ID)

	w = f.do(t, http.MethodPost, "/auth/logout", LogoutRequest{RefreshToken: session.Token.RefreshToken}, bearer(session.Token.AccessToken))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = f.do(t, http.MethodGet, "/auth/me", nil, bearer(session.Token.AccessToken))
	assert.Equal(t, http.StatusUnauthorized, w.Code, "revoked access token")

	w = f.do(t, http.MethodPost, "/auth/refresh", RefreshTokenRequest{RefreshToken: session.Token.RefreshToken}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "revoked refresh token")
}

func TestAuthHandler_CookieSessionNeedsCSRF(t *testing.T) {
	f := newAuthFixture(t)
	login := f.do(t, http.MethodPost, "/auth/register", RegisterRequest{
		CompanyName: "Beta Labs",
		Email:       "founder@beta.io",
		Password:    testPassword,
	}, nil)
	require.Equal(t, http.StatusCreated, login.Code)
	access := cookieByName(login, middleware.AccessCookieName)
	csrf := cookieByName(login, middleware.CSRFCookieName)
	require.NotNil(t, access)
	require.NotNil(t, csrf)

	withCookies := func(r *http.Request) {
		r.AddCookie(access)
		r.AddCookie(csrf)
	}

	w := f.do(t, http.MethodGet, "/auth/me", nil, withCookies)
	assert.Equal(t, http.StatusOK, w.Code, "safe methods need no header")

	name := "Grace"
	w = f.do(t, http.MethodPut, "/auth/me", UpdateProfileRequest{DisplayName: &name}, withCookies)
	testutil.AssertErrorResponse(t, w, http.StatusForbidden, dto.ErrCodeCSRF)

	w = f.do(t, http.MethodPut, "/auth/me", UpdateProfileRequest{DisplayName: &name}, func(r *http.Request) {
		withCookies(r)
		r.Header.Set(middleware.CSRFHeaderName, csrf.Value)
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Grace", testutil.DecodeData[identityapp.UserInfo](t, w).DisplayName)
}

func TestAuthHandler_ChangePassword(t *testing.T) {
	f := newAuthFixture(t)
	session := f.register(t)

	w := f.do(t, http.MethodPut, "/auth/password", ChangePasswordRequest{
		OldPassword: "not-the-password1",
		NewPassword: "brand-new-pass9",
	}, bearer(session.Token.AccessToken))
	assert.NotEqual(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodPut, "/auth/password", ChangePasswordRequest{
		OldPassword: testPassword,
		NewPassword: "brand-new-pass9",
	}, bearer(session.Token.AccessToken))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = f.do(t, http.MethodPost, "/auth/login", LoginRequest{Email: "founder@acme.io", Password: "brand-new-pass9"}, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthHandler_CSRFToken(t *testing.T) {
	f := newAuthFixture(t)

	w := f.do(t, http.MethodGet, "/auth/csrf", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := testutil.DecodeData[CSRFResponse](t, w)
	cookie := cookieByName(w, middleware.CSRFCookieName)
	require.NotNil(t, cookie)
	assert.Equal(t, resp.CSRFToken, cookie.Value)
	assert.InDelta(t, (24 * time.Hour).Seconds(), float64(cookie.MaxAge), 2)
}
