package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/investorcrm/backend/internal/infrastructure/auth"
	"github.com/investorcrm/backend/internal/infrastructure/config"
	"github.com/investorcrm/backend/internal/interfaces/http/middleware"
)

// SessionCookies writes and clears the browser session: HttpOnly access and refresh
// cookies plus a script-readable CSRF cookie.
type SessionCookies struct {
	cfg config.CookieConfig
	now func() time.Time
}

// NewSessionCookies creates the cookie writer
func NewSessionCookies(cfg config.CookieConfig) *SessionCookies {
	if cfg.Path == "" {
		cfg.Path = "/"
	}
	return &SessionCookies{cfg: cfg, now: time.Now}
}

func (s *SessionCookies) sameSite() http.SameSite {
	switch strings.ToLower(s.cfg.SameSite) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

func (s *SessionCookies) set(c *gin.Context, name, value string, expires time.Time, httpOnly bool) {
	maxAge := int(expires.Sub(s.now()).Seconds())
	if maxAge < 0 {
		maxAge = -1
	}
	c.SetSameSite(s.sameSite())
	c.SetCookie(name, value, maxAge, s.cfg.Path, s.cfg.Domain, s.cfg.Secure, httpOnly)
}

// SetSession writes the token pair and a new CSRF token. The CSRF token is returned so
// clients that cannot read cookies can still send the header.
func (s *SessionCookies) SetSession(c *gin.Context, pair *auth.TokenPair) (string, error) {
	csrf, err := middleware.NewCSRFToken()
	if err != nil {
		return "", err
	}
	s.set(c, middleware.AccessCookieName, pair.AccessToken, pair.AccessTokenExpiresAt, true)
	s.set(c, middleware.RefreshCookieName, pair.RefreshToken, pair.RefreshTokenExpiresAt, true)
	s.set(c, middleware.CSRFCookieName, csrf, pair.RefreshTokenExpiresAt, false)
	return csrf, nil
}

// SetCSRF rotates only the CSRF cookie
func (s *SessionCookies) SetCSRF(c *gin.Context, ttl time.Duration) (string, error) {
	csrf, err := middleware.NewCSRFToken()
	if err != nil {
		return "", err
	}
	s.set(c, middleware.CSRFCookieName, csrf, s.now().Add(ttl), false)
	return csrf, nil
}

// Clear expires every session cookie
func (s *SessionCookies) Clear(c *gin.Context) {
	epoch := time.Unix(0, 0)
	s.set(c, middleware.AccessCookieName, "", epoch, true)
	s.set(c, middleware.RefreshCookieName, "", epoch, true)
	s.set(c, middleware.CSRFCookieName, "", epoch, false)
}
