package middleware

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/investorcrm/backend/internal/interfaces/http/dto"
)

// CSRF double-submit names
const (
	CSRFCookieName = "csrf_token"
	CSRFHeaderName = "X-CSRF-Token"
)

// NewCSRFToken returns a random URL-safe token
func NewCSRFToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// CSRF enforces the double-submit check on unsafe methods of cookie sessions: the X-CSRF-Token
// header must equal the csrf_token cookie. Bearer-token requests and requests without a session
// cookie are exempt.
func CSRF(enabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !enabled || isSafeMethod(c.Request.Method) {
			c.Next()
			return
		}
		if strings.HasPrefix(c.GetHeader(AuthHeaderKey), BearerPrefix) {
			c.Next()
			return
		}
		if !hasSessionCookie(c) {
			c.Next()
			return
		}

		header := c.GetHeader(CSRFHeaderName)
		cookie, err := c.Cookie(CSRFCookieName)
		if err != nil || header == "" || cookie == "" ||
			subtle.ConstantTimeCompare([]byte(header), []byte(cookie)) != 1 {
			c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeCSRF,
				"Missing or invalid CSRF token",
				c.GetString(RequestIDContextKey),
			))
			return
		}
		c.Next()
	}
}

func hasSessionCookie(c *gin.Context) bool {
	for _, name := range []string{AccessCookieName, RefreshCookieName} {
		if v, err := c.Cookie(name); err == nil && v != "" {
			return true
		}
	}
	return false
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}
