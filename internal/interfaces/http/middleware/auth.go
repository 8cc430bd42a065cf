package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/domain/identity"
	"github.com/investorcrm/backend/internal/domain/shared"
	"github.com/investorcrm/backend/internal/infrastructure/auth"
	"github.com/investorcrm/backend/internal/infrastructure/logger"
	"github.com/investorcrm/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Context keys and transport names used by the auth middleware
const (
	ClaimsKey         = "auth_claims"
	ViaCookieKey      = "auth_via_cookie"
	AuthHeaderKey     = "Authorization"
	BearerPrefix      = "Bearer "
	AccessCookieName  = "access_token"
	RefreshCookieName = "refresh_token"
	QueryTokenParam   = "token"
)

// Authenticator validates an access token, including revocation checks
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*auth.Claims, error)
}

// AuthConfig holds configuration for the auth middleware
type AuthConfig struct {
	Authenticator Authenticator
	// AllowQueryToken accepts ?token= for clients that cannot set headers (websocket upgrades)
	AllowQueryToken bool
	Logger          *zap.Logger
}

// Auth returns middleware that requires a valid access token from the Authorization header,
// the access cookie or, when enabled, the query string.
func Auth(cfg AuthConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		token, viaCookie := extractToken(c, cfg.AllowQueryToken)
		if token == "" {
			abortUnauthorized(c, dto.ErrCodeUnauthorized, "Authentication required")
			return
		}

		claims, err := cfg.Authenticator.Authenticate(c.Request.Context(), token)
		if err != nil {
			var domainErr *shared.DomainError
			if errors.As(err, &domainErr) {
				log.Debug("Authentication rejected",
					zap.String("code", domainErr.Code),
					zap.String("path", c.Request.URL.Path))
				abortUnauthorized(c, domainErr.Code, domainErr.Message)
				return
			}
			log.Error("Authentication check failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError,
				dto.NewErrorResponseWithRequestID(dto.ErrCodeInternal, "An unexpected error occurred", c.GetString(RequestIDContextKey)))
			return
		}

		c.Set(ClaimsKey, claims)
		c.Set(ViaCookieKey, viaCookie)

		ctx := logger.WithTenantID(c.Request.Context(), claims.TenantID)
		ctx = logger.WithUserID(ctx, claims.UserID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func extractToken(c *gin.Context, allowQuery bool) (token string, viaCookie bool) {
	if header := c.GetHeader(AuthHeaderKey); header != "" {
		if strings.HasPrefix(header, BearerPrefix) {
			return strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix)), false
		}
		return "", false
	}
	if cookie, err := c.Cookie(AccessCookieName); err == nil && cookie != "" {
		return cookie, true
	}
	if allowQuery {
		return c.Query(QueryTokenParam), false
	}
	return "", false
}

func abortUnauthorized(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized,
		dto.NewErrorResponseWithRequestID(code, message, c.GetString(RequestIDContextKey)))
}

// GetClaims retrieves the caller's claims, or nil on public routes
func GetClaims(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(ClaimsKey); ok {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

// GetUserID returns the authenticated user id
func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	claims := GetClaims(c)
	if claims == nil || claims.UserID == uuid.Nil {
		return uuid.Nil, false
	}
	return claims.UserID, true
}

// GetTenantID returns the authenticated tenant id
func GetTenantID(c *gin.Context) (uuid.UUID, bool) {
	claims := GetClaims(c)
	if claims == nil || claims.TenantID == uuid.Nil {
		return uuid.Nil, false
	}
	return claims.TenantID, true
}

// GetRole returns the role carried by the access token
func GetRole(c *gin.Context) identity.Role {
	claims := GetClaims(c)
	if claims == nil {
		return ""
	}
	return identity.Role(claims.Role)
}

// AuthenticatedViaCookie reports whether the token came from the session cookie
func AuthenticatedViaCookie(c *gin.Context) bool {
	return c.GetBool(ViaCookieKey)
}
