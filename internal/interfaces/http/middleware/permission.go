package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/investorcrm/backend/internal/domain/identity"
	"github.com/investorcrm/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// PermissionConfig holds configuration for permission middleware
type PermissionConfig struct {
	Logger *zap.Logger
}

// RequirePermission creates middleware that requires a specific permission
func RequirePermission(permission identity.Permission) gin.HandlerFunc {
	return RequireAnyPermissionWithConfig(PermissionConfig{}, permission)
}

// RequirePermissionWithConfig creates middleware with custom config
func RequirePermissionWithConfig(permission identity.Permission, cfg PermissionConfig) gin.HandlerFunc {
	return RequireAnyPermissionWithConfig(cfg, permission)
}

// RequireAnyPermission creates middleware that requires any of the specified permissions
func RequireAnyPermission(permissions ...identity.Permission) gin.HandlerFunc {
	return RequireAnyPermissionWithConfig(PermissionConfig{}, permissions...)
}

// RequireAnyPermissionWithConfig checks the caller's role against the permission list.
// The role in the access token is authoritative until the next refresh.
func RequireAnyPermissionWithConfig(cfg PermissionConfig, permissions ...identity.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := GetRole(c)
		if role == "" {
			handlePermissionDenied(c, cfg, permissions, "no authentication claims")
			return
		}
		for _, p := range permissions {
			if role.Can(p) {
				c.Next()
				return
			}
		}
		handlePermissionDenied(c, cfg, permissions, "role lacks permission")
	}
}

// HasPermission reports whether the caller may perform the permission
func HasPermission(c *gin.Context, permission identity.Permission) bool {
	return GetRole(c).Can(permission)
}

func handlePermissionDenied(c *gin.Context, cfg PermissionConfig, required []identity.Permission, reason string) {
	if cfg.Logger != nil {
		names := make([]string, len(required))
		for i, p := range required {
			names[i] = string(p)
		}
		fields := []zap.Field{
			zap.String("reason", reason),
			zap.Strings("required_permissions", names),
			zap.String("role", string(GetRole(c))),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
		}
		if userID, ok := GetUserID(c); ok {
			fields = append(fields, zap.String("user_id", userID.String()))
		}
		cfg.Logger.Warn("Permission denied", fields...)
	}

	c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponseWithRequestID(
		dto.ErrCodeForbidden,
		"Access denied: insufficient permissions",
		c.GetString(RequestIDContextKey),
	))
}
