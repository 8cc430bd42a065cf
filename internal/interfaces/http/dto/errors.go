package dto

import (
	"net/http"
	"strings"
)

// General error codes
const (
	ErrCodeInternal   = "INTERNAL_ERROR"
	ErrCodeValidation = "VALIDATION_ERROR"
	ErrCodeBadRequest = "BAD_REQUEST"
)

// Authentication error codes
const (
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeTokenExpired       = "TOKEN_EXPIRED"
	ErrCodeTokenInvalid       = "TOKEN_INVALID"
	ErrCodeTokenRevoked       = "TOKEN_REVOKED"
	ErrCodeAccountLocked      = "ACCOUNT_LOCKED"
	ErrCodeCSRF               = "CSRF_TOKEN_INVALID"
)

// Resource error codes
const (
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeAlreadyExists = "ALREADY_EXISTS"
	ErrCodeConflict      = "CONFLICT"
	ErrCodeOptimistic    = "OPTIMISTIC_LOCK_ERROR"
)

// Integration error codes
const (
	ErrCodeIntegrationDisabled = "INTEGRATION_DISABLED"
	ErrCodeIntegrationError    = "INTEGRATION_ERROR"
)

// Rate limiting and size error codes
const (
	ErrCodeRateLimited     = "RATE_LIMIT_EXCEEDED"
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
)

// ErrorCodeHTTPStatus maps error codes that do not follow a naming pattern to HTTP status codes.
// Codes missing here are resolved by StatusForPattern.
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:   http.StatusInternalServerError,
	"DB_ERROR":        http.StatusInternalServerError,
	"SAVE_FAILED":     http.StatusInternalServerError,
	ErrCodeValidation: http.StatusBadRequest,
	ErrCodeBadRequest: http.StatusBadRequest,

	// Auth
	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeInvalidCredentials: http.StatusUnauthorized,
	ErrCodeTokenExpired:       http.StatusUnauthorized,
	ErrCodeTokenInvalid:       http.StatusUnauthorized,
	ErrCodeTokenRevoked:       http.StatusUnauthorized,
	"TOKEN_MAX_REFRESH":       http.StatusUnauthorized,
	"INVALID_TOKEN":           http.StatusUnauthorized,
	"INVALID_SIGNATURE":       http.StatusUnauthorized,
	ErrCodeForbidden:          http.StatusForbidden,
	ErrCodeCSRF:               http.StatusForbidden,
	"ACCOUNT_INACTIVE":        http.StatusForbidden,
	"ACCOUNT_DEACTIVATED":     http.StatusForbidden,
	"USER_DEACTIVATED":        http.StatusForbidden,
	"TENANT_SUSPENDED":        http.StatusForbidden,
	"CANNOT_MODIFY_SELF":      http.StatusForbidden,
	ErrCodeAccountLocked:      http.StatusLocked,

	// Resources
	ErrCodeNotFound:        http.StatusNotFound,
	"GOOGLE_NOT_CONNECTED": http.StatusNotFound,
	"UPLOAD_NOT_FOUND":     http.StatusNotFound,
	ErrCodeAlreadyExists:   http.StatusConflict,
	ErrCodeConflict:        http.StatusConflict,
	ErrCodeOptimistic:      http.StatusConflict,
	"CONCURRENCY_CONFLICT": http.StatusConflict,
	"MATCHING_IN_PROGRESS": http.StatusConflict,
	"LAST_OWNER":           http.StatusConflict,
	"FILE_TOO_LARGE":       http.StatusRequestEntityTooLarge,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,

	// Request shape
	"TENANT_REQUIRED":   http.StatusBadRequest,
	"EMPTY_MESSAGE":     http.StatusBadRequest,
	"MESSAGE_TOO_LONG":  http.StatusBadRequest,
	"INVESTOR_REQUIRED": http.StatusBadRequest,
	"USER_REQUIRED":     http.StatusBadRequest,

	// Integrations
	ErrCodeIntegrationDisabled: http.StatusServiceUnavailable,
	ErrCodeIntegrationError:    http.StatusBadGateway,
	"FETCH_FAILED":             http.StatusBadGateway,
	"RENDER_FAILED":            http.StatusBadGateway,
	"STORAGE_ERROR":            http.StatusBadGateway,
	"UPLOAD_URL_FAILED":        http.StatusBadGateway,
	"STORAGE_CHECK_FAILED":     http.StatusBadGateway,
	"GOOGLE_SCOPE_MISSING":     http.StatusUnprocessableEntity,

	ErrCodeRateLimited: http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return StatusForPattern(code)
}

// StatusForPattern derives a status from the code's naming convention. Any other domain code is
// a business rule violation.
func StatusForPattern(code string) int {
	switch {
	case code == "":
		return http.StatusInternalServerError
	case strings.HasPrefix(code, "INVALID_"):
		return http.StatusBadRequest
	case strings.HasSuffix(code, "_REQUIRED"):
		return http.StatusUnprocessableEntity
	case strings.HasSuffix(code, "_NOT_FOUND"):
		return http.StatusNotFound
	case strings.HasPrefix(code, "ALREADY_"), strings.HasSuffix(code, "_EXISTS"):
		return http.StatusConflict
	case strings.HasPrefix(code, "TOKEN_"):
		return http.StatusUnauthorized
	default:
		return http.StatusUnprocessableEntity
	}
}
