package handler

import (
	"time"

	"github.com/investorcrm/backend/internal/application/identity"
	"github.com/investorcrm/backend/internal/infrastructure/auth"
)

// RegisterRequest creates a workspace and its owner account
type RegisterRequest struct {
	CompanyName string `json:"company_name" binding:"required,min=2,max=200" example:"Acme Robotics"`
	Slug        string `json:"slug" binding:"omitempty,min=3,max=63" example:"acme-robotics"`
	Email       string `json:"email" binding:"required,email,max=255" example:"founder@acme.io"`
	Password    string `json:"password" binding:"required,min=8,max=128"`
	DisplayName string `json:"display_name" binding:"omitempty,max=200" example:"Ada Founder"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	TenantSlug string `json:"tenant_slug" binding:"omitempty,max=63" example:"acme-robotics"`
	Email      string `json:"email" binding:"required,email" example:"founder@acme.io"`
	Password   string `json:"password" binding:"required" example:"s3cret-passw0rd"`
}

// RefreshTokenRequest represents a token refresh request.
// Browser clients may omit the body and rely on the refresh cookie.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// LogoutRequest optionally carries the refresh token to revoke alongside the access token
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ChangePasswordRequest represents a password change request
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=128"`
}

// UpdateProfileRequest changes the caller's own profile
type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name" binding:"omitempty,max=200"`
	LinkedInURL *string `json:"linkedin_url" binding:"omitempty,max=500"`
}

// TokenResponse represents token information in response
type TokenResponse struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
	TokenType             string    `json:"token_type" example:"Bearer"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	Token     TokenResponse     `json:"token"`
	User      identity.UserInfo `json:"user"`
	CSRFToken string            `json:"csrf_token,omitempty"`
}

// RefreshTokenResponse represents the token refresh response
type RefreshTokenResponse struct {
	Token     TokenResponse `json:"token"`
	CSRFToken string        `json:"csrf_token,omitempty"`
}

// CSRFResponse carries a fresh CSRF token, also set as the csrf_token cookie
type CSRFResponse struct {
	CSRFToken string `json:"csrf_token"`
}

// MessageResponse is a plain acknowledgement
type MessageResponse struct {
	Message string `json:"message"`
}

func toTokenResponse(pair *auth.TokenPair) TokenResponse {
	return TokenResponse{
		AccessToken:           pair.AccessToken,
		RefreshToken:          pair.RefreshToken,
		AccessTokenExpiresAt:  pair.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: pair.RefreshTokenExpiresAt,
		TokenType:             pair.TokenType,
	}
}
