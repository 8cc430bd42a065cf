package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/domain/identity"
	"github.com/investorcrm/backend/internal/infrastructure/auth"
)

// RegisterInput creates a workspace and its owner
type RegisterInput struct {
	CompanyName string
	Slug        string // derived from CompanyName when empty
	Email       string
	Password    string
	DisplayName string
	IP          string
	UserAgent   string
}

// LoginInput contains the input for user login.
// TenantSlug is only needed when the email belongs to several workspaces.
type LoginInput struct {
	TenantSlug string
	Email      string
	Password   string
	IP         string
	UserAgent  string
}

// LoginResult contains the result of a successful login or registration
type LoginResult struct {
	Tokens *auth.TokenPair
	User   UserInfo
}

// UserInfo is the authenticated caller as returned by login and /auth/me
type UserInfo struct {
	ID                 uuid.UUID `json:"id"`
	TenantID           uuid.UUID `json:"tenant_id"`
	TenantName         string    `json:"tenant_name"`
	TenantSlug         string    `json:"tenant_slug"`
	Email              string    `json:"email"`
	DisplayName        string    `json:"display_name"`
	Role               string    `json:"role"`
	Permissions        []string  `json:"permissions"`
	LinkedInURL        string    `json:"linkedin_url,omitempty"`
	MustChangePassword bool      `json:"must_change_password"`
}

// LogoutInput identifies the tokens to revoke
type LogoutInput struct {
	TenantID     uuid.UUID
	UserID       uuid.UUID
	AccessJTI    string
	AccessTTL    time.Duration
	RefreshToken string // optional
	IP           string
	UserAgent    string
}

// ChangePasswordInput contains the input for password change
type ChangePasswordInput struct {
	TenantID    uuid.UUID
	UserID      uuid.UUID
	OldPassword string
	NewPassword string
}

// UpdateProfileInput changes the caller's own profile
type UpdateProfileInput struct {
	DisplayName *string
	LinkedInURL *string
}

// InviteUserInput adds a teammate
type InviteUserInput struct {
	Email       string
	DisplayName string
	Role        identity.Role
}

// InviteResult carries the one-time password the inviter hands over
type InviteResult struct {
	User              UserResponse `json:"user"`
	TemporaryPassword string       `json:"temporary_password"`
}

// ListUsersInput filters the team list
type ListUsersInput struct {
	Keyword  string
	Status   string
	Role     string
	Page     int
	PageSize int
}

// UserResponse is the admin view of a team member
type UserResponse struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	DisplayName string     `json:"display_name"`
	Role        string     `json:"role"`
	Status      string     `json:"status"`
	LinkedInURL string     `json:"linkedin_url,omitempty"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ToUserResponse converts a user
func ToUserResponse(u *identity.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.GetDisplayNameOrEmail(),
		Role:        string(u.Role),
		Status:      string(u.Status),
		LinkedInURL: u.LinkedInURL,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func toUserInfo(u *identity.User, t *identity.Tenant) UserInfo {
	info := UserInfo{
		ID:                 u.ID,
		TenantID:           u.TenantID,
		Email:              u.Email,
		DisplayName:        u.GetDisplayNameOrEmail(),
		Role:               string(u.Role),
		Permissions:        u.Role.Permissions(),
		LinkedInURL:        u.LinkedInURL,
		MustChangePassword: u.MustChangePassword,
	}
	if t != nil {
		info.TenantName = t.Name
		info.TenantSlug = t.Slug
	}
	return info
}
