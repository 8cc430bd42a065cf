package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/domain/identity"
	"github.com/investorcrm/backend/internal/domain/shared"
	"github.com/investorcrm/backend/internal/infrastructure/auth"
	"go.uber.org/zap"
)

// AuthServiceConfig contains configuration for the auth service
type AuthServiceConfig struct {
	MaxLoginAttempts int           // Maximum failed login attempts before lock
	LockDuration     time.Duration // How long to lock account after max attempts
}

// DefaultAuthServiceConfig returns default configuration
func DefaultAuthServiceConfig() AuthServiceConfig {
	return AuthServiceConfig{
		MaxLoginAttempts: 5,
		LockDuration:     15 * time.Minute,
	}
}

// IdentityTransaction runs tenant and user writes atomically
type IdentityTransaction interface {
	Execute(ctx context.Context, fn func(tenants identity.TenantRepository, users identity.UserRepository) error) error
}

var (
	errInvalidCredentials = shared.NewDomainError("INVALID_CREDENTIALS", "Invalid email or password")
	errTokenRevoked       = shared.NewDomainError("TOKEN_REVOKED", "Session has been revoked, please log in again")
)

// AuthService handles authentication operations
type AuthService struct {
	tenants    identity.TenantRepository
	users      identity.UserRepository
	tx         IdentityTransaction
	jwtService *auth.JWTService
	blacklist  auth.TokenBlacklist
	events     shared.EventPublisher
	config     AuthServiceConfig
	logger     *zap.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	tenants identity.TenantRepository,
	users identity.UserRepository,
	tx IdentityTransaction,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	events shared.EventPublisher,
	config AuthServiceConfig,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		tenants:    tenants,
		users:      users,
		tx:         tx,
		jwtService: jwtService,
		blacklist:  blacklist,
		events:     events,
		config:     config,
		logger:     logger,
	}
}

// Register creates a workspace with its first user as owner and signs them in
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*LoginResult, error) {
	slug := input.Slug
	if slug == "" {
		slug = identity.SlugFromName(input.CompanyName)
	}
	tenant, err := identity.NewTenant(slug, input.CompanyName)
	if err != nil {
		return nil, err
	}
	user, err := identity.NewActiveUser(tenant.ID, input.Email, input.Password, identity.RoleOwner)
	if err != nil {
		return nil, err
	}
	if input.DisplayName != "" {
		if err := user.SetDisplayName(input.DisplayName); err != nil {
			return nil, err
		}
	}
	user.SetActor(user.ID)
	user.RecordLoginSuccess(input.IP)

	err = s.tx.Execute(ctx, func(tenants identity.TenantRepository, users identity.UserRepository) error {
		exists, err := tenants.ExistsBySlug(ctx, tenant.Slug)
		if err != nil {
			return err
		}
		if exists {
			return shared.NewDomainError("ALREADY_EXISTS", "Workspace URL is already taken")
		}
		if err := tenants.Save(ctx, tenant); err != nil {
			return err
		}
		return users.Save(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, tenant, user)
	s.logger.Info("Workspace registered",
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("slug", tenant.Slug),
		zap.String("user_id", user.ID.String()),
	)
	return s.issue(ctx, user, tenant, input.IP, input.UserAgent)
}

// Login authenticates a user and returns tokens
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	user, tenant, err := s.resolveLogin(ctx, input.TenantSlug, input.Email)
	if err != nil {
		return nil, err
	}

	if !user.CanLogin() {
		if user.IsLocked() {
			s.logger.Warn("Login attempt for locked account", zap.String("user_id", user.ID.String()))
			return nil, shared.NewDomainError("ACCOUNT_LOCKED", "Account is locked. Please try again later")
		}
		s.logger.Warn("Login attempt for deactivated account", zap.String("user_id", user.ID.String()))
		return nil, shared.NewDomainError("ACCOUNT_DEACTIVATED", "Account has been deactivated")
	}

	if !user.VerifyPassword(input.Password) {
		locked := user.RecordLoginFailure(s.config.MaxLoginAttempts, s.config.LockDuration)
		if err := s.users.Save(ctx, user); err != nil {
			s.logger.Error("Failed to update user after login failure", zap.Error(err))
		}
		s.publish(ctx, user)

		if locked {
			s.logger.Warn("Account locked after too many failed attempts",
				zap.String("user_id", user.ID.String()),
				zap.Int("attempts", s.config.MaxLoginAttempts))
			return nil, shared.NewDomainError("ACCOUNT_LOCKED", "Too many failed login attempts. Account has been locked")
		}
		s.logger.Warn("Invalid password attempt",
			zap.String("user_id", user.ID.String()),
			zap.Int("failed_attempts", user.FailedAttempts))
		return nil, errInvalidCredentials
	}

	user.RecordLoginSuccess(input.IP)
	if err := s.users.Save(ctx, user); err != nil {
		s.logger.Error("Failed to update user after successful login", zap.Error(err))
	}

	s.logger.Info("User logged in", zap.String("user_id", user.ID.String()), zap.String("tenant_id", user.TenantID.String()))
	return s.issue(ctx, user, tenant, input.IP, input.UserAgent)
}

// resolveLogin finds the account for an email, using the slug when the email exists in several workspaces
func (s *AuthService) resolveLogin(ctx context.Context, slug, email string) (*identity.User, *identity.Tenant, error) {
	email = shared.NormalizeEmail(email)
	if slug != "" {
		tenant, err := s.tenants.FindBySlug(ctx, slug)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, nil, errInvalidCredentials
			}
			return nil, nil, err
		}
		if !tenant.IsActive() {
			return nil, nil, shared.NewDomainError("TENANT_SUSPENDED", "Workspace is suspended")
		}
		user, err := s.users.FindByEmail(ctx, tenant.ID, email)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, nil, errInvalidCredentials
			}
			return nil, nil, err
		}
		return user, tenant, nil
	}

	users, err := s.users.FindAllByEmail(ctx, email)
	if err != nil {
		return nil, nil, err
	}
	switch len(users) {
	case 0:
		return nil, nil, errInvalidCredentials
	case 1:
	default:
		return nil, nil, shared.NewDomainError("TENANT_REQUIRED", "This email belongs to several workspaces, choose one to sign in")
	}
	user := &users[0]
	tenant, err := s.tenants.FindByID(ctx, user.TenantID)
	if err != nil {
		return nil, nil, err
	}
	if !tenant.IsActive() {
		return nil, nil, shared.NewDomainError("TENANT_SUSPENDED", "Workspace is suspended")
	}
	return user, tenant, nil
}

// Refresh rotates a refresh token. The old refresh token is revoked.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, tokenError(err)
	}
	if err := s.checkRevoked(ctx, claims); err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, claims.TenantID, claims.UserID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("TOKEN_INVALID", "Invalid refresh token")
		}
		return nil, err
	}
	if !user.CanLogin() {
		return nil, shared.NewDomainError("ACCOUNT_INACTIVE", "Account is no longer active")
	}

	pair, _, err := s.jwtService.RefreshTokenPair(refreshToken, string(user.Role), user.Role.Permissions())
	if err != nil {
		return nil, tokenError(err)
	}
	if err := s.blacklist.Revoke(ctx, claims.ID, claims.RemainingTTL()); err != nil {
		s.logger.Warn("Failed to revoke rotated refresh token", zap.Error(err))
	}
	return pair, nil
}

// Logout revokes the access token and, when given, the refresh token
func (s *AuthService) Logout(ctx context.Context, input LogoutInput) error {
	if input.AccessJTI != "" {
		if err := s.blacklist.Revoke(ctx, input.AccessJTI, input.AccessTTL); err != nil {
			return err
		}
	}
	if input.RefreshToken != "" {
		if claims, err := s.jwtService.ValidateRefreshToken(input.RefreshToken); err == nil && claims.UserID == input.UserID {
			if err := s.blacklist.Revoke(ctx, claims.ID, claims.RemainingTTL()); err != nil {
				s.logger.Warn("Failed to revoke refresh token on logout", zap.Error(err))
			}
		}
	}

	if user, err := s.users.FindByID(ctx, input.TenantID, input.UserID); err == nil {
		s.publishEvent(ctx, identity.NewSessionEvent(identity.EventTypeUserLoggedOut, user, input.IP, input.UserAgent))
	}
	s.logger.Info("User logged out",
		zap.String("user_id", input.UserID.String()),
		zap.String("tenant_id", input.TenantID.String()))
	return nil
}

// Me returns the caller
func (s *AuthService) Me(ctx context.Context, tenantID, userID uuid.UUID) (*UserInfo, error) {
	user, err := s.users.FindByID(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}
	tenant, err := s.tenants.FindByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	info := toUserInfo(user, tenant)
	return &info, nil
}

// UpdateProfile changes the caller's display name or LinkedIn profile
func (s *AuthService) UpdateProfile(ctx context.Context, tenantID, userID uuid.UUID, input UpdateProfileInput) (*UserInfo, error) {
	user, err := s.users.FindByID(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}
	if input.DisplayName != nil {
		if err := user.SetDisplayName(*input.DisplayName); err != nil {
			return nil, err
		}
	}
	if input.LinkedInURL != nil {
		if err := user.SetLinkedInURL(*input.LinkedInURL); err != nil {
			return nil, err
		}
	}
	if err := s.users.Save(ctx, user); err != nil {
		return nil, err
	}
	return s.Me(ctx, tenantID, userID)
}

// ChangePassword changes the caller's password and ends every existing session
func (s *AuthService) ChangePassword(ctx context.Context, input ChangePasswordInput) error {
	user, err := s.users.FindByID(ctx, input.TenantID, input.UserID)
	if err != nil {
		return err
	}
	user.SetActor(user.ID)
	if err := user.ChangePassword(input.OldPassword, input.NewPassword); err != nil {
		return err
	}
	if err := s.users.Save(ctx, user); err != nil {
		return err
	}
	if err := s.blacklist.RevokeUser(ctx, user.ID, s.jwtService.RefreshTokenExpiration()); err != nil {
		s.logger.Error("Failed to revoke sessions after password change", zap.Error(err))
	}
	s.publish(ctx, user)

	s.logger.Info("User password changed", zap.String("user_id", input.UserID.String()))
	return nil
}

// Authenticate validates an access token and checks it against the blacklist
func (s *AuthService) Authenticate(ctx context.Context, token string) (*auth.Claims, error) {
	claims, err := s.jwtService.ValidateAccessToken(token)
	if err != nil {
		return nil, tokenError(err)
	}
	if err := s.checkRevoked(ctx, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func (s *AuthService) checkRevoked(ctx context.Context, claims *auth.Claims) error {
	revoked, err := s.blacklist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return err
	}
	if revoked {
		return errTokenRevoked
	}
	revoked, err = s.blacklist.IsUserRevoked(ctx, claims.UserID, claims.IssuedAtTime())
	if err != nil {
		return err
	}
	if revoked {
		return errTokenRevoked
	}
	return nil
}

func (s *AuthService) issue(ctx context.Context, user *identity.User, tenant *identity.Tenant, ip, userAgent string) (*LoginResult, error) {
	pair, err := s.jwtService.GenerateTokenPair(auth.GenerateTokenInput{
		TenantID:    user.TenantID,
		UserID:      user.ID,
		Email:       user.Email,
		Role:        string(user.Role),
		Permissions: user.Role.Permissions(),
	})
	if err != nil {
		s.logger.Error("Failed to generate token pair", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to generate authentication tokens")
	}
	s.publishEvent(ctx, identity.NewSessionEvent(identity.EventTypeUserLoggedIn, user, ip, userAgent))
	return &LoginResult{Tokens: pair, User: toUserInfo(user, tenant)}, nil
}

func (s *AuthService) publish(ctx context.Context, roots ...shared.AggregateRoot) {
	for _, root := range roots {
		if err := shared.PublishAndClear(ctx, s.events, root); err != nil {
			s.logger.Warn("Failed to publish identity events", zap.Error(err))
		}
	}
}

func (s *AuthService) publishEvent(ctx context.Context, event shared.DomainEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish session event", zap.Error(err))
	}
}

// tokenError maps JWT validation errors to domain errors
func tokenError(err error) error {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return shared.NewDomainError("TOKEN_EXPIRED", "Token has expired")
	case errors.Is(err, auth.ErrMaxRefreshExceeded):
		return shared.NewDomainError("TOKEN_MAX_REFRESH", "Maximum token refresh count exceeded. Please log in again")
	default:
		return shared.NewDomainError("TOKEN_INVALID", "Invalid token")
	}
}
