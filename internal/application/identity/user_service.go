package identity

import (
	"context"
	"crypto/rand"
	"math/big"

	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/domain/identity"
	"github.com/investorcrm/backend/internal/domain/shared"
	"github.com/investorcrm/backend/internal/infrastructure/auth"
	"go.uber.org/zap"
)

const (
	tempPasswordLength  = 14
	tempPasswordLetters = "abcdefghjkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ"
	tempPasswordDigits  = "23456789"
)

// UserService manages the members of a workspace
type UserService struct {
	users     identity.UserRepository
	blacklist auth.TokenBlacklist
	jwt       *auth.JWTService
	events    shared.EventPublisher
	logger    *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(
	users identity.UserRepository,
	blacklist auth.TokenBlacklist,
	jwt *auth.JWTService,
	events shared.EventPublisher,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		users:     users,
		blacklist: blacklist,
		jwt:       jwt,
		events:    events,
		logger:    logger,
	}
}

// Invite creates a pending teammate with a temporary password they must change on first login
func (s *UserService) Invite(ctx context.Context, tenantID, actorID uuid.UUID, input InviteUserInput) (*InviteResult, error) {
	actor, err := s.users.FindByID(ctx, tenantID, actorID)
	if err != nil {
		return nil, err
	}
	if !actor.Role.CanAssign(input.Role) {
		return nil, shared.NewDomainError("FORBIDDEN", "You cannot grant the "+string(input.Role)+" role")
	}

	exists, err := s.users.ExistsByEmail(ctx, tenantID, input.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "A teammate with this email already exists")
	}

	password, err := temporaryPassword()
	if err != nil {
		return nil, err
	}
	user, err := identity.NewUser(tenantID, input.Email, password, input.Role)
	if err != nil {
		return nil, err
	}
	user.SetCreatedBy(actorID)
	user.SetActor(actorID)
	if input.DisplayName != "" {
		if err := user.SetDisplayName(input.DisplayName); err != nil {
			return nil, err
		}
	}
	user.ForcePasswordChange()

	if err := s.users.Save(ctx, user); err != nil {
		return nil, err
	}
	s.publish(ctx, user)

	s.logger.Info("User invited",
		zap.String("tenant_id", tenantID.String()),
		zap.String("user_id", user.ID.String()),
		zap.String("role", string(user.Role)),
	)
	return &InviteResult{User: ToUserResponse(user), TemporaryPassword: password}, nil
}

// List returns the workspace members
func (s *UserService) List(ctx context.Context, tenantID uuid.UUID, input ListUsersInput) ([]UserResponse, int64, error) {
	filter := identity.NewUserFilter()
	filter.Keyword = input.Keyword
	if input.Page > 0 {
		filter.Page = input.Page
	}
	if input.PageSize > 0 {
		filter.PageSize = min(input.PageSize, 100)
	}
	if input.Status != "" {
		status := identity.UserStatus(input.Status)
		filter.Status = &status
	}
	if input.Role != "" {
		role := identity.Role(input.Role)
		filter.Role = &role
	}

	users, total, err := s.users.FindAll(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]UserResponse, len(users))
	for i := range users {
		out[i] = ToUserResponse(&users[i])
	}
	return out, total, nil
}

// Get returns one member
func (s *UserService) Get(ctx context.Context, tenantID, id uuid.UUID) (*UserResponse, error) {
	user, err := s.users.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToUserResponse(user)
	return &resp, nil
}

// UpdateRole changes a member's role. The workspace always keeps one active owner.
func (s *UserService) UpdateRole(ctx context.Context, tenantID, actorID, id uuid.UUID, role identity.Role) (*UserResponse, error) {
	actor, target, err := s.manageable(ctx, tenantID, actorID, id)
	if err != nil {
		return nil, err
	}
	if !actor.Role.CanAssign(role) {
		return nil, shared.NewDomainError("FORBIDDEN", "You cannot grant the "+string(role)+" role")
	}
	if target.Role == identity.RoleOwner && role != identity.RoleOwner {
		if err := s.ensureAnotherOwner(ctx, tenantID); err != nil {
			return nil, err
		}
	}

	target.SetActor(actorID)
	if err := target.ChangeRole(role); err != nil {
		return nil, err
	}
	if err := s.users.Save(ctx, target); err != nil {
		return nil, err
	}
	s.publish(ctx, target)

	resp := ToUserResponse(target)
	return &resp, nil
}

// Deactivate blocks a member from signing in and ends their sessions
func (s *UserService) Deactivate(ctx context.Context, tenantID, actorID, id uuid.UUID) (*UserResponse, error) {
	_, target, err := s.manageable(ctx, tenantID, actorID, id)
	if err != nil {
		return nil, err
	}
	if target.Role == identity.RoleOwner && target.IsActive() {
		if err := s.ensureAnotherOwner(ctx, tenantID); err != nil {
			return nil, err
		}
	}

	target.SetActor(actorID)
	if err := target.Deactivate(); err != nil {
		return nil, err
	}
	if err := s.users.Save(ctx, target); err != nil {
		return nil, err
	}
	if s.blacklist != nil {
		ttl := s.jwt.RefreshTokenExpiration()
		if err := s.blacklist.RevokeUser(ctx, target.ID, ttl); err != nil {
			s.logger.Error("Failed to revoke sessions of deactivated user", zap.Error(err))
		}
	}
	s.publish(ctx, target)

	resp := ToUserResponse(target)
	return &resp, nil
}

// manageable loads actor and target and checks the actor may manage the target
func (s *UserService) manageable(ctx context.Context, tenantID, actorID, id uuid.UUID) (*identity.User, *identity.User, error) {
	if actorID == id {
		return nil, nil, shared.NewDomainError("CANNOT_MODIFY_SELF", "You cannot change your own role or status")
	}
	actor, err := s.users.FindByID(ctx, tenantID, actorID)
	if err != nil {
		return nil, nil, err
	}
	if !actor.Can(identity.PermUsersManage) {
		return nil, nil, shared.ErrForbidden
	}
	target, err := s.users.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, nil, err
	}
	if actor.Role != identity.RoleOwner && !actor.Role.Outranks(target.Role) {
		return nil, nil, shared.NewDomainError("FORBIDDEN", "You cannot manage a teammate with an equal or higher role")
	}
	return actor, target, nil
}

func (s *UserService) ensureAnotherOwner(ctx context.Context, tenantID uuid.UUID) error {
	owners, err := s.users.CountByRole(ctx, tenantID, identity.RoleOwner)
	if err != nil {
		return err
	}
	if owners <= 1 {
		return shared.NewDomainError("LAST_OWNER", "The workspace must keep at least one owner")
	}
	return nil
}

func (s *UserService) publish(ctx context.Context, user *identity.User) {
	if err := shared.PublishAndClear(ctx, s.events, user); err != nil {
		s.logger.Warn("Failed to publish user events", zap.Error(err))
	}
}

// temporaryPassword returns a random password that satisfies the password policy
func temporaryPassword() (string, error) {
	alphabet := tempPasswordLetters + tempPasswordDigits
	buf := make([]byte, tempPasswordLength)
	for i := range buf {
		set := alphabet
		switch i {
		case 0:
			set = tempPasswordLetters
		case 1:
			set = tempPasswordDigits
		}
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(set))))
		if err != nil {
			return "", err
		}
		buf[i] = set[n.Int64()]
	}
	return string(buf), nil
}
