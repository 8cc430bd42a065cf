package identity

import (
	"github.com/investorcrm/backend/internal/domain/shared"
)

// Aggregate type constant for User
const AggregateTypeUser = "User"

// User domain event types
const (
	EventTypeUserCreated         = "UserCreated"
	EventTypeUserDeactivated     = "UserDeactivated"
	EventTypeUserPasswordChanged = "UserPasswordChanged"
	EventTypeUserRoleChanged     = "UserRoleChanged"
	EventTypeUserStatusChanged   = "UserStatusChanged"
	EventTypeUserLoggedIn        = "UserLoggedIn"
	EventTypeUserLoggedOut       = "UserLoggedOut"
)

// UserEvent is published on user lifecycle changes
type UserEvent struct {
	shared.BaseDomainEvent
	Email        string     `json:"email"`
	Role         Role       `json:"role"`
	PreviousRole Role       `json:"previous_role,omitempty"`
	Status       UserStatus `json:"status"`
}

// NewUserEvent creates a user event stamped with the user's current state
func NewUserEvent(eventType string, user *User) *UserEvent {
	return &UserEvent{
		BaseDomainEvent: shared.NewAggregateEvent(eventType, AggregateTypeUser, &user.TenantAggregateRoot),
		Email:           user.Email,
		Role:            user.Role,
		Status:          user.Status,
	}
}

// SessionEvent records a login or logout. The user is the actor.
type SessionEvent struct {
	shared.BaseDomainEvent
	Email     string `json:"email"`
	IP        string `json:"ip"`
	UserAgent string `json:"user_agent"`
}

// NewSessionEvent creates a login/logout event
func NewSessionEvent(eventType string, user *User, ip, userAgent string) *SessionEvent {
	base := shared.NewBaseDomainEvent(eventType, AggregateTypeUser, user.ID, user.TenantID)
	base.Actor = &user.ID
	base.AggVersion = user.Version
	return &SessionEvent{BaseDomainEvent: base, Email: user.Email, IP: ip, UserAgent: userAgent}
}
