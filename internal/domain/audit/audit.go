package audit

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/domain/shared"
)

// Action is what happened to the entity
type Action string

const (
	ActionCreate          Action = "create"
	ActionUpdate          Action = "update"
	ActionDelete          Action = "delete"
	ActionRestore         Action = "restore"
	ActionStageChange     Action = "stage_change"
	ActionLogin           Action = "login"
	ActionLogout          Action = "logout"
	ActionImport          Action = "import"
	ActionExport          Action = "export"
	ActionAssistantAction Action = "assistant_action"
)

// Entry is an append-only audit record. Entries are never updated or deleted.
type Entry struct {
	ID         uuid.UUID
	TenantID   uuid.UUID
	ActorID    *uuid.UUID
	Action     Action
	EntityType string
	EntityID   uuid.UUID
	Changes    map[string]any
	IP         string
	UserAgent  string
	RequestID  string
	CreatedAt  time.Time
}

// NewEntry creates an audit entry stamped now
func NewEntry(tenantID uuid.UUID, actorID *uuid.UUID, action Action, entityType string, entityID uuid.UUID) *Entry {
	return &Entry{
		ID:         uuid.New(),
		TenantID:   tenantID,
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Changes:    map[string]any{},
		CreatedAt:  time.Now(),
	}
}

// WithChanges attaches the change set
func (e *Entry) WithChanges(changes map[string]any) *Entry {
	if changes != nil {
		e.Changes = changes
	}
	return e
}

// WithRequest attaches request metadata
func (e *Entry) WithRequest(ip, userAgent, requestID string) *Entry {
	e.IP = ip
	if len(userAgent) > 500 {
		userAgent = userAgent[:500]
	}
	e.UserAgent = userAgent
	e.RequestID = requestID
	return e
}

// ActionForEvent maps a domain event type ("InvestorStageChanged") to an audit action
func ActionForEvent(eventType string) (Action, bool) {
	switch {
	case strings.HasSuffix(eventType, "StageChanged"):
		return ActionStageChange, true
	case strings.HasSuffix(eventType, "Created"),
		strings.HasSuffix(eventType, "Logged"),
		strings.HasSuffix(eventType, "Scheduled"):
		return ActionCreate, true
	case strings.HasSuffix(eventType, "Deleted"):
		return ActionDelete, true
	case strings.HasSuffix(eventType, "Restored"):
		return ActionRestore, true
	case strings.HasSuffix(eventType, "LoggedIn"):
		return ActionLogin, true
	case strings.HasSuffix(eventType, "LoggedOut"):
		return ActionLogout, true
	case strings.HasSuffix(eventType, "Imported"):
		return ActionImport, true
	case strings.HasSuffix(eventType, "Updated"),
		strings.HasSuffix(eventType, "Completed"),
		strings.HasSuffix(eventType, "Cancelled"),
		strings.HasSuffix(eventType, "Reopened"),
		strings.HasSuffix(eventType, "Analyzed"),
		strings.HasSuffix(eventType, "TranscriptAttached"),
		strings.HasSuffix(eventType, "Confirmed"),
		strings.HasSuffix(eventType, "Dismissed"),
		strings.HasSuffix(eventType, "RoleChanged"),
		strings.HasSuffix(eventType, "PasswordChanged"),
		strings.HasSuffix(eventType, "StatusChanged"),
		strings.HasSuffix(eventType, "Deactivated"):
		return ActionUpdate, true
	}
	return "", false
}

// Query filters audit entries
type Query struct {
	EntityType string
	EntityID   *uuid.UUID
	ActorID    *uuid.UUID
	Action     Action
	From       *time.Time
	To         *time.Time
	shared.Filter
}

// Repository is append-only storage for audit entries
type Repository interface {
	Append(ctx context.Context, entries ...*Entry) error
	Find(ctx context.Context, tenantID uuid.UUID, q Query) ([]Entry, int64, error)
}
