package activity

import (
	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeActivity = "Activity"

// Event type constants
const (
	EventTypeActivityLogged   = "ActivityLogged"
	EventTypeActivityUpdated  = "ActivityUpdated"
	EventTypeActivityDeleted  = "ActivityDeleted"
	EventTypeActivityRestored = "ActivityRestored"
)

// ActivityEvent is published on every activity change
type ActivityEvent struct {
	shared.BaseDomainEvent
	InvestorID *uuid.UUID   `json:"investor_id,omitempty"`
	Type       ActivityType `json:"activity_type"`
	Subject    string       `json:"subject"`
	Source     Source       `json:"source"`
}

func newActivityEvent(eventType string, a *Activity) *ActivityEvent {
	return &ActivityEvent{
		BaseDomainEvent: shared.NewAggregateEvent(eventType, AggregateTypeActivity, &a.TenantAggregateRoot),
		InvestorID:      a.InvestorID,
		Type:            a.Type,
		Subject:         a.Subject,
		Source:          a.Source,
	}
}

// NewActivityLoggedEvent creates an ActivityLogged event
func NewActivityLoggedEvent(a *Activity) *ActivityEvent {
	return newActivityEvent(EventTypeActivityLogged, a)
}
