package shared

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent represents an event that occurred in the domain
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	OccurredAt() time.Time
	AggregateID() uuid.UUID
	AggregateType() string
	TenantID() uuid.UUID
}

// ActorEvent is implemented by events that know which user caused them
type ActorEvent interface {
	DomainEvent
	ActorID() *uuid.UUID
}

// BaseDomainEvent provides common fields for all domain events
type BaseDomainEvent struct {
	ID            uuid.UUID  `json:"id"`
	Type          string     `json:"type"`
	Timestamp     time.Time  `json:"timestamp"`
	AggID         uuid.UUID  `json:"aggregate_id"`
	AggType       string     `json:"aggregate_type"`
	TenantIDValue uuid.UUID  `json:"tenant_id"`
	Actor         *uuid.UUID `json:"actor_id,omitempty"`
	AggVersion    int        `json:"version"`
}

// EventID returns the unique event identifier
func (e *BaseDomainEvent) EventID() uuid.UUID {
	return e.ID
}

// EventType returns the type of the event
func (e *BaseDomainEvent) EventType() string {
	return e.Type
}

// OccurredAt returns when the event occurred
func (e *BaseDomainEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID returns the ID of the aggregate that produced this event
func (e *BaseDomainEvent) AggregateID() uuid.UUID {
	return e.AggID
}

// AggregateType returns the type of the aggregate
func (e *BaseDomainEvent) AggregateType() string {
	return e.AggType
}

// TenantID returns the tenant ID
func (e *BaseDomainEvent) TenantID() uuid.UUID {
	return e.TenantIDValue
}

// ActorID returns the user who caused the event, if known
func (e *BaseDomainEvent) ActorID() *uuid.UUID {
	return e.Actor
}

// AggregateVersion returns the aggregate version right after the change
func (e *BaseDomainEvent) AggregateVersion() int {
	return e.AggVersion
}

// NewBaseDomainEvent creates a new base domain event
func NewBaseDomainEvent(eventType, aggType string, aggID, tenantID uuid.UUID) BaseDomainEvent {
	return BaseDomainEvent{
		ID:            uuid.New(),
		Type:          eventType,
		Timestamp:     time.Now(),
		AggID:         aggID,
		AggType:       aggType,
		TenantIDValue: tenantID,
	}
}

// NewAggregateEvent creates a base event stamped with the aggregate's current version and actor
func NewAggregateEvent(eventType, aggType string, root *TenantAggregateRoot) BaseDomainEvent {
	e := NewBaseDomainEvent(eventType, aggType, root.ID, root.TenantID)
	e.AggVersion = root.Version
	e.Actor = root.UpdatedBy
	return e
}
