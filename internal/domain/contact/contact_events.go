package contact

import (
	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeContact = "Contact"

// Event type constants
const (
	EventTypeContactCreated  = "ContactCreated"
	EventTypeContactUpdated  = "ContactUpdated"
	EventTypeContactDeleted  = "ContactDeleted"
	EventTypeContactRestored = "ContactRestored"
)

// ContactEvent carries the contact snapshot fields consumers index on
type ContactEvent struct {
	shared.BaseDomainEvent
	InvestorID *uuid.UUID `json:"investor_id,omitempty"`
	FullName   string     `json:"full_name"`
	Email      string     `json:"email,omitempty"`
}

func newContactEvent(eventType string, c *Contact) *ContactEvent {
	return &ContactEvent{
		BaseDomainEvent: shared.NewAggregateEvent(eventType, AggregateTypeContact, &c.TenantAggregateRoot),
		InvestorID:      c.InvestorID,
		FullName:        c.FullName(),
		Email:           c.Email,
	}
}

// NewContactCreatedEvent creates a ContactCreated event
func NewContactCreatedEvent(c *Contact) *ContactEvent {
	return newContactEvent(EventTypeContactCreated, c)
}

// NewContactUpdatedEvent creates a ContactUpdated event
func NewContactUpdatedEvent(c *Contact) *ContactEvent {
	return newContactEvent(EventTypeContactUpdated, c)
}

// NewContactDeletedEvent creates a ContactDeleted event
func NewContactDeletedEvent(c *Contact) *ContactEvent {
	return newContactEvent(EventTypeContactDeleted, c)
}

// NewContactRestoredEvent creates a ContactRestored event
func NewContactRestoredEvent(c *Contact) *ContactEvent {
	return newContactEvent(EventTypeContactRestored, c)
}
