package preferences

import (
	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeSavedFilter = "SavedFilter"

// Event type constants
const (
	EventTypeSavedFilterCreated  = "SavedFilterCreated"
	EventTypeSavedFilterUpdated  = "SavedFilterUpdated"
	EventTypeSavedFilterDeleted  = "SavedFilterDeleted"
	EventTypeSavedFilterRestored = "SavedFilterRestored"
)

// SavedFilterEvent is published on saved filter changes
type SavedFilterEvent struct {
	shared.BaseDomainEvent
	UserID uuid.UUID  `json:"user_id"`
	Name   string     `json:"name"`
	Entity EntityType `json:"entity"`
}

func newSavedFilterEvent(eventType string, f *SavedFilter) *SavedFilterEvent {
	return &SavedFilterEvent{
		BaseDomainEvent: shared.NewAggregateEvent(eventType, AggregateTypeSavedFilter, &f.TenantAggregateRoot),
		UserID:          f.UserID,
		Name:            f.Name,
		Entity:          f.Entity,
	}
}
