package realtime

import (
	"context"

	"github.com/investorcrm/backend/internal/domain/shared"
)

type versioned interface {
	AggregateVersion() int
}

// EventForwarder relays every domain event to the owning tenant's subscribers
type EventForwarder struct {
	hub *Hub
}

// NewEventForwarder creates the forwarder
func NewEventForwarder(hub *Hub) *EventForwarder {
	return &EventForwarder{hub: hub}
}

// Handle implements shared.EventHandler
func (f *EventForwarder) Handle(_ context.Context, event shared.DomainEvent) error {
	msg := Message{
		Type:          event.EventType(),
		AggregateType: event.AggregateType(),
		AggregateID:   event.AggregateID(),
		OccurredAt:    event.OccurredAt(),
	}
	if v, ok := event.(versioned); ok {
		msg.Version = v.AggregateVersion()
	}
	f.hub.Broadcast(event.TenantID(), msg)
	return nil
}

// EventTypes subscribes to everything
func (f *EventForwarder) EventTypes() []string {
	return nil
}

var _ shared.EventHandler = (*EventForwarder)(nil)
