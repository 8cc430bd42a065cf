package meeting

import (
	"time"

	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeMeeting = "Meeting"

// Event type constants
const (
	EventTypeMeetingScheduled          = "MeetingScheduled"
	EventTypeMeetingUpdated            = "MeetingUpdated"
	EventTypeMeetingCompleted          = "MeetingCompleted"
	EventTypeMeetingCancelled          = "MeetingCancelled"
	EventTypeMeetingTranscriptAttached = "MeetingTranscriptAttached"
	EventTypeMeetingAnalyzed           = "MeetingAnalyzed"
	EventTypeMeetingDeleted            = "MeetingDeleted"
	EventTypeMeetingRestored           = "MeetingRestored"
)

// MeetingEvent is published on every meeting change
type MeetingEvent struct {
	shared.BaseDomainEvent
	InvestorID  uuid.UUID `json:"investor_id"`
	Title       string    `json:"title"`
	Status      Status    `json:"status"`
	ScheduledAt time.Time `json:"scheduled_at"`
}

func newMeetingEvent(eventType string, m *Meeting) *MeetingEvent {
	return &MeetingEvent{
		BaseDomainEvent: shared.NewAggregateEvent(eventType, AggregateTypeMeeting, &m.TenantAggregateRoot),
		InvestorID:      m.InvestorID,
		Title:           m.Title,
		Status:          m.Status,
		ScheduledAt:     m.ScheduledAt,
	}
}
