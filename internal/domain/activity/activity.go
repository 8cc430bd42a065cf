package activity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/domain/shared"
)

// ActivityType is what kind of touchpoint happened
type ActivityType string

const (
	ActivityTypeNote        ActivityType = "note"
	ActivityTypeEmail       ActivityType = "email"
	ActivityTypeCall        ActivityType = "call"
	ActivityTypeMeeting     ActivityType = "meeting"
	ActivityTypeIntro       ActivityType = "intro"
	ActivityTypeStageChange ActivityType = "stage_change"
	ActivityTypeMessage     ActivityType = "message"
)

// Source records where an activity came from
type Source string

const (
	SourceManual    Source = "manual"
	SourceGmail     Source = "gmail"
	SourceCalendar  Source = "calendar"
	SourceChat      Source = "chat"
	SourceWhatsApp  Source = "whatsapp"
	SourceAssistant Source = "assistant"
	SourceSystem    Source = "system"
)

// Activity is a timeline entry on an investor
type Activity struct {
	shared.TenantAggregateRoot
	shared.SoftDeletable
	InvestorID *uuid.UUID
	ContactID  *uuid.UUID
	Type       ActivityType
	Subject    string
	Body       string
	OccurredAt time.Time
	Source     Source
	ExternalID string // id in the source system, unique per tenant+source
	Metadata   map[string]any
}

// NewActivity creates a new activity
func NewActivity(tenantID uuid.UUID, investorID *uuid.UUID, activityType ActivityType, subject string, occurredAt time.Time) (*Activity, error) {
	if investorID == nil {
		return nil, shared.NewDomainError("INVESTOR_REQUIRED", "Activity must be linked to an investor")
	}
	if err := validateType(activityType); err != nil {
		return nil, err
	}
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return nil, shared.NewDomainError("INVALID_SUBJECT", "Activity subject cannot be empty")
	}
	if len(subject) > 300 {
		subject = subject[:300]
	}
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	a := &Activity{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		InvestorID:          investorID,
		Type:                activityType,
		Subject:             subject,
		OccurredAt:          occurredAt,
		Source:              SourceManual,
		Metadata:            map[string]any{},
	}
	return a, nil
}

// WithSource tags the activity with its origin and external id
func (a *Activity) WithSource(source Source, externalID string) *Activity {
	a.Source = source
	a.ExternalID = externalID
	return a
}

// MarkLogged records the creation event
func (a *Activity) MarkLogged() {
	a.AddDomainEvent(NewActivityLoggedEvent(a))
}

// Edit changes subject/body/occurred_at
func (a *Activity) Edit(subject, body string, occurredAt *time.Time) error {
	if a.IsDeleted() {
		return shared.NewDomainError("ACTIVITY_DELETED", "Activity is in the trash, restore it first")
	}
	if a.Type == ActivityTypeStageChange {
		return shared.NewDomainError("ACTIVITY_READ_ONLY", "Stage change entries are generated and cannot be edited")
	}
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return shared.NewDomainError("INVALID_SUBJECT", "Activity subject cannot be empty")
	}
	a.Subject = subject
	a.Body = body
	if occurredAt != nil && !occurredAt.IsZero() {
		a.OccurredAt = *occurredAt
	}
	a.touch()
	a.AddDomainEvent(newActivityEvent(EventTypeActivityUpdated, a))
	return nil
}

// Delete moves the activity to the trash
func (a *Activity) Delete() error {
	if err := a.MarkDeleted(time.Now()); err != nil {
		return err
	}
	a.touch()
	a.AddDomainEvent(newActivityEvent(EventTypeActivityDeleted, a))
	return nil
}

// Restore brings the activity back from the trash
func (a *Activity) Restore() error {
	if err := a.MarkRestored(); err != nil {
		return err
	}
	a.touch()
	a.AddDomainEvent(newActivityEvent(EventTypeActivityRestored, a))
	return nil
}

// CountsAsContact reports whether the activity is a real touchpoint with the investor
func (a *Activity) CountsAsContact() bool {
	switch a.Type {
	case ActivityTypeNote, ActivityTypeStageChange:
		return false
	}
	return true
}

func (a *Activity) touch() {
	a.UpdatedAt = time.Now()
	a.IncrementVersion()
}

func validateType(t ActivityType) error {
	switch t {
	case ActivityTypeNote, ActivityTypeEmail, ActivityTypeCall, ActivityTypeMeeting,
		ActivityTypeIntro, ActivityTypeStageChange, ActivityTypeMessage:
		return nil
	}
	return shared.NewDomainError("INVALID_ACTIVITY_TYPE", "Invalid activity type: "+string(t))
}
