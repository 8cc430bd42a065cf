package meeting

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/domain/shared"
)

// Status of a meeting
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Sentiment of an analyzed meeting
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// maxTranscriptChars bounds the transcript stored inline on the row; the full text lives in object storage
const maxTranscriptChars = 200_000

// ActionItem is a follow-up extracted from a transcript
type ActionItem struct {
	Title     string `json:"title"`
	Owner     string `json:"owner,omitempty"`
	DueInDays int    `json:"due_in_days,omitempty"`
}

// Analysis is the AI summary of a meeting transcript
type Analysis struct {
	Summary       string       `json:"summary"`
	Sentiment     Sentiment    `json:"sentiment"`
	InterestLevel int          `json:"interest_level"`
	KeyPoints     []string     `json:"key_points"`
	Concerns      []string     `json:"concerns"`
	ActionItems   []ActionItem `json:"action_items"`
	NextSteps     string       `json:"next_steps"`
	Model         string       `json:"model"`
	AnalyzedAt    time.Time    `json:"analyzed_at"`
}

// Validate clamps and checks the analysis returned by the model
func (a *Analysis) Validate() error {
	a.Summary = strings.TrimSpace(a.Summary)
	if a.Summary == "" {
		return shared.NewDomainError("INVALID_ANALYSIS", "Analysis summary is empty")
	}
	switch a.Sentiment {
	case SentimentPositive, SentimentNeutral, SentimentNegative:
	default:
		a.Sentiment = SentimentNeutral
	}
	if a.InterestLevel < 1 {
		a.InterestLevel = 1
	}
	if a.InterestLevel > 5 {
		a.InterestLevel = 5
	}
	items := a.ActionItems[:0]
	for _, it := range a.ActionItems {
		it.Title = strings.TrimSpace(it.Title)
		if it.Title == "" {
			continue
		}
		if it.DueInDays < 0 {
			it.DueInDays = 0
		}
		items = append(items, it)
	}
	a.ActionItems = items
	if a.KeyPoints == nil {
		a.KeyPoints = []string{}
	}
	if a.Concerns == nil {
		a.Concerns = []string{}
	}
	return nil
}

// Meeting is a scheduled or held conversation with an investor
type Meeting struct {
	shared.TenantAggregateRoot
	shared.SoftDeletable
	InvestorID      uuid.UUID
	Title           string
	ScheduledAt     time.Time
	DurationMinutes int
	Location        string
	MeetingURL      string
	Attendees       []string
	Status          Status
	CalendarEventID string
	TranscriptKey   string
	TranscriptText  string
	Analysis        *Analysis
}

// Details carries the editable fields of a meeting
type Details struct {
	Title           string
	ScheduledAt     time.Time
	DurationMinutes int
	Location        string
	MeetingURL      string
	Attendees       []string
}

// NewMeeting schedules a meeting with an investor
func NewMeeting(tenantID, investorID uuid.UUID, d Details) (*Meeting, error) {
	if investorID == uuid.Nil {
		return nil, shared.NewDomainError("INVESTOR_REQUIRED", "Meeting must be linked to an investor")
	}
	m := &Meeting{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		InvestorID:          investorID,
		Status:              StatusScheduled,
		Attendees:           []string{},
	}
	if err := m.apply(d); err != nil {
		return nil, err
	}
	m.AddDomainEvent(newMeetingEvent(EventTypeMeetingScheduled, m))
	return m, nil
}

// Update replaces the editable fields
func (m *Meeting) Update(d Details) error {
	if err := m.ensureEditable(); err != nil {
		return err
	}
	if err := m.apply(d); err != nil {
		return err
	}
	m.touch()
	m.AddDomainEvent(newMeetingEvent(EventTypeMeetingUpdated, m))
	return nil
}

// LinkCalendarEvent records the Google Calendar event id
func (m *Meeting) LinkCalendarEvent(eventID string) {
	if m.CalendarEventID == eventID {
		return
	}
	m.CalendarEventID = eventID
	m.touch()
}

// Complete marks the meeting as held
func (m *Meeting) Complete() error {
	if err := m.ensureEditable(); err != nil {
		return err
	}
	if m.Status != StatusScheduled {
		return shared.NewDomainError("INVALID_STATE", "Only scheduled meetings can be completed")
	}
	m.Status = StatusCompleted
	m.touch()
	m.AddDomainEvent(newMeetingEvent(EventTypeMeetingCompleted, m))
	return nil
}

// Cancel marks the meeting as cancelled
func (m *Meeting) Cancel() error {
	if err := m.ensureEditable(); err != nil {
		return err
	}
	if m.Status != StatusScheduled {
		return shared.NewDomainError("INVALID_STATE", "Only scheduled meetings can be cancelled")
	}
	m.Status = StatusCancelled
	m.touch()
	m.AddDomainEvent(newMeetingEvent(EventTypeMeetingCancelled, m))
	return nil
}

// AttachTranscript stores the transcript reference and an inline copy.
// Any previous analysis is discarded since it no longer matches the text.
func (m *Meeting) AttachTranscript(key, text string) error {
	if err := m.ensureEditable(); err != nil {
		return err
	}
	if m.Status == StatusCancelled {
		return shared.NewDomainError("INVALID_STATE", "Cannot attach a transcript to a cancelled meeting")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return shared.NewDomainError("TRANSCRIPT_REQUIRED", "Transcript is empty")
	}
	if len(text) > maxTranscriptChars {
		text = text[:maxTranscriptChars]
	}
	m.TranscriptKey = key
	m.TranscriptText = text
	m.Analysis = nil
	if m.Status == StatusScheduled && !m.ScheduledAt.After(time.Now()) {
		m.Status = StatusCompleted
	}
	m.touch()
	m.AddDomainEvent(newMeetingEvent(EventTypeMeetingTranscriptAttached, m))
	return nil
}

// HasTranscript reports whether there is text to analyze
func (m *Meeting) HasTranscript() bool {
	return strings.TrimSpace(m.TranscriptText) != ""
}

// ApplyAnalysis stores the AI analysis of the transcript
func (m *Meeting) ApplyAnalysis(a Analysis) error {
	if err := m.ensureEditable(); err != nil {
		return err
	}
	if !m.HasTranscript() {
		return shared.NewDomainError("TRANSCRIPT_REQUIRED", "Attach a transcript before analyzing")
	}
	if err := a.Validate(); err != nil {
		return err
	}
	if a.AnalyzedAt.IsZero() {
		a.AnalyzedAt = time.Now()
	}
	m.Analysis = &a
	m.touch()
	m.AddDomainEvent(newMeetingEvent(EventTypeMeetingAnalyzed, m))
	return nil
}

// Delete moves the meeting to the trash
func (m *Meeting) Delete() error {
	if err := m.MarkDeleted(time.Now()); err != nil {
		return err
	}
	m.touch()
	m.AddDomainEvent(newMeetingEvent(EventTypeMeetingDeleted, m))
	return nil
}

// Restore brings the meeting back from the trash
func (m *Meeting) Restore() error {
	if err := m.MarkRestored(); err != nil {
		return err
	}
	m.touch()
	m.AddDomainEvent(newMeetingEvent(EventTypeMeetingRestored, m))
	return nil
}

// EndsAt returns the scheduled end time
func (m *Meeting) EndsAt() time.Time {
	return m.ScheduledAt.Add(time.Duration(m.DurationMinutes) * time.Minute)
}

func (m *Meeting) apply(d Details) error {
	d.Title = strings.TrimSpace(d.Title)
	if d.Title == "" {
		return shared.NewDomainError("INVALID_TITLE", "Meeting title cannot be empty")
	}
	if d.ScheduledAt.IsZero() {
		return shared.NewDomainError("INVALID_SCHEDULE", "Meeting time is required")
	}
	if d.DurationMinutes == 0 {
		d.DurationMinutes = 30
	}
	if d.DurationMinutes < 0 || d.DurationMinutes > 24*60 {
		return shared.NewDomainError("INVALID_DURATION", "Meeting duration must be between 1 minute and 24 hours")
	}
	if d.MeetingURL != "" {
		if err := shared.ValidateURL(d.MeetingURL, "Meeting URL"); err != nil {
			return err
		}
	}
	attendees := make([]string, 0, len(d.Attendees))
	seen := make(map[string]struct{}, len(d.Attendees))
	for _, a := range d.Attendees {
		a = shared.NormalizeEmail(a)
		if a == "" {
			continue
		}
		if err := shared.ValidateEmail(a); err != nil {
			return err
		}
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		attendees = append(attendees, a)
	}

	m.Title = d.Title
	m.ScheduledAt = d.ScheduledAt
	m.DurationMinutes = d.DurationMinutes
	m.Location = strings.TrimSpace(d.Location)
	m.MeetingURL = d.MeetingURL
	m.Attendees = attendees
	return nil
}

func (m *Meeting) ensureEditable() error {
	if m.IsDeleted() {
		return shared.NewDomainError("MEETING_DELETED", "Meeting is in the trash, restore it first")
	}
	return nil
}

func (m *Meeting) touch() {
	m.UpdatedAt = time.Now()
	m.IncrementVersion()
}
