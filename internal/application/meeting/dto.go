package meeting

import (
	"time"

	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/domain/meeting"
)

// CreateMeetingRequest schedules a meeting with an investor
type CreateMeetingRequest struct {
	InvestorID      uuid.UUID `json:"investor_id" binding:"required"`
	Title           string    `json:"title" binding:"required,min=1,max=300"`
	ScheduledAt     time.Time `json:"scheduled_at" binding:"required"`
	DurationMinutes int       `json:"duration_minutes" binding:"omitempty,min=1,max=1440"`
	Location        string    `json:"location" binding:"max=300"`
	MeetingURL      string    `json:"meeting_url" binding:"omitempty,url,max=500"`
	Attendees       []string  `json:"attendees" binding:"omitempty,max=50,dive,email"`
	AddToCalendar   bool      `json:"add_to_calendar"`
}

// UpdateMeetingRequest replaces the editable fields of a meeting
type UpdateMeetingRequest struct {
	Version         int       `json:"version" binding:"required,min=1"`
	Title           string    `json:"title" binding:"required,min=1,max=300"`
	ScheduledAt     time.Time `json:"scheduled_at" binding:"required"`
	DurationMinutes int       `json:"duration_minutes" binding:"omitempty,min=1,max=1440"`
	Location        string    `json:"location" binding:"max=300"`
	MeetingURL      string    `json:"meeting_url" binding:"omitempty,url,max=500"`
	Attendees       []string  `json:"attendees" binding:"omitempty,max=50,dive,email"`
}

// TransitionRequest carries the version for status changes
type TransitionRequest struct {
	Version int `json:"version" binding:"required,min=1"`
}

// AttachTranscriptRequest attaches either raw text or an object uploaded through the presigned URL
type AttachTranscriptRequest struct {
	Version int    `json:"version" binding:"required,min=1"`
	Text    string `json:"text"`
	Key     string `json:"key" binding:"max=500"`
}

// AnalyzeTranscriptRequest controls what the analysis produces
type AnalyzeTranscriptRequest struct {
	CreateTasks bool `json:"create_tasks"`
}

// ListFilter filters the meeting list
type ListFilter struct {
	InvestorID *uuid.UUID `form:"-"`
	Status     string     `form:"status" binding:"omitempty,oneof=scheduled completed cancelled"`
	From       *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To         *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
	Search     string     `form:"search"`
	Deleted    bool       `form:"deleted"`
	Page       int        `form:"page" binding:"omitempty,min=1"`
	PageSize   int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy    string     `form:"order_by"`
	OrderDir   string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// MeetingResponse represents a meeting in API responses
type MeetingResponse struct {
	ID              uuid.UUID         `json:"id"`
	InvestorID      uuid.UUID         `json:"investor_id"`
	Title           string            `json:"title"`
	ScheduledAt     time.Time         `json:"scheduled_at"`
	EndsAt          time.Time         `json:"ends_at"`
	DurationMinutes int               `json:"duration_minutes"`
	Location        string            `json:"location"`
	MeetingURL      string            `json:"meeting_url"`
	Attendees       []string          `json:"attendees"`
	Status          string            `json:"status"`
	CalendarEventID string            `json:"calendar_event_id,omitempty"`
	HasTranscript   bool              `json:"has_transcript"`
	TranscriptKey   string            `json:"transcript_key,omitempty"`
	Analysis        *meeting.Analysis `json:"analysis,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
	DeletedAt       *time.Time        `json:"deleted_at,omitempty"`
	Version         int               `json:"version"`
}

// AnalysisResponse is the result of a transcript analysis
type AnalysisResponse struct {
	Meeting      MeetingResponse `json:"meeting"`
	TasksCreated []uuid.UUID     `json:"tasks_created"`
}

// UploadURLResponse is a presigned upload target
type UploadURLResponse struct {
	URL       string    `json:"url"`
	Key       string    `json:"key"`
	Method    string    `json:"method"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ToMeetingResponse converts a domain meeting to its response DTO
func ToMeetingResponse(m *meeting.Meeting) MeetingResponse {
	return MeetingResponse{
		ID:              m.ID,
		InvestorID:      m.InvestorID,
		Title:           m.Title,
		ScheduledAt:     m.ScheduledAt,
		EndsAt:          m.EndsAt(),
		DurationMinutes: m.DurationMinutes,
		Location:        m.Location,
		MeetingURL:      m.MeetingURL,
		Attendees:       m.Attendees,
		Status:          string(m.Status),
		CalendarEventID: m.CalendarEventID,
		HasTranscript:   m.HasTranscript(),
		TranscriptKey:   m.TranscriptKey,
		Analysis:        m.Analysis,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
		DeletedAt:       m.DeletedAt,
		Version:         m.Version,
	}
}

// ToMeetingResponses converts a slice of meetings
func ToMeetingResponses(items []meeting.Meeting) []MeetingResponse {
	out := make([]MeetingResponse, len(items))
	for i := range items {
		out[i] = ToMeetingResponse(&items[i])
	}
	return out
}
