package activity

import (
	"time"

	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/domain/activity"
)

// LogActivityRequest represents a request to log a manual activity
type LogActivityRequest struct {
	InvestorID uuid.UUID      `json:"investor_id" binding:"required"`
	ContactID  *uuid.UUID     `json:"contact_id"`
	Type       string         `json:"type" binding:"required,oneof=note email call meeting intro message"`
	Subject    string         `json:"subject" binding:"required,min=1,max=300"`
	Body       string         `json:"body" binding:"max=20000"`
	OccurredAt *time.Time     `json:"occurred_at"`
	Metadata   map[string]any `json:"metadata"`

	// Source is set by internal callers; HTTP requests always log manual entries
	Source activity.Source `json:"-"`
}

// UpdateActivityRequest represents a request to edit an activity
type UpdateActivityRequest struct {
	Version    int        `json:"version" binding:"required,min=1"`
	Subject    string     `json:"subject" binding:"required,min=1,max=300"`
	Body       string     `json:"body" binding:"max=20000"`
	OccurredAt *time.Time `json:"occurred_at"`
}

// ListFilter filters the activity list
type ListFilter struct {
	InvestorID *uuid.UUID `form:"-"`
	ContactID  *uuid.UUID `form:"-"`
	Type       string     `form:"type" binding:"omitempty,oneof=note email call meeting intro stage_change message"`
	Source     string     `form:"source"`
	From       *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To         *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
	Search     string     `form:"search"`
	Deleted    bool       `form:"deleted"`
	Page       int        `form:"page" binding:"omitempty,min=1"`
	PageSize   int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy    string     `form:"order_by"`
	OrderDir   string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ActivityResponse represents an activity in API responses
type ActivityResponse struct {
	ID         uuid.UUID      `json:"id"`
	InvestorID *uuid.UUID     `json:"investor_id"`
	ContactID  *uuid.UUID     `json:"contact_id,omitempty"`
	Type       string         `json:"type"`
	Subject    string         `json:"subject"`
	Body       string         `json:"body"`
	OccurredAt time.Time      `json:"occurred_at"`
	Source     string         `json:"source"`
	ExternalID string         `json:"external_id,omitempty"`
	Metadata   map[string]any `json:"metadata"`
	CreatedBy  *uuid.UUID     `json:"created_by,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  *time.Time     `json:"deleted_at,omitempty"`
	Version    int            `json:"version"`
}

// ToActivityResponse converts a domain activity to its response DTO
func ToActivityResponse(a *activity.Activity) ActivityResponse {
	return ActivityResponse{
		ID:         a.ID,
		InvestorID: a.InvestorID,
		ContactID:  a.ContactID,
		Type:       string(a.Type),
		Subject:    a.Subject,
		Body:       a.Body,
		OccurredAt: a.OccurredAt,
		Source:     string(a.Source),
		ExternalID: a.ExternalID,
		Metadata:   a.Metadata,
		CreatedBy:  a.CreatedBy,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
		DeletedAt:  a.DeletedAt,
		Version:    a.Version,
	}
}

// ToActivityResponses converts a slice of activities
func ToActivityResponses(items []activity.Activity) []ActivityResponse {
	out := make([]ActivityResponse, len(items))
	for i := range items {
		out[i] = ToActivityResponse(&items[i])
	}
	return out
}
