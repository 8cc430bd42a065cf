package task

import (
	"time"

	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/domain/task"
)

// CreateTaskRequest represents a request to create a task
type CreateTaskRequest struct {
	Title       string     `json:"title" binding:"required,min=1,max=300"`
	Description string     `json:"description"`
	InvestorID  *uuid.UUID `json:"investor_id"`
	ContactID   *uuid.UUID `json:"contact_id"`
	AssigneeID  *uuid.UUID `json:"assignee_id"`
	DueAt       *time.Time `json:"due_at"`
	Priority    string     `json:"priority" binding:"omitempty,oneof=low medium high"`
}

// UpdateTaskRequest replaces the editable fields of an open task
type UpdateTaskRequest struct {
	Version     int        `json:"version" binding:"required,min=1"`
	Title       string     `json:"title" binding:"required,min=1,max=300"`
	Description string     `json:"description"`
	InvestorID  *uuid.UUID `json:"investor_id"`
	ContactID   *uuid.UUID `json:"contact_id"`
	AssigneeID  *uuid.UUID `json:"assignee_id"`
	DueAt       *time.Time `json:"due_at"`
	Priority    string     `json:"priority" binding:"omitempty,oneof=low medium high"`
}

// TransitionRequest carries the version for status changes
type TransitionRequest struct {
	Version int `json:"version" binding:"required,min=1"`
}

// ListFilter filters the task list
type ListFilter struct {
	Status     string     `form:"status" binding:"omitempty,oneof=open in_progress done cancelled"`
	Priority   string     `form:"priority" binding:"omitempty,oneof=low medium high"`
	AssigneeID *uuid.UUID `form:"-"`
	InvestorID *uuid.UUID `form:"-"`
	MeetingID  *uuid.UUID `form:"-"`
	DueBefore  *time.Time `form:"due_before" time_format:"2006-01-02T15:04:05Z07:00"`
	OpenOnly   bool       `form:"open"`
	Search     string     `form:"search"`
	Deleted    bool       `form:"deleted"`
	Page       int        `form:"page" binding:"omitempty,min=1"`
	PageSize   int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy    string     `form:"order_by"`
	OrderDir   string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// TaskResponse represents a task in API responses
type TaskResponse struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	InvestorID  *uuid.UUID `json:"investor_id"`
	ContactID   *uuid.UUID `json:"contact_id"`
	MeetingID   *uuid.UUID `json:"meeting_id"`
	AssigneeID  *uuid.UUID `json:"assignee_id"`
	DueAt       *time.Time `json:"due_at"`
	Priority    string     `json:"priority"`
	Status      string     `json:"status"`
	Overdue     bool       `json:"overdue"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedBy   *uuid.UUID `json:"created_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
	Version     int        `json:"version"`
}

// ToTaskResponse converts a domain task to its response DTO
func ToTaskResponse(t *task.Task) TaskResponse {
	return TaskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		InvestorID:  t.InvestorID,
		ContactID:   t.ContactID,
		MeetingID:   t.MeetingID,
		AssigneeID:  t.AssigneeID,
		DueAt:       t.DueAt,
		Priority:    string(t.Priority),
		Status:      string(t.Status),
		Overdue:     t.IsOverdue(time.Now()),
		CompletedAt: t.CompletedAt,
		CreatedBy:   t.CreatedBy,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		DeletedAt:   t.DeletedAt,
		Version:     t.Version,
	}
}

// ToTaskResponses converts a slice of tasks
func ToTaskResponses(items []task.Task) []TaskResponse {
	out := make([]TaskResponse, len(items))
	for i := range items {
		out[i] = ToTaskResponse(&items[i])
	}
	return out
}
