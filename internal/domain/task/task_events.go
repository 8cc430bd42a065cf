package task

import (
	"time"

	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeTask = "Task"

// Event type constants
const (
	EventTypeTaskCreated   = "TaskCreated"
	EventTypeTaskUpdated   = "TaskUpdated"
	EventTypeTaskCompleted = "TaskCompleted"
	EventTypeTaskCancelled = "TaskCancelled"
	EventTypeTaskReopened  = "TaskReopened"
	EventTypeTaskOverdue   = "TaskOverdue"
	EventTypeTaskDeleted   = "TaskDeleted"
	EventTypeTaskRestored  = "TaskRestored"
)

// TaskEvent is published on every task change
type TaskEvent struct {
	shared.BaseDomainEvent
	Title      string     `json:"title"`
	Status     Status     `json:"status"`
	InvestorID *uuid.UUID `json:"investor_id,omitempty"`
	AssigneeID *uuid.UUID `json:"assignee_id,omitempty"`
	DueAt      *time.Time `json:"due_at,omitempty"`
}

func newTaskEvent(eventType string, t *Task) *TaskEvent {
	return &TaskEvent{
		BaseDomainEvent: shared.NewAggregateEvent(eventType, AggregateTypeTask, &t.TenantAggregateRoot),
		Title:           t.Title,
		Status:          t.Status,
		InvestorID:      t.InvestorID,
		AssigneeID:      t.AssigneeID,
		DueAt:           t.DueAt,
	}
}
