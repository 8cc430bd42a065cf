package task

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/domain/shared"
)

// Status represents the state of a follow-up task
type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
	StatusCancelled  Status = "cancelled"
)

// Priority of a task
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Task is a follow-up item, usually tied to an investor
type Task struct {
	shared.TenantAggregateRoot
	shared.SoftDeletable
	Title             string
	Description       string
	InvestorID        *uuid.UUID
	ContactID         *uuid.UUID
	MeetingID         *uuid.UUID
	AssigneeID        *uuid.UUID
	DueAt             *time.Time
	Priority          Priority
	Status            Status
	CompletedAt       *time.Time
	OverdueNotifiedAt *time.Time
}

// Details carries the editable fields of a task
type Details struct {
	Title       string
	Description string
	InvestorID  *uuid.UUID
	ContactID   *uuid.UUID
	AssigneeID  *uuid.UUID
	DueAt       *time.Time
	Priority    Priority
}

// NewTask creates an open task
func NewTask(tenantID uuid.UUID, d Details) (*Task, error) {
	t := &Task{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Status:              StatusOpen,
		Priority:            PriorityMedium,
	}
	if err := t.apply(d); err != nil {
		return nil, err
	}
	t.AddDomainEvent(newTaskEvent(EventTypeTaskCreated, t))
	return t, nil
}

// Update replaces the editable fields. Closed tasks cannot be edited.
func (t *Task) Update(d Details) error {
	if err := t.ensureEditable(); err != nil {
		return err
	}
	if t.IsClosed() {
		return shared.NewDomainError("TASK_CLOSED", "Reopen the task before editing it")
	}
	dueChanged := !sameTime(t.DueAt, d.DueAt)
	if err := t.apply(d); err != nil {
		return err
	}
	if dueChanged {
		t.OverdueNotifiedAt = nil
	}
	t.touch()
	t.AddDomainEvent(newTaskEvent(EventTypeTaskUpdated, t))
	return nil
}

// Start moves an open task to in progress
func (t *Task) Start() error {
	if err := t.ensureEditable(); err != nil {
		return err
	}
	if t.Status != StatusOpen {
		return shared.NewDomainError("INVALID_STATE", "Only open tasks can be started")
	}
	t.Status = StatusInProgress
	t.touch()
	t.AddDomainEvent(newTaskEvent(EventTypeTaskUpdated, t))
	return nil
}

// Complete closes the task as done
func (t *Task) Complete() error {
	if err := t.ensureEditable(); err != nil {
		return err
	}
	if t.IsClosed() {
		return shared.NewDomainError("INVALID_STATE", "Task is already closed")
	}
	now := time.Now()
	t.Status = StatusDone
	t.CompletedAt = &now
	t.touch()
	t.AddDomainEvent(newTaskEvent(EventTypeTaskCompleted, t))
	return nil
}

// Cancel closes the task without doing it
func (t *Task) Cancel() error {
	if err := t.ensureEditable(); err != nil {
		return err
	}
	if t.IsClosed() {
		return shared.NewDomainError("INVALID_STATE", "Task is already closed")
	}
	t.Status = StatusCancelled
	t.touch()
	t.AddDomainEvent(newTaskEvent(EventTypeTaskCancelled, t))
	return nil
}

// Reopen puts a done or cancelled task back to open
func (t *Task) Reopen() error {
	if err := t.ensureEditable(); err != nil {
		return err
	}
	if !t.IsClosed() {
		return shared.NewDomainError("INVALID_STATE", "Only done or cancelled tasks can be reopened")
	}
	t.Status = StatusOpen
	t.CompletedAt = nil
	t.OverdueNotifiedAt = nil
	t.touch()
	t.AddDomainEvent(newTaskEvent(EventTypeTaskReopened, t))
	return nil
}

// IsClosed reports done or cancelled
func (t *Task) IsClosed() bool {
	return t.Status == StatusDone || t.Status == StatusCancelled
}

// IsOverdue reports whether an open task has passed its due date
func (t *Task) IsOverdue(now time.Time) bool {
	return !t.IsClosed() && !t.IsDeleted() && t.DueAt != nil && t.DueAt.Before(now)
}

// MarkOverdueNotified records that the overdue notice went out.
// Returns false if it already had.
func (t *Task) MarkOverdueNotified(now time.Time) bool {
	if !t.IsOverdue(now) || t.OverdueNotifiedAt != nil {
		return false
	}
	t.OverdueNotifiedAt = &now
	t.touch()
	t.AddDomainEvent(newTaskEvent(EventTypeTaskOverdue, t))
	return true
}

// LinkMeeting records the meeting the task came from
func (t *Task) LinkMeeting(meetingID uuid.UUID) {
	t.MeetingID = &meetingID
}

// Delete moves the task to the trash
func (t *Task) Delete() error {
	if err := t.MarkDeleted(time.Now()); err != nil {
		return err
	}
	t.touch()
	t.AddDomainEvent(newTaskEvent(EventTypeTaskDeleted, t))
	return nil
}

// Restore brings the task back from the trash
func (t *Task) Restore() error {
	if err := t.MarkRestored(); err != nil {
		return err
	}
	t.touch()
	t.AddDomainEvent(newTaskEvent(EventTypeTaskRestored, t))
	return nil
}

func (t *Task) apply(d Details) error {
	d.Title = strings.TrimSpace(d.Title)
	if d.Title == "" {
		return shared.NewDomainError("INVALID_TITLE", "Task title cannot be empty")
	}
	if len(d.Title) > 300 {
		return shared.NewDomainError("INVALID_TITLE", "Task title cannot exceed 300 characters")
	}
	if d.Priority == "" {
		d.Priority = t.Priority
	}
	switch d.Priority {
	case PriorityLow, PriorityMedium, PriorityHigh:
	default:
		return shared.NewDomainError("INVALID_PRIORITY", "Invalid priority: "+string(d.Priority))
	}
	t.Title = d.Title
	t.Description = d.Description
	t.InvestorID = d.InvestorID
	t.ContactID = d.ContactID
	t.AssigneeID = d.AssigneeID
	t.DueAt = d.DueAt
	t.Priority = d.Priority
	return nil
}

func (t *Task) ensureEditable() error {
	if t.IsDeleted() {
		return shared.NewDomainError("TASK_DELETED", "Task is in the trash, restore it first")
	}
	return nil
}

func (t *Task) touch() {
	t.UpdatedAt = time.Now()
	t.IncrementVersion()
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
