package task

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/domain/contact"
	"github.com/investorcrm/backend/internal/domain/investor"
	"github.com/investorcrm/backend/internal/domain/shared"
	"github.com/investorcrm/backend/internal/domain/task"
	"go.uber.org/zap"
)

// overdueBatchSize bounds one pass of the overdue sweep
const overdueBatchSize = 200

// TaskService manages follow-up tasks
type TaskService struct {
	repo      task.TaskRepository
	investors investor.InvestorRepository
	contacts  contact.ContactRepository
	events    shared.EventPublisher
	logger    *zap.Logger
}

// NewTaskService creates a new TaskService
func NewTaskService(
	repo task.TaskRepository,
	investors investor.InvestorRepository,
	contacts contact.ContactRepository,
	events shared.EventPublisher,
	logger *zap.Logger,
) *TaskService {
	return &TaskService{
		repo:      repo,
		investors: investors,
		contacts:  contacts,
		events:    events,
		logger:    logger,
	}
}

// Create adds a task. Unassigned tasks go to their creator.
func (s *TaskService) Create(ctx context.Context, tenantID, userID uuid.UUID, req CreateTaskRequest) (*TaskResponse, error) {
	if err := s.checkLinks(ctx, tenantID, req.InvestorID, req.ContactID); err != nil {
		return nil, err
	}
	assignee := req.AssigneeID
	if assignee == nil {
		assignee = &userID
	}
	t, err := task.NewTask(tenantID, task.Details{
		Title:       req.Title,
		Description: req.Description,
		InvestorID:  req.InvestorID,
		ContactID:   req.ContactID,
		AssigneeID:  assignee,
		DueAt:       req.DueAt,
		Priority:    task.Priority(req.Priority),
	})
	if err != nil {
		return nil, err
	}
	t.SetActor(userID)

	if err := s.repo.Save(ctx, t); err != nil {
		return nil, err
	}
	s.publish(ctx, t)

	resp := ToTaskResponse(t)
	return &resp, nil
}

// GetByID retrieves a task, including one in the trash
func (s *TaskService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*TaskResponse, error) {
	t, err := s.repo.FindByIDIncludingDeleted(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToTaskResponse(t)
	return &resp, nil
}

// List retrieves tasks with filtering and pagination
func (s *TaskService) List(ctx context.Context, tenantID uuid.UUID, filter ListFilter) ([]TaskResponse, int64, error) {
	domainFilter := shared.Filter{
		Page:        filter.Page,
		PageSize:    filter.PageSize,
		OrderBy:     filter.OrderBy,
		OrderDir:    filter.OrderDir,
		Search:      filter.Search,
		OnlyDeleted: filter.Deleted,
		Filters:     make(map[string]any),
	}
	if domainFilter.OrderBy == "" {
		domainFilter.OrderBy = "due_at"
		if domainFilter.OrderDir == "" {
			domainFilter.OrderDir = "asc"
		}
	}
	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}
	if filter.Priority != "" {
		domainFilter.Filters["priority"] = filter.Priority
	}
	if filter.AssigneeID != nil {
		domainFilter.Filters["assignee_id"] = *filter.AssigneeID
	}
	if filter.InvestorID != nil {
		domainFilter.Filters["investor_id"] = *filter.InvestorID
	}
	if filter.MeetingID != nil {
		domainFilter.Filters["meeting_id"] = *filter.MeetingID
	}
	if filter.DueBefore != nil {
		domainFilter.Filters["due_before"] = *filter.DueBefore
	}
	if filter.OpenOnly {
		domainFilter.Filters["open"] = true
	}
	domainFilter = domainFilter.Normalize()

	items, err := s.repo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToTaskResponses(items), total, nil
}

// ListMine lists the open tasks assigned to a user
func (s *TaskService) ListMine(ctx context.Context, tenantID, userID uuid.UUID, filter ListFilter) ([]TaskResponse, int64, error) {
	filter.AssigneeID = &userID
	if filter.Status == "" {
		filter.OpenOnly = true
	}
	return s.List(ctx, tenantID, filter)
}

// ListOverdue lists open tasks past their due date
func (s *TaskService) ListOverdue(ctx context.Context, tenantID uuid.UUID) ([]TaskResponse, error) {
	items, err := s.repo.FindOverdue(ctx, tenantID, time.Now())
	if err != nil {
		return nil, err
	}
	return ToTaskResponses(items), nil
}

// Update replaces the editable fields of a task. The request version must match the stored one.
func (s *TaskService) Update(ctx context.Context, tenantID, userID, id uuid.UUID, req UpdateTaskRequest) (*TaskResponse, error) {
	t, err := s.repo.FindByIDIncludingDeleted(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := shared.CheckVersion(req.Version, t.Version); err != nil {
		return nil, err
	}
	if err := s.checkLinks(ctx, tenantID, req.InvestorID, req.ContactID); err != nil {
		return nil, err
	}
	t.SetActor(userID)
	if err := t.Update(task.Details{
		Title:       req.Title,
		Description: req.Description,
		InvestorID:  req.InvestorID,
		ContactID:   req.ContactID,
		AssigneeID:  req.AssigneeID,
		DueAt:       req.DueAt,
		Priority:    task.Priority(req.Priority),
	}); err != nil {
		return nil, err
	}
	return s.saveAndRespond(ctx, t)
}

// Start moves an open task to in progress
func (s *TaskService) Start(ctx context.Context, tenantID, userID, id uuid.UUID, req TransitionRequest) (*TaskResponse, error) {
	return s.transition(ctx, tenantID, userID, id, req.Version, (*task.Task).Start)
}

// Complete marks a task as done
func (s *TaskService) Complete(ctx context.Context, tenantID, userID, id uuid.UUID, req TransitionRequest) (*TaskResponse, error) {
	return s.transition(ctx, tenantID, userID, id, req.Version, (*task.Task).Complete)
}

// Cancel closes a task without doing it
func (s *TaskService) Cancel(ctx context.Context, tenantID, userID, id uuid.UUID, req TransitionRequest) (*TaskResponse, error) {
	return s.transition(ctx, tenantID, userID, id, req.Version, (*task.Task).Cancel)
}

// Reopen puts a closed task back to open
func (s *TaskService) Reopen(ctx context.Context, tenantID, userID, id uuid.UUID, req TransitionRequest) (*TaskResponse, error) {
	return s.transition(ctx, tenantID, userID, id, req.Version, (*task.Task).Reopen)
}

func (s *TaskService) transition(ctx context.Context, tenantID, userID, id uuid.UUID, version int, apply func(*task.Task) error) (*TaskResponse, error) {
	t, err := s.repo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := shared.CheckVersion(version, t.Version); err != nil {
		return nil, err
	}
	t.SetActor(userID)
	if err := apply(t); err != nil {
		return nil, err
	}
	return s.saveAndRespond(ctx, t)
}

// Delete moves a task to the trash
func (s *TaskService) Delete(ctx context.Context, tenantID, userID, id uuid.UUID) error {
	t, err := s.repo.FindByIDIncludingDeleted(ctx, tenantID, id)
	if err != nil {
		return err
	}
	t.SetActor(userID)
	if err := t.Delete(); err != nil {
		return err
	}
	return s.save(ctx, t)
}

// Restore brings a task back from the trash
func (s *TaskService) Restore(ctx context.Context, tenantID, userID, id uuid.UUID) (*TaskResponse, error) {
	t, err := s.repo.FindByIDIncludingDeleted(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	t.SetActor(userID)
	if err := t.Restore(); err != nil {
		return nil, err
	}
	return s.saveAndRespond(ctx, t)
}

// SweepOverdue flags tasks that went past their due date and publishes one overdue event per task.
// A task is only ever flagged once until its due date changes or it is reopened.
func (s *TaskService) SweepOverdue(ctx context.Context, now time.Time) (int, error) {
	flagged := 0
	for {
		if err := ctx.Err(); err != nil {
			return flagged, err
		}
		batch, err := s.repo.FindOverdueUnnotified(ctx, now, overdueBatchSize)
		if err != nil {
			return flagged, err
		}
		if len(batch) == 0 {
			break
		}

		progressed := 0
		for i := range batch {
			t := &batch[i]
			if !t.MarkOverdueNotified(now) {
				continue
			}
			if err := s.save(ctx, t); err != nil {
				s.logger.Warn("Failed to flag overdue task",
					zap.String("task_id", t.ID.String()), zap.Error(err))
				continue
			}
			progressed++
		}
		flagged += progressed
		if progressed == 0 || len(batch) < overdueBatchSize {
			break
		}
	}
	if flagged > 0 {
		s.logger.Info("Flagged overdue tasks", zap.Int("count", flagged))
	}
	return flagged, nil
}

func (s *TaskService) checkLinks(ctx context.Context, tenantID uuid.UUID, investorID, contactID *uuid.UUID) error {
	if investorID != nil {
		if _, err := s.investors.FindByIDForTenant(ctx, tenantID, *investorID); err != nil {
			return err
		}
	}
	if contactID != nil {
		if _, err := s.contacts.FindByIDForTenant(ctx, tenantID, *contactID); err != nil {
			return err
		}
	}
	return nil
}

func (s *TaskService) saveAndRespond(ctx context.Context, t *task.Task) (*TaskResponse, error) {
	if err := s.save(ctx, t); err != nil {
		return nil, err
	}
	resp := ToTaskResponse(t)
	return &resp, nil
}

func (s *TaskService) save(ctx context.Context, t *task.Task) error {
	if err := s.repo.SaveWithLock(ctx, t); err != nil {
		return err
	}
	s.publish(ctx, t)
	return nil
}

func (s *TaskService) publish(ctx context.Context, t *task.Task) {
	if err := shared.PublishAndClear(ctx, s.events, t); err != nil {
		s.logger.Warn("Failed to publish task events", zap.Error(err))
	}
}
