package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/domain/shared"
	"github.com/investorcrm/backend/internal/domain/task"
	"github.com/investorcrm/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

var openTaskStatuses = []task.Status{task.StatusOpen, task.StatusInProgress}

// GormTaskRepository implements TaskRepository using GORM
type GormTaskRepository struct {
	db *gorm.DB
}

// NewGormTaskRepository creates a new GormTaskRepository
func NewGormTaskRepository(db *gorm.DB) *GormTaskRepository {
	return &GormTaskRepository{db: db}
}

// FindByIDForTenant finds a live task by ID
func (r *GormTaskRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*task.Task, error) {
	var model models.TaskModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ? AND deleted_at IS NULL", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByIDIncludingDeleted finds a task even when it is in the trash
func (r *GormTaskRepository) FindByIDIncludingDeleted(ctx context.Context, tenantID, id uuid.UUID) (*task.Task, error) {
	var model models.TaskModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists tasks with filtering and paging
func (r *GormTaskRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]task.Task, error) {
	var rows []models.TaskModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.TaskModel{}).Where("tenant_id = ?", tenantID), filter)
	query = applyPaging(query, filter, TaskSortFields, "created_at")
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return toTasks(rows), nil
}

// CountForTenant counts tasks matching the filter
func (r *GormTaskRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.TaskModel{}).Where("tenant_id = ?", tenantID), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindOverdue returns open tasks due before now for one tenant, oldest due first
func (r *GormTaskRepository) FindOverdue(ctx context.Context, tenantID uuid.UUID, now time.Time) ([]task.Task, error) {
	var rows []models.TaskModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND deleted_at IS NULL AND status IN ? AND due_at IS NOT NULL AND due_at < ?", tenantID, openTaskStatuses, now).
		Order("due_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toTasks(rows), nil
}

// FindOverdueUnnotified returns overdue tasks across tenants that have not been announced yet
func (r *GormTaskRepository) FindOverdueUnnotified(ctx context.Context, now time.Time, limit int) ([]task.Task, error) {
	var rows []models.TaskModel
	query := r.db.WithContext(ctx).
		Where("deleted_at IS NULL AND status IN ? AND due_at IS NOT NULL AND due_at < ? AND overdue_notified_at IS NULL", openTaskStatuses, now).
		Order("due_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return toTasks(rows), nil
}

// Save creates or updates a task
func (r *GormTaskRepository) Save(ctx context.Context, t *task.Task) error {
	if err := r.db.WithContext(ctx).Save(models.TaskModelFromDomain(t)).Error; err != nil {
		return err
	}
	t.MarkLoaded()
	return nil
}

// SaveWithLock updates a task guarded by its loaded version
func (r *GormTaskRepository) SaveWithLock(ctx context.Context, t *task.Task) error {
	if err := updateWithLock(ctx, r.db, models.TaskModelFromDomain(t), t.ID, t.LoadedVersion()); err != nil {
		return err
	}
	t.MarkLoaded()
	return nil
}

// SaveBatch creates or updates multiple tasks
func (r *GormTaskRepository) SaveBatch(ctx context.Context, tasks []*task.Task) error {
	if len(tasks) == 0 {
		return nil
	}
	rows := make([]*models.TaskModel, len(tasks))
	for i, t := range tasks {
		rows[i] = models.TaskModelFromDomain(t)
	}
	if err := r.db.WithContext(ctx).Save(rows).Error; err != nil {
		return err
	}
	for _, t := range tasks {
		t.MarkLoaded()
	}
	return nil
}

// PurgeDeletedBefore hard-deletes tasks soft-deleted before the cutoff
func (r *GormTaskRepository) PurgeDeletedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return purgeDeleted(ctx, r.db, &models.TaskModel{}, cutoff)
}

func (r *GormTaskRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = scopeDeleted(query, filter)
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "priority":
			query = query.Where("priority = ?", value)
		case "assignee_id":
			if id, ok := uuidFilter(value); ok {
				query = query.Where("assignee_id = ?", id)
			}
		case "investor_id":
			if id, ok := uuidFilter(value); ok {
				query = query.Where("investor_id = ?", id)
			}
		case "meeting_id":
			if id, ok := uuidFilter(value); ok {
				query = query.Where("meeting_id = ?", id)
			}
		case "due_before":
			if t, ok := timeFilter(value); ok {
				query = query.Where("due_at IS NOT NULL AND due_at < ?", t)
			}
		case "open":
			if value == true {
				query = query.Where("status IN ?", openTaskStatuses)
			}
		}
	}
	return query
}

func toTasks(rows []models.TaskModel) []task.Task {
	out := make([]task.Task, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

// Ensure GormTaskRepository implements TaskRepository
var _ task.TaskRepository = (*GormTaskRepository)(nil)
