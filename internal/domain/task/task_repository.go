package task

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/domain/shared"
)

// TaskRepository defines the interface for task persistence
type TaskRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Task, error)
	FindByIDIncludingDeleted(ctx context.Context, tenantID, id uuid.UUID) (*Task, error)

	// FindAllForTenant supports filters: status, assignee_id, investor_id, priority, due_before
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Task, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)

	// FindOverdue returns open tasks due before now for one tenant
	FindOverdue(ctx context.Context, tenantID uuid.UUID, now time.Time) ([]Task, error)

	// FindOverdueUnnotified returns overdue tasks across tenants that have not been announced yet
	FindOverdueUnnotified(ctx context.Context, now time.Time, limit int) ([]Task, error)

	Save(ctx context.Context, t *Task) error
	SaveWithLock(ctx context.Context, t *Task) error
	SaveBatch(ctx context.Context, tasks []*Task) error
	PurgeDeletedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
