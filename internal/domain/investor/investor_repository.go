package investor

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// StageSummary aggregates the pipeline for one stage
type StageSummary struct {
	Stage          Stage
	Count          int64
	CheckSizeTotal decimal.Decimal
	CommittedTotal decimal.Decimal
}

// InvestorRepository defines the interface for investor persistence.
// Finders exclude soft-deleted investors unless the filter asks for them.
type InvestorRepository interface {
	// FindByIDForTenant finds a live investor by ID within a tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Investor, error)

	// FindByIDIncludingDeleted finds an investor by ID even when it is in the trash
	FindByIDIncludingDeleted(ctx context.Context, tenantID, id uuid.UUID) (*Investor, error)

	// FindByIDs finds multiple live investors by their IDs
	FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]Investor, error)

	// FindAllForTenant lists investors with filtering and paging
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Investor, error)

	// FindAllOpen lists every live investor in an open stage (used by matching)
	FindAllOpen(ctx context.Context, tenantID uuid.UUID) ([]Investor, error)

	// FindFollowUpsDue lists live investors whose follow-up date is at or before the given time
	FindFollowUpsDue(ctx context.Context, tenantID uuid.UUID, before time.Time) ([]Investor, error)

	// FindByPriority lists live investors of the given priority across all tenants
	FindByPriority(ctx context.Context, priority Priority, limit int) ([]Investor, error)

	// Save creates or updates an investor
	Save(ctx context.Context, inv *Investor) error

	// SaveWithLock updates an investor only if the stored version is the one it was loaded with
	SaveWithLock(ctx context.Context, inv *Investor) error

	// CountForTenant counts investors matching the filter
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)

	// SummarizeByStage returns per-stage counts and totals
	SummarizeByStage(ctx context.Context, tenantID uuid.UUID) ([]StageSummary, error)

	// ExistsByName checks for a live investor with the same name and firm
	ExistsByName(ctx context.Context, tenantID uuid.UUID, name, firmName string) (bool, error)

	// PurgeDeletedBefore hard-deletes investors soft-deleted before the cutoff
	PurgeDeletedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
