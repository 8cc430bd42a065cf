package activity

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/domain/shared"
)

// ActivityRepository defines the interface for activity persistence
type ActivityRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Activity, error)
	FindByIDIncludingDeleted(ctx context.Context, tenantID, id uuid.UUID) (*Activity, error)

	// FindAllForTenant supports filters: investor_id, contact_id, type, source, from, to
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Activity, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)

	// FindRecentByInvestor returns the newest live activities first
	FindRecentByInvestor(ctx context.Context, tenantID, investorID uuid.UUID, limit int) ([]Activity, error)

	// ExistsByExternalID reports whether a synced item was already recorded
	ExistsByExternalID(ctx context.Context, tenantID uuid.UUID, source Source, externalID string) (bool, error)

	Save(ctx context.Context, a *Activity) error
	SaveWithLock(ctx context.Context, a *Activity) error
	PurgeDeletedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
