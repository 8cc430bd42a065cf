package meeting

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/domain/shared"
)

// MeetingRepository defines the interface for meeting persistence
type MeetingRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Meeting, error)
	FindByIDIncludingDeleted(ctx context.Context, tenantID, id uuid.UUID) (*Meeting, error)

	// FindAllForTenant supports filters: investor_id, status, from, to
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Meeting, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	FindByInvestor(ctx context.Context, tenantID, investorID uuid.UUID) ([]Meeting, error)
	FindByCalendarEventID(ctx context.Context, tenantID uuid.UUID, eventID string) (*Meeting, error)

	Save(ctx context.Context, m *Meeting) error
	SaveWithLock(ctx context.Context, m *Meeting) error
	PurgeDeletedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
