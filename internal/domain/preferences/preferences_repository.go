package preferences

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SavedFilterRepository defines the interface for saved filter persistence
type SavedFilterRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*SavedFilter, error)
	FindByIDIncludingDeleted(ctx context.Context, tenantID, id uuid.UUID) (*SavedFilter, error)

	// FindVisible returns the user's own filters plus shared ones, optionally limited to one entity
	FindVisible(ctx context.Context, tenantID, userID uuid.UUID, entity EntityType) ([]SavedFilter, error)
	FindDeletedForUser(ctx context.Context, tenantID, userID uuid.UUID) ([]SavedFilter, error)
	ExistsByName(ctx context.Context, tenantID, userID uuid.UUID, entity EntityType, name string, excludeID uuid.UUID) (bool, error)

	Save(ctx context.Context, f *SavedFilter) error
	SaveWithLock(ctx context.Context, f *SavedFilter) error

	// SetDefault saves f as default and clears the flag on the user's other filters for the entity
	SetDefault(ctx context.Context, f *SavedFilter) error
	PurgeDeletedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// UserPreferencesRepository defines the interface for per-user settings
type UserPreferencesRepository interface {
	// FindByUser returns shared.ErrNotFound when the user never saved preferences
	FindByUser(ctx context.Context, tenantID, userID uuid.UUID) (*UserPreferences, error)

	// Upsert inserts the row on first save and otherwise updates it guarded by version
	Upsert(ctx context.Context, p *UserPreferences) error
}
