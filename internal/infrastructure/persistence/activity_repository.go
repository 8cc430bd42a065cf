package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/domain/activity"
	"github.com/investorcrm/backend/internal/domain/shared"
	"github.com/investorcrm/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormActivityRepository implements ActivityRepository using GORM
type GormActivityRepository struct {
	db *gorm.DB
}

// NewGormActivityRepository creates a new GormActivityRepository
func NewGormActivityRepository(db *gorm.DB) *GormActivityRepository {
	return &GormActivityRepository{db: db}
}

// FindByIDForTenant finds a live activity by ID
func (r *GormActivityRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*activity.Activity, error) {
	var model models.ActivityModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ? AND deleted_at IS NULL", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByIDIncludingDeleted finds an activity even when it is in the trash
func (r *GormActivityRepository) FindByIDIncludingDeleted(ctx context.Context, tenantID, id uuid.UUID) (*activity.Activity, error) {
	var model models.ActivityModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists activities, newest first by default
func (r *GormActivityRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]activity.Activity, error) {
	var rows []models.ActivityModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.ActivityModel{}).Where("tenant_id = ?", tenantID), filter)
	query = applyPaging(query, filter, ActivitySortFields, "occurred_at")
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return toActivities(rows), nil
}

// CountForTenant counts activities matching the filter
func (r *GormActivityRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.ActivityModel{}).Where("tenant_id = ?", tenantID), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindRecentByInvestor returns the newest live activities of an investor
func (r *GormActivityRepository) FindRecentByInvestor(ctx context.Context, tenantID, investorID uuid.UUID, limit int) ([]activity.Activity, error) {
	var rows []models.ActivityModel
	query := r.db.WithContext(ctx).
		Where("tenant_id = ? AND investor_id = ? AND deleted_at IS NULL", tenantID, investorID).
		Order("occurred_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return toActivities(rows), nil
}

// ExistsByExternalID reports whether a synced item was already recorded, trash included
func (r *GormActivityRepository) ExistsByExternalID(ctx context.Context, tenantID uuid.UUID, source activity.Source, externalID string) (bool, error) {
	if externalID == "" {
		return false, nil
	}
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.ActivityModel{}).
		Where("tenant_id = ? AND source = ? AND external_id = ?", tenantID, source, externalID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates an activity
func (r *GormActivityRepository) Save(ctx context.Context, a *activity.Activity) error {
	if err := r.db.WithContext(ctx).Save(models.ActivityModelFromDomain(a)).Error; err != nil {
		return err
	}
	a.MarkLoaded()
	return nil
}

// SaveWithLock updates an activity guarded by its loaded version
func (r *GormActivityRepository) SaveWithLock(ctx context.Context, a *activity.Activity) error {
	if err := updateWithLock(ctx, r.db, models.ActivityModelFromDomain(a), a.ID, a.LoadedVersion()); err != nil {
		return err
	}
	a.MarkLoaded()
	return nil
}

// PurgeDeletedBefore hard-deletes activities soft-deleted before the cutoff
func (r *GormActivityRepository) PurgeDeletedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return purgeDeleted(ctx, r.db, &models.ActivityModel{}, cutoff)
}

func (r *GormActivityRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = scopeDeleted(query, filter)
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("LOWER(subject) LIKE ? OR LOWER(body) LIKE ?", pattern, pattern)
	}
	for key, value := range filter.Filters {
		switch key {
		case "investor_id":
			if id, ok := uuidFilter(value); ok {
				query = query.Where("investor_id = ?", id)
			}
		case "contact_id":
			if id, ok := uuidFilter(value); ok {
				query = query.Where("contact_id = ?", id)
			}
		case "type":
			query = query.Where("type = ?", value)
		case "source":
			query = query.Where("source = ?", value)
		case "from":
			if t, ok := timeFilter(value); ok {
				query = query.Where("occurred_at >= ?", t)
			}
		case "to":
			if t, ok := timeFilter(value); ok {
				query = query.Where("occurred_at < ?", t)
			}
		}
	}
	return query
}

func toActivities(rows []models.ActivityModel) []activity.Activity {
	out := make([]activity.Activity, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

// Ensure GormActivityRepository implements ActivityRepository
var _ activity.ActivityRepository = (*GormActivityRepository)(nil)
