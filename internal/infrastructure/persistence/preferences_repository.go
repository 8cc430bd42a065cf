package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/domain/preferences"
	"github.com/investorcrm/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormSavedFilterRepository implements SavedFilterRepository using GORM
type GormSavedFilterRepository struct {
	db *gorm.DB
}

// NewGormSavedFilterRepository creates a new GormSavedFilterRepository
func NewGormSavedFilterRepository(db *gorm.DB) *GormSavedFilterRepository {
	return &GormSavedFilterRepository{db: db}
}

// FindByIDForTenant finds a live saved filter by ID
func (r *GormSavedFilterRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*preferences.SavedFilter, error) {
	var model models.SavedFilterModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ? AND deleted_at IS NULL", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByIDIncludingDeleted finds a saved filter by ID, trash included
func (r *GormSavedFilterRepository) FindByIDIncludingDeleted(ctx context.Context, tenantID, id uuid.UUID) (*preferences.SavedFilter, error) {
	var model models.SavedFilterModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindVisible returns the user's own filters and filters shared by teammates
func (r *GormSavedFilterRepository) FindVisible(ctx context.Context, tenantID, userID uuid.UUID, entity preferences.EntityType) ([]preferences.SavedFilter, error) {
	query := r.db.WithContext(ctx).
		Where("tenant_id = ? AND deleted_at IS NULL", tenantID).
		Where("user_id = ? OR is_shared = ?", userID, true)
	if entity != "" {
		query = query.Where("entity = ?", entity)
	}
	var rows []models.SavedFilterModel
	if err := query.Order("entity ASC, name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toSavedFilters(rows), nil
}

// FindDeletedForUser lists the user's trashed filters
func (r *GormSavedFilterRepository) FindDeletedForUser(ctx context.Context, tenantID, userID uuid.UUID) ([]preferences.SavedFilter, error) {
	var rows []models.SavedFilterModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND user_id = ? AND deleted_at IS NOT NULL", tenantID, userID).
		Order("deleted_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toSavedFilters(rows), nil
}

// ExistsByName checks name uniqueness among the user's live filters for an entity
func (r *GormSavedFilterRepository) ExistsByName(ctx context.Context, tenantID, userID uuid.UUID, entity preferences.EntityType, name string, excludeID uuid.UUID) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.SavedFilterModel{}).
		Where("tenant_id = ? AND user_id = ? AND entity = ? AND LOWER(name) = LOWER(?) AND deleted_at IS NULL",
			tenantID, userID, entity, name)
	if excludeID != uuid.Nil {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates a saved filter
func (r *GormSavedFilterRepository) Save(ctx context.Context, f *preferences.SavedFilter) error {
	if err := r.db.WithContext(ctx).Save(models.SavedFilterModelFromDomain(f)).Error; err != nil {
		return err
	}
	f.MarkLoaded()
	return nil
}

// SaveWithLock updates a saved filter guarded by its loaded version
func (r *GormSavedFilterRepository) SaveWithLock(ctx context.Context, f *preferences.SavedFilter) error {
	if err := updateWithLock(ctx, r.db, models.SavedFilterModelFromDomain(f), f.ID, f.LoadedVersion()); err != nil {
		return err
	}
	f.MarkLoaded()
	return nil
}

// SetDefault clears the user's other defaults for the entity and saves f, in one transaction
func (r *GormSavedFilterRepository) SetDefault(ctx context.Context, f *preferences.SavedFilter) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.SavedFilterModel{}).
			Where("tenant_id = ? AND user_id = ? AND entity = ? AND id <> ? AND is_default = ?",
				f.TenantID, f.UserID, f.Entity, f.ID, true).
			Updates(map[string]any{
				"is_default": false,
				"version":    gorm.Expr("version + 1"),
				"updated_at": time.Now(),
			}).Error; err != nil {
			return err
		}
		return updateWithLock(ctx, tx, models.SavedFilterModelFromDomain(f), f.ID, f.LoadedVersion())
	})
	if err != nil {
		return err
	}
	f.MarkLoaded()
	return nil
}

// PurgeDeletedBefore hard-deletes filters trashed before the cutoff
func (r *GormSavedFilterRepository) PurgeDeletedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return purgeDeleted(ctx, r.db, &models.SavedFilterModel{}, cutoff)
}

func toSavedFilters(rows []models.SavedFilterModel) []preferences.SavedFilter {
	out := make([]preferences.SavedFilter, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

// GormUserPreferencesRepository implements UserPreferencesRepository using GORM
type GormUserPreferencesRepository struct {
	db *gorm.DB
}

// NewGormUserPreferencesRepository creates a new GormUserPreferencesRepository
func NewGormUserPreferencesRepository(db *gorm.DB) *GormUserPreferencesRepository {
	return &GormUserPreferencesRepository{db: db}
}

// FindByUser loads a user's saved preferences
func (r *GormUserPreferencesRepository) FindByUser(ctx context.Context, tenantID, userID uuid.UUID) (*preferences.UserPreferences, error) {
	var model models.UserPreferencesModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND user_id = ?", tenantID, userID).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// Upsert inserts first-time preferences and updates existing ones with a version check
func (r *GormUserPreferencesRepository) Upsert(ctx context.Context, p *preferences.UserPreferences) error {
	model := models.UserPreferencesModelFromDomain(p)
	var err error
	if p.LoadedVersion() == 0 {
		err = r.db.WithContext(ctx).Create(model).Error
	} else {
		err = updateWithLock(ctx, r.db, model, p.ID, p.LoadedVersion())
	}
	if err != nil {
		return err
	}
	p.MarkLoaded()
	return nil
}

var (
	_ preferences.SavedFilterRepository     = (*GormSavedFilterRepository)(nil)
	_ preferences.UserPreferencesRepository = (*GormUserPreferencesRepository)(nil)
)
