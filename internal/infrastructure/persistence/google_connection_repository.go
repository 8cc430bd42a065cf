package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/domain/integration"
	"github.com/investorcrm/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormGoogleConnectionRepository implements GoogleConnectionRepository using GORM
type GormGoogleConnectionRepository struct {
	db *gorm.DB
}

// NewGormGoogleConnectionRepository creates a new GormGoogleConnectionRepository
func NewGormGoogleConnectionRepository(db *gorm.DB) *GormGoogleConnectionRepository {
	return &GormGoogleConnectionRepository{db: db}
}

// FindByUser finds the user's Google connection
func (r *GormGoogleConnectionRepository) FindByUser(ctx context.Context, tenantID, userID uuid.UUID) (*integration.GoogleConnection, error) {
	var model models.GoogleConnectionModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND user_id = ?", tenantID, userID).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll returns every connection across tenants
func (r *GormGoogleConnectionRepository) FindAll(ctx context.Context) ([]integration.GoogleConnection, error) {
	var rows []models.GoogleConnectionModel
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]integration.GoogleConnection, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// Save creates or updates a connection
func (r *GormGoogleConnectionRepository) Save(ctx context.Context, c *integration.GoogleConnection) error {
	if err := r.db.WithContext(ctx).Save(models.GoogleConnectionModelFromDomain(c)).Error; err != nil {
		return err
	}
	c.MarkLoaded()
	return nil
}

// Delete removes the user's connection
func (r *GormGoogleConnectionRepository) Delete(ctx context.Context, tenantID, userID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("tenant_id = ? AND user_id = ?", tenantID, userID).
		Delete(&models.GoogleConnectionModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return translateError(gorm.ErrRecordNotFound)
	}
	return nil
}

var _ integration.GoogleConnectionRepository = (*GormGoogleConnectionRepository)(nil)
