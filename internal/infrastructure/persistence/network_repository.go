package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/domain/network"
	"github.com/investorcrm/backend/internal/domain/shared"
	"github.com/investorcrm/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const batchSize = 200

// GormLinkedInContactRepository implements LinkedInContactRepository using GORM
type GormLinkedInContactRepository struct {
	db *gorm.DB
}

// NewGormLinkedInContactRepository creates a new GormLinkedInContactRepository
func NewGormLinkedInContactRepository(db *gorm.DB) *GormLinkedInContactRepository {
	return &GormLinkedInContactRepository{db: db}
}

// FindByIDForTenant finds an imported connection by ID
func (r *GormLinkedInContactRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*network.LinkedInContact, error) {
	var model models.LinkedInContactModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByIDs finds imported connections by ID
func (r *GormLinkedInContactRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]network.LinkedInContact, error) {
	if len(ids) == 0 {
		return []network.LinkedInContact{}, nil
	}
	var rows []models.LinkedInContactModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toLinkedInContacts(rows), nil
}

// FindAllForTenant lists connections with filtering and paging
func (r *GormLinkedInContactRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]network.LinkedInContact, error) {
	var rows []models.LinkedInContactModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.LinkedInContactModel{}).Where("tenant_id = ?", tenantID), filter)
	query = applyPaging(query, filter, LinkedInContactSortFields, "last_name")
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return toLinkedInContacts(rows), nil
}

// CountForTenant counts connections matching the filter
func (r *GormLinkedInContactRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.LinkedInContactModel{}).Where("tenant_id = ?", tenantID), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindAllByTenant loads every connection of the tenant for matching
func (r *GormLinkedInContactRepository) FindAllByTenant(ctx context.Context, tenantID uuid.UUID) ([]network.LinkedInContact, error) {
	var rows []models.LinkedInContactModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toLinkedInContacts(rows), nil
}

// FindByOwner loads one team member's network
func (r *GormLinkedInContactRepository) FindByOwner(ctx context.Context, tenantID, ownerUserID uuid.UUID) ([]network.LinkedInContact, error) {
	var rows []models.LinkedInContactModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND owner_user_id = ?", tenantID, ownerUserID).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toLinkedInContacts(rows), nil
}

// SaveBatch upserts connections keyed by tenant, owner and dedup key
func (r *GormLinkedInContactRepository) SaveBatch(ctx context.Context, contacts []*network.LinkedInContact) error {
	if len(contacts) == 0 {
		return nil
	}
	rows := make([]*models.LinkedInContactModel, len(contacts))
	for i, c := range contacts {
		rows[i] = models.LinkedInContactModelFromDomain(c)
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "tenant_id"}, {Name: "owner_user_id"}, {Name: "dedup_key"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"first_name", "last_name", "email", "company", "normalized_company",
				"position", "connected_on", "profile_url", "updated_at", "version",
			}),
		}).
		CreateInBatches(rows, batchSize).Error
	if err != nil {
		return err
	}
	for _, c := range contacts {
		c.MarkLoaded()
	}
	return nil
}

func (r *GormLinkedInContactRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(company) LIKE ? OR LOWER(position) LIKE ?",
			pattern, pattern, pattern, pattern)
	}
	for key, value := range filter.Filters {
		switch key {
		case "owner_user_id":
			if id, ok := uuidFilter(value); ok {
				query = query.Where("owner_user_id = ?", id)
			}
		case "company":
			if s, ok := value.(string); ok && s != "" {
				query = query.Where("normalized_company = ?", network.NormalizeCompanyName(s))
			}
		}
	}
	return query
}

func toLinkedInContacts(rows []models.LinkedInContactModel) []network.LinkedInContact {
	out := make([]network.LinkedInContact, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

// GormRelationshipRepository implements RelationshipRepository using GORM
type GormRelationshipRepository struct {
	db *gorm.DB
}

// NewGormRelationshipRepository creates a new GormRelationshipRepository
func NewGormRelationshipRepository(db *gorm.DB) *GormRelationshipRepository {
	return &GormRelationshipRepository{db: db}
}

// FindByIDForTenant finds a relationship by ID
func (r *GormRelationshipRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*network.InvestorRelationship, error) {
	var model models.RelationshipModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByInvestor returns non-dismissed relationships, confirmed and strongest first
func (r *GormRelationshipRepository) FindByInvestor(ctx context.Context, tenantID, investorID uuid.UUID) ([]network.InvestorRelationship, error) {
	var rows []models.RelationshipModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND investor_id = ? AND status <> ?", tenantID, investorID, network.RelationshipDismissed).
		Order(clause.OrderBy{Expression: clause.Expr{
			SQL:  "CASE WHEN status = ? THEN 0 ELSE 1 END, strength DESC, detected_at ASC",
			Vars: []any{network.RelationshipConfirmed},
		}}).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toRelationships(rows), nil
}

// FindReviewed returns confirmed and dismissed relationships of the tenant
func (r *GormRelationshipRepository) FindReviewed(ctx context.Context, tenantID uuid.UUID) ([]network.InvestorRelationship, error) {
	var rows []models.RelationshipModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND status <> ?", tenantID, network.RelationshipSuggested).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toRelationships(rows), nil
}

// ReplaceSuggested swaps the tenant's suggested relationships for a new set in one transaction
func (r *GormRelationshipRepository) ReplaceSuggested(ctx context.Context, tenantID uuid.UUID, rels []*network.InvestorRelationship) (int64, error) {
	var removed int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("tenant_id = ? AND status = ?", tenantID, network.RelationshipSuggested).
			Delete(&models.RelationshipModel{})
		if result.Error != nil {
			return result.Error
		}
		removed = result.RowsAffected
		if len(rels) == 0 {
			return nil
		}
		rows := make([]*models.RelationshipModel, len(rels))
		for i, rel := range rels {
			rows[i] = models.RelationshipModelFromDomain(rel)
		}
		return tx.CreateInBatches(rows, batchSize).Error
	})
	if err != nil {
		return 0, err
	}
	for _, rel := range rels {
		rel.MarkLoaded()
	}
	return removed, nil
}

// Save creates or updates a relationship
func (r *GormRelationshipRepository) Save(ctx context.Context, rel *network.InvestorRelationship) error {
	if err := r.db.WithContext(ctx).Save(models.RelationshipModelFromDomain(rel)).Error; err != nil {
		return err
	}
	rel.MarkLoaded()
	return nil
}

// SaveWithLock updates a relationship guarded by its loaded version
func (r *GormRelationshipRepository) SaveWithLock(ctx context.Context, rel *network.InvestorRelationship) error {
	if err := updateWithLock(ctx, r.db, models.RelationshipModelFromDomain(rel), rel.ID, rel.LoadedVersion()); err != nil {
		return err
	}
	rel.MarkLoaded()
	return nil
}

func toRelationships(rows []models.RelationshipModel) []network.InvestorRelationship {
	out := make([]network.InvestorRelationship, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

var (
	_ network.LinkedInContactRepository = (*GormLinkedInContactRepository)(nil)
	_ network.RelationshipRepository    = (*GormRelationshipRepository)(nil)
)
