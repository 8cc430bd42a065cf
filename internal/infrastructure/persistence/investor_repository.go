package persistence

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/domain/investor"
	"github.com/investorcrm/backend/internal/domain/shared"
	"github.com/investorcrm/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormInvestorRepository implements InvestorRepository using GORM
type GormInvestorRepository struct {
	db *gorm.DB
}

// NewGormInvestorRepository creates a new GormInvestorRepository
func NewGormInvestorRepository(db *gorm.DB) *GormInvestorRepository {
	return &GormInvestorRepository{db: db}
}

// FindByIDForTenant finds a live investor by ID within a tenant
func (r *GormInvestorRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*investor.Investor, error) {
	var model models.InvestorModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ? AND deleted_at IS NULL", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByIDIncludingDeleted finds an investor by ID even when it is in the trash
func (r *GormInvestorRepository) FindByIDIncludingDeleted(ctx context.Context, tenantID, id uuid.UUID) (*investor.Investor, error) {
	var model models.InvestorModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByIDs finds multiple live investors by their IDs
func (r *GormInvestorRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]investor.Investor, error) {
	if len(ids) == 0 {
		return []investor.Investor{}, nil
	}
	var rows []models.InvestorModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id IN ? AND deleted_at IS NULL", tenantID, ids).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toInvestors(rows), nil
}

// FindAllForTenant lists investors with filtering and paging
func (r *GormInvestorRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]investor.Investor, error) {
	var rows []models.InvestorModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.InvestorModel{}).Where("tenant_id = ?", tenantID), filter)
	query = applyPaging(query, filter, InvestorSortFields, "updated_at")
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return toInvestors(rows), nil
}

// CountForTenant counts investors matching the filter
func (r *GormInvestorRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.InvestorModel{}).Where("tenant_id = ?", tenantID), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindAllOpen lists every live investor in an open stage
func (r *GormInvestorRepository) FindAllOpen(ctx context.Context, tenantID uuid.UUID) ([]investor.Investor, error) {
	var rows []models.InvestorModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND deleted_at IS NULL AND stage NOT IN ?", tenantID,
			[]investor.Stage{investor.StageCommitted, investor.StagePassed}).
		Order("name ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toInvestors(rows), nil
}

// FindFollowUpsDue lists live investors whose follow-up date is at or before the given time
func (r *GormInvestorRepository) FindFollowUpsDue(ctx context.Context, tenantID uuid.UUID, before time.Time) ([]investor.Investor, error) {
	var rows []models.InvestorModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND deleted_at IS NULL AND next_follow_up_at IS NOT NULL AND next_follow_up_at <= ?", tenantID, before).
		Where("stage NOT IN ?", []investor.Stage{investor.StageCommitted, investor.StagePassed}).
		Order("next_follow_up_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toInvestors(rows), nil
}

// FindByPriority lists live investors of the given priority across all tenants
func (r *GormInvestorRepository) FindByPriority(ctx context.Context, priority investor.Priority, limit int) ([]investor.Investor, error) {
	var rows []models.InvestorModel
	query := r.db.WithContext(ctx).
		Where("priority = ? AND deleted_at IS NULL", priority).
		Order("updated_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return toInvestors(rows), nil
}

// Save creates or updates an investor
func (r *GormInvestorRepository) Save(ctx context.Context, inv *investor.Investor) error {
	model := models.InvestorModelFromDomain(inv)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return err
	}
	inv.MarkLoaded()
	return nil
}

// SaveWithLock updates an investor only if the stored version is the one it was loaded with
func (r *GormInvestorRepository) SaveWithLock(ctx context.Context, inv *investor.Investor) error {
	model := models.InvestorModelFromDomain(inv)
	if err := updateWithLock(ctx, r.db, model, inv.ID, inv.LoadedVersion()); err != nil {
		return err
	}
	inv.MarkLoaded()
	return nil
}

// SummarizeByStage returns per-stage counts and totals for live investors
func (r *GormInvestorRepository) SummarizeByStage(ctx context.Context, tenantID uuid.UUID) ([]investor.StageSummary, error) {
	type row struct {
		Stage          string
		Count          int64
		CheckSizeTotal decimal.Decimal
		CommittedTotal decimal.Decimal
	}
	var rows []row
	if err := r.db.WithContext(ctx).
		Model(&models.InvestorModel{}).
		Select("stage, COUNT(*) AS count, COALESCE(SUM(check_size_max), 0) AS check_size_total, COALESCE(SUM(commitment_amount), 0) AS committed_total").
		Where("tenant_id = ? AND deleted_at IS NULL", tenantID).
		Group("stage").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	byStage := make(map[investor.Stage]row, len(rows))
	for _, rw := range rows {
		byStage[investor.Stage(rw.Stage)] = rw
	}
	out := make([]investor.StageSummary, 0, len(investor.AllStages()))
	for _, stage := range investor.AllStages() {
		rw := byStage[stage]
		out = append(out, investor.StageSummary{
			Stage:          stage,
			Count:          rw.Count,
			CheckSizeTotal: rw.CheckSizeTotal,
			CommittedTotal: rw.CommittedTotal,
		})
	}
	return out, nil
}

// ExistsByName checks for a live investor with the same name and firm
func (r *GormInvestorRepository) ExistsByName(ctx context.Context, tenantID uuid.UUID, name, firmName string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.InvestorModel{}).
		Where("tenant_id = ? AND deleted_at IS NULL AND LOWER(name) = LOWER(?) AND LOWER(firm_name) = LOWER(?)", tenantID, name, firmName).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// PurgeDeletedBefore hard-deletes investors soft-deleted before the cutoff
func (r *GormInvestorRepository) PurgeDeletedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return purgeDeleted(ctx, r.db, &models.InvestorModel{}, cutoff)
}

// applyFilter applies search and filter keys without paging
func (r *GormInvestorRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = scopeDeleted(query, filter)

	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("LOWER(name) LIKE ? OR LOWER(firm_name) LIKE ? OR LOWER(location) LIKE ?", pattern, pattern, pattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "stage":
			query = query.Where("stage = ?", value)
		case "type":
			query = query.Where("type = ?", value)
		case "priority":
			query = query.Where("priority = ?", value)
		case "owner_id":
			if id, ok := uuidFilter(value); ok {
				query = query.Where("owner_id = ?", id)
			}
		case "tag":
			if tag, ok := value.(string); ok && tag != "" {
				needle, _ := json.Marshal([]string{tag})
				query = query.Where("tags::jsonb @> ?::jsonb", string(needle))
			}
		case "follow_up_due":
			switch v := value.(type) {
			case time.Time:
				query = query.Where("next_follow_up_at IS NOT NULL AND next_follow_up_at <= ?", v)
			case bool:
				if v {
					query = query.Where("next_follow_up_at IS NOT NULL AND next_follow_up_at <= ?", time.Now())
				}
			}
		}
	}
	return query
}

func toInvestors(rows []models.InvestorModel) []investor.Investor {
	out := make([]investor.Investor, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

// Ensure GormInvestorRepository implements InvestorRepository
var _ investor.InvestorRepository = (*GormInvestorRepository)(nil)
