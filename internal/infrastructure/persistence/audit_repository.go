package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/domain/audit"
	"github.com/investorcrm/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormAuditRepository implements audit.Repository using GORM.
// Rows are inserted and read, never updated.
type GormAuditRepository struct {
	db *gorm.DB
}

// NewGormAuditRepository creates a new GormAuditRepository
func NewGormAuditRepository(db *gorm.DB) *GormAuditRepository {
	return &GormAuditRepository{db: db}
}

// Append inserts audit entries
func (r *GormAuditRepository) Append(ctx context.Context, entries ...*audit.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	rows := make([]*models.AuditLogModel, len(entries))
	for i, e := range entries {
		rows[i] = models.AuditLogModelFromDomain(e)
	}
	return r.db.WithContext(ctx).CreateInBatches(rows, batchSize).Error
}

// Find returns a page of audit entries, newest first by default, and the total count
func (r *GormAuditRepository) Find(ctx context.Context, tenantID uuid.UUID, q audit.Query) ([]audit.Entry, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.AuditLogModel{}).Where("tenant_id = ?", tenantID)
	if q.EntityType != "" {
		query = query.Where("entity_type = ?", q.EntityType)
	}
	if q.EntityID != nil {
		query = query.Where("entity_id = ?", *q.EntityID)
	}
	if q.ActorID != nil {
		query = query.Where("actor_id = ?", *q.ActorID)
	}
	if q.Action != "" {
		query = query.Where("action = ?", q.Action)
	}
	if q.From != nil {
		query = query.Where("created_at >= ?", *q.From)
	}
	if q.To != nil {
		query = query.Where("created_at <= ?", *q.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	filter := q.Filter
	if filter.OrderDir == "" {
		filter.OrderDir = "desc"
	}
	var rows []models.AuditLogModel
	if err := applyPaging(query, filter, AuditSortFields, "created_at").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	entries := make([]audit.Entry, len(rows))
	for i := range rows {
		entries[i] = rows[i].ToDomain()
	}
	return entries, total, nil
}

var _ audit.Repository = (*GormAuditRepository)(nil)
