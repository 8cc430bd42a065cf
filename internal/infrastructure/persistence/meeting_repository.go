package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/domain/meeting"
	"github.com/investorcrm/backend/internal/domain/shared"
	"github.com/investorcrm/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormMeetingRepository implements MeetingRepository using GORM
type GormMeetingRepository struct {
	db *gorm.DB
}

// NewGormMeetingRepository creates a new GormMeetingRepository
func NewGormMeetingRepository(db *gorm.DB) *GormMeetingRepository {
	return &GormMeetingRepository{db: db}
}

// FindByIDForTenant finds a live meeting by ID
func (r *GormMeetingRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*meeting.Meeting, error) {
	var model models.MeetingModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ? AND deleted_at IS NULL", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByIDIncludingDeleted finds a meeting even when it is in the trash
func (r *GormMeetingRepository) FindByIDIncludingDeleted(ctx context.Context, tenantID, id uuid.UUID) (*meeting.Meeting, error) {
	var model models.MeetingModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists meetings, latest first by default
func (r *GormMeetingRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]meeting.Meeting, error) {
	var rows []models.MeetingModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.MeetingModel{}).Where("tenant_id = ?", tenantID), filter)
	query = applyPaging(query, filter, MeetingSortFields, "scheduled_at")
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return toMeetings(rows), nil
}

// CountForTenant counts meetings matching the filter
func (r *GormMeetingRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.MeetingModel{}).Where("tenant_id = ?", tenantID), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindByInvestor lists the live meetings of an investor
func (r *GormMeetingRepository) FindByInvestor(ctx context.Context, tenantID, investorID uuid.UUID) ([]meeting.Meeting, error) {
	var rows []models.MeetingModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND investor_id = ? AND deleted_at IS NULL", tenantID, investorID).
		Order("scheduled_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toMeetings(rows), nil
}

// FindByCalendarEventID finds the meeting synced from a calendar event, trash included
func (r *GormMeetingRepository) FindByCalendarEventID(ctx context.Context, tenantID uuid.UUID, eventID string) (*meeting.Meeting, error) {
	var model models.MeetingModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND calendar_event_id = ?", tenantID, eventID).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// Save creates or updates a meeting
func (r *GormMeetingRepository) Save(ctx context.Context, m *meeting.Meeting) error {
	if err := r.db.WithContext(ctx).Save(models.MeetingModelFromDomain(m)).Error; err != nil {
		return err
	}
	m.MarkLoaded()
	return nil
}

// SaveWithLock updates a meeting guarded by its loaded version
func (r *GormMeetingRepository) SaveWithLock(ctx context.Context, m *meeting.Meeting) error {
	if err := updateWithLock(ctx, r.db, models.MeetingModelFromDomain(m), m.ID, m.LoadedVersion()); err != nil {
		return err
	}
	m.MarkLoaded()
	return nil
}

// PurgeDeletedBefore hard-deletes meetings soft-deleted before the cutoff
func (r *GormMeetingRepository) PurgeDeletedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return purgeDeleted(ctx, r.db, &models.MeetingModel{}, cutoff)
}

func (r *GormMeetingRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = scopeDeleted(query, filter)
	if filter.Search != "" {
		query = query.Where("LOWER(title) LIKE ?", likePattern(filter.Search))
	}
	for key, value := range filter.Filters {
		switch key {
		case "investor_id":
			if id, ok := uuidFilter(value); ok {
				query = query.Where("investor_id = ?", id)
			}
		case "status":
			query = query.Where("status = ?", value)
		case "from":
			if t, ok := timeFilter(value); ok {
				query = query.Where("scheduled_at >= ?", t)
			}
		case "to":
			if t, ok := timeFilter(value); ok {
				query = query.Where("scheduled_at < ?", t)
			}
		}
	}
	return query
}

func toMeetings(rows []models.MeetingModel) []meeting.Meeting {
	out := make([]meeting.Meeting, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

// Ensure GormMeetingRepository implements MeetingRepository
var _ meeting.MeetingRepository = (*GormMeetingRepository)(nil)
