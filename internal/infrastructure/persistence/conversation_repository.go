package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/domain/assistant"
	"github.com/investorcrm/backend/internal/domain/shared"
	"github.com/investorcrm/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormConversationRepository implements ConversationRepository using GORM
type GormConversationRepository struct {
	db *gorm.DB
}

// NewGormConversationRepository creates a new GormConversationRepository
func NewGormConversationRepository(db *gorm.DB) *GormConversationRepository {
	return &GormConversationRepository{db: db}
}

// FindByIDForUser loads a conversation with its messages in order
func (r *GormConversationRepository) FindByIDForUser(ctx context.Context, tenantID, userID, id uuid.UUID) (*assistant.Conversation, error) {
	var model models.ConversationModel
	if err := r.db.WithContext(ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("tenant_id = ? AND user_id = ? AND id = ?", tenantID, userID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAllForUser lists conversations without messages, most recent first
func (r *GormConversationRepository) FindAllForUser(ctx context.Context, tenantID, userID uuid.UUID, filter shared.Filter) ([]assistant.Conversation, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ConversationModel{}).
		Where("tenant_id = ? AND user_id = ?", tenantID, userID)
	if filter.Search != "" {
		query = query.Where("LOWER(title) LIKE ?", likePattern(filter.Search))
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	var rows []models.ConversationModel
	if err := query.Order("updated_at DESC").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]assistant.Conversation, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, total, nil
}

// Save upserts the conversation and appends its unsaved messages
func (r *GormConversationRepository) Save(ctx context.Context, c *assistant.Conversation) error {
	pending := c.PendingMessages()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Messages").Save(models.ConversationModelFromDomain(c)).Error; err != nil {
			return err
		}
		if len(pending) == 0 {
			return nil
		}
		rows := make([]models.ConversationMessage, len(pending))
		for i, msg := range pending {
			rows[i] = models.ConversationMessageFromDomain(c.ID, msg)
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		return err
	}
	c.ClearPending()
	c.MarkLoaded()
	return nil
}

var _ assistant.ConversationRepository = (*GormConversationRepository)(nil)
