package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/domain/assistant"
)

// ConversationModel is the persistence model for an assistant conversation.
type ConversationModel struct {
	TenantAggregateModel
	UserID   uuid.UUID             `gorm:"type:uuid;not null;index"`
	Title    string                `gorm:"type:varchar(100)"`
	Messages []ConversationMessage `gorm:"foreignKey:ConversationID"`
}

// TableName returns the table name for GORM
func (ConversationModel) TableName() string {
	return "assistant_conversations"
}

// ConversationMessage is one message row. Rows are only ever inserted.
type ConversationMessage struct {
	ID             uuid.UUID                  `gorm:"type:uuid;primary_key"`
	ConversationID uuid.UUID                  `gorm:"type:uuid;not null;index"`
	Role           assistant.MessageRole      `gorm:"type:varchar(20);not null"`
	Content        string                     `gorm:"type:text"`
	ToolCalls      JSON[[]assistant.ToolCall] `gorm:"type:jsonb"`
	ToolName       string                     `gorm:"type:varchar(100)"`
	ToolCallID     string                     `gorm:"type:varchar(100)"`
	IsError        bool                       `gorm:"not null;default:false"`
	CreatedAt      time.Time                  `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ConversationMessage) TableName() string {
	return "assistant_messages"
}

// ToDomain converts the persistence model to a domain Conversation
func (m *ConversationModel) ToDomain() *assistant.Conversation {
	c := &assistant.Conversation{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		UserID:              m.UserID,
		Title:               m.Title,
		Messages:            make([]assistant.Message, 0, len(m.Messages)),
	}
	for _, msg := range m.Messages {
		c.Messages = append(c.Messages, msg.ToDomain())
	}
	return c
}

// ToDomain converts the message row to a domain Message
func (m ConversationMessage) ToDomain() assistant.Message {
	msg := assistant.Message{
		ID:         m.ID,
		Role:       m.Role,
		Content:    m.Content,
		ToolName:   m.ToolName,
		ToolCallID: m.ToolCallID,
		IsError:    m.IsError,
		CreatedAt:  m.CreatedAt,
	}
	if m.ToolCalls.Data != nil {
		msg.ToolCalls = *m.ToolCalls.Data
	}
	return msg
}

// ConversationModelFromDomain creates the conversation row without messages
func ConversationModelFromDomain(c *assistant.Conversation) *ConversationModel {
	m := &ConversationModel{UserID: c.UserID, Title: c.Title}
	m.FromDomainTenantAggregateRoot(c.TenantAggregateRoot)
	return m
}

// ConversationMessageFromDomain creates a message row
func ConversationMessageFromDomain(conversationID uuid.UUID, msg assistant.Message) ConversationMessage {
	row := ConversationMessage{
		ID:             msg.ID,
		ConversationID: conversationID,
		Role:           msg.Role,
		Content:        msg.Content,
		ToolName:       msg.ToolName,
		ToolCallID:     msg.ToolCallID,
		IsError:        msg.IsError,
		CreatedAt:      msg.CreatedAt,
	}
	if len(msg.ToolCalls) > 0 {
		calls := msg.ToolCalls
		row.ToolCalls = JSON[[]assistant.ToolCall]{Data: &calls}
	}
	return row
}
