package assistant

import (
	"time"

	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/domain/assistant"
)

// ChatRequest is one user turn sent to the assistant
type ChatRequest struct {
	ConversationID *uuid.UUID `json:"conversation_id"`
	Message        string     `json:"message" binding:"required,min=1,max=8000"`
}

// ToolExecution summarizes a tool the assistant ran during a turn
type ToolExecution struct {
	Name    string `json:"name"`
	IsError bool   `json:"is_error"`
	Denied  bool   `json:"denied,omitempty"`
}

// ChatResponse is the assistant's answer to one turn
type ChatResponse struct {
	ConversationID uuid.UUID       `json:"conversation_id"`
	Reply          string          `json:"reply"`
	Tools          []ToolExecution `json:"tools"`
	Rounds         int             `json:"rounds"`
	Truncated      bool            `json:"truncated"`
}

// ListFilter pages a user's conversations
type ListFilter struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ConversationSummary is a conversation without its messages
type ConversationSummary struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MessageResponse is one message of a conversation
type MessageResponse struct {
	ID         uuid.UUID            `json:"id"`
	Role       string               `json:"role"`
	Content    string               `json:"content"`
	ToolCalls  []assistant.ToolCall `json:"tool_calls,omitempty"`
	ToolName   string               `json:"tool_name,omitempty"`
	ToolCallID string               `json:"tool_call_id,omitempty"`
	IsError    bool                 `json:"is_error,omitempty"`
	CreatedAt  time.Time            `json:"created_at"`
}

// ConversationResponse is a conversation with its full message history
type ConversationResponse struct {
	ConversationSummary
	Messages []MessageResponse `json:"messages"`
}

// ToConversationSummary converts a domain conversation to its summary DTO
func ToConversationSummary(c *assistant.Conversation) ConversationSummary {
	return ConversationSummary{
		ID:        c.ID,
		Title:     c.Title,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// ToConversationResponse converts a domain conversation with its messages
func ToConversationResponse(c *assistant.Conversation) ConversationResponse {
	msgs := make([]MessageResponse, len(c.Messages))
	for i, m := range c.Messages {
		msgs[i] = MessageResponse{
			ID:         m.ID,
			Role:       string(m.Role),
			Content:    m.Content,
			ToolCalls:  m.ToolCalls,
			ToolName:   m.ToolName,
			ToolCallID: m.ToolCallID,
			IsError:    m.IsError,
			CreatedAt:  m.CreatedAt,
		}
	}
	return ConversationResponse{
		ConversationSummary: ToConversationSummary(c),
		Messages:            msgs,
	}
}
