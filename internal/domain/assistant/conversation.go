package assistant

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/domain/shared"
)

// MessageRole is the author of a conversation message
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleTool      MessageRole = "tool"
)

// MaxHistoryMessages bounds how much history is replayed to the model
const MaxHistoryMessages = 40

// ToolCall is a tool invocation requested by the model
type ToolCall struct {
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Input map[string]any `json:"input"`
}

// Message is one turn in a conversation
type Message struct {
	ID         uuid.UUID
	Role       MessageRole
	Content    string
	ToolCalls  []ToolCall
	ToolName   string
	ToolCallID string
	IsError    bool
	CreatedAt  time.Time
}

// Conversation is a user's chat with the assistant
type Conversation struct {
	shared.TenantAggregateRoot
	UserID   uuid.UUID
	Title    string
	Messages []Message

	// appended since load; the repository inserts only these
	pending []Message
}

// NewConversation starts a conversation titled after the first user message
func NewConversation(tenantID, userID uuid.UUID, firstMessage string) *Conversation {
	c := &Conversation{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		UserID:              userID,
		Title:               titleFrom(firstMessage),
	}
	c.SetActor(userID)
	return c
}

// AddUserMessage appends the user's text
func (c *Conversation) AddUserMessage(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return shared.NewDomainError("EMPTY_MESSAGE", "Message cannot be empty")
	}
	if utf8.RuneCountInString(text) > 8000 {
		return shared.NewDomainError("MESSAGE_TOO_LONG", "Message cannot exceed 8000 characters")
	}
	c.append(Message{Role: RoleUser, Content: text})
	return nil
}

// AddAssistantMessage appends the model's reply and any tool requests
func (c *Conversation) AddAssistantMessage(text string, calls []ToolCall) {
	c.append(Message{Role: RoleAssistant, Content: text, ToolCalls: calls})
}

// AddToolResult appends the output of an executed tool
func (c *Conversation) AddToolResult(call ToolCall, result string, isError bool) {
	c.append(Message{Role: RoleTool, Content: result, ToolName: call.Name, ToolCallID: call.ID, IsError: isError})
}

// History returns the most recent messages without splitting a tool call from its result
func (c *Conversation) History() []Message {
	if len(c.Messages) <= MaxHistoryMessages {
		return c.Messages
	}
	start := len(c.Messages) - MaxHistoryMessages
	// a window must open on a user turn, never on an orphaned tool result
	for start < len(c.Messages) && c.Messages[start].Role != RoleUser {
		start++
	}
	return c.Messages[start:]
}

// PendingMessages returns messages appended since the conversation was loaded
func (c *Conversation) PendingMessages() []Message {
	return c.pending
}

// ClearPending is called after the repository persisted the pending messages
func (c *Conversation) ClearPending() {
	c.pending = nil
}

// OwnedBy reports whether the conversation belongs to the user
func (c *Conversation) OwnedBy(userID uuid.UUID) bool {
	return c.UserID == userID
}

func (c *Conversation) append(m Message) {
	m.ID = uuid.New()
	m.CreatedAt = time.Now()
	c.Messages = append(c.Messages, m)
	c.pending = append(c.pending, m)
	c.UpdatedAt = m.CreatedAt
	c.IncrementVersion()
}

func titleFrom(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return "New conversation"
	}
	if utf8.RuneCountInString(text) > 80 {
		r := []rune(text)
		return string(r[:77]) + "..."
	}
	return text
}

// ConversationRepository defines the interface for conversation persistence
type ConversationRepository interface {
	FindByIDForUser(ctx context.Context, tenantID, userID, id uuid.UUID) (*Conversation, error)
	FindAllForUser(ctx context.Context, tenantID, userID uuid.UUID, filter shared.Filter) ([]Conversation, int64, error)

	// Save upserts the conversation row and inserts its pending messages
	Save(ctx context.Context, c *Conversation) error
}
