package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/domain/assistant"
	"github.com/investorcrm/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormConversationRepository_Save(t *testing.T) {
	repo := NewGormConversationRepository(setupTestDB(t))
	ctx := context.Background()
	tenantID, userID := uuid.New(), uuid.New()

	conv := assistant.NewConversation(tenantID, userID, "Who should I follow up with?")
	require.NoError(t, conv.AddUserMessage("Who should I follow up with?"))
	call := assistant.ToolCall{ID: "call_1", Name: "list_follow_ups", Input: map[string]any{"days": float64(7)}}
	conv.AddAssistantMessage("", []assistant.ToolCall{call})
	conv.AddToolResult(call, `{"investors":[]}`, false)
	require.NoError(t, repo.Save(ctx, conv))
	assert.Empty(t, conv.PendingMessages())

	loaded, err := repo.FindByIDForUser(ctx, tenantID, userID, conv.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Messages, 3)
	assert.Equal(t, assistant.RoleUser, loaded.Messages[0].Role)
	require.Len(t, loaded.Messages[1].ToolCalls, 1)
	assert.Equal(t, "list_follow_ups", loaded.Messages[1].ToolCalls[0].Name)
	assert.Equal(t, float64(7), loaded.Messages[1].ToolCalls[0].Input["days"])
	assert.Equal(t, "call_1", loaded.Messages[2].ToolCallID)

	t.Run("appends only new messages", func(t *testing.T) {
		loaded.AddAssistantMessage("Nobody is due this week.", nil)
		require.NoError(t, repo.Save(ctx, loaded))

		again, err := repo.FindByIDForUser(ctx, tenantID, userID, conv.ID)
		require.NoError(t, err)
		assert.Len(t, again.Messages, 4)
	})

	t.Run("other users cannot read it", func(t *testing.T) {
		_, err := repo.FindByIDForUser(ctx, tenantID, uuid.New(), conv.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("lists conversations with total", func(t *testing.T) {
		convs, total, err := repo.FindAllForUser(ctx, tenantID, userID, shared.Filter{Page: 1, PageSize: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, convs, 1)
		assert.Empty(t, convs[0].Messages)
	})
}
