package assistant

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	appactivity "github.com/investorcrm/backend/internal/application/activity"
	appaudit "github.com/investorcrm/backend/internal/application/audit"
	appinvestor "github.com/investorcrm/backend/internal/application/investor"
	appnetwork "github.com/investorcrm/backend/internal/application/network"
	apptask "github.com/investorcrm/backend/internal/application/task"
	"github.com/investorcrm/backend/internal/domain/assistant"
	"github.com/investorcrm/backend/internal/domain/audit"
	"github.com/investorcrm/backend/internal/domain/identity"
	"github.com/investorcrm/backend/internal/domain/investor"
	"github.com/investorcrm/backend/internal/domain/shared"
	"github.com/investorcrm/backend/internal/infrastructure/cache"
	"github.com/investorcrm/backend/internal/infrastructure/integrations/llm"
	"github.com/investorcrm/backend/internal/infrastructure/persistence"
	"github.com/investorcrm/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// scriptedLLM replays canned replies in order and records every request
type scriptedLLM struct {
	enabled  bool
	replies  []*llm.Response
	repeat   *llm.Response
	err      error
	requests []llm.Request
}

func (s *scriptedLLM) Enabled() bool { return s.enabled }
func (s *scriptedLLM) Model() string { return "stub-model" }

func (s *scriptedLLM) Complete(_ context.Context, purpose string, req llm.Request) (*llm.Response, error) {
	if purpose != llmPurpose {
		return nil, errors.New("unexpected purpose " + purpose)
	}
	s.requests = append(s.requests, req)
	if s.err != nil {
		return nil, s.err
	}
	if len(s.replies) == 0 {
		if s.repeat != nil {
			return s.repeat, nil
		}
		return &llm.Response{StopReason: llm.StopEndTurn, Text: "(no reply scripted)"}, nil
	}
	next := s.replies[0]
	s.replies = s.replies[1:]
	return next, nil
}

func toolUse(calls ...llm.ToolCall) *llm.Response {
	return &llm.Response{StopReason: llm.StopToolUse, ToolCalls: calls}
}

func endTurn(text string) *llm.Response {
	return &llm.Response{StopReason: llm.StopEndTurn, Text: text}
}

// permissionSet grants exactly the listed permissions
type permissionSet map[identity.Permission]bool

func (p permissionSet) Can(perm identity.Permission) bool { return p[perm] }

type stubIntros struct {
	intros []appnetwork.WarmIntroResponse
}

func (s *stubIntros) ListWarmIntros(context.Context, uuid.UUID, uuid.UUID) ([]appnetwork.WarmIntroResponse, error) {
	return s.intros, nil
}

type fixture struct {
	svc       *AssistantService
	llm       *scriptedLLM
	audit     *appaudit.AuditService
	investors *persistence.GormInvestorRepository
	tasks     *persistence.GormTaskRepository
	acts      *persistence.GormActivityRepository
	tenantID  uuid.UUID
	userID    uuid.UUID
}

func newFixture(t *testing.T, cfg Config) *fixture {
	db := testutil.NewSQLiteDB(t)
	events := testutil.NewRecordingPublisher()
	investors := persistence.NewGormInvestorRepository(db)
	contacts := persistence.NewGormContactRepository(db)
	activities := persistence.NewGormActivityRepository(db)
	tasks := persistence.NewGormTaskRepository(db)
	memCache := cache.NewMemoryCache(time.Minute)
	t.Cleanup(func() { _ = memCache.Close() })

	activitySvc := appactivity.NewActivityService(activities, investors, contacts, events, zap.NewNop())
	investorSvc := appinvestor.NewInvestorService(
		investors, activitySvc, activities,
		persistence.NewGormMeetingRepository(db), tasks,
		memCache, time.Minute, events, nil, zap.NewNop(),
	)
	taskSvc := apptask.NewTaskService(tasks, investors, contacts, events, zap.NewNop())
	auditSvc := appaudit.NewAuditService(persistence.NewGormAuditRepository(db), zap.NewNop())
	stub := &scriptedLLM{enabled: true}

	return &fixture{
		svc: NewAssistantService(
			persistence.NewGormConversationRepository(db),
			investorSvc, taskSvc, activitySvc,
			&stubIntros{intros: []appnetwork.WarmIntroResponse{{ID: uuid.New(), Strength: 80, Path: "Alice -> Bob -> Jane"}}},
			auditSvc, stub, cfg, nil, zap.NewNop(),
		),
		llm:       stub,
		audit:     auditSvc,
		investors: investors,
		tasks:     tasks,
		acts:      activities,
		tenantID:  uuid.New(),
		userID:    uuid.New(),
	}
}

func (f *fixture) investor(t *testing.T, name, firm string) *investor.Investor {
	inv, err := investor.NewInvestor(f.tenantID, name, investor.InvestorTypeVC)
	require.NoError(t, err)
	inv.FirmName = firm
	require.NoError(t, f.investors.Save(context.Background(), inv))
	return inv
}

func (f *fixture) auditEntries(t *testing.T) []appaudit.EntryResponse {
	entries, _, err := f.audit.List(context.Background(), f.tenantID, appaudit.ListFilter{
		Action: string(audit.ActionAssistantAction), Page: 1, PageSize: 100,
	})
	require.NoError(t, err)
	return entries
}

func TestAssistantService_ChatRunsToolLoop(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()
	jane := f.investor(t, "Jane Park", "Sequoia")
	f.investor(t, "Tom Lee", "Accel")

	f.llm.replies = []*llm.Response{
		toolUse(llm.ToolCall{ID: "tu_1", Name: ToolSearchInvestors, Input: map[string]any{"query": "jane"}}),
		toolUse(
			llm.ToolCall{ID: "tu_2", Name: ToolMoveInvestorStage, Input: map[string]any{
				"investor_id": jane.ID.String(), "stage": "contacted", "reason": "Intro call booked",
			}},
			llm.ToolCall{ID: "tu_3", Name: ToolCreateTask, Input: map[string]any{
				"title": "Send deck to Jane", "investor_id": jane.ID.String(), "due_at": "2026-11-02", "priority": "high",
			}},
		),
		endTurn("Jane is now in Contacted and I added a task to send the deck."),
	}

	resp, err := f.svc.Chat(ctx, f.tenantID, f.userID, identity.RoleMember, ChatRequest{
		Message: "Move Jane Park to contacted and remind me to send her the deck",
	})
	require.NoError(t, err)
	assert.Equal(t, "Jane is now in Contacted and I added a task to send the deck.", resp.Reply)
	assert.Equal(t, 3, resp.Rounds)
	assert.False(t, resp.Truncated)
	require.Len(t, resp.Tools, 3)
	for _, exec := range resp.Tools {
		assert.False(t, exec.IsError, exec.Name)
	}

	stored, err := f.investors.FindByIDForTenant(ctx, f.tenantID, jane.ID)
	require.NoError(t, err)
	assert.Equal(t, investor.StageContacted, stored.Stage)

	open, err := f.tasks.FindAllForTenant(ctx, f.tenantID, shared.DefaultFilter())
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "Send deck to Jane", open[0].Title)
	require.NotNil(t, open[0].AssigneeID)
	assert.Equal(t, f.userID, *open[0].AssigneeID)

	// every executed tool is audited against the conversation
	entries := f.auditEntries(t)
	require.Len(t, entries, 3)
	for _, e := range entries {
		assert.Equal(t, auditEntityType, e.EntityType)
		assert.Equal(t, resp.ConversationID, e.EntityID)
		require.NotNil(t, e.ActorID)
		assert.Equal(t, f.userID, *e.ActorID)
	}

	// the second request replays the tool round as assistant tool_use + user tool_result
	require.Len(t, f.llm.requests, 3)
	second := f.llm.requests[1]
	require.Len(t, second.Messages, 3)
	assert.Equal(t, "user", second.Messages[0].Role)
	assert.Equal(t, "assistant", second.Messages[1].Role)
	assert.Equal(t, "tool_use", second.Messages[1].Content[0].Type)
	assert.Equal(t, "user", second.Messages[2].Role)
	assert.Equal(t, "tool_result", second.Messages[2].Content[0].Type)
	assert.Equal(t, "tu_1", second.Messages[2].Content[0].ToolUseID)
	assert.Contains(t, second.Messages[2].Content[0].Text, "Jane Park")
	assert.NotContains(t, second.Messages[2].Content[0].Text, "Tom Lee")
	assert.Len(t, second.Tools, len(toolOrder))
	assert.Contains(t, second.System, "investor CRM")

	// both results of the second round are merged into one user turn
	third := f.llm.requests[2]
	require.Len(t, third.Messages, 5)
	require.Len(t, third.Messages[4].Content, 2)
	assert.Equal(t, "tu_2", third.Messages[4].Content[0].ToolUseID)
	assert.Equal(t, "tu_3", third.Messages[4].Content[1].ToolUseID)
}

func TestAssistantService_ChatDeniesMutationWithoutPermission(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()
	jane := f.investor(t, "Jane Park", "Sequoia")

	f.llm.replies = []*llm.Response{
		toolUse(llm.ToolCall{ID: "tu_1", Name: ToolLogActivity, Input: map[string]any{
			"investor_id": jane.ID.String(), "type": "call", "subject": "Intro call",
		}}),
		endTurn("You don't have permission to log activities."),
	}
	readOnly := permissionSet{
		identity.PermAssistantUse:  true,
		identity.PermInvestorRead:  true,
		identity.PermActivityRead:  true,
		identity.PermTaskRead:      true,
		identity.PermNetworkRead:   true,
		identity.PermActivityWrite: false,
	}

	resp, err := f.svc.Chat(ctx, f.tenantID, f.userID, readOnly, ChatRequest{Message: "Log my call with Jane"})
	require.NoError(t, err)
	require.Len(t, resp.Tools, 1)
	assert.True(t, resp.Tools[0].Denied)
	assert.True(t, resp.Tools[0].IsError)

	logged, err := f.acts.FindRecentByInvestor(ctx, f.tenantID, jane.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, logged)
	assert.Empty(t, f.auditEntries(t), "denied tools are not executed and not audited")

	result := f.llm.requests[1].Messages[2].Content[0]
	assert.True(t, result.IsError)
	assert.Contains(t, result.Text, "activity:write")
}

func TestAssistantService_ChatLogsActivityAsAssistant(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()
	jane := f.investor(t, "Jane Park", "Sequoia")

	f.llm.replies = []*llm.Response{
		toolUse(llm.ToolCall{ID: "tu_1", Name: ToolLogActivity, Input: map[string]any{
			"investor_id": jane.ID.String(), "type": "call", "subject": "Intro call", "body": "Keen on fintech",
			"occurred_at": "2026-10-14T15:00:00Z",
		}}),
		endTurn("Logged."),
	}

	_, err := f.svc.Chat(ctx, f.tenantID, f.userID, identity.RoleAdmin, ChatRequest{Message: "Log my call with Jane yesterday"})
	require.NoError(t, err)

	logged, err := f.acts.FindRecentByInvestor(ctx, f.tenantID, jane.ID, 10)
	require.NoError(t, err)
	require.Len(t, logged, 1)
	assert.Equal(t, "Intro call", logged[0].Subject)
	assert.EqualValues(t, "assistant", logged[0].Source)
	assert.Equal(t, 2026, logged[0].OccurredAt.Year())
}

func TestAssistantService_ChatReturnsToolErrorsToModel(t *testing.T) {
	f := newFixture(t, Config{})

	f.llm.replies = []*llm.Response{
		toolUse(
			llm.ToolCall{ID: "tu_1", Name: ToolGetInvestor, Input: map[string]any{"investor_id": "not-a-uuid"}},
			llm.ToolCall{ID: "tu_2", Name: "drop_database", Input: map[string]any{}},
			llm.ToolCall{ID: "tu_3", Name: ToolGetInvestor, Input: map[string]any{"investor_id": uuid.NewString()}},
		),
		endTurn("I couldn't find that investor."),
	}

	resp, err := f.svc.Chat(context.Background(), f.tenantID, f.userID, identity.RoleMember, ChatRequest{Message: "Show me investor 42"})
	require.NoError(t, err)
	require.Len(t, resp.Tools, 3)
	for _, exec := range resp.Tools {
		assert.True(t, exec.IsError, exec.Name)
	}

	results := f.llm.requests[1].Messages[2].Content
	require.Len(t, results, 3)
	assert.Contains(t, results[0].Text, "INVALID_TOOL_INPUT")
	assert.Contains(t, results[1].Text, "unknown tool")
	assert.Contains(t, results[2].Text, "NOT_FOUND")

	// the unknown tool never ran, the two failed lookups did
	assert.Len(t, f.auditEntries(t), 2)
}

func TestAssistantService_ChatStopsAfterMaxRounds(t *testing.T) {
	f := newFixture(t, Config{MaxToolRounds: 2})
	f.llm.repeat = toolUse(llm.ToolCall{ID: "tu_loop", Name: ToolPipelineSummary, Input: map[string]any{}})

	resp, err := f.svc.Chat(context.Background(), f.tenantID, f.userID, identity.RoleMember, ChatRequest{Message: "Summarize forever"})
	require.NoError(t, err)
	assert.True(t, resp.Truncated)
	assert.Equal(t, 2, resp.Rounds)
	assert.Len(t, f.llm.requests, 2)
	assert.Contains(t, resp.Reply, "stopped after 2 rounds")

	conv, err := f.svc.GetConversation(context.Background(), f.tenantID, f.userID, resp.ConversationID)
	require.NoError(t, err)
	last := conv.Messages[len(conv.Messages)-1]
	assert.Equal(t, string(assistant.RoleAssistant), last.Role)
	assert.Equal(t, resp.Reply, last.Content)
}

func TestAssistantService_ContinueConversation(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()

	f.llm.replies = []*llm.Response{endTurn("Hi! How can I help?"), endTurn("You have no overdue tasks.")}
	first, err := f.svc.Chat(ctx, f.tenantID, f.userID, identity.RoleMember, ChatRequest{Message: "Hello there"})
	require.NoError(t, err)

	second, err := f.svc.Chat(ctx, f.tenantID, f.userID, identity.RoleMember, ChatRequest{
		ConversationID: &first.ConversationID,
		Message:        "Anything overdue?",
	})
	require.NoError(t, err)
	assert.Equal(t, first.ConversationID, second.ConversationID)
	assert.Len(t, f.llm.requests[1].Messages, 3, "history is replayed")

	conv, err := f.svc.GetConversation(ctx, f.tenantID, f.userID, first.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, "Hello there", conv.Title)
	assert.Len(t, conv.Messages, 4)

	list, total, err := f.svc.ListConversations(ctx, f.tenantID, f.userID, ListFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, list, 1)
	assert.Equal(t, first.ConversationID, list[0].ID)

	// another user cannot read or continue it
	stranger := uuid.New()
	_, err = f.svc.GetConversation(ctx, f.tenantID, stranger, first.ConversationID)
	assert.Equal(t, "NOT_FOUND", shared.GetErrorCode(err))
	_, err = f.svc.Chat(ctx, f.tenantID, stranger, identity.RoleMember, ChatRequest{
		ConversationID: &first.ConversationID, Message: "hi",
	})
	assert.Equal(t, "NOT_FOUND", shared.GetErrorCode(err))
}

func TestAssistantService_ChatGuards(t *testing.T) {
	t.Run("viewer cannot use the assistant", func(t *testing.T) {
		f := newFixture(t, Config{})
		_, err := f.svc.Chat(context.Background(), f.tenantID, f.userID, identity.RoleViewer, ChatRequest{Message: "hi"})
		assert.Equal(t, "FORBIDDEN", shared.GetErrorCode(err))
		assert.Empty(t, f.llm.requests)
	})

	t.Run("disabled llm", func(t *testing.T) {
		f := newFixture(t, Config{})
		f.llm.enabled = false
		_, err := f.svc.Chat(context.Background(), f.tenantID, f.userID, identity.RoleMember, ChatRequest{Message: "hi"})
		assert.Equal(t, "INTEGRATION_DISABLED", shared.GetErrorCode(err))
	})

	t.Run("empty message", func(t *testing.T) {
		f := newFixture(t, Config{})
		_, err := f.svc.Chat(context.Background(), f.tenantID, f.userID, identity.RoleMember, ChatRequest{Message: "   "})
		assert.Equal(t, "EMPTY_MESSAGE", shared.GetErrorCode(err))
	})

	t.Run("provider failure saves nothing", func(t *testing.T) {
		f := newFixture(t, Config{})
		f.llm.err = errors.New("overloaded")
		_, err := f.svc.Chat(context.Background(), f.tenantID, f.userID, identity.RoleMember, ChatRequest{Message: "hi"})
		assert.Equal(t, "INTEGRATION_ERROR", shared.GetErrorCode(err))

		_, total, err := f.svc.ListConversations(context.Background(), f.tenantID, f.userID, ListFilter{})
		require.NoError(t, err)
		assert.Zero(t, total)
	})
}

func TestAssistantService_FindWarmIntros(t *testing.T) {
	f := newFixture(t, Config{})
	jane := f.investor(t, "Jane Park", "Sequoia")

	f.llm.replies = []*llm.Response{
		toolUse(llm.ToolCall{ID: "tu_1", Name: ToolFindWarmIntros, Input: map[string]any{"investor_id": jane.ID.String()}}),
		endTurn("Bob can introduce you."),
	}
	_, err := f.svc.Chat(context.Background(), f.tenantID, f.userID, identity.RoleMember, ChatRequest{Message: "Who knows Jane?"})
	require.NoError(t, err)

	result := f.llm.requests[1].Messages[2].Content[0]
	assert.False(t, result.IsError)
	assert.Contains(t, result.Text, "Alice -> Bob -> Jane")
}
