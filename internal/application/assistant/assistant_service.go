package assistant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	activityapp "github.com/investorcrm/backend/internal/application/activity"
	investorapp "github.com/investorcrm/backend/internal/application/investor"
	networkapp "github.com/investorcrm/backend/internal/application/network"
	taskapp "github.com/investorcrm/backend/internal/application/task"
	"github.com/investorcrm/backend/internal/domain/assistant"
	"github.com/investorcrm/backend/internal/domain/audit"
	"github.com/investorcrm/backend/internal/domain/identity"
	"github.com/investorcrm/backend/internal/domain/shared"
	"github.com/investorcrm/backend/internal/infrastructure/integrations/llm"
	"github.com/investorcrm/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

const (
	defaultMaxToolRounds = 5
	llmPurpose           = "assistant"
	auditEntityType      = "assistant_conversation"
)

const systemPrompt = `You are the fundraising assistant inside an investor CRM.
Answer questions about the user's investor pipeline, tasks and network using the tools provided.
Always look investors up with search_investors before acting on them; never invent ids.
Confirm what you changed after using a tool that modifies data. Be concise.
Today is %s (UTC).`

// Completer is the LLM capability the assistant talks to
type Completer interface {
	Enabled() bool
	Model() string
	Complete(ctx context.Context, purpose string, req llm.Request) (*llm.Response, error)
}

// Authorizer answers permission checks for the caller. identity.Role satisfies it.
type Authorizer interface {
	Can(p identity.Permission) bool
}

// InvestorOperations is the part of the investor service the tools use
type InvestorOperations interface {
	List(ctx context.Context, tenantID uuid.UUID, filter investorapp.ListFilter) ([]investorapp.InvestorResponse, int64, error)
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*investorapp.InvestorResponse, error)
	MoveStage(ctx context.Context, tenantID, userID, id uuid.UUID, req investorapp.MoveStageRequest) (*investorapp.InvestorResponse, error)
	PipelineSummary(ctx context.Context, tenantID uuid.UUID) (*investorapp.PipelineSummaryResponse, error)
}

// TaskOperations is the part of the task service the tools use
type TaskOperations interface {
	Create(ctx context.Context, tenantID, userID uuid.UUID, req taskapp.CreateTaskRequest) (*taskapp.TaskResponse, error)
	ListOverdue(ctx context.Context, tenantID uuid.UUID) ([]taskapp.TaskResponse, error)
}

// ActivityOperations is the part of the activity service the tools use
type ActivityOperations interface {
	Log(ctx context.Context, tenantID, userID uuid.UUID, req activityapp.LogActivityRequest) (*activityapp.ActivityResponse, error)
}

// IntroFinder lists warm-intro paths to an investor
type IntroFinder interface {
	ListWarmIntros(ctx context.Context, tenantID, investorID uuid.UUID) ([]networkapp.WarmIntroResponse, error)
}

// AuditRecorder writes audit entries
type AuditRecorder interface {
	Record(ctx context.Context, tenantID uuid.UUID, actorID *uuid.UUID, action audit.Action, entityType string, entityID uuid.UUID, changes map[string]any) error
}

// Config tunes the tool loop
type Config struct {
	MaxToolRounds int
	MaxTokens     int
}

// AssistantService runs the chat assistant and its tool loop
type AssistantService struct {
	conversations assistant.ConversationRepository
	investors     InvestorOperations
	tasks         TaskOperations
	activities    ActivityOperations
	network       IntroFinder
	audit         AuditRecorder
	llm           Completer
	tools         map[string]tool
	toolDefs      []llm.Tool
	cfg           Config
	metrics       *telemetry.Metrics
	logger        *zap.Logger
	now           func() time.Time
}

// NewAssistantService creates a new AssistantService
func NewAssistantService(
	conversations assistant.ConversationRepository,
	investors InvestorOperations,
	tasks TaskOperations,
	activities ActivityOperations,
	network IntroFinder,
	auditRecorder AuditRecorder,
	completer Completer,
	cfg Config,
	metrics *telemetry.Metrics,
	logger *zap.Logger,
) *AssistantService {
	if cfg.MaxToolRounds <= 0 {
		cfg.MaxToolRounds = defaultMaxToolRounds
	}
	s := &AssistantService{
		conversations: conversations,
		investors:     investors,
		tasks:         tasks,
		activities:    activities,
		network:       network,
		audit:         auditRecorder,
		llm:           completer,
		cfg:           cfg,
		metrics:       metrics,
		logger:        logger,
		now:           time.Now,
	}
	s.tools = s.registerTools()
	s.toolDefs = make([]llm.Tool, 0, len(s.tools))
	for _, name := range toolOrder {
		s.toolDefs = append(s.toolDefs, s.tools[name].def)
	}
	return s
}

// toolOrder keeps the schema sent to the model stable between requests
var toolOrder = []string{
	ToolSearchInvestors,
	ToolGetInvestor,
	ToolPipelineSummary,
	ToolMoveInvestorStage,
	ToolCreateTask,
	ToolLogActivity,
	ToolListOverdueTasks,
	ToolFindWarmIntros,
}

// Chat appends the user's message to a conversation (a new one when no id is given), lets the model
// call tools for up to MaxToolRounds rounds and returns its final reply.
func (s *AssistantService) Chat(ctx context.Context, tenantID, userID uuid.UUID, perms Authorizer, req ChatRequest) (resp *ChatResponse, err error) {
	ctx, span := telemetry.StartSpan(ctx, "AssistantService", "Chat",
		telemetry.AttrTenantID, tenantID.String(),
		telemetry.AttrUserID, userID.String(),
	)
	defer telemetry.End(span, &err)

	if !perms.Can(identity.PermAssistantUse) {
		return nil, shared.ErrForbidden
	}
	if s.llm == nil || !s.llm.Enabled() {
		return nil, shared.ErrIntegrationDisabled
	}

	conv, err := s.loadOrStart(ctx, tenantID, userID, req)
	if err != nil {
		return nil, err
	}
	if err := conv.AddUserMessage(req.Message); err != nil {
		return nil, err
	}

	who := caller{tenantID: tenantID, userID: userID}
	resp = &ChatResponse{ConversationID: conv.ID, Tools: []ToolExecution{}}
	for {
		reply, err := s.llm.Complete(ctx, llmPurpose, s.buildRequest(conv))
		if err != nil {
			if errors.Is(err, llm.ErrDisabled) {
				return nil, shared.ErrIntegrationDisabled
			}
			return nil, shared.WrapDomainError("INTEGRATION_ERROR", "The assistant is unavailable", err)
		}
		resp.Rounds++

		calls := toDomainCalls(reply.ToolCalls)
		conv.AddAssistantMessage(reply.Text, calls)
		resp.Reply = reply.Text
		if reply.StopReason != llm.StopToolUse || len(calls) == 0 {
			break
		}

		for _, call := range calls {
			resp.Tools = append(resp.Tools, s.execute(ctx, who, perms, conv, call))
		}

		if resp.Rounds >= s.cfg.MaxToolRounds {
			resp.Truncated = true
			resp.Reply = fmt.Sprintf("I stopped after %d rounds of tool calls. Ask me to continue if you need more.", resp.Rounds)
			conv.AddAssistantMessage(resp.Reply, nil)
			break
		}
	}

	if err := s.conversations.Save(ctx, conv); err != nil {
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.AttrCount, len(resp.Tools))
	return resp, nil
}

func (s *AssistantService) loadOrStart(ctx context.Context, tenantID, userID uuid.UUID, req ChatRequest) (*assistant.Conversation, error) {
	if req.ConversationID == nil {
		return assistant.NewConversation(tenantID, userID, req.Message), nil
	}
	conv, err := s.conversations.FindByIDForUser(ctx, tenantID, userID, *req.ConversationID)
	if err != nil {
		return nil, err
	}
	if !conv.OwnedBy(userID) {
		return nil, shared.ErrNotFound
	}
	conv.SetActor(userID)
	return conv, nil
}

// execute runs one tool call and appends its result to the conversation. Tool failures are returned
// to the model as error results so it can recover; they never abort the turn.
func (s *AssistantService) execute(ctx context.Context, who caller, perms Authorizer, conv *assistant.Conversation, call assistant.ToolCall) ToolExecution {
	ctx, span := telemetry.StartSpan(ctx, "AssistantService", "execute", telemetry.AttrTool, call.Name)
	defer span.End()

	t, ok := s.tools[call.Name]
	if !ok {
		conv.AddToolResult(call, encodeResult(map[string]string{"error": "unknown tool " + call.Name}), true)
		s.metrics.AssistantTool(call.Name, "error")
		return ToolExecution{Name: call.Name, IsError: true}
	}
	if !perms.Can(t.permission) {
		conv.AddToolResult(call, encodeResult(map[string]string{
			"error": "permission denied: the user lacks " + string(t.permission),
		}), true)
		s.metrics.AssistantTool(call.Name, "denied")
		return ToolExecution{Name: call.Name, IsError: true, Denied: true}
	}

	result, err := t.run(ctx, who, call.Input)
	exec := ToolExecution{Name: call.Name, IsError: err != nil}
	if err != nil {
		conv.AddToolResult(call, encodeResult(map[string]string{
			"error": toolErrorMessage(err),
			"code":  shared.GetErrorCode(err),
		}), true)
		s.metrics.AssistantTool(call.Name, "error")
		s.logger.Debug("Assistant tool failed",
			zap.String("tool", call.Name),
			zap.String("conversation_id", conv.ID.String()),
			zap.Error(err))
	} else {
		conv.AddToolResult(call, encodeResult(result), false)
		s.metrics.AssistantTool(call.Name, "ok")
	}

	s.recordAudit(ctx, who, conv, call, t, err)
	return exec
}

func (s *AssistantService) recordAudit(ctx context.Context, who caller, conv *assistant.Conversation, call assistant.ToolCall, t tool, toolErr error) {
	if s.audit == nil {
		return
	}
	changes := map[string]any{
		"tool":    call.Name,
		"input":   call.Input,
		"mutates": t.mutates,
		"success": toolErr == nil,
	}
	if toolErr != nil {
		changes["error_code"] = shared.GetErrorCode(toolErr)
	}
	actor := who.userID
	if err := s.audit.Record(ctx, who.tenantID, &actor, audit.ActionAssistantAction, auditEntityType, conv.ID, changes); err != nil {
		s.logger.Warn("Failed to audit assistant tool call",
			zap.String("tool", call.Name),
			zap.String("conversation_id", conv.ID.String()),
			zap.Error(err))
	}
}

func toolErrorMessage(err error) string {
	var de *shared.DomainError
	if errors.As(err, &de) {
		return de.Message
	}
	return "internal error"
}

// buildRequest replays the conversation as Messages API turns. Tool results travel in user turns and
// consecutive turns of the same role are merged.
func (s *AssistantService) buildRequest(conv *assistant.Conversation) llm.Request {
	var msgs []llm.Message
	push := func(role string, blocks ...llm.Block) {
		if len(blocks) == 0 {
			return
		}
		if n := len(msgs); n > 0 && msgs[n-1].Role == role {
			msgs[n-1].Content = append(msgs[n-1].Content, blocks...)
			return
		}
		msgs = append(msgs, llm.Message{Role: role, Content: blocks})
	}

	for _, m := range conv.History() {
		switch m.Role {
		case assistant.RoleUser:
			push("user", llm.Text(m.Content))
		case assistant.RoleAssistant:
			var blocks []llm.Block
			if m.Content != "" {
				blocks = append(blocks, llm.Text(m.Content))
			}
			for _, c := range m.ToolCalls {
				blocks = append(blocks, llm.ToolUse(c.ID, c.Name, c.Input))
			}
			push("assistant", blocks...)
		case assistant.RoleTool:
			push("user", llm.ToolResult(m.ToolCallID, m.Content, m.IsError))
		}
	}

	return llm.Request{
		System:    fmt.Sprintf(systemPrompt, s.now().UTC().Format("Monday, 2 January 2006")),
		Messages:  msgs,
		Tools:     s.toolDefs,
		MaxTokens: s.cfg.MaxTokens,
	}
}

func toDomainCalls(calls []llm.ToolCall) []assistant.ToolCall {
	if len(calls) == 0 {
		return nil
	}
	out := make([]assistant.ToolCall, len(calls))
	for i, c := range calls {
		out[i] = assistant.ToolCall{ID: c.ID, Name: c.Name, Input: c.Input}
	}
	return out
}

// ListConversations pages the caller's conversations, most recent first
func (s *AssistantService) ListConversations(ctx context.Context, tenantID, userID uuid.UUID, filter ListFilter) ([]ConversationSummary, int64, error) {
	f := shared.DefaultFilter()
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}
	f.OrderBy = "updated_at"
	f.OrderDir = "desc"

	items, total, err := s.conversations.FindAllForUser(ctx, tenantID, userID, f)
	if err != nil {
		return nil, 0, err
	}
	out := make([]ConversationSummary, len(items))
	for i := range items {
		out[i] = ToConversationSummary(&items[i])
	}
	return out, total, nil
}

// GetConversation returns one of the caller's conversations with its messages
func (s *AssistantService) GetConversation(ctx context.Context, tenantID, userID, id uuid.UUID) (*ConversationResponse, error) {
	conv, err := s.conversations.FindByIDForUser(ctx, tenantID, userID, id)
	if err != nil {
		return nil, err
	}
	resp := ToConversationResponse(conv)
	return &resp, nil
}
