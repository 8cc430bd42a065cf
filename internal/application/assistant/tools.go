package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	activityapp "github.com/investorcrm/backend/internal/application/activity"
	investorapp "github.com/investorcrm/backend/internal/application/investor"
	taskapp "github.com/investorcrm/backend/internal/application/task"
	"github.com/investorcrm/backend/internal/domain/activity"
	"github.com/investorcrm/backend/internal/domain/identity"
	"github.com/investorcrm/backend/internal/domain/investor"
	"github.com/investorcrm/backend/internal/domain/shared"
	"github.com/investorcrm/backend/internal/infrastructure/integrations/llm"
	"github.com/shopspring/decimal"
)

// Tool names exposed to the model
const (
	ToolSearchInvestors   = "search_investors"
	ToolGetInvestor       = "get_investor"
	ToolPipelineSummary   = "pipeline_summary"
	ToolMoveInvestorStage = "move_investor_stage"
	ToolCreateTask        = "create_task"
	ToolLogActivity       = "log_activity"
	ToolListOverdueTasks  = "list_overdue_tasks"
	ToolFindWarmIntros    = "find_warm_intros"
)

const (
	maxToolResultBytes = 12000
	searchResultLimit  = 10
)

// caller is the identity a tool runs under
type caller struct {
	tenantID uuid.UUID
	userID   uuid.UUID
}

type toolFunc func(ctx context.Context, c caller, input map[string]any) (any, error)

type tool struct {
	def        llm.Tool
	permission identity.Permission
	mutates    bool
	run        toolFunc
}

func (s *AssistantService) registerTools() map[string]tool {
	return map[string]tool{
		ToolSearchInvestors: {
			def: llm.Tool{
				Name:        ToolSearchInvestors,
				Description: "Search the investor pipeline by name, firm or location. Optionally filter by stage or priority.",
				InputSchema: object(map[string]any{
					"query":    prop("string", "Free-text search over name, firm and location"),
					"stage":    enumProp("Pipeline stage", stageNames()...),
					"priority": enumProp("Investor priority", "low", "medium", "high"),
				}),
			},
			permission: identity.PermInvestorRead,
			run:        s.searchInvestors,
		},
		ToolGetInvestor: {
			def: llm.Tool{
				Name:        ToolGetInvestor,
				Description: "Get the full profile of one investor by id.",
				InputSchema: object(map[string]any{
					"investor_id": prop("string", "Investor UUID"),
				}, "investor_id"),
			},
			permission: identity.PermInvestorRead,
			run:        s.getInvestor,
		},
		ToolPipelineSummary: {
			def: llm.Tool{
				Name:        ToolPipelineSummary,
				Description: "Summarize the fundraising pipeline: investor counts, check sizes and commitments per stage.",
				InputSchema: object(map[string]any{}),
			},
			permission: identity.PermInvestorRead,
			run:        s.pipelineSummary,
		},
		ToolMoveInvestorStage: {
			def: llm.Tool{
				Name:        ToolMoveInvestorStage,
				Description: "Move an investor to another pipeline stage. A reason is required when moving to passed.",
				InputSchema: object(map[string]any{
					"investor_id":       prop("string", "Investor UUID"),
					"stage":             enumProp("Target stage", stageNames()...),
					"reason":            prop("string", "Why the investor moved"),
					"commitment_amount": prop("number", "Committed amount when moving to committed"),
				}, "investor_id", "stage"),
			},
			permission: identity.PermInvestorWrite,
			mutates:    true,
			run:        s.moveInvestorStage,
		},
		ToolCreateTask: {
			def: llm.Tool{
				Name:        ToolCreateTask,
				Description: "Create a follow-up task, optionally linked to an investor. The task is assigned to the current user.",
				InputSchema: object(map[string]any{
					"title":       prop("string", "Short task title"),
					"description": prop("string", "Details"),
					"investor_id": prop("string", "Investor UUID the task is about"),
					"due_at":      prop("string", "Due date, RFC 3339 or YYYY-MM-DD"),
					"priority":    enumProp("Task priority", "low", "medium", "high"),
				}, "title"),
			},
			permission: identity.PermTaskWrite,
			mutates:    true,
			run:        s.createTask,
		},
		ToolLogActivity: {
			def: llm.Tool{
				Name:        ToolLogActivity,
				Description: "Log an interaction with an investor on their timeline.",
				InputSchema: object(map[string]any{
					"investor_id": prop("string", "Investor UUID"),
					"type":        enumProp("Interaction type", "note", "email", "call", "meeting", "intro", "message"),
					"subject":     prop("string", "One-line subject"),
					"body":        prop("string", "Notes"),
					"occurred_at": prop("string", "When it happened, RFC 3339 or YYYY-MM-DD. Defaults to now"),
				}, "investor_id", "type", "subject"),
			},
			permission: identity.PermActivityWrite,
			mutates:    true,
			run:        s.logActivity,
		},
		ToolListOverdueTasks: {
			def: llm.Tool{
				Name:        ToolListOverdueTasks,
				Description: "List open tasks that are past their due date.",
				InputSchema: object(map[string]any{}),
			},
			permission: identity.PermTaskRead,
			run:        s.listOverdueTasks,
		},
		ToolFindWarmIntros: {
			def: llm.Tool{
				Name:        ToolFindWarmIntros,
				Description: "Find warm introduction paths from the team's LinkedIn network to an investor, strongest first.",
				InputSchema: object(map[string]any{
					"investor_id": prop("string", "Investor UUID"),
				}, "investor_id"),
			},
			permission: identity.PermNetworkRead,
			run:        s.findWarmIntros,
		},
	}
}

func object(props map[string]any, required ...string) map[string]any {
	schema := map[string]any{"type": "object", "properties": props}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func prop(typ, description string) map[string]any {
	return map[string]any{"type": typ, "description": description}
}

func enumProp(description string, values ...string) map[string]any {
	return map[string]any{"type": "string", "description": description, "enum": values}
}

func stageNames() []string {
	stages := investor.AllStages()
	out := make([]string, len(stages))
	for i, st := range stages {
		out[i] = string(st)
	}
	return out
}

type searchInvestorsArgs struct {
	Query    string `json:"query"`
	Stage    string `json:"stage"`
	Priority string `json:"priority"`
}

type investorSummary struct {
	ID       uuid.UUID  `json:"id"`
	Name     string     `json:"name"`
	Firm     string     `json:"firm,omitempty"`
	Stage    string     `json:"stage"`
	Priority string     `json:"priority"`
	LastSeen *time.Time `json:"last_contacted_at,omitempty"`
}

func (s *AssistantService) searchInvestors(ctx context.Context, c caller, input map[string]any) (any, error) {
	var args searchInvestorsArgs
	if err := decodeArgs(input, &args); err != nil {
		return nil, err
	}
	items, total, err := s.investors.List(ctx, c.tenantID, investorapp.ListFilter{
		Search:   strings.TrimSpace(args.Query),
		Stage:    args.Stage,
		Priority: args.Priority,
		Page:     1,
		PageSize: searchResultLimit,
	})
	if err != nil {
		return nil, err
	}
	out := make([]investorSummary, len(items))
	for i, inv := range items {
		out[i] = investorSummary{
			ID:       inv.ID,
			Name:     inv.Name,
			Firm:     inv.FirmName,
			Stage:    inv.Stage,
			Priority: inv.Priority,
			LastSeen: inv.LastContactedAt,
		}
	}
	return map[string]any{"total": total, "investors": out}, nil
}

type investorIDArgs struct {
	InvestorID string `json:"investor_id"`
}

func (s *AssistantService) getInvestor(ctx context.Context, c caller, input map[string]any) (any, error) {
	var args investorIDArgs
	if err := decodeArgs(input, &args); err != nil {
		return nil, err
	}
	id, err := parseID(args.InvestorID, "investor_id")
	if err != nil {
		return nil, err
	}
	return s.investors.GetByID(ctx, c.tenantID, id)
}

func (s *AssistantService) pipelineSummary(ctx context.Context, c caller, _ map[string]any) (any, error) {
	return s.investors.PipelineSummary(ctx, c.tenantID)
}

type moveStageArgs struct {
	InvestorID string           `json:"investor_id"`
	Stage      string           `json:"stage"`
	Reason     string           `json:"reason"`
	Commitment *decimal.Decimal `json:"commitment_amount"`
}

func (s *AssistantService) moveInvestorStage(ctx context.Context, c caller, input map[string]any) (any, error) {
	var args moveStageArgs
	if err := decodeArgs(input, &args); err != nil {
		return nil, err
	}
	id, err := parseID(args.InvestorID, "investor_id")
	if err != nil {
		return nil, err
	}
	current, err := s.investors.GetByID(ctx, c.tenantID, id)
	if err != nil {
		return nil, err
	}
	return s.investors.MoveStage(ctx, c.tenantID, c.userID, id, investorapp.MoveStageRequest{
		Version:    current.Version,
		Stage:      args.Stage,
		Reason:     args.Reason,
		Commitment: args.Commitment,
	})
}

type createTaskArgs struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	InvestorID  string `json:"investor_id"`
	DueAt       string `json:"due_at"`
	Priority    string `json:"priority"`
}

func (s *AssistantService) createTask(ctx context.Context, c caller, input map[string]any) (any, error) {
	var args createTaskArgs
	if err := decodeArgs(input, &args); err != nil {
		return nil, err
	}
	req := taskapp.CreateTaskRequest{
		Title:       strings.TrimSpace(args.Title),
		Description: args.Description,
		Priority:    args.Priority,
		AssigneeID:  &c.userID,
	}
	if args.InvestorID != "" {
		id, err := parseID(args.InvestorID, "investor_id")
		if err != nil {
			return nil, err
		}
		req.InvestorID = &id
	}
	if args.DueAt != "" {
		due, err := parseTime(args.DueAt, "due_at")
		if err != nil {
			return nil, err
		}
		req.DueAt = &due
	}
	return s.tasks.Create(ctx, c.tenantID, c.userID, req)
}

type logActivityArgs struct {
	InvestorID string `json:"investor_id"`
	Type       string `json:"type"`
	Subject    string `json:"subject"`
	Body       string `json:"body"`
	OccurredAt string `json:"occurred_at"`
}

func (s *AssistantService) logActivity(ctx context.Context, c caller, input map[string]any) (any, error) {
	var args logActivityArgs
	if err := decodeArgs(input, &args); err != nil {
		return nil, err
	}
	id, err := parseID(args.InvestorID, "investor_id")
	if err != nil {
		return nil, err
	}
	req := activityapp.LogActivityRequest{
		InvestorID: id,
		Type:       args.Type,
		Subject:    strings.TrimSpace(args.Subject),
		Body:       args.Body,
		Source:     activity.SourceAssistant,
	}
	if args.OccurredAt != "" {
		at, err := parseTime(args.OccurredAt, "occurred_at")
		if err != nil {
			return nil, err
		}
		req.OccurredAt = &at
	}
	return s.activities.Log(ctx, c.tenantID, c.userID, req)
}

func (s *AssistantService) listOverdueTasks(ctx context.Context, c caller, _ map[string]any) (any, error) {
	items, err := s.tasks.ListOverdue(ctx, c.tenantID)
	if err != nil {
		return nil, err
	}
	return map[string]any{"count": len(items), "tasks": items}, nil
}

func (s *AssistantService) findWarmIntros(ctx context.Context, c caller, input map[string]any) (any, error) {
	var args investorIDArgs
	if err := decodeArgs(input, &args); err != nil {
		return nil, err
	}
	id, err := parseID(args.InvestorID, "investor_id")
	if err != nil {
		return nil, err
	}
	if _, err := s.investors.GetByID(ctx, c.tenantID, id); err != nil {
		return nil, err
	}
	intros, err := s.network.ListWarmIntros(ctx, c.tenantID, id)
	if err != nil {
		return nil, err
	}
	return map[string]any{"count": len(intros), "intros": intros}, nil
}

// decodeArgs maps the model's loosely typed input onto a typed argument struct
func decodeArgs(input map[string]any, dst any) error {
	raw, err := json.Marshal(input)
	if err != nil {
		return shared.NewDomainError("INVALID_TOOL_INPUT", "Tool input is not valid JSON")
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return shared.NewDomainError("INVALID_TOOL_INPUT", "Tool input does not match the schema: "+err.Error())
	}
	return nil
}

func parseID(value, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil {
		return uuid.Nil, shared.NewDomainError("INVALID_TOOL_INPUT", field+" must be a UUID")
	}
	return id, nil
}

func parseTime(value, field string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.DateOnly, value); err == nil {
		return t, nil
	}
	return time.Time{}, shared.NewDomainError("INVALID_TOOL_INPUT", field+" must be RFC 3339 or YYYY-MM-DD")
}

// encodeResult renders a tool result for the model, cut to a size the context can afford
func encodeResult(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf(`{"error":%q}`, err.Error())
	}
	if len(raw) > maxToolResultBytes {
		return string(raw[:maxToolResultBytes]) + "...(truncated)"
	}
	return string(raw)
}
