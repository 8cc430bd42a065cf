// Package llm is a client for the Anthropic Messages API.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/investorcrm/backend/internal/infrastructure/config"
	"github.com/investorcrm/backend/internal/infrastructure/integrations"
	"github.com/investorcrm/backend/internal/infrastructure/telemetry"
	"github.com/tidwall/gjson"
)

const apiVersion = "2023-06-01"

// Stop reasons
const (
	StopEndTurn   = "end_turn"
	StopToolUse   = "tool_use"
	StopMaxTokens = "max_tokens"
)

var (
	// ErrDisabled is returned when no API key is configured
	ErrDisabled = errors.New("llm is not configured")

	// ErrNoJSON is returned when a reply contains no JSON object
	ErrNoJSON = errors.New("llm reply contains no JSON object")
)

// Block is one content block of a message
type Block struct {
	Type      string
	Text      string
	ID        string
	Name      string
	Input     map[string]any
	ToolUseID string
	IsError   bool
}

// MarshalJSON emits only the fields valid for the block type
func (b Block) MarshalJSON() ([]byte, error) {
	switch b.Type {
	case "tool_use":
		input := b.Input
		if input == nil {
			input = map[string]any{}
		}
		return json.Marshal(map[string]any{"type": b.Type, "id": b.ID, "name": b.Name, "input": input})
	case "tool_result":
		m := map[string]any{"type": b.Type, "tool_use_id": b.ToolUseID, "content": b.Text}
		if b.IsError {
			m["is_error"] = true
		}
		return json.Marshal(m)
	default:
		return json.Marshal(map[string]any{"type": "text", "text": b.Text})
	}
}

// Text builds a text block
func Text(s string) Block {
	return Block{Type: "text", Text: s}
}

// ToolUse builds a tool_use block replayed from history
func ToolUse(id, name string, input map[string]any) Block {
	return Block{Type: "tool_use", ID: id, Name: name, Input: input}
}

// ToolResult builds a tool_result block
func ToolResult(toolUseID, content string, isError bool) Block {
	return Block{Type: "tool_result", ToolUseID: toolUseID, Text: content, IsError: isError}
}

// Message is one conversation turn
type Message struct {
	Role    string  `json:"role"`
	Content []Block `json:"content"`
}

// Tool describes a function the model may call
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

// Request is a Messages API call
type Request struct {
	System      string
	Messages    []Message
	Tools       []Tool
	MaxTokens   int
	Temperature *float64
}

// ToolCall is a tool invocation requested by the model
type ToolCall struct {
	ID    string
	Name  string
	Input map[string]any
}

// Response is the parsed model reply
type Response struct {
	ID           string
	Model        string
	StopReason   string
	Text         string
	ToolCalls    []ToolCall
	InputTokens  int64
	OutputTokens int64
}

// Client calls the Messages endpoint
type Client struct {
	cfg     config.LLMConfig
	api     *integrations.Client
	metrics *telemetry.Metrics
}

// NewClient creates an LLM client
func NewClient(cfg config.LLMConfig, metrics *telemetry.Metrics) *Client {
	return &Client{
		cfg:     cfg,
		api:     integrations.NewClient("anthropic", cfg.Timeout),
		metrics: metrics,
	}
}

// Enabled reports whether calls can be made
func (c *Client) Enabled() bool {
	return c.cfg.Enabled && c.cfg.APIKey != ""
}

// Model returns the configured model name
func (c *Client) Model() string {
	return c.cfg.Model
}

// Complete sends req. purpose labels the call in metrics ("assistant", "transcript_analysis").
func (c *Client) Complete(ctx context.Context, purpose string, req Request) (*Response, error) {
	if !c.Enabled() {
		return nil, ErrDisabled
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.cfg.MaxTokens
	}

	body := map[string]any{
		"model":      c.cfg.Model,
		"max_tokens": maxTokens,
		"messages":   req.Messages,
	}
	if req.System != "" {
		body["system"] = req.System
	}
	if len(req.Tools) > 0 {
		body["tools"] = req.Tools
	}
	if req.Temperature != nil {
		body["temperature"] = *req.Temperature
	}

	header := http.Header{
		"X-Api-Key":         []string{c.cfg.APIKey},
		"Anthropic-Version": []string{apiVersion},
	}

	start := time.Now()
	res, err := c.api.JSON(ctx, "messages."+purpose, http.MethodPost, c.cfg.APIURL, header, body)
	c.metrics.LLMCall(purpose, err, time.Since(start))
	if err != nil {
		return nil, err
	}
	return parseResponse(res), nil
}

func parseResponse(res gjson.Result) *Response {
	out := &Response{
		ID:           res.Get("id").String(),
		Model:        res.Get("model").String(),
		StopReason:   res.Get("stop_reason").String(),
		InputTokens:  res.Get("usage.input_tokens").Int(),
		OutputTokens: res.Get("usage.output_tokens").Int(),
	}
	var text []string
	res.Get("content").ForEach(func(_, block gjson.Result) bool {
		switch block.Get("type").String() {
		case "text":
			text = append(text, block.Get("text").String())
		case "tool_use":
			input := map[string]any{}
			if m, ok := block.Get("input").Value().(map[string]any); ok {
				input = m
			}
			out.ToolCalls = append(out.ToolCalls, ToolCall{
				ID:    block.Get("id").String(),
				Name:  block.Get("name").String(),
				Input: input,
			})
		}
		return true
	})
	out.Text = strings.TrimSpace(strings.Join(text, "\n"))
	return out
}

// ExtractJSONObject returns the outermost JSON object in text, tolerating code fences and prose around it
func ExtractJSONObject(text string) (string, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", ErrNoJSON
	}
	candidate := text[start : end+1]
	if !gjson.Valid(candidate) {
		return "", fmt.Errorf("%w: malformed object", ErrNoJSON)
	}
	return candidate, nil
}
