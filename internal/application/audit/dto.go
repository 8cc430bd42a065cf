package audit

import (
	"time"

	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/domain/audit"
)

// ListFilter is the query for the audit log
type ListFilter struct {
	EntityType string     `form:"entity_type" binding:"omitempty,max=50"`
	EntityID   *uuid.UUID `form:"-"`
	ActorID    *uuid.UUID `form:"-"`
	Action     string     `form:"action" binding:"omitempty,oneof=create update delete restore stage_change login logout import export assistant_action"`
	From       *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To         *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
	Page       int        `form:"page" binding:"omitempty,min=1"`
	PageSize   int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy    string     `form:"order_by" binding:"omitempty,oneof=created_at action"`
	OrderDir   string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// EntryResponse is the API view of an audit entry
type EntryResponse struct {
	ID         uuid.UUID      `json:"id"`
	ActorID    *uuid.UUID     `json:"actor_id,omitempty"`
	Action     string         `json:"action"`
	EntityType string         `json:"entity_type"`
	EntityID   uuid.UUID      `json:"entity_id"`
	Changes    map[string]any `json:"changes"`
	IP         string         `json:"ip,omitempty"`
	UserAgent  string         `json:"user_agent,omitempty"`
	RequestID  string         `json:"request_id,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// ToEntryResponses converts audit entries
func ToEntryResponses(entries []audit.Entry) []EntryResponse {
	out := make([]EntryResponse, len(entries))
	for i, e := range entries {
		out[i] = EntryResponse{
			ID:         e.ID,
			ActorID:    e.ActorID,
			Action:     string(e.Action),
			EntityType: e.EntityType,
			EntityID:   e.EntityID,
			Changes:    e.Changes,
			IP:         e.IP,
			UserAgent:  e.UserAgent,
			RequestID:  e.RequestID,
			CreatedAt:  e.CreatedAt,
		}
	}
	return out
}
