package integration

import (
	"time"

	"github.com/investorcrm/backend/internal/domain/integration"
)

// ConnectionResponse describes the caller's Google link
type ConnectionResponse struct {
	Connected          bool       `json:"connected"`
	Email              string     `json:"email,omitempty"`
	Scopes             []string   `json:"scopes,omitempty"`
	GmailEnabled       bool       `json:"gmail_enabled"`
	CalendarEnabled    bool       `json:"calendar_enabled"`
	LastGmailSyncAt    *time.Time `json:"last_gmail_sync_at,omitempty"`
	LastCalendarSyncAt *time.Time `json:"last_calendar_sync_at,omitempty"`
	LastError          string     `json:"last_error,omitempty"`
}

// SyncResult counts what one sync produced
type SyncResult struct {
	EmailsLogged    int `json:"emails_logged"`
	MeetingsCreated int `json:"meetings_created"`
	MeetingsUpdated int `json:"meetings_updated"`
}

// Total returns the number of records written
func (r SyncResult) Total() int {
	return r.EmailsLogged + r.MeetingsCreated + r.MeetingsUpdated
}

// ToConnectionResponse converts a connection
func ToConnectionResponse(c *integration.GoogleConnection) ConnectionResponse {
	if c == nil {
		return ConnectionResponse{}
	}
	return ConnectionResponse{
		Connected:          true,
		Email:              c.Email,
		Scopes:             c.Scopes,
		GmailEnabled:       c.HasScope(integration.ScopeGmailReadonly),
		CalendarEnabled:    c.HasScope(integration.ScopeCalendar),
		LastGmailSyncAt:    c.LastGmailSyncAt,
		LastCalendarSyncAt: c.LastCalendarSyncAt,
		LastError:          c.LastError,
	}
}
