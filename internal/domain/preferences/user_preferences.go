package preferences

import (
	"time"

	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/domain/shared"
)

// PipelineView is how the pipeline page renders
type PipelineView string

const (
	PipelineViewBoard PipelineView = "board"
	PipelineViewTable PipelineView = "table"
)

// DigestFrequency controls summary emails
type DigestFrequency string

const (
	DigestOff    DigestFrequency = "off"
	DigestDaily  DigestFrequency = "daily"
	DigestWeekly DigestFrequency = "weekly"
)

// Theme is the UI color scheme
type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

// DefaultPipelineColumns are the table columns shown to new users
var DefaultPipelineColumns = []string{"name", "firm_name", "stage", "priority", "check_size_max", "owner", "last_contacted_at"}

var knownDateFormats = map[string]struct{}{
	"2006-01-02": {}, "01/02/2006": {}, "02/01/2006": {}, "Jan 2, 2006": {}, "2 Jan 2006": {},
}

// UserPreferences holds per-user UI and notification settings
type UserPreferences struct {
	shared.TenantAggregateRoot
	UserID              uuid.UUID
	Timezone            string
	DateFormat          string
	DefaultPipelineView PipelineView
	PipelineColumns     []string
	EmailNotifications  bool
	DigestFrequency     DigestFrequency
	Theme               Theme
	AssistantEnabled    bool
}

// Settings is the editable part of UserPreferences
type Settings struct {
	Timezone            string
	DateFormat          string
	DefaultPipelineView PipelineView
	PipelineColumns     []string
	EmailNotifications  bool
	DigestFrequency     DigestFrequency
	Theme               Theme
	AssistantEnabled    bool
}

// DefaultPreferences returns the preferences used when a user has saved none.
// The result is not persisted until the first update.
func DefaultPreferences(tenantID, userID uuid.UUID) *UserPreferences {
	p := &UserPreferences{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		UserID:              userID,
		Timezone:            "UTC",
		DateFormat:          "2006-01-02",
		DefaultPipelineView: PipelineViewBoard,
		PipelineColumns:     append([]string(nil), DefaultPipelineColumns...),
		EmailNotifications:  true,
		DigestFrequency:     DigestWeekly,
		Theme:               ThemeSystem,
		AssistantEnabled:    true,
	}
	// Version 0 marks an unsaved default row
	p.Version = 0
	return p
}

// IsPersisted reports whether the row exists in storage
func (p *UserPreferences) IsPersisted() bool {
	return p.Version > 0
}

// Apply validates and stores new settings
func (p *UserPreferences) Apply(s Settings) error {
	if s.Timezone == "" {
		s.Timezone = p.Timezone
	}
	if _, err := time.LoadLocation(s.Timezone); err != nil {
		return shared.NewDomainError("INVALID_TIMEZONE", "Unknown timezone: "+s.Timezone)
	}
	if s.DateFormat == "" {
		s.DateFormat = p.DateFormat
	}
	if _, ok := knownDateFormats[s.DateFormat]; !ok {
		return shared.NewDomainError("INVALID_DATE_FORMAT", "Unsupported date format: "+s.DateFormat)
	}
	switch s.DefaultPipelineView {
	case "":
		s.DefaultPipelineView = p.DefaultPipelineView
	case PipelineViewBoard, PipelineViewTable:
	default:
		return shared.NewDomainError("INVALID_PIPELINE_VIEW", "Pipeline view must be board or table")
	}
	switch s.DigestFrequency {
	case "":
		s.DigestFrequency = p.DigestFrequency
	case DigestOff, DigestDaily, DigestWeekly:
	default:
		return shared.NewDomainError("INVALID_DIGEST_FREQUENCY", "Digest frequency must be off, daily or weekly")
	}
	switch s.Theme {
	case "":
		s.Theme = p.Theme
	case ThemeLight, ThemeDark, ThemeSystem:
	default:
		return shared.NewDomainError("INVALID_THEME", "Theme must be light, dark or system")
	}
	if len(s.PipelineColumns) == 0 {
		s.PipelineColumns = p.PipelineColumns
	}

	p.Timezone = s.Timezone
	p.DateFormat = s.DateFormat
	p.DefaultPipelineView = s.DefaultPipelineView
	p.PipelineColumns = dedupe(s.PipelineColumns)
	p.EmailNotifications = s.EmailNotifications
	p.DigestFrequency = s.DigestFrequency
	p.Theme = s.Theme
	p.AssistantEnabled = s.AssistantEnabled
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}

func dedupe(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
