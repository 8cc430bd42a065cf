package preferences

import (
	"time"

	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/domain/preferences"
)

// CreateFilterRequest creates a saved filter
type CreateFilterRequest struct {
	Name      string         `json:"name" binding:"required,min=1,max=100"`
	Entity    string         `json:"entity" binding:"required,oneof=investor contact task meeting"`
	Criteria  map[string]any `json:"criteria"`
	IsShared  bool           `json:"is_shared"`
	IsDefault bool           `json:"is_default"`
}

// UpdateFilterRequest replaces a saved filter's name, criteria and visibility
type UpdateFilterRequest struct {
	Version  int            `json:"version" binding:"required,min=1"`
	Name     string         `json:"name" binding:"required,min=1,max=100"`
	Criteria map[string]any `json:"criteria"`
	IsShared bool           `json:"is_shared"`
}

// FilterResponse is the API view of a saved filter
type FilterResponse struct {
	ID        uuid.UUID      `json:"id"`
	UserID    uuid.UUID      `json:"user_id"`
	Name      string         `json:"name"`
	Entity    string         `json:"entity"`
	Criteria  map[string]any `json:"criteria"`
	IsDefault bool           `json:"is_default"`
	IsShared  bool           `json:"is_shared"`
	Owned     bool           `json:"owned"`
	DeletedAt *time.Time     `json:"deleted_at,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	Version   int            `json:"version"`
}

// ToFilterResponse converts a saved filter as seen by userID
func ToFilterResponse(f *preferences.SavedFilter, userID uuid.UUID) FilterResponse {
	return FilterResponse{
		ID:        f.ID,
		UserID:    f.UserID,
		Name:      f.Name,
		Entity:    string(f.Entity),
		Criteria:  f.Criteria,
		IsDefault: f.IsDefault,
		IsShared:  f.IsShared,
		Owned:     f.OwnedBy(userID),
		DeletedAt: f.DeletedAt,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
		Version:   f.Version,
	}
}

// UpdatePreferencesRequest replaces the user's settings. Empty strings keep the current value.
// Version is required once preferences have been saved; zero means first save.
type UpdatePreferencesRequest struct {
	Version             int      `json:"version" binding:"min=0"`
	Timezone            string   `json:"timezone" binding:"max=64"`
	DateFormat          string   `json:"date_format" binding:"max=32"`
	DefaultPipelineView string   `json:"default_pipeline_view" binding:"omitempty,oneof=board table"`
	PipelineColumns     []string `json:"pipeline_columns" binding:"max=30"`
	EmailNotifications  bool     `json:"email_notifications"`
	DigestFrequency     string   `json:"digest_frequency" binding:"omitempty,oneof=off daily weekly"`
	Theme               string   `json:"theme" binding:"omitempty,oneof=light dark system"`
	AssistantEnabled    bool     `json:"assistant_enabled"`
}

// PreferencesResponse is the API view of user preferences
type PreferencesResponse struct {
	Timezone            string    `json:"timezone"`
	DateFormat          string    `json:"date_format"`
	DefaultPipelineView string    `json:"default_pipeline_view"`
	PipelineColumns     []string  `json:"pipeline_columns"`
	EmailNotifications  bool      `json:"email_notifications"`
	DigestFrequency     string    `json:"digest_frequency"`
	Theme               string    `json:"theme"`
	AssistantEnabled    bool      `json:"assistant_enabled"`
	IsDefault           bool      `json:"is_default"`
	UpdatedAt           time.Time `json:"updated_at"`
	Version             int       `json:"version"`
}

// ToPreferencesResponse converts user preferences
func ToPreferencesResponse(p *preferences.UserPreferences) PreferencesResponse {
	return PreferencesResponse{
		Timezone:            p.Timezone,
		DateFormat:          p.DateFormat,
		DefaultPipelineView: string(p.DefaultPipelineView),
		PipelineColumns:     p.PipelineColumns,
		EmailNotifications:  p.EmailNotifications,
		DigestFrequency:     string(p.DigestFrequency),
		Theme:               string(p.Theme),
		AssistantEnabled:    p.AssistantEnabled,
		IsDefault:           !p.IsPersisted(),
		UpdatedAt:           p.UpdatedAt,
		Version:             p.Version,
	}
}
