package models

import (
	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/domain/preferences"
)

// SavedFilterModel is the persistence model for a saved filter.
type SavedFilterModel struct {
	TenantAggregateModel
	SoftDeleteColumn
	UserID    uuid.UUID              `gorm:"type:uuid;not null;index"`
	Name      string                 `gorm:"type:varchar(100);not null"`
	Entity    preferences.EntityType `gorm:"type:varchar(20);not null"`
	Criteria  JSONMap                `gorm:"type:jsonb;default:'{}'"`
	IsDefault bool                   `gorm:"not null;default:false"`
	IsShared  bool                   `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (SavedFilterModel) TableName() string {
	return "saved_filters"
}

// ToDomain converts the persistence model to a domain SavedFilter
func (m *SavedFilterModel) ToDomain() *preferences.SavedFilter {
	return &preferences.SavedFilter{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		SoftDeletable:       m.SoftDeleteColumn.ToDomain(),
		UserID:              m.UserID,
		Name:                m.Name,
		Entity:              m.Entity,
		Criteria:            map[string]any(m.Criteria),
		IsDefault:           m.IsDefault,
		IsShared:            m.IsShared,
	}
}

// SavedFilterModelFromDomain creates a persistence model from a domain SavedFilter
func SavedFilterModelFromDomain(f *preferences.SavedFilter) *SavedFilterModel {
	m := &SavedFilterModel{
		SoftDeleteColumn: SoftDeleteColumn{DeletedAt: f.DeletedAt},
		UserID:           f.UserID,
		Name:             f.Name,
		Entity:           f.Entity,
		Criteria:         JSONMap(f.Criteria),
		IsDefault:        f.IsDefault,
		IsShared:         f.IsShared,
	}
	m.FromDomainTenantAggregateRoot(f.TenantAggregateRoot)
	return m
}

// UserPreferencesModel is the persistence model for per-user settings.
type UserPreferencesModel struct {
	TenantAggregateModel
	UserID              uuid.UUID                   `gorm:"type:uuid;not null;uniqueIndex"`
	Timezone            string                      `gorm:"type:varchar(64);not null"`
	DateFormat          string                      `gorm:"type:varchar(20);not null"`
	DefaultPipelineView preferences.PipelineView    `gorm:"type:varchar(10);not null"`
	PipelineColumns     StringList                  `gorm:"type:jsonb;default:'[]'"`
	EmailNotifications  bool                        `gorm:"not null"`
	DigestFrequency     preferences.DigestFrequency `gorm:"type:varchar(10);not null"`
	Theme               preferences.Theme           `gorm:"type:varchar(10);not null"`
	AssistantEnabled    bool                        `gorm:"not null"`
}

// TableName returns the table name for GORM
func (UserPreferencesModel) TableName() string {
	return "user_preferences"
}

// ToDomain converts the persistence model to domain UserPreferences
func (m *UserPreferencesModel) ToDomain() *preferences.UserPreferences {
	return &preferences.UserPreferences{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		UserID:              m.UserID,
		Timezone:            m.Timezone,
		DateFormat:          m.DateFormat,
		DefaultPipelineView: m.DefaultPipelineView,
		PipelineColumns:     []string(m.PipelineColumns),
		EmailNotifications:  m.EmailNotifications,
		DigestFrequency:     m.DigestFrequency,
		Theme:               m.Theme,
		AssistantEnabled:    m.AssistantEnabled,
	}
}

// UserPreferencesModelFromDomain creates a persistence model from domain UserPreferences
func UserPreferencesModelFromDomain(p *preferences.UserPreferences) *UserPreferencesModel {
	m := &UserPreferencesModel{
		UserID:              p.UserID,
		Timezone:            p.Timezone,
		DateFormat:          p.DateFormat,
		DefaultPipelineView: p.DefaultPipelineView,
		PipelineColumns:     StringList(p.PipelineColumns),
		EmailNotifications:  p.EmailNotifications,
		DigestFrequency:     p.DigestFrequency,
		Theme:               p.Theme,
		AssistantEnabled:    p.AssistantEnabled,
	}
	m.FromDomainTenantAggregateRoot(p.TenantAggregateRoot)
	return m
}
