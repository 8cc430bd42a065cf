package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/domain/integration"
)

// GoogleConnectionModel stores a user's Google OAuth tokens.
type GoogleConnectionModel struct {
	TenantAggregateModel
	UserID             uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex"`
	Email              string     `gorm:"type:varchar(254)"`
	AccessToken        string     `gorm:"type:text;not null"`
	RefreshToken       string     `gorm:"type:text"`
	Expiry             time.Time  `gorm:"not null"`
	Scopes             StringList `gorm:"type:jsonb;default:'[]'"`
	LastGmailSyncAt    *time.Time
	LastCalendarSyncAt *time.Time
	LastError          string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (GoogleConnectionModel) TableName() string {
	return "google_connections"
}

// ToDomain converts the persistence model to a domain GoogleConnection
func (m *GoogleConnectionModel) ToDomain() *integration.GoogleConnection {
	return &integration.GoogleConnection{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		UserID:              m.UserID,
		Email:               m.Email,
		AccessToken:         m.AccessToken,
		RefreshToken:        m.RefreshToken,
		Expiry:              m.Expiry,
		Scopes:              []string(m.Scopes),
		LastGmailSyncAt:     m.LastGmailSyncAt,
		LastCalendarSyncAt:  m.LastCalendarSyncAt,
		LastError:           m.LastError,
	}
}

// GoogleConnectionModelFromDomain creates a persistence model from a domain GoogleConnection
func GoogleConnectionModelFromDomain(c *integration.GoogleConnection) *GoogleConnectionModel {
	m := &GoogleConnectionModel{
		UserID:             c.UserID,
		Email:              c.Email,
		AccessToken:        c.AccessToken,
		RefreshToken:       c.RefreshToken,
		Expiry:             c.Expiry,
		Scopes:             StringList(c.Scopes),
		LastGmailSyncAt:    c.LastGmailSyncAt,
		LastCalendarSyncAt: c.LastCalendarSyncAt,
		LastError:          c.LastError,
	}
	m.FromDomainTenantAggregateRoot(c.TenantAggregateRoot)
	return m
}
