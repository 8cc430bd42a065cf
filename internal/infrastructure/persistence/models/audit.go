package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/domain/audit"
)

// AuditLogModel is an append-only audit row. It has no version or updated_at.
type AuditLogModel struct {
	ID         uuid.UUID    `gorm:"type:uuid;primary_key"`
	TenantID   uuid.UUID    `gorm:"type:uuid;not null;index"`
	ActorID    *uuid.UUID   `gorm:"type:uuid;index"`
	Action     audit.Action `gorm:"type:varchar(30);not null"`
	EntityType string       `gorm:"type:varchar(50);not null"`
	EntityID   uuid.UUID    `gorm:"type:uuid;not null"`
	Changes    JSONMap      `gorm:"type:jsonb;default:'{}'"`
	IP         string       `gorm:"type:varchar(45)"`
	UserAgent  string       `gorm:"type:varchar(500)"`
	RequestID  string       `gorm:"type:varchar(64)"`
	CreatedAt  time.Time    `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (AuditLogModel) TableName() string {
	return "audit_logs"
}

// ToDomain converts the persistence model to an audit entry
func (m *AuditLogModel) ToDomain() audit.Entry {
	return audit.Entry{
		ID:         m.ID,
		TenantID:   m.TenantID,
		ActorID:    m.ActorID,
		Action:     m.Action,
		EntityType: m.EntityType,
		EntityID:   m.EntityID,
		Changes:    map[string]any(m.Changes),
		IP:         m.IP,
		UserAgent:  m.UserAgent,
		RequestID:  m.RequestID,
		CreatedAt:  m.CreatedAt,
	}
}

// AuditLogModelFromDomain creates a persistence model from an audit entry
func AuditLogModelFromDomain(e *audit.Entry) *AuditLogModel {
	return &AuditLogModel{
		ID:         e.ID,
		TenantID:   e.TenantID,
		ActorID:    e.ActorID,
		Action:     e.Action,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		Changes:    JSONMap(e.Changes),
		IP:         e.IP,
		UserAgent:  e.UserAgent,
		RequestID:  e.RequestID,
		CreatedAt:  e.CreatedAt,
	}
}
