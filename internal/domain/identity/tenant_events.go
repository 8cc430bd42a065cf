package identity

import (
	"github.com/investorcrm/backend/internal/domain/shared"
)

// Aggregate type constant for Tenant
const AggregateTypeTenant = "Tenant"

// Tenant domain event types
const (
	EventTypeTenantCreated   = "TenantCreated"
	EventTypeTenantSuspended = "TenantSuspended"
	EventTypeTenantActivated = "TenantActivated"
)

// TenantEvent is published on tenant lifecycle changes
type TenantEvent struct {
	shared.BaseDomainEvent
	Slug   string       `json:"slug"`
	Name   string       `json:"name"`
	Status TenantStatus `json:"status"`
}

// NewTenantEvent creates a tenant lifecycle event. A tenant is its own tenant scope.
func NewTenantEvent(eventType string, t *Tenant) *TenantEvent {
	base := shared.NewBaseDomainEvent(eventType, AggregateTypeTenant, t.ID, t.ID)
	base.AggVersion = t.Version
	return &TenantEvent{
		BaseDomainEvent: base,
		Slug:            t.Slug,
		Name:            t.Name,
		Status:          t.Status,
	}
}
