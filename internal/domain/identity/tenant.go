package identity

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/domain/shared"
)

// TenantStatus represents the status of a tenant
type TenantStatus string

const (
	TenantStatusActive    TenantStatus = "active"
	TenantStatusSuspended TenantStatus = "suspended"
)

var slugRegex = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Tenant is an organization raising capital.
// It is the aggregate root for tenant-related operations.
type Tenant struct {
	shared.BaseAggregateRoot
	Name   string
	Slug   string
	Status TenantStatus
}

// NewTenant creates a new active tenant
func NewTenant(slug, name string) (*Tenant, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if err := validateTenantSlug(slug); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if err := validateTenantName(name); err != nil {
		return nil, err
	}

	tenant := &Tenant{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Slug:              slug,
		Status:            TenantStatusActive,
	}
	tenant.AddDomainEvent(NewTenantEvent(EventTypeTenantCreated, tenant))
	return tenant, nil
}

// SlugFromName derives a URL-safe slug ("Acme Robotics, Inc." -> "acme-robotics-inc")
func SlugFromName(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// Rename changes the display name
func (t *Tenant) Rename(name string) error {
	name = strings.TrimSpace(name)
	if err := validateTenantName(name); err != nil {
		return err
	}
	t.Name = name
	t.UpdatedAt = time.Now()
	t.IncrementVersion()
	return nil
}

// Suspend blocks all logins for the tenant
func (t *Tenant) Suspend() error {
	if t.Status == TenantStatusSuspended {
		return shared.NewDomainError("ALREADY_SUSPENDED", "Tenant is already suspended")
	}
	t.Status = TenantStatusSuspended
	t.UpdatedAt = time.Now()
	t.IncrementVersion()
	t.AddDomainEvent(NewTenantEvent(EventTypeTenantSuspended, t))
	return nil
}

// Activate lifts a suspension
func (t *Tenant) Activate() error {
	if t.Status == TenantStatusActive {
		return shared.NewDomainError("ALREADY_ACTIVE", "Tenant is already active")
	}
	t.Status = TenantStatusActive
	t.UpdatedAt = time.Now()
	t.IncrementVersion()
	t.AddDomainEvent(NewTenantEvent(EventTypeTenantActivated, t))
	return nil
}

// IsActive returns true if the tenant can be used
func (t *Tenant) IsActive() bool {
	return t.Status == TenantStatusActive
}

// GetTenantID returns the tenant's own id
func (t *Tenant) GetTenantID() uuid.UUID {
	return t.ID
}

func validateTenantSlug(slug string) error {
	if slug == "" {
		return shared.NewDomainError("INVALID_TENANT_SLUG", "Tenant slug cannot be empty")
	}
	if len(slug) < 2 || len(slug) > 63 {
		return shared.NewDomainError("INVALID_TENANT_SLUG", "Tenant slug must be 2 to 63 characters")
	}
	if !slugRegex.MatchString(slug) {
		return shared.NewDomainError("INVALID_TENANT_SLUG", "Tenant slug may only contain lowercase letters, digits and single hyphens")
	}
	return nil
}

func validateTenantName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_TENANT_NAME", "Tenant name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_TENANT_NAME", "Tenant name cannot exceed 200 characters")
	}
	return nil
}
