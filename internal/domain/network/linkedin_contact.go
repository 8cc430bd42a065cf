package network

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/domain/shared"
)

// LinkedInContact is a first-degree connection of a team member, imported from a LinkedIn export
type LinkedInContact struct {
	shared.TenantAggregateRoot
	OwnerUserID       uuid.UUID
	FirstName         string
	LastName          string
	Email             string
	Company           string
	NormalizedCompany string
	Position          string
	ConnectedOn       *time.Time
	ProfileURL        string
}

// ConnectionData is one parsed row of a connections export
type ConnectionData struct {
	FirstName   string
	LastName    string
	Email       string
	Company     string
	Position    string
	ConnectedOn *time.Time
	ProfileURL  string
}

// NewLinkedInContact creates a connection owned by a team member
func NewLinkedInContact(tenantID, ownerUserID uuid.UUID, d ConnectionData) (*LinkedInContact, error) {
	if ownerUserID == uuid.Nil {
		return nil, shared.NewDomainError("OWNER_REQUIRED", "Connection must belong to a team member")
	}
	c := &LinkedInContact{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		OwnerUserID:         ownerUserID,
	}
	if err := c.apply(d); err != nil {
		return nil, err
	}
	return c, nil
}

// Refresh overwrites the connection with a newer export row. Returns true when anything changed.
func (c *LinkedInContact) Refresh(d ConnectionData) (bool, error) {
	before := *c
	if err := c.apply(d); err != nil {
		return false, err
	}
	changed := before.FirstName != c.FirstName ||
		before.LastName != c.LastName ||
		before.Email != c.Email ||
		before.Company != c.Company ||
		before.Position != c.Position ||
		before.ProfileURL != c.ProfileURL ||
		!sameDay(before.ConnectedOn, c.ConnectedOn)
	if changed {
		c.UpdatedAt = time.Now()
		c.IncrementVersion()
	}
	return changed, nil
}

// FullName joins first and last name
func (c *LinkedInContact) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// DedupKey identifies the connection within an owner's network.
// The profile URL is preferred; older exports without it fall back to name and company.
func (c *LinkedInContact) DedupKey() string {
	return ConnectionKey(c.ProfileURL, c.FirstName, c.LastName, c.Company)
}

// ConnectionKey computes the dedup key for raw connection fields
func ConnectionKey(profileURL, firstName, lastName, company string) string {
	if u := strings.TrimRight(strings.ToLower(strings.TrimSpace(profileURL)), "/"); u != "" {
		return "url:" + u
	}
	return "name:" + NormalizePersonName(firstName+" "+lastName) + "|" + NormalizeCompanyName(company)
}

func (c *LinkedInContact) apply(d ConnectionData) error {
	d.FirstName = strings.TrimSpace(d.FirstName)
	d.LastName = strings.TrimSpace(d.LastName)
	if d.FirstName == "" && d.LastName == "" {
		return shared.NewDomainError("INVALID_NAME", "Connection must have a name")
	}
	email := shared.NormalizeEmail(d.Email)
	if email != "" {
		if err := shared.ValidateEmail(email); err != nil {
			return err
		}
	}
	c.FirstName = d.FirstName
	c.LastName = d.LastName
	c.Email = email
	c.Company = strings.TrimSpace(d.Company)
	c.NormalizedCompany = NormalizeCompanyName(c.Company)
	c.Position = strings.TrimSpace(d.Position)
	c.ConnectedOn = d.ConnectedOn
	c.ProfileURL = strings.TrimSpace(d.ProfileURL)
	return nil
}

func sameDay(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Truncate(24 * time.Hour).Equal(b.Truncate(24 * time.Hour))
}
