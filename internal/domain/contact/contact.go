package contact

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/domain/shared"
)

// Contact is a person, usually at an investor firm
type Contact struct {
	shared.TenantAggregateRoot
	shared.SoftDeletable
	InvestorID  *uuid.UUID
	FirstName   string
	LastName    string
	Email       string
	Phone       string
	Title       string
	LinkedInURL string
	IsPrimary   bool
	Notes       string
	Tags        []string
}

// Details carries the editable fields of a contact
type Details struct {
	FirstName   string
	LastName    string
	Email       string
	Phone       string
	Title       string
	LinkedInURL string
	Notes       string
	Tags        []string
}

// NewContact creates a new contact, optionally linked to an investor
func NewContact(tenantID uuid.UUID, investorID *uuid.UUID, d Details) (*Contact, error) {
	c := &Contact{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		InvestorID:          investorID,
		Tags:                []string{},
	}
	if err := c.apply(d); err != nil {
		return nil, err
	}
	c.AddDomainEvent(NewContactCreatedEvent(c))
	return c, nil
}

// Update replaces the editable fields
func (c *Contact) Update(d Details) error {
	if c.IsDeleted() {
		return shared.NewDomainError("CONTACT_DELETED", "Contact is in the trash, restore it first")
	}
	if err := c.apply(d); err != nil {
		return err
	}
	c.touch()
	c.AddDomainEvent(NewContactUpdatedEvent(c))
	return nil
}

// LinkInvestor moves the contact to another investor (or detaches it with nil).
// Moving a primary contact drops the primary flag.
func (c *Contact) LinkInvestor(investorID *uuid.UUID) {
	same := (c.InvestorID == nil && investorID == nil) ||
		(c.InvestorID != nil && investorID != nil && *c.InvestorID == *investorID)
	if same {
		return
	}
	c.InvestorID = investorID
	c.IsPrimary = false
	c.touch()
	c.AddDomainEvent(NewContactUpdatedEvent(c))
}

// MakePrimary flags the contact as the primary contact of its investor
func (c *Contact) MakePrimary() error {
	if c.InvestorID == nil {
		return shared.NewDomainError("NO_INVESTOR", "Only contacts linked to an investor can be primary")
	}
	if c.IsDeleted() {
		return shared.NewDomainError("CONTACT_DELETED", "Contact is in the trash, restore it first")
	}
	if c.IsPrimary {
		return nil
	}
	c.IsPrimary = true
	c.touch()
	c.AddDomainEvent(NewContactUpdatedEvent(c))
	return nil
}

// ClearPrimary removes the primary flag
func (c *Contact) ClearPrimary() {
	if !c.IsPrimary {
		return
	}
	c.IsPrimary = false
	c.touch()
}

// Delete moves the contact to the trash
func (c *Contact) Delete() error {
	if err := c.MarkDeleted(time.Now()); err != nil {
		return err
	}
	c.IsPrimary = false
	c.touch()
	c.AddDomainEvent(NewContactDeletedEvent(c))
	return nil
}

// Restore brings the contact back from the trash
func (c *Contact) Restore() error {
	if err := c.MarkRestored(); err != nil {
		return err
	}
	c.touch()
	c.AddDomainEvent(NewContactRestoredEvent(c))
	return nil
}

// FullName returns "First Last"
func (c *Contact) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

func (c *Contact) apply(d Details) error {
	d.FirstName = strings.TrimSpace(d.FirstName)
	d.LastName = strings.TrimSpace(d.LastName)
	if d.FirstName == "" && d.LastName == "" {
		return shared.NewDomainError("INVALID_NAME", "Contact needs a first or last name")
	}
	if len(d.FirstName) > 100 || len(d.LastName) > 100 {
		return shared.NewDomainError("INVALID_NAME", "Contact names cannot exceed 100 characters")
	}
	d.Email = shared.NormalizeEmail(d.Email)
	if d.Email != "" {
		if err := shared.ValidateEmail(d.Email); err != nil {
			return err
		}
	}
	d.Phone = strings.TrimSpace(d.Phone)
	if d.Phone != "" {
		if err := shared.ValidatePhone(d.Phone); err != nil {
			return err
		}
	}
	if d.LinkedInURL != "" {
		if err := shared.ValidateURL(d.LinkedInURL, "LinkedIn URL"); err != nil {
			return err
		}
	}
	if len(d.Title) > 200 {
		return shared.NewDomainError("INVALID_TITLE", "Title cannot exceed 200 characters")
	}

	c.FirstName = d.FirstName
	c.LastName = d.LastName
	c.Email = d.Email
	c.Phone = d.Phone
	c.Title = strings.TrimSpace(d.Title)
	c.LinkedInURL = d.LinkedInURL
	c.Notes = d.Notes
	c.Tags = shared.NormalizeTags(d.Tags)
	return nil
}

func (c *Contact) touch() {
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
}
