package investor

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// InvestorType classifies the kind of capital source
type InvestorType string

const (
	InvestorTypeVC           InvestorType = "vc"
	InvestorTypeAngel        InvestorType = "angel"
	InvestorTypeCVC          InvestorType = "cvc" // Corporate venture arm
	InvestorTypeFamilyOffice InvestorType = "family_office"
	InvestorTypeAccelerator  InvestorType = "accelerator"
	InvestorTypeOther        InvestorType = "other"
)

// Priority ranks how actively an investor should be worked
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Investor is a fundraising relationship tracked through the pipeline.
// It is the aggregate root of the pipeline context.
type Investor struct {
	shared.TenantAggregateRoot
	shared.SoftDeletable
	Name             string
	FirmName         string
	Type             InvestorType
	Stage            Stage
	Priority         Priority
	CheckSizeMin     decimal.Decimal
	CheckSizeMax     decimal.Decimal
	CommitmentAmount decimal.Decimal
	Currency         string
	Website          string
	LinkedInURL      string
	Location         string
	FocusAreas       []string
	Tags             []string
	Notes            string
	OwnerID          *uuid.UUID
	Source           string
	PassedReason     string
	StageChangedAt   time.Time
	LastContactedAt  *time.Time
	NextFollowUpAt   *time.Time
}

// Profile carries the editable descriptive fields of an investor
type Profile struct {
	Name        string
	FirmName    string
	Type        InvestorType
	Priority    Priority
	Currency    string
	Website     string
	LinkedInURL string
	Location    string
	FocusAreas  []string
	Tags        []string
	Notes       string
	Source      string
}

// NewInvestor creates a new investor in the target stage
func NewInvestor(tenantID uuid.UUID, name string, investorType InvestorType) (*Investor, error) {
	name = strings.TrimSpace(name)
	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := validateType(investorType); err != nil {
		return nil, err
	}

	inv := &Investor{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                name,
		Type:                investorType,
		Stage:               StageTarget,
		Priority:            PriorityMedium,
		CheckSizeMin:        decimal.Zero,
		CheckSizeMax:        decimal.Zero,
		CommitmentAmount:    decimal.Zero,
		Currency:            "USD",
		FocusAreas:          []string{},
		Tags:                []string{},
	}
	inv.StageChangedAt = inv.CreatedAt

	return inv, nil
}

// NewInvestorFromProfile creates a target-stage investor with its profile and check size filled in.
// The result is at version 1 with no pending events; the caller stamps the actor and calls MarkCreated.
func NewInvestorFromProfile(tenantID uuid.UUID, p Profile, checkMin, checkMax decimal.Decimal) (*Investor, error) {
	inv, err := NewInvestor(tenantID, p.Name, p.Type)
	if err != nil {
		return nil, err
	}
	if _, err := inv.ApplyProfile(p); err != nil {
		return nil, err
	}
	if err := inv.SetCheckSize(checkMin, checkMax); err != nil {
		return nil, err
	}
	inv.ClearDomainEvents()
	inv.Version = 1
	inv.UpdatedAt = inv.CreatedAt
	return inv, nil
}

// MarkCreated records the creation event once the caller has finished populating the investor
func (i *Investor) MarkCreated() {
	i.AddDomainEvent(NewInvestorCreatedEvent(i))
}

// ApplyProfile replaces the descriptive fields and returns the changed field names
func (i *Investor) ApplyProfile(p Profile) (map[string]any, error) {
	if err := i.ensureEditable(); err != nil {
		return nil, err
	}
	p.Name = strings.TrimSpace(p.Name)
	if err := validateName(p.Name); err != nil {
		return nil, err
	}
	if err := validateType(p.Type); err != nil {
		return nil, err
	}
	if p.Priority == "" {
		p.Priority = i.Priority
	}
	if err := validatePriority(p.Priority); err != nil {
		return nil, err
	}
	if p.Website != "" {
		if err := shared.ValidateURL(p.Website, "Website"); err != nil {
			return nil, err
		}
	}
	if p.LinkedInURL != "" {
		if err := shared.ValidateURL(p.LinkedInURL, "LinkedIn URL"); err != nil {
			return nil, err
		}
	}
	if len(p.FirmName) > 200 {
		return nil, shared.NewDomainError("INVALID_FIRM_NAME", "Firm name cannot exceed 200 characters")
	}
	if p.Currency == "" {
		p.Currency = i.Currency
	}
	if len(p.Currency) != 3 {
		return nil, shared.NewDomainError("INVALID_CURRENCY", "Currency must be a 3-letter ISO code")
	}

	changes := make(map[string]any)
	diff := func(field string, before, after any) {
		if before != after {
			changes[field] = map[string]any{"from": before, "to": after}
		}
	}
	diff("name", i.Name, p.Name)
	diff("firm_name", i.FirmName, strings.TrimSpace(p.FirmName))
	diff("type", i.Type, p.Type)
	diff("priority", i.Priority, p.Priority)
	diff("website", i.Website, p.Website)
	diff("linkedin_url", i.LinkedInURL, p.LinkedInURL)
	diff("location", i.Location, p.Location)
	diff("notes", i.Notes, p.Notes)
	diff("source", i.Source, p.Source)
	diff("currency", i.Currency, strings.ToUpper(p.Currency))
	tags := shared.NormalizeTags(p.Tags)
	if strings.Join(tags, ",") != strings.Join(i.Tags, ",") {
		changes["tags"] = tags
	}
	focus := shared.NormalizeTags(p.FocusAreas)
	if strings.Join(focus, ",") != strings.Join(i.FocusAreas, ",") {
		changes["focus_areas"] = focus
	}

	i.Name = p.Name
	i.FirmName = strings.TrimSpace(p.FirmName)
	i.Type = p.Type
	i.Priority = p.Priority
	i.Website = p.Website
	i.LinkedInURL = p.LinkedInURL
	i.Location = p.Location
	i.Notes = p.Notes
	i.Source = p.Source
	i.Currency = strings.ToUpper(p.Currency)
	i.Tags = tags
	i.FocusAreas = focus

	if len(changes) > 0 {
		i.touch()
		i.AddDomainEvent(NewInvestorUpdatedEvent(i, changes))
	}
	return changes, nil
}

// SetCheckSize sets the typical check range. Zero max means unknown.
func (i *Investor) SetCheckSize(min, max decimal.Decimal) error {
	if err := i.ensureEditable(); err != nil {
		return err
	}
	if min.IsNegative() || max.IsNegative() {
		return shared.NewDomainError("INVALID_CHECK_SIZE", "Check size cannot be negative")
	}
	if !max.IsZero() && min.GreaterThan(max) {
		return shared.NewDomainError("INVALID_CHECK_SIZE", "Minimum check size cannot exceed maximum")
	}
	if i.CheckSizeMin.Equal(min) && i.CheckSizeMax.Equal(max) {
		return nil
	}
	i.CheckSizeMin = min
	i.CheckSizeMax = max
	i.touch()
	i.AddDomainEvent(NewInvestorUpdatedEvent(i, map[string]any{
		"check_size_min": min.String(),
		"check_size_max": max.String(),
	}))
	return nil
}

// AssignOwner sets the team member responsible for the relationship
func (i *Investor) AssignOwner(ownerID *uuid.UUID) error {
	if err := i.ensureEditable(); err != nil {
		return err
	}
	i.OwnerID = ownerID
	i.touch()
	i.AddDomainEvent(NewInvestorUpdatedEvent(i, map[string]any{"owner_id": ownerID}))
	return nil
}

// ScheduleFollowUp sets or clears the next follow-up date
func (i *Investor) ScheduleFollowUp(at *time.Time) error {
	if err := i.ensureEditable(); err != nil {
		return err
	}
	i.NextFollowUpAt = at
	i.touch()
	i.AddDomainEvent(NewInvestorUpdatedEvent(i, map[string]any{"next_follow_up_at": at}))
	return nil
}

// RecordContact moves last_contacted_at forward. Older timestamps are ignored.
// Returns true when the investor changed.
func (i *Investor) RecordContact(at time.Time) bool {
	if i.LastContactedAt != nil && !at.After(*i.LastContactedAt) {
		return false
	}
	i.LastContactedAt = &at
	i.touch()
	return true
}

// MoveStage moves the investor through the pipeline.
// Committing requires a positive commitment, passing requires a reason.
func (i *Investor) MoveStage(to Stage, reason string, commitment *decimal.Decimal) error {
	if err := i.ensureEditable(); err != nil {
		return err
	}
	if !to.IsValid() {
		return shared.NewDomainError("INVALID_STAGE", "Unknown pipeline stage: "+string(to))
	}
	if !i.Stage.CanTransitionTo(to) {
		return shared.NewDomainError("INVALID_STAGE_TRANSITION",
			"Cannot move investor from "+string(i.Stage)+" to "+string(to))
	}
	reason = strings.TrimSpace(reason)

	switch to {
	case StageCommitted:
		amount := i.CommitmentAmount
		if commitment != nil {
			amount = *commitment
		}
		if !amount.IsPositive() {
			return shared.NewDomainError("COMMITMENT_REQUIRED", "A positive commitment amount is required to mark an investor as committed")
		}
		i.CommitmentAmount = amount
	case StagePassed:
		if reason == "" {
			return shared.NewDomainError("PASS_REASON_REQUIRED", "A reason is required when an investor passes")
		}
		i.PassedReason = reason
	case StageTarget:
		// re-open clears the previous outcome
		i.PassedReason = ""
	default:
		if commitment != nil {
			if commitment.IsNegative() {
				return shared.NewDomainError("INVALID_COMMITMENT", "Commitment amount cannot be negative")
			}
			i.CommitmentAmount = *commitment
		}
	}

	from := i.Stage
	i.Stage = to
	i.touch()
	i.StageChangedAt = i.UpdatedAt
	i.AddDomainEvent(NewInvestorStageChangedEvent(i, from, reason))
	return nil
}

// Delete moves the investor to the trash
func (i *Investor) Delete() error {
	if err := i.MarkDeleted(time.Now()); err != nil {
		return err
	}
	i.touch()
	i.AddDomainEvent(NewInvestorDeletedEvent(i))
	return nil
}

// Restore brings the investor back from the trash
func (i *Investor) Restore() error {
	if err := i.MarkRestored(); err != nil {
		return err
	}
	i.touch()
	i.AddDomainEvent(NewInvestorRestoredEvent(i))
	return nil
}

// DisplayName prefers "Name (Firm)" when both are known
func (i *Investor) DisplayName() string {
	if i.FirmName != "" && !strings.EqualFold(i.FirmName, i.Name) {
		return i.Name + " (" + i.FirmName + ")"
	}
	return i.Name
}

// OrganizationName is the name used for company matching: firm if set, otherwise the investor name
func (i *Investor) OrganizationName() string {
	if i.FirmName != "" {
		return i.FirmName
	}
	return i.Name
}

// IsFollowUpDue reports whether the follow-up date has passed
func (i *Investor) IsFollowUpDue(now time.Time) bool {
	return i.NextFollowUpAt != nil && !i.NextFollowUpAt.After(now) && i.Stage.IsOpen()
}

func (i *Investor) ensureEditable() error {
	if i.IsDeleted() {
		return shared.NewDomainError("INVESTOR_DELETED", "Investor is in the trash, restore it first")
	}
	return nil
}

func (i *Investor) touch() {
	i.UpdatedAt = time.Now()
	i.IncrementVersion()
}

func validateName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Investor name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Investor name cannot exceed 200 characters")
	}
	return nil
}

func validateType(t InvestorType) error {
	switch t {
	case InvestorTypeVC, InvestorTypeAngel, InvestorTypeCVC, InvestorTypeFamilyOffice,
		InvestorTypeAccelerator, InvestorTypeOther:
		return nil
	}
	return shared.NewDomainError("INVALID_INVESTOR_TYPE", "Invalid investor type: "+string(t))
}

func validatePriority(p Priority) error {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return nil
	}
	return shared.NewDomainError("INVALID_PRIORITY", "Invalid priority: "+string(p))
}
