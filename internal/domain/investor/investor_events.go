package investor

import (
	"github.com/investorcrm/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeInvestor = "Investor"

// Event type constants
const (
	EventTypeInvestorCreated      = "InvestorCreated"
	EventTypeInvestorUpdated      = "InvestorUpdated"
	EventTypeInvestorStageChanged = "InvestorStageChanged"
	EventTypeInvestorDeleted      = "InvestorDeleted"
	EventTypeInvestorRestored     = "InvestorRestored"
)

// InvestorCreatedEvent is published when a new investor is added to the pipeline
type InvestorCreatedEvent struct {
	shared.BaseDomainEvent
	Name     string       `json:"name"`
	FirmName string       `json:"firm_name"`
	Type     InvestorType `json:"type"`
	Stage    Stage        `json:"stage"`
}

// NewInvestorCreatedEvent creates a new InvestorCreatedEvent
func NewInvestorCreatedEvent(inv *Investor) *InvestorCreatedEvent {
	return &InvestorCreatedEvent{
		BaseDomainEvent: shared.NewAggregateEvent(EventTypeInvestorCreated, AggregateTypeInvestor, &inv.TenantAggregateRoot),
		Name:            inv.Name,
		FirmName:        inv.FirmName,
		Type:            inv.Type,
		Stage:           inv.Stage,
	}
}

// InvestorUpdatedEvent is published when profile fields change
type InvestorUpdatedEvent struct {
	shared.BaseDomainEvent
	Name     string         `json:"name"`
	FirmName string         `json:"firm_name"`
	Changes  map[string]any `json:"changes,omitempty"`
}

// NewInvestorUpdatedEvent creates a new InvestorUpdatedEvent
func NewInvestorUpdatedEvent(inv *Investor, changes map[string]any) *InvestorUpdatedEvent {
	return &InvestorUpdatedEvent{
		BaseDomainEvent: shared.NewAggregateEvent(EventTypeInvestorUpdated, AggregateTypeInvestor, &inv.TenantAggregateRoot),
		Name:            inv.Name,
		FirmName:        inv.FirmName,
		Changes:         changes,
	}
}

// InvestorStageChangedEvent is published when the investor moves through the pipeline
type InvestorStageChangedEvent struct {
	shared.BaseDomainEvent
	Name             string          `json:"name"`
	FromStage        Stage           `json:"from_stage"`
	ToStage          Stage           `json:"to_stage"`
	Reason           string          `json:"reason,omitempty"`
	CommitmentAmount decimal.Decimal `json:"commitment_amount"`
}

// NewInvestorStageChangedEvent creates a new InvestorStageChangedEvent
func NewInvestorStageChangedEvent(inv *Investor, from Stage, reason string) *InvestorStageChangedEvent {
	return &InvestorStageChangedEvent{
		BaseDomainEvent:  shared.NewAggregateEvent(EventTypeInvestorStageChanged, AggregateTypeInvestor, &inv.TenantAggregateRoot),
		Name:             inv.DisplayName(),
		FromStage:        from,
		ToStage:          inv.Stage,
		Reason:           reason,
		CommitmentAmount: inv.CommitmentAmount,
	}
}

// InvestorDeletedEvent is published when an investor is moved to the trash
type InvestorDeletedEvent struct {
	shared.BaseDomainEvent
	Name string `json:"name"`
}

// NewInvestorDeletedEvent creates a new InvestorDeletedEvent
func NewInvestorDeletedEvent(inv *Investor) *InvestorDeletedEvent {
	return &InvestorDeletedEvent{
		BaseDomainEvent: shared.NewAggregateEvent(EventTypeInvestorDeleted, AggregateTypeInvestor, &inv.TenantAggregateRoot),
		Name:            inv.DisplayName(),
	}
}

// InvestorRestoredEvent is published when an investor is restored from the trash
type InvestorRestoredEvent struct {
	shared.BaseDomainEvent
	Name string `json:"name"`
}

// NewInvestorRestoredEvent creates a new InvestorRestoredEvent
func NewInvestorRestoredEvent(inv *Investor) *InvestorRestoredEvent {
	return &InvestorRestoredEvent{
		BaseDomainEvent: shared.NewAggregateEvent(EventTypeInvestorRestored, AggregateTypeInvestor, &inv.TenantAggregateRoot),
		Name:            inv.DisplayName(),
	}
}
