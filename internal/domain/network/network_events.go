package network

import (
	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/domain/shared"
)

// Aggregate type constants
const (
	AggregateTypeRelationship    = "InvestorRelationship"
	AggregateTypeLinkedInContact = "LinkedInContact"
)

// Event type constants
const (
	EventTypeRelationshipConfirmed = "RelationshipConfirmed"
	EventTypeRelationshipDismissed = "RelationshipDismissed"
	EventTypeNetworkImported       = "NetworkImported"
	EventTypeRelationshipsDetected = "RelationshipsDetected"
)

// RelationshipEvent is published when a user reviews a relationship
type RelationshipEvent struct {
	shared.BaseDomainEvent
	InvestorID        uuid.UUID          `json:"investor_id"`
	LinkedInContactID uuid.UUID          `json:"linkedin_contact_id"`
	Status            RelationshipStatus `json:"status"`
	Strength          int                `json:"strength"`
}

func newRelationshipEvent(eventType string, r *InvestorRelationship) *RelationshipEvent {
	return &RelationshipEvent{
		BaseDomainEvent:   shared.NewAggregateEvent(eventType, AggregateTypeRelationship, &r.TenantAggregateRoot),
		InvestorID:        r.InvestorID,
		LinkedInContactID: r.LinkedInContactID,
		Status:            r.Status,
		Strength:          r.Strength,
	}
}

// NetworkImportedEvent summarizes a connections import
type NetworkImportedEvent struct {
	shared.BaseDomainEvent
	OwnerUserID uuid.UUID `json:"owner_user_id"`
	Created     int       `json:"created"`
	Updated     int       `json:"updated"`
	Failed      int       `json:"failed"`
}

// NewNetworkImportedEvent creates the import summary event. The aggregate is the owner's network.
func NewNetworkImportedEvent(tenantID, ownerUserID uuid.UUID, created, updated, failed int) *NetworkImportedEvent {
	base := shared.NewBaseDomainEvent(EventTypeNetworkImported, AggregateTypeLinkedInContact, ownerUserID, tenantID)
	base.Actor = &ownerUserID
	return &NetworkImportedEvent{
		BaseDomainEvent: base,
		OwnerUserID:     ownerUserID,
		Created:         created,
		Updated:         updated,
		Failed:          failed,
	}
}

// RelationshipsDetectedEvent summarizes a matching run
type RelationshipsDetectedEvent struct {
	shared.BaseDomainEvent
	Suggested int `json:"suggested"`
	Removed   int `json:"removed"`
}

// NewRelationshipsDetectedEvent creates the matching summary event
func NewRelationshipsDetectedEvent(tenantID uuid.UUID, actor *uuid.UUID, suggested, removed int) *RelationshipsDetectedEvent {
	base := shared.NewBaseDomainEvent(EventTypeRelationshipsDetected, AggregateTypeRelationship, tenantID, tenantID)
	base.Actor = actor
	return &RelationshipsDetectedEvent{BaseDomainEvent: base, Suggested: suggested, Removed: removed}
}
