package network

import (
	"time"

	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/domain/shared"
)

// RelationshipType describes why a connection links to an investor
type RelationshipType string

const (
	RelationshipWorksAtFirm     RelationshipType = "works_at_firm"
	RelationshipFormerColleague RelationshipType = "former_colleague"
	RelationshipSameName        RelationshipType = "same_name"
	RelationshipEmailDomain     RelationshipType = "email_domain"
)

// RelationshipStatus tracks user review of a detected relationship
type RelationshipStatus string

const (
	RelationshipSuggested RelationshipStatus = "suggested"
	RelationshipConfirmed RelationshipStatus = "confirmed"
	RelationshipDismissed RelationshipStatus = "dismissed"
)

// InvestorRelationship is a warm-intro path from a team member to an investor
type InvestorRelationship struct {
	shared.TenantAggregateRoot
	InvestorID        uuid.UUID
	LinkedInContactID uuid.UUID
	OwnerUserID       uuid.UUID
	Type              RelationshipType
	Strength          int
	Path              string
	Status            RelationshipStatus
	DetectedAt        time.Time
	ReviewedBy        *uuid.UUID
	ReviewedAt        *time.Time
}

// NewSuggestedRelationship builds a relationship from a matcher result
func NewSuggestedRelationship(tenantID uuid.UUID, m Match) *InvestorRelationship {
	r := &InvestorRelationship{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		InvestorID:          m.InvestorID,
		LinkedInContactID:   m.ContactID,
		OwnerUserID:         m.OwnerUserID,
		Type:                m.Type,
		Strength:            m.Strength,
		Path:                m.Path,
		Status:              RelationshipSuggested,
	}
	r.DetectedAt = r.CreatedAt
	return r
}

// IsReviewed reports whether a user has confirmed or dismissed the relationship
func (r *InvestorRelationship) IsReviewed() bool {
	return r.Status != RelationshipSuggested
}

// Confirm marks the path as real
func (r *InvestorRelationship) Confirm(userID uuid.UUID) error {
	return r.review(userID, RelationshipConfirmed, EventTypeRelationshipConfirmed)
}

// Dismiss hides the path from warm-intro lists and future matching runs
func (r *InvestorRelationship) Dismiss(userID uuid.UUID) error {
	return r.review(userID, RelationshipDismissed, EventTypeRelationshipDismissed)
}

func (r *InvestorRelationship) review(userID uuid.UUID, to RelationshipStatus, eventType string) error {
	if r.Status == to {
		return shared.NewDomainError("INVALID_STATE", "Relationship is already "+string(to))
	}
	now := time.Now()
	r.Status = to
	r.ReviewedBy = &userID
	r.ReviewedAt = &now
	r.UpdatedAt = now
	r.IncrementVersion()
	r.SetActor(userID)
	r.AddDomainEvent(newRelationshipEvent(eventType, r))
	return nil
}
