package network

import (
	"context"

	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/domain/shared"
)

// LinkedInContactRepository defines the interface for imported connections
type LinkedInContactRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*LinkedInContact, error)
	FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]LinkedInContact, error)

	// FindAllForTenant supports filters: owner_user_id, company
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]LinkedInContact, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	FindAllByTenant(ctx context.Context, tenantID uuid.UUID) ([]LinkedInContact, error)
	FindByOwner(ctx context.Context, tenantID, ownerUserID uuid.UUID) ([]LinkedInContact, error)

	SaveBatch(ctx context.Context, contacts []*LinkedInContact) error
}

// RelationshipRepository defines the interface for detected relationships
type RelationshipRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*InvestorRelationship, error)

	// FindByInvestor returns non-dismissed relationships, strongest first
	FindByInvestor(ctx context.Context, tenantID, investorID uuid.UUID) ([]InvestorRelationship, error)
	FindReviewed(ctx context.Context, tenantID uuid.UUID) ([]InvestorRelationship, error)

	// ReplaceSuggested deletes the tenant's suggested relationships and inserts the new ones atomically.
	// Returns the number of removed rows.
	ReplaceSuggested(ctx context.Context, tenantID uuid.UUID, rels []*InvestorRelationship) (int64, error)
	Save(ctx context.Context, r *InvestorRelationship) error
	SaveWithLock(ctx context.Context, r *InvestorRelationship) error
}
