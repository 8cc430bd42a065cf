package contact

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/domain/shared"
)

// ContactRepository defines the interface for contact persistence
type ContactRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Contact, error)
	FindByIDIncludingDeleted(ctx context.Context, tenantID, id uuid.UUID) (*Contact, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Contact, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	FindByInvestor(ctx context.Context, tenantID, investorID uuid.UUID) ([]Contact, error)

	// FindByEmails returns live contacts whose email is in the list (case-insensitive)
	FindByEmails(ctx context.Context, tenantID uuid.UUID, emails []string) ([]Contact, error)

	// FindByPhone returns the first live contact whose phone digits match
	FindByPhone(ctx context.Context, tenantID uuid.UUID, phone string) (*Contact, error)

	ExistsByEmail(ctx context.Context, tenantID uuid.UUID, email string, excludeID *uuid.UUID) (bool, error)

	Save(ctx context.Context, c *Contact) error
	SaveWithLock(ctx context.Context, c *Contact) error

	// SetPrimary flags one contact as primary and clears the flag on its siblings atomically
	SetPrimary(ctx context.Context, c *Contact) error

	PurgeDeletedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
