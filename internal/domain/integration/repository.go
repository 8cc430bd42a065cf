package integration

import (
	"context"

	"github.com/google/uuid"
)

// GoogleConnectionRepository defines the interface for Google connection persistence
type GoogleConnectionRepository interface {
	FindByUser(ctx context.Context, tenantID, userID uuid.UUID) (*GoogleConnection, error)

	// FindAll returns every connection across tenants, for the sync job
	FindAll(ctx context.Context) ([]GoogleConnection, error)
	Save(ctx context.Context, c *GoogleConnection) error
	Delete(ctx context.Context, tenantID, userID uuid.UUID) error
}
