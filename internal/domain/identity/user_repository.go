package identity

import (
	"context"

	"github.com/google/uuid"
)

// UserRepository defines the interface for user persistence
type UserRepository interface {
	// FindByID finds a user by ID within the tenant
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*User, error)

	// FindByEmail finds a user by email within the tenant
	FindByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*User, error)

	// FindAllByEmail finds users with the email across tenants (login without tenant slug)
	FindAllByEmail(ctx context.Context, email string) ([]User, error)

	// FindAll returns users for the tenant with pagination
	FindAll(ctx context.Context, tenantID uuid.UUID, filter UserFilter) ([]User, int64, error)

	// FindByIDs loads users for display (owner names in intro paths, assignees)
	FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]User, error)

	// ExistsByEmail checks if an email already exists in the tenant
	ExistsByEmail(ctx context.Context, tenantID uuid.UUID, email string) (bool, error)

	// CountByRole counts active users with a role
	CountByRole(ctx context.Context, tenantID uuid.UUID, role Role) (int64, error)

	Save(ctx context.Context, user *User) error
}

// UserFilter contains filter options for querying users
type UserFilter struct {
	// Search keyword for email or display name
	Keyword string
	Status  *UserStatus
	Role    *Role

	Page     int
	PageSize int

	SortBy    string
	SortOrder string // "asc" or "desc"
}

// NewUserFilter creates a new UserFilter with default values
func NewUserFilter() UserFilter {
	return UserFilter{
		Page:      1,
		PageSize:  20,
		SortBy:    "created_at",
		SortOrder: "asc",
	}
}
