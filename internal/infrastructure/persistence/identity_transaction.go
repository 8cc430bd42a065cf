package persistence

import (
	"context"

	"github.com/investorcrm/backend/internal/domain/identity"
	"gorm.io/gorm"
)

// GormIdentityTransaction runs tenant and user writes in one database transaction
type GormIdentityTransaction struct {
	db *gorm.DB
}

// NewGormIdentityTransaction creates a new GormIdentityTransaction
func NewGormIdentityTransaction(db *gorm.DB) *GormIdentityTransaction {
	return &GormIdentityTransaction{db: db}
}

// Execute calls fn with repositories bound to a transaction. An error from fn rolls it back.
func (t *GormIdentityTransaction) Execute(ctx context.Context, fn func(tenants identity.TenantRepository, users identity.UserRepository) error) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewGormTenantRepository(tx), NewGormUserRepository(tx))
	})
}
