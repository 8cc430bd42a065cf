package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/domain/contact"
	"github.com/investorcrm/backend/internal/domain/shared"
	"github.com/investorcrm/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormContactRepository implements ContactRepository using GORM
type GormContactRepository struct {
	db *gorm.DB
}

// NewGormContactRepository creates a new GormContactRepository
func NewGormContactRepository(db *gorm.DB) *GormContactRepository {
	return &GormContactRepository{db: db}
}

// FindByIDForTenant finds a live contact by ID within a tenant
func (r *GormContactRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*contact.Contact, error) {
	var model models.ContactModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ? AND deleted_at IS NULL", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByIDIncludingDeleted finds a contact even when it is in the trash
func (r *GormContactRepository) FindByIDIncludingDeleted(ctx context.Context, tenantID, id uuid.UUID) (*contact.Contact, error) {
	var model models.ContactModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists contacts with filtering and paging
func (r *GormContactRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]contact.Contact, error) {
	var rows []models.ContactModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.ContactModel{}).Where("tenant_id = ?", tenantID), filter)
	query = applyPaging(query, filter, ContactSortFields, "last_name")
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return toContacts(rows), nil
}

// CountForTenant counts contacts matching the filter
func (r *GormContactRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.ContactModel{}).Where("tenant_id = ?", tenantID), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindByInvestor lists the live contacts of an investor, primary first
func (r *GormContactRepository) FindByInvestor(ctx context.Context, tenantID, investorID uuid.UUID) ([]contact.Contact, error) {
	var rows []models.ContactModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND investor_id = ? AND deleted_at IS NULL", tenantID, investorID).
		Order("is_primary DESC, last_name ASC, first_name ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toContacts(rows), nil
}

// FindByEmails returns live contacts whose email is in the list
func (r *GormContactRepository) FindByEmails(ctx context.Context, tenantID uuid.UUID, emails []string) ([]contact.Contact, error) {
	if len(emails) == 0 {
		return []contact.Contact{}, nil
	}
	lowered := make([]string, len(emails))
	for i, e := range emails {
		lowered[i] = shared.NormalizeEmail(e)
	}
	var rows []models.ContactModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND deleted_at IS NULL AND email IN ?", tenantID, lowered).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toContacts(rows), nil
}

// FindByPhone returns the first live contact whose phone digits match.
// Numbers are compared on their last 10 digits so country-code formatting differences still match.
func (r *GormContactRepository) FindByPhone(ctx context.Context, tenantID uuid.UUID, phone string) (*contact.Contact, error) {
	digits := digitsOnly(phone)
	if len(digits) < 7 {
		return nil, shared.ErrNotFound
	}
	if len(digits) > 10 {
		digits = digits[len(digits)-10:]
	}
	var rows []models.ContactModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND deleted_at IS NULL AND phone <> ''", tenantID).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		if strings.HasSuffix(digitsOnly(rows[i].Phone), digits) {
			return rows[i].ToDomain(), nil
		}
	}
	return nil, shared.ErrNotFound
}

// ExistsByEmail checks for another live contact with the email
func (r *GormContactRepository) ExistsByEmail(ctx context.Context, tenantID uuid.UUID, email string, excludeID *uuid.UUID) (bool, error) {
	if email == "" {
		return false, nil
	}
	var count int64
	query := r.db.WithContext(ctx).
		Model(&models.ContactModel{}).
		Where("tenant_id = ? AND deleted_at IS NULL AND email = ?", tenantID, shared.NormalizeEmail(email))
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates a contact
func (r *GormContactRepository) Save(ctx context.Context, c *contact.Contact) error {
	if err := r.db.WithContext(ctx).Save(models.ContactModelFromDomain(c)).Error; err != nil {
		return err
	}
	c.MarkLoaded()
	return nil
}

// SaveWithLock updates a contact guarded by its loaded version
func (r *GormContactRepository) SaveWithLock(ctx context.Context, c *contact.Contact) error {
	if err := updateWithLock(ctx, r.db, models.ContactModelFromDomain(c), c.ID, c.LoadedVersion()); err != nil {
		return err
	}
	c.MarkLoaded()
	return nil
}

// SetPrimary flags one contact as primary and clears the flag on its siblings in one transaction
func (r *GormContactRepository) SetPrimary(ctx context.Context, c *contact.Contact) error {
	if c.InvestorID == nil {
		return shared.NewDomainError("NO_INVESTOR", "Only contacts linked to an investor can be primary")
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.ContactModel{}).
			Where("tenant_id = ? AND investor_id = ? AND id <> ? AND is_primary = ?", c.TenantID, *c.InvestorID, c.ID, true).
			Updates(map[string]any{
				"is_primary": false,
				"updated_at": time.Now(),
				"version":    gorm.Expr("version + 1"),
			}).Error; err != nil {
			return err
		}
		return updateWithLock(ctx, tx, models.ContactModelFromDomain(c), c.ID, c.LoadedVersion())
	})
	if err != nil {
		return err
	}
	c.MarkLoaded()
	return nil
}

// PurgeDeletedBefore hard-deletes contacts soft-deleted before the cutoff
func (r *GormContactRepository) PurgeDeletedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return purgeDeleted(ctx, r.db, &models.ContactModel{}, cutoff)
}

func (r *GormContactRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = scopeDeleted(query, filter)
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(title) LIKE ?",
			pattern, pattern, pattern, pattern)
	}
	for key, value := range filter.Filters {
		switch key {
		case "investor_id":
			if id, ok := uuidFilter(value); ok {
				query = query.Where("investor_id = ?", id)
			}
		case "is_primary":
			query = query.Where("is_primary = ?", value)
		}
	}
	return query
}

func toContacts(rows []models.ContactModel) []contact.Contact {
	out := make([]contact.Contact, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Ensure GormContactRepository implements ContactRepository
var _ contact.ContactRepository = (*GormContactRepository)(nil)
