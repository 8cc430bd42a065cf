package preferences

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/domain/shared"
)

// EntityType is the list a saved filter applies to
type EntityType string

const (
	EntityInvestor EntityType = "investor"
	EntityContact  EntityType = "contact"
	EntityTask     EntityType = "task"
	EntityMeeting  EntityType = "meeting"
)

// IsValid reports whether the entity type is supported
func (e EntityType) IsValid() bool {
	switch e {
	case EntityInvestor, EntityContact, EntityTask, EntityMeeting:
		return true
	}
	return false
}

// SavedFilter is a named set of list criteria
type SavedFilter struct {
	shared.TenantAggregateRoot
	shared.SoftDeletable
	UserID    uuid.UUID
	Name      string
	Entity    EntityType
	Criteria  map[string]any
	IsDefault bool
	IsShared  bool
}

// NewSavedFilter creates a filter owned by a user
func NewSavedFilter(tenantID, userID uuid.UUID, name string, entity EntityType, criteria map[string]any) (*SavedFilter, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("USER_REQUIRED", "Saved filter must belong to a user")
	}
	if !entity.IsValid() {
		return nil, shared.NewDomainError("INVALID_ENTITY", "Unsupported filter entity: "+string(entity))
	}
	f := &SavedFilter{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		UserID:              userID,
		Entity:              entity,
	}
	if err := f.apply(name, criteria); err != nil {
		return nil, err
	}
	f.SetActor(userID)
	f.AddDomainEvent(newSavedFilterEvent(EventTypeSavedFilterCreated, f))
	return f, nil
}

// Update renames the filter and replaces its criteria
func (f *SavedFilter) Update(name string, criteria map[string]any, isShared bool) error {
	if err := f.ensureEditable(); err != nil {
		return err
	}
	if err := f.apply(name, criteria); err != nil {
		return err
	}
	f.IsShared = isShared
	f.touch()
	f.AddDomainEvent(newSavedFilterEvent(EventTypeSavedFilterUpdated, f))
	return nil
}

// MarkDefault makes this the user's default for its entity. Siblings are cleared by the repository.
func (f *SavedFilter) MarkDefault() error {
	if err := f.ensureEditable(); err != nil {
		return err
	}
	if f.IsDefault {
		return nil
	}
	f.IsDefault = true
	f.touch()
	return nil
}

// OwnedBy reports whether the user may modify the filter
func (f *SavedFilter) OwnedBy(userID uuid.UUID) bool {
	return f.UserID == userID
}

// VisibleTo reports whether the user can see the filter
func (f *SavedFilter) VisibleTo(userID uuid.UUID) bool {
	return f.IsShared || f.UserID == userID
}

// Delete moves the filter to the trash and drops its default flag
func (f *SavedFilter) Delete() error {
	if err := f.MarkDeleted(time.Now()); err != nil {
		return err
	}
	f.IsDefault = false
	f.touch()
	f.AddDomainEvent(newSavedFilterEvent(EventTypeSavedFilterDeleted, f))
	return nil
}

// Restore brings the filter back from the trash
func (f *SavedFilter) Restore() error {
	if err := f.MarkRestored(); err != nil {
		return err
	}
	f.touch()
	f.AddDomainEvent(newSavedFilterEvent(EventTypeSavedFilterRestored, f))
	return nil
}

func (f *SavedFilter) apply(name string, criteria map[string]any) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Filter name cannot be empty")
	}
	if len(name) > 100 {
		return shared.NewDomainError("INVALID_NAME", "Filter name cannot exceed 100 characters")
	}
	if criteria == nil {
		criteria = map[string]any{}
	}
	f.Name = name
	f.Criteria = criteria
	return nil
}

func (f *SavedFilter) ensureEditable() error {
	if f.IsDeleted() {
		return shared.NewDomainError("FILTER_DELETED", "Saved filter is in the trash, restore it first")
	}
	return nil
}

func (f *SavedFilter) touch() {
	f.UpdatedAt = time.Now()
	f.IncrementVersion()
}
