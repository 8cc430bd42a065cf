package preferences

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/domain/preferences"
	"github.com/investorcrm/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// PreferencesService manages saved filters and per-user settings
type PreferencesService struct {
	filters  preferences.SavedFilterRepository
	settings preferences.UserPreferencesRepository
	events   shared.EventPublisher
	logger   *zap.Logger
}

// NewPreferencesService creates a new PreferencesService
func NewPreferencesService(
	filters preferences.SavedFilterRepository,
	settings preferences.UserPreferencesRepository,
	events shared.EventPublisher,
	logger *zap.Logger,
) *PreferencesService {
	return &PreferencesService{
		filters:  filters,
		settings: settings,
		events:   events,
		logger:   logger,
	}
}

// CreateFilter saves a new filter for the user
func (s *PreferencesService) CreateFilter(ctx context.Context, tenantID, userID uuid.UUID, req CreateFilterRequest) (*FilterResponse, error) {
	entity := preferences.EntityType(req.Entity)
	if err := s.checkName(ctx, tenantID, userID, entity, req.Name, uuid.Nil); err != nil {
		return nil, err
	}

	f, err := preferences.NewSavedFilter(tenantID, userID, req.Name, entity, req.Criteria)
	if err != nil {
		return nil, err
	}
	f.IsShared = req.IsShared

	if err := s.filters.Save(ctx, f); err != nil {
		return nil, err
	}
	if req.IsDefault {
		if err := f.MarkDefault(); err != nil {
			return nil, err
		}
		if err := s.filters.SetDefault(ctx, f); err != nil {
			return nil, err
		}
	}
	s.publish(ctx, f)

	resp := ToFilterResponse(f, userID)
	return &resp, nil
}

// GetFilter returns a filter the user can see
func (s *PreferencesService) GetFilter(ctx context.Context, tenantID, userID, id uuid.UUID) (*FilterResponse, error) {
	f, err := s.filters.FindByIDIncludingDeleted(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if !f.VisibleTo(userID) {
		return nil, shared.ErrNotFound
	}
	resp := ToFilterResponse(f, userID)
	return &resp, nil
}

// ListForUser returns the user's own filters plus the ones shared with the tenant.
// An empty entity lists every entity.
func (s *PreferencesService) ListForUser(ctx context.Context, tenantID, userID uuid.UUID, entity string) ([]FilterResponse, error) {
	if entity != "" && !preferences.EntityType(entity).IsValid() {
		return nil, shared.NewDomainError("INVALID_ENTITY", "Unsupported filter entity: "+entity)
	}
	items, err := s.filters.FindVisible(ctx, tenantID, userID, preferences.EntityType(entity))
	if err != nil {
		return nil, err
	}
	return toFilterResponses(items, userID), nil
}

// ListDeletedFilters returns the user's trashed filters
func (s *PreferencesService) ListDeletedFilters(ctx context.Context, tenantID, userID uuid.UUID) ([]FilterResponse, error) {
	items, err := s.filters.FindDeletedForUser(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}
	return toFilterResponses(items, userID), nil
}

// UpdateFilter changes a filter owned by the user
func (s *PreferencesService) UpdateFilter(ctx context.Context, tenantID, userID, id uuid.UUID, req UpdateFilterRequest) (*FilterResponse, error) {
	f, err := s.owned(ctx, tenantID, userID, id, false)
	if err != nil {
		return nil, err
	}
	if err := shared.CheckVersion(req.Version, f.Version); err != nil {
		return nil, err
	}
	if err := s.checkName(ctx, tenantID, userID, f.Entity, req.Name, f.ID); err != nil {
		return nil, err
	}

	f.SetActor(userID)
	if err := f.Update(req.Name, req.Criteria, req.IsShared); err != nil {
		return nil, err
	}
	if err := s.save(ctx, f); err != nil {
		return nil, err
	}
	resp := ToFilterResponse(f, userID)
	return &resp, nil
}

// SetDefault makes the filter the user's default for its entity
func (s *PreferencesService) SetDefault(ctx context.Context, tenantID, userID, id uuid.UUID) (*FilterResponse, error) {
	f, err := s.owned(ctx, tenantID, userID, id, false)
	if err != nil {
		return nil, err
	}
	f.SetActor(userID)
	if err := f.MarkDefault(); err != nil {
		return nil, err
	}
	if err := s.filters.SetDefault(ctx, f); err != nil {
		return nil, err
	}
	resp := ToFilterResponse(f, userID)
	return &resp, nil
}

// DeleteFilter moves the filter to the trash
func (s *PreferencesService) DeleteFilter(ctx context.Context, tenantID, userID, id uuid.UUID) error {
	f, err := s.owned(ctx, tenantID, userID, id, true)
	if err != nil {
		return err
	}
	f.SetActor(userID)
	if err := f.Delete(); err != nil {
		return err
	}
	return s.save(ctx, f)
}

// RestoreFilter brings a filter back from the trash
func (s *PreferencesService) RestoreFilter(ctx context.Context, tenantID, userID, id uuid.UUID) (*FilterResponse, error) {
	f, err := s.owned(ctx, tenantID, userID, id, true)
	if err != nil {
		return nil, err
	}
	if err := s.checkName(ctx, tenantID, userID, f.Entity, f.Name, f.ID); err != nil {
		return nil, err
	}
	f.SetActor(userID)
	if err := f.Restore(); err != nil {
		return nil, err
	}
	if err := s.save(ctx, f); err != nil {
		return nil, err
	}
	resp := ToFilterResponse(f, userID)
	return &resp, nil
}

// GetPreferences returns the user's settings, or the defaults when none were saved
func (s *PreferencesService) GetPreferences(ctx context.Context, tenantID, userID uuid.UUID) (*PreferencesResponse, error) {
	p, err := s.loadPreferences(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}
	resp := ToPreferencesResponse(p)
	return &resp, nil
}

// UpdatePreferences validates and stores the user's settings
func (s *PreferencesService) UpdatePreferences(ctx context.Context, tenantID, userID uuid.UUID, req UpdatePreferencesRequest) (*PreferencesResponse, error) {
	p, err := s.loadPreferences(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}
	if p.IsPersisted() {
		if err := shared.CheckVersion(req.Version, p.Version); err != nil {
			return nil, err
		}
	}

	p.SetActor(userID)
	if err := p.Apply(preferences.Settings{
		Timezone:            req.Timezone,
		DateFormat:          req.DateFormat,
		DefaultPipelineView: preferences.PipelineView(req.DefaultPipelineView),
		PipelineColumns:     req.PipelineColumns,
		EmailNotifications:  req.EmailNotifications,
		DigestFrequency:     preferences.DigestFrequency(req.DigestFrequency),
		Theme:               preferences.Theme(req.Theme),
		AssistantEnabled:    req.AssistantEnabled,
	}); err != nil {
		return nil, err
	}
	if err := s.settings.Upsert(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Debug("User preferences updated",
		zap.String("tenant_id", tenantID.String()),
		zap.String("user_id", userID.String()),
		zap.Int("version", p.Version),
	)
	resp := ToPreferencesResponse(p)
	return &resp, nil
}

func (s *PreferencesService) loadPreferences(ctx context.Context, tenantID, userID uuid.UUID) (*preferences.UserPreferences, error) {
	p, err := s.settings.FindByUser(ctx, tenantID, userID)
	if errors.Is(err, shared.ErrNotFound) {
		return preferences.DefaultPreferences(tenantID, userID), nil
	}
	return p, err
}

func (s *PreferencesService) owned(ctx context.Context, tenantID, userID, id uuid.UUID, includeDeleted bool) (*preferences.SavedFilter, error) {
	var (
		f   *preferences.SavedFilter
		err error
	)
	if includeDeleted {
		f, err = s.filters.FindByIDIncludingDeleted(ctx, tenantID, id)
	} else {
		f, err = s.filters.FindByIDForTenant(ctx, tenantID, id)
	}
	if err != nil {
		return nil, err
	}
	if !f.VisibleTo(userID) {
		return nil, shared.ErrNotFound
	}
	if !f.OwnedBy(userID) {
		return nil, shared.ErrForbidden
	}
	return f, nil
}

func (s *PreferencesService) checkName(ctx context.Context, tenantID, userID uuid.UUID, entity preferences.EntityType, name string, excludeID uuid.UUID) error {
	exists, err := s.filters.ExistsByName(ctx, tenantID, userID, entity, name, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return shared.NewDomainError("ALREADY_EXISTS", "A filter with this name already exists")
	}
	return nil
}

func (s *PreferencesService) save(ctx context.Context, f *preferences.SavedFilter) error {
	if err := s.filters.SaveWithLock(ctx, f); err != nil {
		return err
	}
	s.publish(ctx, f)
	return nil
}

func (s *PreferencesService) publish(ctx context.Context, f *preferences.SavedFilter) {
	if err := shared.PublishAndClear(ctx, s.events, f); err != nil {
		s.logger.Warn("Failed to publish saved filter events", zap.Error(err))
	}
}

func toFilterResponses(items []preferences.SavedFilter, userID uuid.UUID) []FilterResponse {
	out := make([]FilterResponse, len(items))
	for i := range items {
		out[i] = ToFilterResponse(&items[i], userID)
	}
	return out
}
