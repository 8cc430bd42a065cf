package activity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/domain/activity"
	"github.com/investorcrm/backend/internal/domain/contact"
	"github.com/investorcrm/backend/internal/domain/investor"
	"github.com/investorcrm/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// touchAttempts bounds the reload-and-retry loop of touchInvestor
const touchAttempts = 3

// ActivityService handles the investor timeline
type ActivityService struct {
	repo      activity.ActivityRepository
	investors investor.InvestorRepository
	contacts  contact.ContactRepository
	events    shared.EventPublisher
	logger    *zap.Logger
}

// NewActivityService creates a new ActivityService
func NewActivityService(
	repo activity.ActivityRepository,
	investors investor.InvestorRepository,
	contacts contact.ContactRepository,
	events shared.EventPublisher,
	logger *zap.Logger,
) *ActivityService {
	return &ActivityService{
		repo:      repo,
		investors: investors,
		contacts:  contacts,
		events:    events,
		logger:    logger,
	}
}

// Log records a manual activity
func (s *ActivityService) Log(ctx context.Context, tenantID, userID uuid.UUID, req LogActivityRequest) (*ActivityResponse, error) {
	if _, err := s.investors.FindByIDForTenant(ctx, tenantID, req.InvestorID); err != nil {
		return nil, err
	}
	if req.ContactID != nil {
		if _, err := s.contacts.FindByIDForTenant(ctx, tenantID, *req.ContactID); err != nil {
			return nil, err
		}
	}

	occurredAt := time.Now()
	if req.OccurredAt != nil {
		occurredAt = *req.OccurredAt
	}
	a, err := activity.NewActivity(tenantID, &req.InvestorID, activity.ActivityType(req.Type), req.Subject, occurredAt)
	if err != nil {
		return nil, err
	}
	a.ContactID = req.ContactID
	a.Body = req.Body
	if req.Metadata != nil {
		a.Metadata = req.Metadata
	}
	if req.Source != "" {
		a.WithSource(req.Source, "")
	}
	a.SetActor(userID)

	if _, err := s.Record(ctx, a); err != nil {
		return nil, err
	}
	resp := ToActivityResponse(a)
	return &resp, nil
}

// Record persists an activity produced by another part of the system (stage changes, sync, messaging).
// Items with an external id that was already recorded for the same source are skipped and reported as false.
func (s *ActivityService) Record(ctx context.Context, a *activity.Activity) (bool, error) {
	if a.ExternalID != "" {
		exists, err := s.repo.ExistsByExternalID(ctx, a.TenantID, a.Source, a.ExternalID)
		if err != nil {
			return false, err
		}
		if exists {
			return false, nil
		}
	}

	a.MarkLogged()
	if err := s.repo.Save(ctx, a); err != nil {
		return false, err
	}
	if a.CountsAsContact() && a.InvestorID != nil {
		s.touchInvestor(ctx, a.TenantID, *a.InvestorID, a.OccurredAt)
	}
	if err := shared.PublishAndClear(ctx, s.events, a); err != nil {
		s.logger.Warn("Failed to publish activity events", zap.Error(err))
	}
	return true, nil
}

// touchInvestor moves last_contacted_at forward. Failures are logged, the activity stays recorded.
// Writes are version-checked; on conflict it reloads and retries.
func (s *ActivityService) touchInvestor(ctx context.Context, tenantID, investorID uuid.UUID, at time.Time) {
	for attempt := 1; attempt <= touchAttempts; attempt++ {
		inv, err := s.investors.FindByIDForTenant(ctx, tenantID, investorID)
		if err != nil {
			s.logger.Debug("Investor not found while recording contact",
				zap.String("investor_id", investorID.String()), zap.Error(err))
			return
		}
		if !inv.RecordContact(at) {
			return
		}
		err = s.investors.SaveWithLock(ctx, inv)
		if err == nil {
			return
		}
		if !errors.Is(err, shared.ErrOptimisticLock) || attempt == touchAttempts {
			s.logger.Warn("Failed to update last contacted date",
				zap.String("investor_id", investorID.String()),
				zap.Int("attempt", attempt),
				zap.Error(err))
			return
		}
	}
}

// GetByID retrieves an activity
func (s *ActivityService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*ActivityResponse, error) {
	a, err := s.repo.FindByIDIncludingDeleted(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToActivityResponse(a)
	return &resp, nil
}

// List retrieves activities with filtering and pagination
func (s *ActivityService) List(ctx context.Context, tenantID uuid.UUID, filter ListFilter) ([]ActivityResponse, int64, error) {
	domainFilter := shared.Filter{
		Page:        filter.Page,
		PageSize:    filter.PageSize,
		OrderBy:     filter.OrderBy,
		OrderDir:    filter.OrderDir,
		Search:      filter.Search,
		OnlyDeleted: filter.Deleted,
		Filters:     make(map[string]any),
	}
	if domainFilter.OrderBy == "" {
		domainFilter.OrderBy = "occurred_at"
	}
	if filter.InvestorID != nil {
		domainFilter.Filters["investor_id"] = *filter.InvestorID
	}
	if filter.ContactID != nil {
		domainFilter.Filters["contact_id"] = *filter.ContactID
	}
	if filter.Type != "" {
		domainFilter.Filters["type"] = filter.Type
	}
	if filter.Source != "" {
		domainFilter.Filters["source"] = filter.Source
	}
	if filter.From != nil {
		domainFilter.Filters["from"] = *filter.From
	}
	if filter.To != nil {
		domainFilter.Filters["to"] = *filter.To
	}
	domainFilter = domainFilter.Normalize()

	items, err := s.repo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToActivityResponses(items), total, nil
}

// Update edits an activity. The request version must match the stored one.
func (s *ActivityService) Update(ctx context.Context, tenantID, userID, id uuid.UUID, req UpdateActivityRequest) (*ActivityResponse, error) {
	a, err := s.repo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := shared.CheckVersion(req.Version, a.Version); err != nil {
		return nil, err
	}
	a.SetActor(userID)
	if err := a.Edit(req.Subject, req.Body, req.OccurredAt); err != nil {
		return nil, err
	}
	if err := s.save(ctx, a); err != nil {
		return nil, err
	}
	resp := ToActivityResponse(a)
	return &resp, nil
}

// Delete moves an activity to the trash
func (s *ActivityService) Delete(ctx context.Context, tenantID, userID, id uuid.UUID) error {
	a, err := s.repo.FindByIDIncludingDeleted(ctx, tenantID, id)
	if err != nil {
		return err
	}
	a.SetActor(userID)
	if err := a.Delete(); err != nil {
		return err
	}
	return s.save(ctx, a)
}

// Restore brings an activity back from the trash
func (s *ActivityService) Restore(ctx context.Context, tenantID, userID, id uuid.UUID) (*ActivityResponse, error) {
	a, err := s.repo.FindByIDIncludingDeleted(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	a.SetActor(userID)
	if err := a.Restore(); err != nil {
		return nil, err
	}
	if err := s.save(ctx, a); err != nil {
		return nil, err
	}
	resp := ToActivityResponse(a)
	return &resp, nil
}

func (s *ActivityService) save(ctx context.Context, a *activity.Activity) error {
	if err := s.repo.SaveWithLock(ctx, a); err != nil {
		return err
	}
	if err := shared.PublishAndClear(ctx, s.events, a); err != nil {
		s.logger.Warn("Failed to publish activity events", zap.Error(err))
	}
	return nil
}
