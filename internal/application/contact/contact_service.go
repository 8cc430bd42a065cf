package contact

import (
	"context"

	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/domain/contact"
	"github.com/investorcrm/backend/internal/domain/investor"
	"github.com/investorcrm/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ContactService manages people at investor firms
type ContactService struct {
	repo      contact.ContactRepository
	investors investor.InvestorRepository
	events    shared.EventPublisher
	logger    *zap.Logger
}

// NewContactService creates a new ContactService
func NewContactService(
	repo contact.ContactRepository,
	investors investor.InvestorRepository,
	events shared.EventPublisher,
	logger *zap.Logger,
) *ContactService {
	return &ContactService{
		repo:      repo,
		investors: investors,
		events:    events,
		logger:    logger,
	}
}

// Create adds a contact. Emails are unique per tenant among live contacts.
func (s *ContactService) Create(ctx context.Context, tenantID, userID uuid.UUID, req CreateContactRequest) (*ContactResponse, error) {
	if err := s.checkInvestor(ctx, tenantID, req.InvestorID); err != nil {
		return nil, err
	}
	c, err := contact.NewContact(tenantID, req.InvestorID, req.details())
	if err != nil {
		return nil, err
	}
	if err := s.checkEmail(ctx, tenantID, c.Email, nil); err != nil {
		return nil, err
	}
	c.SetActor(userID)

	if err := s.repo.Save(ctx, c); err != nil {
		return nil, err
	}
	if req.IsPrimary && c.InvestorID != nil {
		if err := c.MakePrimary(); err != nil {
			return nil, err
		}
		if err := s.repo.SetPrimary(ctx, c); err != nil {
			return nil, err
		}
	}
	s.publish(ctx, c)

	resp := ToContactResponse(c)
	return &resp, nil
}

// GetByID retrieves a contact, including one in the trash
func (s *ContactService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*ContactResponse, error) {
	c, err := s.repo.FindByIDIncludingDeleted(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToContactResponse(c)
	return &resp, nil
}

// List retrieves contacts with filtering and pagination
func (s *ContactService) List(ctx context.Context, tenantID uuid.UUID, filter ListFilter) ([]ContactResponse, int64, error) {
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
		domainFilter.OrderBy = "last_name"
		if domainFilter.OrderDir == "" {
			domainFilter.OrderDir = "asc"
		}
	}
	if filter.InvestorID != nil {
		domainFilter.Filters["investor_id"] = *filter.InvestorID
	}
	if filter.IsPrimary != nil {
		domainFilter.Filters["is_primary"] = *filter.IsPrimary
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
	return ToContactResponses(items), total, nil
}

// ListByInvestor returns every live contact of an investor, primary first
func (s *ContactService) ListByInvestor(ctx context.Context, tenantID, investorID uuid.UUID) ([]ContactResponse, error) {
	if _, err := s.investors.FindByIDIncludingDeleted(ctx, tenantID, investorID); err != nil {
		return nil, err
	}
	items, err := s.repo.FindByInvestor(ctx, tenantID, investorID)
	if err != nil {
		return nil, err
	}
	return ToContactResponses(items), nil
}

// Update replaces the editable fields of a contact. The request version must match the stored one.
func (s *ContactService) Update(ctx context.Context, tenantID, userID, id uuid.UUID, req UpdateContactRequest) (*ContactResponse, error) {
	c, err := s.repo.FindByIDIncludingDeleted(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := shared.CheckVersion(req.Version, c.Version); err != nil {
		return nil, err
	}
	if err := s.checkInvestor(ctx, tenantID, req.InvestorID); err != nil {
		return nil, err
	}

	c.SetActor(userID)
	if err := c.Update(req.details()); err != nil {
		return nil, err
	}
	if err := s.checkEmail(ctx, tenantID, c.Email, &c.ID); err != nil {
		return nil, err
	}
	c.LinkInvestor(req.InvestorID)

	if err := s.save(ctx, c); err != nil {
		return nil, err
	}
	resp := ToContactResponse(c)
	return &resp, nil
}

// SetPrimary makes a contact the primary contact of its investor and clears the flag on the others
func (s *ContactService) SetPrimary(ctx context.Context, tenantID, userID, id uuid.UUID) (*ContactResponse, error) {
	c, err := s.repo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	c.SetActor(userID)
	if err := c.MakePrimary(); err != nil {
		return nil, err
	}
	if err := s.repo.SetPrimary(ctx, c); err != nil {
		return nil, err
	}
	s.publish(ctx, c)

	resp := ToContactResponse(c)
	return &resp, nil
}

// Delete moves a contact to the trash
func (s *ContactService) Delete(ctx context.Context, tenantID, userID, id uuid.UUID) error {
	c, err := s.repo.FindByIDIncludingDeleted(ctx, tenantID, id)
	if err != nil {
		return err
	}
	c.SetActor(userID)
	if err := c.Delete(); err != nil {
		return err
	}
	return s.save(ctx, c)
}

// Restore brings a contact back from the trash. It fails when a live contact took its email meanwhile.
func (s *ContactService) Restore(ctx context.Context, tenantID, userID, id uuid.UUID) (*ContactResponse, error) {
	c, err := s.repo.FindByIDIncludingDeleted(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if c.IsDeleted() {
		if err := s.checkEmail(ctx, tenantID, c.Email, &c.ID); err != nil {
			return nil, err
		}
	}
	c.SetActor(userID)
	if err := c.Restore(); err != nil {
		return nil, err
	}
	if err := s.save(ctx, c); err != nil {
		return nil, err
	}
	resp := ToContactResponse(c)
	return &resp, nil
}

func (s *ContactService) checkInvestor(ctx context.Context, tenantID uuid.UUID, investorID *uuid.UUID) error {
	if investorID == nil {
		return nil
	}
	_, err := s.investors.FindByIDForTenant(ctx, tenantID, *investorID)
	return err
}

func (s *ContactService) checkEmail(ctx context.Context, tenantID uuid.UUID, email string, excludeID *uuid.UUID) error {
	if email == "" {
		return nil
	}
	exists, err := s.repo.ExistsByEmail(ctx, tenantID, email, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return shared.NewDomainError("ALREADY_EXISTS", "A contact with this email already exists")
	}
	return nil
}

func (s *ContactService) save(ctx context.Context, c *contact.Contact) error {
	if err := s.repo.SaveWithLock(ctx, c); err != nil {
		return err
	}
	s.publish(ctx, c)
	return nil
}

func (s *ContactService) publish(ctx context.Context, c *contact.Contact) {
	if err := shared.PublishAndClear(ctx, s.events, c); err != nil {
		s.logger.Warn("Failed to publish contact events", zap.Error(err))
	}
}
