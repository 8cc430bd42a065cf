package network

import (
	"bytes"
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/domain/identity"
	"github.com/investorcrm/backend/internal/domain/investor"
	"github.com/investorcrm/backend/internal/domain/network"
	"github.com/investorcrm/backend/internal/domain/shared"
	"github.com/investorcrm/backend/internal/infrastructure/cache"
	csvimport "github.com/investorcrm/backend/internal/infrastructure/import"
	"github.com/investorcrm/backend/internal/infrastructure/storage"
	"github.com/investorcrm/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

const (
	importContentType = "text/csv"
	matchLockTTL      = 5 * time.Minute
	maxImportErrors   = 100
)

// Config tunes NetworkService
type Config struct {
	Objects        storage.ObjectStorage
	Locks          cache.Cache
	UploadTTL      time.Duration
	MaxImportRows  int
	MinScore       int
	MaxPerInvestor int
}

// NetworkService imports team networks and turns them into warm-intro paths
type NetworkService struct {
	contacts  network.LinkedInContactRepository
	rels      network.RelationshipRepository
	investors investor.InvestorRepository
	users     identity.UserRepository
	cfg       Config
	events    shared.EventPublisher
	metrics   *telemetry.Metrics
	logger    *zap.Logger
}

// NewNetworkService creates a new NetworkService
func NewNetworkService(
	contacts network.LinkedInContactRepository,
	rels network.RelationshipRepository,
	investors investor.InvestorRepository,
	users identity.UserRepository,
	cfg Config,
	events shared.EventPublisher,
	metrics *telemetry.Metrics,
	logger *zap.Logger,
) *NetworkService {
	if cfg.UploadTTL <= 0 {
		cfg.UploadTTL = 15 * time.Minute
	}
	return &NetworkService{
		contacts:  contacts,
		rels:      rels,
		investors: investors,
		users:     users,
		cfg:       cfg,
		events:    events,
		metrics:   metrics,
		logger:    logger,
	}
}

// ImportCSV upserts the connections of ownerUserID from a LinkedIn export.
// Invalid rows are reported in the result; file-level problems fail the import.
func (s *NetworkService) ImportCSV(ctx context.Context, tenantID, ownerUserID uuid.UUID, r io.Reader) (result *ImportResult, err error) {
	ctx, span := telemetry.StartSpan(ctx, "NetworkService", "ImportCSV", telemetry.AttrTenantID, tenantID.String())
	defer telemetry.End(span, &err)

	if _, err = s.users.FindByID(ctx, tenantID, ownerUserID); err != nil {
		return nil, err
	}

	parsed, err := csvimport.ParseConnections(r, csvimport.ConnectionsOptions{
		MaxRows:   s.cfg.MaxImportRows,
		MaxErrors: maxImportErrors,
	})
	if err != nil {
		return nil, importFileError(err)
	}

	existing, err := s.contacts.FindByOwner(ctx, tenantID, ownerUserID)
	if err != nil {
		return nil, err
	}
	byKey := make(map[string]*network.LinkedInContact, len(existing))
	for i := range existing {
		byKey[existing[i].DedupKey()] = &existing[i]
	}

	result = &ImportResult{
		TotalRows: parsed.TotalRows,
		Errors:    parsed.Errors,
		Truncated: parsed.Truncated,
		Failed:    parsed.TotalErrors,
	}
	if result.Errors == nil {
		result.Errors = []csvimport.RowError{}
	}

	batch := make([]*network.LinkedInContact, 0, len(parsed.Connections))
	for _, conn := range parsed.Connections {
		key := network.ConnectionKey(conn.ProfileURL, conn.FirstName, conn.LastName, conn.Company)
		if c, ok := byKey[key]; ok {
			changed, err := c.Refresh(conn.ConnectionData)
			if err != nil {
				result.addRowError(conn.Line, err)
				continue
			}
			if !changed {
				result.Unchanged++
				continue
			}
			batch = append(batch, c)
			result.Updated++
			continue
		}

		c, err := network.NewLinkedInContact(tenantID, ownerUserID, conn.ConnectionData)
		if err != nil {
			result.addRowError(conn.Line, err)
			continue
		}
		byKey[key] = c
		batch = append(batch, c)
		result.Created++
	}

	if err = s.contacts.SaveBatch(ctx, batch); err != nil {
		return nil, err
	}

	s.metrics.ImportRows(result.Created+result.Updated, result.Unchanged, result.Failed)
	event := network.NewNetworkImportedEvent(tenantID, ownerUserID, result.Created, result.Updated, result.Failed)
	if s.events != nil {
		if pubErr := s.events.Publish(ctx, event); pubErr != nil {
			s.logger.Warn("Failed to publish import event", zap.Error(pubErr))
		}
	}
	s.logger.Info("LinkedIn connections imported",
		zap.String("tenant_id", tenantID.String()),
		zap.String("owner_user_id", ownerUserID.String()),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

func (r *ImportResult) addRowError(line int, err error) {
	r.Failed++
	if len(r.Errors) >= maxImportErrors {
		r.Truncated = true
		return
	}
	r.Errors = append(r.Errors, csvimport.NewRowError(line, "", csvimport.ErrCodeImportValidation, err.Error()))
}

// ImportUploadURL returns a presigned PUT target for a connections file
func (s *NetworkService) ImportUploadURL(ctx context.Context, tenantID, userID uuid.UUID) (*UploadURLResponse, error) {
	if s.cfg.Objects == nil {
		return nil, shared.ErrIntegrationDisabled
	}
	presigned, err := s.cfg.Objects.PresignPut(ctx, storage.ImportKey(tenantID, userID), importContentType, s.cfg.UploadTTL)
	if err != nil {
		if errors.Is(err, storage.ErrPresignUnsupported) {
			return nil, shared.ErrIntegrationDisabled
		}
		return nil, shared.WrapDomainError("INTEGRATION_ERROR", "Failed to create upload URL", err)
	}
	return &UploadURLResponse{
		URL:       presigned.URL,
		Key:       presigned.Key,
		Method:    presigned.Method,
		ExpiresAt: presigned.ExpiresAt,
	}, nil
}

// ImportFromStorage imports a connections file uploaded to object storage
func (s *NetworkService) ImportFromStorage(ctx context.Context, tenantID, ownerUserID uuid.UUID, key string) (*ImportResult, error) {
	if !storage.BelongsToTenant(key, tenantID) {
		return nil, shared.NewDomainError("INVALID_KEY", "Import key does not belong to this workspace")
	}
	if s.cfg.Objects == nil {
		return nil, shared.ErrIntegrationDisabled
	}
	data, err := s.cfg.Objects.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, shared.NewDomainError("IMPORT_NOT_UPLOADED", "No file was uploaded under this key")
		}
		return nil, shared.WrapDomainError("INTEGRATION_ERROR", "Failed to read import file", err)
	}
	result, err := s.ImportCSV(ctx, tenantID, ownerUserID, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if delErr := s.cfg.Objects.Delete(ctx, key); delErr != nil {
		s.logger.Debug("Failed to remove processed import file", zap.String("key", key), zap.Error(delErr))
	}
	return result, nil
}

// ListContacts lists imported connections
func (s *NetworkService) ListContacts(ctx context.Context, tenantID uuid.UUID, filter ContactListFilter) ([]ConnectionResponse, int64, error) {
	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
		Filters:  make(map[string]any),
	}
	if domainFilter.OrderBy == "" {
		domainFilter.OrderBy = "last_name"
		if domainFilter.OrderDir == "" {
			domainFilter.OrderDir = "asc"
		}
	}
	if filter.OwnerUserID != nil {
		domainFilter.Filters["owner_user_id"] = *filter.OwnerUserID
	}
	if filter.Company != "" {
		domainFilter.Filters["company"] = filter.Company
	}
	domainFilter = domainFilter.Normalize()

	items, err := s.contacts.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.contacts.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]ConnectionResponse, len(items))
	for i := range items {
		out[i] = ToConnectionResponse(&items[i])
	}
	return out, total, nil
}

// RunMatching recomputes suggested relationships for the tenant. Confirmed and dismissed
// relationships are kept and their pairs are never suggested again. One run per tenant at a time.
func (s *NetworkService) RunMatching(ctx context.Context, tenantID uuid.UUID, actorID *uuid.UUID) (result *MatchResult, err error) {
	ctx, span := telemetry.StartSpan(ctx, "NetworkService", "RunMatching", telemetry.AttrTenantID, tenantID.String())
	defer telemetry.End(span, &err)

	release, err := s.acquireMatchLock(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	defer release()

	contacts, err := s.contacts.FindAllByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	investors, err := s.investors.FindAllOpen(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	reviewed, err := s.rels.FindReviewed(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	targets := make([]network.InvestorTarget, len(investors))
	for i, inv := range investors {
		targets[i] = network.InvestorTarget{
			ID:       inv.ID,
			Name:     inv.Name,
			FirmName: inv.FirmName,
			Website:  inv.Website,
		}
	}

	skip := make(map[network.Pair]bool, len(reviewed))
	for _, r := range reviewed {
		skip[network.Pair{InvestorID: r.InvestorID, ContactID: r.LinkedInContactID}] = true
	}

	matches := network.DetectRelationships(contacts, targets, network.MatchOptions{
		MinScore:       s.cfg.MinScore,
		MaxPerInvestor: s.cfg.MaxPerInvestor,
		OwnerNames:     s.ownerNames(ctx, tenantID, contacts),
		Reviewed:       skip,
	})

	result = &MatchResult{Contacts: len(contacts), Investors: len(investors)}
	rels := make([]*network.InvestorRelationship, 0, len(matches))
	for _, m := range matches {
		if m.Reviewed {
			result.Reviewed++
			continue
		}
		rel := network.NewSuggestedRelationship(tenantID, m)
		if actorID != nil {
			rel.SetActor(*actorID)
		}
		rels = append(rels, rel)
		s.metrics.RelationshipDetected(string(m.Type))
	}

	removed, err := s.rels.ReplaceSuggested(ctx, tenantID, rels)
	if err != nil {
		return nil, err
	}
	result.Suggested = len(rels)
	result.Removed = int(removed)

	if s.events != nil {
		event := network.NewRelationshipsDetectedEvent(tenantID, actorID, result.Suggested, result.Removed)
		if pubErr := s.events.Publish(ctx, event); pubErr != nil {
			s.logger.Warn("Failed to publish matching event", zap.Error(pubErr))
		}
	}
	s.logger.Info("Relationship matching finished",
		zap.String("tenant_id", tenantID.String()),
		zap.Int("contacts", result.Contacts),
		zap.Int("investors", result.Investors),
		zap.Int("suggested", result.Suggested),
		zap.Int("removed", result.Removed),
	)
	return result, nil
}

func (s *NetworkService) acquireMatchLock(ctx context.Context, tenantID uuid.UUID) (func(), error) {
	if s.cfg.Locks == nil {
		return func() {}, nil
	}
	key := cache.Key("lock", "matching", tenantID.String())
	ok, err := s.cfg.Locks.SetNX(ctx, key, time.Now().Unix(), matchLockTTL)
	if err != nil {
		s.logger.Warn("Matching lock unavailable, running unlocked", zap.Error(err))
		return func() {}, nil
	}
	if !ok {
		return nil, shared.NewDomainError("MATCHING_IN_PROGRESS", "Relationship matching is already running")
	}
	return func() {
		if err := s.cfg.Locks.Delete(context.WithoutCancel(ctx), key); err != nil {
			s.logger.Warn("Failed to release matching lock", zap.Error(err))
		}
	}, nil
}

func (s *NetworkService) ownerNames(ctx context.Context, tenantID uuid.UUID, contacts []network.LinkedInContact) map[uuid.UUID]string {
	seen := make(map[uuid.UUID]bool)
	ids := make([]uuid.UUID, 0)
	for _, c := range contacts {
		if !seen[c.OwnerUserID] {
			seen[c.OwnerUserID] = true
			ids = append(ids, c.OwnerUserID)
		}
	}
	names := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 || s.users == nil {
		return names
	}
	users, err := s.users.FindByIDs(ctx, tenantID, ids)
	if err != nil {
		s.logger.Warn("Failed to load owner names for intro paths", zap.Error(err))
		return names
	}
	for i := range users {
		names[users[i].ID] = users[i].GetDisplayNameOrEmail()
	}
	return names
}

// ListWarmIntros lists the non-dismissed paths to an investor, strongest first
func (s *NetworkService) ListWarmIntros(ctx context.Context, tenantID, investorID uuid.UUID) ([]WarmIntroResponse, error) {
	if _, err := s.investors.FindByIDIncludingDeleted(ctx, tenantID, investorID); err != nil {
		return nil, err
	}
	rels, err := s.rels.FindByInvestor(ctx, tenantID, investorID)
	if err != nil {
		return nil, err
	}
	if len(rels) == 0 {
		return []WarmIntroResponse{}, nil
	}

	ids := make([]uuid.UUID, len(rels))
	for i, r := range rels {
		ids[i] = r.LinkedInContactID
	}
	contacts, err := s.contacts.FindByIDs(ctx, tenantID, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*network.LinkedInContact, len(contacts))
	for i := range contacts {
		byID[contacts[i].ID] = &contacts[i]
	}

	out := make([]WarmIntroResponse, len(rels))
	for i := range rels {
		out[i] = ToWarmIntroResponse(&rels[i])
		if c, ok := byID[rels[i].LinkedInContactID]; ok {
			conn := ToConnectionResponse(c)
			out[i].Connection = &conn
		}
	}
	return out, nil
}

// ConfirmRelationship marks a suggested path as real
func (s *NetworkService) ConfirmRelationship(ctx context.Context, tenantID, userID, id uuid.UUID) (*WarmIntroResponse, error) {
	return s.review(ctx, tenantID, id, func(r *network.InvestorRelationship) error { return r.Confirm(userID) })
}

// DismissRelationship hides a path from warm-intro lists and future matching runs
func (s *NetworkService) DismissRelationship(ctx context.Context, tenantID, userID, id uuid.UUID) (*WarmIntroResponse, error) {
	return s.review(ctx, tenantID, id, func(r *network.InvestorRelationship) error { return r.Dismiss(userID) })
}

func (s *NetworkService) review(ctx context.Context, tenantID, id uuid.UUID, apply func(*network.InvestorRelationship) error) (*WarmIntroResponse, error) {
	r, err := s.rels.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := apply(r); err != nil {
		return nil, err
	}
	if err := s.rels.SaveWithLock(ctx, r); err != nil {
		return nil, err
	}
	if err := shared.PublishAndClear(ctx, s.events, r); err != nil {
		s.logger.Warn("Failed to publish relationship events", zap.Error(err))
	}
	resp := ToWarmIntroResponse(r)
	return &resp, nil
}

func importFileError(err error) error {
	var missing *csvimport.MissingColumnsError
	switch {
	case errors.As(err, &missing),
		errors.Is(err, csvimport.ErrEmptyFile),
		errors.Is(err, csvimport.ErrInvalidEncoding),
		errors.Is(err, csvimport.ErrMissingHeader),
		errors.Is(err, csvimport.ErrTooManyRows):
		return shared.WrapDomainError("INVALID_FILE", err.Error(), err)
	}
	return err
}
