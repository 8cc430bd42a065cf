package search

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/domain/contact"
	"github.com/investorcrm/backend/internal/domain/investor"
	"github.com/investorcrm/backend/internal/domain/shared"
	"github.com/investorcrm/backend/internal/infrastructure/search"
	"github.com/investorcrm/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

const (
	defaultLimit = 20
	maxLimit     = 50

	SourceIndex    = "meilisearch"
	SourceDatabase = "database"
)

// Index is the full-text index. *search.Meili implements it.
type Index interface {
	Healthy() bool
	Search(tenantID uuid.UUID, query string, kinds []search.Kind, limit int) ([]search.Hit, error)
	Upsert(docs ...search.Document) error
	Remove(kind search.Kind, id uuid.UUID) error
}

// SearchRequest is a global search query
type SearchRequest struct {
	Query string `form:"q" binding:"required,min=1,max=200"`
	Types string `form:"types"`
	Limit int    `form:"limit" binding:"omitempty,min=1,max=50"`
}

// SearchResponse lists hits and says which backend answered
type SearchResponse struct {
	Query  string       `json:"query"`
	Source string       `json:"source"`
	Hits   []search.Hit `json:"hits"`
}

// SearchService answers global search from Meilisearch and falls back to the database
type SearchService struct {
	index     Index
	investors investor.InvestorRepository
	contacts  contact.ContactRepository
	logger    *zap.Logger
}

// NewSearchService creates a new SearchService. index may be nil when Meilisearch is disabled.
func NewSearchService(index Index, investors investor.InvestorRepository, contacts contact.ContactRepository, logger *zap.Logger) *SearchService {
	return &SearchService{index: index, investors: investors, contacts: contacts, logger: logger}
}

// Search runs the query within the tenant
func (s *SearchService) Search(ctx context.Context, tenantID uuid.UUID, req SearchRequest) (resp *SearchResponse, err error) {
	ctx, span := telemetry.StartSpan(ctx, "SearchService", "Search", telemetry.AttrTenantID, tenantID.String())
	defer telemetry.End(span, &err)

	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, shared.NewDomainError("INVALID_QUERY", "Search query cannot be empty")
	}
	kinds, err := ParseKinds(req.Types)
	if err != nil {
		return nil, err
	}
	limit := req.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	if s.index != nil && s.index.Healthy() {
		hits, err := s.index.Search(tenantID, query, kinds, limit)
		if err == nil {
			return &SearchResponse{Query: query, Source: SourceIndex, Hits: nonNil(hits)}, nil
		}
		s.logger.Warn("Index search failed, falling back to the database",
			zap.String("tenant_id", tenantID.String()), zap.Error(err))
	}

	hits, err := s.searchDatabase(ctx, tenantID, query, kinds, limit)
	if err != nil {
		return nil, err
	}
	return &SearchResponse{Query: query, Source: SourceDatabase, Hits: hits}, nil
}

func (s *SearchService) searchDatabase(ctx context.Context, tenantID uuid.UUID, query string, kinds []search.Kind, limit int) ([]search.Hit, error) {
	filter := shared.DefaultFilter()
	filter.Search = query
	filter.PageSize = limit
	filter.OrderBy = "updated_at"

	hits := []search.Hit{}
	for _, kind := range kinds {
		switch kind {
		case search.KindInvestor:
			items, err := s.investors.FindAllForTenant(ctx, tenantID, filter)
			if err != nil {
				return nil, err
			}
			for i := range items {
				doc := InvestorDocument(&items[i])
				hits = append(hits, search.Hit{ID: items[i].ID, Kind: kind, Title: doc.Title, Subtitle: doc.Subtitle})
			}
		case search.KindContact:
			items, err := s.contacts.FindAllForTenant(ctx, tenantID, filter)
			if err != nil {
				return nil, err
			}
			for i := range items {
				doc := ContactDocument(&items[i])
				hits = append(hits, search.Hit{ID: items[i].ID, Kind: kind, Title: doc.Title, Subtitle: doc.Subtitle})
			}
		}
	}
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// ParseKinds parses a comma-separated type list. Empty means every kind.
func ParseKinds(types string) ([]search.Kind, error) {
	if strings.TrimSpace(types) == "" {
		return []search.Kind{search.KindInvestor, search.KindContact}, nil
	}
	var kinds []search.Kind
	seen := map[search.Kind]bool{}
	for _, part := range strings.Split(types, ",") {
		part = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(part)), "s")
		var kind search.Kind
		switch part {
		case "":
			continue
		case string(search.KindInvestor):
			kind = search.KindInvestor
		case string(search.KindContact):
			kind = search.KindContact
		default:
			return nil, shared.NewDomainError("INVALID_SEARCH_TYPE", "Unknown search type: "+part)
		}
		if !seen[kind] {
			seen[kind] = true
			kinds = append(kinds, kind)
		}
	}
	if len(kinds) == 0 {
		return []search.Kind{search.KindInvestor, search.KindContact}, nil
	}
	return kinds, nil
}

// InvestorDocument builds the index document of an investor
func InvestorDocument(inv *investor.Investor) search.Document {
	body := []string{inv.Location, strings.Join(inv.FocusAreas, ", "), inv.Notes}
	return search.Document{
		ID:       inv.ID.String(),
		TenantID: inv.TenantID.String(),
		Kind:     search.KindInvestor,
		Title:    inv.Name,
		Subtitle: inv.FirmName,
		Body:     joinNonEmpty(body, " · "),
		Stage:    string(inv.Stage),
		Tags:     nonNilStrings(inv.Tags),
	}
}

// ContactDocument builds the index document of a contact
func ContactDocument(c *contact.Contact) search.Document {
	return search.Document{
		ID:       c.ID.String(),
		TenantID: c.TenantID.String(),
		Kind:     search.KindContact,
		Title:    c.FullName(),
		Subtitle: joinNonEmpty([]string{c.Title, c.Email}, " · "),
		Body:     c.Notes,
		Email:    c.Email,
		Tags:     nonNilStrings(c.Tags),
	}
}

func joinNonEmpty(parts []string, sep string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}

func nonNil(hits []search.Hit) []search.Hit {
	if hits == nil {
		return []search.Hit{}
	}
	return hits
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
