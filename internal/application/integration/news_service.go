package integration

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/domain/investor"
	"github.com/investorcrm/backend/internal/domain/shared"
	"github.com/investorcrm/backend/internal/infrastructure/cache"
	"github.com/investorcrm/backend/internal/infrastructure/integrations/news"
	"go.uber.org/zap"
)

const (
	defaultNewsTTL      = 6 * time.Hour
	defaultRefreshLimit = 200
)

// NewsSearcher finds articles mentioning a phrase
type NewsSearcher interface {
	Enabled() bool
	Search(ctx context.Context, phrase string) ([]news.Article, error)
}

// NewsServiceConfig tunes NewsService
type NewsServiceConfig struct {
	CacheTTL     time.Duration
	RefreshLimit int // investors warmed per refresh run
}

// NewsResponse is the news feed of one investor
type NewsResponse struct {
	InvestorID uuid.UUID      `json:"investor_id"`
	Query      string         `json:"query"`
	Articles   []news.Article `json:"articles"`
	FetchedAt  time.Time      `json:"fetched_at"`
	Cached     bool           `json:"cached"`
}

type cachedNews struct {
	Articles  []news.Article `json:"articles"`
	FetchedAt time.Time      `json:"fetched_at"`
}

// NewsService serves recent press about investors from a shared cache
type NewsService struct {
	investors investor.InvestorRepository
	client    NewsSearcher
	cache     cache.Cache
	cfg       NewsServiceConfig
	logger    *zap.Logger
}

// NewNewsService creates a new NewsService
func NewNewsService(investors investor.InvestorRepository, client NewsSearcher, c cache.Cache, cfg NewsServiceConfig, logger *zap.Logger) *NewsService {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultNewsTTL
	}
	if cfg.RefreshLimit <= 0 {
		cfg.RefreshLimit = defaultRefreshLimit
	}
	return &NewsService{investors: investors, client: client, cache: c, cfg: cfg, logger: logger}
}

// InvestorNews returns articles about the investor's firm, or the investor when no firm is set
func (s *NewsService) InvestorNews(ctx context.Context, tenantID, investorID uuid.UUID) (*NewsResponse, error) {
	inv, err := s.investors.FindByIDForTenant(ctx, tenantID, investorID)
	if err != nil {
		return nil, err
	}
	if !s.client.Enabled() {
		return nil, shared.ErrIntegrationDisabled
	}

	query := inv.OrganizationName()
	key := newsKey(query)
	var cached cachedNews
	if ok, err := s.cache.Get(ctx, key, &cached); err != nil {
		s.logger.Warn("News cache read failed", zap.Error(err))
	} else if ok {
		return &NewsResponse{InvestorID: inv.ID, Query: query, Articles: cached.Articles, FetchedAt: cached.FetchedAt, Cached: true}, nil
	}

	fresh, err := s.fetch(ctx, query)
	if err != nil {
		return nil, shared.WrapDomainError("INTEGRATION_ERROR", "News search failed", err)
	}
	return &NewsResponse{InvestorID: inv.ID, Query: query, Articles: fresh.Articles, FetchedAt: fresh.FetchedAt}, nil
}

// RefreshAll warms the cache for high-priority investors of every tenant and returns the number of searches made
func (s *NewsService) RefreshAll(ctx context.Context) (int, error) {
	if !s.client.Enabled() {
		return 0, nil
	}
	invs, err := s.investors.FindByPriority(ctx, investor.PriorityHigh, s.cfg.RefreshLimit)
	if err != nil {
		return 0, err
	}

	seen := make(map[string]bool, len(invs))
	refreshed := 0
	for i := range invs {
		if !invs[i].Stage.IsOpen() {
			continue
		}
		query := invs[i].OrganizationName()
		key := newsKey(query)
		if seen[key] {
			continue
		}
		seen[key] = true
		if ctx.Err() != nil {
			return refreshed, ctx.Err()
		}
		if _, err := s.fetch(ctx, query); err != nil {
			s.logger.Warn("News refresh failed", zap.String("query", query), zap.Error(err))
			continue
		}
		refreshed++
	}
	return refreshed, nil
}

func (s *NewsService) fetch(ctx context.Context, query string) (*cachedNews, error) {
	articles, err := s.client.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	entry := &cachedNews{Articles: articles, FetchedAt: time.Now().UTC()}
	if err := s.cache.Set(ctx, newsKey(query), entry, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("News cache write failed", zap.Error(err))
	}
	return entry, nil
}

// newsKey is shared by all tenants since results depend only on the query
func newsKey(query string) string {
	return cache.Key("news", strings.ToLower(strings.Join(strings.Fields(query), " ")))
}
