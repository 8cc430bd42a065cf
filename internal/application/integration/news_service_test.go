package integration

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/domain/investor"
	"github.com/investorcrm/backend/internal/domain/shared"
	"github.com/investorcrm/backend/internal/infrastructure/cache"
	"github.com/investorcrm/backend/internal/infrastructure/config"
	"github.com/investorcrm/backend/internal/infrastructure/integrations/news"
	"github.com/investorcrm/backend/internal/infrastructure/persistence"
	"github.com/investorcrm/backend/tests/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newNewsFixture(t *testing.T, enabled bool) (*NewsService, *persistence.GormInvestorRepository, *miniredis.Miniredis, *atomic.Int32) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"status":"ok","articles":[
			{"source":{"name":"TechCrunch"},"title":"New fund announced","url":"https://tc.example/a","publishedAt":"2026-09-01T10:00:00Z"}
		]}`))
	}))
	t.Cleanup(srv.Close)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	investors := persistence.NewGormInvestorRepository(testutil.NewSQLiteDB(t))
	svc := NewNewsService(investors,
		news.NewClient(config.NewsConfig{Enabled: enabled, APIURL: srv.URL, APIKey: "key"}),
		cache.NewRedisCache(client),
		NewsServiceConfig{CacheTTL: time.Hour},
		zap.NewNop())
	return svc, investors, mr, &calls
}

func saveInvestor(t *testing.T, repo *persistence.GormInvestorRepository, tenantID uuid.UUID, name, firm string, priority investor.Priority) *investor.Investor {
	inv, err := investor.NewInvestor(tenantID, name, investor.InvestorTypeVC)
	require.NoError(t, err)
	_, err = inv.ApplyProfile(investor.Profile{Name: name, FirmName: firm, Type: investor.InvestorTypeVC, Priority: priority})
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), inv))
	return inv
}

func TestNewsService_InvestorNews(t *testing.T) {
	svc, investors, mr, calls := newNewsFixture(t, true)
	ctx := context.Background()
	tenantID := uuid.New()
	inv := saveInvestor(t, investors, tenantID, "Roelof Botha", "Sequoia Capital", investor.PriorityMedium)

	first, err := svc.InvestorNews(ctx, tenantID, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sequoia Capital", first.Query, "firm name is searched")
	require.Len(t, first.Articles, 1)
	assert.False(t, first.Cached)

	second, err := svc.InvestorNews(ctx, tenantID, inv.ID)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Articles[0].Title, second.Articles[0].Title)
	assert.EqualValues(t, 1, calls.Load())

	mr.FastForward(2 * time.Hour)
	_, err = svc.InvestorNews(ctx, tenantID, inv.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, calls.Load(), "expired entries are fetched again")

	_, err = svc.InvestorNews(ctx, uuid.New(), inv.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound, "investors of other tenants are hidden")
}

func TestNewsService_RefreshAll(t *testing.T) {
	svc, investors, _, calls := newNewsFixture(t, true)
	ctx := context.Background()

	saveInvestor(t, investors, uuid.New(), "Roelof Botha", "Sequoia Capital", investor.PriorityHigh)
	saveInvestor(t, investors, uuid.New(), "Alfred Lin", "sequoia  capital", investor.PriorityHigh)
	saveInvestor(t, investors, uuid.New(), "Sarah Tavel", "Benchmark", investor.PriorityHigh)
	saveInvestor(t, investors, uuid.New(), "Low Priority", "Index Ventures", investor.PriorityLow)

	n, err := svc.RefreshAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n, "identical firms are searched once")
	assert.EqualValues(t, 2, calls.Load())
}

func TestNewsService_Disabled(t *testing.T) {
	svc, investors, _, calls := newNewsFixture(t, false)
	tenantID := uuid.New()
	inv := saveInvestor(t, investors, tenantID, "Sarah Tavel", "Benchmark", investor.PriorityHigh)

	_, err := svc.InvestorNews(context.Background(), tenantID, inv.ID)
	assert.ErrorIs(t, err, shared.ErrIntegrationDisabled)

	n, err := svc.RefreshAll(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, calls.Load())
}
