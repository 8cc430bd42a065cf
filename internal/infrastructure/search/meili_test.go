package search

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeMeili struct {
	mu       sync.Mutex
	down     atomic.Bool
	requests []string
	bodies   map[string]string
	results  string
}

func (f *fakeMeili) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)
	f.bodies[r.Method+" "+r.URL.Path] = string(body)
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if f.down.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"message":"down","code":"unavailable","type":"internal","link":""}`))
		return
	}
	switch {
	case r.URL.Path == "/health":
		_, _ = w.Write([]byte(`{"status":"available"}`))
	case r.URL.Path == "/multi-search":
		_, _ = w.Write([]byte(f.results))
	default:
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"taskUid":1,"indexUid":"x","status":"enqueued","type":"documentAdditionOrUpdate","enqueuedAt":"2026-01-01T00:00:00Z"}`))
	}
}

func (f *fakeMeili) seen(req string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.requests {
		if r == req {
			return true
		}
	}
	return false
}

func newTestMeili(t *testing.T) (*Meili, *fakeMeili) {
	t.Helper()
	fake := &fakeMeili{bodies: map[string]string{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	m := NewMeili(config.SearchConfig{URL: srv.URL, APIKey: "key", IndexPrefix: "crm_"}, zap.NewNop())
	t.Cleanup(m.Close)
	return m, fake
}

func TestNewMeili_ConfiguresIndexes(t *testing.T) {
	m, fake := newTestMeili(t)

	assert.True(t, m.Healthy())
	assert.True(t, fake.seen("POST /indexes"))
	assert.True(t, fake.seen("PUT /indexes/crm_investors/settings/filterable-attributes"))
	assert.True(t, fake.seen("PUT /indexes/crm_contacts/settings/searchable-attributes"))
}

func TestMeili_Search(t *testing.T) {
	m, fake := newTestMeili(t)
	tenantID := uuid.New()
	invID, contactID := uuid.New(), uuid.New()
	fake.results = `{"results":[
		{"indexUid":"crm_investors","hits":[{"id":"` + invID.String() + `","kind":"investor","title":"Sequoia","subtitle":"vc","_rankingScore":0.7}],"estimatedTotalHits":1,"query":"seq","limit":20,"offset":0,"processingTimeMs":1},
		{"indexUid":"crm_contacts","hits":[{"id":"` + contactID.String() + `","kind":"contact","title":"Sam Seq","subtitle":"Partner","_rankingScore":0.9,"_formatted":{"body":" met at <mark>seq</mark> "}},{"id":"not-a-uuid"}],"estimatedTotalHits":2,"query":"seq","limit":20,"offset":0,"processingTimeMs":1}
	]}`

	hits, err := m.Search(tenantID, "seq", nil, 10)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, contactID, hits[0].ID)
	assert.Equal(t, KindContact, hits[0].Kind)
	assert.Equal(t, "met at <mark>seq</mark>", hits[0].Snippet)
	assert.Equal(t, invID, hits[1].ID)

	var req struct {
		Queries []struct {
			IndexUID string `json:"indexUid"`
			Filter   string `json:"filter"`
		} `json:"queries"`
	}
	require.NoError(t, json.Unmarshal([]byte(fake.bodies["POST /multi-search"]), &req))
	require.Len(t, req.Queries, 2)
	assert.Equal(t, `tenant_id = "`+tenantID.String()+`"`, req.Queries[0].Filter)
}

func TestMeili_SearchSingleKindAndLimit(t *testing.T) {
	m, fake := newTestMeili(t)
	fake.results = `{"results":[{"indexUid":"crm_investors","hits":[
		{"id":"` + uuid.NewString() + `","title":"B","_rankingScore":0.5},
		{"id":"` + uuid.NewString() + `","title":"A","_rankingScore":0.5}
	],"estimatedTotalHits":2,"query":"","limit":1,"offset":0,"processingTimeMs":1}]}`

	hits, err := m.Search(uuid.New(), "", []Kind{KindInvestor}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "A", hits[0].Title)
	assert.True(t, strings.Contains(fake.bodies["POST /multi-search"], "crm_investors"))
	assert.False(t, strings.Contains(fake.bodies["POST /multi-search"], "crm_contacts"))
}

func TestMeili_UpsertAndRemove(t *testing.T) {
	m, fake := newTestMeili(t)
	id := uuid.New()

	require.NoError(t, m.Upsert(
		Document{ID: id.String(), Kind: KindInvestor, Title: "Accel"},
		Document{ID: uuid.NewString(), Kind: KindContact, Title: "Jo"},
	))
	assert.True(t, fake.seen("POST /indexes/crm_investors/documents"))
	assert.True(t, fake.seen("POST /indexes/crm_contacts/documents"))
	assert.Contains(t, fake.bodies["POST /indexes/crm_investors/documents"], "Accel")

	require.NoError(t, m.Remove(KindInvestor, id))
	assert.True(t, fake.seen("DELETE /indexes/crm_investors/documents/"+id.String()))
}

func TestMeili_Unhealthy(t *testing.T) {
	m, fake := newTestMeili(t)
	fake.down.Store(true)

	m.checkHealth()
	assert.False(t, m.Healthy())
	_, err := m.Search(uuid.New(), "x", nil, 0)
	assert.ErrorIs(t, err, ErrUnhealthy)

	fake.down.Store(false)
	m.checkHealth()
	assert.True(t, m.Healthy())
}
