// Package search keeps a Meilisearch index of investors and contacts.
package search

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	meili "github.com/meilisearch/meilisearch-go"
	"github.com/investorcrm/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Kind names a searchable entity type
type Kind string

const (
	KindInvestor Kind = "investor"
	KindContact  Kind = "contact"
)

// ErrUnhealthy is returned when Meilisearch is not reachable
var ErrUnhealthy = errors.New("meilisearch unhealthy")

// Document is the indexed shape shared by both indexes
type Document struct {
	ID       string   `json:"id"`
	TenantID string   `json:"tenant_id"`
	Kind     Kind     `json:"kind"`
	Title    string   `json:"title"`
	Subtitle string   `json:"subtitle"`
	Body     string   `json:"body"`
	Email    string   `json:"email,omitempty"`
	Stage    string   `json:"stage,omitempty"`
	Tags     []string `json:"tags"`
}

// Hit is one search result
type Hit struct {
	ID       uuid.UUID `json:"id"`
	Kind     Kind      `json:"kind"`
	Title    string    `json:"title"`
	Subtitle string    `json:"subtitle"`
	Snippet  string    `json:"snippet,omitempty"`
	Score    float64   `json:"score"`
}

// Meili indexes and queries documents in Meilisearch and tracks its health in the background.
type Meili struct {
	client   meili.ServiceManager
	prefix   string
	logger   *zap.Logger
	healthy  atomic.Bool
	done     chan struct{}
	interval time.Duration
}

// NewMeili connects to Meilisearch and configures the indexes. The client is returned even when
// the first health check fails; the background loop reconfigures the indexes once it recovers.
func NewMeili(cfg config.SearchConfig, logger *zap.Logger) *Meili {
	opts := []meili.Option{meili.WithAPIKey(cfg.APIKey)}
	if cfg.Timeout > 0 {
		opts = append(opts, meili.WithCustomClient(&http.Client{Timeout: cfg.Timeout}))
	}
	m := &Meili{
		client:   meili.New(cfg.URL, opts...),
		prefix:   cfg.IndexPrefix,
		logger:   logger,
		done:     make(chan struct{}),
		interval: 10 * time.Second,
	}
	if m.prefix == "" {
		m.prefix = "crm_"
	}

	if _, err := m.client.Health(); err != nil {
		logger.Warn("Meilisearch unavailable, search falls back to the database",
			zap.String("url", cfg.URL), zap.Error(err))
	} else {
		m.healthy.Store(true)
		m.configureIndexes()
	}

	go m.healthLoop()
	return m
}

func (m *Meili) index(kind Kind) string {
	return m.prefix + string(kind) + "s"
}

func (m *Meili) configureIndexes() {
	searchable := []string{"title", "subtitle", "email", "body", "tags"}
	filterable := []interface{}{"tenant_id", "stage", "tags"}

	for _, kind := range []Kind{KindInvestor, KindContact} {
		uid := m.index(kind)
		if _, err := m.client.CreateIndex(&meili.IndexConfig{Uid: uid, PrimaryKey: "id"}); err != nil {
			m.logger.Debug("create index (may already exist)", zap.String("index", uid), zap.Error(err))
		}
		idx := m.client.Index(uid)
		if _, err := idx.UpdateFilterableAttributes(&filterable); err != nil {
			m.logger.Warn("update filterable attributes", zap.String("index", uid), zap.Error(err))
		}
		if _, err := idx.UpdateSearchableAttributes(&searchable); err != nil {
			m.logger.Warn("update searchable attributes", zap.String("index", uid), zap.Error(err))
		}
	}
}

func (m *Meili) healthLoop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.checkHealth()
		}
	}
}

func (m *Meili) checkHealth() {
	_, err := m.client.Health()
	was := m.healthy.Swap(err == nil)
	if err == nil && !was {
		m.logger.Info("Meilisearch recovered, reconfiguring indexes")
		m.configureIndexes()
	}
}

// Close stops the health loop
func (m *Meili) Close() {
	close(m.done)
}

// Healthy reports whether Meilisearch answered the last health check
func (m *Meili) Healthy() bool {
	return m.healthy.Load()
}

// Search queries the requested kinds for the tenant and merges hits by ranking score
func (m *Meili) Search(tenantID uuid.UUID, query string, kinds []Kind, limit int) ([]Hit, error) {
	if !m.healthy.Load() {
		return nil, ErrUnhealthy
	}
	if limit <= 0 {
		limit = 20
	}
	if len(kinds) == 0 {
		kinds = []Kind{KindInvestor, KindContact}
	}

	queries := make([]*meili.SearchRequest, 0, len(kinds))
	for _, kind := range kinds {
		queries = append(queries, &meili.SearchRequest{
			IndexUID:              m.index(kind),
			Query:                 query,
			Limit:                 int64(limit),
			Filter:                fmt.Sprintf("tenant_id = %q", tenantID.String()),
			AttributesToHighlight: []string{"body"},
			AttributesToCrop:      []string{"body"},
			CropLength:            20,
			HighlightPreTag:       "<mark>",
			HighlightPostTag:      "</mark>",
			ShowRankingScore:      true,
		})
	}

	resp, err := m.client.MultiSearch(&meili.MultiSearchRequest{Queries: queries})
	if err != nil {
		m.healthy.Store(false)
		return nil, fmt.Errorf("meilisearch multi-search: %w", err)
	}

	var hits []Hit
	for _, res := range resp.Results {
		for _, raw := range res.Hits {
			if h, ok := decodeHit(raw); ok {
				hits = append(hits, h)
			}
		}
	}
	sortHits(hits)
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// Upsert adds or replaces documents, grouped per index
func (m *Meili) Upsert(docs ...Document) error {
	byKind := map[Kind][]Document{}
	for _, d := range docs {
		byKind[d.Kind] = append(byKind[d.Kind], d)
	}
	for kind, batch := range byKind {
		if _, err := m.client.Index(m.index(kind)).AddDocuments(batch, nil); err != nil {
			return fmt.Errorf("index %d %s documents: %w", len(batch), kind, err)
		}
	}
	return nil
}

// Remove deletes a document
func (m *Meili) Remove(kind Kind, id uuid.UUID) error {
	if _, err := m.client.Index(m.index(kind)).DeleteDocument(id.String(), nil); err != nil {
		return fmt.Errorf("delete %s %s: %w", kind, id, err)
	}
	return nil
}

func decodeHit(raw meili.Hit) (Hit, bool) {
	var h Hit
	var id string
	if err := json.Unmarshal(raw["id"], &id); err != nil {
		return h, false
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return h, false
	}
	h.ID = parsed
	_ = json.Unmarshal(raw["kind"], &h.Kind)
	_ = json.Unmarshal(raw["title"], &h.Title)
	_ = json.Unmarshal(raw["subtitle"], &h.Subtitle)
	_ = json.Unmarshal(raw["_rankingScore"], &h.Score)

	if formatted, ok := raw["_formatted"]; ok {
		var f map[string]any
		if json.Unmarshal(formatted, &f) == nil {
			if body, ok := f["body"].(string); ok {
				h.Snippet = strings.TrimSpace(body)
			}
		}
	}
	return h, true
}

// sortHits orders by ranking score, then title for a stable order across indexes
func sortHits(hits []Hit) {
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Title < hits[j].Title
	})
}
