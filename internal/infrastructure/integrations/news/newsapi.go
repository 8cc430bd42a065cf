// Package news searches NewsAPI for articles about investors.
package news

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/investorcrm/backend/internal/infrastructure/config"
	"github.com/investorcrm/backend/internal/infrastructure/integrations"
	"github.com/tidwall/gjson"
)

// ErrDisabled is returned when no API key is configured
var ErrDisabled = errors.New("news integration is not configured")

// Article is one search hit
type Article struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	ImageURL    string    `json:"image_url,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}

// Client calls the NewsAPI "everything" endpoint
type Client struct {
	cfg config.NewsConfig
	api *integrations.Client
}

// NewClient creates a NewsAPI client
func NewClient(cfg config.NewsConfig) *Client {
	return &Client{
		cfg: cfg,
		api: integrations.NewClient("newsapi", 15*time.Second),
	}
}

// Enabled reports whether searches can be made
func (c *Client) Enabled() bool {
	return c.cfg.Enabled && c.cfg.APIKey != ""
}

// Search returns the most recent articles mentioning the exact phrase
func (c *Client) Search(ctx context.Context, phrase string) ([]Article, error) {
	if !c.Enabled() {
		return nil, ErrDisabled
	}
	phrase = strings.TrimSpace(strings.ReplaceAll(phrase, `"`, ""))
	if phrase == "" {
		return []Article{}, nil
	}
	pageSize := c.cfg.PageSize
	if pageSize <= 0 {
		pageSize = 10
	}
	q := url.Values{
		"q":        {`"` + phrase + `"`},
		"sortBy":   {"publishedAt"},
		"language": {"en"},
		"pageSize": {strconv.Itoa(pageSize)},
	}
	header := http.Header{"X-Api-Key": []string{c.cfg.APIKey}}
	res, err := c.api.JSON(ctx, "everything", http.MethodGet, c.cfg.APIURL+"?"+q.Encode(), header, nil)
	if err != nil {
		return nil, err
	}
	if res.Get("status").String() == "error" {
		return nil, &integrations.APIError{
			Provider:   c.api.Provider(),
			StatusCode: http.StatusBadGateway,
			Message:    res.Get("message").String(),
		}
	}

	articles := make([]Article, 0, pageSize)
	res.Get("articles").ForEach(func(_, a gjson.Result) bool {
		title := a.Get("title").String()
		// removed articles are returned as placeholders
		if title == "" || title == "[Removed]" {
			return true
		}
		art := Article{
			Title:       title,
			Description: a.Get("description").String(),
			URL:         a.Get("url").String(),
			Source:      a.Get("source.name").String(),
			ImageURL:    a.Get("urlToImage").String(),
		}
		if t, err := time.Parse(time.RFC3339, a.Get("publishedAt").String()); err == nil {
			art.PublishedAt = t.UTC()
		}
		articles = append(articles, art)
		return true
	})
	return articles, nil
}
