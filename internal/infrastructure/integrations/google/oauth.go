// Package google talks to Google OAuth, Gmail and Calendar over their REST APIs.
package google

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/investorcrm/backend/internal/domain/integration"
	"github.com/investorcrm/backend/internal/infrastructure/config"
	"github.com/investorcrm/backend/internal/infrastructure/integrations"
	"github.com/tidwall/gjson"
)

// Scopes requested on consent
var Scopes = []string{
	"openid",
	"email",
	"https://www.googleapis.com/auth/gmail.readonly",
	"https://www.googleapis.com/auth/calendar.events",
}

// ErrNotConfigured is returned when the Google client has no OAuth credentials
var ErrNotConfigured = errors.New("google integration is not configured")

// Client calls Google's OAuth, Gmail and Calendar endpoints
type Client struct {
	cfg config.GoogleConfig
	api *integrations.Client
	now func() time.Time
}

// NewClient creates a Google client
func NewClient(cfg config.GoogleConfig) *Client {
	return &Client{
		cfg: cfg,
		api: integrations.NewClient("google", 30*time.Second),
		now: time.Now,
	}
}

// Enabled reports whether OAuth credentials are configured
func (c *Client) Enabled() bool {
	return c.cfg.Enabled && c.cfg.ClientID != "" && c.cfg.ClientSecret != ""
}

// AuthURL builds the consent URL. Offline access and forced consent make Google return a refresh token.
func (c *Client) AuthURL(state string) string {
	q := url.Values{
		"client_id":              {c.cfg.ClientID},
		"redirect_uri":           {c.cfg.RedirectURL},
		"response_type":          {"code"},
		"scope":                  {strings.Join(Scopes, " ")},
		"access_type":            {"offline"},
		"prompt":                 {"consent"},
		"include_granted_scopes": {"true"},
		"state":                  {state},
	}
	return c.cfg.AuthURL + "?" + q.Encode()
}

// Exchange trades an authorization code for tokens
func (c *Client) Exchange(ctx context.Context, code string) (integration.Token, error) {
	if !c.Enabled() {
		return integration.Token{}, ErrNotConfigured
	}
	res, err := c.api.Form(ctx, "oauth.exchange", c.cfg.TokenURL, url.Values{
		"code":          {code},
		"client_id":     {c.cfg.ClientID},
		"client_secret": {c.cfg.ClientSecret},
		"redirect_uri":  {c.cfg.RedirectURL},
		"grant_type":    {"authorization_code"},
	})
	if err != nil {
		return integration.Token{}, err
	}
	return c.parseToken(res), nil
}

// Refresh obtains a new access token. The response usually omits the refresh token.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (integration.Token, error) {
	if !c.Enabled() {
		return integration.Token{}, ErrNotConfigured
	}
	res, err := c.api.Form(ctx, "oauth.refresh", c.cfg.TokenURL, url.Values{
		"refresh_token": {refreshToken},
		"client_id":     {c.cfg.ClientID},
		"client_secret": {c.cfg.ClientSecret},
		"grant_type":    {"refresh_token"},
	})
	if err != nil {
		return integration.Token{}, err
	}
	return c.parseToken(res), nil
}

// Profile returns the email address of the authorized mailbox
func (c *Client) Profile(ctx context.Context, accessToken string) (string, error) {
	res, err := c.api.JSON(ctx, "gmail.profile", http.MethodGet, c.cfg.GmailURL+"/users/me/profile",
		integrations.Bearer(accessToken), nil)
	if err != nil {
		return "", err
	}
	return res.Get("emailAddress").String(), nil
}

func (c *Client) parseToken(res gjson.Result) integration.Token {
	tok := integration.Token{
		AccessToken:  res.Get("access_token").String(),
		RefreshToken: res.Get("refresh_token").String(),
	}
	if secs := res.Get("expires_in").Int(); secs > 0 {
		tok.Expiry = c.now().Add(time.Duration(secs) * time.Second)
	}
	if scope := res.Get("scope").String(); scope != "" {
		tok.Scopes = strings.Fields(scope)
	}
	return tok
}
