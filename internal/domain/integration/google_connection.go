package integration

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/domain/shared"
)

// Google OAuth scopes requested by the CRM
const (
	ScopeGmailReadonly = "https://www.googleapis.com/auth/gmail.readonly"
	ScopeCalendar      = "https://www.googleapis.com/auth/calendar.events"
	ScopeEmail         = "email"
)

// expirySkew refreshes tokens slightly before Google would reject them
const expirySkew = time.Minute

// GoogleConnection stores a user's Google Workspace OAuth tokens and sync cursors
type GoogleConnection struct {
	shared.TenantAggregateRoot
	UserID             uuid.UUID
	Email              string
	AccessToken        string
	RefreshToken       string
	Expiry             time.Time
	Scopes             []string
	LastGmailSyncAt    *time.Time
	LastCalendarSyncAt *time.Time
	LastError          string
}

// Token is the result of a code exchange or refresh
type Token struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
	Scopes       []string
}

// NewGoogleConnection links a user to a Google account
func NewGoogleConnection(tenantID, userID uuid.UUID, email string, tok Token) (*GoogleConnection, error) {
	if tok.AccessToken == "" {
		return nil, shared.NewDomainError("INVALID_TOKEN", "Google did not return an access token")
	}
	if tok.RefreshToken == "" {
		return nil, shared.NewDomainError("INVALID_TOKEN", "Google did not return a refresh token; re-consent is required")
	}
	c := &GoogleConnection{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		UserID:              userID,
		Email:               shared.NormalizeEmail(email),
		AccessToken:         tok.AccessToken,
		RefreshToken:        tok.RefreshToken,
		Expiry:              tok.Expiry,
		Scopes:              tok.Scopes,
	}
	c.SetActor(userID)
	return c, nil
}

// Relink stores tokens from a new consent. Switching to another mailbox resets the sync cursors.
func (c *GoogleConnection) Relink(email string, tok Token) error {
	if tok.AccessToken == "" {
		return shared.NewDomainError("INVALID_TOKEN", "Google did not return an access token")
	}
	email = shared.NormalizeEmail(email)
	if email != c.Email {
		c.Email = email
		c.LastGmailSyncAt = nil
		c.LastCalendarSyncAt = nil
	}
	c.UpdateToken(tok)
	return nil
}

// NeedsRefresh reports whether the access token is expired or about to expire
func (c *GoogleConnection) NeedsRefresh(now time.Time) bool {
	return c.Expiry.IsZero() || !now.Add(expirySkew).Before(c.Expiry)
}

// UpdateToken stores a refreshed token. Google omits the refresh token on refresh; the old one is kept.
func (c *GoogleConnection) UpdateToken(tok Token) {
	c.AccessToken = tok.AccessToken
	if tok.RefreshToken != "" {
		c.RefreshToken = tok.RefreshToken
	}
	c.Expiry = tok.Expiry
	if len(tok.Scopes) > 0 {
		c.Scopes = tok.Scopes
	}
	c.LastError = ""
	c.touch()
}

// HasScope reports whether the user granted a scope
func (c *GoogleConnection) HasScope(scope string) bool {
	for _, s := range c.Scopes {
		if s == scope || strings.HasSuffix(s, "/"+scope) {
			return true
		}
	}
	return false
}

// MarkGmailSynced advances the Gmail cursor
func (c *GoogleConnection) MarkGmailSynced(at time.Time) {
	c.LastGmailSyncAt = &at
	c.LastError = ""
	c.touch()
}

// MarkCalendarSynced advances the Calendar cursor
func (c *GoogleConnection) MarkCalendarSynced(at time.Time) {
	c.LastCalendarSyncAt = &at
	c.LastError = ""
	c.touch()
}

// RecordError keeps the last sync failure for display
func (c *GoogleConnection) RecordError(err error) {
	msg := err.Error()
	if len(msg) > 500 {
		msg = msg[:500]
	}
	c.LastError = msg
	c.touch()
}

func (c *GoogleConnection) touch() {
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
}
