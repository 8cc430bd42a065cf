package messaging

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/investorcrm/backend/internal/infrastructure/integrations"
)

// GoogleChat posts to incoming webhooks of Google Chat spaces
type GoogleChat struct {
	webhookURL string
	api        *integrations.Client
}

// NewGoogleChat creates a Google Chat sender. defaultWebhook is used when a tenant has none configured.
func NewGoogleChat(defaultWebhook string) *GoogleChat {
	return &GoogleChat{
		webhookURL: defaultWebhook,
		api:        integrations.NewClient("google_chat", 15*time.Second),
	}
}

// Send posts text to the webhook and returns the created message name
func (g *GoogleChat) Send(ctx context.Context, webhookURL, text string) (string, error) {
	if webhookURL == "" {
		webhookURL = g.webhookURL
	}
	if webhookURL == "" {
		return "", ErrChannelDisabled
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyMessage
	}
	res, err := g.api.JSON(ctx, "chat.send", http.MethodPost, webhookURL, nil, map[string]string{"text": text})
	if err != nil {
		return "", err
	}
	return res.Get("name").String(), nil
}
