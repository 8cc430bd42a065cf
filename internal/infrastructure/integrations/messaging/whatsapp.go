package messaging

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/investorcrm/backend/internal/infrastructure/config"
	"github.com/investorcrm/backend/internal/infrastructure/integrations"
	"github.com/tidwall/gjson"
)

// SignatureHeader carries the HMAC of webhook payloads
const SignatureHeader = "X-Hub-Signature-256"

// InboundMessage is a text message received on the business number
type InboundMessage struct {
	ID          string
	From        string
	ProfileName string
	Text        string
	Type        string
	ReceivedAt  time.Time
}

// WhatsApp is a WhatsApp Cloud API client
type WhatsApp struct {
	cfg config.MessagingConfig
	api *integrations.Client
}

// NewWhatsApp creates a WhatsApp client
func NewWhatsApp(cfg config.MessagingConfig) *WhatsApp {
	return &WhatsApp{
		cfg: cfg,
		api: integrations.NewClient("whatsapp", 15*time.Second),
	}
}

// Enabled reports whether sending is configured
func (w *WhatsApp) Enabled() bool {
	return w.cfg.WhatsAppEnabled && w.cfg.WhatsAppPhoneID != "" && w.cfg.WhatsAppToken != ""
}

// Send delivers a text message and returns the provider message ID
func (w *WhatsApp) Send(ctx context.Context, to, text string) (string, error) {
	if !w.Enabled() {
		return "", ErrChannelDisabled
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyMessage
	}
	to = NormalizePhone(to)
	if to == "" {
		return "", fmt.Errorf("whatsapp: recipient phone number is required")
	}

	body := map[string]any{
		"messaging_product": "whatsapp",
		"recipient_type":    "individual",
		"to":                to,
		"type":              "text",
		"text":              map[string]any{"preview_url": false, "body": text},
	}
	endpoint := strings.TrimRight(w.cfg.WhatsAppAPIURL, "/") + "/" + w.cfg.WhatsAppPhoneID + "/messages"
	res, err := w.api.JSON(ctx, "whatsapp.send", http.MethodPost, endpoint, integrations.Bearer(w.cfg.WhatsAppToken), body)
	if err != nil {
		return "", err
	}
	return res.Get("messages.0.id").String(), nil
}

// VerifyChallenge answers the subscription handshake. It returns the challenge to echo and whether the token matched.
func (w *WhatsApp) VerifyChallenge(mode, token, challenge string) (string, bool) {
	if mode != "subscribe" || w.cfg.WhatsAppVerifyToken == "" {
		return "", false
	}
	if !hmac.Equal([]byte(token), []byte(w.cfg.WhatsAppVerifyToken)) {
		return "", false
	}
	return challenge, true
}

// VerifySignature checks the "sha256=<hex>" header against the HMAC-SHA256 of the raw body
func (w *WhatsApp) VerifySignature(body []byte, header string) error {
	if w.cfg.WhatsAppAppSecret == "" {
		return ErrInvalidSignature
	}
	sig, ok := strings.CutPrefix(header, "sha256=")
	if !ok {
		return ErrInvalidSignature
	}
	got, err := hex.DecodeString(sig)
	if err != nil {
		return ErrInvalidSignature
	}
	mac := hmac.New(sha256.New, []byte(w.cfg.WhatsAppAppSecret))
	mac.Write(body)
	if !hmac.Equal(got, mac.Sum(nil)) {
		return ErrInvalidSignature
	}
	return nil
}

// Sign computes the signature header value for body
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// ParseWebhook extracts inbound messages from a webhook payload. Status updates are ignored.
func ParseWebhook(body []byte) ([]InboundMessage, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("whatsapp: invalid webhook payload")
	}
	root := gjson.ParseBytes(body)
	if obj := root.Get("object").String(); obj != "whatsapp_business_account" {
		return nil, fmt.Errorf("whatsapp: unexpected webhook object %q", obj)
	}

	var out []InboundMessage
	root.Get("entry.#.changes.#.value").ForEach(func(_, perEntry gjson.Result) bool {
		perEntry.ForEach(func(_, value gjson.Result) bool {
			names := make(map[string]string)
			value.Get("contacts").ForEach(func(_, c gjson.Result) bool {
				names[c.Get("wa_id").String()] = c.Get("profile.name").String()
				return true
			})
			value.Get("messages").ForEach(func(_, m gjson.Result) bool {
				msg := InboundMessage{
					ID:   m.Get("id").String(),
					From: NormalizePhone(m.Get("from").String()),
					Type: m.Get("type").String(),
				}
				msg.ProfileName = names[m.Get("from").String()]
				if ts := m.Get("timestamp").Int(); ts > 0 {
					msg.ReceivedAt = time.Unix(ts, 0).UTC()
				}
				switch msg.Type {
				case "text":
					msg.Text = m.Get("text.body").String()
				case "button":
					msg.Text = m.Get("button.text").String()
				case "interactive":
					msg.Text = m.Get("interactive.button_reply.title").String()
				default:
					msg.Text = "[" + msg.Type + "]"
				}
				out = append(out, msg)
				return true
			})
			return true
		})
		return true
	})
	return out, nil
}

// NormalizePhone keeps digits only
func NormalizePhone(phone string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, phone)
}
