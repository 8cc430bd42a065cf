package integration

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/domain/activity"
	"github.com/investorcrm/backend/internal/domain/contact"
	"github.com/investorcrm/backend/internal/domain/identity"
	"github.com/investorcrm/backend/internal/domain/investor"
	"github.com/investorcrm/backend/internal/domain/shared"
	"github.com/investorcrm/backend/internal/infrastructure/integrations/messaging"
	"github.com/investorcrm/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

const maxMessageLength = 4096

// ChatSender posts to a Google Chat space webhook
type ChatSender interface {
	Send(ctx context.Context, webhookURL, text string) (string, error)
}

// WhatsAppClient sends WhatsApp messages and authenticates webhook calls
type WhatsAppClient interface {
	Enabled() bool
	Send(ctx context.Context, to, text string) (string, error)
	VerifyChallenge(mode, token, challenge string) (string, bool)
	VerifySignature(body []byte, header string) error
}

// MessagingServiceConfig tunes MessagingService
type MessagingServiceConfig struct {
	// WhatsAppTenantSlug is the workspace that owns the business number
	WhatsAppTenantSlug string
}

// SendMessageRequest is an outbound message. For WhatsApp, To defaults to the contact's phone.
// For Google Chat, To is an optional space webhook URL.
type SendMessageRequest struct {
	Channel    string     `json:"channel" binding:"required,oneof=google_chat whatsapp"`
	To         string     `json:"to" binding:"max=500"`
	Body       string     `json:"body" binding:"required,max=4096"`
	InvestorID *uuid.UUID `json:"investor_id"`
	ContactID  *uuid.UUID `json:"contact_id"`
}

// SendMessageResponse reports the provider id and the logged activity
type SendMessageResponse struct {
	Channel    string     `json:"channel"`
	MessageID  string     `json:"message_id"`
	ActivityID *uuid.UUID `json:"activity_id,omitempty"`
}

// MessagingService sends messages to investors and logs inbound replies
type MessagingService struct {
	contacts  contact.ContactRepository
	investors investor.InvestorRepository
	tenants   identity.TenantRepository
	recorder  ActivityRecorder
	chat      ChatSender
	whatsapp  WhatsAppClient
	cfg       MessagingServiceConfig
	metrics   *telemetry.Metrics
	logger    *zap.Logger
}

// NewMessagingService creates a new MessagingService
func NewMessagingService(
	contacts contact.ContactRepository,
	investors investor.InvestorRepository,
	tenants identity.TenantRepository,
	recorder ActivityRecorder,
	chat ChatSender,
	whatsapp WhatsAppClient,
	cfg MessagingServiceConfig,
	metrics *telemetry.Metrics,
	logger *zap.Logger,
) *MessagingService {
	return &MessagingService{
		contacts:  contacts,
		investors: investors,
		tenants:   tenants,
		recorder:  recorder,
		chat:      chat,
		whatsapp:  whatsapp,
		cfg:       cfg,
		metrics:   metrics,
		logger:    logger,
	}
}

// Send delivers a message and, when it concerns an investor, logs it on the timeline
func (s *MessagingService) Send(ctx context.Context, tenantID, userID uuid.UUID, req SendMessageRequest) (resp *SendMessageResponse, err error) {
	ctx, span := telemetry.StartSpan(ctx, "MessagingService", "Send",
		telemetry.AttrTenantID, tenantID.String(), "crm.channel", req.Channel)
	defer telemetry.End(span, &err)

	channel := messaging.Channel(req.Channel)
	if !channel.IsValid() {
		return nil, shared.NewDomainError("INVALID_CHANNEL", "Unknown channel: "+req.Channel)
	}
	body := strings.TrimSpace(req.Body)
	if body == "" {
		return nil, shared.NewDomainError("INVALID_MESSAGE", "Message body cannot be empty")
	}
	if len(body) > maxMessageLength {
		return nil, shared.NewDomainError("INVALID_MESSAGE", "Message is too long")
	}

	investorID := req.InvestorID
	to := strings.TrimSpace(req.To)
	if req.ContactID != nil {
		c, err := s.contacts.FindByIDForTenant(ctx, tenantID, *req.ContactID)
		if err != nil {
			return nil, err
		}
		if investorID == nil {
			investorID = c.InvestorID
		}
		if to == "" && channel == messaging.ChannelWhatsApp {
			to = c.Phone
		}
	}
	if investorID != nil {
		if _, err := s.investors.FindByIDForTenant(ctx, tenantID, *investorID); err != nil {
			return nil, err
		}
	}

	var messageID string
	switch channel {
	case messaging.ChannelWhatsApp:
		if s.whatsapp == nil || !s.whatsapp.Enabled() {
			return nil, shared.ErrIntegrationDisabled
		}
		if messaging.NormalizePhone(to) == "" {
			return nil, shared.NewDomainError("INVALID_RECIPIENT", "A phone number is required for WhatsApp")
		}
		messageID, err = s.whatsapp.Send(ctx, to, body)
	case messaging.ChannelGoogleChat:
		if s.chat == nil {
			return nil, shared.ErrIntegrationDisabled
		}
		if to != "" {
			if err := shared.ValidateURL(to, "Webhook URL"); err != nil {
				return nil, err
			}
		}
		messageID, err = s.chat.Send(ctx, to, body)
	}
	if err != nil {
		if errors.Is(err, messaging.ErrChannelDisabled) {
			return nil, shared.ErrIntegrationDisabled
		}
		return nil, shared.WrapDomainError("INTEGRATION_ERROR", "Message could not be delivered", err)
	}
	s.metrics.Message(string(channel), "outbound")

	resp = &SendMessageResponse{Channel: string(channel), MessageID: messageID}
	if investorID == nil {
		return resp, nil
	}

	a, err := activity.NewActivity(tenantID, investorID, activity.ActivityTypeMessage, outboundSubject(channel), time.Now())
	if err != nil {
		return nil, err
	}
	a.WithSource(sourceFor(channel), messageID)
	a.ContactID = req.ContactID
	a.Body = body
	a.Metadata = map[string]any{"channel": string(channel), "direction": "outbound"}
	if channel == messaging.ChannelWhatsApp {
		a.Metadata["to"] = messaging.NormalizePhone(to)
	}
	a.SetCreatedBy(userID)
	a.SetActor(userID)
	if _, err := s.recorder.Record(ctx, a); err != nil {
		// delivered; only the timeline entry is missing
		s.logger.Warn("Failed to log sent message", zap.String("message_id", messageID), zap.Error(err))
		return resp, nil
	}
	resp.ActivityID = &a.ID
	return resp, nil
}

// VerifyWhatsAppWebhook answers the GET subscription handshake
func (s *MessagingService) VerifyWhatsAppWebhook(mode, token, challenge string) (string, error) {
	if s.whatsapp == nil {
		return "", shared.ErrIntegrationDisabled
	}
	echo, ok := s.whatsapp.VerifyChallenge(mode, token, challenge)
	if !ok {
		return "", shared.ErrForbidden
	}
	return echo, nil
}

// HandleWhatsAppWebhook verifies and ingests an inbound webhook. Messages from unknown numbers are ignored.
func (s *MessagingService) HandleWhatsAppWebhook(ctx context.Context, body []byte, signature string) (logged int, err error) {
	ctx, span := telemetry.StartSpan(ctx, "MessagingService", "HandleWhatsAppWebhook")
	defer telemetry.End(span, &err)

	if s.whatsapp == nil {
		return 0, shared.ErrIntegrationDisabled
	}
	if err := s.whatsapp.VerifySignature(body, signature); err != nil {
		return 0, shared.NewDomainError("INVALID_SIGNATURE", "Webhook signature does not match")
	}
	msgs, err := messaging.ParseWebhook(body)
	if err != nil {
		return 0, shared.WrapDomainError("INVALID_PAYLOAD", "Webhook payload could not be parsed", err)
	}
	if len(msgs) == 0 {
		return 0, nil
	}

	tenant, err := s.webhookTenant(ctx)
	if err != nil {
		return 0, err
	}
	if tenant == nil {
		s.logger.Warn("WhatsApp webhook received but no workspace is configured for it",
			zap.Int("messages", len(msgs)))
		return 0, nil
	}

	for _, msg := range msgs {
		s.metrics.Message(string(messaging.ChannelWhatsApp), "inbound")
		c, err := s.contacts.FindByPhone(ctx, tenant.ID, msg.From)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				s.logger.Debug("WhatsApp message from unknown number", zap.String("message_id", msg.ID))
				continue
			}
			return logged, err
		}
		if c.InvestorID == nil {
			continue
		}

		sender := c.FullName()
		if sender == "" {
			sender = msg.ProfileName
		}
		a, err := activity.NewActivity(tenant.ID, c.InvestorID, activity.ActivityTypeMessage, "WhatsApp from "+sender, msg.ReceivedAt)
		if err != nil {
			return logged, err
		}
		a.WithSource(activity.SourceWhatsApp, msg.ID)
		a.ContactID = &c.ID
		a.Body = msg.Text
		a.Metadata = map[string]any{
			"channel":   string(messaging.ChannelWhatsApp),
			"direction": "inbound",
			"from":      msg.From,
			"type":      msg.Type,
		}
		created, err := s.recorder.Record(ctx, a)
		if err != nil {
			return logged, err
		}
		if created {
			logged++
		}
	}
	return logged, nil
}

func (s *MessagingService) webhookTenant(ctx context.Context) (*identity.Tenant, error) {
	if s.cfg.WhatsAppTenantSlug == "" {
		return nil, nil
	}
	tenant, err := s.tenants.FindBySlug(ctx, s.cfg.WhatsAppTenantSlug)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return tenant, nil
}

func outboundSubject(channel messaging.Channel) string {
	if channel == messaging.ChannelWhatsApp {
		return "WhatsApp message sent"
	}
	return "Google Chat message sent"
}

func sourceFor(channel messaging.Channel) activity.Source {
	if channel == messaging.ChannelWhatsApp {
		return activity.SourceWhatsApp
	}
	return activity.SourceChat
}
