package handler

import (
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	integrationapp "github.com/investorcrm/backend/internal/application/integration"
	"github.com/investorcrm/backend/internal/domain/shared"
	"github.com/investorcrm/backend/internal/interfaces/http/dto"
)

const (
	// whatsAppSignatureHeader carries the HMAC-SHA256 of the raw webhook body
	whatsAppSignatureHeader = "X-Hub-Signature-256"
	maxWebhookBody          = 1 << 20
)

// AuthURLResponse is the Google consent URL the browser should open
type AuthURLResponse struct {
	URL string `json:"url"`
}

// WebhookAck acknowledges an inbound webhook
type WebhookAck struct {
	Logged int `json:"logged"`
}

// IntegrationHandler handles Google, messaging and news endpoints
type IntegrationHandler struct {
	BaseHandler
	googleService    *integrationapp.GoogleService
	messagingService *integrationapp.MessagingService
	newsService      *integrationapp.NewsService
	// appURL is where the OAuth callback sends the browser; empty answers with JSON
	appURL string
}

// NewIntegrationHandler creates a new IntegrationHandler
func NewIntegrationHandler(
	googleService *integrationapp.GoogleService,
	messagingService *integrationapp.MessagingService,
	newsService *integrationapp.NewsService,
	appURL string,
) *IntegrationHandler {
	return &IntegrationHandler{
		googleService:    googleService,
		messagingService: messagingService,
		newsService:      newsService,
		appURL:           strings.TrimRight(appURL, "/"),
	}
}

// GoogleStatus returns the caller's Google connection
func (h *IntegrationHandler) GoogleStatus(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}

	status, err := h.googleService.Status(c.Request.Context(), tenantID, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, status)
}

// GoogleAuthURL godoc
// @Summary      Start Google OAuth
// @Description  Returns the consent URL requesting Gmail read and Calendar scopes
// @Tags         integrations
// @Produce      json
// @Success      200 {object} dto.Response{data=AuthURLResponse}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /integrations/google/auth-url [get]
func (h *IntegrationHandler) GoogleAuthURL(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}

	authURL, err := h.googleService.AuthURL(c.Request.Context(), tenantID, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, AuthURLResponse{URL: authURL})
}

// GoogleCallback godoc
// @Summary      Google OAuth callback
// @Description  Public endpoint. The signed state identifies the tenant and user that started the flow.
// @Tags         integrations
// @Param        code  query string true "Authorization code"
// @Param        state query string true "Signed state"
// @Success      302
// @Success      200 {object} dto.Response{data=integrationapp.ConnectionResponse}
// @Router       /integrations/google/callback [get]
func (h *IntegrationHandler) GoogleCallback(c *gin.Context) {
	if reason := c.Query("error"); reason != "" {
		h.callbackDone(c, "error", reason, func() {
			h.ErrorWithCode(c, "GOOGLE_CONSENT_DENIED", "Google authorization was not granted: "+reason)
		})
		return
	}

	conn, err := h.googleService.HandleCallback(c.Request.Context(), c.Query("code"), c.Query("state"))
	if err != nil {
		reason := shared.GetErrorCode(err)
		if reason == "" {
			reason = dto.ErrCodeIntegrationError
		}
		h.callbackDone(c, "error", reason, func() { h.HandleError(c, err) })
		return
	}
	h.callbackDone(c, "connected", "", func() { h.Success(c, conn) })
}

func (h *IntegrationHandler) callbackDone(c *gin.Context, status, reason string, respond func()) {
	if h.appURL == "" {
		respond()
		return
	}
	q := url.Values{"google": {status}}
	if reason != "" {
		q.Set("reason", reason)
	}
	c.Redirect(http.StatusFound, h.appURL+"/settings/integrations?"+q.Encode())
}

// GoogleDisconnect forgets the caller's Google tokens
func (h *IntegrationHandler) GoogleDisconnect(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}

	if err := h.googleService.Disconnect(c.Request.Context(), tenantID, userID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// GoogleSync godoc
// @Summary      Sync Gmail and Calendar now
// @Description  Logs emails exchanged with known contacts and mirrors calendar events with investor attendees
// @Tags         integrations
// @Produce      json
// @Success      200 {object} dto.Response{data=integrationapp.SyncResult}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      502 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /integrations/google/sync [post]
func (h *IntegrationHandler) GoogleSync(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}

	result, err := h.googleService.Sync(c.Request.Context(), tenantID, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// SendMessage godoc
// @Summary      Send a message
// @Description  Sends through Google Chat or WhatsApp and logs the message as an activity when it concerns an investor
// @Tags         messages
// @Accept       json
// @Produce      json
// @Param        request body integrationapp.SendMessageRequest true "Message"
// @Success      200 {object} dto.Response{data=integrationapp.SendMessageResponse}
// @Failure      502 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /messages/send [post]
func (h *IntegrationHandler) SendMessage(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	var req integrationapp.SendMessageRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.messagingService.Send(c.Request.Context(), tenantID, userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// VerifyWhatsAppWebhook answers the subscription handshake with the raw challenge
func (h *IntegrationHandler) VerifyWhatsAppWebhook(c *gin.Context) {
	challenge, err := h.messagingService.VerifyWhatsAppWebhook(
		c.Query("hub.mode"), c.Query("hub.verify_token"), c.Query("hub.challenge"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.String(http.StatusOK, challenge)
}

// WhatsAppWebhook godoc
// @Summary      WhatsApp inbound webhook
// @Description  Public endpoint authenticated by X-Hub-Signature-256. Messages from known contacts are logged as activities.
// @Tags         messages
// @Accept       json
// @Produce      json
// @Success      200 {object} dto.Response{data=WebhookAck}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /webhooks/whatsapp [post]
func (h *IntegrationHandler) WhatsAppWebhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody+1))
	if err != nil {
		h.bindError(c, err)
		return
	}
	if len(body) > maxWebhookBody {
		h.bindError(c, &http.MaxBytesError{Limit: maxWebhookBody})
		return
	}

	logged, err := h.messagingService.HandleWhatsAppWebhook(c.Request.Context(), body, c.GetHeader(whatsAppSignatureHeader))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, WebhookAck{Logged: logged})
}

// InvestorNews godoc
// @Summary      Recent news about an investor
// @Description  Results are cached; a stale cache is served when the news provider fails
// @Tags         investors
// @Produce      json
// @Param        id path string true "Investor ID" format(uuid)
// @Success      200 {object} dto.Response{data=integrationapp.NewsResponse}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /investors/{id}/news [get]
func (h *IntegrationHandler) InvestorNews(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	investorID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	result, err := h.newsService.InvestorNews(c.Request.Context(), tenantID, investorID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
