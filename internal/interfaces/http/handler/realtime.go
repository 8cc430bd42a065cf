package handler

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/investorcrm/backend/internal/infrastructure/config"
	"github.com/investorcrm/backend/internal/infrastructure/logger"
	"github.com/investorcrm/backend/internal/infrastructure/realtime"
	"go.uber.org/zap"
)

// RealtimeHandler upgrades authenticated requests to the tenant change feed
type RealtimeHandler struct {
	BaseHandler
	hub      *realtime.Hub
	upgrader websocket.Upgrader
}

// NewRealtimeHandler creates a new RealtimeHandler. Browsers must connect from one of the
// allowed origins; an empty list only admits same-host requests.
func NewRealtimeHandler(hub *realtime.Hub, cfg config.RealtimeConfig) *RealtimeHandler {
	return &RealtimeHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     originChecker(cfg.AllowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	wildcard := false
	for _, o := range allowed {
		o = strings.TrimRight(strings.ToLower(o), "/")
		if o == "*" {
			wildcard = true
		}
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || wildcard {
			return true
		}
		if _, ok := set[strings.ToLower(origin)]; ok {
			return true
		}
		u, err := url.Parse(origin)
		return err == nil && strings.EqualFold(u.Host, r.Host)
	}
}

// Connect godoc
// @Summary      Realtime change feed
// @Description  WebSocket. Authenticate with the access_token cookie or the token query parameter. Each message is {type, aggregate_type, aggregate_id, version, occurred_at}.
// @Tags         realtime
// @Success      101
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /realtime [get]
func (h *RealtimeHandler) Connect(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error
		logger.FromContext(c.Request.Context()).Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	h.hub.Serve(conn, tenantID, userID)
}
