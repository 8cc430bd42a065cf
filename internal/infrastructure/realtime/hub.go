// Package realtime pushes per-tenant change notifications to WebSocket clients.
package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/investorcrm/backend/internal/infrastructure/config"
	"github.com/investorcrm/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Message is the payload pushed to subscribers
type Message struct {
	Type          string    `json:"type"`
	AggregateType string    `json:"aggregate_type"`
	AggregateID   uuid.UUID `json:"aggregate_id"`
	Version       int       `json:"version"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Client is one WebSocket connection
type Client struct {
	id       uuid.UUID
	tenantID uuid.UUID
	userID   uuid.UUID
	conn     *websocket.Conn
	send     chan []byte
	once     sync.Once
}

// Hub keeps the subscriber set of every tenant
type Hub struct {
	mu           sync.RWMutex
	tenants      map[uuid.UUID]map[*Client]struct{}
	sendBuffer   int
	pingInterval time.Duration
	writeTimeout time.Duration
	metrics      *telemetry.Metrics
	logger       *zap.Logger
}

// NewHub creates a hub with defaults filled in from cfg
func NewHub(cfg config.RealtimeConfig, metrics *telemetry.Metrics, logger *zap.Logger) *Hub {
	h := &Hub{
		tenants:      make(map[uuid.UUID]map[*Client]struct{}),
		sendBuffer:   cfg.SendBuffer,
		pingInterval: cfg.PingInterval,
		writeTimeout: cfg.WriteTimeout,
		metrics:      metrics,
		logger:       logger,
	}
	if h.sendBuffer <= 0 {
		h.sendBuffer = 64
	}
	if h.pingInterval <= 0 {
		h.pingInterval = 30 * time.Second
	}
	if h.writeTimeout <= 0 {
		h.writeTimeout = 10 * time.Second
	}
	return h
}

// Serve registers conn for the tenant and blocks until the connection closes
func (h *Hub) Serve(conn *websocket.Conn, tenantID, userID uuid.UUID) {
	c := &Client{
		id:       uuid.New(),
		tenantID: tenantID,
		userID:   userID,
		conn:     conn,
		send:     make(chan []byte, h.sendBuffer),
	}
	h.register(c)
	h.logger.Debug("realtime client connected",
		zap.String("tenant_id", tenantID.String()),
		zap.String("user_id", userID.String()),
	)

	go h.writePump(c)
	h.readPump(c)
}

// Broadcast sends msg to every subscriber of the tenant. Clients whose buffer is full are dropped.
func (h *Hub) Broadcast(tenantID uuid.UUID, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to encode realtime message", zap.Error(err))
		return
	}

	h.mu.RLock()
	var slow []*Client
	for c := range h.tenants[tenantID] {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.Warn("dropping slow realtime client",
			zap.String("tenant_id", tenantID.String()),
			zap.String("client_id", c.id.String()),
		)
		h.unregister(c)
	}
}

// ClientCount returns the number of connected clients for the tenant
func (h *Hub) ClientCount(tenantID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.tenants[tenantID])
}

// Close disconnects every client
func (h *Hub) Close() {
	h.mu.RLock()
	var all []*Client
	for _, set := range h.tenants {
		for c := range set {
			all = append(all, c)
		}
	}
	h.mu.RUnlock()
	for _, c := range all {
		h.unregister(c)
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	set, ok := h.tenants[c.tenantID]
	if !ok {
		set = make(map[*Client]struct{})
		h.tenants[c.tenantID] = set
	}
	set[c] = struct{}{}
	h.mu.Unlock()
	h.metrics.RealtimeClients(1)
}

// unregister removes the client and closes its send channel exactly once
func (h *Hub) unregister(c *Client) {
	c.once.Do(func() {
		h.mu.Lock()
		if set, ok := h.tenants[c.tenantID]; ok {
			delete(set, c)
			if len(set) == 0 {
				delete(h.tenants, c.tenantID)
			}
		}
		h.mu.Unlock()
		close(c.send)
		h.metrics.RealtimeClients(-1)
	})
}

// readPump only processes control frames; client messages are ignored
func (h *Hub) readPump(c *Client) {
	defer func() {
		h.unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	pongWait := h.pingInterval * 2
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *Client) {
	ticker := time.NewTicker(h.pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.unregister(c)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.unregister(c)
				return
			}
		}
	}
}
