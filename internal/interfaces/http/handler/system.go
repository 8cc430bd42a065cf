package handler

import (
	"context"
	"net/http"
	"runtime"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/investorcrm/backend/internal/infrastructure/logger"
	"github.com/investorcrm/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// readinessTimeout bounds each dependency check
const readinessTimeout = 2 * time.Second

// ReadinessCheck reports whether a dependency can serve traffic
type ReadinessCheck func(ctx context.Context) error

// SystemHandler handles liveness, readiness and metrics endpoints
type SystemHandler struct {
	BaseHandler
	name      string
	version   string
	startTime time.Time
	checks    map[string]ReadinessCheck
	metrics   http.Handler
}

// NewSystemHandler creates a new SystemHandler. metrics may be nil when
// metrics are disabled.
func NewSystemHandler(name, version string, checks map[string]ReadinessCheck, metrics http.Handler) *SystemHandler {
	if checks == nil {
		checks = map[string]ReadinessCheck{}
	}
	return &SystemHandler{
		name:      name,
		version:   version,
		startTime: time.Now(),
		checks:    checks,
		metrics:   metrics,
	}
}

// HealthResponse represents the liveness response
type HealthResponse struct {
	Status    string `json:"status" example:"ok"`
	Name      string `json:"name" example:"investor-crm"`
	Version   string `json:"version" example:"1.0.0"`
	GoVersion string `json:"go_version" example:"go1.25.5"`
	Uptime    string `json:"uptime" example:"1h30m45s"`
}

// ReadyResponse represents the readiness response
type ReadyResponse struct {
	Status string            `json:"status" example:"ready"`
	Checks map[string]string `json:"checks"`
}

// Health godoc
// @Summary      Liveness probe
// @Tags         system
// @Produce      json
// @Success      200 {object} dto.Response{data=HealthResponse}
// @Router       /health [get]
func (h *SystemHandler) Health(c *gin.Context) {
	h.Success(c, HealthResponse{
		Status:    "ok",
		Name:      h.name,
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	})
}

// Ready godoc
// @Summary      Readiness probe
// @Description  Checks the database and, when configured, Redis and the search engine
// @Tags         system
// @Produce      json
// @Success      200 {object} dto.Response{data=ReadyResponse}
// @Failure      503 {object} dto.Response{data=ReadyResponse}
// @Router       /ready [get]
func (h *SystemHandler) Ready(c *gin.Context) {
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	resp := ReadyResponse{Status: "ready", Checks: make(map[string]string, len(names))}
	for _, name := range names {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
		err := h.checks[name](ctx)
		cancel()
		if err != nil {
			logger.FromContext(c.Request.Context()).Warn("Readiness check failed",
				zap.String("check", name), zap.Error(err))
			resp.Status = "unavailable"
			resp.Checks[name] = "error"
			continue
		}
		resp.Checks[name] = "ok"
	}

	if resp.Status != "ready" {
		c.JSON(http.StatusServiceUnavailable, dto.Response{Success: false, Data: resp})
		return
	}
	h.Success(c, resp)
}

// Metrics serves the Prometheus exposition format
func (h *SystemHandler) Metrics(c *gin.Context) {
	if h.metrics == nil {
		h.NotFound(c, "Metrics are disabled")
		return
	}
	h.metrics.ServeHTTP(c.Writer, c.Request)
}
