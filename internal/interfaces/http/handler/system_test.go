package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/investorcrm/backend/internal/infrastructure/telemetry"
	"github.com/investorcrm/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func systemRouter(h *SystemHandler) *gin.Engine {
	router := gin.New()
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
	router.GET("/metrics", h.Metrics)
	return router
}

func TestSystemHandler_Health(t *testing.T) {
	h := NewSystemHandler("investor-crm", "1.2.3", nil, nil)

	w := httptest.NewRecorder()
	systemRouter(h).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	resp := testutil.DecodeData[HealthResponse](t, w)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "investor-crm", resp.Name)
	assert.Equal(t, "1.2.3", resp.Version)
	assert.NotEmpty(t, resp.GoVersion)
	assert.NotEmpty(t, resp.Uptime)
}

func TestSystemHandler_Ready(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	t.Run("all dependencies up", func(t *testing.T) {
		h := NewSystemHandler("crm", "dev", map[string]ReadinessCheck{"database": ok, "redis": ok}, nil)
		w := httptest.NewRecorder()
		systemRouter(h).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

		require.Equal(t, http.StatusOK, w.Code)
		resp := testutil.DecodeData[ReadyResponse](t, w)
		assert.Equal(t, "ready", resp.Status)
		assert.Equal(t, map[string]string{"database": "ok", "redis": "ok"}, resp.Checks)
	})

	t.Run("one dependency down", func(t *testing.T) {
		h := NewSystemHandler("crm", "dev", map[string]ReadinessCheck{"database": ok, "redis": down}, nil)
		w := httptest.NewRecorder()
		systemRouter(h).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), `"redis":"error"`)
		assert.Contains(t, w.Body.String(), `"database":"ok"`)
		assert.NotContains(t, w.Body.String(), "connection refused")
	})
}

func TestSystemHandler_Metrics(t *testing.T) {
	t.Run("exposes the registry", func(t *testing.T) {
		metrics := telemetry.NewMetrics()
		metrics.StageTransition("contacted")
		h := NewSystemHandler("crm", "dev", nil, metrics.Handler())

		w := httptest.NewRecorder()
		systemRouter(h).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "crm_")
	})

	t.Run("disabled", func(t *testing.T) {
		h := NewSystemHandler("crm", "dev", nil, nil)
		w := httptest.NewRecorder()
		systemRouter(h).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
