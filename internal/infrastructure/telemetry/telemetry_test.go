package telemetry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestNewTracerProvider_Disabled(t *testing.T) {
	tp, err := NewTracerProvider(context.Background(), Config{Enabled: false}, zap.NewNop())

	require.NoError(t, err)
	assert.False(t, tp.IsEnabled())
	assert.NotNil(t, tp.Tracer("test"))
	assert.NoError(t, tp.Shutdown(context.Background()))
}

func TestSamplerFor(t *testing.T) {
	assert.Contains(t, samplerFor(1).Description(), "AlwaysOnSampler")
	assert.Equal(t, "AlwaysOffSampler", samplerFor(0).Description())
	assert.Contains(t, samplerFor(0.25).Description(), "TraceIDRatioBased{0.25}")
}

func installRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
	return rec
}

func TestStartSpan(t *testing.T) {
	rec := installRecorder(t)

	run := func(ctx context.Context) (err error) {
		ctx, span := StartSpan(ctx, "investor", "move_stage", AttrStage, "meeting", AttrCount, 2, 42, "ignored")
		defer End(span, &err)
		assert.NotEmpty(t, TraceID(ctx))
		return errors.New("boom")
	}
	require.Error(t, run(context.Background()))

	spans := rec.Ended()
	require.Len(t, spans, 1)
	s := spans[0]
	assert.Equal(t, "investor.move_stage", s.Name())
	assert.Equal(t, codes.Error, s.Status().Code)
	attrs := map[string]string{}
	for _, kv := range s.Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "meeting", attrs[AttrStage])
	assert.Equal(t, "2", attrs[AttrCount])
	assert.Len(t, attrs, 2)
}

func TestStartClientSpan(t *testing.T) {
	rec := installRecorder(t)

	_, span := StartClientSpan(context.Background(), "gmail", "list_messages")
	span.End()

	require.Len(t, rec.Ended(), 1)
	assert.Equal(t, "gmail.list_messages", rec.Ended()[0].Name())
	assert.Equal(t, trace.SpanKindClient, rec.Ended()[0].SpanKind())
}

func TestTraceID_NoSpan(t *testing.T) {
	assert.Empty(t, TraceID(context.Background()))
}

func TestMetrics_Recording(t *testing.T) {
	m := NewMetrics()

	done := m.HTTPStarted()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpInFlight))
	done("GET", "/api/v1/investors", 200, 30*time.Millisecond)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.httpInFlight))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/api/v1/investors", "200")))

	m.StageTransition("committed")
	m.StageTransition("committed")
	assert.Equal(t, 2.0, testutil.ToFloat64(m.stageTransitions.WithLabelValues("committed")))

	m.ImportRows(10, 2, 1)
	assert.Equal(t, 10.0, testutil.ToFloat64(m.importedRows.WithLabelValues("imported")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.importedRows.WithLabelValues("failed")))

	m.LLMCall("chat", errors.New("timeout"), time.Second)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.llmCalls.WithLabelValues("chat", "error")))

	m.JobRun("purge", nil)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.jobRuns.WithLabelValues("purge", "ok")))

	m.RealtimeClients(3)
	m.RealtimeClients(-1)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.realtimeClients))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.HTTPStarted()("GET", "/", 200, 0)
		m.StageTransition("target")
		m.ImportRows(1, 1, 1)
		m.RelationshipDetected("works_at_firm")
		m.LLMCall("chat", nil, 0)
		m.SyncRun("gmail", nil)
		m.JobRun("purge", nil)
		m.RealtimeClients(1)
		m.Message("whatsapp", "inbound")
		m.ObserveQuery("query", "investors", 0)
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics()
	m.RelationshipDetected("works_at_firm")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `crm_network_relationships_detected_total{type="works_at_firm"} 1`))
	assert.Contains(t, body, "go_goroutines")
}

func TestInstrumentDB(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	m := NewMetrics()
	require.NoError(t, m.RegisterDBStats(sqlDB, "crm"))
	require.NoError(t, InstrumentDB(db, DBTracingConfig{SlowQueryThresh: time.Nanosecond}, m, zap.NewNop()))

	type widget struct {
		ID   uint
		Name string
	}
	require.NoError(t, db.AutoMigrate(&widget{}))
	require.NoError(t, db.WithContext(context.Background()).Create(&widget{Name: "a"}).Error)

	var got []widget
	require.NoError(t, db.WithContext(context.Background()).Find(&got).Error)

	assert.Len(t, got, 1)
	assert.GreaterOrEqual(t, testutil.CollectAndCount(m.dbQueryDuration), 2)
}
