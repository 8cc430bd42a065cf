package telemetry

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "crm"

// Metrics holds the Prometheus collectors for the API process.
// Each instance owns its registry so tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	httpInFlight prometheus.Gauge
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	dbQueryDuration *prometheus.HistogramVec

	stageTransitions *prometheus.CounterVec
	importedRows     *prometheus.CounterVec
	relationships    *prometheus.CounterVec
	llmCalls         *prometheus.CounterVec
	llmDuration      prometheus.Histogram
	syncRuns         *prometheus.CounterVec
	jobRuns          *prometheus.CounterVec
	realtimeClients  prometheus.Gauge
	messagesSent     *prometheus.CounterVec
	assistantTools   *prometheus.CounterVec
}

// NewMetrics registers all collectors on a fresh registry, including Go runtime and process collectors
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "http", Name: "inflight_requests",
			Help: "Current number of in-flight HTTP requests.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "http", Name: "requests_total",
			Help: "Total number of HTTP requests handled.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "http", Name: "request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 11),
		}, []string{"method", "route"}),
		dbQueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "db", Name: "query_duration_seconds",
			Help:    "Duration of database statements by operation and table.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		}, []string{"operation", "table"}),
		stageTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "pipeline", Name: "stage_transitions_total",
			Help: "Investor stage transitions by target stage.",
		}, []string{"to"}),
		importedRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "network", Name: "import_rows_total",
			Help: "LinkedIn import rows by outcome.",
		}, []string{"outcome"}),
		relationships: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "network", Name: "relationships_detected_total",
			Help: "Warm-intro relationships detected by type.",
		}, []string{"type"}),
		llmCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "llm", Name: "calls_total",
			Help: "LLM API calls by purpose and status.",
		}, []string{"purpose", "status"}),
		llmDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "llm", Name: "call_duration_seconds",
			Help:    "Duration of LLM API calls.",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 8),
		}),
		syncRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "google", Name: "sync_runs_total",
			Help: "Google sync runs by kind and status.",
		}, []string{"kind", "status"}),
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "scheduler", Name: "job_runs_total",
			Help: "Scheduled job runs by job and status.",
		}, []string{"job", "status"}),
		realtimeClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "realtime", Name: "connected_clients",
			Help: "Currently connected WebSocket clients.",
		}),
		messagesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "messaging", Name: "messages_total",
			Help: "Messages by channel and direction.",
		}, []string{"channel", "direction"}),
		assistantTools: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "assistant", Name: "tool_calls_total",
			Help: "Assistant tool executions by tool and outcome.",
		}, []string{"tool", "outcome"}),
	}

	m.registry.MustRegister(
		m.httpInFlight, m.httpRequests, m.httpDuration,
		m.dbQueryDuration,
		m.stageTransitions, m.importedRows, m.relationships,
		m.llmCalls, m.llmDuration, m.syncRuns, m.jobRuns,
		m.realtimeClients, m.messagesSent, m.assistantTools,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// RegisterDBStats exposes connection pool statistics for db
func (m *Metrics) RegisterDBStats(db *sql.DB, name string) error {
	return m.registry.Register(collectors.NewDBStatsCollector(db, name))
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// The recording helpers below are nil-safe so services can run without metrics in tests.

// HTTPStarted increments the in-flight gauge and returns a func that records the finished request
func (m *Metrics) HTTPStarted() func(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return func(string, string, int, time.Duration) {}
	}
	m.httpInFlight.Inc()
	return func(method, route string, status int, elapsed time.Duration) {
		m.httpInFlight.Dec()
		m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
	}
}

// ObserveQuery records a database statement duration
func (m *Metrics) ObserveQuery(operation, table string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(operation, table).Observe(elapsed.Seconds())
}

// StageTransition counts an investor moving to stage to
func (m *Metrics) StageTransition(to string) {
	if m == nil {
		return
	}
	m.stageTransitions.WithLabelValues(to).Inc()
}

// ImportRows counts imported, skipped and failed CSV rows
func (m *Metrics) ImportRows(imported, skipped, failed int) {
	if m == nil {
		return
	}
	m.importedRows.WithLabelValues("imported").Add(float64(imported))
	m.importedRows.WithLabelValues("skipped").Add(float64(skipped))
	m.importedRows.WithLabelValues("failed").Add(float64(failed))
}

// RelationshipDetected counts one detected relationship
func (m *Metrics) RelationshipDetected(relType string) {
	if m == nil {
		return
	}
	m.relationships.WithLabelValues(relType).Inc()
}

// LLMCall records one LLM request
func (m *Metrics) LLMCall(purpose string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.llmCalls.WithLabelValues(purpose, errorLabel(err)).Inc()
	m.llmDuration.Observe(elapsed.Seconds())
}

// SyncRun records one Google sync run
func (m *Metrics) SyncRun(kind string, err error) {
	if m == nil {
		return
	}
	m.syncRuns.WithLabelValues(kind, errorLabel(err)).Inc()
}

// JobRun records one scheduled job execution
func (m *Metrics) JobRun(job string, err error) {
	if m == nil {
		return
	}
	m.jobRuns.WithLabelValues(job, errorLabel(err)).Inc()
}

// RealtimeClients adjusts the connected client gauge by delta
func (m *Metrics) RealtimeClients(delta int) {
	if m == nil {
		return
	}
	m.realtimeClients.Add(float64(delta))
}

// Message counts one message on channel in direction ("inbound" or "outbound")
func (m *Metrics) Message(channel, direction string) {
	if m == nil {
		return
	}
	m.messagesSent.WithLabelValues(channel, direction).Inc()
}

// AssistantTool counts one tool requested by the assistant. Outcome is "ok", "error" or "denied".
func (m *Metrics) AssistantTool(tool, outcome string) {
	if m == nil {
		return
	}
	m.assistantTools.WithLabelValues(tool, outcome).Inc()
}

func errorLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
