package telemetry

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig configures database instrumentation.
type DBTracingConfig struct {
	TracingEnabled  bool
	WithVariables   bool          // include bound values in span statements (development only)
	SlowQueryThresh time.Duration // statements slower than this get a db.slow_query attribute
	DBName          string
}

type queryStartKey struct{}

// InstrumentDB registers the otelgorm plugin (when tracing is on) and timing callbacks that feed
// the query duration histogram and flag slow statements on the active span.
func InstrumentDB(db *gorm.DB, cfg DBTracingConfig, metrics *Metrics, logger *zap.Logger) error {
	if cfg.TracingEnabled {
		opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBName)}
		if !cfg.WithVariables {
			opts = append(opts, otelgorm.WithoutQueryVariables())
		}
		if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
			return err
		}
	}
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = 200 * time.Millisecond
	}

	before := func(tx *gorm.DB) {
		if tx.Statement.Context != nil {
			tx.Statement.Context = context.WithValue(tx.Statement.Context, queryStartKey{}, time.Now())
		}
	}
	after := func(operation string) func(*gorm.DB) {
		return func(tx *gorm.DB) {
			observeStatement(tx, operation, cfg.SlowQueryThresh, metrics)
		}
	}

	cb := db.Callback()
	steps := []struct {
		op     string
		before func(string, func(*gorm.DB)) error
		after  func(string, func(*gorm.DB)) error
	}{
		{"create", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register},
		{"query", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register},
		{"update", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register},
		{"delete", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register},
		{"row", cb.Row().Before("gorm:row").Register, cb.Row().After("gorm:row").Register},
		{"raw", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register},
	}
	for _, s := range steps {
		if err := s.before("crm_timing:before_"+s.op, before); err != nil {
			return err
		}
		if err := s.after("crm_timing:after_"+s.op, after(s.op)); err != nil {
			return err
		}
	}

	logger.Info("Database instrumentation registered",
		zap.Bool("tracing", cfg.TracingEnabled),
		zap.Duration("slow_query_threshold", cfg.SlowQueryThresh),
	)
	return nil
}

func observeStatement(tx *gorm.DB, operation string, slow time.Duration, metrics *Metrics) {
	ctx := tx.Statement.Context
	if ctx == nil {
		return
	}
	start, ok := ctx.Value(queryStartKey{}).(time.Time)
	if !ok {
		return
	}
	elapsed := time.Since(start)
	table := tx.Statement.Table
	if table == "" {
		table = "unknown"
	}
	metrics.ObserveQuery(operation, strings.ToLower(table), elapsed)

	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.SetAttributes(
		attribute.Int64("db.rows_affected", tx.Statement.RowsAffected),
		attribute.String("db.sql.table", table),
	)
	if tx.Error != nil && !errors.Is(tx.Error, gorm.ErrRecordNotFound) {
		RecordError(span, tx.Error)
	}
	if elapsed > slow {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
	}
}
