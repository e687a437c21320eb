package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig holds configuration for database tracing.
type DBTracingConfig struct {
	Enabled         bool
	DBSystem        string        // "postgresql" or "sqlite"
	LogFullSQL      bool          // keep bound variables in spans
	SlowQueryThresh time.Duration // default 200ms
	TracerProvider  trace.TracerProvider // defaults to the global provider
}

type queryStartKey struct{}

// RegisterDBTracing installs otelgorm on db and flags slow statements on
// their spans. It is a no-op when tracing is disabled.
func RegisterDBTracing(db *gorm.DB, cfg DBTracingConfig, logger *zap.Logger) error {
	if !cfg.Enabled {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = 200 * time.Millisecond
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBSystem)}
	if cfg.TracerProvider != nil {
		opts = append(opts, otelgorm.WithTracerProvider(cfg.TracerProvider))
	}
	if !cfg.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	before := func(tx *gorm.DB) {
		if tx.Statement.Context != nil {
			tx.Statement.Context = context.WithValue(tx.Statement.Context, queryStartKey{}, time.Now())
		}
	}
	after := func(tx *gorm.DB) { markSlowQuery(tx, cfg.SlowQueryThresh) }

	// the after hooks run before otelgorm ends the span
	cb := db.Callback()
	registrations := []error{
		cb.Create().Before("gorm:create").Register("printapi:start_create", before),
		cb.Query().Before("gorm:query").Register("printapi:start_query", before),
		cb.Update().Before("gorm:update").Register("printapi:start_update", before),
		cb.Delete().Before("gorm:delete").Register("printapi:start_delete", before),
		cb.Row().Before("gorm:row").Register("printapi:start_row", before),
		cb.Raw().Before("gorm:raw").Register("printapi:start_raw", before),
		cb.Create().After("gorm:create").Before("otel:after:create").Register("printapi:slow_create", after),
		cb.Query().After("gorm:query").Before("otel:after:select").Register("printapi:slow_query", after),
		cb.Update().After("gorm:update").Before("otel:after:update").Register("printapi:slow_update", after),
		cb.Delete().After("gorm:delete").Before("otel:after:delete").Register("printapi:slow_delete", after),
		cb.Row().After("gorm:row").Before("otel:after:row").Register("printapi:slow_row", after),
		cb.Raw().After("gorm:raw").Before("otel:after:raw").Register("printapi:slow_raw", after),
	}
	if err := errors.Join(registrations...); err != nil {
		return err
	}

	logger.Info("Database tracing enabled",
		zap.String("db_system", cfg.DBSystem),
		zap.Duration("slow_query_threshold", cfg.SlowQueryThresh),
	)
	return nil
}

func markSlowQuery(tx *gorm.DB, threshold time.Duration) {
	ctx := tx.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	if tx.Error != nil && !errors.Is(tx.Error, gorm.ErrRecordNotFound) {
		span.RecordError(tx.Error)
	}
	start, ok := ctx.Value(queryStartKey{}).(time.Time)
	if !ok {
		return
	}
	if elapsed := time.Since(start); elapsed > threshold {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
	}
}
