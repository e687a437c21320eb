package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when a metrics constructor gets no meter.
var ErrMeterNil = errors.New("telemetry: meter is nil")

// Request outcomes reported by PrintMetrics.RecordRequest.
const (
	OutcomeCacheHit     = "cache_hit"
	OutcomeRendered     = "rendered"
	OutcomeInvalidInput = "invalid_input"
	OutcomeRenderFailed = "render_failed"
	OutcomeServerError  = "server_error"
)

// PrintMetrics holds the print pipeline instruments.
type PrintMetrics struct {
	requests       metric.Int64Counter
	cacheLookups   metric.Int64Counter
	renderDuration metric.Float64Histogram
	renderFailures metric.Int64Counter
	inflight       metric.Int64UpDownCounter
}

// NewPrintMetrics registers the instruments on meter.
func NewPrintMetrics(meter metric.Meter) (*PrintMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	m := &PrintMetrics{}
	var err error

	if m.requests, err = meter.Int64Counter("printapi.print.requests",
		metric.WithDescription("Print requests by outcome"),
		metric.WithUnit("{request}")); err != nil {
		return nil, fmt.Errorf("failed to create requests counter: %w", err)
	}
	if m.cacheLookups, err = meter.Int64Counter("printapi.cache.lookups",
		metric.WithDescription("Render cache lookups by result"),
		metric.WithUnit("{lookup}")); err != nil {
		return nil, fmt.Errorf("failed to create cache counter: %w", err)
	}
	if m.renderDuration, err = meter.Float64Histogram("printapi.render.duration",
		metric.WithDescription("wkhtmltopdf wall time"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60)); err != nil {
		return nil, fmt.Errorf("failed to create render histogram: %w", err)
	}
	if m.renderFailures, err = meter.Int64Counter("printapi.render.failures",
		metric.WithDescription("Failed renders by error code"),
		metric.WithUnit("{render}")); err != nil {
		return nil, fmt.Errorf("failed to create failure counter: %w", err)
	}
	if m.inflight, err = meter.Int64UpDownCounter("printapi.render.inflight",
		metric.WithDescription("Renders currently running"),
		metric.WithUnit("{render}")); err != nil {
		return nil, fmt.Errorf("failed to create inflight counter: %w", err)
	}
	return m, nil
}

// RecordRequest counts one finished print request.
func (m *PrintMetrics) RecordRequest(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.requests.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordCacheLookup counts a hit or a miss.
func (m *PrintMetrics) RecordCacheLookup(ctx context.Context, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

// RenderStarted marks a render as in flight and returns the function that
// records its duration and, for a non-empty code, a failure.
func (m *PrintMetrics) RenderStarted(ctx context.Context) func(code string) {
	if m == nil {
		return func(string) {}
	}
	start := time.Now()
	m.inflight.Add(ctx, 1)
	return func(code string) {
		m.inflight.Add(ctx, -1)
		status := "ok"
		if code != "" {
			status = "error"
			m.renderFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("code", code)))
		}
		m.renderDuration.Record(ctx, time.Since(start).Seconds(),
			metric.WithAttributes(attribute.String("status", status)))
	}
}
