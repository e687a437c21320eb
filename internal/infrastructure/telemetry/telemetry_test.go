package telemetry

import (
	"context"
	"runtime/pprof"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestSetup_Disabled(t *testing.T) {
	ctx := context.Background()
	p, err := Setup(ctx, Config{ServiceName: "printapi"}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, p.IsEnabled())
	assert.Nil(t, p.ZapCore(zapcore.InfoLevel))
	assert.NotNil(t, p.Tracer("x"))
	assert.NotNil(t, p.Meter("x"))
	p.EnableSpanProfiles()
	assert.NoError(t, p.Shutdown(ctx))
}

func TestSamplerFor(t *testing.T) {
	assert.Contains(t, samplerFor(1).Description(), "AlwaysOn")
	assert.Contains(t, samplerFor(0).Description(), "AlwaysOff")
	assert.Contains(t, samplerFor(0.5).Description(), "TraceIDRatioBased")
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func sumByAttr(t *testing.T, m metricdata.Metrics, key, value string) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", m.Name)
	var total int64
	for _, dp := range sum.DataPoints {
		if v, ok := dp.Attributes.Value(attribute.Key(key)); ok && v.AsString() == value {
			total += dp.Value
		}
	}
	return total
}

func TestPrintMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := NewPrintMetrics(provider.Meter("test"))
	require.NoError(t, err)
	ctx := context.Background()

	m.RecordCacheLookup(ctx, true)
	m.RecordCacheLookup(ctx, false)
	m.RecordCacheLookup(ctx, false)
	m.RecordRequest(ctx, OutcomeRendered)

	done := m.RenderStarted(ctx)
	done("")
	failed := m.RenderStarted(ctx)
	failed("RENDER_FAILED")

	metrics := collect(t, reader)
	assert.Equal(t, int64(1), sumByAttr(t, metrics["printapi.cache.lookups"], "result", "hit"))
	assert.Equal(t, int64(2), sumByAttr(t, metrics["printapi.cache.lookups"], "result", "miss"))
	assert.Equal(t, int64(1), sumByAttr(t, metrics["printapi.print.requests"], "outcome", OutcomeRendered))
	assert.Equal(t, int64(1), sumByAttr(t, metrics["printapi.render.failures"], "code", "RENDER_FAILED"))

	hist, ok := metrics["printapi.render.duration"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	var count uint64
	for _, dp := range hist.DataPoints {
		count += dp.Count
	}
	assert.Equal(t, uint64(2), count)
}

func TestPrintMetrics_NilSafe(t *testing.T) {
	var m *PrintMetrics
	m.RecordRequest(context.Background(), OutcomeCacheHit)
	m.RecordCacheLookup(context.Background(), true)
	m.RenderStarted(context.Background())("X")

	_, err := NewPrintMetrics(nil)
	assert.ErrorIs(t, err, ErrMeterNil)
}

type probe struct {
	ID   int64 `gorm:"primaryKey"`
	Name string
}

func TestRegisterDBTracing(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&probe{}))

	require.NoError(t, RegisterDBTracing(db, DBTracingConfig{}, nil), "disabled is a no-op")

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	ctx, span := tp.Tracer("test").Start(context.Background(), "parent")

	require.NoError(t, RegisterDBTracing(db, DBTracingConfig{
		Enabled:         true,
		DBSystem:        "sqlite",
		SlowQueryThresh: time.Nanosecond,
		TracerProvider:  tp,
	}, zaptest.NewLogger(t)))

	require.NoError(t, db.WithContext(ctx).Create(&probe{Name: "a"}).Error)
	var got []probe
	require.NoError(t, db.WithContext(ctx).Find(&got).Error)
	span.End()

	assert.Len(t, got, 1)
	ended := recorder.Ended()
	require.Greater(t, len(ended), 1, "queries produce child spans")

	var slow bool
	for _, s := range ended {
		for _, kv := range s.Attributes() {
			if kv.Key == "db.slow_query" && kv.Value.AsBool() {
				slow = true
			}
		}
	}
	assert.True(t, slow)
}

func TestProfiler(t *testing.T) {
	p, err := NewProfiler(ProfilerConfig{}, nil)
	require.NoError(t, err)
	assert.False(t, p.IsEnabled())
	assert.NoError(t, p.Stop())
	assert.NoError(t, p.Stop())

	_, err = NewProfiler(ProfilerConfig{Enabled: true}, nil)
	assert.Error(t, err)
}

func TestWithRenderLabels(t *testing.T) {
	var source string
	WithRenderLabels(context.Background(), "html", func(ctx context.Context) {
		source, _ = pprof.Label(ctx, "source")
	})
	assert.Equal(t, "html", source)

	WithRenderLabels(context.Background(), "user-supplied", func(ctx context.Context) {
		source, _ = pprof.Label(ctx, "source")
	})
	assert.Equal(t, "unknown", source)
}
