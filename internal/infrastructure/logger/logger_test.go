package logger

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestNew_WritesToFileAndTees(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	core, logs := observer.New(zapcore.DebugLevel)

	l, err := New(&Config{Level: "warn", Format: "json", Output: path}, core)
	require.NoError(t, err)
	l.Info("dropped")
	l.Warn("kept", zap.String("k", "v"))
	require.NoError(t, l.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"kept"`)
	assert.NotContains(t, string(data), "dropped")

	// extra cores filter on their own level
	assert.Equal(t, 2, logs.Len())
}

func TestNew_BadFile(t *testing.T) {
	_, err := New(&Config{Output: filepath.Join(t.TempDir(), "missing", "x.log")})
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warning"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("nonsense"))
}

func TestContextHelpers(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	ctx := WithContext(context.Background(), zap.New(core))
	ctx = WithRequestID(ctx, "req-1")
	ctx = WithAPIUser(ctx, "a@b.c")

	assert.Equal(t, "req-1", RequestID(ctx))
	assert.Equal(t, "a@b.c", APIUser(ctx))

	L(ctx).Info("hello")
	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "a@b.c", fields["api_user"])
	_, hasTrace := fields["trace_id"]
	assert.False(t, hasTrace)
}

func TestFromContext_Empty(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))
	assert.Empty(t, RequestID(context.Background()))
}

func TestGinMiddleware_LevelByStatus(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := gin.New()
	r.Use(GinMiddleware(zap.New(core)))
	r.GET("/ok", func(c *gin.Context) {
		c.Header("X-Cache", "HIT")
		c.Status(http.StatusOK)
	})
	r.GET("/bad", func(c *gin.Context) { c.Status(http.StatusBadRequest) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusServiceUnavailable) })

	for _, p := range []string{"/ok", "/bad", "/boom"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "HIT", entries[0].ContextMap()["cache"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
}

func TestRecovery(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := gin.New()
	r.Use(Recovery(zap.New(core)))
	r.GET("/panic", func(c *gin.Context) { panic("kaboom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
	assert.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
}

func TestGormLogger_Trace(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewGormLogger(zap.New(core), gormlogger.Warn, WithSlowThreshold(10*time.Millisecond))
	sql := func() (string, int64) { return "SELECT 1", 1 }

	l.Trace(context.Background(), time.Now(), sql, gorm.ErrRecordNotFound)
	assert.Equal(t, 0, logs.Len())

	l.Trace(context.Background(), time.Now(), sql, errors.New("broken"))
	assert.Equal(t, 1, logs.FilterMessage("query failed").Len())

	l.Trace(context.Background(), time.Now().Add(-time.Second), sql, nil)
	assert.Equal(t, 1, logs.FilterMessage("slow query").Len())

	l.Trace(context.Background(), time.Now(), sql, nil)
	assert.Equal(t, 2, logs.Len())

	silent := l.LogMode(gormlogger.Silent)
	silent.Trace(context.Background(), time.Now(), sql, errors.New("ignored"))
	assert.Equal(t, 2, logs.Len())
}

func TestMapGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, MapGormLogLevel("silent"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("warn"))
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("info"))
}
