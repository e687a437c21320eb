package logger

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// GinLoggerKey is the gin context key holding the request logger.
const GinLoggerKey = "logger"

// GinMiddleware logs one line per request and exposes a request scoped
// logger through both the gin context and the request context.
func GinMiddleware(base *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		reqLogger := base
		if id := c.GetString("request_id"); id != "" {
			reqLogger = reqLogger.With(zap.String("request_id", id))
		}
		c.Set(GinLoggerKey, reqLogger)
		c.Request = c.Request.WithContext(WithContext(c.Request.Context(), reqLogger))

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("client_ip", c.ClientIP()),
			zap.Duration("latency", time.Since(start)),
			zap.Int("size", c.Writer.Size()),
		}
		if query != "" {
			fields = append(fields, zap.String("query", query))
		}
		if user := APIUser(c.Request.Context()); user != "" {
			fields = append(fields, zap.String("api_user", user))
		}
		if cache := c.Writer.Header().Get("X-Cache"); cache != "" {
			fields = append(fields, zap.String("cache", cache))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		reqLogger.Check(levelForStatus(status), "HTTP Request").Write(fields...)
	}
}

func levelForStatus(status int) zapcore.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return zapcore.ErrorLevel
	case status >= http.StatusBadRequest:
		return zapcore.WarnLevel
	default:
		return zapcore.InfoLevel
	}
}

// Recovery turns panics into a logged 500.
func Recovery(base *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				GetGinLogger(c, base).Error("panic recovered",
					zap.Any("panic", rec),
					zap.String("path", c.Request.URL.Path),
					zap.ByteString("stack", debug.Stack()),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"success": false,
					"error": gin.H{
						"code":    "INTERNAL_ERROR",
						"message": "Internal server error",
					},
				})
			}
		}()
		c.Next()
	}
}

// GetGinLogger returns the request logger, or fallback when none is set.
func GetGinLogger(c *gin.Context, fallback *zap.Logger) *zap.Logger {
	if v, ok := c.Get(GinLoggerKey); ok {
		if l, ok := v.(*zap.Logger); ok {
			return l
		}
	}
	if fallback != nil {
		return fallback
	}
	return zap.NewNop()
}
