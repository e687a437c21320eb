package router

import (
	"github.com/gin-gonic/gin"
	"github.com/printapi/backend/internal/infrastructure/logger"
	"github.com/printapi/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// EngineConfig configures the global middleware chain.
type EngineConfig struct {
	Logger         *zap.Logger
	ServiceName    string
	TracingEnabled bool
	MaxBodySize    int64
	TrustedProxies []string
	CORS           middleware.CORSConfig
	Security       middleware.SecurityConfig
}

// NewEngine builds a gin engine with the middleware every route shares:
// recovery, request id, access log, tracing, security headers, CORS and the
// body limit.
func NewEngine(cfg EngineConfig) (*gin.Engine, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, err
	}
	engine.HandleMethodNotAllowed = true

	engine.Use(
		logger.Recovery(log),
		middleware.RequestID(),
		logger.GinMiddleware(log),
		middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.ServiceName,
			Enabled:     cfg.TracingEnabled,
		}),
		middleware.SpanEnricher(),
		middleware.SpanErrorMarker(),
		middleware.SecureWithConfig(cfg.Security),
		middleware.CORSWithConfig(cfg.CORS),
	)
	if cfg.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.MaxBodySize))
	}

	middleware.SetupValidator()
	return engine, nil
}
