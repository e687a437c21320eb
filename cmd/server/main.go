package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	identityapp "github.com/printapi/backend/internal/application/identity"
	printingapp "github.com/printapi/backend/internal/application/printing"
	"github.com/printapi/backend/internal/infrastructure/cache"
	"github.com/printapi/backend/internal/infrastructure/config"
	"github.com/printapi/backend/internal/infrastructure/logger"
	"github.com/printapi/backend/internal/infrastructure/persistence"
	"github.com/printapi/backend/internal/infrastructure/printing"
	"github.com/printapi/backend/internal/infrastructure/telemetry"
	"github.com/printapi/backend/internal/interfaces/http/handler"
	"github.com/printapi/backend/internal/interfaces/http/middleware"
	"github.com/printapi/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Version is stamped at build time with -ldflags "-X main.Version=...".
var Version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting print API",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("version", Version),
	)

	// Initialize OpenTelemetry
	providers, err := telemetry.Setup(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    Version,
		Insecure:          cfg.Telemetry.Insecure,
		MetricsInterval:   cfg.Telemetry.MetricsInterval,
		LogsEnabled:       cfg.Telemetry.LogsEnabled,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		if err := providers.Shutdown(context.Background()); err != nil {
			log.Error("Failed to shutdown telemetry", zap.Error(err))
		}
	}()

	level, err := zapcore.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	if core := providers.ZapCore(level); core != nil {
		log = log.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
			return zapcore.NewTee(c, core)
		}))
	}

	// Continuous profiling
	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.Profiling.Enabled,
		ServerAddress:   cfg.Profiling.ServerAddress,
		ApplicationName: cfg.Telemetry.ServiceName,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	defer func() {
		if err := profiler.Stop(); err != nil {
			log.Error("Failed to stop profiler", zap.Error(err))
		}
	}()
	if cfg.Profiling.SpanProfiles && profiler.IsEnabled() {
		providers.EnableSpanProfiles()
	}

	// Initialize database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(200*time.Millisecond),
		logger.WithIgnoreRecordNotFoundError(true),
	)
	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithLogger(gormLog))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database", zap.Error(err))
		}
	}()
	log.Info("Database connected", zap.String("driver", db.Driver()))

	if err := db.EnsureSchema(context.Background()); err != nil {
		log.Fatal("Failed to prepare database schema", zap.Error(err))
	}

	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:  cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		DBSystem: dbSystem(db.Driver()),
	}, log); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	// Credential cache
	credCache, err := cache.NewCredentialCacheFactory(cfg.Redis, cfg.Auth.CredentialCacheTTL,
		cache.WithLogger(log),
	).Create(context.Background())
	if err != nil {
		log.Fatal("Failed to create credential cache", zap.Error(err))
	}
	defer func() {
		_ = credCache.Close()
	}()

	// Renderer and PDF cache
	scratch, err := printing.NewScratchDir(cfg.Print.TmpDir)
	if err != nil {
		log.Fatal("Failed to prepare scratch directory", zap.Error(err))
	}
	renderer, err := printing.NewWkhtmltopdfRenderer(&printing.WkhtmltopdfConfig{
		BinaryPath:    cfg.Print.BinaryPath,
		ConstantArgs:  cfg.Print.ConstantOptions,
		Timeout:       cfg.Print.RenderTimeout,
		MaxConcurrent: int64(cfg.Print.MaxConcurrentRenders),
		Scratch:       scratch,
		Logger:        log,
	})
	if err != nil {
		log.Fatal("Failed to initialize renderer", zap.Error(err))
	}
	defer func() {
		_ = renderer.Close()
	}()
	if err := renderer.CheckBinary(); err != nil {
		// Requests will fail with a configuration error until the binary appears.
		log.Warn("wkhtmltopdf binary not usable", zap.Error(err))
	}

	renderCache, err := printing.NewRenderCache(&printing.RenderCacheConfig{
		Dir:      scratch.PDFDir(),
		TTL:      cfg.Print.CacheTTL,
		Disabled: !cfg.Print.CacheEnabled,
		Logger:   log,
	})
	if err != nil {
		log.Fatal("Failed to initialize render cache", zap.Error(err))
	}

	printMetrics, err := telemetry.NewPrintMetrics(providers.Meter("printapi"))
	if err != nil {
		log.Fatal("Failed to register print metrics", zap.Error(err))
	}

	// Repositories and services
	userRepo := persistence.NewGormAPIUserRepository(db.DB)
	recordRepo := persistence.NewGormPrintRecordRepository(db.DB)

	authService := identityapp.NewAuthService(userRepo, credCache, identityapp.AuthServiceConfig{
		CredentialTTL: cfg.Auth.CredentialCacheTTL,
	}, log)
	printService := printingapp.NewPrintService(recordRepo, userRepo, renderCache, renderer, log,
		printingapp.WithMetrics(printMetrics),
	)

	// HTTP engine
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	cors := middleware.DefaultCORSConfig()
	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		cors.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	}
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		cors.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	engine, err := router.NewEngine(router.EngineConfig{
		Logger:         log,
		ServiceName:    cfg.Telemetry.ServiceName,
		TracingEnabled: cfg.Telemetry.Enabled,
		MaxBodySize:    cfg.HTTP.MaxBodySize,
		TrustedProxies: cfg.HTTP.TrustedProxies,
		CORS:           cors,
		Security:       middleware.DefaultSecurityConfig(),
	})
	if err != nil {
		log.Fatal("Failed to build HTTP engine", zap.Error(err))
	}

	printMiddleware := []gin.HandlerFunc{middleware.APIKeyAuth(authService, log)}
	if cfg.HTTP.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRPS, cfg.HTTP.RateLimitBurst, 10*time.Minute)
		defer limiter.Close()
		printMiddleware = append(printMiddleware, middleware.RateLimit(limiter, middleware.APIUserOrIP))
	}

	printHandler := handler.NewPrintHandler(printService, cfg.App.Debug)
	router.NewRouter(engine).
		Register(handler.PrintRoutes(printHandler, printMiddleware...)).
		Setup()
	handler.RegisterRootPrintRoutes(engine, printHandler, printMiddleware...)

	healthHandler := handler.NewHealthHandler(log, healthChecks(db, renderer, scratch, credCache)...)
	handler.RegisterHealthRoutes(engine, healthHandler)

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		log.Error("Server failed", zap.Error(err))
	}
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}

	log.Info("Server exited gracefully")
}

func dbSystem(driver string) string {
	if driver == persistence.DriverPostgres {
		return "postgresql"
	}
	return driver
}

type pinger interface {
	Ping(ctx context.Context) error
}

// healthChecks lists the dependencies reported by GET /health.
func healthChecks(
	db *persistence.Database,
	renderer *printing.WkhtmltopdfRenderer,
	scratch *printing.ScratchDir,
	credCache cache.CredentialCache,
) []handler.HealthCheck {
	checks := []handler.HealthCheck{
		{Name: "database", Check: db.Ping},
		{Name: "renderer", Check: func(context.Context) error { return renderer.CheckBinary() }},
		{Name: "pdf_cache", Check: func(context.Context) error {
			_, err := os.Stat(scratch.PDFDir())
			return err
		}},
	}
	if p, ok := credCache.(pinger); ok {
		checks = append(checks, handler.HealthCheck{Name: "credential_cache", Check: p.Ping})
	}
	return checks
}
