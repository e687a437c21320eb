package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/printapi/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// CredentialCacheFactory picks the credential cache backend from configuration.
type CredentialCacheFactory struct {
	redisConfig           config.RedisConfig
	ttl                   time.Duration
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// FactoryOption is a functional option for configuring the factory
type FactoryOption func(*CredentialCacheFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *CredentialCacheFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis degrades to
// the in-memory cache. Default is true.
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *CredentialCacheFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewCredentialCacheFactory creates a new factory
func NewCredentialCacheFactory(redisCfg config.RedisConfig, ttl time.Duration, opts ...FactoryOption) *CredentialCacheFactory {
	f := &CredentialCacheFactory{
		redisConfig:           redisCfg,
		ttl:                   ttl,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create returns Redis when enabled and reachable, otherwise go-cache.
func (f *CredentialCacheFactory) Create(ctx context.Context) (CredentialCache, error) {
	if !f.redisConfig.Enabled {
		f.logger.Info("using in-memory credential cache")
		return f.memory(), nil
	}

	c, err := NewRedisCredentialCache(ctx, &redis.Options{
		Addr:     f.redisConfig.Addr(),
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})
	if err == nil {
		f.logger.Info("using Redis credential cache", zap.String("addr", f.redisConfig.Addr()))
		return c, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("redis credential cache unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory credential cache", zap.Error(err))
	return f.memory(), nil
}

func (f *CredentialCacheFactory) memory() *MemoryCredentialCache {
	ttl := f.ttl
	if ttl <= 0 {
		ttl = time.Minute
	}
	return NewMemoryCredentialCache(ttl, 2*ttl)
}
