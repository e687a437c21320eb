package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultCredentialPrefix = "printapi:cred:"

// RedisCredentialCache shares verified credentials across server instances.
type RedisCredentialCache struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisCredentialCache connects to addr and pings it before returning.
func NewRedisCredentialCache(ctx context.Context, opts *redis.Options) (*RedisCredentialCache, error) {
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return NewRedisCredentialCacheWithClient(client, ""), nil
}

// NewRedisCredentialCacheWithClient wraps an existing client.
func NewRedisCredentialCacheWithClient(client *redis.Client, keyPrefix string) *RedisCredentialCache {
	if keyPrefix == "" {
		keyPrefix = defaultCredentialPrefix
	}
	return &RedisCredentialCache{client: client, keyPrefix: keyPrefix}
}

func (c *RedisCredentialCache) Get(ctx context.Context, digest string) (string, bool, error) {
	hash, err := c.client.Get(ctx, c.keyPrefix+digest).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read credential cache: %w", err)
	}
	return hash, true, nil
}

func (c *RedisCredentialCache) Set(ctx context.Context, digest, keyHash string, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.keyPrefix+digest, keyHash, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write credential cache: %w", err)
	}
	return nil
}

func (c *RedisCredentialCache) Delete(ctx context.Context, digest string) error {
	if err := c.client.Del(ctx, c.keyPrefix+digest).Err(); err != nil {
		return fmt.Errorf("failed to delete credential cache entry: %w", err)
	}
	return nil
}

func (c *RedisCredentialCache) Name() string { return "redis" }

// Ping checks the connection, used by the health endpoint.
func (c *RedisCredentialCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCredentialCache) Close() error {
	return c.client.Close()
}

var _ CredentialCache = (*RedisCredentialCache)(nil)
