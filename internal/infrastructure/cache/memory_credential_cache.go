package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCredentialCache is a process local CredentialCache backed by go-cache.
type MemoryCredentialCache struct {
	cache *gocache.Cache
}

// NewMemoryCredentialCache creates a cache whose expired entries are swept
// every cleanupInterval.
func NewMemoryCredentialCache(defaultTTL, cleanupInterval time.Duration) *MemoryCredentialCache {
	return &MemoryCredentialCache{cache: gocache.New(defaultTTL, cleanupInterval)}
}

func (c *MemoryCredentialCache) Get(_ context.Context, digest string) (string, bool, error) {
	v, found := c.cache.Get(digest)
	if !found {
		return "", false, nil
	}
	hash, ok := v.(string)
	return hash, ok, nil
}

func (c *MemoryCredentialCache) Set(_ context.Context, digest, keyHash string, ttl time.Duration) error {
	c.cache.Set(digest, keyHash, ttl)
	return nil
}

func (c *MemoryCredentialCache) Delete(_ context.Context, digest string) error {
	c.cache.Delete(digest)
	return nil
}

func (c *MemoryCredentialCache) Name() string { return "memory" }

// Len returns the number of entries, expired ones included until swept.
func (c *MemoryCredentialCache) Len() int {
	return c.cache.ItemCount()
}

func (c *MemoryCredentialCache) Close() error {
	c.cache.Flush()
	return nil
}

var _ CredentialCache = (*MemoryCredentialCache)(nil)
