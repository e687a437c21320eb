package printing

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/printapi/backend/internal/domain/printing"
	"go.uber.org/zap"
)

const defaultCacheTTL = time.Hour

var cacheKeyPattern = regexp.MustCompile(`^[0-9a-f]{16,128}$`)

// ArtifactWriter produces the artifact at path.
type ArtifactWriter func(ctx context.Context, path string) error

// RenderCacheConfig contains configuration for the render cache
type RenderCacheConfig struct {
	// Dir holds <cachekey>.pdf files
	Dir string
	// TTL is the freshness window measured back from now
	TTL time.Duration
	// Disabled makes every lookup a miss. Store still writes.
	Disabled bool
	// Now overrides the clock, for tests
	Now func() time.Time
	// Logger for operations
	Logger *zap.Logger
}

// RenderCache stores rendered PDFs on the local file system
type RenderCache struct {
	config *RenderCacheConfig
	logger *zap.Logger
}

// NewRenderCache creates the cache and its directory.
func NewRenderCache(config *RenderCacheConfig) (*RenderCache, error) {
	if config == nil || config.Dir == "" {
		return nil, NewRenderError(ErrCodeStorageFailed, "cache directory is not configured", nil)
	}
	cfg := *config
	if cfg.TTL <= 0 {
		cfg.TTL = defaultCacheTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, NewRenderError(ErrCodeStorageFailed,
			fmt.Sprintf("failed to create cache directory: %s", cfg.Dir), err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &RenderCache{
		config: &cfg,
		logger: logger,
	}, nil
}

// Path returns the artifact location for key.
func (c *RenderCache) Path(key printing.CacheKey) (string, error) {
	if !cacheKeyPattern.MatchString(key.String()) {
		return "", NewRenderError(ErrCodeStorageFailed, "invalid cache key", nil)
	}
	return filepath.Join(c.config.Dir, key.String()+".pdf"), nil
}

// Lookup returns the artifact path when a file for key exists and was
// modified within the freshness window. Stale files are left in place.
func (c *RenderCache) Lookup(ctx context.Context, key printing.CacheKey) (string, bool, error) {
	select {
	case <-ctx.Done():
		return "", false, ctx.Err()
	default:
	}

	if c.config.Disabled {
		return "", false, nil
	}

	path, err := c.Path(key)
	if err != nil {
		return "", false, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, NewRenderError(ErrCodeStorageFailed, "failed to stat cached PDF", err)
	}
	if info.IsDir() {
		return "", false, nil
	}

	age := c.config.Now().Sub(info.ModTime())
	if age >= c.config.TTL {
		c.logger.Debug("cached PDF is stale",
			zap.String("key", key.String()),
			zap.Duration("age", age))
		return "", false, nil
	}

	return path, true, nil
}

// Store removes any existing artifact for key, then lets write produce the
// new one at the returned path.
func (c *RenderCache) Store(ctx context.Context, key printing.CacheKey, write ArtifactWriter) (string, error) {
	select {
	case <-ctx.Done():
		return "", NewRenderError(ErrCodeStorageFailed, "operation cancelled", ctx.Err())
	default:
	}

	path, err := c.Path(key)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(c.config.Dir, 0o755); err != nil {
		return "", NewRenderError(ErrCodeStorageFailed, "failed to create cache directory", err)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", NewRenderError(ErrCodeStorageFailed, "failed to remove previous PDF", err)
	}

	if err := write(ctx, path); err != nil {
		return "", err
	}

	c.logger.Info("PDF stored",
		zap.String("key", key.String()),
		zap.String("path", path))

	return path, nil
}

// Prune removes artifacts last modified before now-age.
func (c *RenderCache) Prune(ctx context.Context, age time.Duration) (int, error) {
	deleted, err := pruneFiles(ctx, c.config.Dir, ".pdf", c.config.Now().Add(-age))
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return deleted, err
	}
	c.logger.Info("render cache pruned",
		zap.Int("deleted", deleted),
		zap.Duration("older_than", age))
	return deleted, err
}
