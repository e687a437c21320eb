package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/printapi/backend/internal/interfaces/http/dto"
	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per key.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	rps      rate.Limit
	burst    int
	idleTTL  time.Duration
	stop     chan struct{}
	stopOnce sync.Once
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows rps requests per second per key with the given burst.
// Buckets idle for longer than idleTTL are dropped.
func NewRateLimiter(rps float64, burst int, idleTTL time.Duration) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	if idleTTL <= 0 {
		idleTTL = 10 * time.Minute
	}
	rl := &RateLimiter{
		limiters: make(map[string]*limiterEntry),
		rps:      rate.Limit(rps),
		burst:    burst,
		idleTTL:  idleTTL,
		stop:     make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(rl.idleTTL)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case now := <-ticker.C:
			rl.mu.Lock()
			for key, e := range rl.limiters {
				if now.Sub(e.lastSeen) > rl.idleTTL {
					delete(rl.limiters, key)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// Allow consumes a token for key.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	e, ok := rl.limiters[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.limiters[key] = e
	}
	e.lastSeen = time.Now()
	rl.mu.Unlock()

	return e.limiter.Allow()
}

// Burst returns the bucket size.
func (rl *RateLimiter) Burst() int {
	return rl.burst
}

// Close stops the cleanup loop.
func (rl *RateLimiter) Close() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// APIUserOrIP keys requests by authenticated user, falling back to client IP.
func APIUserOrIP(c *gin.Context) string {
	if id := GetAPIUserID(c); id != 0 {
		return "user:" + strconv.FormatInt(id, 10)
	}
	return "ip:" + c.ClientIP()
}

// RateLimit returns a rate limiting middleware. keyFunc defaults to APIUserOrIP.
func RateLimit(limiter *RateLimiter, keyFunc func(*gin.Context) string) gin.HandlerFunc {
	if keyFunc == nil {
		keyFunc = APIUserOrIP
	}
	limit := strconv.Itoa(limiter.Burst())
	return func(c *gin.Context) {
		c.Header("X-RateLimit-Limit", limit)
		if !limiter.Allow(keyFunc(c)) {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeRateLimited,
				"Too many requests. Please try again later.",
				GetRequestID(c),
			))
			return
		}
		c.Next()
	}
}
