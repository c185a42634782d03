package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chatcart/session-api/internal/domain/throttle"
	"github.com/chatcart/session-api/internal/infrastructure/metrics"
)

// KeyFunc extracts the rate limit key from a request.
type KeyFunc func(c *gin.Context) string

// Limiter enforces the caller-facing request ceiling independently of the
// actors' own logic, one token bucket per key. This bounds abuse of an
// actor itself; exceeding it returns 429 regardless of the operation.
type Limiter struct {
	cfg     throttle.Config
	keyFn   KeyFunc
	mu      sync.Mutex
	buckets map[string]*limiterEntry
	maxIdle time.Duration
}

type limiterEntry struct {
	bucket   *throttle.Bucket
	lastSeen time.Time
}

// NewLimiter builds a limiter allowing limit requests per window per key.
func NewLimiter(limit int, window time.Duration, keyFn KeyFunc) *Limiter {
	return &Limiter{
		cfg: throttle.Config{
			MaxTokens:      limit,
			RefillRate:     limit,
			RefillInterval: window,
		},
		keyFn:   keyFn,
		buckets: make(map[string]*limiterEntry),
		maxIdle: 10 * window,
	}
}

// Handler returns the gin middleware.
func (l *Limiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := l.keyFn(c)
		if key == "" {
			c.Next()
			return
		}

		decision := l.consume(key)
		if !decision.Allowed {
			metrics.CallerLimited.WithLabelValues(c.FullPath()).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": decision.RetryAfter.Milliseconds(),
			})
			return
		}
		c.Next()
	}
}

func (l *Limiter) consume(key string) throttle.Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	entry, ok := l.buckets[key]
	if !ok {
		entry = &limiterEntry{bucket: throttle.NewBucket(l.cfg, nil)}
		l.buckets[key] = entry
		l.pruneLocked(now)
	}
	entry.lastSeen = now
	return entry.bucket.Consume(1)
}

// pruneLocked drops buckets idle long enough to be full again anyway.
func (l *Limiter) pruneLocked(now time.Time) {
	if len(l.buckets) < 4096 {
		return
	}
	for key, entry := range l.buckets {
		if now.Sub(entry.lastSeen) > l.maxIdle {
			delete(l.buckets, key)
		}
	}
}
