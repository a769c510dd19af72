package middleware

import (
	"sync"
	"time"

	"github.com/yourusername/ember/core"
)

// RateLimitConfig configures the RateLimit fang.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate allowed per key. Default: 100.
	RequestsPerSecond int

	// Burst is the token bucket capacity. Default: 20.
	Burst int

	// KeyFunc derives the rate-limit key from a request. Default: client IP
	// via X-Forwarded-For/X-Real-IP, falling back to "default" when neither
	// is present (this package has no access to the raw connection).
	KeyFunc func(*core.Context) string

	// ErrorHandler runs instead of the default 429 response when set.
	ErrorHandler func(*core.Context) error

	// CleanupInterval is how often idle limiters are swept. Default: 1m.
	CleanupInterval time.Duration

	// MaxAge is how long an idle limiter survives a sweep. Default: 5m.
	MaxAge time.Duration
}

// DefaultRateLimitConfig returns RateLimitConfig with every field at its
// documented default.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 100,
		Burst:             20,
		KeyFunc:           defaultKeyFunc,
		CleanupInterval:   time.Minute,
		MaxAge:            5 * time.Minute,
	}
}

// RateLimit returns a fang enforcing config via a per-key token bucket.
//
// Example:
//
//	app.Use(middleware.RateLimit(middleware.RateLimitConfig{
//	    RequestsPerSecond: 100,
//	    Burst:             20,
//	}))
func RateLimit(config RateLimitConfig) core.Middleware {
	return RateLimitWithConfig(config)
}

// RateLimitWithConfig is RateLimit with every zero-valued field in config
// replaced by its DefaultRateLimitConfig counterpart.
//
// Example:
//
//	app.Use(middleware.RateLimitWithConfig(middleware.RateLimitConfig{
//	    RequestsPerSecond: 10,
//	    Burst:             5,
//	    KeyFunc: func(c *core.Context) string {
//	        return c.Get("user").(string)
//	    },
//	}))
func RateLimitWithConfig(config RateLimitConfig) core.Middleware {
	defaults := DefaultRateLimitConfig()
	if config.RequestsPerSecond == 0 {
		config.RequestsPerSecond = defaults.RequestsPerSecond
	}
	if config.Burst == 0 {
		config.Burst = defaults.Burst
	}
	if config.KeyFunc == nil {
		config.KeyFunc = defaults.KeyFunc
	}
	if config.CleanupInterval == 0 {
		config.CleanupInterval = defaults.CleanupInterval
	}
	if config.MaxAge == 0 {
		config.MaxAge = defaults.MaxAge
	}

	store := newLimiterStore(float64(config.RequestsPerSecond), config.Burst, config.CleanupInterval, config.MaxAge)
	go store.cleanup()

	return func(next core.Handler) core.Handler {
		return func(c *core.Context) error {
			key := config.KeyFunc(c)
			limiter := store.getLimiter(key)

			if limiter.allow() {
				return next(c)
			}

			if config.ErrorHandler != nil {
				return config.ErrorHandler(c)
			}
			return c.JSON(429, map[string]interface{}{
				"error":   "Rate limit exceeded",
				"retryIn": limiter.retryIn().Seconds(),
			})
		}
	}
}

// defaultKeyFunc keys the limiter by the request's apparent client address.
func defaultKeyFunc(c *core.Context) string {
	if ip := c.GetHeader("X-Forwarded-For"); ip != "" {
		return ip
	}
	if ip := c.GetHeader("X-Real-IP"); ip != "" {
		return ip
	}
	return "default"
}

// limiterStore owns one tokenBucket per rate-limit key, swept periodically
// so a long-running server doesn't accumulate a bucket per distinct client
// forever.
type limiterStore struct {
	limiters        sync.Map // key (string) -> *limiterEntry
	rate            float64
	burst           int
	cleanupInterval time.Duration
	maxAge          time.Duration
}

func newLimiterStore(rate float64, burst int, cleanupInterval, maxAge time.Duration) *limiterStore {
	return &limiterStore{rate: rate, burst: burst, cleanupInterval: cleanupInterval, maxAge: maxAge}
}

// limiterEntry pairs a tokenBucket with the last time it was touched, so
// cleanup can evict buckets nobody has used in maxAge.
type limiterEntry struct {
	*tokenBucket
	lastAccess time.Time
	mu         sync.Mutex
}

func (ls *limiterStore) getLimiter(key string) *limiterEntry {
	if entry, ok := ls.limiters.Load(key); ok {
		e := entry.(*limiterEntry)
		e.mu.Lock()
		e.lastAccess = time.Now()
		e.mu.Unlock()
		return e
	}

	entry := &limiterEntry{
		tokenBucket: newTokenBucket(ls.rate, ls.burst),
		lastAccess:  time.Now(),
	}
	if actual, loaded := ls.limiters.LoadOrStore(key, entry); loaded {
		return actual.(*limiterEntry)
	}
	return entry
}

func (ls *limiterStore) cleanup() {
	ticker := time.NewTicker(ls.cleanupInterval)
	defer ticker.Stop()

	for now := range ticker.C {
		ls.limiters.Range(func(key, value interface{}) bool {
			entry := value.(*limiterEntry)
			entry.mu.Lock()
			age := now.Sub(entry.lastAccess)
			entry.mu.Unlock()

			if age > ls.maxAge {
				ls.limiters.Delete(key)
			}
			return true
		})
	}
}

// tokenBucket is a standard token-bucket limiter: tokens refill continuously
// at refillRate per second up to maxTokens, and allow() spends one.
type tokenBucket struct {
	tokens     float64
	maxTokens  float64
	refillRate float64
	lastRefill time.Time
	mu         sync.Mutex
}

func newTokenBucket(rate float64, burst int) *tokenBucket {
	return &tokenBucket{
		tokens:     float64(burst),
		maxTokens:  float64(burst),
		refillRate: rate,
		lastRefill: time.Now(),
	}
}

func (tb *tokenBucket) allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()
	if tb.tokens >= 1.0 {
		tb.tokens -= 1.0
		return true
	}
	return false
}

// retryIn reports how long until the next token becomes available.
func (tb *tokenBucket) retryIn() time.Duration {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()
	needed := 1.0 - tb.tokens
	if needed <= 0 {
		return 0
	}
	return time.Duration(needed / tb.refillRate * float64(time.Second))
}

// refill credits tokens for elapsed time since the last call, capped at
// maxTokens. Callers must hold tb.mu.
func (tb *tokenBucket) refill() {
	now := time.Now()
	tb.tokens += now.Sub(tb.lastRefill).Seconds() * tb.refillRate
	if tb.tokens > tb.maxTokens {
		tb.tokens = tb.maxTokens
	}
	tb.lastRefill = now
}
