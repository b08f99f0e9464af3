package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/heartmarshall/commonprayer-backend/internal/config"
)

const (
	rateLimitLimitHeader     = "X-RateLimit-Limit"
	rateLimitRemainingHeader = "X-RateLimit-Remaining"
)

// RateLimiter is a per-client-host token bucket. Each host may make Burst
// requests at once and regains PerMinute tokens per minute.
type RateLimiter struct {
	perMinute int
	burst     float64
	rate      float64 // tokens per second
	now       func() time.Time

	buckets sync.Map // host -> *bucket
	stop    chan struct{}
	once    sync.Once
}

type bucket struct {
	mu     sync.Mutex
	tokens float64
	last   time.Time
}

// NewRateLimiter starts a limiter that evicts idle buckets every
// cfg.CleanupInterval. Call Stop on shutdown.
func NewRateLimiter(cfg config.RateLimitConfig) *RateLimiter {
	rl := newRateLimiter(cfg, time.Now)
	if cfg.CleanupInterval > 0 {
		go rl.cleanupLoop(cfg.CleanupInterval)
	}
	return rl
}

func newRateLimiter(cfg config.RateLimitConfig, now func() time.Time) *RateLimiter {
	return &RateLimiter{
		perMinute: cfg.PerMinute,
		burst:     float64(cfg.BurstSize()),
		rate:      float64(cfg.PerMinute) / 60,
		now:       now,
		stop:      make(chan struct{}),
	}
}

// Stop terminates the cleanup goroutine. It is safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stop) })
}

// Limit rejects requests from hosts whose bucket is empty with 429 and a
// Retry-After hint.
func (rl *RateLimiter) Limit() Middleware {
	limit := strconv.Itoa(rl.perMinute)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, remaining, wait := rl.take(clientHost(r))
			w.Header().Set(rateLimitLimitHeader, limit)
			w.Header().Set(rateLimitRemainingHeader, strconv.Itoa(remaining))
			if !ok {
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// take spends one token from the host's bucket. When the bucket is empty it
// reports how long until the next token.
func (rl *RateLimiter) take(host string) (ok bool, remaining int, wait time.Duration) {
	now := rl.now()
	v, _ := rl.buckets.LoadOrStore(host, &bucket{tokens: rl.burst, last: now})
	b := v.(*bucket)

	b.mu.Lock()
	defer b.mu.Unlock()

	b.tokens = math.Min(rl.burst, b.tokens+now.Sub(b.last).Seconds()*rl.rate)
	b.last = now

	if b.tokens < 1 {
		missing := 1 - b.tokens
		return false, 0, time.Duration(missing / rl.rate * float64(time.Second))
	}
	b.tokens--
	return true, int(b.tokens), 0
}

// evictIdle drops buckets that have refilled completely, since a fresh bucket
// would behave identically.
func (rl *RateLimiter) evictIdle() {
	now := rl.now()
	full := time.Duration(rl.burst / rl.rate * float64(time.Second))
	rl.buckets.Range(func(key, value any) bool {
		b := value.(*bucket)
		b.mu.Lock()
		idle := now.Sub(b.last)
		b.mu.Unlock()
		if idle >= full {
			rl.buckets.Delete(key)
		}
		return true
	})
}

func (rl *RateLimiter) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.evictIdle()
		}
	}
}

// clientHost strips the port so that connections from one host share a bucket.
func clientHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
