package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/commonprayer-backend/internal/config"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func limitedHandler(rl *RateLimiter) http.Handler {
	return rl.Limit()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func hit(h http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/document/office", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiter_BurstThenBlock(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Unix(0, 0)}
	rl := newRateLimiter(config.RateLimitConfig{PerMinute: 60, Burst: 3}, clock.Now)
	h := limitedHandler(rl)

	for i, want := range []string{"2", "1", "0"} {
		rec := hit(h, "1.2.3.4:1234")
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i)
		assert.Equal(t, "60", rec.Header().Get(rateLimitLimitHeader))
		assert.Equal(t, want, rec.Header().Get(rateLimitRemainingHeader))
	}

	rec := hit(h, "1.2.3.4:1234")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":"rate limit exceeded"}`, rec.Body.String())
}

func TestRateLimiter_BurstDefaultsToPerMinute(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Unix(0, 0)}
	h := limitedHandler(newRateLimiter(config.RateLimitConfig{PerMinute: 5}, clock.Now))

	for i := 0; i < 5; i++ {
		require.Equal(t, http.StatusOK, hit(h, "1.2.3.4:1").Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, hit(h, "1.2.3.4:1").Code)
}

func TestRateLimiter_Refill(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Unix(0, 0)}
	// 30 per minute: one token every two seconds.
	h := limitedHandler(newRateLimiter(config.RateLimitConfig{PerMinute: 30, Burst: 1}, clock.Now))

	require.Equal(t, http.StatusOK, hit(h, "3.3.3.3:1").Code)

	rec := hit(h, "3.3.3.3:1")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))

	clock.Advance(time.Second)
	assert.Equal(t, http.StatusTooManyRequests, hit(h, "3.3.3.3:1").Code)

	clock.Advance(time.Second)
	assert.Equal(t, http.StatusOK, hit(h, "3.3.3.3:1").Code)
}

func TestRateLimiter_HostsAreIndependent(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Unix(0, 0)}
	h := limitedHandler(newRateLimiter(config.RateLimitConfig{PerMinute: 60, Burst: 1}, clock.Now))

	require.Equal(t, http.StatusOK, hit(h, "1.1.1.1:1234").Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(h, "1.1.1.1:1234").Code)
	assert.Equal(t, http.StatusOK, hit(h, "2.2.2.2:5678").Code)
}

func TestRateLimiter_SameHostDifferentPortsShareBucket(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Unix(0, 0)}
	h := limitedHandler(newRateLimiter(config.RateLimitConfig{PerMinute: 60, Burst: 1}, clock.Now))

	assert.Equal(t, http.StatusOK, hit(h, "3.3.3.3:1000").Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(h, "3.3.3.3:2000").Code)
}

func TestRateLimiter_EvictsRefilledBuckets(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Unix(0, 0)}
	rl := newRateLimiter(config.RateLimitConfig{PerMinute: 60, Burst: 10}, clock.Now)
	h := limitedHandler(rl)

	hit(h, "4.4.4.4:1")
	hit(h, "5.5.5.5:1")
	clock.Advance(5 * time.Second)
	hit(h, "5.5.5.5:1")

	// 4.4.4.4 has been idle for the 10s refill time; 5.5.5.5 only for 5s.
	clock.Advance(5 * time.Second)
	rl.evictIdle()

	_, ok4 := rl.buckets.Load("4.4.4.4")
	_, ok5 := rl.buckets.Load("5.5.5.5")
	assert.False(t, ok4)
	assert.True(t, ok5)
}

func TestRateLimiter_StopIsIdempotent(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(config.RateLimitConfig{PerMinute: 60, CleanupInterval: time.Minute})
	rl.Stop()
	rl.Stop()
}
