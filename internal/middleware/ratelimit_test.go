package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"

	"github.com/iliyamo/bookit/internal/config"
)

func testBucket(capacity int) config.RateLimitConfig {
	return config.RateLimitConfig{
		Name:           "test",
		Enabled:        true,
		Capacity:       capacity,
		RefillTokens:   capacity,
		RefillInterval: 15 * time.Minute,
		TTL:            30 * time.Minute,
		KeyStrategy:    "ip",
		Prefix:         "rl:test",
		Message:        "slow down",
	}
}

func serveFrom(e *echo.Echo, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(echo.HeaderXRealIP, ip)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func newLimitedEcho(t *testing.T, cfg config.RateLimitConfig) *echo.Echo {
	e := echo.New()
	e.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") },
		NewTokenBucket(cfg, nil, zaptest.NewLogger(t)))
	return e
}

func TestTokenBucket_LocalFallbackBlocksAfterCapacity(t *testing.T) {
	e := newLimitedEcho(t, testBucket(2))

	assert.Equal(t, http.StatusOK, serveFrom(e, "10.0.0.1").Code)
	rec := serveFrom(e, "10.0.0.1")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))

	rec = serveFrom(e, "10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, `{"success":false,"message":"slow down"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// Another client has its own bucket.
	assert.Equal(t, http.StatusOK, serveFrom(e, "10.0.0.2").Code)
}

func TestTokenBucket_Disabled(t *testing.T) {
	cfg := testBucket(1)
	cfg.Enabled = false
	e := newLimitedEcho(t, cfg)

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, serveFrom(e, "10.0.0.1").Code)
	}
}

func TestLocalBuckets_Refill(t *testing.T) {
	cfg := testBucket(1)
	cfg.RefillInterval = time.Second
	cfg.RefillTokens = 1
	l := newLocalBuckets(cfg)
	now := time.Now()

	assert.True(t, l.take("k", now).allowed)
	d := l.take("k", now)
	assert.False(t, d.allowed)
	assert.InDelta(t, float64(time.Second), float64(d.retryAfter), float64(10*time.Millisecond))
	assert.True(t, l.take("k", now.Add(time.Second)).allowed)
}
