package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/openteams/osshs/internal/errors"
)

func TestAllowIPWithinBurst(t *testing.T) {
	rl := NewRateLimiter(Config{RequestsPerMin: 10, BurstMultiplier: 2})

	for i := 0; i < 20; i++ {
		result := rl.AllowIP("192.0.2.1")
		assert.True(t, result.Allowed, "request %d should be inside the burst", i)
	}

	result := rl.AllowIP("192.0.2.1")
	assert.False(t, result.Allowed)
	assert.Positive(t, result.RetryAfter)
}

func TestAllowIPIsolatesClients(t *testing.T) {
	rl := NewRateLimiter(Config{RequestsPerMin: 1, BurstMultiplier: 1})

	// Exhaust one client's bucket (min burst is 5).
	for i := 0; i < 5; i++ {
		require.True(t, rl.AllowIP("192.0.2.1").Allowed)
	}
	assert.False(t, rl.AllowIP("192.0.2.1").Allowed)

	// A different client still has a full bucket.
	assert.True(t, rl.AllowIP("192.0.2.2").Allowed)
}

func TestAllowEndpointSeparateFromIP(t *testing.T) {
	rl := NewRateLimiter(DefaultConfig())

	for i := 0; i < 5; i++ {
		require.True(t, rl.AllowEndpoint("collect", "192.0.2.1", 1).Allowed)
	}
	assert.False(t, rl.AllowEndpoint("collect", "192.0.2.1", 1).Allowed)

	// The global IP budget is untouched.
	assert.True(t, rl.AllowIP("192.0.2.1").Allowed)
}

func TestIPRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter(Config{RequestsPerMin: 2, BurstMultiplier: 1})

	r := gin.New()
	r.Use(rl.IPRateLimitMiddleware())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	var last *httptest.ResponseRecorder
	for i := 0; i < 6; i++ {
		last = httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "192.0.2.9:1234"
		r.ServeHTTP(last, req)
		if i < 5 {
			assert.Equal(t, http.StatusOK, last.Code)
			assert.NotEmpty(t, last.Header().Get("X-RateLimit-Remaining"))
		}
	}

	assert.Equal(t, http.StatusTooManyRequests, last.Code)
	assert.NotEmpty(t, last.Header().Get("Retry-After"))
}

func TestIPRateLimitMiddlewareEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter(Config{RequestsPerMin: 1, BurstMultiplier: 1})

	r := gin.New()
	r.Use(apperrors.ErrorHandler())
	r.Use(rl.IPRateLimitMiddleware())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	// The minimum burst is 5, so the sixth request is blocked.
	var last *httptest.ResponseRecorder
	for i := 0; i < 6; i++ {
		last = httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "192.0.2.9:1234"
		r.ServeHTTP(last, req)
	}

	require.Equal(t, http.StatusTooManyRequests, last.Code)
	assert.Contains(t, last.Body.String(), "rate_limit")
	assert.NotEmpty(t, last.Header().Get("Retry-After"))
}

func TestGetStats(t *testing.T) {
	rl := NewRateLimiter(DefaultConfig())
	rl.AllowIP("192.0.2.1")
	rl.AllowIP("192.0.2.2")

	stats := rl.GetStats()
	assert.Equal(t, 2, stats["active_limiters"])
	assert.Equal(t, 60, stats["requests_per_min"])
}
