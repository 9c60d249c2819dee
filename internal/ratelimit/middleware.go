package ratelimit

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "github.com/openteams/osshs/internal/errors"
)

// IPRateLimitMiddleware applies the per-IP budget to every request and
// injects the standard rate limit headers. The JSON envelope for a blocked
// request is written by the error handler upstream in the chain.
func (rl *RateLimiter) IPRateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		result := rl.AllowIP(c.ClientIP())

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

		if !result.Allowed {
			retryAfter := strconv.Itoa(int(result.RetryAfter.Seconds()))
			c.Header("Retry-After", retryAfter)
			c.Error(apperrors.NewRateLimitError(retryAfter))
			c.AbortWithStatus(http.StatusTooManyRequests)
			return
		}

		c.Next()
	}
}

// EndpointRateLimitMiddleware applies a tighter per-minute budget to one
// endpoint, on top of the global IP limit.
func (rl *RateLimiter) EndpointRateLimitMiddleware(endpoint string, limit int) gin.HandlerFunc {
	return func(c *gin.Context) {
		result := rl.AllowEndpoint(endpoint, c.ClientIP(), limit)

		c.Header("X-RateLimit-Endpoint-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Endpoint-Remaining", strconv.Itoa(result.Remaining))

		if !result.Allowed {
			retryAfter := strconv.Itoa(int(result.RetryAfter.Seconds()))
			c.Header("Retry-After", retryAfter)
			c.Error(apperrors.NewRateLimitError(retryAfter))
			c.AbortWithStatus(http.StatusTooManyRequests)
			return
		}

		c.Next()
	}
}
