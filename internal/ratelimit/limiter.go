package ratelimit

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Config holds rate limiter configuration.
type Config struct {
	// RequestsPerMin is the per-client budget for the lookup API.
	RequestsPerMin int `yaml:"requests_per_min"`
	// BurstMultiplier scales the token bucket burst above the steady rate.
	BurstMultiplier int `yaml:"burst_multiplier"`
}

// DefaultConfig returns default rate limiting configuration.
func DefaultConfig() Config {
	return Config{
		RequestsPerMin:  60,
		BurstMultiplier: 2,
	}
}

// Result represents the result of a rate limit check.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// RateLimiter keeps one token bucket per client key. Buckets live in
// process memory; the service runs single-instance so there is no shared
// state to coordinate.
type RateLimiter struct {
	config   Config
	limiters map[string]*rate.Limiter
	mutex    sync.RWMutex
}

// NewRateLimiter creates an in-memory rate limiter.
func NewRateLimiter(config Config) *RateLimiter {
	rl := &RateLimiter{
		config:   config,
		limiters: make(map[string]*rate.Limiter),
	}

	go rl.cleanupLimiters()

	return rl
}

// AllowIP checks whether the given client IP may make a request now.
func (rl *RateLimiter) AllowIP(ip string) *Result {
	return rl.allow(fmt.Sprintf("ip:%s", ip), rl.config.RequestsPerMin, time.Minute)
}

// AllowEndpoint checks an endpoint-specific per-minute budget for a client.
func (rl *RateLimiter) AllowEndpoint(endpoint, ip string, limit int) *Result {
	return rl.allow(fmt.Sprintf("endpoint:%s:%s", endpoint, ip), limit, time.Minute)
}

func (rl *RateLimiter) allow(key string, limit int, period time.Duration) *Result {
	rl.mutex.Lock()
	limiter, exists := rl.limiters[key]
	if !exists {
		rps := rate.Limit(float64(limit) / period.Seconds())
		burst := limit * rl.config.BurstMultiplier
		if burst < 5 {
			burst = 5
		}
		limiter = rate.NewLimiter(rps, burst)
		rl.limiters[key] = limiter
	}
	rl.mutex.Unlock()

	allowed := limiter.Allow()

	remaining := int(limiter.Tokens())
	if remaining < 0 {
		remaining = 0
	}

	result := &Result{
		Allowed:   allowed,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   time.Now().Add(period),
	}
	if !allowed {
		result.RetryAfter = time.Until(result.ResetAt)
	}

	return result
}

// cleanupLimiters bounds the bucket map so long-running servers do not
// accumulate one bucket per IP ever seen.
func (rl *RateLimiter) cleanupLimiters() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		rl.mutex.Lock()
		if len(rl.limiters) > 1000 {
			rl.limiters = make(map[string]*rate.Limiter)
		}
		rl.mutex.Unlock()
	}
}

// GetStats returns rate limiter statistics.
func (rl *RateLimiter) GetStats() map[string]interface{} {
	rl.mutex.RLock()
	defer rl.mutex.RUnlock()

	return map[string]interface{}{
		"active_limiters":  len(rl.limiters),
		"requests_per_min": rl.config.RequestsPerMin,
		"burst_multiplier": rl.config.BurstMultiplier,
	}
}
