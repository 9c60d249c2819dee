package collectors

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const userAgent = "osshs/1.0"

// Client is a shared HTTP client with per-host request pacing and retry.
// Every upstream API has its own rate policy, so the limiter is keyed by
// host rather than global.
type Client struct {
	http     *http.Client
	retry    RetryConfig
	limiters map[string]*rate.Limiter
	perHost  rate.Limit
	burst    int
	mutex    sync.Mutex
}

// NewClient creates a collector HTTP client. perHostRPS bounds the request
// rate against any single upstream host.
func NewClient(timeout time.Duration, retry RetryConfig, perHostRPS float64) *Client {
	if perHostRPS <= 0 {
		perHostRPS = 5
	}
	return &Client{
		http:     &http.Client{Timeout: timeout},
		retry:    retry,
		limiters: make(map[string]*rate.Limiter),
		perHost:  rate.Limit(perHostRPS),
		burst:    int(perHostRPS) + 1,
	}
}

func (c *Client) limiterFor(host string) *rate.Limiter {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	limiter, ok := c.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(c.perHost, c.burst)
		c.limiters[host] = limiter
	}
	return limiter
}

// Do paces, sends, and retries the request. The caller owns the response
// body on success.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if err := c.limiterFor(req.URL.Host).Wait(ctx); err != nil {
		return nil, err
	}

	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", userAgent)
	}

	return RetryHTTP(ctx, c.retry, func() (*http.Response, error) {
		return c.http.Do(req.Clone(ctx))
	})
}

// Get issues a GET request with optional headers.
func (c *Client) Get(ctx context.Context, url string, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return c.Do(ctx, req)
}

// HTTPClient exposes the underlying client for SDKs that take one.
func (c *Client) HTTPClient() *http.Client {
	return c.http
}
