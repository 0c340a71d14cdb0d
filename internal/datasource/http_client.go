// Package datasource downloads daily race cards from the upstream provider
// and parses venue CSV files into participation records.
package datasource

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// HTTPClientConfig holds configuration for the race-card HTTP client.
type HTTPClientConfig struct {
	Timeout      time.Duration
	MaxRetries   int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	RateLimit    float64 // requests per second
	BreakerMax   int     // consecutive failures before the circuit opens
}

// DefaultHTTPClientConfig returns recommended defaults.
func DefaultHTTPClientConfig() HTTPClientConfig {
	return HTTPClientConfig{
		Timeout:      30 * time.Second,
		MaxRetries:   5,
		RetryWaitMin: 100 * time.Millisecond,
		RetryWaitMax: 10 * time.Second,
		RateLimit:    2.0,
		BreakerMax:   5,
	}
}

// RateLimitedHTTPClient wraps retryablehttp.Client with rate limiting and a
// simple circuit breaker. The provider serves one small CSV per venue per
// day, so the limiter mostly guards against misconfigured schedules.
type RateLimitedHTTPClient struct {
	client     *retryablehttp.Client
	limiter    *rate.Limiter
	breakerMax int
	failures   int
	open       bool
	lastError  error
	log        *logrus.Entry
}

// NewRateLimitedHTTPClient creates a configured client.
func NewRateLimitedHTTPClient(cfg HTTPClientConfig, log *logrus.Logger) *RateLimitedHTTPClient {
	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient.Timeout = cfg.Timeout
	retryClient.RetryMax = cfg.MaxRetries
	retryClient.RetryWaitMin = cfg.RetryWaitMin
	retryClient.RetryWaitMax = cfg.RetryWaitMax
	retryClient.Logger = nil

	return &RateLimitedHTTPClient{
		client:     retryClient,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RateLimit), 1),
		breakerMax: cfg.BreakerMax,
		log:        log.WithField("component", "http_client"),
	}
}

// Do executes a request with rate limiting and circuit breaking.
func (c *RateLimitedHTTPClient) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if c.open {
		return nil, fmt.Errorf("%w: %v", ErrCircuitOpen, c.lastError)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	retryReq, err := retryablehttp.FromRequest(req.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("building retryable request: %w", err)
	}

	resp, err := c.client.Do(retryReq)
	if err != nil {
		c.failures++
		c.lastError = err
		if c.failures >= c.breakerMax {
			c.open = true
			c.log.WithError(err).WithField("failures", c.failures).
				Error("Circuit breaker opened")
		}
		return nil, err
	}

	if resp.StatusCode < 500 {
		c.failures = 0
	}
	return resp, nil
}

// Reset closes the circuit breaker, allowing requests again.
func (c *RateLimitedHTTPClient) Reset() {
	c.open = false
	c.failures = 0
	c.lastError = nil
}
