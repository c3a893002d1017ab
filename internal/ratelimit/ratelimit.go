// Package ratelimit throttles outbound calls to search backends.
package ratelimit

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Service identifies a remote backend for rate limiting purposes.
type Service string

const (
	// ServiceSerpAPI is the SerpAPI Google search endpoint.
	ServiceSerpAPI Service = "serpapi"
	// ServiceDuckDuckGo is the DuckDuckGo HTML endpoint.
	ServiceDuckDuckGo Service = "duckduckgo"
	// ServiceArxiv is the arXiv export API.
	ServiceArxiv Service = "arxiv"
)

// DefaultBackoff applies when a throttled response carries no Retry-After.
const DefaultBackoff = 30 * time.Second

// Config holds rate limiting configuration for a service.
type Config struct {
	// RequestsPerSecond is the sustained rate limit.
	RequestsPerSecond float64
	// BurstSize is the maximum burst size.
	BurstSize int
}

// DefaultLimits are conservative per-service defaults.
var DefaultLimits = map[Service]Config{
	ServiceSerpAPI:    {RequestsPerSecond: 2.0, BurstSize: 4},
	ServiceDuckDuckGo: {RequestsPerSecond: 0.5, BurstSize: 2}, // scraping; stay polite
	ServiceArxiv:      {RequestsPerSecond: 1.0 / 3, BurstSize: 1}, // arXiv asks for one call per 3s
}

// Limiter is a token bucket with a backoff window set by throttled responses.
type Limiter struct {
	mu      sync.Mutex
	bucket  *rate.Limiter
	retryAt time.Time
}

// New creates a limiter with the defaults for service.
func New(service Service) *Limiter {
	cfg, ok := DefaultLimits[service]
	if !ok {
		cfg = Config{RequestsPerSecond: 1.0, BurstSize: 1}
	}
	return NewWithConfig(cfg)
}

// NewWithConfig creates a limiter with custom configuration.
func NewWithConfig(cfg Config) *Limiter {
	if cfg.BurstSize < 1 {
		cfg.BurstSize = 1
	}
	return &Limiter{
		bucket: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.BurstSize),
	}
}

// Unlimited returns a limiter that never blocks. Used by tests.
func Unlimited() *Limiter {
	return &Limiter{bucket: rate.NewLimiter(rate.Inf, 1)}
}

// Wait blocks until a request may be sent, honouring any backoff window.
func (l *Limiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	retryAt := l.retryAt
	l.mu.Unlock()

	if time.Now().Before(retryAt) {
		timer := time.NewTimer(time.Until(retryAt))
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	return l.bucket.Wait(ctx)
}

// Observe inspects a response and opens a backoff window on 429 or 503.
// It reports whether the response was throttled.
func (l *Limiter) Observe(resp *http.Response) bool {
	if resp == nil {
		return false
	}
	if resp.StatusCode != http.StatusTooManyRequests && resp.StatusCode != http.StatusServiceUnavailable {
		return false
	}

	backoff := DefaultBackoff
	if v := resp.Header.Get("Retry-After"); v != "" {
		if seconds, err := strconv.Atoi(v); err == nil && seconds >= 0 {
			backoff = time.Duration(seconds) * time.Second
		}
	}
	l.RecordBackoff(backoff)
	return true
}

// RecordBackoff blocks further requests for d.
func (l *Limiter) RecordBackoff(d time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if until := time.Now().Add(d); until.After(l.retryAt) {
		l.retryAt = until
	}
}

// RetryAt returns the end of the current backoff window.
func (l *Limiter) RetryAt() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.retryAt
}
