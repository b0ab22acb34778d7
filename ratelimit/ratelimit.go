// Package ratelimit provides per-host request rate limiting for the
// external catalog API, applied underneath the API client as an
// http.RoundTripper.
package ratelimit

import (
	"context"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Default backoff values applied when the API reports rate limiting.
const (
	// InitialBackoff is the first backoff after a rate limit response.
	InitialBackoff = 1 * time.Second
	// MaxBackoff caps the exponential backoff growth.
	MaxBackoff = 60 * time.Second
	// BackoffMultiplier is the exponential backoff multiplier.
	BackoffMultiplier = 2.0
)

// Config defines rate limiting behavior.
type Config struct {
	// RequestsPerSecond is the steady-state request rate per host.
	// 0 disables the token bucket entirely.
	RequestsPerSecond float64
	// Burst is the token bucket size. Defaults to 1.
	Burst int
}

// DefaultConfig returns a conservative rate aligned with the Data API quota.
func DefaultConfig() Config {
	return Config{RequestsPerSecond: 4.0, Burst: 2}
}

// backoffState tracks rate limit backoff for one host.
type backoffState struct {
	current   time.Duration
	lastError time.Time
	errors    int
}

// Limiter manages per-host token buckets plus exponential backoff after
// the server reports rate limiting.
type Limiter struct {
	config   Config
	limiters map[string]*rate.Limiter
	backoff  map[string]*backoffState
	mu       sync.Mutex
}

// New creates a limiter with the given configuration.
func New(cfg Config) *Limiter {
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	return &Limiter{
		config:   cfg,
		limiters: make(map[string]*rate.Limiter),
		backoff:  make(map[string]*backoffState),
	}
}

// Wait blocks until the rate limit (and any active backoff window)
// allows a request to the given URL, or the context ends.
func (l *Limiter) Wait(ctx context.Context, urlStr string) error {
	if l == nil || l.config.RequestsPerSecond == 0 {
		return nil
	}

	host := hostOf(urlStr)

	if remaining := l.backoffRemaining(host); remaining > 0 {
		select {
		case <-time.After(remaining):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return l.limiter(host).Wait(ctx)
}

// RecordRateLimitError notes a 429/403 response for the URL's host and
// returns the backoff to honor before the next attempt. A server-supplied
// Retry-After wins when it is longer than the computed backoff.
func (l *Limiter) RecordRateLimitError(urlStr string, retryAfter time.Duration) time.Duration {
	if l == nil {
		if retryAfter > 0 {
			return retryAfter
		}
		return InitialBackoff
	}

	host := hostOf(urlStr)

	l.mu.Lock()
	defer l.mu.Unlock()

	state, ok := l.backoff[host]
	if !ok {
		state = &backoffState{current: InitialBackoff}
		l.backoff[host] = state
	}

	state.lastError = time.Now()
	state.errors++
	if state.errors > 1 {
		state.current = time.Duration(float64(state.current) * BackoffMultiplier)
		if state.current > MaxBackoff {
			state.current = MaxBackoff
		}
	}
	if retryAfter > state.current {
		state.current = retryAfter
	}

	return state.current
}

// RecordSuccess clears the backoff state for the URL's host once its
// window has passed.
func (l *Limiter) RecordSuccess(urlStr string) {
	if l == nil {
		return
	}

	host := hostOf(urlStr)

	l.mu.Lock()
	defer l.mu.Unlock()

	state, ok := l.backoff[host]
	if !ok {
		return
	}
	if time.Since(state.lastError) > state.current {
		delete(l.backoff, host)
	}
}

// backoffRemaining returns how long the host's backoff window has left.
func (l *Limiter) backoffRemaining(host string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	state, ok := l.backoff[host]
	if !ok {
		return 0
	}
	remaining := state.current - time.Since(state.lastError)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// limiter returns the token bucket for a host, creating one if needed.
func (l *Limiter) limiter(host string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if lim, ok := l.limiters[host]; ok {
		return lim
	}
	lim := rate.NewLimiter(rate.Limit(l.config.RequestsPerSecond), l.config.Burst)
	l.limiters[host] = lim
	return lim
}

// hostOf extracts the host from a URL string.
func hostOf(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil || u.Host == "" {
		return "unknown"
	}
	return u.Hostname()
}
