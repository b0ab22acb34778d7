package ratelimit

import (
	"net/http"
	"strconv"
	"time"
)

// Transport is an http.RoundTripper that rate limits outgoing requests
// and records rate limit responses so subsequent requests back off.
// It is mounted under the API client, so every Data API call passes
// through it regardless of which component issued it.
type Transport struct {
	// Base is the underlying round tripper. nil uses http.DefaultTransport.
	Base http.RoundTripper
	// Limiter applies the per-host rate limit. nil disables limiting.
	Limiter *Limiter
}

// NewTransport creates a rate-limited transport over base.
func NewTransport(base http.RoundTripper, limiter *Limiter) *Transport {
	return &Transport{Base: base, Limiter: limiter}
}

// RoundTrip waits for the rate limiter, forwards the request, and
// updates backoff state based on the response status.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	urlStr := req.URL.String()

	if err := t.Limiter.Wait(req.Context(), urlStr); err != nil {
		return nil, err
	}

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	resp, err := base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	switch resp.StatusCode {
	case http.StatusTooManyRequests, http.StatusServiceUnavailable:
		t.Limiter.RecordRateLimitError(urlStr, parseRetryAfter(resp))
	default:
		if resp.StatusCode < 400 {
			t.Limiter.RecordSuccess(urlStr)
		}
	}

	return resp, nil
}

// parseRetryAfter extracts the Retry-After header as a duration.
// Both delta-seconds and HTTP-date forms are accepted.
func parseRetryAfter(resp *http.Response) time.Duration {
	value := resp.Header.Get("Retry-After")
	if value == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}

	if at, err := http.ParseTime(value); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}

	return 0
}
