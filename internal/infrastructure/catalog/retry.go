package catalog

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// RetryPolicy controls how failed upstream requests are retried.
//
// Transport failures and 5xx responses back off exponentially (BaseDelay * 2^attempt,
// capped at MaxDelay). HTTP 429 waits for the server's Retry-After value instead,
// or RateLimitFallback when the header is missing or unreadable. Timeouts are never retried.
type RetryPolicy struct {
	MaxRetries        int
	BaseDelay         time.Duration
	MaxDelay          time.Duration
	RateLimitFallback time.Duration
	MaxRetryAfter     time.Duration
}

// DefaultRetryPolicy returns the policy used when a source does not configure one
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:        3,
		BaseDelay:         500 * time.Millisecond,
		MaxDelay:          10 * time.Second,
		RateLimitFallback: 5 * time.Second,
		MaxRetryAfter:     time.Minute,
	}
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	def := DefaultRetryPolicy()
	if p.MaxRetries < 0 {
		p.MaxRetries = 0
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = def.BaseDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = def.MaxDelay
	}
	if p.MaxDelay < p.BaseDelay {
		p.MaxDelay = p.BaseDelay
	}
	if p.RateLimitFallback <= 0 {
		p.RateLimitFallback = def.RateLimitFallback
	}
	if p.MaxRetryAfter <= 0 {
		p.MaxRetryAfter = def.MaxRetryAfter
	}
	return p
}

// Backoff returns the delay before retry number attempt (0-based)
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > 30 {
		return p.MaxDelay
	}
	delay := p.BaseDelay * time.Duration(1<<attempt)
	if delay <= 0 || delay > p.MaxDelay {
		return p.MaxDelay
	}
	return delay
}

// RateLimitDelay derives the wait after an HTTP 429 from its Retry-After header.
// Both delta-seconds and HTTP-date forms are accepted.
func (p RetryPolicy) RateLimitDelay(retryAfter string, now time.Time) time.Duration {
	delay, ok := parseRetryAfter(retryAfter, now)
	if !ok {
		return p.RateLimitFallback
	}
	if p.MaxRetryAfter > 0 && delay > p.MaxRetryAfter {
		return p.MaxRetryAfter
	}
	return delay
}

func parseRetryAfter(value string, now time.Time) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if at, err := http.ParseTime(value); err == nil {
		delay := at.Sub(now)
		if delay < 0 {
			delay = 0
		}
		return delay, true
	}
	return 0, false
}

// sleeper blocks for d or until ctx is done
type sleeper func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
