// Package retry implements the backoff policy shared by every provider adapter.
//
// A request moves through four states: it is attempted, and either succeeds,
// fails terminally, or waits out a backoff before the next attempt. The policy
// decides which of these follows an HTTP status and how long each wait lasts.
//
// Delays follow BaseDelay * 2^attempt unless the provider supplies a
// Retry-After header, in which case that value is used instead:
//
//	p := retry.SemanticScholar()
//	d := p.Delay(attempt, resp.Header.Get("Retry-After"))
//	if err := retry.Wait(ctx, d); err != nil {
//		return err
//	}
package retry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// Outcome classifies a single attempt.
type Outcome int

const (
	// Succeeded means the response can be consumed.
	Succeeded Outcome = iota
	// Retry means the caller should back off and attempt again.
	Retry
	// Terminal means the request failed and must not be repeated.
	Terminal
)

// String returns a lowercase name for logging.
func (o Outcome) String() string {
	switch o {
	case Succeeded:
		return "succeeded"
	case Retry:
		return "retry"
	case Terminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// Policy configures retry behavior for a provider.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// BaseDelay is the first backoff interval; each retry doubles it.
	BaseDelay time.Duration

	// MaxDelay caps a single backoff interval. Zero means no cap.
	MaxDelay time.Duration

	// Retryable reports whether a non-2xx status should be retried.
	// Nil uses RetryableStatus.
	Retryable func(status int) bool

	// RespectRetryAfter makes Delay prefer the provider's Retry-After header.
	RespectRetryAfter bool
}

// Default returns the policy applied to providers without bespoke limits.
func Default() Policy {
	return Policy{
		MaxAttempts:       4,
		BaseDelay:         time.Second,
		MaxDelay:          30 * time.Second,
		RespectRetryAfter: true,
	}
}

// SemanticScholar returns the policy for the Semantic Scholar Graph API:
// five attempts starting at one second, honoring Retry-After on 429.
func SemanticScholar() Policy {
	return Policy{
		MaxAttempts:       5,
		BaseDelay:         1000 * time.Millisecond,
		RespectRetryAfter: true,
	}
}

// None returns a policy that never retries.
func None() Policy {
	return Policy{MaxAttempts: 1}
}

// RetryableStatus retries 429 and 5xx. 403 and every other 4xx are terminal.
func RetryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || (status >= 500 && status < 600)
}

// Attempts returns the effective attempt budget (at least one).
func (p Policy) Attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// Decide classifies an HTTP status code.
func (p Policy) Decide(status int) Outcome {
	if status >= 200 && status < 300 {
		return Succeeded
	}
	retryable := p.Retryable
	if retryable == nil {
		retryable = RetryableStatus
	}
	if retryable(status) {
		return Retry
	}
	return Terminal
}

// Delay returns the wait before the attempt following attempt (zero-based).
func (p Policy) Delay(attempt int, retryAfter string) time.Duration {
	if p.RespectRetryAfter {
		if d, ok := ParseRetryAfter(retryAfter); ok {
			return d
		}
	}
	return p.Backoff(attempt)
}

// Backoff returns BaseDelay * 2^attempt, capped by MaxDelay.
func (p Policy) Backoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > 30 {
		attempt = 30
	}
	d := p.BaseDelay << uint(attempt)
	if p.MaxDelay > 0 && d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// ParseRetryAfter parses a Retry-After header given as seconds or an HTTP date.
func ParseRetryAfter(v string) (time.Duration, bool) {
	if v == "" {
		return 0, false
	}
	if seconds, err := strconv.ParseInt(v, 10, 64); err == nil {
		if seconds <= 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d, true
		}
	}
	return 0, false
}

// Wait sleeps for d or until ctx is done.
func Wait(ctx context.Context, d time.Duration) error {
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

// Do calls fn until it succeeds, returns an error rejected by shouldRetry,
// or the attempt budget runs out. The last error is returned wrapped.
func Do(ctx context.Context, p Policy, shouldRetry func(error) bool, fn func(ctx context.Context) error) error {
	attempts := p.Attempts()
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if errors.Is(lastErr, context.Canceled) || errors.Is(lastErr, context.DeadlineExceeded) {
			return lastErr
		}
		if shouldRetry != nil && !shouldRetry(lastErr) {
			return lastErr
		}
		if attempt < attempts-1 {
			if err := Wait(ctx, p.Backoff(attempt)); err != nil {
				return err
			}
		}
	}
	return fmt.Errorf("gave up after %d attempts: %w", attempts, lastErr)
}
