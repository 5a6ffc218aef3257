// Package retry wraps single external-call operations with bounded
// exponential backoff. Transient failures (HTTP 408/429/5xx, timeouts,
// errors wrapped with common.ErrTransient) are retried up to the policy
// maximum; everything else propagates immediately.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tboyle/recipe-press/internal/common"
)

const (
	defaultMaxRetries = 3
	defaultBaseDelay  = 1 * time.Second
	defaultMaxDelay   = 30 * time.Second
)

// Policy describes the bounded backoff applied to one operation.
type Policy struct {
	MaxRetries int           // additional attempts after the first; total attempts = MaxRetries+1
	BaseDelay  time.Duration // delay before attempt 2; doubles each retry
	MaxDelay   time.Duration // cap for the computed delay and any Retry-After hint

	// Sleeper overrides how delays are performed (useful for tests).
	Sleeper func(time.Duration)
}

// DefaultPolicy returns the policy used when fields are zero.
func DefaultPolicy() Policy {
	return Policy{MaxRetries: defaultMaxRetries, BaseDelay: defaultBaseDelay, MaxDelay: defaultMaxDelay}
}

// HTTPStatusError carries a non-2xx response so the retry layer can decide
// whether the status is worth another attempt.
type HTTPStatusError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("http %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

// Do runs fn until it succeeds, fails permanently, or the attempt budget is
// exhausted. Every attempt is logged with its elapsed time and outcome.
func Do(ctx context.Context, logger *slog.Logger, p Policy, op string, fn func(ctx context.Context) error) error {
	if logger == nil {
		logger = slog.Default()
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = defaultBaseDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = defaultMaxDelay
	}
	if p.MaxRetries < 0 {
		p.MaxRetries = 0
	}

	attempts := p.MaxRetries + 1
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		start := time.Now()
		err := fn(ctx)
		elapsed := time.Since(start)
		if err == nil {
			logger.Debug("retry.attempt.ok", "op", op, "attempt", attempt, "elapsed_ms", elapsed.Milliseconds())
			return nil
		}
		lastErr = err

		retryable, hint := Transient(err)
		logger.Warn("retry.attempt.failed",
			"op", op,
			"attempt", attempt,
			"max_attempts", attempts,
			"transient", retryable,
			"elapsed_ms", elapsed.Milliseconds(),
			"error", err,
		)
		if !retryable {
			return err
		}
		if attempt == attempts {
			break
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		delay := p.backoffDelay(attempt)
		if hint > 0 {
			delay = p.capDelay(hint)
		}
		if err := p.sleep(ctx, delay); err != nil {
			return err
		}
	}
	return fmt.Errorf("%s: failed after %d attempts: %w", op, attempts, lastErr)
}

// Transient classifies err and returns a server-provided delay hint when one
// exists (Retry-After).
func Transient(err error) (bool, time.Duration) {
	if err == nil {
		return false, 0
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false, 0
	}
	if errors.Is(err, common.ErrPermanent) {
		return false, 0
	}
	if errors.Is(err, common.ErrTransient) {
		return true, 0
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusRequestTimeout,
			statusErr.StatusCode == http.StatusTooManyRequests,
			statusErr.StatusCode >= http.StatusInternalServerError:
			return true, statusErr.RetryAfter
		default:
			return false, 0
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true, 0
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return true, 0
	}
	return false, 0
}

// ParseRetryAfter interprets a Retry-After header value as a delay.
func ParseRetryAfter(value string) (time.Duration, bool) {
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
	if when, err := http.ParseTime(value); err == nil {
		delay := time.Until(when)
		if delay < 0 {
			return 0, false
		}
		return delay, true
	}
	return 0, false
}

// backoffDelay returns base*2^(attempt-1), capped.
// attempt is 1-based; the delay computed for attempt N precedes attempt N+1.
func (p Policy) backoffDelay(attempt int) time.Duration {
	delay := p.BaseDelay
	for i := 1; i < attempt; i++ {
		if delay > p.MaxDelay/2 {
			delay = p.MaxDelay
			break
		}
		delay *= 2
	}
	return p.capDelay(delay)
}

func (p Policy) capDelay(delay time.Duration) time.Duration {
	if delay < 0 {
		return 0
	}
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		return p.MaxDelay
	}
	return delay
}

func (p Policy) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	if p.Sleeper != nil {
		p.Sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
