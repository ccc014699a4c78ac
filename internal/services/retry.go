package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	backoffBase = time.Second
	backoffMax  = 60 * time.Second
)

// HTTPStatusError reports a non-success response from the provider API.
type HTTPStatusError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("provider request: http %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

// ParseRetryAfter interprets a Retry-After header as a delay.
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

// Retryable reports whether err is worth another attempt: rate limits,
// server-side failures, request timeouts, and transport-level errors qualify.
// Context cancellation and other client-side errors do not.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusRequestTimeout,
			statusErr.StatusCode == http.StatusTooManyRequests,
			statusErr.StatusCode >= http.StatusInternalServerError:
			return true
		default:
			return false
		}
	}

	return IsConnectivity(err)
}

// IsConnectivity reports whether err is a transport-level failure (refused
// connection, reset, DNS, timeout) rather than an application response.
func IsConnectivity(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

// BackoffDelay computes the pause before the next attempt. attempt is
// 1-based: the first retry waits roughly two seconds, doubling each time with
// up to a second of jitter, capped at one minute.
func BackoffDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 6 {
		// 2^6 seconds already exceeds the cap.
		return backoffMax
	}
	delay := backoffBase * time.Duration(1<<uint(attempt))
	delay += time.Duration(rand.Int63n(int64(time.Second)))
	if delay > backoffMax {
		return backoffMax
	}
	return delay
}

// RetryDelay picks the pause before retrying err after the given attempt,
// honoring a server-provided Retry-After when present.
func RetryDelay(err error, attempt int) time.Duration {
	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) && statusErr.RetryAfter > 0 {
		if statusErr.RetryAfter > backoffMax {
			return backoffMax
		}
		return statusErr.RetryAfter
	}
	return BackoffDelay(attempt)
}

// Sleep waits for delay or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
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
