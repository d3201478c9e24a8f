package api

import (
	"context"
	"errors"
	"time"
)

// DefaultRetryDelays mirror the web client: quick first retry, then back off
var DefaultRetryDelays = []time.Duration{100 * time.Millisecond, 500 * time.Millisecond, time.Second}

// RetryFunc is called before each retry with the 1-based retry number
type RetryFunc func(op string, attempt int, err error)

// RetryPolicy bounds how often a failed call is repeated
type RetryPolicy struct {
	MaxRetries int
	Delays     []time.Duration
	OnRetry    RetryFunc
}

func (p RetryPolicy) delay(retry int) time.Duration {
	if len(p.Delays) == 0 {
		return 0
	}
	if retry-1 < len(p.Delays) {
		return p.Delays[retry-1]
	}
	return p.Delays[len(p.Delays)-1]
}

// do runs fn until it succeeds, fails permanently, or retries run out.
// Network errors and 5xx/429 responses are retried, everything else is not.
func (p RetryPolicy) do(ctx context.Context, op string, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		if attempt > 0 {
			if p.OnRetry != nil {
				p.OnRetry(op, attempt, lastErr)
			}
			select {
			case <-time.After(p.delay(attempt)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err := fn()
		if err == nil {
			return nil
		}
		if ctx.Err() != nil || !retryable(err) {
			return err
		}
		lastErr = err
	}
	return &RetryError{Op: op, Attempts: p.MaxRetries + 1, Err: lastErr}
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	var de *decodeError
	return !errors.As(err, &de)
}
