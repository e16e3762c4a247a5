package httpclient

import (
	"context"
	"errors"
	"time"
)

const maxBackoff = 5 * time.Second

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Retry executes fn up to attempts times with exponential backoff starting at
// baseDelay. beforeRetry, when non-nil, runs between a failed attempt and the
// next one. Errors wrapped with Permanent stop the loop immediately and are
// returned unwrapped.
func Retry(ctx context.Context, attempts int, baseDelay time.Duration, fn func() error, beforeRetry func()) error {
	if attempts < 1 {
		attempts = 1
	}

	var err error
	delay := baseDelay
	for i := 0; i < attempts; i++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		err = fn()
		if err == nil {
			return nil
		}

		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}

		// Do not sleep after last attempt
		if i == attempts-1 {
			break
		}

		if beforeRetry != nil {
			beforeRetry()
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}

		// exponential backoff with cap
		delay *= 2
		if delay > maxBackoff {
			delay = maxBackoff
		}
	}

	return err
}
