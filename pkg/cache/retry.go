package cache

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNetwork marks a transient backend failure such as a timeout or a
	// dropped connection.
	ErrNetwork = errors.New("network error")

	// ErrUnavailable is returned when a backend cannot be reached at startup.
	ErrUnavailable = errors.New("cache backend unavailable")
)

// transientError flags its cause as worth another attempt.
type transientError struct{ cause error }

func (e transientError) Error() string { return e.cause.Error() }
func (e transientError) Unwrap() error { return e.cause }

// Retryable marks err as transient so that [RetryWithBackoff] tries again.
// It returns nil for a nil error.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return transientError{cause: err}
}

// IsRetryable reports whether any error in err's chain was marked by
// [Retryable].
func IsRetryable(err error) bool {
	var te transientError
	return errors.As(err, &te)
}

// backoff describes how often and how patiently an operation is retried.
type backoff struct {
	attempts int
	initial  time.Duration
	factor   int
}

// defaultBackoff is used by every network backend. Tests shorten initial.
var defaultBackoff = backoff{attempts: 3, initial: 200 * time.Millisecond, factor: 2}

// RetryWithBackoff runs fn until it succeeds, returns an error not marked by
// [Retryable], or runs out of attempts. The last error is returned. Waiting
// between attempts stops early when ctx is done.
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	return defaultBackoff.run(ctx, fn)
}

func (b backoff) run(ctx context.Context, fn func() error) error {
	wait := b.initial
	var err error
	for attempt := 1; ; attempt++ {
		err = fn()
		if err == nil || !IsRetryable(err) || attempt >= b.attempts {
			return err
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		wait *= time.Duration(b.factor)
	}
}
