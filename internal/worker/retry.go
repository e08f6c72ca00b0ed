package worker

import (
	"context"
	"errors"
	"time"
)

const (
	maxRetries     = 3
	initialBackoff = 100 * time.Millisecond
)

// RetryPolicy controls attempts and exponential backoff between them
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
}

// DefaultRetryPolicy is three attempts starting at 100ms
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: maxRetries, InitialBackoff: initialBackoff}
}

// retry runs fn until it succeeds, returns a permanent error, runs out of attempts or ctx is done.
// onFailure is called after every failed attempt.
func (p RetryPolicy) retry(ctx context.Context, fn func(ctx context.Context) error, onFailure func(attempt int, err error)) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	backoff := p.InitialBackoff

	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff *= 2
		}

		attemptCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := fn(attemptCtx)
		cancel()

		if err == nil {
			return nil
		}

		lastErr = err
		if onFailure != nil {
			onFailure(attempt+1, err)
		}

		var stop permanent
		if errors.As(err, &stop) {
			return err
		}
	}

	return lastErr
}
