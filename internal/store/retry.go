package store

import (
	"context"
	"time"

	"github.com/eleven-am/pantry/internal/orm"
)

// RetryPolicy bounds Retry. Backoff doubles after each failed attempt up
// to MaxBackoff.
type RetryPolicy struct {
	Attempts   int
	Backoff    time.Duration
	MaxBackoff time.Duration
}

// DefaultRetryPolicy is used by the CLI for bulk writes.
var DefaultRetryPolicy = RetryPolicy{
	Attempts:   3,
	Backoff:    200 * time.Millisecond,
	MaxBackoff: 2 * time.Second,
}

// Retry calls fn until it succeeds, fails with a non-retryable error, or
// the attempts run out. Only orm.ErrStorageUnavailable is retried; data
// errors are returned at once.
func Retry(ctx context.Context, policy RetryPolicy, fn func(ctx context.Context) error) error {
	attempts := policy.Attempts
	if attempts < 1 {
		attempts = 1
	}
	backoff := policy.Backoff

	var err error
	for attempt := 1; ; attempt++ {
		err = fn(ctx)
		if err == nil || !orm.IsRetryable(err) || attempt >= attempts {
			return err
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}

		backoff *= 2
		if policy.MaxBackoff > 0 && backoff > policy.MaxBackoff {
			backoff = policy.MaxBackoff
		}
	}
}
