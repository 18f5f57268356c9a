// Package retry bounds external calls with a per-attempt timeout and a small retry budget.
package retry

import (
	"context"
	"time"
)

// Policy describes how a single external call is attempted.
type Policy struct {
	// Timeout bounds each attempt. Zero leaves the caller's context as the only bound.
	Timeout time.Duration
	// MaxRetries is the number of extra attempts after the first failure.
	MaxRetries int
	Backoff    time.Duration
}

// DefaultPolicy is a 30s timeout with a single retry.
var DefaultPolicy = Policy{Timeout: 30 * time.Second, MaxRetries: 1, Backoff: 200 * time.Millisecond}

// Do runs fn until it succeeds or the retry budget is spent and returns the last error.
// A cancelled parent context stops further attempts.
func Do[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	var (
		result T
		err    error
	)
	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		if attempt > 0 && p.Backoff > 0 {
			select {
			case <-ctx.Done():
				return result, err
			case <-time.After(p.Backoff):
			}
		}
		if ctx.Err() != nil {
			if err == nil {
				err = ctx.Err()
			}
			return result, err
		}

		result, err = runAttempt(ctx, p.Timeout, fn)
		if err == nil {
			return result, nil
		}
	}
	return result, err
}

func runAttempt[T any](ctx context.Context, timeout time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		return fn(ctx)
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(callCtx)
}
