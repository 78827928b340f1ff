// Package retry re-runs idempotent operations that failed for transient reasons.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrExhausted wraps the last error once every attempt has failed
var ErrExhausted = errors.New("retry attempts exhausted")

// Policy decides how often and when an operation is retried
type Policy struct {
	// MaxAttempts includes the first attempt; values below 1 mean a single attempt
	MaxAttempts int

	Backoff Backoff

	// Retryable reports whether err is worth another attempt. Nil retries every error.
	Retryable func(err error) bool

	// OnRetry is called before waiting for the next attempt
	OnRetry func(attempt int, err error, wait time.Duration)
}

// None is a policy that never retries
func None() Policy {
	return Policy{MaxAttempts: 1}
}

// Do runs fn until it succeeds, returns a non-retryable error, or attempts run out
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	_, err := DoValue(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// DoValue is Do for operations that produce a value
func DoValue[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var zero T
	for attempt := 1; ; attempt++ {
		val, err := fn(ctx)
		if err == nil {
			return val, nil
		}
		if p.Retryable != nil && !p.Retryable(err) {
			return zero, err
		}
		if attempt >= attempts {
			if attempts == 1 {
				return zero, err
			}
			return zero, fmt.Errorf("%w after %d attempts: %w", ErrExhausted, attempt, err)
		}

		var wait time.Duration
		if p.Backoff != nil {
			wait = p.Backoff.Delay(attempt)
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt, err, wait)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-timer.C:
		}
	}
}
