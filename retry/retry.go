// Package retry provides generic retry logic with exponential backoff for
// transient failures. It uses Go generics for type-safe retry operations and
// respects context cancellation.
package retry

import (
	"context"
	"fmt"
	"time"
)

// Policy holds retry configuration. The delay doubles after every failed
// attempt; the attempt count is the only bound on total backoff.
type Policy struct {
	// MaxAttempts is the maximum number of attempts, including the first.
	MaxAttempts int

	// BaseDelay is the delay before the second attempt.
	BaseDelay time.Duration
}

// DefaultPolicy provides sensible defaults for retry operations.
var DefaultPolicy = Policy{
	MaxAttempts: 3,
	BaseDelay:   100 * time.Millisecond,
}

// Validate checks that the policy is usable.
func (p Policy) Validate() error {
	if p.MaxAttempts < 1 {
		return fmt.Errorf("retry: MaxAttempts must be at least 1, got %d", p.MaxAttempts)
	}
	if p.BaseDelay < 0 {
		return fmt.Errorf("retry: BaseDelay must be non-negative, got %v", p.BaseDelay)
	}
	return nil
}

// IsRetryable determines if an error should trigger a retry.
type IsRetryable func(error) bool

// Do executes fn with retry logic. Context cancellation is checked before
// every attempt and during backoff sleeps. Non-retryable errors are returned
// immediately; the last retryable error is returned wrapped after exhaustion.
func Do[T any](
	ctx context.Context,
	policy Policy,
	isRetryable IsRetryable,
	fn func(context.Context) (T, error),
) (T, error) {
	var zero T
	var lastErr error
	delay := policy.BaseDelay

	for attempt := 0; attempt < policy.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, fmt.Errorf("context cancelled: %w", err)
		}

		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}

		lastErr = err

		if !isRetryable(err) {
			return zero, err
		}

		// Don't sleep after the last attempt
		if attempt < policy.MaxAttempts-1 {
			select {
			case <-time.After(delay):
				delay *= 2
			case <-ctx.Done():
				return zero, ctx.Err()
			}
		}
	}

	return zero, fmt.Errorf("max retries exceeded: %w", lastErr)
}
