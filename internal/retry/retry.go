// Package retry runs best-effort remote calls with a fixed attempt budget.
package retry

import (
	"context"
	"fmt"
	"time"
)

// Policy describes how often and how patiently a call is attempted.
type Policy struct {
	// Attempts is the total number of calls, including the first. Values
	// below 1 are treated as 1.
	Attempts int
	// Delay is the pause between a failed attempt and the next one.
	Delay time.Duration
	// Before is a courtesy pause ahead of every attempt.
	Before time.Duration
}

// Once runs a call a single time.
var Once = Policy{Attempts: 1}

// Do calls fn until it succeeds or the policy is exhausted. The returned
// error wraps the last failure; callers treat it as "absent".
func Do[T any](ctx context.Context, p Policy, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, p.Delay); err != nil {
				return zero, err
			}
		}
		if err := sleep(ctx, p.Before); err != nil {
			return zero, err
		}

		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err
	}

	if attempts == 1 {
		return zero, lastErr
	}
	return zero, fmt.Errorf("failed after %d attempts: %w", attempts, lastErr)
}

// Run is Do for calls that only report an error.
func Run(ctx context.Context, p Policy, fn func(context.Context) error) error {
	_, err := Do(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
