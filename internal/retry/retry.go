// Package retry wraps external-service calls in a bounded-attempt backoff
// policy. Transient failures (rate limits, flaky networks) get retried;
// exhausted attempts escalate to the caller as a fatal error.
package retry

import (
	"context"
	"fmt"
	"time"
)

type Policy struct {
	// MaxAttempts is the total number of tries, including the first. Values
	// below 1 behave as 1.
	MaxAttempts int
	// Delay is the wait before the second attempt.
	Delay time.Duration
	// Multiplier scales the delay after each failed attempt. Values below 1
	// behave as 1 (constant backoff).
	Multiplier float64
}

// DefaultPolicy mirrors the upstream services' tolerance: three attempts,
// three seconds apart.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 3, Delay: 3 * time.Second, Multiplier: 1}
}

// Do runs fn until it succeeds or attempts are exhausted. Context cancellation
// during a backoff wait aborts immediately.
func (p Policy) Do(ctx context.Context, op string, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	mult := p.Multiplier
	if mult < 1 {
		mult = 1
	}

	delay := p.Delay
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s: %w", op, ctx.Err())
		case <-time.After(delay):
		}
		delay = time.Duration(float64(delay) * mult)
	}
	return fmt.Errorf("%s failed after %d attempts: %w", op, attempts, err)
}
