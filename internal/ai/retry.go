package ai

import (
	"context"
	"fmt"
	"time"
)

// Policy describes how a call is retried.
type Policy struct {
	MaxAttempts int
	// Backoff returns the delay after the given failed attempt (1-based).
	Backoff   func(attempt int) time.Duration
	Retryable func(error) bool
	// Sleep waits d or until ctx is done. Nil means a real timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultPolicy retries transient failures with 1s, 2s, 4s ... capped at 10s.
func DefaultPolicy(maxAttempts int) Policy {
	return Policy{
		MaxAttempts: maxAttempts,
		Backoff:     Exponential(time.Second, 10*time.Second),
		Retryable:   IsRetryable,
	}
}

// Exponential returns min(max, base*2^(attempt-1)).
func Exponential(base, max time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		if attempt < 1 {
			attempt = 1
		}
		d := base
		for i := 1; i < attempt; i++ {
			d *= 2
			if d >= max {
				return max
			}
		}
		if d > max {
			return max
		}
		return d
	}
}

// Do calls fn until it succeeds, fails with a non-retryable error, ctx is done,
// or MaxAttempts is reached. In the last case the error wraps ErrRetriesExhausted.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn(ctx)
		if err == nil {
			return nil
		}
		if p.Retryable == nil || !p.Retryable(err) {
			return err
		}
		if ctx.Err() != nil {
			return err
		}
		if attempt == attempts {
			break
		}

		var d time.Duration
		if p.Backoff != nil {
			d = p.Backoff(attempt)
		}
		if serr := sleep(ctx, d); serr != nil {
			return err
		}
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, attempts, err)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
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
