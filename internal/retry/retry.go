// Package retry implements a bounded retry combinator: a fixed number of
// attempts, a backoff schedule between them, and an optional hard timeout
// per attempt. A timed-out attempt counts as a failed attempt, never as
// success.
package retry

import (
	"context"
	"fmt"
	"time"
)

type Policy struct {
	// MaxAttempts is the total number of tries, including the first.
	MaxAttempts int

	// Backoff holds the delay before each retry. When there are more retries
	// than entries, the last entry repeats.
	Backoff []time.Duration

	// AttemptTimeout, when positive, bounds each attempt with a derived
	// context deadline.
	AttemptTimeout time.Duration

	// OnRetry is called after a failed attempt that will be retried.
	OnRetry func(attempt int, err error)

	// Sleep overrides the backoff wait, for tests. The default honors
	// context cancellation.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Exponential builds the schedule base, 2*base, 4*base, ... for n-1 retries.
func Exponential(base time.Duration, n int) []time.Duration {
	if n < 2 {
		return nil
	}
	schedule := make([]time.Duration, n-1)
	d := base
	for i := range schedule {
		schedule[i] = d
		d *= 2
	}
	return schedule
}

// Do runs fn until it succeeds, the policy's attempts are exhausted, or ctx
// is cancelled. It returns the last attempt's error, wrapped with the
// attempt count.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = defaultSleep
	}

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = runAttempt(ctx, p.AttemptTimeout, fn)
		if lastErr == nil {
			return nil
		}

		if attempt == p.MaxAttempts {
			break
		}

		if p.OnRetry != nil {
			p.OnRetry(attempt, lastErr)
		}

		if err := sleep(ctx, backoffFor(p.Backoff, attempt)); err != nil {
			return err
		}
	}

	return fmt.Errorf("after %d attempts: %w", p.MaxAttempts, lastErr)
}

func runAttempt(ctx context.Context, timeout time.Duration, fn func(ctx context.Context) error) error {
	if timeout <= 0 {
		return fn(ctx)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(attemptCtx)
}

func backoffFor(schedule []time.Duration, attempt int) time.Duration {
	if len(schedule) == 0 {
		return 0
	}
	i := attempt - 1
	if i >= len(schedule) {
		i = len(schedule) - 1
	}
	return schedule[i]
}

func defaultSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
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
