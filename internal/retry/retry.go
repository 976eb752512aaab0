package retry

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

// Policy is a fixed retry schedule. Backoff[i] is the delay before attempt
// i+2; total attempts = len(Backoff)+1. Sleep can be swapped out in tests so
// nothing waits for real.
type Policy struct {
	Backoff []time.Duration
	Sleep   func(ctx context.Context, d time.Duration) error
}

// DefaultPolicy is the upstream call schedule: 3 attempts with 1s then 2s
// between them.
func DefaultPolicy() Policy {
	return Policy{Backoff: []time.Duration{1 * time.Second, 2 * time.Second}}
}

// Do runs fn until it succeeds or the schedule is exhausted. Each failed
// attempt before the last is logged at warning level; exhaustion is logged at
// error level and the last error is returned. Canceling the context during a
// backoff sleep aborts with the context error.
func Do[T any](ctx context.Context, name string, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	attempts := len(p.Backoff) + 1
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			backoff := p.Backoff[attempt-2]
			log.Warnf("%s: attempt %d/%d failed: %v; retrying in %s", name, attempt-1, attempts, lastErr, backoff)
			if err := sleep(ctx, backoff); err != nil {
				return zero, err
			}
		}

		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err
	}

	log.Errorf("%s: all %d attempts failed: %v", name, attempts, lastErr)
	return zero, lastErr
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
