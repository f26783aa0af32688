package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/bookit/internal/model"
)

// Locker is the lease interface WithLock drives.  *LockManager
// implements it.
type Locker interface {
	Acquire(ctx context.Context, slot model.Slot) (string, error)
	Release(ctx context.Context, token string)
}

// RetryPolicy bounds how long WithLock waits for a busy slot.
// Attempts are separated by a fixed Backoff with no jitter.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}

// DefaultRetryPolicy waits at most about 2.5s for a slot.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 5, Backoff: 500 * time.Millisecond}
}

// WithLock runs work while holding the lease on slot.
//
// Contention (ErrLockHeld) costs one attempt and is retried after the
// backoff; when attempts run out ErrLockTimeout is returned.  Once the
// lease is held, work runs exactly once and its result and error are
// returned unchanged, so a *CapacityError surfaces on the attempt that
// produced it.  The lease is released on every exit path, including
// panics, using a context that ignores cancellation.
func WithLock[T any](ctx context.Context, locks Locker, slot model.Slot, policy RetryPolicy, work func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	attempts := policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	for attempt := 1; attempt <= attempts; attempt++ {
		token, err := locks.Acquire(ctx, slot)
		if err == nil {
			return runLocked(ctx, locks, token, work)
		}
		if !errors.Is(err, ErrLockHeld) {
			return zero, err
		}
		if attempt == attempts {
			break
		}
		if err := sleepCtx(ctx, policy.Backoff); err != nil {
			return zero, err
		}
	}
	return zero, fmt.Errorf("%w on %s after %d attempts", ErrLockTimeout, slot, attempts)
}

func runLocked[T any](ctx context.Context, locks Locker, token string, work func(ctx context.Context) (T, error)) (T, error) {
	defer locks.Release(context.WithoutCancel(ctx), token)
	return work(ctx)
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
