package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iliyamo/bookit/internal/model"
	"github.com/iliyamo/bookit/internal/repository"
)

// DefaultLease is how long a slot lock stays valid without release.
const DefaultLease = 30 * time.Second

// LockManager grants leases on slots using lock rows in the store.  It
// keeps no in-memory state, so any number of processes sharing the
// database may use it concurrently.  Leases are advisory: they only
// exclude other callers going through a LockManager.
type LockManager struct {
	store    LockStore
	lease    time.Duration
	now      func() time.Time
	newToken func() string
	log      *zap.Logger
}

// LockOption customises a LockManager.
type LockOption func(*LockManager)

// WithLease overrides DefaultLease.
func WithLease(d time.Duration) LockOption {
	return func(m *LockManager) {
		if d > 0 {
			m.lease = d
		}
	}
}

// WithClock replaces time.Now, mainly for lease expiry tests.
func WithClock(now func() time.Time) LockOption {
	return func(m *LockManager) { m.now = now }
}

// WithTokenSource replaces the owner token generator.
func WithTokenSource(fn func() string) LockOption {
	return func(m *LockManager) { m.newToken = fn }
}

// NewLockManager returns a LockManager backed by store.
func NewLockManager(store LockStore, log *zap.Logger, opts ...LockOption) *LockManager {
	m := &LockManager{
		store:    store,
		lease:    DefaultLease,
		now:      time.Now,
		newToken: uuid.NewString,
		log:      log,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Acquire tries once to take the lease on slot.  It returns the owner
// token on success and ErrLockHeld when an unexpired lease exists or a
// concurrent acquirer inserted first.  Any other error is a store
// failure.
func (m *LockManager) Acquire(ctx context.Context, slot model.Slot) (string, error) {
	if n, err := m.SweepExpired(ctx); err != nil {
		m.log.Warn("sweep of expired locks failed", zap.Error(err))
	} else if n > 0 {
		m.log.Debug("swept expired locks", zap.Int64("count", n))
	}

	now := m.now().UTC()
	token := m.newToken()
	err := m.store.InTx(ctx, func(tx repository.LockTx) error {
		existing, err := tx.FindBySlot(ctx, slot)
		switch {
		case errors.Is(err, repository.ErrLockNotFound):
		case err != nil:
			return err
		case !existing.ExpiredAt(now):
			return ErrLockHeld
		default:
			if err := tx.DeleteByID(ctx, existing.ID); err != nil {
				return err
			}
		}
		return tx.Insert(ctx, &model.BookingLock{
			ExperienceID: slot.ExperienceID,
			BookingDate:  slot.Date,
			BookingTime:  slot.Time,
			LockedBy:     token,
			LockedAt:     now,
			ExpiresAt:    now.Add(m.lease),
		})
	})
	switch {
	case err == nil:
		return token, nil
	case errors.Is(err, ErrLockHeld), errors.Is(err, repository.ErrDuplicate):
		return "", ErrLockHeld
	default:
		return "", fmt.Errorf("acquire lock on %s: %w", slot, err)
	}
}

// Release drops every lease held under token.  Releasing an unknown,
// expired or already released token does nothing.  Store failures are
// logged; the lease then lapses on its own.
func (m *LockManager) Release(ctx context.Context, token string) {
	if token == "" {
		return
	}
	if _, err := m.store.DeleteByOwner(ctx, token); err != nil {
		m.log.Error("release lock failed", zap.String("owner", token), zap.Error(err))
	}
}

// SweepExpired removes every lapsed lease and returns how many were removed.
func (m *LockManager) SweepExpired(ctx context.Context) (int64, error) {
	return m.store.DeleteExpired(ctx, m.now().UTC())
}
