package booking

import (
	"context"
	"time"
)

// DefaultContentionThreshold is the active lock count at which the
// system is considered under high contention.
const DefaultContentionThreshold = 5

// LockDetail describes one active lease.
type LockDetail struct {
	ExperienceID string    `json:"experienceId"`
	BookingDate  string    `json:"bookingDate"`
	BookingTime  string    `json:"bookingTime"`
	LockedAt     time.Time `json:"lockedAt"`
	AgeSeconds   int64     `json:"ageInSeconds"`
}

// Metrics is a point-in-time view of active leases.  OldestLockAge is
// nil when no lease is active.
type Metrics struct {
	TotalActiveLocks int          `json:"totalActiveLocks"`
	OldestLockAge    *int64       `json:"oldestLockAge"`
	LocksBySlot      []LockDetail `json:"locksBySlot"`
}

// Metrics reports every unexpired lease, oldest first.
func (m *LockManager) Metrics(ctx context.Context) (Metrics, error) {
	now := m.now().UTC()
	locks, err := m.store.ListActive(ctx, now)
	if err != nil {
		return Metrics{}, err
	}
	out := Metrics{
		TotalActiveLocks: len(locks),
		LocksBySlot:      make([]LockDetail, 0, len(locks)),
	}
	for _, l := range locks {
		out.LocksBySlot = append(out.LocksBySlot, LockDetail{
			ExperienceID: l.ExperienceID,
			BookingDate:  l.BookingDate,
			BookingTime:  l.BookingTime,
			LockedAt:     l.LockedAt,
			AgeSeconds:   int64(now.Sub(l.LockedAt) / time.Second),
		})
	}
	if len(out.LocksBySlot) > 0 {
		oldest := out.LocksBySlot[0].AgeSeconds
		out.OldestLockAge = &oldest
	}
	return out, nil
}

// HighContention reports whether at least threshold leases are active.
// A threshold below one uses DefaultContentionThreshold.
func (m Metrics) HighContention(threshold int) bool {
	return m.TotalActiveLocks >= contentionThreshold(threshold)
}

func contentionThreshold(n int) int {
	if n < 1 {
		return DefaultContentionThreshold
	}
	return n
}
