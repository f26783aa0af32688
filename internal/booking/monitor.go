package booking

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Monitor periodically sweeps lapsed leases and logs a lock report.
type Monitor struct {
	locks     *LockManager
	interval  time.Duration
	threshold int
	log       *zap.Logger
}

// NewMonitor returns a Monitor ticking every interval.
func NewMonitor(locks *LockManager, interval time.Duration, threshold int, log *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Monitor{locks: locks, interval: interval, threshold: contentionThreshold(threshold), log: log}
}

// Run blocks until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.log.Info("lock monitor started", zap.Duration("interval", m.interval))
	for {
		select {
		case <-ctx.Done():
			m.log.Info("lock monitor stopped")
			return
		case <-ticker.C:
			m.tick(ctx)
		}
	}
}

func (m *Monitor) tick(ctx context.Context) {
	if n, err := m.locks.SweepExpired(ctx); err != nil {
		m.log.Warn("sweep of expired locks failed", zap.Error(err))
	} else if n > 0 {
		m.log.Info("expired locks swept", zap.Int64("count", n))
	}

	metrics, err := m.locks.Metrics(ctx)
	if err != nil {
		m.log.Error("failed to load lock metrics", zap.Error(err))
		return
	}
	fields := []zap.Field{zap.Int("active_locks", metrics.TotalActiveLocks)}
	if metrics.OldestLockAge != nil {
		fields = append(fields, zap.Int64("oldest_lock_age_seconds", *metrics.OldestLockAge))
	}
	if metrics.HighContention(m.threshold) {
		m.log.Warn("high lock contention", append(fields, zap.Int("threshold", m.threshold))...)
	} else {
		m.log.Info("lock metrics", fields...)
	}
	for _, l := range metrics.LocksBySlot {
		m.log.Debug("active lock",
			zap.String("experience_id", l.ExperienceID),
			zap.String("booking_date", l.BookingDate),
			zap.String("booking_time", l.BookingTime),
			zap.Int64("age_seconds", l.AgeSeconds),
		)
	}
}
