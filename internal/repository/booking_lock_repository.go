package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/bookit/internal/model"
)

// ErrLockNotFound is returned by LockTx.FindBySlot when no lock row
// exists for the slot.
var ErrLockNotFound = errors.New("booking lock not found")

// LockTx exposes the lock row operations available inside a claim
// transaction opened by BookingLockRepo.InTx.
type LockTx interface {
	// FindBySlot returns the lock row for the slot or ErrLockNotFound.
	FindBySlot(ctx context.Context, slot model.Slot) (*model.BookingLock, error)
	// DeleteByID removes a single lock row.
	DeleteByID(ctx context.Context, id uint64) error
	// Insert adds a lock row and populates its ID.  A unique key
	// violation on the slot is reported as ErrDuplicate.
	Insert(ctx context.Context, lock *model.BookingLock) error
}

// BookingLockRepo provides data access to the booking_locks table.
// The unique index on (experience_id, booking_date, booking_time) is
// what serialises concurrent acquirers of the same slot.  All
// timestamps are UTC; callers pass "now" explicitly so that expiry
// comparisons use the same clock as the lock manager.
type BookingLockRepo struct {
	db *sql.DB
}

// NewBookingLockRepo returns a new BookingLockRepo bound to the provided database.
func NewBookingLockRepo(db *sql.DB) *BookingLockRepo { return &BookingLockRepo{db: db} }

// InTx runs fn inside a database transaction.  The transaction is
// committed when fn returns nil and rolled back otherwise; fn's error
// is returned unchanged so sentinels survive.
func (r *BookingLockRepo) InTx(ctx context.Context, fn func(tx LockTx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(&bookingLockTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return translate(err)
	}
	committed = true
	return nil
}

// DeleteExpired removes every lock whose expires_at is at or before
// now and returns how many rows were removed.
func (r *BookingLockRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM booking_locks WHERE expires_at <= ?`, now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteByOwner removes all locks held under the owner token.  Deleting
// zero rows is not an error.
func (r *BookingLockRepo) DeleteByOwner(ctx context.Context, owner string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM booking_locks WHERE locked_by = ?`, owner)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListActive returns all unexpired locks ordered by lock time, oldest
// first.
func (r *BookingLockRepo) ListActive(ctx context.Context, now time.Time) ([]model.BookingLock, error) {
	const q = `SELECT id, experience_id, booking_date, booking_time, locked_by, locked_at, expires_at
               FROM booking_locks
               WHERE expires_at > ?
               ORDER BY locked_at ASC`
	rows, err := r.db.QueryContext(ctx, q, now.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	locks := make([]model.BookingLock, 0)
	for rows.Next() {
		var l model.BookingLock
		if err := rows.Scan(&l.ID, &l.ExperienceID, &l.BookingDate, &l.BookingTime, &l.LockedBy, &l.LockedAt, &l.ExpiresAt); err != nil {
			return nil, err
		}
		locks = append(locks, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return locks, nil
}

// bookingLockTx implements LockTx on top of a *sql.Tx.
type bookingLockTx struct {
	tx *sql.Tx
}

func (t *bookingLockTx) FindBySlot(ctx context.Context, slot model.Slot) (*model.BookingLock, error) {
	const q = `SELECT id, experience_id, booking_date, booking_time, locked_by, locked_at, expires_at
               FROM booking_locks
               WHERE experience_id = ? AND booking_date = ? AND booking_time = ?`
	var l model.BookingLock
	err := t.tx.QueryRowContext(ctx, q, slot.ExperienceID, slot.Date, slot.Time).Scan(
		&l.ID, &l.ExperienceID, &l.BookingDate, &l.BookingTime, &l.LockedBy, &l.LockedAt, &l.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLockNotFound
		}
		return nil, err
	}
	return &l, nil
}

func (t *bookingLockTx) DeleteByID(ctx context.Context, id uint64) error {
	_, err := t.tx.ExecContext(ctx, `DELETE FROM booking_locks WHERE id = ?`, id)
	return err
}

func (t *bookingLockTx) Insert(ctx context.Context, lock *model.BookingLock) error {
	const q = `INSERT INTO booking_locks (experience_id, booking_date, booking_time, locked_by, locked_at, expires_at)
               VALUES (?, ?, ?, ?, ?, ?)`
	res, err := t.tx.ExecContext(ctx, q,
		lock.ExperienceID, lock.BookingDate, lock.BookingTime, lock.LockedBy,
		lock.LockedAt.UTC(), lock.ExpiresAt.UTC(),
	)
	if err != nil {
		return translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	lock.ID = uint64(id)
	return nil
}
