package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/bookit/internal/model"
)

var (
	lockSlot = model.Slot{ExperienceID: "exp-1", Date: "Oct 22", Time: "9:00 am"}
	lockCols = []string{"id", "experience_id", "booking_date", "booking_time", "locked_by", "locked_at", "expires_at"}
)

func TestBookingLockRepo_InTxClaimsSlot(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewBookingLockRepo(db)
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM booking_locks")).
		WithArgs(lockSlot.ExperienceID, lockSlot.Date, lockSlot.Time).
		WillReturnRows(sqlmock.NewRows(lockCols))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO booking_locks")).
		WithArgs(lockSlot.ExperienceID, lockSlot.Date, lockSlot.Time, "owner-1", now, now.Add(30*time.Second)).
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectCommit()

	lock := &model.BookingLock{ExperienceID: lockSlot.ExperienceID, BookingDate: lockSlot.Date,
		BookingTime: lockSlot.Time, LockedBy: "owner-1", LockedAt: now, ExpiresAt: now.Add(30 * time.Second)}
	err = repo.InTx(context.Background(), func(tx LockTx) error {
		if _, err := tx.FindBySlot(context.Background(), lockSlot); !errors.Is(err, ErrLockNotFound) {
			return err
		}
		return tx.Insert(context.Background(), lock)
	})
	require.NoError(t, err)
	assert.EqualValues(t, 7, lock.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingLockRepo_DuplicateInsertRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewBookingLockRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO booking_locks")).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	mock.ExpectRollback()

	err = repo.InTx(context.Background(), func(tx LockTx) error {
		return tx.Insert(context.Background(), &model.BookingLock{})
	})
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingLockRepo_DeleteExpired(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM booking_locks WHERE expires_at <= ?")).
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := NewBookingLockRepo(db).DeleteExpired(context.Background(), now)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingLockRepo_DeleteByOwner(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM booking_locks WHERE locked_by = ?")).
		WithArgs("owner-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	n, err := NewBookingLockRepo(db).DeleteByOwner(context.Background(), "owner-1")
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingLockRepo_ListActive(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE expires_at > ?")).
		WithArgs(now).
		WillReturnRows(sqlmock.NewRows(lockCols).
			AddRow(1, "exp-1", "Oct 22", "9:00 am", "a", now.Add(-5*time.Second), now.Add(25*time.Second)).
			AddRow(2, "exp-1", "Oct 22", "11:00 am", "b", now.Add(-time.Second), now.Add(29*time.Second)))

	locks, err := NewBookingLockRepo(db).ListActive(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, locks, 2)
	assert.Equal(t, "9:00 am", locks[0].BookingTime)
	assert.Equal(t, "b", locks[1].LockedBy)
	assert.NoError(t, mock.ExpectationsWereMet())
}
