package model

import "time"

// BookingLock is a lease on a slot.  Holding the lease is required
// before reading the booked quantity of a slot and inserting a new
// booking for it.  At most one unexpired lock exists per slot; an
// expired lock may be removed by anyone trying to acquire the slot.
//
// Fields:
//  ID           – primary key identifier.
//  ExperienceID – experience part of the slot key.
//  BookingDate  – date part of the slot key.
//  BookingTime  – time part of the slot key.
//  LockedBy     – owner token handed to the acquirer.
//  LockedAt     – when the lease was granted.
//  ExpiresAt    – when the lease lapses.
type BookingLock struct {
	ID           uint64    `json:"id"`           // booking_locks.id
	ExperienceID string    `json:"experienceId"` // booking_locks.experience_id
	BookingDate  string    `json:"bookingDate"`  // booking_locks.booking_date
	BookingTime  string    `json:"bookingTime"`  // booking_locks.booking_time
	LockedBy     string    `json:"-"`            // booking_locks.locked_by
	LockedAt     time.Time `json:"lockedAt"`     // booking_locks.locked_at
	ExpiresAt    time.Time `json:"expiresAt"`    // booking_locks.expires_at
}

// Slot returns the key the lock guards.
func (l *BookingLock) Slot() Slot {
	return Slot{ExperienceID: l.ExperienceID, Date: l.BookingDate, Time: l.BookingTime}
}

// ExpiredAt reports whether the lease has lapsed at the given instant.
func (l *BookingLock) ExpiredAt(now time.Time) bool {
	return !l.ExpiresAt.After(now)
}
