package booking

import (
	"context"
	"time"

	"github.com/iliyamo/bookit/internal/model"
	"github.com/iliyamo/bookit/internal/repository"
)

// LockStore is the persistence behind the lock manager.  It must
// enforce a unique key on (experience, date, time) and report
// violations as repository.ErrDuplicate.
type LockStore interface {
	InTx(ctx context.Context, fn func(tx repository.LockTx) error) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	DeleteByOwner(ctx context.Context, owner string) (int64, error)
	ListActive(ctx context.Context, now time.Time) ([]model.BookingLock, error)
}

// BookingStore is the persistence behind admission and booking lookup.
// Create must reject a duplicate reference id with
// repository.ErrDuplicate.
type BookingStore interface {
	BookedQuantity(ctx context.Context, slot model.Slot) (int, error)
	ReferenceExists(ctx context.Context, ref string) (bool, error)
	Create(ctx context.Context, b *model.Booking) error
	GetByReference(ctx context.Context, ref string) (*model.Booking, error)
}

// ExperienceStore reads the catalog.
type ExperienceStore interface {
	ListAll(ctx context.Context) ([]model.Experience, error)
	GetByID(ctx context.Context, id string) (*model.Experience, error)
}

// PromoCodeStore reads promo codes.
type PromoCodeStore interface {
	GetByCode(ctx context.Context, code string) (*model.PromoCode, error)
}

// EventPublisher announces confirmed bookings to downstream consumers.
type EventPublisher interface {
	PublishBookingConfirmed(ctx context.Context, b *model.Booking) error
}

var (
	_ LockStore       = (*repository.BookingLockRepo)(nil)
	_ BookingStore    = (*repository.BookingRepo)(nil)
	_ ExperienceStore = (*repository.ExperienceRepo)(nil)
	_ PromoCodeStore  = (*repository.PromoCodeRepo)(nil)
)
