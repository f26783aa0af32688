package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iliyamo/bookit/internal/model"
	"github.com/iliyamo/bookit/internal/repository"
	"github.com/iliyamo/bookit/internal/utils"
)

// SlotCapacity is the number of places every slot offers.  It is the
// same for all experiences.
const SlotCapacity = 10

// AdmissionRequest carries everything needed to admit one booking.
type AdmissionRequest struct {
	Slot      model.Slot
	Quantity  int
	FullName  string
	Email     string
	Subtotal  int
	Taxes     int
	Total     int
	Discount  int
	PromoCode *string
}

// Admission checks slot capacity and inserts bookings.  Callers must
// hold the slot lease for the whole call: the booked quantity it reads
// is only stable under the lease.
type Admission struct {
	bookings     BookingStore
	capacity     int
	newReference func() (string, error)
	newID        func() string
	log          *zap.Logger
}

// AdmissionOption customises an Admission.
type AdmissionOption func(*Admission)

// WithCapacity overrides SlotCapacity.
func WithCapacity(n int) AdmissionOption {
	return func(a *Admission) {
		if n > 0 {
			a.capacity = n
		}
	}
}

// WithReferenceSource replaces the reference id generator.
func WithReferenceSource(fn func() (string, error)) AdmissionOption {
	return func(a *Admission) { a.newReference = fn }
}

// NewAdmission returns an Admission backed by bookings.
func NewAdmission(bookings BookingStore, log *zap.Logger, opts ...AdmissionOption) *Admission {
	a := &Admission{
		bookings:     bookings,
		capacity:     SlotCapacity,
		newReference: utils.NewReferenceID,
		newID:        uuid.NewString,
		log:          log,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Capacity returns the per-slot capacity.
func (a *Admission) Capacity() int { return a.capacity }

// Admit inserts a booking if the slot still has room for req.Quantity.
// When it does not, a *CapacityError with the remaining count is
// returned and nothing is written.
func (a *Admission) Admit(ctx context.Context, req AdmissionRequest) (*model.Booking, error) {
	booked, err := a.bookings.BookedQuantity(ctx, req.Slot)
	if err != nil {
		return nil, fmt.Errorf("load booked quantity for %s: %w", req.Slot, err)
	}
	available := a.capacity - booked
	if available < req.Quantity {
		if available < 0 {
			available = 0
		}
		return nil, &CapacityError{Available: available}
	}

	b := &model.Booking{
		ID:           a.newID(),
		ExperienceID: req.Slot.ExperienceID,
		FullName:     req.FullName,
		Email:        req.Email,
		BookingDate:  req.Slot.Date,
		BookingTime:  req.Slot.Time,
		Quantity:     req.Quantity,
		Subtotal:     req.Subtotal,
		Taxes:        req.Taxes,
		Total:        req.Total,
		Discount:     req.Discount,
		PromoCode:    req.PromoCode,
	}
	// Reference ids are global, not per slot, so the lease does not
	// protect them.  The unique index catches a draw that raced another
	// slot's insert; draw again in that case.
	for {
		ref, err := a.freeReference(ctx)
		if err != nil {
			return nil, err
		}
		b.ReferenceID = ref
		err = a.bookings.Create(ctx, b)
		if err == nil {
			return b, nil
		}
		if !errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("insert booking: %w", err)
		}
		a.log.Warn("reference id taken at insert, drawing again", zap.String("reference_id", ref))
	}
}

// freeReference draws reference ids until one is not used by any
// booking.
func (a *Admission) freeReference(ctx context.Context) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		ref, err := a.newReference()
		if err != nil {
			return "", fmt.Errorf("generate reference id: %w", err)
		}
		taken, err := a.bookings.ReferenceExists(ctx, ref)
		if err != nil {
			return "", fmt.Errorf("check reference id: %w", err)
		}
		if !taken {
			return ref, nil
		}
		a.log.Debug("reference id collision", zap.String("reference_id", ref))
	}
}
