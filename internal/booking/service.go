package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/iliyamo/bookit/internal/model"
	"github.com/iliyamo/bookit/internal/utils"
)

// publishTimeout bounds one booking.confirmed publish.
const publishTimeout = 5 * time.Second

// CreateBookingInput is the payload of a booking request.
type CreateBookingInput struct {
	ExperienceID string  `json:"experienceId" validate:"required"`
	FullName     string  `json:"fullName" validate:"required,max=255"`
	Email        string  `json:"email" validate:"required,email,max=255"`
	BookingDate  string  `json:"bookingDate" validate:"required,max=32"`
	BookingTime  string  `json:"bookingTime" validate:"required,max=32"`
	Quantity     int     `json:"quantity" validate:"gt=0"`
	Subtotal     int     `json:"subtotal" validate:"gte=0"`
	Taxes        int     `json:"taxes" validate:"gte=0"`
	Total        int     `json:"total" validate:"gte=0"`
	Discount     int     `json:"discount" validate:"gte=0"`
	PromoCode    *string `json:"promoCode,omitempty"`
}

// Slot returns the slot the input targets.
func (in CreateBookingInput) Slot() model.Slot {
	return model.Slot{ExperienceID: in.ExperienceID, Date: in.BookingDate, Time: in.BookingTime}
}

// Availability is an unlocked capacity hint for one slot.  It may be
// stale by the time a booking is attempted.
type Availability struct {
	Date           string `json:"date"`
	Time           string `json:"time"`
	AvailableSlots int    `json:"availableSlots"`
	TotalBooked    int    `json:"totalBooked"`
	MaxCapacity    int    `json:"maxCapacity"`
	IsAvailable    bool   `json:"isAvailable"`
}

// Deps groups the collaborators of a Service.  Publisher may be nil.
type Deps struct {
	Locks       *LockManager
	Admission   *Admission
	Bookings    BookingStore
	Experiences ExperienceStore
	PromoCodes  PromoCodeStore
	Publisher   EventPublisher
	Policy      RetryPolicy
	Log         *zap.Logger
	Now         func() time.Time
}

// Service is the booking facade used by the HTTP layer.
type Service struct {
	locks       *LockManager
	admission   *Admission
	bookings    BookingStore
	experiences ExperienceStore
	promoCodes  PromoCodeStore
	publisher   EventPublisher
	policy      RetryPolicy
	validate    *validator.Validate
	log         *zap.Logger
	now         func() time.Time

	publishing sync.WaitGroup
}

// NewService wires a Service.  A zero Policy uses DefaultRetryPolicy.
func NewService(d Deps) *Service {
	policy := d.Policy
	if policy.MaxAttempts == 0 {
		policy = DefaultRetryPolicy()
	}
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	now := d.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		locks:       d.Locks,
		admission:   d.Admission,
		bookings:    d.Bookings,
		experiences: d.Experiences,
		promoCodes:  d.PromoCodes,
		publisher:   d.Publisher,
		policy:      policy,
		validate:    validator.New(),
		log:         log,
		now:         now,
	}
}

// CreateBooking admits a booking under the slot lease.  Capacity
// failures come back as *CapacityError and lease exhaustion as
// ErrLockTimeout.
func (s *Service) CreateBooking(ctx context.Context, in CreateBookingInput) (*model.Booking, error) {
	in.ExperienceID = strings.TrimSpace(in.ExperienceID)
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.TrimSpace(in.Email)
	in.BookingDate = strings.TrimSpace(in.BookingDate)
	in.BookingTime = strings.TrimSpace(in.BookingTime)
	if in.PromoCode != nil {
		code := strings.ToUpper(strings.TrimSpace(*in.PromoCode))
		if code == "" {
			in.PromoCode = nil
		} else {
			in.PromoCode = &code
		}
	}
	if err := s.validate.StructCtx(ctx, in); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, describeValidation(err))
	}

	exp, err := s.experiences.GetByID(ctx, in.ExperienceID)
	if err != nil {
		return nil, err
	}

	slot := in.Slot()
	b, err := WithLock(ctx, s.locks, slot, s.policy, func(ctx context.Context) (*model.Booking, error) {
		return s.admission.Admit(ctx, AdmissionRequest{
			Slot:      slot,
			Quantity:  in.Quantity,
			FullName:  in.FullName,
			Email:     in.Email,
			Subtotal:  in.Subtotal,
			Taxes:     in.Taxes,
			Total:     in.Total,
			Discount:  in.Discount,
			PromoCode: in.PromoCode,
		})
	})
	if err != nil {
		if ce, ok := AsCapacityError(err); ok {
			s.log.Info("booking rejected: slot full",
				zap.String("slot", slot.String()),
				zap.Int("requested", in.Quantity),
				zap.Int("available", ce.Available))
		} else if errors.Is(err, ErrLockTimeout) {
			s.log.Warn("booking rejected: slot busy", zap.String("slot", slot.String()))
		}
		return nil, err
	}
	if b.Experience == nil {
		b.Experience = exp
	}

	s.log.Info("booking created",
		zap.String("reference_id", b.ReferenceID),
		zap.String("slot", slot.String()),
		zap.Int("quantity", b.Quantity))
	s.publishConfirmed(ctx, b)
	return b, nil
}

// publishConfirmed announces b in the background.  Failures are logged
// and never affect the booking.
func (s *Service) publishConfirmed(ctx context.Context, b *model.Booking) {
	if s.publisher == nil {
		return
	}
	s.publishing.Add(1)
	go func() {
		defer s.publishing.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
		defer cancel()
		if err := s.publisher.PublishBookingConfirmed(ctx, b); err != nil {
			s.log.Warn("publish booking.confirmed failed",
				zap.String("reference_id", b.ReferenceID), zap.Error(err))
		}
	}()
}

// Wait blocks until in-flight event publishes finish.
func (s *Service) Wait() { s.publishing.Wait() }

// CheckAvailability reports free places on a slot without taking the
// lease.
func (s *Service) CheckAvailability(ctx context.Context, experienceID, date, tm string) (Availability, error) {
	slot := model.Slot{ExperienceID: experienceID, Date: date, Time: tm}
	booked, err := s.bookings.BookedQuantity(ctx, slot)
	if err != nil {
		return Availability{}, fmt.Errorf("load booked quantity for %s: %w", slot, err)
	}
	capacity := s.admission.Capacity()
	available := capacity - booked
	if available < 0 {
		available = 0
	}
	return Availability{
		Date:           date,
		Time:           tm,
		AvailableSlots: available,
		TotalBooked:    booked,
		MaxCapacity:    capacity,
		IsAvailable:    available > 0,
	}, nil
}

// GetBooking looks a booking up by its reference id.  Lookups are case
// insensitive; malformed references are reported as not found without
// touching the store.
func (s *Service) GetBooking(ctx context.Context, referenceID string) (*model.Booking, error) {
	ref := strings.ToUpper(strings.TrimSpace(referenceID))
	if !utils.IsReferenceID(ref) {
		return nil, ErrBookingNotFound
	}
	return s.bookings.GetByReference(ctx, ref)
}

func (s *Service) ListExperiences(ctx context.Context) ([]model.Experience, error) {
	return s.experiences.ListAll(ctx)
}

func (s *Service) GetExperience(ctx context.Context, id string) (*model.Experience, error) {
	return s.experiences.GetByID(ctx, id)
}

// ValidatePromoCode returns the promo code when it exists, is active and
// has not expired.
func (s *Service) ValidatePromoCode(ctx context.Context, code string) (*model.PromoCode, error) {
	pc, err := s.promoCodes.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if !pc.IsActive {
		return nil, ErrPromoCodeInactive
	}
	if pc.ExpiredAt(s.now()) {
		return nil, ErrPromoCodeExpired
	}
	return pc, nil
}

// LockMetrics exposes the lock report.
func (s *Service) LockMetrics(ctx context.Context) (Metrics, error) {
	return s.locks.Metrics(ctx)
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
	}
	return "invalid fields: " + strings.Join(fields, ", ")
}
