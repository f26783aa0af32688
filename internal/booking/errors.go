package booking

import (
	"errors"
	"fmt"

	"github.com/iliyamo/bookit/internal/repository"
)

// Lookup failures are the repository sentinels so that errors.Is works
// across both layers.
var (
	ErrExperienceNotFound = repository.ErrExperienceNotFound
	ErrBookingNotFound    = repository.ErrBookingNotFound
	ErrPromoCodeNotFound  = repository.ErrPromoCodeNotFound
)

var (
	// ErrLockHeld means another owner holds an unexpired lease on the
	// slot.  WithLock absorbs it; it never reaches HTTP handlers.
	ErrLockHeld = errors.New("slot lock already held")
	// ErrLockTimeout is returned once every acquisition attempt found the
	// slot locked.  Callers should ask the user to try again shortly.
	ErrLockTimeout = errors.New("unable to acquire booking lock")
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrPromoCodeInactive = errors.New("promo code is no longer active")
	ErrPromoCodeExpired  = errors.New("promo code has expired")
)

// CapacityError reports that a slot cannot take the requested
// quantity.  Available is the number of places still free at the time
// of the check and is never negative.
type CapacityError struct {
	Available int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("not enough slots available: %d remaining", e.Available)
}

// AsCapacityError unwraps err into a *CapacityError when it carries one.
func AsCapacityError(err error) (*CapacityError, bool) {
	var ce *CapacityError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
