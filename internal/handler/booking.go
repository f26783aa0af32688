package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/bookit/internal/booking"
)

// BookingHandler creates and looks up bookings.
type BookingHandler struct {
	Service BookingService
	Log     *zap.Logger
}

// NewBookingHandler constructs a BookingHandler.
func NewBookingHandler(svc BookingService, log *zap.Logger) *BookingHandler {
	return &BookingHandler{Service: svc, Log: log}
}

// Create handles POST /api/bookings.  It returns 201 with the booking
// and its experience, 400 for invalid input or a full slot, 404 for an
// unknown experience and 409 when the slot stayed locked by other
// requests.
func (h *BookingHandler) Create(c echo.Context) error {
	var in booking.CreateBookingInput
	if err := c.Bind(&in); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	b, err := h.Service.CreateBooking(c.Request().Context(), in)
	if err == nil {
		return ok(c, http.StatusCreated, b)
	}

	if ce, isCapacity := booking.AsCapacityError(err); isCapacity {
		return fail(c, http.StatusBadRequest, fmt.Sprintf(
			"Not enough slots available. Only %d slot(s) remaining for this time.", ce.Available))
	}
	switch {
	case errors.Is(err, booking.ErrInvalidInput):
		return fail(c, http.StatusBadRequest, "Missing required fields")
	case errors.Is(err, booking.ErrExperienceNotFound):
		return fail(c, http.StatusNotFound, "Experience not found")
	case errors.Is(err, booking.ErrLockTimeout):
		return fail(c, http.StatusConflict, "This time slot is currently being booked by another user. Please try again.")
	}
	h.Log.Error("create booking failed", zap.String("experience_id", in.ExperienceID), zap.Error(err))
	return fail(c, http.StatusInternalServerError, "Failed to create booking")
}

// GetByReference handles GET /api/bookings/:referenceId.
func (h *BookingHandler) GetByReference(c echo.Context) error {
	b, err := h.Service.GetBooking(c.Request().Context(), c.Param("referenceId"))
	switch {
	case errors.Is(err, booking.ErrBookingNotFound):
		return fail(c, http.StatusNotFound, "Booking not found")
	case err != nil:
		h.Log.Error("get booking failed", zap.String("reference_id", c.Param("referenceId")), zap.Error(err))
		return fail(c, http.StatusInternalServerError, "Failed to fetch booking")
	}
	return ok(c, http.StatusOK, b)
}
