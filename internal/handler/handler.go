// Package handler exposes the HTTP handlers of the public booking API.
// Every response uses the envelope {"success": bool, "data" | "message"}.
package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bookit/internal/booking"
	"github.com/iliyamo/bookit/internal/model"
)

// BookingService is the subset of *booking.Service the handlers use.
type BookingService interface {
	CreateBooking(ctx context.Context, in booking.CreateBookingInput) (*model.Booking, error)
	GetBooking(ctx context.Context, referenceID string) (*model.Booking, error)
	CheckAvailability(ctx context.Context, experienceID, date, tm string) (booking.Availability, error)
	ListExperiences(ctx context.Context) ([]model.Experience, error)
	GetExperience(ctx context.Context, id string) (*model.Experience, error)
	ValidatePromoCode(ctx context.Context, code string) (*model.PromoCode, error)
	LockMetrics(ctx context.Context) (booking.Metrics, error)
}

var _ BookingService = (*booking.Service)(nil)

func ok(c echo.Context, status int, data any) error {
	return c.JSON(status, echo.Map{"success": true, "data": data})
}

func fail(c echo.Context, status int, message string) error {
	return c.JSON(status, echo.Map{"success": false, "message": message})
}

// Health is used by load balancers and monitoring to verify that the
// service is up.
func Health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "OK", "message": "BookIt API is running"})
}
