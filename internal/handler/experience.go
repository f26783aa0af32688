package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/bookit/internal/booking"
)

// ExperienceHandler serves the catalog and availability hints.
type ExperienceHandler struct {
	Service BookingService
	Log     *zap.Logger
}

// NewExperienceHandler constructs an ExperienceHandler.
func NewExperienceHandler(svc BookingService, log *zap.Logger) *ExperienceHandler {
	return &ExperienceHandler{Service: svc, Log: log}
}

// List handles GET /api/experiences, newest first.
func (h *ExperienceHandler) List(c echo.Context) error {
	items, err := h.Service.ListExperiences(c.Request().Context())
	if err != nil {
		h.Log.Error("list experiences failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "Failed to fetch experiences")
	}
	return ok(c, http.StatusOK, items)
}

// Get handles GET /api/experiences/:id.
func (h *ExperienceHandler) Get(c echo.Context) error {
	exp, err := h.Service.GetExperience(c.Request().Context(), c.Param("id"))
	switch {
	case errors.Is(err, booking.ErrExperienceNotFound):
		return fail(c, http.StatusNotFound, "Experience not found")
	case err != nil:
		h.Log.Error("get experience failed", zap.String("id", c.Param("id")), zap.Error(err))
		return fail(c, http.StatusInternalServerError, "Failed to fetch experience")
	}
	return ok(c, http.StatusOK, exp)
}

// Availability handles GET /api/experiences/:id/availability?date=&time=.
// The result is a hint: it is computed without the slot lease.
func (h *ExperienceHandler) Availability(c echo.Context) error {
	date := strings.TrimSpace(c.QueryParam("date"))
	tm := strings.TrimSpace(c.QueryParam("time"))
	if date == "" || tm == "" {
		return fail(c, http.StatusBadRequest, "Date and time are required")
	}
	av, err := h.Service.CheckAvailability(c.Request().Context(), c.Param("id"), date, tm)
	if err != nil {
		h.Log.Error("check availability failed", zap.String("id", c.Param("id")), zap.Error(err))
		return fail(c, http.StatusInternalServerError, "Failed to check availability")
	}
	return ok(c, http.StatusOK, av)
}
