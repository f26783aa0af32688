package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/bookit/internal/booking"
)

// PromoCodeHandler validates promo codes at checkout.
type PromoCodeHandler struct {
	Service BookingService
	Log     *zap.Logger
}

// NewPromoCodeHandler constructs a PromoCodeHandler.
func NewPromoCodeHandler(svc BookingService, log *zap.Logger) *PromoCodeHandler {
	return &PromoCodeHandler{Service: svc, Log: log}
}

// Validate handles GET /api/promo-codes/validate/:code.
func (h *PromoCodeHandler) Validate(c echo.Context) error {
	code := strings.TrimSpace(c.Param("code"))
	if code == "" {
		return fail(c, http.StatusBadRequest, "Promo code is required")
	}
	pc, err := h.Service.ValidatePromoCode(c.Request().Context(), code)
	switch {
	case errors.Is(err, booking.ErrPromoCodeNotFound):
		return fail(c, http.StatusNotFound, "Invalid promo code")
	case errors.Is(err, booking.ErrPromoCodeInactive):
		return fail(c, http.StatusBadRequest, "This promo code is no longer active")
	case errors.Is(err, booking.ErrPromoCodeExpired):
		return fail(c, http.StatusBadRequest, "This promo code has expired")
	case err != nil:
		h.Log.Error("validate promo code failed", zap.String("code", code), zap.Error(err))
		return fail(c, http.StatusInternalServerError, "Failed to validate promo code")
	}
	return ok(c, http.StatusOK, echo.Map{
		"code":     pc.Code,
		"discount": pc.Discount,
		"isActive": pc.IsActive,
	})
}
