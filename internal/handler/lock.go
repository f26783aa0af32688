package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// LockHandler reports on active slot leases.
type LockHandler struct {
	Service BookingService
	Log     *zap.Logger
}

// NewLockHandler constructs a LockHandler.
func NewLockHandler(svc BookingService, log *zap.Logger) *LockHandler {
	return &LockHandler{Service: svc, Log: log}
}

// Metrics handles GET /api/locks/metrics.
func (h *LockHandler) Metrics(c echo.Context) error {
	m, err := h.Service.LockMetrics(c.Request().Context())
	if err != nil {
		h.Log.Error("load lock metrics failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "Failed to fetch lock metrics")
	}
	return ok(c, http.StatusOK, m)
}
