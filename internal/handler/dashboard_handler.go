package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"finhub/internal/service"
)

// DashboardHandler serves company statistics.
type DashboardHandler struct {
	dashboard service.DashboardService
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(dashboard service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// Stats godoc
// @Summary Company totals
// @Tags dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.Stats
// @Failure 401 {object} errors.ErrorResponse
// @Router /dashboard/stats [get]
func (h *DashboardHandler) Stats(c echo.Context) error {
	stats, err := h.dashboard.Stats(c.Request().Context(), callerFrom(c))
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, stats)
}
