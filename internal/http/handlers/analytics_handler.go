package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "storefront/internal/log"
	"storefront/internal/services"
)

type AnalyticsHandler struct {
	Analytics *services.AnalyticsService
}

// GET /api/analytics
func (h *AnalyticsHandler) Dashboard(c *fiber.Ctx) error {
	a, err := h.Analytics.Compute(c.UserContext())
	if err != nil {
		applog.Error(c, "analytics.compute", err, nil)
		return fail(c, fiber.StatusInternalServerError, "Failed to fetch analytics")
	}
	applog.Audit(c, "analytics.view", nil)
	return ok(c, fiber.StatusOK, "analytics", a)
}
