package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"storefront/internal/domain"
	applog "storefront/internal/log"
	"storefront/internal/services"
)

func bearerToken(c *fiber.Ctx) string {
	h := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// RequireAdmin rejects requests without a live admin bearer token.
func RequireAdmin(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tok := bearerToken(c)
		if tok == "" {
			applog.Security(c, "access.denied.admin", map[string]any{"reason": "missing_token"})
			return fail(c, fiber.StatusUnauthorized, "Unauthorized")
		}
		a, err := auth.Authenticate(c.UserContext(), tok)
		if err != nil || a == nil {
			applog.Security(c, "access.denied.admin", map[string]any{"reason": "invalid_token"})
			return fail(c, fiber.StatusUnauthorized, "Unauthorized")
		}
		c.Locals("admin", a)
		c.Locals("admin_id", a.ID)
		c.Locals("token", tok)
		return c.Next()
	}
}

func currentAdmin(c *fiber.Ctx) *domain.Admin {
	a, _ := c.Locals("admin").(*domain.Admin)
	return a
}
