package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	applog "storefront/internal/log"
)

const bodyLimit = 1 << 20 // 1 MiB

// Limits groups the request budgets. Zero values fall back to the defaults.
type Limits struct {
	Global int
	Login  int
	Orders int
	// Shared limiter state; nil keeps counters in process memory.
	Storage fiber.Storage
}

func (l Limits) withDefaults() Limits {
	if l.Global <= 0 {
		l.Global = 120
	}
	if l.Login <= 0 {
		l.Login = 5
	}
	if l.Orders <= 0 {
		l.Orders = 20
	}
	return l
}

// NewApp builds the Fiber app with middleware and every route mounted.
func NewApp(d *Deps, lim Limits) *fiber.App {
	lim = lim.withDefaults()

	app := fiber.New(fiber.Config{
		BodyLimit:    bodyLimit,
		ErrorHandler: ErrorHandler,
	})

	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	app.Use(limiter.New(limiter.Config{
		Max:        lim.Global,
		Expiration: time.Minute,
		Storage:    lim.Storage,
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == "/healthz"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.global.hit", nil)
			return fail(c, fiber.StatusTooManyRequests, "rate limit exceeded, retry soon")
		},
	}))

	api := app.Group("/api")

	// Catalog
	api.Get("/products", d.ProductHandler.List)
	api.Get("/products/:id", d.ProductHandler.Detail)
	api.Post("/products", RequireAdmin(d.Auth), d.ProductHandler.Create)
	api.Put("/products/:id", RequireAdmin(d.Auth), d.ProductHandler.Update)

	// Orders
	api.Post("/orders", limiter.New(limiter.Config{
		Max:        lim.Orders,
		Expiration: time.Minute,
		Storage:    lim.Storage,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|orders"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.orders.hit", nil)
			return fail(c, fiber.StatusTooManyRequests, "rate limit exceeded, retry soon")
		},
	}), d.OrderHandler.Place)
	api.Get("/orders", RequireAdmin(d.Auth), d.OrderHandler.List)
	api.Get("/orders/:id", RequireAdmin(d.Auth), d.OrderHandler.Get)

	api.Get("/analytics", RequireAdmin(d.Auth), d.AnalyticsHandler.Dashboard)

	// Auth (login throttled)
	api.Post("/auth/init", d.AuthHandler.Init)
	api.Post("/auth/login", limiter.New(limiter.Config{
		Max:        lim.Login,
		Expiration: 10 * time.Minute,
		Storage:    lim.Storage,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|login"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return fail(c, fiber.StatusTooManyRequests, "Too many attempts. Please try again later.")
		},
	}), d.AuthHandler.Login)
	api.Post("/auth/logout", RequireAdmin(d.Auth), d.AuthHandler.Logout)

	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Use(func(c *fiber.Ctx) error {
		return fail(c, fiber.StatusNotFound, "Not found")
	})
	return app
}
