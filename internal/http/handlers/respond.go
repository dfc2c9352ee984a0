package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	applog "storefront/internal/log"
	"storefront/internal/services"
)

func ok(c *fiber.Ctx, status int, key string, v any) error {
	return c.Status(status).JSON(fiber.Map{"success": true, key: v})
}

func fail(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

// respondErr maps service errors onto status codes and user-facing messages.
// Anything unrecognised is logged and reported generically.
func respondErr(c *fiber.Ctx, action string, err error) error {
	var (
		ve *services.ValidationError
		nf *services.ProductNotFoundError
		is *services.InsufficientStockError
		dp *services.DuplicatePaymentError
	)
	switch {
	case errors.As(err, &ve):
		applog.Security(c, "validation.fail", map[string]any{"action": action, "field": ve.Field})
		return fail(c, fiber.StatusBadRequest, ve.Error())
	case errors.As(err, &nf):
		return fail(c, fiber.StatusNotFound, nf.Error())
	case errors.As(err, &is):
		return fail(c, fiber.StatusBadRequest, is.Error())
	case errors.As(err, &dp):
		return fail(c, fiber.StatusConflict, dp.Error())
	case errors.Is(err, services.ErrStorageConflict):
		applog.Error(c, action+".conflict", err, nil)
		return fail(c, fiber.StatusConflict, "The item was just updated by another order. Please try again.")
	case errors.Is(err, services.ErrStorageUnavailable), errors.Is(err, context.DeadlineExceeded):
		applog.Error(c, action+".unavailable", err, nil)
		return fail(c, fiber.StatusServiceUnavailable, "Service temporarily unavailable. Please try again.")
	case errors.Is(err, services.ErrUnauthorized), errors.Is(err, services.ErrBadCreds):
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	applog.Error(c, action+".fail", err, nil)
	return fail(c, fiber.StatusInternalServerError, "Something went wrong. Please try again.")
}

// ErrorHandler is the app-wide fallback; it never leaks error text.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) && fe.Code < fiber.StatusInternalServerError {
		return fail(c, fe.Code, fe.Message)
	}
	applog.Error(c, "server.error", err, nil)
	return fail(c, fiber.StatusInternalServerError, "Something went wrong. Please try again.")
}
