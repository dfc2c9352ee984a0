package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"storefront/internal/log"
	"storefront/internal/services"
	"storefront/internal/validate"
)

type AuthHandler struct {
	Auth *services.AuthService
	// Bootstrap credentials used by Init.
	AdminEmail    string
	AdminPassword string
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// POST /api/auth/init
func (h *AuthHandler) Init(c *fiber.Ctx) error {
	a, created, err := h.Auth.Init(c.UserContext(), h.AdminEmail, h.AdminPassword)
	if err != nil {
		return respondErr(c, "auth.init", err)
	}
	if !created {
		return c.JSON(fiber.Map{"message": "Admin already exists", "email": a.Email})
	}
	log.Audit(c, "auth.init", map[string]any{"email": a.Email})
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Admin account created successfully",
		"admin":   a,
	})
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Email and password are required")
	}
	if req.Email == "" || req.Password == "" {
		return fail(c, fiber.StatusBadRequest, "Email and password are required")
	}
	email, ok := validate.Email(req.Email)
	if !ok || !validate.Password(req.Password) {
		log.Security(c, "auth.login.fail", map[string]any{"email": req.Email, "reason": "bad_format"})
		return fail(c, fiber.StatusUnauthorized, "Invalid credentials")
	}

	token, a, err := h.Auth.Login(c.UserContext(), email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrBadCreds) {
			log.Security(c, "auth.login.fail", map[string]any{"email": email})
			return fail(c, fiber.StatusUnauthorized, "Invalid credentials")
		}
		return respondErr(c, "auth.login", err)
	}

	log.Audit(c, "auth.login.success", map[string]any{"email": email})
	return c.JSON(fiber.Map{"success": true, "token": token, "admin": a})
}

// POST /api/auth/logout
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	tok, _ := c.Locals("token").(string)
	if err := h.Auth.Logout(c.UserContext(), tok); err != nil {
		return respondErr(c, "auth.logout", err)
	}
	fields := map[string]any{}
	if a := currentAdmin(c); a != nil {
		fields["email"] = a.Email
	}
	log.Audit(c, "auth.logout", fields)
	return c.JSON(fiber.Map{"success": true})
}
