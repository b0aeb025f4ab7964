package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"cafe-pos-backend/internal/gateway"
	"cafe-pos-backend/internal/middleware"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login exchanges the staff credentials for a bearer token.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.App().Config().JSONDecoder(c.Body(), &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(gateway.Envelope{
			Status: gateway.StatusError, Code: gateway.CodeBadRequest, Message: "Invalid request body",
		})
	}

	token, err := h.auth.Login(req.Username, req.Password)
	switch {
	case errors.Is(err, middleware.ErrAuthDisabled):
		return c.Status(fiber.StatusNotFound).JSON(gateway.Envelope{
			Status: gateway.StatusError, Code: gateway.CodeNotFound, Message: err.Error(),
		})
	case err != nil:
		h.log.WithField("username", req.Username).Warn("Staff login failed")
		return c.Status(fiber.StatusUnauthorized).JSON(gateway.Envelope{
			Status: gateway.StatusError, Code: gateway.CodeUnauthorized, Message: "Invalid credentials",
		})
	}

	h.log.WithField("username", req.Username).Info("Staff logged in")
	return c.JSON(fiber.Map{
		"token": token,
		"role":  middleware.RoleStaff,
	})
}

// GetProfile returns who the token belongs to.
func (h *Handler) GetProfile(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"username": middleware.Username(c),
		"staff":    middleware.IsStaff(c),
	})
}
