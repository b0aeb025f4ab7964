package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"cafe-pos-backend/internal/gateway"
	"cafe-pos-backend/internal/middleware"
)

type Handler struct {
	gw   *gateway.Gateway
	auth *middleware.StaffAuth
	log  logrus.FieldLogger
}

func New(gw *gateway.Gateway, auth *middleware.StaffAuth, log logrus.FieldLogger) *Handler {
	return &Handler{gw: gw, auth: auth, log: log}
}

func caller(c *fiber.Ctx) gateway.Caller {
	return gateway.Caller{Staff: middleware.IsStaff(c)}
}

// fail writes the error envelope for err.
func (h *Handler) fail(c *fiber.Ctx, action string, err error) error {
	status, env := gateway.Describe(err)
	entry := h.log.WithFields(logrus.Fields{"action": action, "status": status, "code": env.Code})
	if status >= fiber.StatusInternalServerError && status != fiber.StatusServiceUnavailable {
		entry.WithError(err).Error("Request failed")
	} else {
		entry.WithError(err).Warn("Request rejected")
	}
	return c.Status(status).JSON(env)
}

// ExecGet serves read actions from query parameters.
func (h *Handler) ExecGet(c *fiber.Ctx) error {
	req := gateway.Request{
		Action: c.Query("action"),
		ID:     c.Query("id"),
		Status: c.Query("status"),
		Period: c.Query("period"),
	}
	if a, err := gateway.ParseAction(req.Action); err == nil && a.Mutates() {
		return c.Status(fiber.StatusMethodNotAllowed).JSON(gateway.Envelope{
			Status:  gateway.StatusError,
			Code:    gateway.CodeBadRequest,
			Message: "write actions must use POST",
		})
	}

	res, err := h.gw.Dispatch(c.UserContext(), req, caller(c))
	if err != nil {
		return h.fail(c, req.Action, err)
	}
	return c.JSON(res)
}

// ExecPost serves every action from a JSON body. The body is decoded
// regardless of Content-Type because browser clients post it as text/plain
// to skip the CORS preflight.
func (h *Handler) ExecPost(c *fiber.Ctx) error {
	var req gateway.Request
	if err := c.App().Config().JSONDecoder(c.Body(), &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(gateway.Envelope{
			Status:  gateway.StatusError,
			Code:    gateway.CodeBadRequest,
			Message: "Invalid request body",
			Details: err.Error(),
		})
	}

	res, err := h.gw.Dispatch(c.UserContext(), req, caller(c))
	if err != nil {
		return h.fail(c, req.Action, err)
	}
	return c.JSON(res)
}

func Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "Running", "message": "API Ready"})
}
