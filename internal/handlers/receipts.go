package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"cafe-pos-backend/internal/models"
	"cafe-pos-backend/internal/pricing"
	"cafe-pos-backend/internal/store"
)

// ShopName is printed on receipts.
var ShopName = "Coffee Corner"

// templateFuncs are registered on the HTML engine.
var templateFuncs = map[string]interface{}{
	"money": func(v float64) string {
		return "฿" + models.FormatAmount(v)
	},
	"lineTotal": func(unit float64, qty int) float64 {
		return pricing.LineTotal(unit, qty).InexactFloat64()
	},
	"time": func(ms int64) string {
		return time.UnixMilli(ms).Format("02 Jan 2006 15:04")
	},
}

// Receipt renders a printable receipt for one order.
func (h *Handler) Receipt(c *fiber.Ctx) error {
	id := c.Params("id")
	o, err := h.gw.Order(c.UserContext(), id)
	if errors.Is(err, store.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).SendString("Order not found")
	}
	if err != nil {
		h.log.WithError(err).WithField("order", id).Error("Receipt lookup failed")
		return c.Status(fiber.StatusInternalServerError).SendString("Could not load order")
	}

	return c.Render("receipt", fiber.Map{
		"ShopName": ShopName,
		"Order":    o,
	})
}
