package handlers

import (
	"github.com/gofiber/fiber/v2"

	"easybake/internal/backend/services"
	"easybake/internal/domain"
	applog "easybake/internal/log"
)

type OrderHandler struct {
	Orders *services.OrderService
}

func (h *OrderHandler) List(c *fiber.Ctx) error {
	page, err := h.Orders.List(userOf(c).ID, c.QueryInt("page", 1))
	if err != nil {
		return fail(c, "order.list", err)
	}
	return c.JSON(page)
}

func (h *OrderHandler) View(c *fiber.Ctx) error {
	oid, found := id(c, "id")
	if !found {
		return nil
	}
	o, err := h.Orders.Get(userOf(c).ID, oid)
	if err != nil {
		return fail(c, "order.view", err)
	}
	return ok(c, fiber.StatusOK, o, "")
}

func (h *OrderHandler) Place(c *fiber.Ctx) error {
	var in domain.PlaceOrder
	if !body(c, &in) {
		return nil
	}
	u := userOf(c)
	o, err := h.Orders.Place(u.ID, in, localeOf(c))
	if err != nil {
		return fail(c, "order.place", err)
	}
	applog.Audit(c, "order.placed", map[string]any{"user_id": u.ID, "order": o.OrderNumber, "total": o.Total.StringFixed(3)})
	return ok(c, fiber.StatusCreated, o, "Order placed successfully.")
}

func (h *OrderHandler) Cancel(c *fiber.Ctx) error {
	oid, found := id(c, "id")
	if !found {
		return nil
	}
	u := userOf(c)
	o, err := h.Orders.Cancel(u.ID, oid)
	if err != nil {
		return fail(c, "order.cancel", err)
	}
	applog.Audit(c, "order.cancelled", map[string]any{"user_id": u.ID, "order": o.OrderNumber})
	return ok(c, fiber.StatusOK, o, "Order cancelled.")
}
