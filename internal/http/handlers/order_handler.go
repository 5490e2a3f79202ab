package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "easybake/internal/log"
	"easybake/internal/queries"
)

type OrderHandler struct{}

// GET /bff/orders
func (h *OrderHandler) List(c *fiber.Ctx) error {
	s := sessionOf(c)
	res := queries.Run(c.UserContext(), s.Store, s.Notices, queries.Orders(s.API(), c.QueryInt("page", 1)))
	if res.Err != nil {
		return fail(c, "orders.list", res.Err)
	}
	return respond(c, res.Data)
}

// GET /bff/orders/:id
func (h *OrderHandler) View(c *fiber.Ctx) error {
	s := sessionOf(c)
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return fiber.ErrNotFound
	}
	res := queries.Run(c.UserContext(), s.Store, s.Notices, queries.Order(s.API(), int64(id)))
	if res.Err != nil {
		return fail(c, "orders.view", res.Err)
	}
	o := res.Data
	return respond(c, fiber.Map{"order": o, "cancellable": o.Status.Cancellable()})
}

// POST /bff/orders/:id/cancel
func (h *OrderHandler) Cancel(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return fiber.ErrNotFound
	}
	o, err := sessionOf(c).Mut.CancelOrder(c.UserContext(), int64(id))
	if err != nil {
		return fail(c, "orders.cancel", err)
	}
	applog.Audit(c, "orders.cancel", map[string]any{"order_id": id})
	return respond(c, o)
}
