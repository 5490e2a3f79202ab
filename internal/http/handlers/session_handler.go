package handlers

import "github.com/gofiber/fiber/v2"

type SessionHandler struct{}

// GET /bff/session is what every page loads first: who is signed in, the
// cart badge and the panel flags.
func (h *SessionHandler) State(c *fiber.Ctx) error {
	s := sessionOf(c)
	ctx := c.UserContext()
	user := s.User(ctx)
	count := 0
	if cart := s.Cart(ctx); cart.Err == nil {
		count = cart.Data.ItemsCount
	}
	return respond(c, fiber.Map{
		"user":       user.Data,
		"signed_in":  user.Data != nil,
		"locale":     localeOf(c),
		"cart_count": count,
		"ui":         s.UI.Snapshot(),
	})
}

// POST /bff/ui/:action
func (h *SessionHandler) UI(c *fiber.Ctx) error {
	s := sessionOf(c)
	if !s.UI.Apply(c.Params("action")) {
		return fiber.ErrNotFound
	}
	return respond(c, fiber.Map{"ui": s.UI.Snapshot()})
}
