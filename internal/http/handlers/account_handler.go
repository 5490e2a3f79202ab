package handlers

import (
	"github.com/gofiber/fiber/v2"

	"easybake/internal/domain"
	"easybake/internal/queries"
)

type AccountHandler struct{}

// GET /bff/addresses
func (h *AccountHandler) Addresses(c *fiber.Ctx) error {
	s := sessionOf(c)
	res := queries.Run(c.UserContext(), s.Store, s.Notices, queries.Addresses(s.API()))
	if res.Err != nil {
		return fail(c, "addresses.list", res.Err)
	}
	return respond(c, res.Data)
}

// POST /bff/addresses
func (h *AccountHandler) CreateAddress(c *fiber.Ctx) error {
	s := sessionOf(c)
	var in domain.AddressInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, map[string][]string{"recipient_name": {"Please fill in the address form."}})
	}
	a, err := s.Mut.CreateAddress(c.UserContext(), in)
	if err != nil {
		return fail(c, "addresses.create", err)
	}
	return c.Status(fiber.StatusCreated).JSON(envelope{Success: true, Data: a, Notices: drain(s)})
}

// PUT /bff/addresses/:id/default
func (h *AccountHandler) SetDefault(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return fiber.ErrNotFound
	}
	a, err := sessionOf(c).Mut.SetDefaultAddress(c.UserContext(), int64(id))
	if err != nil {
		return fail(c, "addresses.default", err)
	}
	return respond(c, a)
}

// DELETE /bff/addresses/:id
func (h *AccountHandler) DeleteAddress(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return fiber.ErrNotFound
	}
	if err := sessionOf(c).Mut.DeleteAddress(c.UserContext(), int64(id)); err != nil {
		return fail(c, "addresses.delete", err)
	}
	return respond(c, nil)
}

// GET /bff/wishlist
func (h *AccountHandler) Wishlist(c *fiber.Ctx) error {
	s := sessionOf(c)
	res := queries.Run(c.UserContext(), s.Store, s.Notices, queries.Wishlist(s.API()))
	if res.Err != nil {
		return fail(c, "wishlist.list", res.Err)
	}
	return respond(c, res.Data)
}

// POST /bff/wishlist/:productId
func (h *AccountHandler) ToggleWishlist(c *fiber.Ctx) error {
	id, err := c.ParamsInt("productId")
	if err != nil || id <= 0 {
		return fiber.ErrNotFound
	}
	res, err := sessionOf(c).Mut.ToggleWishlist(c.UserContext(), int64(id))
	if err != nil {
		return fail(c, "wishlist.toggle", err)
	}
	return respond(c, res)
}
