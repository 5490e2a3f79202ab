package handlers

import (
	"github.com/gofiber/fiber/v2"

	"easybake/internal/backend/services"
	"easybake/internal/domain"
	applog "easybake/internal/log"
)

type CartHandler struct {
	Auth    *services.AuthService
	Cart    *services.CartService
	cookies cookies
}

func (h *CartHandler) View(c *fiber.Ctx) error {
	o, err := owner(c, h.Auth, h.cookies, false)
	if err != nil {
		return fail(c, "cart.view", err)
	}
	cart, err := h.Cart.View(o, localeOf(c))
	if err != nil {
		return fail(c, "cart.view", err)
	}
	return ok(c, fiber.StatusOK, cart, "")
}

func (h *CartHandler) Add(c *fiber.Ctx) error {
	var in domain.AddCartItem
	if !body(c, &in) {
		return nil
	}
	o, err := owner(c, h.Auth, h.cookies, true)
	if err != nil {
		return fail(c, "cart.add", err)
	}
	cart, err := h.Cart.Add(o, in, localeOf(c))
	if err != nil {
		return fail(c, "cart.add", err)
	}
	applog.Audit(c, "cart.add", map[string]any{"product": in.ProductID, "qty": in.Quantity})
	return ok(c, fiber.StatusOK, cart, "Item added to cart.")
}

func (h *CartHandler) Update(c *fiber.Ctx) error {
	itemID, found := id(c, "id")
	if !found {
		return nil
	}
	var in struct {
		Quantity int `json:"quantity"`
	}
	if !body(c, &in) {
		return nil
	}
	o, err := owner(c, h.Auth, h.cookies, false)
	if err != nil {
		return fail(c, "cart.update", err)
	}
	cart, err := h.Cart.Update(o, itemID, in.Quantity, localeOf(c))
	if err != nil {
		return fail(c, "cart.update", err)
	}
	return ok(c, fiber.StatusOK, cart, "Cart updated.")
}

func (h *CartHandler) Remove(c *fiber.Ctx) error {
	itemID, found := id(c, "id")
	if !found {
		return nil
	}
	o, err := owner(c, h.Auth, h.cookies, false)
	if err != nil {
		return fail(c, "cart.remove", err)
	}
	cart, err := h.Cart.Remove(o, itemID, localeOf(c))
	if err != nil {
		return fail(c, "cart.remove", err)
	}
	return ok(c, fiber.StatusOK, cart, "Item removed from cart.")
}

func (h *CartHandler) Clear(c *fiber.Ctx) error {
	o, err := owner(c, h.Auth, h.cookies, false)
	if err != nil {
		return fail(c, "cart.clear", err)
	}
	if err := h.Cart.Clear(o); err != nil {
		return fail(c, "cart.clear", err)
	}
	return ok(c, fiber.StatusOK, nil, "Cart cleared.")
}
