package handlers

import (
	"github.com/gofiber/fiber/v2"

	"easybake/internal/backend/services"
	"easybake/internal/domain"
)

// AccountHandler serves addresses and the wishlist. Every route requires a user.
type AccountHandler struct {
	Account *services.AccountService
}

func (h *AccountHandler) Addresses(c *fiber.Ctx) error {
	list, err := h.Account.Addresses(userOf(c).ID)
	if err != nil {
		return fail(c, "address.list", err)
	}
	return ok(c, fiber.StatusOK, list, "")
}

func (h *AccountHandler) CreateAddress(c *fiber.Ctx) error {
	var in domain.AddressInput
	if !body(c, &in) {
		return nil
	}
	a, err := h.Account.CreateAddress(userOf(c).ID, in)
	if err != nil {
		return fail(c, "address.create", err)
	}
	return ok(c, fiber.StatusCreated, a, "Address saved.")
}

func (h *AccountHandler) SetDefault(c *fiber.Ctx) error {
	aid, found := id(c, "id")
	if !found {
		return nil
	}
	a, err := h.Account.SetDefaultAddress(userOf(c).ID, aid)
	if err != nil {
		return fail(c, "address.default", err)
	}
	return ok(c, fiber.StatusOK, a, "Default address updated.")
}

func (h *AccountHandler) DeleteAddress(c *fiber.Ctx) error {
	aid, found := id(c, "id")
	if !found {
		return nil
	}
	if err := h.Account.DeleteAddress(userOf(c).ID, aid); err != nil {
		return fail(c, "address.delete", err)
	}
	return ok(c, fiber.StatusOK, nil, "Address deleted.")
}

func (h *AccountHandler) Wishlist(c *fiber.Ctx) error {
	items, err := h.Account.Wishlist(userOf(c).ID, localeOf(c))
	if err != nil {
		return fail(c, "wishlist.list", err)
	}
	return ok(c, fiber.StatusOK, items, "")
}

func (h *AccountHandler) ToggleWishlist(c *fiber.Ctx) error {
	pid, found := id(c, "id")
	if !found {
		return nil
	}
	t, err := h.Account.ToggleWishlist(userOf(c).ID, pid)
	if err != nil {
		return fail(c, "wishlist.toggle", err)
	}
	msg := "Removed from wishlist."
	if t.InWishlist {
		msg = "Added to wishlist."
	}
	return ok(c, fiber.StatusOK, t, msg)
}
