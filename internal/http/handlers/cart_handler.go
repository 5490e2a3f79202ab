package handlers

import (
	"github.com/gofiber/fiber/v2"

	"easybake/internal/domain"
	"easybake/internal/pricing"
	"easybake/internal/queries"
)

type CartHandler struct {
	Currency string
}

type cartView struct {
	domain.Cart
	Display map[string]string `json:"display"`
}

func (h *CartHandler) view(cart domain.Cart) cartView {
	return cartView{Cart: cart, Display: map[string]string{
		"subtotal": pricing.FormatMoney(h.Currency, cart.Subtotal),
		"vat":      pricing.FormatMoney(h.Currency, cart.VAT),
		"total":    pricing.FormatMoney(h.Currency, cart.Total),
	}}
}

// GET /bff/cart
func (h *CartHandler) View(c *fiber.Ctx) error {
	s := sessionOf(c)
	res := s.Cart(c.UserContext())
	if res.Err != nil {
		return fail(c, "cart.view", res.Err)
	}
	return respond(c, h.view(res.Data))
}

// POST /bff/cart
func (h *CartHandler) Add(c *fiber.Ctx) error {
	s := sessionOf(c)
	var in domain.AddCartItem
	if err := c.BodyParser(&in); err != nil || in.ProductID <= 0 {
		return badRequest(c, map[string][]string{"product_id": {"Please choose a product."}})
	}
	if in.Quantity == 0 {
		in.Quantity = 1
	}
	// The cached product lets the new line render before the backend answers.
	var hint *domain.Product
	if p := s.Store.Peek(queries.ProductKey(localeOf(c), in.ProductID)); p.HasValue {
		if prod, ok := p.Value.(domain.Product); ok {
			hint = &prod
		}
	}
	cart, err := s.Mut.AddToCart(c.UserContext(), in, hint)
	if err != nil {
		return fail(c, "cart.add", err)
	}
	return respond(c, h.view(cart))
}

// PUT /bff/cart/items/:id
func (h *CartHandler) Update(c *fiber.Ctx) error {
	s := sessionOf(c)
	id, err := c.ParamsInt("id")
	if err != nil {
		return fiber.ErrNotFound
	}
	var in struct {
		Quantity int `json:"quantity"`
	}
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, map[string][]string{"quantity": {"Please enter a quantity."}})
	}
	cart, err := s.Mut.UpdateCartItem(c.UserContext(), int64(id), in.Quantity)
	if err != nil {
		return fail(c, "cart.update", err)
	}
	return respond(c, h.view(cart))
}

// DELETE /bff/cart/items/:id
func (h *CartHandler) Remove(c *fiber.Ctx) error {
	s := sessionOf(c)
	id, err := c.ParamsInt("id")
	if err != nil {
		return fiber.ErrNotFound
	}
	cart, err := s.Mut.RemoveCartItem(c.UserContext(), int64(id))
	if err != nil {
		return fail(c, "cart.remove", err)
	}
	return respond(c, h.view(cart))
}

// DELETE /bff/cart
func (h *CartHandler) Clear(c *fiber.Ctx) error {
	if err := sessionOf(c).Mut.ClearCart(c.UserContext()); err != nil {
		return fail(c, "cart.clear", err)
	}
	return respond(c, nil)
}
