package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"easybake/internal/checkout"
	"easybake/internal/domain"
	applog "easybake/internal/log"
	"easybake/internal/pricing"
)

type CheckoutHandler struct {
	Currency string
}

type checkoutView struct {
	checkout.View
	Display map[string]string `json:"display"`
	Error   string            `json:"error,omitempty"`
}

func (h *CheckoutHandler) view(f *checkout.Flow) checkoutView {
	v := f.View()
	out := checkoutView{View: v, Display: map[string]string{
		"subtotal":     pricing.FormatMoney(h.Currency, v.Summary.Subtotal),
		"vat":          pricing.FormatMoney(h.Currency, v.Summary.VAT),
		"delivery_fee": pricing.FormatMoney(h.Currency, v.Summary.DeliveryFee),
		"total":        pricing.FormatMoney(h.Currency, v.Summary.Total),
	}}
	if v.Err != nil {
		out.Error = checkoutMessage(v.Err)
	}
	return out
}

func checkoutMessage(err error) string {
	switch {
	case errors.Is(err, checkout.ErrPaymentUnavailable):
		return "This payment method is not available yet."
	case errors.Is(err, checkout.ErrUnknownPayment):
		return "Please choose a payment method."
	case errors.Is(err, checkout.ErrUnknownAddress), errors.Is(err, checkout.ErrNoAddress):
		return "Please choose a delivery address."
	case errors.Is(err, checkout.ErrNotesTooLong):
		return "Notes may not exceed 500 characters."
	case errors.Is(err, checkout.ErrWrongStep):
		return "Please complete the previous step first."
	}
	var ae *checkout.AddressError
	if errors.As(err, &ae) {
		return "Please correct the highlighted fields."
	}
	return ""
}

// stepFail renders a checkout rule violation as 422 and anything else
// through the usual failure path.
func (h *CheckoutHandler) stepFail(c *fiber.Ctx, action string, err error) error {
	msg := checkoutMessage(err)
	if msg == "" {
		return fail(c, action, err)
	}
	body := envelope{Message: msg, Notices: drain(sessionOf(c))}
	var ae *checkout.AddressError
	if errors.As(err, &ae) {
		body.Errors = ae.Fields
	}
	return c.Status(fiber.StatusUnprocessableEntity).JSON(body)
}

func (h *CheckoutHandler) flow(c *fiber.Ctx) (*checkout.Flow, error) {
	if f, ok := sessionOf(c).Checkout(); ok {
		return f, nil
	}
	return sessionOf(c).BeginCheckout(c.UserContext())
}

// POST /bff/checkout starts over from the current cart.
func (h *CheckoutHandler) Begin(c *fiber.Ctx) error {
	f, err := sessionOf(c).BeginCheckout(c.UserContext())
	if err != nil {
		return fail(c, "checkout.begin", err)
	}
	return respond(c, h.view(f))
}

// GET /bff/checkout
func (h *CheckoutHandler) View(c *fiber.Ctx) error {
	f, err := h.flow(c)
	if err != nil {
		return fail(c, "checkout.view", err)
	}
	return respond(c, h.view(f))
}

// POST /bff/checkout/address takes either address_id or new_address.
func (h *CheckoutHandler) Address(c *fiber.Ctx) error {
	f, err := h.flow(c)
	if err != nil {
		return fail(c, "checkout.address", err)
	}
	var in struct {
		AddressID  *int64               `json:"address_id"`
		NewAddress *domain.AddressInput `json:"new_address"`
		Confirm    bool                 `json:"confirm"`
	}
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, map[string][]string{"address_id": {"Please choose a delivery address."}})
	}
	switch {
	case in.AddressID != nil && in.NewAddress != nil:
		return badRequest(c, map[string][]string{"address_id": {"Choose a saved address or enter a new one, not both."}})
	case in.AddressID != nil:
		err = f.SelectSaved(*in.AddressID)
	case in.NewAddress != nil:
		err = f.UseNewAddress(*in.NewAddress)
	}
	if err == nil && in.Confirm {
		err = f.ConfirmAddress()
	}
	if err != nil {
		return h.stepFail(c, "checkout.address", err)
	}
	return respond(c, h.view(f))
}

// POST /bff/checkout/payment
func (h *CheckoutHandler) Payment(c *fiber.Ctx) error {
	f, err := h.flow(c)
	if err != nil {
		return fail(c, "checkout.payment", err)
	}
	var in struct {
		Method string `json:"method"`
		Notes  string `json:"notes"`
	}
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, map[string][]string{"method": {"Please choose a payment method."}})
	}
	if err := f.SelectPayment(in.Method); err != nil {
		return h.stepFail(c, "checkout.payment", err)
	}
	if in.Notes != "" {
		if err := f.SetNotes(in.Notes); err != nil {
			return h.stepFail(c, "checkout.notes", err)
		}
	}
	return respond(c, h.view(f))
}

// POST /bff/checkout/notes
func (h *CheckoutHandler) Notes(c *fiber.Ctx) error {
	f, err := h.flow(c)
	if err != nil {
		return fail(c, "checkout.notes", err)
	}
	var in struct {
		Notes string `json:"notes"`
	}
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, map[string][]string{"notes": {"Please enter your notes."}})
	}
	if err := f.SetNotes(in.Notes); err != nil {
		return h.stepFail(c, "checkout.notes", err)
	}
	return respond(c, h.view(f))
}

// POST /bff/checkout/submit
func (h *CheckoutHandler) Submit(c *fiber.Ctx) error {
	s := sessionOf(c)
	f, ok := s.Checkout()
	if !ok {
		return h.stepFail(c, "checkout.submit", checkout.ErrWrongStep)
	}
	o, err := f.Submit(c.UserContext(), s.Mut)
	if errors.Is(err, checkout.ErrWrongStep) {
		return h.stepFail(c, "checkout.submit", err)
	}
	if err != nil {
		return fail(c, "checkout.submit", err)
	}
	s.EndCheckout()
	applog.Audit(c, "order.place", map[string]any{"order_id": o.ID, "order_number": o.OrderNumber, "total": pricing.Format(o.Total)})
	return respond(c, fiber.Map{"order": o, "redirect": "/orders/" + strconv.FormatInt(o.ID, 10)})
}
