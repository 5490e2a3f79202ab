// Package checkout drives the checkout steps: delivery address, payment
// method, review and order submission.
package checkout

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"

	"easybake/internal/domain"
	applog "easybake/internal/log"
	"easybake/internal/pricing"
	"easybake/internal/validate"
)

type State int

const (
	StateSelectingAddress State = iota
	StateSelectingPayment
	StateReviewing
	StateSubmitting
	StateSucceeded
)

func (s State) String() string {
	switch s {
	case StateSelectingPayment:
		return "selecting-payment"
	case StateReviewing:
		return "reviewing"
	case StateSubmitting:
		return "submitting"
	case StateSucceeded:
		return "succeeded"
	}
	return "selecting-address"
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

const (
	PaymentCashOnDelivery = "cash_on_delivery"
	PaymentCard           = "card"
	PaymentBenefitPay     = "benefit_pay"
)

type PaymentMethod struct {
	Code      string `json:"code"`
	Available bool   `json:"available"`
}

// PaymentMethods lists what the checkout page shows. Only cash on delivery
// can be chosen for now.
var PaymentMethods = []PaymentMethod{
	{Code: PaymentCashOnDelivery, Available: true},
	{Code: PaymentCard},
	{Code: PaymentBenefitPay},
}

var (
	ErrPaymentUnavailable = errors.New("checkout: payment method not available")
	ErrUnknownPayment     = errors.New("checkout: unknown payment method")
	ErrUnknownAddress     = errors.New("checkout: address not found")
	ErrNoAddress          = errors.New("checkout: no delivery address selected")
	ErrNotesTooLong       = errors.New("checkout: notes exceed 500 characters")
	ErrWrongStep          = errors.New("checkout: action not allowed in this step")
)

// GuardError means the customer cannot be in checkout and should be sent to
// Location instead.
type GuardError struct {
	Location string
	Reason   string
}

func (e *GuardError) Error() string { return "checkout: " + e.Reason }

const (
	LoginLocation = "/login?redirect=/checkout"
	CartLocation  = "/cart"
)

// OrderPlacer submits the order. mutations.Mutations implements it.
type OrderPlacer interface {
	CreateOrder(ctx context.Context, in domain.PlaceOrder) (domain.Order, error)
}

type Option func(*Flow)

func WithVATRate(r decimal.Decimal) Option     { return func(f *Flow) { f.vat = r } }
func WithDeliveryFee(d decimal.Decimal) Option { return func(f *Flow) { f.delivery = d } }

type Flow struct {
	mu sync.Mutex

	state     State
	cart      domain.Cart
	addresses []domain.Address
	savedID   *int64
	newAddr   *domain.AddressInput
	payment   string
	notes     string
	order     *domain.Order
	err       error

	vat      decimal.Decimal
	delivery decimal.Decimal
}

// Begin enters checkout for user with the current cart and saved addresses.
// The default address is preselected, else the first one.
func Begin(user *domain.User, cart domain.Cart, addresses []domain.Address, opts ...Option) (*Flow, error) {
	if user == nil {
		return nil, &GuardError{Location: LoginLocation, Reason: "sign in required"}
	}
	if cart.Empty() {
		return nil, &GuardError{Location: CartLocation, Reason: "cart is empty"}
	}
	f := &Flow{
		cart:      cart.Clone(),
		addresses: append([]domain.Address(nil), addresses...),
		vat:       pricing.DefaultVATRate,
	}
	for _, o := range opts {
		o(f)
	}
	if a, ok := DefaultAddress(addresses); ok {
		id := a.ID
		f.savedID = &id
	}
	return f, nil
}

// DefaultAddress picks the address flagged default, else the first one.
func DefaultAddress(addresses []domain.Address) (domain.Address, bool) {
	for _, a := range addresses {
		if a.IsDefault {
			return a, true
		}
	}
	if len(addresses) > 0 {
		return addresses[0], true
	}
	return domain.Address{}, false
}

func (f *Flow) editable() bool {
	return f.state != StateSubmitting && f.state != StateSucceeded
}

// SelectSaved chooses a saved address and discards any new-address form.
func (f *Flow) SelectSaved(id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.editable() {
		return ErrWrongStep
	}
	for _, a := range f.addresses {
		if a.ID == id {
			f.savedID = &id
			f.newAddr = nil
			f.state = StateSelectingAddress
			return nil
		}
	}
	return ErrUnknownAddress
}

// UseNewAddress switches to a new address and clears the saved selection.
func (f *Flow) UseNewAddress(in domain.AddressInput) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.editable() {
		return ErrWrongStep
	}
	f.newAddr = &in
	f.savedID = nil
	f.state = StateSelectingAddress
	return nil
}

// ConfirmAddress moves on to payment once an address is selected. A new
// address must pass the form validation.
func (f *Flow) ConfirmAddress() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.editable() {
		return ErrWrongStep
	}
	switch {
	case f.savedID != nil:
	case f.newAddr != nil:
		in := *f.newAddr
		if errs := validate.Address(&in); !errs.Empty() {
			return &AddressError{Fields: errs}
		}
		f.newAddr = &in
	default:
		return ErrNoAddress
	}
	f.state = StateSelectingPayment
	return nil
}

// AddressError carries per-field problems of the new-address form.
type AddressError struct {
	Fields map[string][]string
}

func (e *AddressError) Error() string { return "checkout: address form has errors" }

func (f *Flow) SelectPayment(code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != StateSelectingPayment && f.state != StateReviewing {
		return ErrWrongStep
	}
	for _, m := range PaymentMethods {
		if m.Code != code {
			continue
		}
		if !m.Available {
			return ErrPaymentUnavailable
		}
		f.payment = code
		f.state = StateReviewing
		return nil
	}
	return ErrUnknownPayment
}

func (f *Flow) SetNotes(notes string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.editable() {
		return ErrWrongStep
	}
	if !validate.Notes(notes) {
		return ErrNotesTooLong
	}
	f.notes = notes
	return nil
}

// Summary prices the cart snapshot taken when checkout began.
func (f *Flow) Summary() pricing.Summary {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.summary()
}

func (f *Flow) summary() pricing.Summary {
	return pricing.Calculate(pricing.CartLines(f.cart.Items),
		pricing.WithVATRate(f.vat), pricing.WithDeliveryFee(f.delivery))
}

func (f *Flow) placeOrder() domain.PlaceOrder {
	in := domain.PlaceOrder{PaymentMethod: f.payment, Notes: f.notes}
	if f.savedID != nil {
		id := *f.savedID
		in.AddressID = &id
	} else if f.newAddr != nil {
		a := *f.newAddr
		in.ShippingAddress = &a
	}
	return in
}

// Submit places the order. On failure the flow returns to review with the
// error kept and every choice, notes included, preserved.
func (f *Flow) Submit(ctx context.Context, p OrderPlacer) (domain.Order, error) {
	f.mu.Lock()
	if f.state != StateReviewing {
		f.mu.Unlock()
		return domain.Order{}, ErrWrongStep
	}
	f.state = StateSubmitting
	f.err = nil
	in := f.placeOrder()
	f.mu.Unlock()

	o, err := p.CreateOrder(ctx, in)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.state = StateReviewing
		f.err = err
		applog.Debug().Err(err).Msg("checkout: submit failed")
		return domain.Order{}, err
	}
	f.state = StateSucceeded
	f.order = &o
	return o, nil
}

// View is a read-only copy of the flow for rendering.
type View struct {
	State          State                `json:"state"`
	Addresses      []domain.Address     `json:"addresses"`
	SavedAddressID *int64               `json:"saved_address_id"`
	NewAddress     *domain.AddressInput `json:"new_address"`
	PaymentMethods []PaymentMethod      `json:"payment_methods"`
	PaymentMethod  string               `json:"payment_method"`
	Notes          string               `json:"notes"`
	Items          []domain.CartItem    `json:"items"`
	Summary        pricing.Summary      `json:"summary"`
	OrderNumber    string               `json:"order_number,omitempty"`
	Err            error                `json:"-"`
}

func (f *Flow) View() View {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := View{
		State:          f.state,
		Addresses:      append([]domain.Address(nil), f.addresses...),
		PaymentMethods: PaymentMethods,
		PaymentMethod:  f.payment,
		Notes:          f.notes,
		Items:          append([]domain.CartItem(nil), f.cart.Items...),
		Summary:        f.summary(),
		Err:            f.err,
	}
	if f.savedID != nil {
		id := *f.savedID
		v.SavedAddressID = &id
	}
	if f.newAddr != nil {
		a := *f.newAddr
		v.NewAddress = &a
	}
	if f.order != nil {
		v.OrderNumber = f.order.OrderNumber
	}
	return v
}

func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}
