package mutations

import (
	"context"

	"easybake/internal/domain"
	"easybake/internal/queries"
	"easybake/internal/validate"
)

func (m *Mutations) CreateOrder(ctx context.Context, in domain.PlaceOrder) (domain.Order, error) {
	errs := validate.Errors{}
	switch {
	case in.AddressID == nil && in.ShippingAddress == nil:
		errs.Add("address_id", "Please choose a delivery address.")
	case in.AddressID != nil && in.ShippingAddress != nil:
		errs.Add("address_id", "Choose a saved address or enter a new one, not both.")
	case in.ShippingAddress != nil:
		addr := *in.ShippingAddress
		for f, msgs := range validate.Address(&addr) {
			errs["shipping_address."+f] = msgs
		}
		in.ShippingAddress = &addr
	}
	if in.PaymentMethod == "" {
		errs.Add("payment_method", "Please choose a payment method.")
	}
	if !validate.Notes(in.Notes) {
		errs.Add("notes", "Notes may not exceed 500 characters.")
	}
	if err := m.invalid(ctx, "order.create", errs); err != nil {
		return domain.Order{}, err
	}

	o, err := call(ctx, m, "order.create", func(ctx context.Context) (domain.Order, error) {
		return m.api.CreateOrder(ctx, in)
	}, queries.OrdersKey, queries.CartKey)
	if err != nil {
		return o, err
	}
	m.store.Set(queries.OrderKey(o.ID), o)
	return o, nil
}

func (m *Mutations) CancelOrder(ctx context.Context, id int64) (domain.Order, error) {
	o, err := call(ctx, m, "order.cancel", func(ctx context.Context) (domain.Order, error) {
		return m.api.CancelOrder(ctx, id)
	}, queries.OrdersKey)
	if err != nil {
		return o, err
	}
	m.store.Set(queries.OrderKey(id), o)
	m.success("Your order has been cancelled.")
	return o, nil
}
