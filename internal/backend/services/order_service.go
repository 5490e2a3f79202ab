package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"easybake/internal/backend/repos"
	"easybake/internal/domain"
	"easybake/internal/pricing"
	"easybake/internal/validate"
)

// PaymentCashOnDelivery is the only payment method the shop accepts.
const PaymentCashOnDelivery = "cash_on_delivery"

const ordersPerPage = 10

type OrderService struct {
	Orders    *repos.OrderRepo
	Carts     *repos.CartRepo
	Addresses *repos.AddressRepo

	VAT         decimal.Decimal
	DeliveryFee decimal.Decimal
	Now         func() time.Time
}

func NewOrderService(orders *repos.OrderRepo, carts *repos.CartRepo, addresses *repos.AddressRepo, vat, delivery decimal.Decimal) *OrderService {
	return &OrderService{Orders: orders, Carts: carts, Addresses: addresses, VAT: vat, DeliveryFee: delivery, Now: time.Now}
}

func (s *OrderService) number() string {
	return fmt.Sprintf("EB-%s-%s", s.Now().UTC().Format("20060102"), strings.ToUpper(uuid.NewString()[:6]))
}

// shippingAddress resolves the saved or inline address of an order.
func (s *OrderService) shippingAddress(userID int64, in domain.PlaceOrder) (domain.Address, error) {
	switch {
	case in.AddressID != nil && in.ShippingAddress != nil:
		return domain.Address{}, fieldError("address_id", "Choose a saved address or enter a new one, not both.")
	case in.AddressID != nil:
		a, err := s.Addresses.Get(userID, *in.AddressID)
		if errors.Is(err, repos.ErrNotFound) {
			return domain.Address{}, fieldError("address_id", "The selected address is invalid.")
		}
		return a, err
	case in.ShippingAddress != nil:
		addr := *in.ShippingAddress
		errs := validate.Address(&addr)
		if !errs.Empty() {
			prefixed := validate.Errors{}
			for f, msgs := range errs {
				prefixed["shipping_address."+f] = msgs
			}
			return domain.Address{}, invalid(prefixed)
		}
		return domain.Address{
			UserID: userID, Label: addr.Label, RecipientName: addr.RecipientName, Phone: addr.Phone, Area: addr.Area,
			Block: addr.Block, Street: addr.Street, Building: addr.Building, Floor: addr.Floor,
			Apartment: addr.Apartment, Notes: addr.Notes,
		}, nil
	}
	return domain.Address{}, fieldError("address_id", "Please choose a delivery address.")
}

// Place turns the user's cart into an order. Stock is taken and the cart
// emptied in the same transaction.
func (s *OrderService) Place(userID int64, in domain.PlaceOrder, locale string) (domain.Order, error) {
	if in.PaymentMethod != PaymentCashOnDelivery {
		return domain.Order{}, fieldError("payment_method", "The selected payment method is not available.")
	}
	if !validate.Notes(in.Notes) {
		return domain.Order{}, fieldError("notes", fmt.Sprintf("Notes may not exceed %d characters.", validate.MaxNotes))
	}
	addr, err := s.shippingAddress(userID, in)
	if err != nil {
		return domain.Order{}, err
	}
	cartID, err := s.Carts.Find(repos.Owner{UserID: userID})
	if err != nil {
		return domain.Order{}, err
	}

	tx, err := s.Orders.Begin()
	if err != nil {
		return domain.Order{}, err
	}
	defer func() { _ = tx.Rollback() }()

	lines, err := repos.Lines(tx, cartID)
	if err != nil {
		return domain.Order{}, err
	}
	if len(lines) == 0 {
		return domain.Order{}, fieldError("cart", "Your cart is empty.")
	}

	items := make([]domain.OrderItem, 0, len(lines))
	priced := make([]pricing.Line, 0, len(lines))
	for _, l := range lines {
		st, err := repos.StockFor(tx, l.ProductID, l.VariantID, locale)
		if err != nil {
			return domain.Order{}, mapRepo(err)
		}
		if !st.Available {
			return domain.Order{}, fieldError("items", fmt.Sprintf("%s is currently unavailable.", st.Name))
		}
		if err := repos.AdjustStock(tx, l.ProductID, l.VariantID, -l.Quantity); err != nil {
			if errors.Is(err, repos.ErrOutOfStock) {
				return domain.Order{}, fieldError("items", fmt.Sprintf("Only %d of %s left in stock.", st.Quantity, st.Name))
			}
			return domain.Order{}, err
		}
		it := domain.OrderItem{
			ProductID:   l.ProductID,
			ProductName: st.Name,
			VariantName: st.VariantName,
			Quantity:    l.Quantity,
			UnitPrice:   l.PriceSnapshot,
			LineTotal:   pricing.LineTotal(l.PriceSnapshot, l.Quantity),
		}
		if l.VariantID != 0 {
			vid := l.VariantID
			it.VariantID = &vid
		}
		items = append(items, it)
		priced = append(priced, pricing.Line{UnitPrice: l.PriceSnapshot, Quantity: l.Quantity})
	}

	sum := pricing.Calculate(priced, pricing.WithVATRate(s.VAT), pricing.WithDeliveryFee(s.DeliveryFee))
	id, err := s.Orders.Insert(tx, repos.NewOrder{
		Number:        s.number(),
		UserID:        userID,
		PaymentMethod: in.PaymentMethod,
		Subtotal:      sum.Subtotal,
		VAT:           sum.VAT,
		DeliveryFee:   sum.DeliveryFee,
		Discount:      sum.Discount,
		Total:         sum.Total,
		Notes:         strings.TrimSpace(in.Notes),
		Address:       addr,
		Items:         items,
	})
	if err != nil {
		return domain.Order{}, err
	}
	if err := repos.ClearLines(tx, cartID); err != nil {
		return domain.Order{}, err
	}
	o, err := s.Orders.Get(tx, userID, id)
	if err != nil {
		return domain.Order{}, err
	}
	return o, tx.Commit()
}

func (s *OrderService) List(userID int64, page int) (domain.Page[domain.Order], error) {
	p := NewPaging(page, ordersPerPage, ordersPerPage, ordersPerPage)
	items, total, err := s.Orders.List(userID, p.PerPage, p.Offset())
	if err != nil {
		return domain.Page[domain.Order]{}, err
	}
	return paginate(items, total, p, "/api/orders"), nil
}

func (s *OrderService) Get(userID, id int64) (domain.Order, error) {
	tx, err := s.Orders.Begin()
	if err != nil {
		return domain.Order{}, err
	}
	defer func() { _ = tx.Rollback() }()
	o, err := s.Orders.Get(tx, userID, id)
	return o, mapRepo(err)
}

// Cancel cancels a pending or confirmed order and puts its stock back.
func (s *OrderService) Cancel(userID, id int64) (domain.Order, error) {
	tx, err := s.Orders.Begin()
	if err != nil {
		return domain.Order{}, err
	}
	defer func() { _ = tx.Rollback() }()

	o, err := s.Orders.Get(tx, userID, id)
	if err != nil {
		return domain.Order{}, mapRepo(err)
	}
	if !o.Status.Cancellable() {
		return domain.Order{}, refused("This order can no longer be cancelled.")
	}
	for _, it := range o.Items {
		var vid int64
		if it.VariantID != nil {
			vid = *it.VariantID
		}
		if err := repos.AdjustStock(tx, it.ProductID, vid, it.Quantity); err != nil {
			return domain.Order{}, err
		}
	}
	if err := s.Orders.SetStatus(tx, id, domain.OrderCancelled, "Cancelled by customer"); err != nil {
		return domain.Order{}, err
	}
	o, err = s.Orders.Get(tx, userID, id)
	if err != nil {
		return domain.Order{}, err
	}
	return o, tx.Commit()
}
