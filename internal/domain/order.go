package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPending        OrderStatus = "pending"
	OrderConfirmed      OrderStatus = "confirmed"
	OrderPreparing      OrderStatus = "preparing"
	OrderOutForDelivery OrderStatus = "out_for_delivery"
	OrderDelivered      OrderStatus = "delivered"
	OrderCancelled      OrderStatus = "cancelled"
)

// Cancellable reports whether a customer may still cancel the order.
func (s OrderStatus) Cancellable() bool {
	return s == OrderPending || s == OrderConfirmed
}

type OrderItem struct {
	ID          int64           `json:"id"`
	ProductID   int64           `json:"product_id"`
	VariantID   *int64          `json:"variant_id"`
	ProductName string          `json:"product_name"`
	VariantName string          `json:"variant_name,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

type OrderStatusEntry struct {
	Status    OrderStatus `json:"status"`
	Note      string      `json:"note,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

type Order struct {
	ID              int64              `json:"id"`
	OrderNumber     string             `json:"order_number"`
	Status          OrderStatus        `json:"status"`
	PaymentMethod   string             `json:"payment_method"`
	PaymentStatus   string             `json:"payment_status"`
	Subtotal        decimal.Decimal    `json:"subtotal"`
	VAT             decimal.Decimal    `json:"vat"`
	DeliveryFee     decimal.Decimal    `json:"delivery_fee"`
	Discount        decimal.Decimal    `json:"discount"`
	Total           decimal.Decimal    `json:"total"`
	Notes           string             `json:"notes,omitempty"`
	ShippingAddress *Address           `json:"shipping_address,omitempty"`
	Items           []OrderItem        `json:"items,omitempty"`
	StatusHistory   []OrderStatusEntry `json:"status_history,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
}

// PlaceOrder is the checkout submission. Exactly one of AddressID and
// ShippingAddress is set.
type PlaceOrder struct {
	AddressID       *int64        `json:"address_id,omitempty"`
	ShippingAddress *AddressInput `json:"shipping_address,omitempty"`
	PaymentMethod   string        `json:"payment_method"`
	Notes           string        `json:"notes,omitempty"`
}
