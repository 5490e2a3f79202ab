// Package pricing turns cart lines into subtotal, VAT and total.
//
// All arithmetic is exact decimal; rounding happens only when formatting.
package pricing

import (
	"github.com/shopspring/decimal"

	"easybake/internal/domain"
)

// Places is the number of fractional digits the currency is displayed with.
const Places = 3

// DefaultVATRate is applied when no rate is configured.
var DefaultVATRate = decimal.RequireFromString("0.10")

// Line is a frozen unit price and a quantity.
type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

type Summary struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	VAT         decimal.Decimal `json:"vat"`
	DeliveryFee decimal.Decimal `json:"delivery_fee"`
	Discount    decimal.Decimal `json:"discount"`
	Total       decimal.Decimal `json:"total"`
}

type options struct {
	vatRate  decimal.Decimal
	delivery decimal.Decimal
	discount decimal.Decimal
}

type Option func(*options)

func WithVATRate(r decimal.Decimal) Option     { return func(o *options) { o.vatRate = r } }
func WithDeliveryFee(f decimal.Decimal) Option { return func(o *options) { o.delivery = f } }
func WithDiscount(d decimal.Decimal) Option    { return func(o *options) { o.discount = d } }

// LineTotal is price × quantity. Non-positive quantities count as zero.
func LineTotal(price decimal.Decimal, qty int) decimal.Decimal {
	if qty <= 0 {
		return decimal.Zero
	}
	return price.Mul(decimal.NewFromInt(int64(qty)))
}

// Calculate sums lines and applies VAT, delivery and discount.
// VAT is charged on the subtotal only. The total never goes below zero.
func Calculate(lines []Line, opts ...Option) Summary {
	o := options{vatRate: DefaultVATRate}
	for _, fn := range opts {
		fn(&o)
	}
	sub := decimal.Zero
	for _, l := range lines {
		sub = sub.Add(LineTotal(l.UnitPrice, l.Quantity))
	}
	vat := sub.Mul(o.vatRate)
	total := sub.Add(vat).Add(o.delivery).Sub(o.discount)
	if total.IsNegative() {
		total = decimal.Zero
	}
	return Summary{
		Subtotal:    sub,
		VAT:         vat,
		DeliveryFee: o.delivery,
		Discount:    o.discount,
		Total:       total,
	}
}

// CartLines converts cart items to pricing lines using their price snapshots.
func CartLines(items []domain.CartItem) []Line {
	out := make([]Line, 0, len(items))
	for _, it := range items {
		out = append(out, Line{UnitPrice: it.PriceSnapshot, Quantity: it.Quantity})
	}
	return out
}

// Format renders an amount with the currency's display precision.
func Format(d decimal.Decimal) string { return d.StringFixed(Places) }

// FormatMoney prefixes Format with a currency code, e.g. "BHD 4.400".
func FormatMoney(currency string, d decimal.Decimal) string {
	if currency == "" {
		return Format(d)
	}
	return currency + " " + Format(d)
}
