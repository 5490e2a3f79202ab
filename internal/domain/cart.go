package domain

import "github.com/shopspring/decimal"

type CartItem struct {
	ID            int64           `json:"id"`
	ProductID     int64           `json:"product_id"`
	VariantID     *int64          `json:"variant_id"`
	Quantity      int             `json:"quantity"`
	PriceSnapshot decimal.Decimal `json:"price_snapshot"`
	LineTotal     decimal.Decimal `json:"line_total"`
	Product       *Product        `json:"product,omitempty"`
	Variant       *ProductVariant `json:"variant,omitempty"`
}

// Pending reports whether the line is an optimistic placeholder that the
// server has not confirmed yet.
func (it CartItem) Pending() bool { return it.ID < 0 }

// SameLine reports whether it refers to the given product and variant.
func (it CartItem) SameLine(productID int64, variantID *int64) bool {
	if it.ProductID != productID {
		return false
	}
	if it.VariantID == nil || variantID == nil {
		return it.VariantID == nil && variantID == nil
	}
	return *it.VariantID == *variantID
}

type Cart struct {
	ID         int64           `json:"id"`
	Items      []CartItem      `json:"items"`
	ItemsCount int             `json:"items_count"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	VAT        decimal.Decimal `json:"vat"`
	Total      decimal.Decimal `json:"total"`
}

// Empty reports whether the cart has no lines.
func (c Cart) Empty() bool { return len(c.Items) == 0 }

// Clone returns a copy whose item slice can be modified freely.
func (c Cart) Clone() Cart {
	out := c
	out.Items = append([]CartItem(nil), c.Items...)
	return out
}

type AddCartItem struct {
	ProductID int64  `json:"product_id"`
	VariantID *int64 `json:"variant_id,omitempty"`
	Quantity  int    `json:"quantity"`
}
