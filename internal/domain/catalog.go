package domain

import "github.com/shopspring/decimal"

// Locales served by the storefront.
const (
	LocaleEN = "en"
	LocaleAR = "ar"
)

// Translation is the per-locale text of a product or category.
type Translation struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type ProductImage struct {
	ID        int64  `json:"id"`
	URL       string `json:"url"`
	Alt       string `json:"alt,omitempty"`
	IsPrimary bool   `json:"is_primary"`
}

type ProductVariant struct {
	ID            int64           `json:"id"`
	ProductID     int64           `json:"product_id"`
	Name          string          `json:"name"`
	SKU           string          `json:"sku,omitempty"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
	IsAvailable   bool            `json:"is_available"`
}

type Product struct {
	ID            int64                  `json:"id"`
	Slug          string                 `json:"slug"`
	CategoryID    *int64                 `json:"category_id"`
	Name          string                 `json:"name"`
	Description   string                 `json:"description,omitempty"`
	Price         decimal.Decimal        `json:"price"`
	HasVariants   bool                   `json:"has_variants"`
	IsAvailable   bool                   `json:"is_available"`
	IsFeatured    bool                   `json:"is_featured"`
	StockQuantity int                    `json:"stock_quantity"`
	AverageRating float64                `json:"average_rating"`
	ReviewsCount  int                    `json:"reviews_count"`
	Images        []ProductImage         `json:"images"`
	Variants      []ProductVariant       `json:"variants,omitempty"`
	Translations  map[string]Translation `json:"translations,omitempty"`
}

// DisplayPrice is the base price for simple products and the lowest available
// variant price for products with variants.
func (p Product) DisplayPrice() decimal.Decimal {
	if !p.HasVariants {
		return p.Price
	}
	var (
		min   decimal.Decimal
		found bool
	)
	for _, v := range p.Variants {
		if !v.IsAvailable {
			continue
		}
		if !found || v.Price.LessThan(min) {
			min, found = v.Price, true
		}
	}
	if !found {
		return p.Price
	}
	return min
}

// Variant returns the variant with the given id.
func (p Product) Variant(id int64) (ProductVariant, bool) {
	for _, v := range p.Variants {
		if v.ID == id {
			return v, true
		}
	}
	return ProductVariant{}, false
}

// PrimaryImage returns the primary image URL, or the first one.
func (p Product) PrimaryImage() string {
	for _, im := range p.Images {
		if im.IsPrimary {
			return im.URL
		}
	}
	if len(p.Images) > 0 {
		return p.Images[0].URL
	}
	return ""
}

type Category struct {
	ID           int64                  `json:"id"`
	Slug         string                 `json:"slug"`
	ParentID     *int64                 `json:"parent_id"`
	Name         string                 `json:"name"`
	Description  string                 `json:"description,omitempty"`
	Image        string                 `json:"image,omitempty"`
	SortOrder    int                    `json:"sort_order"`
	Translations map[string]Translation `json:"translations,omitempty"`
	Children     []Category             `json:"children,omitempty"`
}

// IsRoot reports whether the category has no parent.
func (c Category) IsRoot() bool { return c.ParentID == nil }

// ProductQuery filters the product listing.
type ProductQuery struct {
	Page       int
	PerPage    int
	CategoryID int64
	Search     string
	Sort       string // newest | price_asc | price_desc | popular
}
