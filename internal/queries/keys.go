package queries

import (
	"net/url"
	"strconv"

	"easybake/internal/cache"
	"easybake/internal/domain"
)

// Key families. Invalidating a family key covers every query under it.
var (
	CartKey      = cache.K("cart")
	UserKey      = cache.K("user")
	AddressesKey = cache.K("addresses")
	WishlistKey  = cache.K("wishlist")
	OrdersKey    = cache.K("orders")
	ProductsKey  = cache.K("products")
	CategoryKey  = cache.K("categories")
	ReviewsKey   = cache.K("reviews")
)

func OrdersPageKey(page int) cache.Key { return cache.K("orders", "list", page) }
func OrderKey(id int64) cache.Key      { return cache.K("orders", "detail", id) }
func ProductKey(locale string, id int64) cache.Key {
	return cache.K("products", "detail", locale, id)
}
func FeaturedKey(locale string) cache.Key { return cache.K("products", "featured", locale) }
func PopularKey(locale string) cache.Key  { return cache.K("products", "popular", locale) }

func ProductListKey(locale string, q domain.ProductQuery) cache.Key {
	return cache.K("products", "list", locale, productParams(q))
}

func CategoriesKey(locale string) cache.Key { return cache.K("categories", "list", locale) }

func CategoryDetailKey(locale, idOrSlug string) cache.Key {
	return cache.K("categories", "detail", locale, idOrSlug)
}

// ProductReviewsKey is the family of every page and locale of a product's
// reviews.
func ProductReviewsKey(productID int64) cache.Key { return cache.K("reviews", productID) }

func ReviewsPageKey(productID int64, locale string, page int) cache.Key {
	return cache.K("reviews", productID, locale, page)
}

// productParams encodes the listing parameters canonically so equal queries
// share a key.
func productParams(q domain.ProductQuery) string {
	v := url.Values{}
	v.Set("page", strconv.Itoa(max(q.Page, 1)))
	if q.PerPage > 0 {
		v.Set("per_page", strconv.Itoa(q.PerPage))
	}
	if q.CategoryID > 0 {
		v.Set("category_id", strconv.FormatInt(q.CategoryID, 10))
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Sort != "" {
		v.Set("sort", q.Sort)
	}
	return v.Encode()
}
