package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"easybake/internal/domain"
)

// API is the typed surface of the REST backend.
type API interface {
	Products(ctx context.Context, q domain.ProductQuery) (domain.Page[domain.Product], error)
	Product(ctx context.Context, id int64) (domain.Product, error)
	FeaturedProducts(ctx context.Context) ([]domain.Product, error)
	PopularProducts(ctx context.Context) ([]domain.Product, error)
	Categories(ctx context.Context) ([]domain.Category, error)
	Category(ctx context.Context, idOrSlug string) (domain.Category, error)

	Cart(ctx context.Context) (domain.Cart, error)
	AddCartItem(ctx context.Context, in domain.AddCartItem) (domain.Cart, error)
	UpdateCartItem(ctx context.Context, itemID int64, qty int) (domain.Cart, error)
	RemoveCartItem(ctx context.Context, itemID int64) (domain.Cart, error)
	ClearCart(ctx context.Context) error

	Login(ctx context.Context, in domain.Credentials) (domain.User, error)
	Register(ctx context.Context, in domain.Registration) (domain.User, error)
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context) (domain.User, error)
	ChangePassword(ctx context.Context, in domain.PasswordChange) error

	Addresses(ctx context.Context) ([]domain.Address, error)
	CreateAddress(ctx context.Context, in domain.AddressInput) (domain.Address, error)
	SetDefaultAddress(ctx context.Context, id int64) (domain.Address, error)
	DeleteAddress(ctx context.Context, id int64) error

	Orders(ctx context.Context, page int) (domain.Page[domain.Order], error)
	Order(ctx context.Context, id int64) (domain.Order, error)
	CreateOrder(ctx context.Context, in domain.PlaceOrder) (domain.Order, error)
	CancelOrder(ctx context.Context, id int64) (domain.Order, error)

	Wishlist(ctx context.Context) ([]domain.WishlistItem, error)
	ToggleWishlist(ctx context.Context, productID int64) (domain.WishlistToggle, error)

	ProductReviews(ctx context.Context, productID int64, page int) (domain.Page[domain.Review], error)
	CreateReview(ctx context.Context, productID int64, in domain.NewReview) (domain.Review, error)
	DeleteReview(ctx context.Context, reviewID int64) error
	MarkReviewHelpful(ctx context.Context, reviewID int64) (domain.Review, error)
}

var _ API = (*Client)(nil)

func data[T any](ctx context.Context, c *Client, method, path string, q url.Values, body any) (T, error) {
	var env domain.Envelope[T]
	if err := c.Do(ctx, method, path, q, body, &env); err != nil {
		var zero T
		return zero, err
	}
	return env.Data, nil
}

func page[T any](ctx context.Context, c *Client, path string, q url.Values) (domain.Page[T], error) {
	var p domain.Page[T]
	if err := c.Do(ctx, http.MethodGet, path, q, nil, &p); err != nil {
		return domain.Page[T]{}, err
	}
	return p, nil
}

func id(n int64) string { return strconv.FormatInt(n, 10) }

func pageQuery(n int) url.Values {
	q := url.Values{}
	if n > 1 {
		q.Set("page", strconv.Itoa(n))
	}
	return q
}

// catalog

func (c *Client) Products(ctx context.Context, pq domain.ProductQuery) (domain.Page[domain.Product], error) {
	q := pageQuery(pq.Page)
	if pq.PerPage > 0 {
		q.Set("per_page", strconv.Itoa(pq.PerPage))
	}
	if pq.CategoryID > 0 {
		q.Set("category_id", id(pq.CategoryID))
	}
	if pq.Search != "" {
		q.Set("search", pq.Search)
	}
	if pq.Sort != "" {
		q.Set("sort", pq.Sort)
	}
	return page[domain.Product](ctx, c, "/products", q)
}

func (c *Client) Product(ctx context.Context, productID int64) (domain.Product, error) {
	return data[domain.Product](ctx, c, http.MethodGet, "/products/"+id(productID), nil, nil)
}

func (c *Client) FeaturedProducts(ctx context.Context) ([]domain.Product, error) {
	return data[[]domain.Product](ctx, c, http.MethodGet, "/products/featured", nil, nil)
}

func (c *Client) PopularProducts(ctx context.Context) ([]domain.Product, error) {
	return data[[]domain.Product](ctx, c, http.MethodGet, "/products/popular", nil, nil)
}

func (c *Client) Categories(ctx context.Context) ([]domain.Category, error) {
	return data[[]domain.Category](ctx, c, http.MethodGet, "/categories", nil, nil)
}

func (c *Client) Category(ctx context.Context, idOrSlug string) (domain.Category, error) {
	return data[domain.Category](ctx, c, http.MethodGet, "/categories/"+url.PathEscape(idOrSlug), nil, nil)
}

// cart

func (c *Client) Cart(ctx context.Context) (domain.Cart, error) {
	return data[domain.Cart](ctx, c, http.MethodGet, "/cart", nil, nil)
}

func (c *Client) AddCartItem(ctx context.Context, in domain.AddCartItem) (domain.Cart, error) {
	return data[domain.Cart](ctx, c, http.MethodPost, "/cart", nil, in)
}

func (c *Client) UpdateCartItem(ctx context.Context, itemID int64, qty int) (domain.Cart, error) {
	return data[domain.Cart](ctx, c, http.MethodPut, "/cart/items/"+id(itemID), nil, map[string]int{"quantity": qty})
}

func (c *Client) RemoveCartItem(ctx context.Context, itemID int64) (domain.Cart, error) {
	return data[domain.Cart](ctx, c, http.MethodDelete, "/cart/items/"+id(itemID), nil, nil)
}

func (c *Client) ClearCart(ctx context.Context) error {
	return c.Do(ctx, http.MethodDelete, "/cart", nil, nil, nil)
}

// auth

func (c *Client) Login(ctx context.Context, in domain.Credentials) (domain.User, error) {
	return data[domain.User](ctx, c, http.MethodPost, "/auth/login", nil, in)
}

func (c *Client) Register(ctx context.Context, in domain.Registration) (domain.User, error) {
	return data[domain.User](ctx, c, http.MethodPost, "/auth/register", nil, in)
}

func (c *Client) Logout(ctx context.Context) error {
	return c.Do(ctx, http.MethodPost, "/auth/logout", nil, nil, nil)
}

func (c *Client) CurrentUser(ctx context.Context) (domain.User, error) {
	return data[domain.User](ctx, c, http.MethodGet, "/auth/user", nil, nil)
}

func (c *Client) ChangePassword(ctx context.Context, in domain.PasswordChange) error {
	return c.Do(ctx, http.MethodPost, "/auth/change-password", nil, in, nil)
}

// addresses

func (c *Client) Addresses(ctx context.Context) ([]domain.Address, error) {
	return data[[]domain.Address](ctx, c, http.MethodGet, "/addresses", nil, nil)
}

func (c *Client) CreateAddress(ctx context.Context, in domain.AddressInput) (domain.Address, error) {
	return data[domain.Address](ctx, c, http.MethodPost, "/addresses", nil, in)
}

func (c *Client) SetDefaultAddress(ctx context.Context, addressID int64) (domain.Address, error) {
	return data[domain.Address](ctx, c, http.MethodPut, "/addresses/"+id(addressID)+"/default", nil, nil)
}

func (c *Client) DeleteAddress(ctx context.Context, addressID int64) error {
	return c.Do(ctx, http.MethodDelete, "/addresses/"+id(addressID), nil, nil, nil)
}

// orders

func (c *Client) Orders(ctx context.Context, n int) (domain.Page[domain.Order], error) {
	return page[domain.Order](ctx, c, "/orders", pageQuery(n))
}

func (c *Client) Order(ctx context.Context, orderID int64) (domain.Order, error) {
	return data[domain.Order](ctx, c, http.MethodGet, "/orders/"+id(orderID), nil, nil)
}

func (c *Client) CreateOrder(ctx context.Context, in domain.PlaceOrder) (domain.Order, error) {
	return data[domain.Order](ctx, c, http.MethodPost, "/orders", nil, in)
}

func (c *Client) CancelOrder(ctx context.Context, orderID int64) (domain.Order, error) {
	return data[domain.Order](ctx, c, http.MethodPost, "/orders/"+id(orderID)+"/cancel", nil, nil)
}

// wishlist

func (c *Client) Wishlist(ctx context.Context) ([]domain.WishlistItem, error) {
	return data[[]domain.WishlistItem](ctx, c, http.MethodGet, "/wishlist", nil, nil)
}

func (c *Client) ToggleWishlist(ctx context.Context, productID int64) (domain.WishlistToggle, error) {
	return data[domain.WishlistToggle](ctx, c, http.MethodPost, "/wishlist/products/"+id(productID), nil, nil)
}

// reviews

func (c *Client) ProductReviews(ctx context.Context, productID int64, n int) (domain.Page[domain.Review], error) {
	return page[domain.Review](ctx, c, "/products/"+id(productID)+"/reviews", pageQuery(n))
}

func (c *Client) CreateReview(ctx context.Context, productID int64, in domain.NewReview) (domain.Review, error) {
	return data[domain.Review](ctx, c, http.MethodPost, "/products/"+id(productID)+"/reviews", nil, in)
}

func (c *Client) DeleteReview(ctx context.Context, reviewID int64) error {
	return c.Do(ctx, http.MethodDelete, "/reviews/"+id(reviewID), nil, nil, nil)
}

func (c *Client) MarkReviewHelpful(ctx context.Context, reviewID int64) (domain.Review, error) {
	return data[domain.Review](ctx, c, http.MethodPost, "/reviews/"+id(reviewID)+"/helpful", nil, nil)
}
