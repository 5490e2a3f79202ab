// Package apitest provides an in-memory apiclient.API for tests.
package apitest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"easybake/internal/apiclient"
	"easybake/internal/domain"
	"easybake/internal/pricing"
)

// Fake is an in-memory backend. Fail injects an error for the named method
// (e.g. "AddCartItem"); Hold blocks the named method until its channel is
// closed or the context ends.
type Fake struct {
	mu sync.Mutex

	Catalog     map[int64]domain.Product
	CartState   domain.Cart
	User        *domain.User
	AddressList []domain.Address
	OrderList   []domain.Order
	Wish        map[int64]bool
	ReviewMap   map[int64][]domain.Review
	// CategoryList replaces the default single category when set.
	CategoryList []domain.Category

	fail    map[string]error
	hold    map[string]chan struct{}
	calls   map[string]int
	locales map[string][]string

	nextID int64
}

var _ apiclient.API = (*Fake)(nil)

func New() *Fake {
	return &Fake{
		Catalog:   map[int64]domain.Product{},
		Wish:      map[int64]bool{},
		ReviewMap: map[int64][]domain.Review{},
		fail:      map[string]error{},
		hold:      map[string]chan struct{}{},
		calls:     map[string]int{},
		locales:   map[string][]string{},
		nextID:    100,
	}
}

// Seed adds a simple product priced at price.
func (f *Fake) Seed(id int64, name, price string) domain.Product {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := domain.Product{ID: id, Slug: fmt.Sprintf("p-%d", id), Name: name, Price: decimal.RequireFromString(price), IsAvailable: true}
	f.Catalog[id] = p
	return p
}

func (f *Fake) SignIn(u domain.User) {
	f.mu.Lock()
	f.User = &u
	f.mu.Unlock()
}

func (f *Fake) AddAddress(a domain.Address) {
	f.mu.Lock()
	f.AddressList = append(f.AddressList, a)
	f.mu.Unlock()
}

func (f *Fake) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

// Locales returns the locale of every call to method, in order.
func (f *Fake) Locales(method string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.locales[method]...)
}

func (f *Fake) SetFail(method string, err error) {
	f.mu.Lock()
	if err == nil {
		delete(f.fail, method)
	} else {
		f.fail[method] = err
	}
	f.mu.Unlock()
}

func (f *Fake) SetHold(method string, ch chan struct{}) {
	f.mu.Lock()
	f.hold[method] = ch
	f.mu.Unlock()
}

// Snapshot returns a copy of the server-side cart.
func (f *Fake) Snapshot() domain.Cart {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.CartState.Clone()
}

// enter records a call and applies hold and fail. On success the fake is
// locked and the returned func unlocks it.
func (f *Fake) enter(ctx context.Context, method string) (func(), error) {
	f.mu.Lock()
	f.calls[method]++
	f.locales[method] = append(f.locales[method], apiclient.LocaleFrom(ctx))
	hold := f.hold[method]
	f.mu.Unlock()

	if hold != nil {
		select {
		case <-hold:
		case <-ctx.Done():
			return nil, &apiclient.Error{Kind: apiclient.KindCanceled, Message: apiclient.MsgUnknown, Err: ctx.Err()}
		}
	}
	f.mu.Lock()
	if err := f.fail[method]; err != nil {
		f.mu.Unlock()
		return nil, err
	}
	return f.mu.Unlock, nil
}

func (f *Fake) id() int64 {
	f.nextID++
	return f.nextID
}

func unauthorized() error { return apiclient.FromStatus(401, "Unauthenticated.", nil) }
func notFound() error     { return apiclient.FromStatus(404, "Not found.", nil) }

func (f *Fake) sortedProducts() []domain.Product {
	out := make([]domain.Product, 0, len(f.Catalog))
	for _, p := range f.Catalog {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// catalog

func (f *Fake) Products(ctx context.Context, q domain.ProductQuery) (domain.Page[domain.Product], error) {
	done, err := f.enter(ctx, "Products")
	if err != nil {
		return domain.Page[domain.Product]{}, err
	}
	defer done()
	items := f.sortedProducts()
	return domain.Page[domain.Product]{
		Success: true,
		Data:    items,
		Meta:    domain.PageMeta{CurrentPage: max(q.Page, 1), LastPage: 1, PerPage: len(items), Total: len(items)},
	}, nil
}

func (f *Fake) Product(ctx context.Context, id int64) (domain.Product, error) {
	done, err := f.enter(ctx, "Product")
	if err != nil {
		return domain.Product{}, err
	}
	defer done()
	p, ok := f.Catalog[id]
	if !ok {
		return domain.Product{}, notFound()
	}
	return p, nil
}

func (f *Fake) FeaturedProducts(ctx context.Context) ([]domain.Product, error) {
	done, err := f.enter(ctx, "FeaturedProducts")
	if err != nil {
		return nil, err
	}
	defer done()
	var out []domain.Product
	for _, p := range f.sortedProducts() {
		if p.IsFeatured {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *Fake) PopularProducts(ctx context.Context) ([]domain.Product, error) {
	done, err := f.enter(ctx, "PopularProducts")
	if err != nil {
		return nil, err
	}
	defer done()
	return f.sortedProducts(), nil
}

func (f *Fake) Categories(ctx context.Context) ([]domain.Category, error) {
	done, err := f.enter(ctx, "Categories")
	if err != nil {
		return nil, err
	}
	defer done()
	if f.CategoryList != nil {
		return append([]domain.Category(nil), f.CategoryList...), nil
	}
	return []domain.Category{{ID: 1, Slug: "breads", Name: "Breads"}}, nil
}

func (f *Fake) Category(ctx context.Context, idOrSlug string) (domain.Category, error) {
	done, err := f.enter(ctx, "Category")
	if err != nil {
		return domain.Category{}, err
	}
	defer done()
	if idOrSlug != "1" && idOrSlug != "breads" {
		return domain.Category{}, notFound()
	}
	return domain.Category{ID: 1, Slug: "breads", Name: "Breads"}, nil
}

// cart

func (f *Fake) recalc() {
	c := &f.CartState
	c.ItemsCount = 0
	for i := range c.Items {
		c.Items[i].LineTotal = pricing.LineTotal(c.Items[i].PriceSnapshot, c.Items[i].Quantity)
		c.ItemsCount += c.Items[i].Quantity
	}
	s := pricing.Calculate(pricing.CartLines(c.Items))
	c.Subtotal, c.VAT, c.Total = s.Subtotal, s.VAT, s.Total
}

func (f *Fake) Cart(ctx context.Context) (domain.Cart, error) {
	done, err := f.enter(ctx, "Cart")
	if err != nil {
		return domain.Cart{}, err
	}
	defer done()
	return f.CartState.Clone(), nil
}

func (f *Fake) AddCartItem(ctx context.Context, in domain.AddCartItem) (domain.Cart, error) {
	done, err := f.enter(ctx, "AddCartItem")
	if err != nil {
		return domain.Cart{}, err
	}
	defer done()
	p, ok := f.Catalog[in.ProductID]
	if !ok {
		return domain.Cart{}, notFound()
	}
	for i, it := range f.CartState.Items {
		if it.SameLine(in.ProductID, in.VariantID) {
			f.CartState.Items[i].Quantity += in.Quantity
			f.recalc()
			return f.CartState.Clone(), nil
		}
	}
	price := p.Price
	if in.VariantID != nil {
		if v, ok := p.Variant(*in.VariantID); ok {
			price = v.Price
		}
	}
	f.CartState.Items = append(f.CartState.Items, domain.CartItem{
		ID: f.id(), ProductID: p.ID, VariantID: in.VariantID, Quantity: in.Quantity, PriceSnapshot: price, Product: &p,
	})
	f.recalc()
	return f.CartState.Clone(), nil
}

func (f *Fake) UpdateCartItem(ctx context.Context, itemID int64, qty int) (domain.Cart, error) {
	done, err := f.enter(ctx, "UpdateCartItem")
	if err != nil {
		return domain.Cart{}, err
	}
	defer done()
	for i, it := range f.CartState.Items {
		if it.ID == itemID {
			f.CartState.Items[i].Quantity = qty
			f.recalc()
			return f.CartState.Clone(), nil
		}
	}
	return domain.Cart{}, notFound()
}

func (f *Fake) RemoveCartItem(ctx context.Context, itemID int64) (domain.Cart, error) {
	done, err := f.enter(ctx, "RemoveCartItem")
	if err != nil {
		return domain.Cart{}, err
	}
	defer done()
	items := f.CartState.Items[:0]
	for _, it := range f.CartState.Items {
		if it.ID != itemID {
			items = append(items, it)
		}
	}
	f.CartState.Items = items
	f.recalc()
	return f.CartState.Clone(), nil
}

func (f *Fake) ClearCart(ctx context.Context) error {
	done, err := f.enter(ctx, "ClearCart")
	if err != nil {
		return err
	}
	defer done()
	f.CartState.Items = nil
	f.recalc()
	return nil
}

// auth

func (f *Fake) Login(ctx context.Context, in domain.Credentials) (domain.User, error) {
	done, err := f.enter(ctx, "Login")
	if err != nil {
		return domain.User{}, err
	}
	defer done()
	u := domain.User{ID: 1, Name: "Customer", Email: in.Email}
	f.User = &u
	return u, nil
}

func (f *Fake) Register(ctx context.Context, in domain.Registration) (domain.User, error) {
	done, err := f.enter(ctx, "Register")
	if err != nil {
		return domain.User{}, err
	}
	defer done()
	u := domain.User{ID: f.id(), Name: in.Name, Email: in.Email, Phone: in.Phone}
	f.User = &u
	return u, nil
}

func (f *Fake) Logout(ctx context.Context) error {
	done, err := f.enter(ctx, "Logout")
	if err != nil {
		return err
	}
	defer done()
	f.User = nil
	return nil
}

func (f *Fake) CurrentUser(ctx context.Context) (domain.User, error) {
	done, err := f.enter(ctx, "CurrentUser")
	if err != nil {
		return domain.User{}, err
	}
	defer done()
	if f.User == nil {
		return domain.User{}, unauthorized()
	}
	return *f.User, nil
}

func (f *Fake) ChangePassword(ctx context.Context, in domain.PasswordChange) error {
	done, err := f.enter(ctx, "ChangePassword")
	if err != nil {
		return err
	}
	defer done()
	if f.User == nil {
		return unauthorized()
	}
	return nil
}

// addresses

func (f *Fake) Addresses(ctx context.Context) ([]domain.Address, error) {
	done, err := f.enter(ctx, "Addresses")
	if err != nil {
		return nil, err
	}
	defer done()
	return append([]domain.Address(nil), f.AddressList...), nil
}

func (f *Fake) CreateAddress(ctx context.Context, in domain.AddressInput) (domain.Address, error) {
	done, err := f.enter(ctx, "CreateAddress")
	if err != nil {
		return domain.Address{}, err
	}
	defer done()
	a := domain.Address{
		ID: f.id(), Label: in.Label, RecipientName: in.RecipientName, Phone: in.Phone, Area: in.Area,
		Block: in.Block, Street: in.Street, Building: in.Building, IsDefault: in.IsDefault || len(f.AddressList) == 0,
	}
	if a.IsDefault {
		for i := range f.AddressList {
			f.AddressList[i].IsDefault = false
		}
	}
	f.AddressList = append(f.AddressList, a)
	return a, nil
}

func (f *Fake) SetDefaultAddress(ctx context.Context, id int64) (domain.Address, error) {
	done, err := f.enter(ctx, "SetDefaultAddress")
	if err != nil {
		return domain.Address{}, err
	}
	defer done()
	var found *domain.Address
	for i := range f.AddressList {
		f.AddressList[i].IsDefault = f.AddressList[i].ID == id
		if f.AddressList[i].IsDefault {
			found = &f.AddressList[i]
		}
	}
	if found == nil {
		return domain.Address{}, notFound()
	}
	return *found, nil
}

func (f *Fake) DeleteAddress(ctx context.Context, id int64) error {
	done, err := f.enter(ctx, "DeleteAddress")
	if err != nil {
		return err
	}
	defer done()
	out := f.AddressList[:0]
	for _, a := range f.AddressList {
		if a.ID != id {
			out = append(out, a)
		}
	}
	f.AddressList = out
	return nil
}

// orders

func (f *Fake) Orders(ctx context.Context, page int) (domain.Page[domain.Order], error) {
	done, err := f.enter(ctx, "Orders")
	if err != nil {
		return domain.Page[domain.Order]{}, err
	}
	defer done()
	items := append([]domain.Order(nil), f.OrderList...)
	return domain.Page[domain.Order]{Success: true, Data: items, Meta: domain.PageMeta{CurrentPage: page, LastPage: 1, Total: len(items)}}, nil
}

func (f *Fake) Order(ctx context.Context, id int64) (domain.Order, error) {
	done, err := f.enter(ctx, "Order")
	if err != nil {
		return domain.Order{}, err
	}
	defer done()
	for _, o := range f.OrderList {
		if o.ID == id {
			return o, nil
		}
	}
	return domain.Order{}, notFound()
}

func (f *Fake) CreateOrder(ctx context.Context, in domain.PlaceOrder) (domain.Order, error) {
	done, err := f.enter(ctx, "CreateOrder")
	if err != nil {
		return domain.Order{}, err
	}
	defer done()
	if f.CartState.Empty() {
		return domain.Order{}, apiclient.FromStatus(422, "Your cart is empty.", nil)
	}
	id := f.id()
	s := pricing.Calculate(pricing.CartLines(f.CartState.Items))
	o := domain.Order{
		ID:            id,
		OrderNumber:   fmt.Sprintf("EB-%06d", id),
		Status:        domain.OrderPending,
		PaymentMethod: in.PaymentMethod,
		Subtotal:      s.Subtotal,
		VAT:           s.VAT,
		Total:         s.Total,
		Notes:         in.Notes,
		CreatedAt:     time.Now(),
	}
	f.OrderList = append([]domain.Order{o}, f.OrderList...)
	f.CartState.Items = nil
	f.recalc()
	return o, nil
}

func (f *Fake) CancelOrder(ctx context.Context, id int64) (domain.Order, error) {
	done, err := f.enter(ctx, "CancelOrder")
	if err != nil {
		return domain.Order{}, err
	}
	defer done()
	for i, o := range f.OrderList {
		if o.ID != id {
			continue
		}
		if !o.Status.Cancellable() {
			return domain.Order{}, apiclient.FromStatus(422, "This order can no longer be cancelled.", nil)
		}
		f.OrderList[i].Status = domain.OrderCancelled
		return f.OrderList[i], nil
	}
	return domain.Order{}, notFound()
}

// wishlist

func (f *Fake) Wishlist(ctx context.Context) ([]domain.WishlistItem, error) {
	done, err := f.enter(ctx, "Wishlist")
	if err != nil {
		return nil, err
	}
	defer done()
	var out []domain.WishlistItem
	for id, in := range f.Wish {
		if in {
			out = append(out, domain.WishlistItem{ID: id, ProductID: id})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, nil
}

func (f *Fake) ToggleWishlist(ctx context.Context, productID int64) (domain.WishlistToggle, error) {
	done, err := f.enter(ctx, "ToggleWishlist")
	if err != nil {
		return domain.WishlistToggle{}, err
	}
	defer done()
	f.Wish[productID] = !f.Wish[productID]
	return domain.WishlistToggle{ProductID: productID, InWishlist: f.Wish[productID]}, nil
}

// reviews

func (f *Fake) ProductReviews(ctx context.Context, productID int64, page int) (domain.Page[domain.Review], error) {
	done, err := f.enter(ctx, "ProductReviews")
	if err != nil {
		return domain.Page[domain.Review]{}, err
	}
	defer done()
	items := append([]domain.Review(nil), f.ReviewMap[productID]...)
	return domain.Page[domain.Review]{Success: true, Data: items, Meta: domain.PageMeta{CurrentPage: page, LastPage: 1, Total: len(items)}}, nil
}

func (f *Fake) CreateReview(ctx context.Context, productID int64, in domain.NewReview) (domain.Review, error) {
	done, err := f.enter(ctx, "CreateReview")
	if err != nil {
		return domain.Review{}, err
	}
	defer done()
	r := domain.Review{ID: f.id(), ProductID: productID, Rating: in.Rating, Title: in.Title, Comment: in.Comment, AuthorName: in.AuthorName}
	f.ReviewMap[productID] = append(f.ReviewMap[productID], r)
	return r, nil
}

func (f *Fake) DeleteReview(ctx context.Context, reviewID int64) error {
	done, err := f.enter(ctx, "DeleteReview")
	if err != nil {
		return err
	}
	defer done()
	for pid, rs := range f.ReviewMap {
		for i, r := range rs {
			if r.ID == reviewID {
				f.ReviewMap[pid] = append(rs[:i], rs[i+1:]...)
				return nil
			}
		}
	}
	return notFound()
}

func (f *Fake) MarkReviewHelpful(ctx context.Context, reviewID int64) (domain.Review, error) {
	done, err := f.enter(ctx, "MarkReviewHelpful")
	if err != nil {
		return domain.Review{}, err
	}
	defer done()
	for pid, rs := range f.ReviewMap {
		for i := range rs {
			if rs[i].ID == reviewID {
				f.ReviewMap[pid][i].HelpfulCount++
				return f.ReviewMap[pid][i], nil
			}
		}
	}
	return domain.Review{}, notFound()
}
