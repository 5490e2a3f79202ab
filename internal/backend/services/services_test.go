package services_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"easybake/internal/backend/repos"
	"easybake/internal/backend/services"
	"easybake/internal/domain"
)

type fixture struct {
	db       *sqlx.DB
	auth     *services.AuthService
	catalog  *services.CatalogService
	cart     *services.CartService
	orders   *services.OrderService
	account  *services.AccountService
	reviews  *services.ReviewService
	products *repos.ProductRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := repos.OpenDB(":memory:", true)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	users := repos.NewUserRepo(db)
	products := repos.NewProductRepo(db)
	carts := repos.NewCartRepo(db)
	orders := repos.NewOrderRepo(db)
	addrs := repos.NewAddressRepo(db)
	vat := decimal.RequireFromString("0.10")

	auth := services.NewAuthService(users, carts)
	auth.Cost = bcrypt.MinCost
	return &fixture{
		db:       db,
		auth:     auth,
		catalog:  services.NewCatalogService(products, repos.NewCategoryRepo(db)),
		cart:     services.NewCartService(carts, products, vat),
		orders:   services.NewOrderService(orders, carts, addrs, vat, decimal.RequireFromString("1.000")),
		account:  services.NewAccountService(addrs, repos.NewWishlistRepo(db, products), products),
		reviews:  services.NewReviewService(repos.NewReviewRepo(db), products, orders),
		products: products,
	}
}

func (f *fixture) register(t *testing.T, sid, email string) domain.User {
	t.Helper()
	u, err := f.auth.Register(sid, "", domain.LocaleEN, domain.Registration{
		Name: "Sara", Email: email, Password: "Secret123", PasswordConfirmation: "Secret123",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return u
}

func validationFields(t *testing.T, err error) map[string][]string {
	t.Helper()
	var ve *services.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
	return ve.Fields
}

var homeAddress = domain.AddressInput{RecipientName: "Sara", Phone: "+973 3333 4444", Area: "Seef", Street: "2801", Building: "3"}

const (
	sourdough     = 1
	chocolateCake = 4
	maamoul       = 6
)

func TestOrderFlow_AddCartCheckout(t *testing.T) {
	f := newFixture(t)
	u := f.register(t, "sid-1", "sara@example.com")
	owner := repos.Owner{UserID: u.ID}

	cart, err := f.cart.Add(owner, domain.AddCartItem{ProductID: sourdough, Quantity: 2}, domain.LocaleEN)
	if err != nil {
		t.Fatal(err)
	}
	if cart.ItemsCount != 2 || !cart.Total.Equal(decimal.RequireFromString("2.64")) {
		t.Fatalf("bad cart: count=%d total=%s", cart.ItemsCount, cart.Total)
	}

	addr, err := f.account.CreateAddress(u.ID, homeAddress)
	if err != nil {
		t.Fatal(err)
	}
	o, err := f.orders.Place(u.ID, domain.PlaceOrder{AddressID: &addr.ID, PaymentMethod: services.PaymentCashOnDelivery}, domain.LocaleEN)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(o.OrderNumber, "EB-") || o.Status != domain.OrderPending {
		t.Fatalf("bad order: %+v", o)
	}
	if !o.Total.Equal(decimal.RequireFromString("3.64")) || !o.DeliveryFee.Equal(decimal.RequireFromString("1")) {
		t.Fatalf("bad totals: total=%s delivery=%s", o.Total, o.DeliveryFee)
	}
	if len(o.Items) != 1 || o.Items[0].ProductName != "Sourdough Loaf" || o.ShippingAddress == nil {
		t.Fatalf("order snapshot incomplete: %+v", o)
	}

	// stock went from 40 to 38 and the cart is empty
	p, _ := f.products.Get(sourdough, domain.LocaleEN)
	if p.StockQuantity != 38 {
		t.Fatalf("want stock 38, got %d", p.StockQuantity)
	}
	cart, _ = f.cart.View(owner, domain.LocaleEN)
	if !cart.Empty() {
		t.Fatalf("cart should be empty after checkout")
	}
}

func TestPlaceOrderRules(t *testing.T) {
	f := newFixture(t)
	u := f.register(t, "sid-1", "sara@example.com")
	addr, _ := f.account.CreateAddress(u.ID, homeAddress)

	_, err := f.orders.Place(u.ID, domain.PlaceOrder{AddressID: &addr.ID, PaymentMethod: services.PaymentCashOnDelivery}, domain.LocaleEN)
	if fields := validationFields(t, err); len(fields["cart"]) == 0 {
		t.Fatalf("empty cart must be refused, got %v", fields)
	}

	if _, err := f.cart.Add(repos.Owner{UserID: u.ID}, domain.AddCartItem{ProductID: sourdough, Quantity: 1}, domain.LocaleEN); err != nil {
		t.Fatal(err)
	}
	_, err = f.orders.Place(u.ID, domain.PlaceOrder{AddressID: &addr.ID, PaymentMethod: "card"}, domain.LocaleEN)
	if fields := validationFields(t, err); len(fields["payment_method"]) == 0 {
		t.Fatalf("card must be refused, got %v", fields)
	}

	inline := homeAddress
	_, err = f.orders.Place(u.ID, domain.PlaceOrder{AddressID: &addr.ID, ShippingAddress: &inline, PaymentMethod: services.PaymentCashOnDelivery}, domain.LocaleEN)
	if fields := validationFields(t, err); len(fields["address_id"]) == 0 {
		t.Fatalf("both addresses must be refused, got %v", fields)
	}

	bad := domain.AddressInput{RecipientName: "Sara"}
	_, err = f.orders.Place(u.ID, domain.PlaceOrder{ShippingAddress: &bad, PaymentMethod: services.PaymentCashOnDelivery}, domain.LocaleEN)
	if fields := validationFields(t, err); len(fields["shipping_address.phone"]) == 0 {
		t.Fatalf("expected prefixed address errors, got %v", fields)
	}

	// someone else's address is not usable
	other := f.register(t, "sid-2", "omar@example.com")
	_, err = f.orders.Place(other.ID, domain.PlaceOrder{AddressID: &addr.ID, PaymentMethod: services.PaymentCashOnDelivery}, domain.LocaleEN)
	if fields := validationFields(t, err); len(fields["address_id"]) == 0 {
		t.Fatalf("foreign address must be refused, got %v", fields)
	}
}

func TestCancelOrderRestoresStock(t *testing.T) {
	f := newFixture(t)
	u := f.register(t, "sid-1", "sara@example.com")
	small := int64(1)
	if _, err := f.cart.Add(repos.Owner{UserID: u.ID}, domain.AddCartItem{ProductID: chocolateCake, VariantID: &small, Quantity: 3}, domain.LocaleEN); err != nil {
		t.Fatal(err)
	}
	inline := homeAddress
	o, err := f.orders.Place(u.ID, domain.PlaceOrder{ShippingAddress: &inline, PaymentMethod: services.PaymentCashOnDelivery}, domain.LocaleEN)
	if err != nil {
		t.Fatal(err)
	}
	if o.Items[0].VariantName != "Small (6 inch)" || !o.Items[0].UnitPrice.Equal(decimal.RequireFromString("6.5")) {
		t.Fatalf("variant not snapshotted: %+v", o.Items[0])
	}

	o, err = f.orders.Cancel(u.ID, o.ID)
	if err != nil {
		t.Fatal(err)
	}
	if o.Status != domain.OrderCancelled || len(o.StatusHistory) != 2 {
		t.Fatalf("bad cancel: status=%s history=%d", o.Status, len(o.StatusHistory))
	}
	p, _ := f.products.Get(chocolateCake, domain.LocaleEN)
	if p.Variants[0].StockQuantity != 10 {
		t.Fatalf("want variant stock restored to 10, got %d", p.Variants[0].StockQuantity)
	}

	if _, err := f.orders.Cancel(u.ID, o.ID); err == nil {
		t.Fatalf("cancelled order must not be cancelled again")
	}
	if _, err := f.orders.Get(u.ID+1, o.ID); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("other users must not see the order, got %v", err)
	}
}

func TestCartStockAndAvailability(t *testing.T) {
	f := newFixture(t)
	owner := repos.Owner{Token: "guest-token"}

	_, err := f.cart.Add(owner, domain.AddCartItem{ProductID: maamoul, Quantity: 1}, domain.LocaleEN)
	if fields := validationFields(t, err); len(fields["product_id"]) == 0 {
		t.Fatalf("unavailable product must be refused, got %v", fields)
	}
	_, err = f.cart.Add(owner, domain.AddCartItem{ProductID: chocolateCake, Quantity: 1}, domain.LocaleEN)
	if fields := validationFields(t, err); len(fields["variant_id"]) == 0 {
		t.Fatalf("variant must be required, got %v", fields)
	}
	large := int64(2)
	_, err = f.cart.Add(owner, domain.AddCartItem{ProductID: chocolateCake, VariantID: &large, Quantity: 5}, domain.LocaleEN)
	if fields := validationFields(t, err); len(fields["quantity"]) == 0 {
		t.Fatalf("quantity above stock must be refused, got %v", fields)
	}

	cart, err := f.cart.Add(owner, domain.AddCartItem{ProductID: sourdough, Quantity: 1}, domain.LocaleAR)
	if err != nil {
		t.Fatal(err)
	}
	cart, err = f.cart.Add(owner, domain.AddCartItem{ProductID: sourdough, Quantity: 2}, domain.LocaleAR)
	if err != nil {
		t.Fatal(err)
	}
	if len(cart.Items) != 1 || cart.Items[0].Quantity != 3 {
		t.Fatalf("same product must merge into one line: %+v", cart.Items)
	}
	if cart.Items[0].Product.Name != "خبز العجين المخمر" {
		t.Fatalf("expected arabic name, got %q", cart.Items[0].Product.Name)
	}
	if _, err := f.cart.Update(owner, cart.Items[0].ID, 100, domain.LocaleEN); err == nil {
		t.Fatalf("quantity above 99 must be refused")
	}
	if _, err := f.cart.Remove(owner, 9999, domain.LocaleEN); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("unknown line: want ErrNotFound, got %v", err)
	}
}

func TestLoginMergesGuestCart(t *testing.T) {
	f := newFixture(t)
	u := f.register(t, "sid-1", "sara@example.com")
	if _, err := f.cart.Add(repos.Owner{UserID: u.ID}, domain.AddCartItem{ProductID: sourdough, Quantity: 1}, domain.LocaleEN); err != nil {
		t.Fatal(err)
	}
	if err := f.auth.Logout("sid-1"); err != nil {
		t.Fatal(err)
	}

	guest := repos.Owner{Token: "tok"}
	for _, pid := range []int64{sourdough, 2} {
		if _, err := f.cart.Add(guest, domain.AddCartItem{ProductID: pid, Quantity: 2}, domain.LocaleEN); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := f.auth.Login("sid-2", "tok", domain.Credentials{Email: "SARA@example.com", Password: "Secret123"}); err != nil {
		t.Fatal(err)
	}
	cart, _ := f.cart.View(repos.Owner{UserID: u.ID}, domain.LocaleEN)
	if len(cart.Items) != 2 || cart.ItemsCount != 5 {
		t.Fatalf("expected merged cart with 5 items, got %+v", cart)
	}
	if g, _ := f.cart.View(guest, domain.LocaleEN); !g.Empty() {
		t.Fatalf("guest cart should be gone")
	}
	if cur, err := f.auth.Current("sid-2"); err != nil || cur.ID != u.ID {
		t.Fatalf("session not bound: %v", err)
	}
	if _, err := f.auth.Current("sid-1"); !errors.Is(err, services.ErrUnauthenticated) {
		t.Fatalf("logged out session must be a guest, got %v", err)
	}
}

func TestAuthRules(t *testing.T) {
	f := newFixture(t)
	f.register(t, "sid-1", "sara@example.com")

	_, err := f.auth.Register("sid-2", "", domain.LocaleEN, domain.Registration{
		Name: "Sara", Email: "sara@example.com", Password: "Secret123", PasswordConfirmation: "Secret123",
	})
	if fields := validationFields(t, err); len(fields["email"]) == 0 {
		t.Fatalf("duplicate email must be refused, got %v", fields)
	}

	_, err = f.auth.Login("sid-3", "", domain.Credentials{Email: "sara@example.com", Password: "wrong"})
	if fields := validationFields(t, err); len(fields["email"]) == 0 {
		t.Fatalf("bad password must be refused, got %v", fields)
	}

	u, _ := f.auth.Current("sid-1")
	err = f.auth.ChangePassword(u.ID, domain.PasswordChange{CurrentPassword: "nope", Password: "Better456", PasswordConfirmation: "Better456"})
	if fields := validationFields(t, err); len(fields["current_password"]) == 0 {
		t.Fatalf("wrong current password must be refused, got %v", fields)
	}
	if err := f.auth.ChangePassword(u.ID, domain.PasswordChange{CurrentPassword: "Secret123", Password: "Better456", PasswordConfirmation: "Better456"}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.auth.Login("sid-4", "", domain.Credentials{Email: "sara@example.com", Password: "Better456"}); err != nil {
		t.Fatalf("new password should work: %v", err)
	}
}

func TestDefaultAddressStaysUnique(t *testing.T) {
	f := newFixture(t)
	u := f.register(t, "sid-1", "sara@example.com")

	first, _ := f.account.CreateAddress(u.ID, homeAddress)
	second, _ := f.account.CreateAddress(u.ID, homeAddress)
	if !first.IsDefault || second.IsDefault {
		t.Fatalf("first address should become default")
	}
	if _, err := f.account.SetDefaultAddress(u.ID, second.ID); err != nil {
		t.Fatal(err)
	}
	list, _ := f.account.Addresses(u.ID)
	defaults := 0
	for _, a := range list {
		if a.IsDefault {
			defaults++
		}
	}
	if defaults != 1 || list[0].ID != second.ID {
		t.Fatalf("expected exactly one default, listed first: %+v", list)
	}

	if err := f.account.DeleteAddress(u.ID, second.ID); err != nil {
		t.Fatal(err)
	}
	list, _ = f.account.Addresses(u.ID)
	if len(list) != 1 || !list[0].IsDefault {
		t.Fatalf("remaining address should take over as default: %+v", list)
	}
	if err := f.account.DeleteAddress(u.ID+1, first.ID); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("foreign address: want ErrNotFound, got %v", err)
	}
}

func TestReviewRules(t *testing.T) {
	f := newFixture(t)
	u := f.register(t, "sid-1", "sara@example.com")

	_, err := f.reviews.Create(nil, sourdough, domain.NewReview{Rating: 5, Comment: "Lovely"})
	if fields := validationFields(t, err); len(fields["author_name"]) == 0 {
		t.Fatalf("guest review needs a name, got %v", fields)
	}
	guest, err := f.reviews.Create(nil, sourdough, domain.NewReview{Rating: 4, Comment: "Lovely", AuthorName: "Visitor"})
	if err != nil || guest.UserID != nil {
		t.Fatalf("guest review: %+v %v", guest, err)
	}

	mine, err := f.reviews.Create(&u, sourdough, domain.NewReview{Rating: 2, Comment: "Too sour"})
	if err != nil {
		t.Fatal(err)
	}
	if mine.IsVerifiedPurchase {
		t.Fatalf("no delivered order, must not be verified")
	}
	if _, err := f.reviews.Create(&u, sourdough, domain.NewReview{Rating: 3, Comment: "Again"}); err == nil {
		t.Fatalf("second review by the same user must be refused")
	}

	p, _ := f.products.Get(sourdough, domain.LocaleEN)
	if p.ReviewsCount != 2 || p.AverageRating != 3 {
		t.Fatalf("rating not refreshed: count=%d avg=%v", p.ReviewsCount, p.AverageRating)
	}

	if err := f.reviews.Delete(u.ID, guest.ID); !errors.Is(err, services.ErrForbidden) {
		t.Fatalf("deleting someone else's review: want ErrForbidden, got %v", err)
	}

	rv, _ := f.reviews.Helpful(mine.ID, "s:abc")
	rv, _ = f.reviews.Helpful(mine.ID, "s:abc")
	if rv.HelpfulCount != 1 {
		t.Fatalf("one vote per voter, got %d", rv.HelpfulCount)
	}

	if err := f.reviews.Delete(u.ID, mine.ID); err != nil {
		t.Fatal(err)
	}
	page, _ := f.reviews.List(sourdough, 1)
	if page.Meta.Total != 1 {
		t.Fatalf("want 1 review left, got %d", page.Meta.Total)
	}
}

func TestVerifiedPurchase(t *testing.T) {
	f := newFixture(t)
	u := f.register(t, "sid-1", "sara@example.com")
	f.cart.Add(repos.Owner{UserID: u.ID}, domain.AddCartItem{ProductID: sourdough, Quantity: 1}, domain.LocaleEN)
	inline := homeAddress
	o, err := f.orders.Place(u.ID, domain.PlaceOrder{ShippingAddress: &inline, PaymentMethod: services.PaymentCashOnDelivery}, domain.LocaleEN)
	if err != nil {
		t.Fatal(err)
	}
	f.db.MustExec(`UPDATE orders SET status = 'delivered' WHERE id = ?`, o.ID)

	rv, err := f.reviews.Create(&u, sourdough, domain.NewReview{Rating: 5, Comment: "Perfect crust"})
	if err != nil || !rv.IsVerifiedPurchase {
		t.Fatalf("expected verified review, got %+v %v", rv, err)
	}
	if _, err := f.orders.Cancel(u.ID, o.ID); err == nil {
		t.Fatalf("delivered order must not be cancellable")
	}
}

func TestCatalogLocalizationAndFilters(t *testing.T) {
	f := newFixture(t)

	page, err := f.catalog.List(domain.ProductQuery{CategoryID: 4}, domain.LocaleAR)
	if err != nil {
		t.Fatal(err)
	}
	// arabic sweets includes its kunafa subcategory
	if page.Meta.Total != 2 {
		t.Fatalf("want 2 products under arabic sweets, got %d", page.Meta.Total)
	}
	for _, p := range page.Data {
		if p.Name == p.Translations[domain.LocaleEN].Name {
			t.Fatalf("expected arabic names, got %q", p.Name)
		}
	}

	page, _ = f.catalog.List(domain.ProductQuery{Search: "كنافة"}, domain.LocaleEN)
	if page.Meta.Total != 1 || page.Data[0].Name != "Kunafa Nabulsiya" {
		t.Fatalf("arabic search: %+v", page.Data)
	}

	page, _ = f.catalog.List(domain.ProductQuery{Sort: "price_asc", PerPage: 2, Page: 2}, domain.LocaleEN)
	if page.Meta.LastPage != 3 || page.Links.Prev == "" || page.Links.Next == "" || len(page.Data) != 2 {
		t.Fatalf("bad paging: %+v", page.Meta)
	}

	c, err := f.catalog.Category("arabic-sweets", domain.LocaleEN)
	if err != nil || len(c.Children) != 1 {
		t.Fatalf("category by slug: %+v %v", c, err)
	}
	if _, err := f.catalog.Category("9999", domain.LocaleEN); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	tree, _ := f.catalog.Categories(domain.LocaleEN)
	if len(tree) != 4 {
		t.Fatalf("want 4 root categories, got %d", len(tree))
	}
}
