package handlers_test

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"easybake/internal/apiclient/apitest"
	"easybake/internal/domain"
)

func TestMutationWithoutCSRFTokenIsRejected(t *testing.T) {
	api := apitest.New()
	api.Seed(1, "Kunafa", "2.500")
	b := newBrowser(t, newApp(t, api))

	var resp *http.Response
	entries := captureLogs(t, func() {
		resp = b.do(http.MethodPost, "/bff/cart", map[string]any{"product_id": 1, "quantity": 1})
	})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
	if !hasAction(entries, "security", "csrf.fail") {
		t.Fatalf("expected csrf.fail security log, got %+v", entries)
	}
	if api.Calls("AddCartItem") != 0 {
		t.Fatalf("backend must not be called")
	}

	// Once the page has handed out a token the same request goes through.
	b.do(http.MethodGet, "/", nil)
	resp = b.do(http.MethodPost, "/bff/cart", map[string]any{"product_id": 1, "quantity": 1})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", resp.StatusCode)
	}
}

func TestLoginAndLogoutMaintainAuthCookie(t *testing.T) {
	b := newBrowser(t, newApp(t, apitest.New()))

	resp := b.do(http.MethodGet, "/bff/session", nil)
	env := decode(t, resp)
	if !env.Success || len(env.Notices) != 0 {
		t.Fatalf("guest session must load silently, got %+v", env)
	}
	if _, ok := b.cookies["easybake_auth"]; ok {
		t.Fatalf("guest must not get an auth cookie")
	}

	var entries []logEntry
	entries = captureLogs(t, func() {
		resp = b.do(http.MethodPost, "/bff/auth/login", domain.Credentials{Email: "sara@example.com", Password: "Secret123"})
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: expected 200, got %d", resp.StatusCode)
	}
	if b.cookies["easybake_auth"] == "" {
		t.Fatalf("expected auth cookie after login")
	}
	if !hasAction(entries, "audit", "auth.login.success") {
		t.Fatalf("expected login audit entry, got %+v", entries)
	}

	if resp := b.do(http.MethodGet, "/checkout", nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("checkout page after login: expected 200, got %d", resp.StatusCode)
	}

	resp = b.do(http.MethodPost, "/bff/auth/logout", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", resp.StatusCode)
	}
	if _, ok := b.cookies["easybake_auth"]; ok {
		t.Fatalf("expected auth cookie to be cleared on logout")
	}
}

func TestStaleAuthCookieIsCleared(t *testing.T) {
	b := newBrowser(t, newApp(t, apitest.New()))
	b.cookies["easybake_auth"] = "1"

	b.do(http.MethodGet, "/bff/session", nil)
	if _, ok := b.cookies["easybake_auth"]; ok {
		t.Fatalf("expected stale auth cookie to be expired once the backend says guest")
	}
}

func TestLoginValidationReturnsFieldErrors(t *testing.T) {
	api := apitest.New()
	b := newBrowser(t, newApp(t, api))
	b.do(http.MethodGet, "/", nil)

	resp := b.do(http.MethodPost, "/bff/auth/login", domain.Credentials{Email: "not-an-email"})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
	env := decode(t, resp)
	if len(env.Errors["email"]) == 0 || len(env.Errors["password"]) == 0 {
		t.Fatalf("expected email and password errors, got %+v", env.Errors)
	}
	if api.Calls("Login") != 0 {
		t.Fatalf("invalid input must not reach the backend")
	}
}

func TestLoginAttemptsAreRateLimited(t *testing.T) {
	b := newBrowser(t, newApp(t, apitest.New()))
	b.do(http.MethodGet, "/", nil)

	creds := domain.Credentials{Email: "sara@example.com", Password: "wrong"}
	for i := 0; i < 3; i++ {
		b.do(http.MethodPost, "/bff/auth/login", creds)
	}
	var resp *http.Response
	entries := captureLogs(t, func() {
		resp = b.do(http.MethodPost, "/bff/auth/login", creds)
	})
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", resp.StatusCode)
	}
	if !hasAction(entries, "security", "rate.login.hit") {
		t.Fatalf("expected rate.login.hit security log, got %+v", entries)
	}
}

func TestBackendFailureDoesNotLeakDetails(t *testing.T) {
	api := apitest.New()
	api.SetFail("FeaturedProducts", errors.New("dial tcp 10.0.0.7:5432: secret-dsn"))
	b := newBrowser(t, newApp(t, api))

	var resp *http.Response
	entries := captureLogs(t, func() {
		resp = b.do(http.MethodGet, "/bff/products/featured", nil)
	})
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if strings.Contains(string(body), "secret-dsn") || strings.Contains(string(body), "10.0.0.7") {
		t.Fatalf("internal error leaked: %s", body)
	}
	if !hasAction(entries, "error", "catalog.featured") {
		t.Fatalf("expected error log entry, got %+v", entries)
	}
}

func TestUIActionsToggleDrawer(t *testing.T) {
	b := newBrowser(t, newApp(t, apitest.New()))
	b.do(http.MethodGet, "/", nil)

	env := decode(t, b.do(http.MethodPost, "/bff/ui/cart.open", nil))
	var data struct {
		UI struct {
			CartOpen bool `json:"cart_open"`
		} `json:"ui"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil || !data.UI.CartOpen {
		t.Fatalf("expected drawer open, got %s (%v)", env.Data, err)
	}
	if resp := b.do(http.MethodPost, "/bff/ui/launch-rockets", nil); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown action: expected 404, got %d", resp.StatusCode)
	}
}

func TestCatalogNavigationShowsTopLevelCategories(t *testing.T) {
	api := apitest.New()
	parent := int64(1)
	api.CategoryList = []domain.Category{
		{ID: 1, Slug: "breads", Name: "Breads", Children: []domain.Category{{ID: 3, Slug: "sourdough", ParentID: &parent}}},
		{ID: 2, Slug: "cakes", Name: "Cakes"},
		{ID: 3, Slug: "sourdough", ParentID: &parent},
	}
	b := newBrowser(t, newApp(t, api))

	env := decode(t, b.do(http.MethodGet, "/bff/categories", nil))
	var cats []domain.Category
	if err := json.Unmarshal(env.Data, &cats); err != nil {
		t.Fatalf("decode categories: %v", err)
	}
	if len(cats) != 2 || cats[0].Slug != "breads" || cats[1].Slug != "cakes" {
		t.Fatalf("expected the two top-level categories, got %+v", cats)
	}
	if len(cats[0].Children) != 1 {
		t.Fatalf("children must be kept under their parent, got %+v", cats[0].Children)
	}
}

func TestProductViewCarriesPrimaryImage(t *testing.T) {
	api := apitest.New()
	p := api.Seed(1, "Kunafa", "2.500")
	p.Images = []domain.ProductImage{{ID: 1, URL: "/media/side.jpg"}, {ID: 2, URL: "/media/front.jpg", IsPrimary: true}}
	api.Catalog[1] = p
	b := newBrowser(t, newApp(t, api))

	env := decode(t, b.do(http.MethodGet, "/bff/products/1", nil))
	var data struct {
		Image string `json:"image"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode product: %v", err)
	}
	if data.Image != "/media/front.jpg" {
		t.Fatalf("expected primary image, got %q", data.Image)
	}
}
