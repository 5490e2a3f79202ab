package handlers_test

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"easybake/internal/apiclient/apitest"
)

func TestProtectedPagesRedirectSignedOutVisitors(t *testing.T) {
	b := newBrowser(t, newApp(t, apitest.New()))

	for path, want := range map[string]string{
		"/checkout":          "/login?redirect=%2Fcheckout",
		"/orders/12":         "/login?redirect=%2Forders%2F12",
		"/ar/account":        "/login?redirect=%2Faccount",
		"/en/checkout":       "/login?redirect=%2Fcheckout",
		"/orders/1&next=//x": "/login?redirect=%2Forders%2F1%26next%3D%2F%2Fx",
	} {
		resp := b.do(http.MethodGet, path, nil)
		if resp.StatusCode != http.StatusFound {
			t.Fatalf("%s: expected 302, got %d", path, resp.StatusCode)
		}
		if got := resp.Header.Get("Location"); got != want {
			t.Fatalf("%s: expected redirect to %q, got %q", path, want, got)
		}
	}

	if resp := b.do(http.MethodGet, "/products", nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("public page: expected 200, got %d", resp.StatusCode)
	}
}

func TestGuestOnlyPagesRedirectSignedInVisitors(t *testing.T) {
	b := newBrowser(t, newApp(t, apitest.New()))
	b.cookies["easybake_auth"] = "1"

	resp := b.do(http.MethodGet, "/login", nil)
	if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != "/" {
		t.Fatalf("expected redirect home, got %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}
	if resp := b.do(http.MethodGet, "/checkout", nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("signed-in checkout page: expected 200, got %d", resp.StatusCode)
	}
}

func TestSessionCookieIsIssuedOnce(t *testing.T) {
	b := newBrowser(t, newApp(t, apitest.New()))

	resp := b.do(http.MethodGet, "/", nil)
	sid, ok := cookie(resp, "sid")
	if !ok || sid.Value == "" {
		t.Fatalf("expected sid cookie on first visit")
	}
	if !sid.HttpOnly {
		t.Fatalf("sid cookie must be HttpOnly")
	}

	resp = b.do(http.MethodGet, "/products", nil)
	if _, ok := cookie(resp, "sid"); ok {
		t.Fatalf("sid cookie must not be reissued for a live session")
	}
	if b.cookies["sid"] != sid.Value {
		t.Fatalf("session id changed")
	}
}

func TestLocaleQuerySwitchesDocumentDirection(t *testing.T) {
	b := newBrowser(t, newApp(t, apitest.New()))

	resp := b.do(http.MethodGet, "/?locale=ar", nil)
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `dir="rtl"`) || !strings.Contains(string(body), `lang="ar"`) {
		t.Fatalf("expected rtl arabic shell, got %s", body)
	}
	if b.cookies["locale"] != "ar" {
		t.Fatalf("expected locale cookie ar, got %q", b.cookies["locale"])
	}

	// The cookie carries the choice to later requests.
	resp = b.do(http.MethodGet, "/products", nil)
	body, _ = io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `dir="rtl"`) {
		t.Fatalf("expected locale to persist, got %s", body)
	}

	resp = b.do(http.MethodGet, "/en/products", nil)
	body, _ = io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `dir="ltr"`) || b.cookies["locale"] != "en" {
		t.Fatalf("path prefix should switch back to english")
	}
}

func TestBackendCallsCarryRequestLocale(t *testing.T) {
	api := apitest.New()
	api.Seed(1, "Kunafa", "2.500")
	b := newBrowser(t, newApp(t, api))

	b.do(http.MethodGet, "/bff/products/featured?locale=ar", nil)
	b.do(http.MethodGet, "/bff/products/featured?locale=en", nil)

	got := api.Locales("FeaturedProducts")
	if len(got) != 2 || got[0] != "ar" || got[1] != "en" {
		t.Fatalf("expected one fetch per locale [ar en], got %v", got)
	}
}

func TestUnknownRoutes(t *testing.T) {
	b := newBrowser(t, newApp(t, apitest.New()))

	resp := b.do(http.MethodGet, "/bff/nope", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if env := decode(t, resp); env.Success || env.Message == "" {
		t.Fatalf("expected failure envelope, got %+v", env)
	}

	b.header.Set("Accept", "text/html")
	resp = b.do(http.MethodGet, "/no/such/page", nil)
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "Back to the shop") {
		t.Fatalf("expected not-found page, got %s", body)
	}
}
