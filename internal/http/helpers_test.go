package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"easybake/internal/apiclient/apitest"
	"easybake/internal/http/handlers"
	applog "easybake/internal/log"
	"easybake/internal/storefront"
)

func newApp(t *testing.T, api *apitest.Fake) *fiber.App {
	t.Helper()
	m := storefront.NewManager(storefront.Config{IdleTTL: time.Hour}, storefront.WithAPI(api))
	return handlers.NewApp(handlers.AppConfig{Sessions: m, Currency: "BHD", LoginAttempts: 3})
}

// browser keeps cookies between app.Test calls and echoes the CSRF cookie
// the way the page script does.
type browser struct {
	t       *testing.T
	app     *fiber.App
	cookies map[string]string
	header  http.Header
}

func newBrowser(t *testing.T, app *fiber.App) *browser {
	return &browser{t: t, app: app, cookies: map[string]string{}, header: http.Header{}}
}

func (b *browser) do(method, path string, body any) *http.Response {
	b.t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			b.t.Fatalf("marshal: %v", err)
		}
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range b.header {
		req.Header[k] = v
	}
	for name, val := range b.cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: val})
	}
	if tok := b.cookies["csrf_"]; tok != "" && method != http.MethodGet {
		req.Header.Set(handlers.CSRFHeader, tok)
	}
	resp, err := b.app.Test(req, -1)
	if err != nil {
		b.t.Fatalf("%s %s: %v", method, path, err)
	}
	for _, c := range resp.Cookies() {
		if c.Value == "" || c.MaxAge < 0 || (!c.Expires.IsZero() && c.Expires.Before(time.Now())) {
			delete(b.cookies, c.Name)
			continue
		}
		b.cookies[c.Name] = c.Value
	}
	return resp
}

type envelope struct {
	Success  bool                `json:"success"`
	Data     json.RawMessage     `json:"data"`
	Message  string              `json:"message"`
	Errors   map[string][]string `json:"errors"`
	Redirect string              `json:"redirect"`
	Notices  []struct {
		Level   string `json:"level"`
		Message string `json:"message"`
	} `json:"notices"`
}

func decode(t *testing.T, resp *http.Response) envelope {
	t.Helper()
	defer resp.Body.Close()
	var env envelope
	raw, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("decode %q: %v", raw, err)
	}
	return env
}

func cookie(resp *http.Response, name string) (*http.Cookie, bool) {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

type logEntry struct {
	Kind   string         `json:"kind"`
	Action string         `json:"action"`
	Fields map[string]any `json:"fields"`
}

type lockedBuf struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (l *lockedBuf) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.Write(p)
}

// captureLogs collects structured log entries written while fn runs.
func captureLogs(t *testing.T, fn func()) []logEntry {
	t.Helper()
	buf := &lockedBuf{}
	applog.SetOutput(buf)
	defer applog.SetOutput(os.Stderr)

	fn()

	buf.mu.Lock()
	defer buf.mu.Unlock()
	var entries []logEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.b.String()), "\n") {
		var e logEntry
		if err := json.Unmarshal([]byte(line), &e); err == nil && e.Action != "" {
			entries = append(entries, e)
		}
	}
	return entries
}

func hasAction(entries []logEntry, kind, action string) bool {
	for _, e := range entries {
		if e.Kind == kind && e.Action == action {
			return true
		}
	}
	return false
}
