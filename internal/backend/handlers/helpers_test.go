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
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"easybake/internal/apiclient"
	"easybake/internal/backend/handlers"
	"easybake/internal/backend/repos"
	applog "easybake/internal/log"
)

func newAPI(t *testing.T) (*fiber.App, *sqlx.DB) {
	t.Helper()
	db, err := repos.OpenDB(":memory:", true)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	d := handlers.NewDeps(db, decimal.RequireFromString("0.10"), decimal.RequireFromString("1.000"))
	d.Auth.Cost = bcrypt.MinCost
	return handlers.NewApp(d, handlers.Config{LoginAttempts: 3}), db
}

// client keeps cookies between app.Test calls and echoes the CSRF cookie
// like the storefront's apiclient does.
type client struct {
	t       *testing.T
	app     *fiber.App
	cookies map[string]string
	header  http.Header
}

func newClient(t *testing.T, app *fiber.App) *client {
	return &client{t: t, app: app, cookies: map[string]string{}, header: http.Header{}}
}

func (c *client) do(method, path string, body any) *http.Response {
	c.t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			c.t.Fatalf("marshal: %v", err)
		}
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range c.header {
		req.Header[k] = v
	}
	for name, val := range c.cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: val})
	}
	if tok := c.cookies[apiclient.CSRFCookie]; tok != "" && method != http.MethodGet {
		req.Header.Set(apiclient.CSRFHeader, tok)
	}
	resp, err := c.app.Test(req, -1)
	if err != nil {
		c.t.Fatalf("%s %s: %v", method, path, err)
	}
	for _, ck := range resp.Cookies() {
		if ck.Value == "" || ck.MaxAge < 0 || (!ck.Expires.IsZero() && ck.Expires.Before(time.Now())) {
			delete(c.cookies, ck.Name)
			continue
		}
		c.cookies[ck.Name] = ck.Value
	}
	return resp
}

// csrf fetches the token cookie the way the storefront does before its first
// state-changing call.
func (c *client) csrf() {
	c.t.Helper()
	resp := c.do(http.MethodGet, "/api/sanctum/csrf-cookie", nil)
	if resp.StatusCode != http.StatusNoContent {
		c.t.Fatalf("csrf cookie: got %d", resp.StatusCode)
	}
	if c.cookies[apiclient.CSRFCookie] == "" {
		c.t.Fatalf("no %s cookie issued", apiclient.CSRFCookie)
	}
}

func (c *client) login(email, password string) {
	c.t.Helper()
	resp := c.do(http.MethodPost, "/api/auth/login", map[string]string{"email": email, "password": password})
	if resp.StatusCode != http.StatusOK {
		c.t.Fatalf("login: got %d %+v", resp.StatusCode, decode(c.t, resp))
	}
}

type envelope struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data"`
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
	Meta    struct {
		Total    int `json:"total"`
		LastPage int `json:"last_page"`
	} `json:"meta"`
}

func decode(t *testing.T, resp *http.Response) envelope {
	t.Helper()
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("decode %q: %v", raw, err)
	}
	return env
}

func data[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	env := decode(t, resp)
	var out T
	if err := json.Unmarshal(env.Data, &out); err != nil {
		t.Fatalf("decode data %s: %v", env.Data, err)
	}
	return out
}

type logEntry struct {
	Kind   string `json:"kind"`
	Action string `json:"action"`
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
		if json.Unmarshal([]byte(line), &e) == nil {
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
