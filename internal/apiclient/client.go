// Package apiclient is the single chokepoint for calls to the REST backend.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"easybake/internal/domain"
	applog "easybake/internal/log"
)

// Cookie and header names shared with the backend.
const (
	CSRFCookie      = "XSRF-TOKEN"
	CSRFHeader      = "X-XSRF-TOKEN"
	CartTokenCookie = "cart_token"
)

const maxResponseBody = 4 << 20

type Config struct {
	BaseURL     string
	CSRFPath    string
	Timeout     time.Duration
	MaxAttempts int
	BaseBackoff time.Duration
	// Debug logs every attempt. Enabled outside production.
	Debug bool
}

func (c *Config) defaults() {
	if c.CSRFPath == "" {
		c.CSRFPath = "/sanctum/csrf-cookie"
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.BaseBackoff <= 0 {
		c.BaseBackoff = 300 * time.Millisecond
	}
}

// Client talks to the backend on behalf of one browser session. Cookies the
// backend sets (session, cart token, CSRF) live in the client's jar.
type Client struct {
	cfg   Config
	base  *url.URL
	jar   http.CookieJar
	http  *http.Client
	sleep func(context.Context, time.Duration) error
}

type Option func(*Client)

// WithTransport replaces the HTTP transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.http.Transport = rt }
}

// WithSleep replaces the backoff sleeper. Tests use it to skip waiting.
func WithSleep(fn func(context.Context, time.Duration) error) Option {
	return func(c *Client) { c.sleep = fn }
}

func New(cfg Config, opts ...Option) (*Client, error) {
	cfg.defaults()
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("apiclient: bad base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("apiclient: base url %q needs scheme and host", cfg.BaseURL)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	c := &Client{
		cfg:   cfg,
		base:  base,
		jar:   jar,
		http:  &http.Client{Jar: jar},
		sleep: sleepCtx,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// HasCookie reports whether the backend has set the named cookie.
func (c *Client) HasCookie(name string) bool {
	_, ok := c.cookie(name)
	return ok
}

func (c *Client) cookie(name string) (string, bool) {
	for _, ck := range c.jar.Cookies(c.base) {
		if ck.Name == name && ck.Value != "" {
			return ck.Value, true
		}
	}
	return "", false
}

func (c *Client) csrfToken() string {
	v, ok := c.cookie(CSRFCookie)
	if !ok {
		return ""
	}
	if dec, err := url.QueryUnescape(v); err == nil {
		return dec
	}
	return v
}

func (c *Client) dropCSRF() {
	c.jar.SetCookies(c.base, []*http.Cookie{{Name: CSRFCookie, Value: "", Path: "/", MaxAge: -1}})
}

// ensureCSRF fetches the CSRF cookie once, before the first state-changing call.
func (c *Client) ensureCSRF(ctx context.Context) error {
	if c.csrfToken() != "" {
		return nil
	}
	if err := c.attempt(ctx, http.MethodGet, c.endpoint(c.cfg.CSRFPath, nil), nil, nil, 1); err != nil {
		return err
	}
	return nil
}

func (c *Client) endpoint(path string, q url.Values) string {
	u := *c.base
	u.Path = c.base.Path + "/" + strings.TrimLeft(path, "/")
	if len(q) > 0 {
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func idempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}

func safe(method string) bool {
	return method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions
}

func (c *Client) backoff(retry int) time.Duration {
	return c.cfg.BaseBackoff << (retry - 1)
}

// Do sends one logical request. Idempotent methods are retried on network
// errors, timeouts and 5xx responses; 4xx responses are returned at once.
// out receives the decoded JSON body of a 2xx response.
func (c *Client) Do(ctx context.Context, method, path string, q url.Values, body, out any) error {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return &Error{Kind: KindBadRequest, Message: MsgBadRequest, Err: err}
		}
		payload = b
	}
	if !safe(method) {
		if err := c.ensureCSRF(ctx); err != nil {
			return err
		}
	}
	attempts := 1
	if idempotent(method) {
		attempts = c.cfg.MaxAttempts
	}
	target := c.endpoint(path, q)

	var last *Error
	for n := 1; n <= attempts; n++ {
		if n > 1 {
			if err := c.sleep(ctx, c.backoff(n-1)); err != nil {
				return fromTransport(err)
			}
		}
		last = c.attempt(ctx, method, target, payload, out, n)
		if last == nil {
			return nil
		}
		if last.Kind == KindSessionExpired {
			c.dropCSRF()
		}
		if !last.Kind.Transient() || ctx.Err() != nil {
			break
		}
	}
	return last
}

func (c *Client) attempt(ctx context.Context, method, target string, payload []byte, out any, n int) *Error {
	actx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	var rdr io.Reader
	if payload != nil {
		rdr = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(actx, method, target, rdr)
	if err != nil {
		return &Error{Kind: KindBadRequest, Message: MsgBadRequest, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", LocaleFrom(ctx))
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if !safe(method) {
		if tok := c.csrfToken(); tok != "" {
			req.Header.Set(CSRFHeader, tok)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			err = errors.Join(ctx.Err(), err)
		}
		ae := fromTransport(err)
		c.trace(method, target, 0, n, start, ae)
		return ae
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		ae := fromTransport(err)
		c.trace(method, target, resp.StatusCode, n, start, ae)
		return ae
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		c.trace(method, target, resp.StatusCode, n, start, nil)
		if out == nil || len(bytes.TrimSpace(data)) == 0 {
			return nil
		}
		if err := json.Unmarshal(data, out); err != nil {
			return &Error{Kind: KindUnknown, Status: resp.StatusCode, Message: MsgUnknown, Err: fmt.Errorf("decode response: %w", err)}
		}
		return nil
	}

	var eb domain.ErrorBody
	_ = json.Unmarshal(data, &eb)
	ae := FromStatus(resp.StatusCode, eb.Message, eb.Errors)
	c.trace(method, target, resp.StatusCode, n, start, ae)
	return ae
}

func (c *Client) trace(method, target string, status, n int, start time.Time, err *Error) {
	if !c.cfg.Debug {
		return
	}
	ev := applog.Debug().
		Str("method", method).
		Str("url", target).
		Int("status", status).
		Int("attempt", n).
		Dur("latency", time.Since(start))
	if err != nil {
		ev = ev.Str("error_kind", err.Kind.String())
	}
	ev.Msg("backend request")
}
