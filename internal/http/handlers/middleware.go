package handlers

import (
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"easybake/internal/apiclient"
	"easybake/internal/domain"
	applog "easybake/internal/log"
	"easybake/internal/storefront"
)

// Cookie and header names of the browser-facing surface.
const (
	SessionCookie   = "sid"
	AuthCookie      = "easybake_auth"
	LocaleCookie    = "locale"
	CartTokenHeader = "X-Cart-Token"
)

const (
	localsSession = "session"
	localsLocale  = "locale"
)

func sessionOf(c *fiber.Ctx) *storefront.Session {
	s, _ := c.Locals(localsSession).(*storefront.Session)
	return s
}

func localeOf(c *fiber.Ctx) string {
	if l, ok := c.Locals(localsLocale).(string); ok {
		return l
	}
	return domain.LocaleEN
}

// Sessions attaches the caller's storefront session, creating one (and its
// sid cookie) on first contact or after the old one expired.
func Sessions(m *storefront.Manager, secure bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, ok := m.Get(c.Cookies(SessionCookie))
		if !ok {
			var err error
			if s, err = m.Create(); err != nil {
				return err
			}
			c.Cookie(&fiber.Cookie{
				Name:     SessionCookie,
				Value:    s.ID,
				Path:     "/",
				HTTPOnly: true,
				SameSite: fiber.CookieSameSiteLaxMode,
				Secure:   secure,
			})
			applog.Debug().Str("sid", s.ID).Msg("session.created")
		}
		c.Locals(localsSession, s)

		err := c.Next()
		syncAuthCookie(c, s, secure)
		if s.HasCartToken() {
			c.Set(CartTokenHeader, "present")
		}
		return err
	}
}

// syncAuthCookie mirrors what the session last learned about sign-in into
// the advisory easybake_auth cookie. Nothing changes while it is unknown.
func syncAuthCookie(c *fiber.Ctx, s *storefront.Session, secure bool) {
	signedIn, known := s.AuthState()
	if !known {
		return
	}
	has := c.Cookies(AuthCookie) != ""
	switch {
	case signedIn && !has:
		c.Cookie(&fiber.Cookie{Name: AuthCookie, Value: "1", Path: "/", SameSite: fiber.CookieSameSiteLaxMode, Secure: secure})
	case !signedIn && has:
		c.Cookie(&fiber.Cookie{Name: AuthCookie, Value: "", Path: "/", SameSite: fiber.CookieSameSiteLaxMode, Secure: secure, Expires: time.Now().Add(-time.Hour)})
	}
}

// resolveLocale picks ?locale, then the locale cookie, then Accept-Language.
func resolveLocale(c *fiber.Ctx) (locale string, explicit bool) {
	if q := c.Query("locale"); q == domain.LocaleEN || q == domain.LocaleAR {
		return q, true
	}
	if ck := c.Cookies(LocaleCookie); ck == domain.LocaleEN || ck == domain.LocaleAR {
		return ck, false
	}
	if al := c.AcceptsLanguages(domain.LocaleEN, domain.LocaleAR); al != "" {
		return al, false
	}
	return domain.LocaleEN, false
}

// Locale stores the request locale and forwards it to backend calls.
func Locale() fiber.Handler {
	return func(c *fiber.Ctx) error {
		locale, explicit := resolveLocale(c)
		if path := c.Path(); stripLocale(path) != path {
			locale, explicit = path[1:3], true
		}
		if explicit && c.Cookies(LocaleCookie) != locale {
			c.Cookie(&fiber.Cookie{Name: LocaleCookie, Value: locale, Path: "/", SameSite: fiber.CookieSameSiteLaxMode, MaxAge: 365 * 24 * 3600})
		}
		c.Locals(localsLocale, locale)
		c.SetUserContext(apiclient.WithLocale(c.UserContext(), locale))
		return c.Next()
	}
}

var (
	protectedPrefixes = []string{"/checkout", "/orders", "/account"}
	guestOnly         = []string{"/login", "/register"}
)

// stripLocale removes a leading /en or /ar segment.
func stripLocale(path string) string {
	for _, l := range []string{domain.LocaleEN, domain.LocaleAR} {
		p := "/" + l
		if path == p {
			return "/"
		}
		if strings.HasPrefix(path, p+"/") {
			return path[len(p):]
		}
	}
	return path
}

func underAny(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

// Guard redirects page requests on the advisory auth cookie. It only saves a
// round trip; every protected backend call is still authorized server side.
func Guard() fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := stripLocale(c.Path())
		signedIn := c.Cookies(AuthCookie) != ""
		switch {
		case underAny(path, protectedPrefixes) && !signedIn:
			return c.Redirect("/login?redirect="+url.QueryEscape(path), fiber.StatusFound)
		case underAny(path, guestOnly) && signedIn:
			return c.Redirect("/", fiber.StatusFound)
		}
		return c.Next()
	}
}
