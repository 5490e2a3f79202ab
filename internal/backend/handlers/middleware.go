package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"easybake/internal/apiclient"
	"easybake/internal/backend/repos"
	"easybake/internal/backend/services"
	"easybake/internal/domain"
	applog "easybake/internal/log"
)

const (
	SessionCookie   = "easybake_session"
	CartTokenCookie = apiclient.CartTokenCookie
)

const (
	localsSID    = "sid"
	localsLocale = "locale"
	localsUser   = "user"
)

type cookies struct{ secure bool }

func (k cookies) set(c *fiber.Ctx, name, value string) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   k.secure,
	})
}

func (k cookies) clear(c *fiber.Ctx, name string) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   k.secure,
		Expires:  time.Now().Add(-time.Hour),
	})
}

// Session makes sure every caller carries a session id.
func Session(k cookies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := c.Cookies(SessionCookie)
		if _, err := uuid.Parse(sid); err != nil {
			sid = uuid.NewString()
			k.set(c, SessionCookie, sid)
		}
		c.Locals(localsSID, sid)
		return c.Next()
	}
}

func sidOf(c *fiber.Ctx) string {
	s, _ := c.Locals(localsSID).(string)
	return s
}

// Locale takes the response language from Accept-Language.
func Locale() fiber.Handler {
	return func(c *fiber.Ctx) error {
		l := c.AcceptsLanguages(domain.LocaleEN, domain.LocaleAR)
		if l == "" {
			l = domain.LocaleEN
		}
		c.Locals(localsLocale, l)
		c.Set(fiber.HeaderContentLanguage, l)
		return c.Next()
	}
}

func localeOf(c *fiber.Ctx) string {
	if l, ok := c.Locals(localsLocale).(string); ok {
		return l
	}
	return domain.LocaleEN
}

// currentUser resolves the session's user once per request. Guests get nil.
func currentUser(c *fiber.Ctx, auth *services.AuthService) (*domain.User, error) {
	if u, ok := c.Locals(localsUser).(*domain.User); ok {
		return u, nil
	}
	u, err := auth.Current(sidOf(c))
	if errors.Is(err, services.ErrUnauthenticated) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.Locals(localsUser, &u)
	return &u, nil
}

// RequireUser rejects guests with 401.
func RequireUser(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u, err := currentUser(c, auth)
		if err != nil {
			return fail(c, "auth.current", err)
		}
		if u == nil {
			applog.Info(c, "access.denied.guest", nil)
			return failure(c, fiber.StatusUnauthorized, "Unauthenticated.", nil)
		}
		return c.Next()
	}
}

func userOf(c *fiber.Ctx) *domain.User {
	u, _ := c.Locals(localsUser).(*domain.User)
	return u
}

// owner picks whose cart a request works on: the user's, else the guest
// token's. With issue set a guest without a token gets one.
func owner(c *fiber.Ctx, auth *services.AuthService, k cookies, issue bool) (repos.Owner, error) {
	u, err := currentUser(c, auth)
	if err != nil {
		return repos.Owner{}, err
	}
	if u != nil {
		return repos.Owner{UserID: u.ID}, nil
	}
	tok := c.Cookies(CartTokenCookie)
	if tok == "" && issue {
		tok = uuid.NewString()
		k.set(c, CartTokenCookie, tok)
	}
	return repos.Owner{Token: tok}, nil
}
