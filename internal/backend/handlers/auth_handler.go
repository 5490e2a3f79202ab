package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"easybake/internal/backend/services"
	"easybake/internal/domain"
	applog "easybake/internal/log"
)

type AuthHandler struct {
	Auth    *services.AuthService
	cookies cookies
}

// rotate gives the browser a fresh session id before it signs in.
func (h *AuthHandler) rotate(c *fiber.Ctx) string {
	sid := uuid.NewString()
	h.cookies.set(c, SessionCookie, sid)
	c.Locals(localsSID, sid)
	return sid
}

// signedIn finishes a login or registration. The guest cart was merged, so
// its token is dropped.
func (h *AuthHandler) signedIn(c *fiber.Ctx, status int, u domain.User, msg string) error {
	if c.Cookies(CartTokenCookie) != "" {
		h.cookies.clear(c, CartTokenCookie)
	}
	c.Locals(localsUser, &u)
	return ok(c, status, u, msg)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var in domain.Credentials
	if !body(c, &in) {
		return nil
	}
	u, err := h.Auth.Login(h.rotate(c), c.Cookies(CartTokenCookie), in)
	if err != nil {
		applog.Security(c, "auth.login.fail", map[string]any{"email": in.Email})
		return fail(c, "auth.login", err)
	}
	applog.Audit(c, "auth.login.success", map[string]any{"user_id": u.ID})
	return h.signedIn(c, fiber.StatusOK, u, "Login successful.")
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var in domain.Registration
	if !body(c, &in) {
		return nil
	}
	u, err := h.Auth.Register(h.rotate(c), c.Cookies(CartTokenCookie), localeOf(c), in)
	if err != nil {
		return fail(c, "auth.register", err)
	}
	applog.Audit(c, "auth.register", map[string]any{"user_id": u.ID})
	return h.signedIn(c, fiber.StatusCreated, u, "Registration successful.")
}

// Logout always succeeds; a guest has nothing to end.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.Auth.Logout(sidOf(c)); err != nil {
		return fail(c, "auth.logout", err)
	}
	h.rotate(c)
	applog.Audit(c, "auth.logout", nil)
	return ok(c, fiber.StatusOK, nil, "Logged out.")
}

func (h *AuthHandler) User(c *fiber.Ctx) error {
	return ok(c, fiber.StatusOK, userOf(c), "")
}

func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	var in domain.PasswordChange
	if !body(c, &in) {
		return nil
	}
	u := userOf(c)
	if err := h.Auth.ChangePassword(u.ID, in); err != nil {
		return fail(c, "auth.change_password", err)
	}
	applog.Audit(c, "auth.password.changed", map[string]any{"user_id": u.ID})
	return ok(c, fiber.StatusOK, nil, "Password changed.")
}
