package handlers

import (
	"github.com/gofiber/fiber/v2"

	"easybake/internal/domain"
	applog "easybake/internal/log"
)

type AuthHandler struct{}

// POST /bff/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	s := sessionOf(c)
	var in domain.Credentials
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, map[string][]string{"email": {"Please enter your email and password."}})
	}
	u, err := s.Mut.Login(c.UserContext(), in)
	if err != nil {
		applog.Security(c, "auth.login.fail", map[string]any{"email": in.Email})
		return fail(c, "auth.login", err)
	}
	applog.Audit(c, "auth.login.success", map[string]any{"user_id": u.ID})
	return respond(c, u)
}

// POST /bff/auth/register
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	s := sessionOf(c)
	var in domain.Registration
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, map[string][]string{"email": {"Please fill in the registration form."}})
	}
	u, err := s.Mut.Register(c.UserContext(), in)
	if err != nil {
		return fail(c, "auth.register", err)
	}
	applog.Audit(c, "auth.register", map[string]any{"user_id": u.ID})
	return respond(c, u)
}

// POST /bff/auth/logout
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	s := sessionOf(c)
	if err := s.Mut.Logout(c.UserContext()); err != nil {
		return fail(c, "auth.logout", err)
	}
	s.EndCheckout()
	applog.Audit(c, "auth.logout", nil)
	return respond(c, nil)
}

// POST /bff/auth/change-password
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	s := sessionOf(c)
	var in domain.PasswordChange
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, map[string][]string{"password": {"Please fill in the form."}})
	}
	if err := s.Mut.ChangePassword(c.UserContext(), in); err != nil {
		return fail(c, "auth.password", err)
	}
	applog.Audit(c, "auth.password.changed", nil)
	return respond(c, nil)
}
