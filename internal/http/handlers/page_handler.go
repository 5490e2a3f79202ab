package handlers

import (
	"github.com/gofiber/fiber/v2"

	"easybake/internal/domain"
)

var pagePaths = []string{
	"/",
	"/products", "/products/:id",
	"/categories/:slug",
	"/cart", "/checkout", "/wishlist",
	"/orders", "/orders/:id",
	"/account", "/account/*",
	"/login", "/register",
}

type PageHandler struct{}

// Shell serves the HTML document every page boots from. Content is loaded
// by the browser through /bff.
func (h *PageHandler) Shell(c *fiber.Ctx) error {
	locale := localeOf(c)
	dir := "ltr"
	if locale == domain.LocaleAR {
		dir = "rtl"
	}
	tok, _ := c.Locals("csrf").(string)
	signedIn := c.Cookies(AuthCookie) != ""
	return c.Render("shell", fiber.Map{
		"Locale":    locale,
		"Dir":       dir,
		"CSRFToken": tok,
		"Page":      c.Route().Path,
		"SignedIn":  signedIn,
	})
}
