// Package handlers is the JSON REST API of the reference backend the
// storefront talks to.
package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"easybake/internal/apiclient"
	applog "easybake/internal/log"
)

type Config struct {
	SecureCookies bool
	// RequestsPerMinute caps requests per client IP. Zero means 300.
	RequestsPerMinute int
	// LoginAttempts caps login posts per IP per 10 minutes. Zero means 5.
	LoginAttempts int
	// AccessLog enables the per-request log line.
	AccessLog bool
	// MediaDir is served under /media when set.
	MediaDir string
}

// NewApp mounts the API under /api.
func NewApp(d Deps, cfg Config) *fiber.App {
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 300
	}
	if cfg.LoginAttempts <= 0 {
		cfg.LoginAttempts = 5
	}
	k := cookies{secure: cfg.SecureCookies}

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Server().MaxRequestBodySize = 1 << 20

	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(helmet.New())
	if cfg.AccessLog {
		app.Use(logger.New(logger.Config{Output: applog.Writer()}))
	}
	app.Use(limiter.New(limiter.Config{
		Max:        cfg.RequestsPerMinute,
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.global.hit", nil)
			return failure(c, fiber.StatusTooManyRequests, "Too Many Attempts.", nil)
		},
	}))
	if cfg.MediaDir != "" {
		app.Get("/media/*", Media(cfg.MediaDir))
	}
	app.Use(Session(k))
	app.Use(Locale())

	api := app.Group("/api")
	// The token cookie is read by the client and echoed in the header.
	api.Use(csrf.New(csrf.Config{
		KeyLookup:      "header:" + apiclient.CSRFHeader,
		CookieName:     apiclient.CSRFCookie,
		CookiePath:     "/",
		CookieSameSite: "Lax",
		CookieSecure:   cfg.SecureCookies,
		CookieHTTPOnly: false,
		Expiration:     2 * time.Hour,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", nil)
			return failure(c, 419, "CSRF token mismatch.", nil)
		},
	}))

	auth := &AuthHandler{Auth: d.Auth, cookies: k}
	catalog := &CatalogHandler{Catalog: d.Catalog}
	cart := &CartHandler{Auth: d.Auth, Cart: d.Cart, cookies: k}
	account := &AccountHandler{Account: d.Account}
	orders := &OrderHandler{Orders: d.Orders}
	reviews := &ReviewHandler{Auth: d.Auth, Reviews: d.Reviews}
	user := RequireUser(d.Auth)

	api.Get("/sanctum/csrf-cookie", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })

	api.Get("/products", catalog.Products)
	api.Get("/products/featured", catalog.Featured)
	api.Get("/products/popular", catalog.Popular)
	api.Get("/products/:id", catalog.Product)
	api.Get("/categories", catalog.Categories)
	api.Get("/categories/:idOrSlug", catalog.Category)

	api.Get("/products/:id/reviews", reviews.List)
	api.Post("/products/:id/reviews", reviews.Create)
	api.Delete("/reviews/:id", user, reviews.Delete)
	api.Post("/reviews/:id/helpful", reviews.Helpful)

	api.Get("/cart", cart.View)
	api.Post("/cart", cart.Add)
	api.Delete("/cart", cart.Clear)
	api.Put("/cart/items/:id", cart.Update)
	api.Delete("/cart/items/:id", cart.Remove)

	api.Post("/auth/login", limiter.New(limiter.Config{
		Max:          cfg.LoginAttempts,
		Expiration:   10 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string { return c.IP() + "|login" },
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return failure(c, fiber.StatusTooManyRequests, "Too many login attempts. Please try again later.", nil)
		},
	}), auth.Login)
	api.Post("/auth/register", auth.Register)
	api.Post("/auth/logout", auth.Logout)
	api.Get("/auth/user", user, auth.User)
	api.Post("/auth/change-password", user, auth.ChangePassword)

	api.Get("/addresses", user, account.Addresses)
	api.Post("/addresses", user, account.CreateAddress)
	api.Put("/addresses/:id/default", user, account.SetDefault)
	api.Delete("/addresses/:id", user, account.DeleteAddress)
	api.Get("/wishlist", user, account.Wishlist)
	api.Post("/wishlist/products/:id", user, account.ToggleWishlist)

	api.Get("/orders", user, orders.List)
	api.Post("/orders", user, orders.Place)
	api.Get("/orders/:id", user, orders.View)
	api.Post("/orders/:id/cancel", user, orders.Cancel)

	app.Use(func(c *fiber.Ctx) error { return fiber.ErrNotFound })
	return app
}
