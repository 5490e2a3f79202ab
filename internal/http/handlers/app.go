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

	applog "easybake/internal/log"
	"easybake/internal/storefront"
)

type AppConfig struct {
	Sessions      *storefront.Manager
	Currency      string
	SecureCookies bool
	// RequestsPerMinute caps requests per client IP. Zero means 120.
	RequestsPerMinute int
	// LoginAttempts caps login posts per IP per 10 minutes. Zero means 5.
	LoginAttempts int
}

const CSRFHeader = "X-CSRF-Token"

// NewApp builds the storefront server: the page shell and the /bff JSON API
// the browser talks to.
func NewApp(cfg AppConfig) *fiber.App {
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 120
	}
	if cfg.LoginAttempts <= 0 {
		cfg.LoginAttempts = 5
	}

	app := fiber.New(fiber.Config{
		Views:        Views(),
		ErrorHandler: ErrorHandler,
	})
	app.Server().MaxRequestBodySize = 1 << 20

	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{Output: applog.Writer()}))
	app.Use(helmet.New())
	app.Use(limiter.New(limiter.Config{
		Max:        cfg.RequestsPerMinute,
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.global.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(envelope{Message: "Too many requests. Please slow down and try again shortly."})
		},
	}))
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "header:" + CSRFHeader,
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   cfg.SecureCookies,
		ContextKey:     "csrf",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", nil)
			return c.Status(fiber.StatusForbidden).JSON(envelope{Message: "Security check failed. Please refresh and try again."})
		},
	}))
	app.Use(Locale())
	app.Use(Sessions(cfg.Sessions, cfg.SecureCookies))

	pages := &PageHandler{}
	for _, prefix := range []string{"", "/en", "/ar"} {
		for _, p := range pagePaths {
			path := prefix + p
			if prefix != "" && p == "/" {
				path = prefix
			}
			app.Get(path, Guard(), pages.Shell)
		}
	}

	catalog := &CatalogHandler{}
	cart := &CartHandler{Currency: cfg.Currency}
	auth := &AuthHandler{}
	account := &AccountHandler{}
	orders := &OrderHandler{}
	reviews := &ReviewHandler{}
	co := &CheckoutHandler{Currency: cfg.Currency}
	sess := &SessionHandler{}

	bff := app.Group("/bff")
	bff.Get("/session", sess.State)
	bff.Post("/ui/:action", sess.UI)

	bff.Get("/products", catalog.Products)
	bff.Get("/products/featured", catalog.Featured)
	bff.Get("/products/popular", catalog.Popular)
	bff.Get("/products/:id", catalog.Product)
	bff.Get("/categories", catalog.Categories)
	bff.Get("/categories/:slug", catalog.Category)

	bff.Get("/products/:id/reviews", reviews.List)
	bff.Post("/products/:id/reviews", reviews.Create)
	bff.Delete("/products/:id/reviews/:reviewId", reviews.Delete)
	bff.Post("/products/:id/reviews/:reviewId/helpful", reviews.Helpful)

	bff.Get("/cart", cart.View)
	bff.Post("/cart", cart.Add)
	bff.Delete("/cart", cart.Clear)
	bff.Put("/cart/items/:id", cart.Update)
	bff.Delete("/cart/items/:id", cart.Remove)

	bff.Post("/auth/login", limiter.New(limiter.Config{
		Max:          cfg.LoginAttempts,
		Expiration:   10 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string { return c.IP() + "|login" },
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(envelope{Message: "Too many attempts. Please try again later."})
		},
	}), auth.Login)
	bff.Post("/auth/register", auth.Register)
	bff.Post("/auth/logout", auth.Logout)
	bff.Post("/auth/change-password", auth.ChangePassword)

	bff.Get("/addresses", account.Addresses)
	bff.Post("/addresses", account.CreateAddress)
	bff.Put("/addresses/:id/default", account.SetDefault)
	bff.Delete("/addresses/:id", account.DeleteAddress)
	bff.Get("/wishlist", account.Wishlist)
	bff.Post("/wishlist/:productId", account.ToggleWishlist)

	bff.Get("/orders", orders.List)
	bff.Get("/orders/:id", orders.View)
	bff.Post("/orders/:id/cancel", orders.Cancel)

	bff.Post("/checkout", co.Begin)
	bff.Get("/checkout", co.View)
	bff.Post("/checkout/address", co.Address)
	bff.Post("/checkout/payment", co.Payment)
	bff.Post("/checkout/notes", co.Notes)
	bff.Post("/checkout/submit", co.Submit)

	app.Use(func(c *fiber.Ctx) error { return fiber.ErrNotFound })
	return app
}
