package handlers

import (
	"github.com/gofiber/fiber/v2"

	"easybake/internal/domain"
	"easybake/internal/queries"
	"easybake/internal/validate"
)

type CatalogHandler struct{}

// GET /bff/products
func (h *CatalogHandler) Products(c *fiber.Ctx) error {
	s := sessionOf(c)
	q := domain.ProductQuery{
		Page:       max(c.QueryInt("page", 1), 1),
		PerPage:    c.QueryInt("per_page", 0),
		CategoryID: int64(c.QueryInt("category_id", 0)),
		Sort:       c.Query("sort"),
	}
	if raw := c.Query("search"); raw != "" {
		search, ok := validate.Q(raw)
		if !ok {
			return badRequest(c, map[string][]string{"search": {"Search may only contain letters, digits and spaces."}})
		}
		q.Search = search
	}
	res := queries.Run(c.UserContext(), s.Store, s.Notices, queries.Products(s.API(), localeOf(c), q))
	if res.Err != nil {
		return fail(c, "catalog.products", res.Err)
	}
	return respond(c, res.Data)
}

// GET /bff/products/featured
func (h *CatalogHandler) Featured(c *fiber.Ctx) error {
	s := sessionOf(c)
	res := queries.Run(c.UserContext(), s.Store, s.Notices, queries.Featured(s.API(), localeOf(c)))
	if res.Err != nil {
		return fail(c, "catalog.featured", res.Err)
	}
	return respond(c, res.Data)
}

// GET /bff/products/popular
func (h *CatalogHandler) Popular(c *fiber.Ctx) error {
	s := sessionOf(c)
	res := queries.Run(c.UserContext(), s.Store, s.Notices, queries.Popular(s.API(), localeOf(c)))
	if res.Err != nil {
		return fail(c, "catalog.popular", res.Err)
	}
	return respond(c, res.Data)
}

// GET /bff/products/:id
func (h *CatalogHandler) Product(c *fiber.Ctx) error {
	s := sessionOf(c)
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return fiber.ErrNotFound
	}
	res := queries.Run(c.UserContext(), s.Store, s.Notices, queries.Product(s.API(), localeOf(c), int64(id)))
	if res.Err != nil {
		return fail(c, "catalog.product", res.Err)
	}
	p := res.Data
	return respond(c, fiber.Map{"product": p, "display_price": p.DisplayPrice(), "image": p.PrimaryImage()})
}

// GET /bff/categories returns the top-level categories with their children.
func (h *CatalogHandler) Categories(c *fiber.Ctx) error {
	s := sessionOf(c)
	res := queries.Run(c.UserContext(), s.Store, s.Notices, queries.Categories(s.API(), localeOf(c)))
	if res.Err != nil {
		return fail(c, "catalog.categories", res.Err)
	}
	roots := make([]domain.Category, 0, len(res.Data))
	for _, cat := range res.Data {
		if cat.IsRoot() {
			roots = append(roots, cat)
		}
	}
	return respond(c, roots)
}

// GET /bff/categories/:slug
func (h *CatalogHandler) Category(c *fiber.Ctx) error {
	s := sessionOf(c)
	slug, ok := validate.Slug(c.Params("slug"))
	if !ok {
		return fiber.ErrNotFound
	}
	res := queries.Run(c.UserContext(), s.Store, s.Notices, queries.Category(s.API(), localeOf(c), slug))
	if res.Err != nil {
		return fail(c, "catalog.category", res.Err)
	}
	return respond(c, res.Data)
}
