package handlers

import (
	"github.com/gofiber/fiber/v2"

	"easybake/internal/backend/services"
	"easybake/internal/domain"
	"easybake/internal/validate"
)

type CatalogHandler struct {
	Catalog *services.CatalogService
}

// Products lists products. Query: page, per_page, category_id, search, sort.
func (h *CatalogHandler) Products(c *fiber.Ctx) error {
	q := domain.ProductQuery{
		Page:       c.QueryInt("page", 1),
		PerPage:    c.QueryInt("per_page", 0),
		CategoryID: int64(c.QueryInt("category_id", 0)),
		Sort:       c.Query("sort"),
	}
	if raw := c.Query("search"); raw != "" {
		s, valid := validate.Q(raw)
		if !valid {
			return failure(c, fiber.StatusUnprocessableEntity, "The given data was invalid.",
				map[string][]string{"search": {"The search may only contain letters, numbers and spaces."}})
		}
		q.Search = s
	}
	page, err := h.Catalog.List(q, localeOf(c))
	if err != nil {
		return fail(c, "catalog.list", err)
	}
	return c.JSON(page)
}

func (h *CatalogHandler) Product(c *fiber.Ctx) error {
	pid, found := id(c, "id")
	if !found {
		return nil
	}
	p, err := h.Catalog.Product(pid, localeOf(c))
	if err != nil {
		return fail(c, "catalog.product", err)
	}
	return ok(c, fiber.StatusOK, p, "")
}

func (h *CatalogHandler) Featured(c *fiber.Ctx) error {
	items, err := h.Catalog.Featured(localeOf(c))
	if err != nil {
		return fail(c, "catalog.featured", err)
	}
	return ok(c, fiber.StatusOK, items, "")
}

func (h *CatalogHandler) Popular(c *fiber.Ctx) error {
	items, err := h.Catalog.Popular(localeOf(c))
	if err != nil {
		return fail(c, "catalog.popular", err)
	}
	return ok(c, fiber.StatusOK, items, "")
}

func (h *CatalogHandler) Categories(c *fiber.Ctx) error {
	tree, err := h.Catalog.Categories(localeOf(c))
	if err != nil {
		return fail(c, "catalog.categories", err)
	}
	return ok(c, fiber.StatusOK, tree, "")
}

// Category accepts a numeric id or a slug.
func (h *CatalogHandler) Category(c *fiber.Ctx) error {
	key, valid := validate.Slug(c.Params("idOrSlug"))
	if !valid {
		return failure(c, fiber.StatusNotFound, "Not found.", nil)
	}
	cat, err := h.Catalog.Category(key, localeOf(c))
	if err != nil {
		return fail(c, "catalog.category", err)
	}
	return ok(c, fiber.StatusOK, cat, "")
}
