package handlers

import (
	"github.com/gofiber/fiber/v2"

	"easybake/internal/domain"
	"easybake/internal/queries"
)

type ReviewHandler struct{}

func productID(c *fiber.Ctx) (int64, bool) {
	id, err := c.ParamsInt("id")
	return int64(id), err == nil && id > 0
}

// GET /bff/products/:id/reviews
func (h *ReviewHandler) List(c *fiber.Ctx) error {
	s := sessionOf(c)
	pid, ok := productID(c)
	if !ok {
		return fiber.ErrNotFound
	}
	res := queries.Run(c.UserContext(), s.Store, s.Notices, queries.Reviews(s.API(), localeOf(c), pid, c.QueryInt("page", 1)))
	if res.Err != nil {
		return fail(c, "reviews.list", res.Err)
	}
	return respond(c, res.Data)
}

// POST /bff/products/:id/reviews
func (h *ReviewHandler) Create(c *fiber.Ctx) error {
	pid, ok := productID(c)
	if !ok {
		return fiber.ErrNotFound
	}
	var in domain.NewReview
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, map[string][]string{"comment": {"Please fill in the review form."}})
	}
	r, err := sessionOf(c).Mut.CreateReview(c.UserContext(), pid, in)
	if err != nil {
		return fail(c, "reviews.create", err)
	}
	return respond(c, r)
}

// DELETE /bff/products/:id/reviews/:reviewId
func (h *ReviewHandler) Delete(c *fiber.Ctx) error {
	pid, ok := productID(c)
	rid, err := c.ParamsInt("reviewId")
	if !ok || err != nil {
		return fiber.ErrNotFound
	}
	if err := sessionOf(c).Mut.DeleteReview(c.UserContext(), pid, int64(rid)); err != nil {
		return fail(c, "reviews.delete", err)
	}
	return respond(c, nil)
}

// POST /bff/products/:id/reviews/:reviewId/helpful
func (h *ReviewHandler) Helpful(c *fiber.Ctx) error {
	pid, ok := productID(c)
	rid, err := c.ParamsInt("reviewId")
	if !ok || err != nil {
		return fiber.ErrNotFound
	}
	r, err := sessionOf(c).Mut.MarkReviewHelpful(c.UserContext(), pid, int64(rid))
	if err != nil {
		return fail(c, "reviews.helpful", err)
	}
	return respond(c, r)
}
