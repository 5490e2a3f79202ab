package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"easybake/internal/backend/services"
	"easybake/internal/domain"
)

type ReviewHandler struct {
	Auth    *services.AuthService
	Reviews *services.ReviewService
}

func (h *ReviewHandler) List(c *fiber.Ctx) error {
	pid, found := id(c, "id")
	if !found {
		return nil
	}
	page, err := h.Reviews.List(pid, c.QueryInt("page", 1))
	if err != nil {
		return fail(c, "review.list", err)
	}
	return c.JSON(page)
}

// Create accepts reviews from guests and users alike.
func (h *ReviewHandler) Create(c *fiber.Ctx) error {
	pid, found := id(c, "id")
	if !found {
		return nil
	}
	var in domain.NewReview
	if !body(c, &in) {
		return nil
	}
	u, err := currentUser(c, h.Auth)
	if err != nil {
		return fail(c, "review.create", err)
	}
	rv, err := h.Reviews.Create(u, pid, in)
	if err != nil {
		return fail(c, "review.create", err)
	}
	return ok(c, fiber.StatusCreated, rv, "Thank you for your review.")
}

func (h *ReviewHandler) Delete(c *fiber.Ctx) error {
	rid, found := id(c, "id")
	if !found {
		return nil
	}
	if err := h.Reviews.Delete(userOf(c).ID, rid); err != nil {
		return fail(c, "review.delete", err)
	}
	return ok(c, fiber.StatusOK, nil, "Review deleted.")
}

// Helpful counts one vote per user, or per session for guests.
func (h *ReviewHandler) Helpful(c *fiber.Ctx) error {
	rid, found := id(c, "id")
	if !found {
		return nil
	}
	u, err := currentUser(c, h.Auth)
	if err != nil {
		return fail(c, "review.helpful", err)
	}
	voter := "s:" + sidOf(c)
	if u != nil {
		voter = "u:" + strconv.FormatInt(u.ID, 10)
	}
	rv, err := h.Reviews.Helpful(rid, voter)
	if err != nil {
		return fail(c, "review.helpful", err)
	}
	return ok(c, fiber.StatusOK, rv, "")
}
