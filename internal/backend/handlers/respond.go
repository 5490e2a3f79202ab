package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"easybake/internal/backend/services"
	"easybake/internal/domain"
	applog "easybake/internal/log"
)

func ok(c *fiber.Ctx, status int, data any, message string) error {
	return c.Status(status).JSON(domain.Envelope[any]{Success: true, Data: data, Message: message})
}

func failure(c *fiber.Ctx, status int, message string, fields map[string][]string) error {
	return c.Status(status).JSON(domain.ErrorBody{Message: message, Errors: fields})
}

// fail maps a service error to its response. Anything unexpected is logged
// and answered with a generic 500.
func fail(c *fiber.Ctx, action string, err error) error {
	var ve *services.ValidationError
	switch {
	case errors.As(err, &ve):
		return failure(c, fiber.StatusUnprocessableEntity, ve.Error(), ve.Fields)
	case errors.Is(err, services.ErrNotFound):
		return failure(c, fiber.StatusNotFound, "Not found.", nil)
	case errors.Is(err, services.ErrUnauthenticated):
		return failure(c, fiber.StatusUnauthorized, "Unauthenticated.", nil)
	case errors.Is(err, services.ErrForbidden):
		return failure(c, fiber.StatusForbidden, "This action is unauthorized.", nil)
	}
	applog.Error(c, action, err, nil)
	return failure(c, fiber.StatusInternalServerError, "Server Error", nil)
}

// body decodes the JSON request body into v. ok is false after a 400 was
// written.
func body(c *fiber.Ctx, v any) bool {
	if len(c.Body()) == 0 {
		return true
	}
	if err := c.BodyParser(v); err != nil {
		_ = failure(c, fiber.StatusBadRequest, "Malformed request body.", nil)
		return false
	}
	return true
}

// id reads a positive integer route parameter. ok is false after a 404 was
// written.
func id(c *fiber.Ctx, name string) (int64, bool) {
	n, err := c.ParamsInt(name)
	if err != nil || n <= 0 {
		_ = failure(c, fiber.StatusNotFound, "Not found.", nil)
		return 0, false
	}
	return int64(n), true
}

// ErrorHandler answers errors that escape the handlers, such as unknown routes.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		if fe.Code >= fiber.StatusInternalServerError {
			applog.Error(c, "http.error", err, nil)
			return failure(c, fe.Code, "Server Error", nil)
		}
		return failure(c, fe.Code, fe.Message, nil)
	}
	applog.Error(c, "http.unhandled", err, nil)
	return failure(c, fiber.StatusInternalServerError, "Server Error", nil)
}
