package handlers

import (
	"embed"
	"errors"
	"io/fs"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	html "github.com/gofiber/template/html/v2"

	"easybake/internal/apiclient"
	"easybake/internal/checkout"
	applog "easybake/internal/log"
	"easybake/internal/mutations"
	"easybake/internal/notify"
	"easybake/internal/storefront"
)

//go:embed templates/*.html
var templateFS embed.FS

// Views returns the template engine for the page shell and error page.
func Views() fiber.Views {
	sub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		panic(err)
	}
	return html.NewFileSystem(http.FS(sub), ".html")
}

type envelope struct {
	Success bool                `json:"success"`
	Data    any                 `json:"data,omitempty"`
	Message string              `json:"message,omitempty"`
	Errors  map[string][]string `json:"errors,omitempty"`
	Notices []notify.Notice     `json:"notices,omitempty"`
}

func drain(s *storefront.Session) []notify.Notice {
	if s == nil {
		return nil
	}
	return s.Notices.Drain()
}

// respond writes data with the notices the session has queued.
func respond(c *fiber.Ctx, data any) error {
	return c.JSON(envelope{Success: true, Data: data, Notices: drain(sessionOf(c))})
}

// statusFor picks the response status for a failed backend call.
func statusFor(ae *apiclient.Error) int {
	switch {
	case ae.Status >= 400:
		return ae.Status
	case ae.Kind == apiclient.KindTimeout:
		return fiber.StatusGatewayTimeout
	case ae.Kind == apiclient.KindNetwork:
		return fiber.StatusBadGateway
	case ae.Kind == apiclient.KindValidation:
		return fiber.StatusUnprocessableEntity
	}
	return fiber.StatusInternalServerError
}

// fail renders err as the failure envelope. Messages come from the fixed
// user-facing table; backend internals never reach the browser.
func fail(c *fiber.Ctx, action string, err error) error {
	var ge *checkout.GuardError
	if errors.As(err, &ge) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success":  false,
			"message":  ge.Reason,
			"redirect": ge.Location,
			"notices":  drain(sessionOf(c)),
		})
	}
	if errors.Is(err, mutations.ErrPendingLine) {
		return c.Status(fiber.StatusConflict).JSON(envelope{Message: "This item is still being added. Please try again in a moment."})
	}
	ae := apiclient.As(err)
	status := statusFor(ae)
	if status >= 500 {
		applog.Error(c, action, err, map[string]any{"kind": ae.Kind.String()})
	} else {
		applog.Info(c, action, map[string]any{"kind": ae.Kind.String(), "status": status})
	}
	return c.Status(status).JSON(envelope{
		Message: ae.Display(),
		Errors:  ae.Fields,
		Notices: drain(sessionOf(c)),
	})
}

func badRequest(c *fiber.Ctx, fields map[string][]string) error {
	return fail(c, "request.invalid", apiclient.Validation(fields))
}

func wantsJSON(c *fiber.Ctx) bool {
	return strings.HasPrefix(c.Path(), "/bff") || c.Accepts(fiber.MIMETextHTML, fiber.MIMEApplicationJSON) == fiber.MIMEApplicationJSON
}

const (
	msgNotFound = "The page you are looking for could not be found."
	msgServer   = "Something went wrong. Please try again."
)

// ErrorHandler is the root error boundary. JSON clients get the failure
// envelope; browsers get the error page with a reload link.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
	}
	msg := msgServer
	switch {
	case status == fiber.StatusNotFound:
		msg = msgNotFound
	case status < 500:
		msg = http.StatusText(status)
	default:
		applog.Error(c, "server.error", err, nil)
	}

	if wantsJSON(c) {
		return c.Status(status).JSON(envelope{Message: msg})
	}
	if rerr := c.Status(status).Render("error", fiber.Map{
		"Status":   status,
		"Message":  msg,
		"NotFound": status == fiber.StatusNotFound,
		"Locale":   localeOf(c),
	}); rerr != nil {
		return c.Status(status).SendString(msg)
	}
	return nil
}
