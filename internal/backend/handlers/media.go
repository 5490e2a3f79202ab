package handlers

import (
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"

	applog "easybake/internal/log"
)

// Media serves files below dir and refuses anything that could leave it.
func Media(dir string) fiber.Handler {
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return func(c *fiber.Ctx) error {
		path := c.Params("*")
		raw := strings.ToLower(path)
		if strings.Contains(raw, "..") || strings.Contains(raw, "%2e") || strings.Contains(raw, "\x00") {
			applog.Security(c, "media.traversal.block", map[string]any{"path": path})
			return fiber.ErrNotFound
		}
		clean := filepath.Clean(path)
		if clean == "." || filepath.IsAbs(clean) {
			return fiber.ErrNotFound
		}
		return c.SendFile(filepath.Join(dir, clean), true)
	}
}
