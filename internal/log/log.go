package log

import (
	"io"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

// Init configures the process logger. Production writes JSON at info level;
// everything else gets a console writer at debug level.
func Init(production bool, w io.Writer) {
	if w == nil {
		w = os.Stdout
	}
	if production {
		logger = zerolog.New(w).Level(zerolog.InfoLevel).With().Timestamp().Logger()
		return
	}
	logger = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}).
		Level(zerolog.DebugLevel).With().Timestamp().Logger()
}

// SetOutput replaces the logger with a JSON logger writing to w at debug level.
// Tests use it to capture entries.
func SetOutput(w io.Writer) {
	logger = zerolog.New(w).Level(zerolog.DebugLevel).With().Timestamp().Logger()
}

// Writer exposes the logger as an io.Writer for middlewares that print lines.
func Writer() io.Writer { return logger }

func Debug() *zerolog.Event { return logger.Debug() }
func Warn() *zerolog.Event  { return logger.Warn() }

func write(ev *zerolog.Event, level string, c *fiber.Ctx, action string, err error, fields map[string]any) {
	ev = ev.Str("kind", level).Str("action", action)
	if c != nil {
		ev = ev.Str("ip", c.IP()).
			Str("method", c.Method()).
			Str("path", c.Path())
		if st := c.Response().StatusCode(); st != 0 {
			ev = ev.Int("status", st)
		}
		if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
			ev = ev.Str("req_id", rid)
		}
	}
	if err != nil {
		ev = ev.Err(err)
	}
	if len(fields) > 0 {
		ev = ev.Interface("fields", fields)
	}
	ev.Send()
}

func Info(c *fiber.Ctx, action string, fields map[string]any) {
	write(logger.Info(), "info", c, action, nil, fields)
}

func Audit(c *fiber.Ctx, action string, fields map[string]any) {
	write(logger.Info(), "audit", c, action, nil, fields)
}

func Security(c *fiber.Ctx, action string, fields map[string]any) {
	write(logger.Warn(), "security", c, action, nil, fields)
}

func Error(c *fiber.Ctx, action string, err error, fields map[string]any) {
	write(logger.Error(), "error", c, action, err, fields)
}
