// Command easybake-devapi serves the REST API the storefront expects, backed
// by SQLite. It is meant for local development and integration tests.
package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"easybake/internal/backend/handlers"
	"easybake/internal/backend/repos"
	"easybake/internal/config"
	applog "easybake/internal/log"
)

func main() {
	cfg, err := config.LoadDevAPI()
	if err != nil {
		applog.Error(nil, "config.invalid", err, nil)
		os.Exit(1)
	}
	env := cfg.Environment()
	applog.Init(env.IsProduction(), logOutput(cfg.LogFile))

	db, err := repos.OpenDB(cfg.DBDSN, cfg.Seed)
	if err != nil {
		applog.Error(nil, "db.open", err, map[string]any{"dsn": cfg.DBDSN})
		os.Exit(1)
	}
	defer db.Close()

	app := handlers.NewApp(handlers.NewDeps(db, cfg.VAT(), cfg.Delivery()), handlers.Config{
		SecureCookies: cfg.SecureCookies,
		LoginAttempts: cfg.LoginAttempts,
		AccessLog:     true,
		MediaDir:      cfg.MediaDir,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		_ = app.ShutdownWithTimeout(10 * time.Second)
	}()

	if err := app.Listen(cfg.Addr); err != nil {
		applog.Error(nil, "server.stopped", err, nil)
		os.Exit(1)
	}
}

func logOutput(path string) io.Writer {
	if path == "" {
		return os.Stdout
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		applog.Warn().Err(err).Str("file", path).Msg("could not open log file")
		return os.Stdout
	}
	return io.MultiWriter(os.Stdout, f)
}
