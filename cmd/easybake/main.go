package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"easybake/internal/apiclient"
	"easybake/internal/cache"
	"easybake/internal/config"
	"easybake/internal/http/handlers"
	applog "easybake/internal/log"
	"easybake/internal/storefront"
)

func main() {
	cfg, err := config.LoadStorefront()
	if err != nil {
		applog.Error(nil, "config.invalid", err, nil)
		os.Exit(1)
	}
	env := cfg.Environment()
	applog.Init(env.IsProduction(), logOutput(cfg.LogFile))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var opts []storefront.Option
	if cfg.RedisURL != "" {
		rdb, err := cache.OpenRedis(ctx, cfg.RedisURL)
		if err != nil {
			// The shared cache is optional; sessions still cache locally.
			applog.Error(nil, "cache.redis.unavailable", err, nil)
		} else {
			defer rdb.Close()
			opts = append(opts, storefront.WithBackend(cache.NewRedis(rdb, "easybake:")))
		}
	}

	sessions := storefront.NewManager(storefront.Config{
		Client: apiclient.Config{
			BaseURL:     cfg.Backend.BaseURL,
			CSRFPath:    cfg.Backend.CSRFPath,
			Timeout:     cfg.Backend.Timeout,
			MaxAttempts: cfg.Backend.MaxAttempts,
			BaseBackoff: cfg.Backend.BaseBackoff,
			Debug:       !env.IsProduction(),
		},
		VATRate:     cfg.VAT(),
		DeliveryFee: cfg.Delivery(),
		IdleTTL:     cfg.SessionIdleTTL,
	}, opts...)

	app := handlers.NewApp(handlers.AppConfig{
		Sessions:      sessions,
		Currency:      cfg.Currency,
		SecureCookies: cfg.SecureCookies,
		LoginAttempts: cfg.LoginAttempts,
	})

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sessions.Run(ctx, cfg.SweepInterval)
		return nil
	})
	g.Go(func() error { return app.Listen(cfg.Addr) })
	g.Go(func() error {
		<-ctx.Done()
		return app.ShutdownWithTimeout(10 * time.Second)
	})
	if err := g.Wait(); err != nil {
		applog.Error(nil, "server.stopped", err, nil)
		os.Exit(1)
	}
}

// logOutput adds LOG_FILE next to stdout when it can be opened.
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
