package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/lbx/internal/server"
	"github.com/desertthunder/lbx/internal/shared"
	"github.com/urfave/cli/v3"
)

// Serve runs the HTTP API until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	cfg := r.config.Server
	if host := cmd.String("host"); host != "" {
		cfg.Host = host
	}
	if port := cmd.Int("port"); port != 0 {
		cfg.Port = port
	}

	svc, err := r.open()
	if err != nil {
		return err
	}

	shutdown, err := shared.InitTelemetry(ctx, r.config.Telemetry, os.Stderr, r.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			r.logger.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	var limiter *server.RateLimiter
	if cfg.RateLimit > 0 {
		limiter = server.NewRateLimiter(cfg.RateLimit, cfg.Burst)
	}

	router := server.NewRouter(svc, r.db, shared.WithLogger(r.logger, "component", "http"), limiter)
	srv := server.New(cfg.Addr(), router, r.logger)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	open := cmd.Bool("open")
	return srv.Run(ctx, func(addr string) {
		url := fmt.Sprintf("http://%s/assets", addr)
		r.writePlain("Serving catalog at %s\n", url)
		if open {
			if err := shared.OpenBrowser(url); err != nil {
				r.logger.Warn("could not open browser", "error", err)
			}
		}
	})
}
