// Package main runs the development backend that portalctl and the tests talk to.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"portal-client/config"
	"portal-client/internal/adapter/handler"
	"portal-client/internal/app"
	"portal-client/utils/logger"
	"portal-client/utils/otel"
)

const serviceName = "portal-devserver"

func main() {
	// Docker healthcheck in the distroless image.
	if len(os.Args) > 1 && os.Args[1] == "healthcheck" {
		if err := runHealthcheck(); err != nil {
			fmt.Fprintf(os.Stderr, "Healthcheck failed: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	otelCfg := otel.ConfigFromEnv(serviceName)
	otelShutdown, err := otel.InitProvider(ctx, otelCfg)
	if err != nil {
		slog.Warn("failed to initialize OpenTelemetry, continuing without tracing", "error", err)
		otelCfg.Enabled = false
		otelShutdown = func(context.Context) error { return nil }
	}

	log := logger.Init(logger.Options{OTel: otelCfg.Enabled})

	cfg, err := config.LoadDevServer()
	if err != nil {
		slog.ErrorContext(ctx, "failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.InfoContext(ctx, "configuration loaded",
		"port", cfg.Port,
		"session_ttl", cfg.SessionTTL,
		"login_rate_per_min", cfg.LoginRatePerMin,
		"seed_user", cfg.SeedUserEmail)

	ds, err := app.NewDevServer(ctx, cfg, app.DevServerOptions{
		Logger:       log,
		Tracing:      otelCfg.Enabled,
		ServiceName:  otelCfg.ServiceName,
		Metrics:      true,
		MetricsToken: os.Getenv("DEVSERVER_METRICS_TOKEN"),
		Environment:  otelCfg.Environment,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to build server", "error", err)
		os.Exit(1)
	}
	e := ds.Echo
	e.HideBanner = true
	e.HidePort = true

	address := ":" + cfg.Port
	slog.InfoContext(ctx, "starting portal-devserver", "address", address)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := e.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		slog.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return otelShutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	slog.Info("server exited properly")
}

// runHealthcheck performs a health check against the local server.
func runHealthcheck() error {
	port := os.Getenv("DEVSERVER_PORT")
	if port == "" {
		port = "8000"
	}

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(fmt.Sprintf("http://127.0.0.1:%s%s/health/", port, handler.APIPrefix))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health endpoint returned status: %d", resp.StatusCode)
	}
	return nil
}
