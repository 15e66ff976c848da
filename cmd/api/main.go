// Package main is the entry point for the shopnotify API server.
//
// It loads configuration, connects the Postgres pool, wires the repositories
// and the notification pipeline into the HTTP chassis, starts the stale-send
// sweeper, and listens until SIGINT/SIGTERM triggers a graceful shutdown.
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

	"shopnotify/internal/api/handlers"
	"shopnotify/internal/config"
	"shopnotify/internal/core"
	"shopnotify/internal/db"
	"shopnotify/internal/email"
	"shopnotify/internal/external"
	"shopnotify/internal/scheduler"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// run encapsulates the startup lifecycle so that main() can cleanly exit on
// error.
func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info("shopnotify API starting",
		"environment", cfg.Environment,
		"port", cfg.Server.Port,
	)

	// Fail fast on a broken sender or reply-to identity instead of rejecting
	// every trigger at runtime.
	if err := email.ValidateSenderIdentity(cfg.Email.Sender); err != nil {
		return fmt.Errorf("validating sender identity: %w", err)
	}
	if err := email.ValidateReplyTo(cfg.Email.ReplyTo); err != nil {
		return fmt.Errorf("validating reply-to identity: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	pool, err := db.NewPool(ctx, cfg.Database)
	cancel()
	if err != nil {
		return fmt.Errorf("connecting database: %w", err)
	}
	defer pool.Close()

	templateRepo := db.NewTemplateRepository(pool)
	storefrontRepo := db.NewStorefrontRepository(pool)
	sendRepo := db.NewSendRepository(pool)
	eventRepo := db.NewEventRepository(pool)

	mailClient := external.NewMailClient(cfg.Email, logger)
	dispatcher := email.NewDispatcher(cfg.Email, mailClient, logger)
	notifications := email.NewService(templateRepo, storefrontRepo, sendRepo, dispatcher, cfg, logger)

	srv, err := core.NewServer(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	srv.HealthProbes = append(srv.HealthProbes, db.Probe{Pool: pool})

	notifyHandler := handlers.NewNotifyHandler(notifications, logger)
	sendsHandler := handlers.NewSendsHandler(sendRepo, logger)
	trackingHandler := handlers.NewTrackingHandler(
		eventRepo,
		[]byte(cfg.Tracking.SigningKey.Unmask()),
		cfg.Server.StorefrontURL,
		logger,
	)

	srv.RouteRegistrars = append(srv.RouteRegistrars,
		notifyHandler.RegisterRoutes,
		sendsHandler.RegisterRoutes,
	)
	srv.TrackingRegistrar = trackingHandler.RegisterRoutes
	srv.MountRoutes()

	var sweeper *scheduler.Sweeper
	if cfg.Sweep.Enabled {
		sweeper = scheduler.NewSweeper(cfg.Sweep, sendRepo, logger)
		if err := sweeper.Start(); err != nil {
			return fmt.Errorf("starting sweeper: %w", err)
		}
	}

	return runHTTPServer(srv, cfg, sweeper, logger)
}

// runHTTPServer starts the server in standard HTTP mode with graceful
// shutdown.
func runHTTPServer(srv *core.Server, cfg *config.Config, sweeper *scheduler.Sweeper, logger *slog.Logger) error {
	addr := ":" + cfg.Server.Port

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-shutdown:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	logger.Info("initiating graceful shutdown")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}
	if sweeper != nil {
		sweeper.Stop()
	}
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server resource shutdown error", "error", err)
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("server stopped cleanly")
	return nil
}

// newLogger creates a structured slog.Logger configured for the given log
// level.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	return slog.New(handler)
}
