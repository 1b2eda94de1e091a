package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dkazakov/browser-relay/internal/api"
	"github.com/dkazakov/browser-relay/internal/backend"
	"github.com/dkazakov/browser-relay/internal/badge"
	"github.com/dkazakov/browser-relay/internal/config"
	"github.com/dkazakov/browser-relay/internal/notify"
	"github.com/dkazakov/browser-relay/internal/router"
	"github.com/dkazakov/browser-relay/internal/server"
	"github.com/dkazakov/browser-relay/internal/store"
	"github.com/dkazakov/browser-relay/internal/submit"
	"github.com/dkazakov/browser-relay/internal/surface"
	"github.com/dkazakov/browser-relay/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/relay.yaml", "path to config file")
	flag.Parse()

	// Load configuration first so the log level honors it.
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.Logging.Level),
	}))
	slog.SetDefault(logger)

	logger.Info("starting relay",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Open durable state
	logger.Info("opening state store", "path", cfg.Storage.Path)
	db, err := store.Open(cfg.Storage.Path)
	if err != nil {
		logger.Error("failed to open state store", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		logger.Error("failed to migrate state store", "error", err)
		os.Exit(1)
	}

	// Surface registry and user-facing indicators
	registry := surface.NewRegistry(logger)
	notifier := notify.New(notify.Config{
		Enabled: cfg.Notifications.Enabled,
		Webhook: cfg.Notifications.Webhook,
		NtfyURL: cfg.Notifications.NtfyURL,
	}, logger)
	indicator := badge.New(cfg.Badge.ClearAfter, logger)

	// Backend REST client for task submission
	apiClient := api.NewClient(
		cfg.Backend.RestURL,
		cfg.Backend.APIKey,
		api.WithLogger(logger),
		api.WithTimeout(30*time.Second),
	)

	// Connection Manager for the backend event channel
	mgrCfg := backend.DefaultManagerConfig()
	mgrCfg.WSURL = cfg.Backend.WSURL
	mgrCfg.APIKey = cfg.Backend.APIKey
	if cfg.Backend.PingInterval > 0 {
		mgrCfg.PingInterval = cfg.Backend.PingInterval
	}
	if cfg.Backend.ReconnectBaseDelay > 0 {
		mgrCfg.ReconnectBaseDelay = cfg.Backend.ReconnectBaseDelay
	}
	if cfg.Backend.MaxReconnectAttempts > 0 {
		mgrCfg.MaxReconnectAttempts = cfg.Backend.MaxReconnectAttempts
	}
	if cfg.Backend.HandshakeTimeout > 0 {
		mgrCfg.HandshakeTimeout = cfg.Backend.HandshakeTimeout
	}
	if cfg.Backend.WriteTimeout > 0 {
		mgrCfg.WriteTimeout = cfg.Backend.WriteTimeout
	}
	if cfg.Backend.BufferSize > 0 {
		mgrCfg.BufferSize = cfg.Backend.BufferSize
	}
	manager := backend.NewManager(mgrCfg, logger)

	// Start Message Router BEFORE connecting so it consumes events as soon
	// as the backend channel opens.
	msgRouter := router.NewRouter(manager.Events(), registry, indicator, db, notifier, logger)
	if err := msgRouter.Start(ctx); err != nil {
		logger.Error("failed to start message router", "error", err)
		os.Exit(1)
	}

	// Task Submitter publishes outcomes through the same router path.
	submitter := submit.NewSubmitter(apiClient, msgRouter, db, logger)

	// Local surface endpoint
	srv := server.New(cfg.Server, registry, submitter, db, logger,
		server.WithBackendState(func() string { return string(manager.State()) }),
	)
	if err := srv.Start(ctx); err != nil {
		logger.Error("failed to start surface server", "error", err)
		os.Exit(1)
	}

	// Connect to the backend. Failure here is not fatal: the manager
	// schedules reconnection and surfaces see the disconnected status.
	if err := manager.Connect(ctx); err != nil {
		logger.Error("initial backend connect failed", "error", err)
	}

	logger.Info("relay running",
		"surface_addr", fmt.Sprintf("http://%s:%d", cfg.Server.Host, cfg.Server.Port),
		"backend_ws", cfg.Backend.WSURL,
	)

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	// Stop in dependency order: surface endpoint, backend channel, router.
	g, gctx := errgroup.WithContext(shutdownCtx)
	g.Go(func() error { return srv.Stop(gctx) })
	g.Go(func() error { return manager.Stop(gctx) })
	if err := g.Wait(); err != nil {
		logger.Warn("shutdown error", "error", err)
	}
	if err := msgRouter.Stop(shutdownCtx); err != nil {
		logger.Warn("router stop error", "error", err)
	}

	logger.Info("relay stopped")
}

func logLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
