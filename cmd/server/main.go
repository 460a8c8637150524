package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mcoot/guestdesk/internal/api"
	"github.com/mcoot/guestdesk/internal/config"
	"github.com/mcoot/guestdesk/internal/factory"
)

func main() {
	configPath := flag.String("config", os.Getenv(config.EnvConfigPath), "Path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath, os.Getenv)
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Level was checked by Load
	level, _ := cfg.Log.SlogLevel()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	// Create application factory
	app, err := factory.New(cfg.FactoryConfig(logger))
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("failed to close storage", slog.String("error", err.Error()))
		}
	}()

	router := api.NewRouter(api.RouterConfig{
		Logger:              logger,
		StorageType:         app.StorageType,
		Storage:             app.Storage,
		AuthService:         app.AuthService,
		EventService:        app.EventService,
		RegistrationService: app.RegistrationService,
		CheckInController:   app.CheckInController,
		EligibilityPolicy:   app.EligibilityPolicy,
		HubManager:          app.HubManager,
	})

	server := api.NewServer(router, cfg.Server, logger)
	server.OnShutdown(app.HubManager.CloseAll)

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started",
		slog.String("addr", server.Addr()),
		slog.String("storage", app.StorageType),
	)

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			return
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			return
		}
	}

	logger.Info("server stopped")
}
