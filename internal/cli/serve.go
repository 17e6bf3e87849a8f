package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ofizant/conciliacion/internal/api"
	"github.com/ofizant/conciliacion/internal/application/retention"
	"github.com/ofizant/conciliacion/internal/infrastructure/config"
	"github.com/ofizant/conciliacion/internal/infrastructure/logging"
	"github.com/ofizant/conciliacion/internal/infrastructure/storage"
)

// RunServe runs the API server and the retention job until SIGINT or SIGTERM.
func RunServe(cfg *config.Config, flags *ServeFlags) error {
	// Set up logging
	loggingCfg := cfg.Observability.Logging
	if flags.Verbose {
		loggingCfg.Level = "debug"
	}
	logger := logging.NewLoggerWithSystem(loggingCfg, "api")

	defaults, err := cfg.Reconciliation.MatcherConfig()
	if err != nil {
		return err
	}

	// Initialize storage
	store, err := storage.NewStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	scheduler, err := retention.NewScheduler(store, retention.Config{
		Days:     cfg.Storage.RetentionDays,
		Schedule: cfg.Storage.RetentionSchedule,
	}, logging.NewLoggerWithSystem(loggingCfg, "retention"))
	if err != nil {
		return err
	}
	scheduler.Start()
	defer scheduler.Stop()

	apiCfg := api.Config{
		Port:           flags.Port,
		AllowedOrigins: cfg.API.AllowedOrigins,
		MaxUploadMB:    cfg.API.MaxUploadMB,
		Defaults:       defaults,
	}

	// Create and start server
	server := api.NewServer(apiCfg, store, logger)

	// Handle graceful shutdown
	done := make(chan bool, 1)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info("received shutdown signal")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("server shutdown error", slog.Any("error", err))
		}
		close(done)
	}()

	// Start server (blocks until shutdown)
	if err := server.Start(); err != nil {
		return err
	}

	<-done
	logger.Info("server stopped")
	return nil
}
