package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fintrack/internal/backend"
	"fintrack/internal/config"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()

	logger := log.New(cfg.LoggerConfig(log.ComponentWorker))
	slog.SetDefault(logger.Logger)

	logger.Info("Starting recurring-worker", log.FieldOperation, log.OpStartup)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	backendConfig, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	// The API process owns migrations.
	backendConfig.Migrate = false

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	result, err := backend.NewFactory(logger).CreateBackend(startupCtx, backendConfig)
	startupCancel()
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cleanupCancel()
		if err := result.Cleanup(cleanupCtx); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	}()

	notifier := services.NewNotifier(result.Store, result.Publisher)
	processor := services.NewRecurringProcessor(result.Store, notifier)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info("Recurring transaction check configured",
		"interval", cfg.RecurringCheckInterval,
		"backend", cfg.DataBackend,
		"amqp_enabled", result.Publisher != nil)

	w := worker.NewRecurringWorker(processor, cfg.RecurringCheckInterval, logger)
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Run(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.Info("Shutdown signal received", "signal", sig.String(), log.FieldOperation, log.OpShutdown)

	cancel()

	select {
	case <-done:
		logger.Info("Recurring-worker shutdown complete")
	case <-time.After(30 * time.Second):
		logger.Warn("Shutdown timeout reached")
	}
}
