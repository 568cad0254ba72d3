package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fintrack/internal/auth"
	"fintrack/internal/backend"
	"fintrack/internal/cache"
	"fintrack/internal/config"
	"fintrack/internal/currency"
	apphttp "fintrack/internal/http"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()

	logger := log.New(cfg.LoggerConfig(log.ComponentApp))
	slog.SetDefault(logger.Logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	backendConfig, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	result, err := backend.NewFactory(logger).CreateBackend(startupCtx, backendConfig)
	startupCancel()
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	// Without an API key every currency converts at parity.
	var fetcher currency.Fetcher = currency.Parity()
	if cfg.ExchangeRateAPIKey != "" {
		fetcher = currency.NewHTTPFetcher(cfg.ExchangeRateBaseURL, cfg.ExchangeRateAPIKey, &http.Client{Timeout: 10 * time.Second})
	} else {
		logger.Warn("EXCHANGE_RATE_API_KEY not set, converting currencies at parity")
	}
	converter := currency.NewConverter(fetcher, cfg.RateCacheTTL)

	caches := cache.NewManager()
	caches.Register("exchange_rates", converter.Cache())
	caches.StartCleanup(cfg.RateCacheTTL)
	defer caches.Stop()

	store := result.Store
	tokens := auth.NewIssuer(cfg.JWTSecret, cfg.JWTExpire)
	notifier := services.NewNotifier(store, result.Publisher)

	srv := apphttp.NewServer(apphttp.Config{
		Addr:               cfg.Addr(),
		RequestsPerMinute:  cfg.RateLimitPerMinute,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		Logger:             logger.WithComponent(log.ComponentHTTP),
	}, apphttp.Services{
		Users:        services.NewUserService(store, tokens, cfg.DefaultTransactionLimit),
		Budgets:      services.NewBudgetService(store, store, store, converter, notifier),
		Transactions: services.NewTransactionService(store, store, store, converter, notifier),
		Goals:        services.NewGoalService(store, notifier),
		Reports:      services.NewReportService(store, store, store, store, converter),
		Notifier:     notifier,
		Recurring:    services.NewRecurringProcessor(store, notifier),
		Tokens:       tokens,
		Store:        store,
	})

	// Graceful shutdown handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String(), log.FieldOperation, log.OpShutdown)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if err := result.Cleanup(shutdownCtx); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
		cancel()
	}()

	logger.Info("Starting fintrack server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"amqp_enabled", result.Publisher != nil,
		log.FieldOperation, log.OpStartup)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
