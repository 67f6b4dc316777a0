// Command service serves the eyewear quote API.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"

	"github.com/jsamuelsen/eyewear-quotes/internal/adapters/http"
	"github.com/jsamuelsen/eyewear-quotes/internal/adapters/http/handlers"
	"github.com/jsamuelsen/eyewear-quotes/internal/adapters/storage/memory"
	"github.com/jsamuelsen/eyewear-quotes/internal/adapters/storage/sqlstore"
	"github.com/jsamuelsen/eyewear-quotes/internal/app"
	"github.com/jsamuelsen/eyewear-quotes/internal/platform/config"
	"github.com/jsamuelsen/eyewear-quotes/internal/platform/logging"
	"github.com/jsamuelsen/eyewear-quotes/internal/platform/telemetry"
	"github.com/jsamuelsen/eyewear-quotes/internal/ports"
)

// Set with -ldflags "-X main.Version=... -X main.Commit=... -X main.BuildTime=...".
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	profile := os.Getenv("APP_ENVIRONMENT")
	if profile == "" {
		profile = "local"
	}

	cfg, err := config.Load(profile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := newLogger(cfg)
	logging.SetDefault(logger)

	logger.Info("starting quote service",
		slog.String("version", Version),
		slog.String("commit", Commit),
		slog.String("environment", cfg.App.Environment),
		slog.String("database", cfg.Database.Driver),
	)

	tel, err := telemetry.New(ctx, &telemetry.Config{
		Enabled:      cfg.Telemetry.Enabled,
		Endpoint:     cfg.Telemetry.Endpoint,
		ServiceName:  cfg.Telemetry.ServiceName,
		Version:      cfg.App.Version,
		Environment:  cfg.App.Environment,
		SamplingRate: cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		return fmt.Errorf("starting telemetry: %w", err)
	}

	defer func() {
		if err := tel.Shutdown(context.WithoutCancel(ctx)); err != nil {
			logger.Error("flushing telemetry", slog.Any("error", err))
		}
	}()

	health := ports.NewHealthRegistry()

	store, closeStore, err := openStore(ctx, &cfg.Database, logger, health)
	if err != nil {
		return err
	}
	defer closeStore()

	quotes := app.NewQuoteService(app.QuoteServiceConfig{
		Store:   store,
		Logger:  logger,
		Metrics: telemetry.NewQuoteMetrics(nil),
	})

	server := http.New(&cfg.Server, cfg.App.Environment, logger)
	http.SetupRouter(server.Engine(), routes(cfg, logger, quotes, health))

	if err := server.Serve(ctx); err != nil {
		return fmt.Errorf("serving: %w", err)
	}

	logger.Info("quote service stopped")

	return nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	f := cfg.Log.File

	return logging.New(&logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: cfg.App.Name,
		Version: cfg.App.Version,
		File: logging.FileConfig{
			Enabled:    f.Enabled,
			Path:       f.Path,
			MaxSizeMB:  f.MaxSizeMB,
			MaxBackups: f.MaxBackups,
			MaxAgeDays: f.MaxAgeDays,
			Compress:   f.Compress,
		},
	})
}

func routes(cfg *config.Config, logger *slog.Logger, quotes *app.QuoteService, health ports.HealthRegistry) http.RouterConfig {
	build := handlers.NewBuildInfo(Version, Commit, BuildTime)

	rc := http.NewDefaultRouterConfig(logger, &cfg.App, handlers.NewHealthHandler(health, build))
	rc.QuoteHandler = handlers.NewQuoteHandler(quotes, handlers.Paging{Default: cfg.API.DefaultPageSize, Max: cfg.API.MaxPageSize})
	rc.LineItemHandler = handlers.NewLineItemHandler(quotes)
	rc.PaymentHandler = handlers.NewPaymentHandler(quotes)

	return rc
}

// openStore builds the configured QuoteStore. SQL stores are registered as
// a readiness check.
func openStore(
	ctx context.Context,
	cfg *config.DatabaseConfig,
	logger *slog.Logger,
	registry ports.HealthRegistry,
) (ports.QuoteStore, func(), error) {
	if cfg.Driver == "memory" {
		logger.Warn("using in-memory quote store; data is lost on restart")
		return memory.New(), func() {}, nil
	}

	store, err := sqlstore.Open(ctx, sqlstore.Config{
		Dialect:      sqlstore.Dialect(cfg.Driver),
		DSN:          cfg.DSN,
		MaxOpenConns: cfg.MaxOpenConns,
		Migrate:      cfg.Migrate,
		Logger:       logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s store: %w", cfg.Driver, err)
	}

	if err := registry.Register(store); err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("registering database health check: %w", err)
	}

	return store, func() {
		if err := store.Close(); err != nil {
			logger.Error("closing database", slog.Any("error", err))
		}
	}, nil
}
