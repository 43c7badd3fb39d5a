// Package main is the entry point for the quote session service.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/jsamuelsen/quote-session/internal/adapters/clients"
	"github.com/jsamuelsen/quote-session/internal/adapters/clients/acl"
	"github.com/jsamuelsen/quote-session/internal/adapters/flags"
	"github.com/jsamuelsen/quote-session/internal/adapters/http"
	"github.com/jsamuelsen/quote-session/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quote-session/internal/adapters/identity"
	"github.com/jsamuelsen/quote-session/internal/adapters/sources"
	"github.com/jsamuelsen/quote-session/internal/adapters/store"
	"github.com/jsamuelsen/quote-session/internal/app"
	"github.com/jsamuelsen/quote-session/internal/platform/config"
	"github.com/jsamuelsen/quote-session/internal/platform/logging"
	"github.com/jsamuelsen/quote-session/internal/platform/telemetry"
	"github.com/jsamuelsen/quote-session/internal/ports"
)

// Build-time variables, injected via ldflags.
// Example: go build -ldflags "-X main.Version=1.0.0 -X main.Commit=$(git rev-parse HEAD) -X main.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// healthCheckTimeout bounds each readiness check.
const healthCheckTimeout = 2 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

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

	logger := logging.New(&logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: cfg.App.Name,
		Version: cfg.App.Version,
		File: logging.FileConfig{
			Enabled:    cfg.Log.File.Enabled,
			Path:       cfg.Log.File.Path,
			MaxSizeMB:  cfg.Log.File.MaxSizeMB,
			MaxBackups: cfg.Log.File.MaxBackups,
			MaxAgeDays: cfg.Log.File.MaxAgeDays,
			Compress:   cfg.Log.File.Compress,
		},
	})
	logging.SetDefault(logger)

	logger.Info("starting service",
		slog.String("version", Version),
		slog.String("commit", Commit),
		slog.String("environment", cfg.App.Environment),
		slog.String("store", cfg.Store.Driver),
		slog.Any("sources", cfg.Session.Sources),
		slog.Any("config_files", cfg.Files),
	)

	// Noop unless enabled; the W3C propagator is installed either way.
	telProvider, err := telemetry.New(ctx, &telemetry.Config{
		Enabled:      cfg.Telemetry.Enabled,
		Endpoint:     cfg.Telemetry.Endpoint,
		ServiceName:  cfg.Telemetry.ServiceName,
		Version:      cfg.App.Version,
		Environment:  cfg.App.Environment,
		SamplingRate: cfg.Telemetry.SamplingRate,
		Insecure:     cfg.Telemetry.Insecure,
		Attributes:   map[string]string{"quote_session.store.driver": cfg.Store.Driver},
	})
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}

	defer func() {
		if shutdownErr := telProvider.Shutdown(ctx); shutdownErr != nil {
			logger.Error("telemetry shutdown error", slog.Any("error", shutdownErr))
		}
	}()

	kv, err := store.Open(cfg.Store, logger)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}

	defer func() {
		if closeErr := kv.Close(); closeErr != nil {
			logger.Error("store close error", slog.Any("error", closeErr))
		}
	}()

	healthRegistry := ports.NewHealthRegistry(ports.WithCheckTimeout(healthCheckTimeout))
	if err := healthRegistry.Register(kv); err != nil {
		return fmt.Errorf("registering store health check: %w", err)
	}

	users := identity.NewProvider()
	featureFlags := flags.NewStatic(cfg.Features, logger)

	available := map[string]ports.QuoteSource{
		sources.NameCache:    sources.NewCached(kv, users),
		sources.NameAuthored: sources.NewAuthored(kv, users),
	}

	bundled, err := sources.NewBundled()
	if err != nil {
		return fmt.Errorf("loading bundled quotes: %w", err)
	}

	available[sources.NameBundled] = bundled

	var quoteClient ports.QuoteClient

	if qc := cfg.Services.Quote; qc.Enabled {
		httpClient, err := clients.New(&clients.Config{
			BaseURL:     qc.BaseURL,
			ServiceName: qc.Name,
			Timeout:     qc.Timeout,
			Retry:       qc.Retry,
			Circuit:     qc.CircuitBreaker,
			RateLimit:   qc.RateLimit,
			RateBurst:   qc.RateBurst,
			UserAgent:   qc.UserAgent,
			Logger:      logger,
		})
		if err != nil {
			return fmt.Errorf("creating quote API client: %w", err)
		}

		aclClient := acl.NewQuoteClient(acl.QuoteClientConfig{
			Client:   httpClient,
			ListPath: qc.ListPath,
			Logger:   logger,
		})

		if err := healthRegistry.Register(aclClient); err != nil {
			return fmt.Errorf("registering quote client health check: %w", err)
		}

		quoteClient = aclClient
		available[sources.NameRemote] = sources.NewRemote(aclClient, featureFlags, cfg.Session.RemoteLimit)
	}

	source, err := sources.Select(logger, cfg.Session.Sources, available)
	if err != nil {
		return fmt.Errorf("selecting quote sources: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	metrics := app.NewMetrics(registry)

	sessions := app.NewSessionService(app.SessionServiceConfig{
		Source:      source,
		Store:       kv,
		Identity:    users,
		Flags:       featureFlags,
		Logger:      logger,
		Metrics:     metrics,
		LoadTimeout: cfg.Session.LoadTimeout,
		AutoLoad:    cfg.Session.AutoLoad,
	})

	quotes := app.NewQuoteService(app.QuoteServiceConfig{
		Collection:  sessions,
		QuoteClient: quoteClient,
		PageSize:    cfg.Session.PageSize,
		Logger:      logger,
	})

	authored := app.NewAuthoredService(app.AuthoredServiceConfig{
		Store:    kv,
		Identity: users,
		Metrics:  metrics,
		Logger:   logger,
	})

	buildInfo := handlers.NewBuildInfo(cfg.App.Name, Version, Commit, BuildTime)
	buildInfo.StoreDriver = cfg.Store.Driver

	server := http.New(&cfg.Server, logger)
	http.SetupRouter(server.Engine(), http.RouterConfig{
		Logger:          logger,
		ServiceName:     cfg.App.Name,
		Identity:        cfg.Identity,
		HealthHandler:   handlers.NewHealthHandler(healthRegistry, buildInfo, registry),
		SessionHandler:  handlers.NewSessionHandler(sessions),
		QuoteHandler:    handlers.NewQuoteHandler(quotes),
		AuthoredHandler: handlers.NewAuthoredHandler(authored),
		Timeout:         http.DefaultRequestTimeout,
	})

	logger.Info("readiness checks registered", slog.Any("checks", healthRegistry.Names()))

	serverErr, err := server.Start()
	if err != nil {
		return err
	}

	return waitForShutdown(ctx, logger, server, sessions, serverErr, cfg.Server.ShutdownTimeout)
}

// waitForShutdown blocks until a signal or a server error, then stops the
// HTTP server and flushes every open session to the store.
func waitForShutdown(
	ctx context.Context,
	logger *slog.Logger,
	server *http.Server,
	sessions *app.SessionService,
	serverErr <-chan error,
	shutdownTimeout time.Duration,
) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var runErr error

	select {
	case err := <-serverErr:
		runErr = fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		logger.Info("received shutdown signal", slog.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	logger.Info("initiating graceful shutdown", slog.Duration("timeout", shutdownTimeout))

	// Requests drain before sessions flush so no command lands after the flush.
	if err := server.Shutdown(shutdownCtx); err != nil {
		runErr = errors.Join(runErr, err)
	}

	if err := sessions.Close(shutdownCtx); err != nil {
		runErr = errors.Join(runErr, fmt.Errorf("flushing sessions: %w", err))
	}

	if runErr == nil {
		logger.Info("shutdown complete")
	}

	return runErr
}
