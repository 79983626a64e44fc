package app

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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	httpapi "github.com/aussiebroadwan/consoleauth/internal/console/http"
	"github.com/aussiebroadwan/consoleauth/internal/console/service"
	"github.com/aussiebroadwan/consoleauth/internal/console/store"
	"github.com/aussiebroadwan/consoleauth/internal/console/store/drivers/file"
	"github.com/aussiebroadwan/consoleauth/internal/console/store/drivers/memory"
	"github.com/aussiebroadwan/consoleauth/internal/console/store/drivers/redis"
	"github.com/aussiebroadwan/consoleauth/internal/console/store/drivers/sqlite"
	"github.com/aussiebroadwan/consoleauth/pkg/authsdk"
	"github.com/aussiebroadwan/consoleauth/pkg/cryptox"
	"github.com/aussiebroadwan/consoleauth/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application wires the console login agent together.
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	store    store.Store
	client   *authsdk.SDKClient
	registry *prometheus.Registry

	// Services
	controller *service.FlowController
	watchdog   *service.SessionWatchdog

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates the application. Nothing is started until Run.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "console-agent",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initStore(context.Background()); err != nil {
		return nil, err
	}

	if err := app.initServices(); err != nil {
		_ = app.store.Close()
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Handler exposes the router, mostly for tests that serve it themselves.
func (app *Application) Handler() http.Handler { return app.router }

// Start restores any persisted session and starts watching the storage.
// Run calls it before serving.
func (app *Application) Start(ctx context.Context) {
	restored, err := app.controller.Restore(ctx)
	switch {
	case err != nil:
		app.logger.Warn("failed to restore persisted session", "error", err)
	case restored:
		app.logger.Info("persisted session restored")
	default:
		app.logger.Info("no usable persisted session, starting logged out")
	}

	app.watchdog.Start()
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.Start(context.Background())

	app.logger.Info("console agent starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"identity_url", app.cfg.IdentityURL,
		"storage", app.cfg.Storage,
	)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.stopServices()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down console agent...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if err := app.stopServices(); err != nil {
		return err
	}

	app.logger.Info("console agent stopped")
	return nil
}

// stopServices disarms the refresh timer, stops the watchdog and closes the
// storage. The persisted session is kept for the next start.
func (app *Application) stopServices() error {
	app.watchdog.Stop()
	app.controller.Close()

	if err := app.store.Close(); err != nil {
		app.logger.Error("error closing session storage", "error", err)
		return err
	}
	return nil
}

// initStore opens the configured storage driver.
func (app *Application) initStore(ctx context.Context) error {
	switch app.cfg.Storage {
	case StorageSQLite:
		dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", app.cfg.DatabaseFile)
		db, err := sqlite.NewStore(dsn)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		if err := db.ApplyMigrations(); err != nil {
			_ = db.Close()
			return fmt.Errorf("failed to apply database migrations: %w", err)
		}
		app.logger.Info("database migrations applied successfully", "file", app.cfg.DatabaseFile)
		app.store = db

	case StorageRedis:
		ctx, cancel := context.WithTimeout(ctx, app.cfg.HTTPTimeout)
		defer cancel()

		rs, err := redis.Open(ctx, app.cfg.RedisAddr, app.cfg.RedisPassword, app.cfg.RedisDB, app.cfg.RedisPrefix)
		if err != nil {
			return err
		}
		app.store = rs

	case StorageFile:
		fs, err := file.NewStore(app.cfg.StateDir)
		if err != nil {
			return err
		}
		app.store = fs

	case StorageMemory:
		app.logger.Warn("memory storage selected, the session will not survive a restart")
		app.store = memory.NewStore()

	default:
		return fmt.Errorf("unknown storage driver %q", app.cfg.Storage)
	}

	return nil
}

// initServices builds the provider client, session store and flow controller.
func (app *Application) initServices() error {
	sealer, source, err := cryptox.LoadSealer(app.cfg.MasterKeyPath)
	if err != nil {
		return fmt.Errorf("failed to load master key: %w", err)
	}
	if source == "ephemeral" {
		app.logger.Warn("no master key configured, persisted sessions will not survive a restart")
	} else {
		app.logger.Info("master key loaded", "source", source)
	}

	app.registry = prometheus.NewRegistry()
	app.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := service.NewMetrics(app.registry)

	app.client = authsdk.NewSDKClient(app.cfg.IdentityURL)
	app.client.HTTPClient.Timeout = app.cfg.HTTPTimeout

	session := service.NewSessionStore(app.store, sealer, service.SystemClock, app.logger.With("component", "session"))
	app.controller = service.NewFlowController(
		service.FlowConfig{
			Realm:               app.cfg.Realm,
			ClientID:            app.cfg.ClientID,
			Scope:               app.cfg.Scope,
			PublicURL:           app.cfg.PublicURL,
			ExpirySkew:          app.cfg.ExpirySkew,
			RefreshLead:         app.cfg.RefreshLead,
			RefreshRetryBackoff: app.cfg.RefreshRetryBackoff,
		},
		service.InstrumentGateway(app.client, metrics),
		app.client.Cookies,
		session,
		service.SystemClock,
		app.logger.With("component", "flow"),
		metrics,
	)

	app.watchdog = service.NewSessionWatchdog(app.store, app.controller, app.logger.With("component", "watchdog"), app.cfg.WatchInterval)
	return nil
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.controller,
		app.store,
		app.client,
		BuildVersion,
		app.logger,
	)
	router.Gatherer = app.registry
	router.Limits = app.cfg.RateLimits()
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
