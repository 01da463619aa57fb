// Package internal provides the main application initialization and runtime logic.
package internal

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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/glossaryqf/internal/api"
	"github.com/starford/glossaryqf/internal/bank"
	"github.com/starford/glossaryqf/internal/bankservice"
	"github.com/starford/glossaryqf/internal/glossary"
	"github.com/starford/glossaryqf/internal/mcpserver"
	"github.com/starford/glossaryqf/internal/sse"
	"github.com/starford/glossaryqf/internal/storage"
)

// NewConverter builds the exporter and importer configured by cfg.
func NewConverter(cfg *Config, logger *slog.Logger) (*glossary.Exporter, *glossary.Importer) {
	exp := glossary.NewExporter(cfg.Glossary)
	im := glossary.NewImporter(
		glossary.WithDefinitionPolicy(cfg.Import.Policy()),
		glossary.WithLogger(logger),
	)
	return exp, im
}

// components holds everything opened by bootstrap.
type components struct {
	logger   *slog.Logger
	store    *storage.FS
	db       *bank.DB
	importer *glossary.Importer
	svc      *bankservice.Service
}

func bootstrap(opts []Option, svcOpts ...bankservice.Option) (*application, *components, error) {
	app := &application{logOutput: os.Stdout, version: "dev"}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, nil, fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := app.logger()
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("workspace_path", cfg.Workspace.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	if err := os.MkdirAll(cfg.Workspace.Path, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create workspace dir: %w", err)
	}

	store, err := storage.NewFS(cfg.Workspace.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("init storage: %w", err)
	}

	db, err := bank.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("init bank: %w", err)
	}

	exp, im := NewConverter(cfg, logger)

	if err := bank.Sync(db, store, im, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	svcOpts = append([]bankservice.Option{bankservice.WithLogger(logger)}, svcOpts...)
	svc := bankservice.NewService(store, db, exp, im, svcOpts...)

	return app, &components{
		logger:   logger,
		store:    store,
		db:       db,
		importer: im,
		svc:      svc,
	}, nil
}

// Run starts the HTTP server and workspace watcher with the given options.
func Run(ctx context.Context, opts ...Option) error {
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	app, c, err := bootstrap(opts, bankservice.WithNotifier(broker.PublishSourceEvent))
	if err != nil {
		return err
	}
	defer c.db.Close()

	cfg := app.config
	logger := c.logger

	apiRouter := api.NewRouter(c.svc, api.RouterConfig{
		AuthEnabled:    cfg.Auth.AuthEnabled(),
		Token:          cfg.Auth.Token,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		MaxBodyBytes:   cfg.Import.MaxBytes,
		Events:         broker,
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := c.db.SourceChecksums(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	if cfg.Workspace.Watch {
		g.Go(func() error {
			return bank.Watch(gCtx, c.db, c.store, c.importer, c.store.Root(), logger, broker.PublishSourceEvent)
		})
	}

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		// Stop the watcher when the shutdown came from a signal.
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

var errShutdown = errors.New("shutdown")

// RunMCP serves the MCP tools on stdin/stdout until the client disconnects.
func RunMCP(_ context.Context, opts ...Option) error {
	app, c, err := bootstrap(append([]Option{WithLogOutput(os.Stderr)}, opts...))
	if err != nil {
		return err
	}
	defer c.db.Close()

	c.logger.Info("MCP server starting on stdio")
	return mcpserver.New(c.svc, c.store, app.version).ServeStdio()
}
