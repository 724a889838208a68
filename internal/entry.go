// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/wordhop/internal/api"
	"github.com/starford/wordhop/internal/apperr"
	"github.com/starford/wordhop/internal/graphservice"
	"github.com/starford/wordhop/internal/index"
	"github.com/starford/wordhop/internal/mcpserver"
	"github.com/starford/wordhop/internal/metrics"
	"github.com/starford/wordhop/internal/sse"
	"github.com/starford/wordhop/internal/storage"
	"github.com/starford/wordhop/internal/vocab"
)

// Run starts the HTTP service with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := newApplication(opts)
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vocabulary_path", cfg.Vocabulary.Path),
		slog.String("default_vocabulary", cfg.Vocabulary.Default),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	rt, err := openRuntime(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer rt.db.Close()

	// SSE broker.
	broker := sse.NewBroker(cfg.Events.ReloadThrottle)
	defer broker.Close()

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: newRootRouter(cfg, rt.svc, broker),
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start file watcher; changes to the active vocabulary reload the graph.
	g.Go(func() error {
		if err := index.Watch(gCtx, rt.db, rt.store, cfg.Vocabulary.Path, logger, func(kind, name string) {
			if err := rt.svc.Refresh(gCtx, kind == index.EventDeleted, name); err != nil {
				logger.Warn("graph: reload failed", slog.String("vocabulary", name), slog.String("error", err.Error()))
			}
			broker.PublishVocabularyEvent(kind, name)
		}); err != nil {
			logger.Error("watcher stopped", slog.String("error", err.Error()))
		}
		return nil
	})

	// Start HTTP server.
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

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP serves the MCP tools on stdin/stdout. Logs go to stderr so they do
// not corrupt the protocol stream.
func RunMCP(ctx context.Context, opts ...Option) error {
	app := newApplication(opts)
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	rt, err := openRuntime(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer rt.db.Close()

	return mcpserver.New(rt.svc, app.version).ServeStdio()
}

type runtime struct {
	store storage.Provider
	db    *index.DB
	svc   *graphservice.Service
}

// openRuntime prepares storage, brings the snapshot index up to date and
// activates the default vocabulary.
func openRuntime(ctx context.Context, cfg *Config, logger *slog.Logger) (*runtime, error) {
	// Ensure vocabulary directory exists.
	if err := os.MkdirAll(cfg.Vocabulary.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create vocabulary dir: %w", err)
	}

	store, err := storage.NewFS(cfg.Vocabulary.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}

	// Run initial sync.
	if err := index.Sync(ctx, db, store, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	svc := graphservice.NewService(store, db, logger)
	if err := activateDefault(ctx, cfg, svc, logger); err != nil {
		db.Close()
		return nil, err
	}
	return &runtime{store: store, db: db, svc: svc}, nil
}

// activateDefault serves the configured default vocabulary from the index,
// falling back to the external loader chain when it is not indexed.
func activateDefault(ctx context.Context, cfg *Config, svc *graphservice.Service, logger *slog.Logger) error {
	name := cfg.Vocabulary.Default
	if name != "" {
		_, err := svc.Activate(ctx, name)
		if err == nil {
			return nil
		}
		if !errors.Is(err, apperr.ErrNotFound) {
			logger.Warn("default vocabulary unusable", slog.String("vocabulary", name), slog.String("error", err.Error()))
		}
	}

	res, err := vocab.NewLoader(logger).Load(ctx, vocab.Source{
		Encoded: cfg.Vocabulary.Encoded,
		Words:   cfg.Vocabulary.Words,
	})
	if err != nil {
		return fmt.Errorf("load vocabulary: %w", err)
	}
	if name == "" {
		name = res.Origin
	}
	svc.Use(name, res)
	return nil
}

func newRootRouter(cfg *Config, svc *graphservice.Service, broker *sse.Broker) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, `{"status":"ok"}`)
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		active := svc.Active()
		status, code := "ok", http.StatusOK
		if active.Words == 0 {
			status, code = "empty", http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":     status,
			"vocabulary": active.Name,
			"origin":     active.Origin,
			"words":      active.Words,
		})
	})

	r.Handle("/metrics", metrics.Handler())

	// Mount API routes under /api.
	r.Mount("/api", api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker))
	return r
}
