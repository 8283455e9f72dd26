// Package internal provides the application wiring: configuration, logging
// and the long-running preview and MCP servers.
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

	"github.com/starford/daybook/internal/api"
	"github.com/starford/daybook/internal/entryservice"
	"github.com/starford/daybook/internal/links"
	"github.com/starford/daybook/internal/mcpserver"
	"github.com/starford/daybook/internal/sse"
	"github.com/starford/daybook/internal/storage"
	"github.com/starford/daybook/internal/watch"
)

var errConfigRequired = errors.New("config is required")

// catalog opens the entries directory and runs the initial sync.
func (app *application) catalog() (storage.Provider, *watch.Catalog, *entryservice.Service, error) {
	cfg := app.config
	store, err := storage.NewFS(cfg.Server.EntriesDir)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init storage: %w", err)
	}

	cat := watch.NewCatalog(nil)
	if err := cat.Sync(store, app.logger, nil); err != nil {
		app.logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	var resolver *links.Resolver
	if app.services != nil {
		resolver = app.services.Resolver
	}
	return store, cat, entryservice.NewService(store, cat, resolver), nil
}

// Serve runs the preview server until ctx is cancelled or a shutdown signal
// arrives.
func Serve(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := app.logger

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.Server.Address()),
		slog.String("entries_dir", cfg.Server.EntriesDir),
		slog.String("auth_mode", cfg.Server.Auth.Mode),
		slog.String("log_level", cfg.App.LogLevel.String()))

	store, cat, svc, err := app.catalog()
	if err != nil {
		return err
	}
	logger.Info("Entries cataloged", slog.Int("count", cat.Len()))

	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	apiRouter := api.NewRouter(svc, cfg.Server.Auth.AuthEnabled(), cfg.Server.Auth.Token, broker)

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
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintf(w, `{"status":"ok","entries":%d,"clients":%d}`, cat.Len(), broker.ClientCount())
	})

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.Server.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Watch the entries directory and fan changes out to SSE clients.
	g.Go(func() error {
		return watch.Watch(gCtx, cat, store, store.Root(), logger, func(kind string, s watch.Summary) {
			broker.PublishEntryEvent(eventKind(kind), sse.EntryChange{Path: s.Path, Subject: s.Subject})
		})
	})

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.Server.Address()))
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

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group so the watcher stops with the server.
var errShutdown = errors.New("shutdown")

func eventKind(kind string) string {
	switch kind {
	case watch.KindCreated:
		return sse.EntryCreated
	case watch.KindDeleted:
		return sse.EntryDeleted
	default:
		return sse.EntryUpdated
	}
}

// ServeMCP runs the MCP server on stdin/stdout.
func ServeMCP(_ context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	_, _, svc, err := app.catalog()
	if err != nil {
		return err
	}
	app.logger.Info("MCP server starting", slog.String("entries_dir", app.config.Server.EntriesDir))
	return mcpserver.New(svc, app.version).ServeStdio()
}
