// stepwise - Workshop Page Server
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

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"stepwise/internal/api"
	"stepwise/internal/config"
	"stepwise/internal/content"
	"stepwise/internal/identity"
	"stepwise/internal/live"
	"stepwise/internal/middleware"
	"stepwise/internal/progress"
	"stepwise/internal/render"
	"stepwise/internal/store"
	"stepwise/web"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment())

	// Initialize dependencies.
	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	lib, err := content.NewLibrary(cfg.ContentDir)
	if err != nil {
		slog.Error("Failed to load content library", "error", err, "dir", cfg.ContentDir)
		os.Exit(1)
	}
	slog.Info("Content library loaded", "docs", lib.Len(), "dir", cfg.ContentDir)

	// Initialize services.
	renderer := render.New()
	hub := live.NewHub()

	// Initialize handlers.
	baseHandler := api.NewHandler(repo, lib, renderer, hub)
	docsHandler := api.NewDocsHandler(baseHandler)
	healthHandler := api.NewHealthHandler(repo, lib)
	feedHandler := live.NewFeedHandler(hub, cfg.FrontendURL, cfg.IsDevelopment())

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS([]string{"*"}))

	// Public routes.
	healthHandler.RegisterHealth(r)
	r.Handle("/static/*", web.StaticHandler())

	// All remaining routes use identity middleware (no auth needed).
	r.Group(func(r chi.Router) {
		r.Use(identity.Middleware(repo, cfg.IsDevelopment()))
		docsHandler.RegisterRoutes(r)
		r.Get("/ws/feed", feedHandler.ServeHTTP)
	})

	// Create server.
	// Note: the feed keeps connections open indefinitely (no WriteTimeout).
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // 0 = no timeout for the WebSocket feed
		IdleTimeout:  120 * time.Second,
	}

	// Start state sweeper.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	progress.StartSweeper(ctx, repo, cfg.ReaderStateTTL, cfg.SweepInterval, hub.CloseReader)
	slog.Info("State sweeper started", "reader_state_ttl", cfg.ReaderStateTTL)

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}
