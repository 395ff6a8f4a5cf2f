// Event planner generation server.
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
	"golang.org/x/sync/errgroup"

	"github.com/ashureev/eventplanner/internal/api"
	"github.com/ashureev/eventplanner/internal/config"
	"github.com/ashureev/eventplanner/internal/convlog"
	"github.com/ashureev/eventplanner/internal/events"
	"github.com/ashureev/eventplanner/internal/identity"
	"github.com/ashureev/eventplanner/internal/llm"
	"github.com/ashureev/eventplanner/internal/middleware"
	"github.com/ashureev/eventplanner/internal/retention"
	"github.com/ashureev/eventplanner/internal/store"
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

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment(), "provider", cfg.Model.Provider)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	if err := repo.Ping(ctx); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	provider, err := llm.New(ctx, cfg.Model)
	if err != nil {
		slog.Error("Failed to initialize model provider", "error", err)
		os.Exit(1)
	}
	slog.Info("Model provider ready", "provider", provider.Name())

	conversationLogger, err := convlog.New(cfg.ConversationLog, logger)
	if err != nil {
		slog.Error("Failed to initialize conversation logger", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := conversationLogger.Close(); closeErr != nil {
			slog.Error("Failed to close conversation logger", "error", closeErr)
		}
	}()

	hub := events.NewHub()
	defer hub.Close()

	limiter := middleware.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	defer limiter.Close()

	handler := api.NewHandler(repo, provider, hub,
		api.WithRateLimiter(limiter),
		api.WithConversationLog(conversationLogger),
		api.WithMaxBodyBytes(cfg.MaxBodyBytes),
		api.WithEventStream(events.NewWebSocketHandler(hub, cfg.FrontendURL, cfg.IsDevelopment())),
		api.WithLogger(logger),
	)

	origins := []string{"*"}
	if !cfg.IsDevelopment() {
		origins = []string{cfg.FrontendURL}
	}

	// Setup router.
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS(origins))
	r.Use(identity.Middleware)
	handler.RegisterRoutes(r)

	// Generation can take minutes; the websocket stream is long-lived.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	worker := retention.NewWorker(repo, cfg.SessionRetention, retention.DefaultInterval, func(ref store.SessionRef) {
		hub.Publish(events.Event{Type: events.TypeSessionDeleted, UserID: ref.UserID, ChatSessionID: ref.ChatSessionID})
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return worker.Run(gctx)
	})
	g.Go(func() error {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down gracefully...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
	slog.Info("Server stopped successfully")
}
