// ShopBot - LLM-backed shopping assistant server
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
	"github.com/shopbot-labs/shopbot/internal/api"
	"github.com/shopbot-labs/shopbot/internal/catalog"
	"github.com/shopbot-labs/shopbot/internal/chat"
	"github.com/shopbot-labs/shopbot/internal/config"
	"github.com/shopbot-labs/shopbot/internal/images"
	"github.com/shopbot-labs/shopbot/internal/llm"
	"github.com/shopbot-labs/shopbot/internal/middleware"
	"github.com/shopbot-labs/shopbot/internal/store"
	"github.com/shopbot-labs/shopbot/web"
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

	client := llm.NewOpenAIClient(llm.OpenAIConfig{
		APIKey:  cfg.Provider.APIKey,
		Model:   cfg.Provider.Model,
		Timeout: cfg.Provider.Timeout,
	}, logger)

	generator := catalog.NewGenerator(client, logger)

	fetcher, err := images.NewHTTPFetcher(cfg.Image.SearchURL, cfg.Image.Dir, cfg.Image.Timeout, logger)
	if err != nil {
		slog.Error("Failed to initialize image fetcher", "error", err)
		os.Exit(1)
	}

	convLog, err := chat.NewConversationLogger(chat.ConversationLogConfig{
		Enabled:   cfg.ConversationLog.Enabled,
		Dir:       cfg.ConversationLog.Dir,
		QueueSize: cfg.ConversationLog.QueueSize,
	}, logger)
	if err != nil {
		slog.Error("Failed to initialize conversation logger", "error", err)
		os.Exit(1)
	}
	defer convLog.Close()

	// Initialize services.
	sessions := chat.NewSessionManager(logger)
	svc := chat.NewService(client, generator, sessions, fetcher, repo, convLog, chat.ServiceConfig{
		ProviderTimeout: cfg.Provider.Timeout,
		ResolveTimeout:  cfg.Provider.ResolveTimeout,
	}, logger)

	// Initialize handlers.
	handler := api.NewHandler(svc, sessions, repo)

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS([]string{"*"}))

	handler.RegisterRoutes(r)

	// Downloaded product images are served from disk; everything else
	// comes from the embedded widget.
	r.Handle("/static/img_results/*", http.StripPrefix("/static/img_results/",
		http.FileServer(http.Dir(cfg.Image.Dir))))
	r.Handle("/*", web.Handler())

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 3 * time.Minute, // provider calls can be slow
		IdleTimeout:  120 * time.Second,
	}

	// Start TTL sweeper.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sessions.StartTTLSweeper(ctx, cfg.SessionTTL)
	slog.Info("Session TTL sweeper started", "session_ttl", cfg.SessionTTL)

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
