// Package main is the entry point for the chat workspace API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/yuki-ai/chat-workspace/internal/config"
	"github.com/yuki-ai/chat-workspace/internal/events"
	"github.com/yuki-ai/chat-workspace/internal/handler"
	"github.com/yuki-ai/chat-workspace/internal/middleware"
	"github.com/yuki-ai/chat-workspace/internal/responder"
	"github.com/yuki-ai/chat-workspace/internal/session"
	"github.com/yuki-ai/chat-workspace/internal/workspace"
	"github.com/yuki-ai/chat-workspace/pkg/logger"
	"github.com/yuki-ai/chat-workspace/pkg/tracing"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting API server")

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "chat-workspace", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Connect the event publisher if enabled; the core works without it
	var publisher *events.Publisher
	if cfg.EventsEnabled {
		publisher, err = events.Connect(events.Config{
			URL:   cfg.NATSURL,
			Token: cfg.NATSToken,
		}, log)
		if err != nil {
			log.Warn("failed to connect to NATS, events disabled", zap.Error(err))
		} else {
			defer publisher.Close()
		}
	}

	// Initialize the responder client
	responderClient, err := responder.NewClient(responder.Provider(cfg.ResponderProvider), responder.Config{
		WebhookURL:      cfg.WebhookURL,
		WebhookSecret:   cfg.WebhookSecret,
		OpenAIAPIKey:    cfg.OpenAIAPIKey,
		AnthropicAPIKey: cfg.AnthropicAPIKey,
		Timeout:         cfg.ResponderTimeout,
	})
	if err != nil {
		log.Error("failed to create responder client", zap.Error(err))
		os.Exit(1)
	}
	log.Info("responder configured", zap.String("provider", responderClient.Name()))

	// Identity provider and workspace registry
	sessions := session.NewManager(cfg.JWTSecret, cfg.SessionTTL, cfg.Users)
	registry := workspace.NewRegistry(responderClient, publisher, log, cfg.WorkspaceTTL, cfg.SeedDemo)

	// Log session churn from the change-notification stream
	go func() {
		for change := range sessions.Subscribe() {
			log.Info("session changed",
				zap.String("type", string(change.Type)),
				zap.String("user_id", change.Session.UserID),
			)
		}
	}()

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(publisher, cfg.EventsEnabled)
	authHandler := handler.NewAuthHandler(sessions, registry, log)
	workspaceHandler := handler.NewWorkspaceHandler(registry, log)
	conversationHandler := handler.NewConversationHandler(registry, log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"Link", "X-Correlation-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(sessions))
			r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

			r.Post("/auth/logout", authHandler.Logout)

			r.Route("/workspace", func(r chi.Router) {
				r.Get("/", workspaceHandler.Snapshot)

				r.Post("/messages", workspaceHandler.Submit)
				r.Get("/messages/pinned", workspaceHandler.Pinned)
				r.Get("/messages/summary", workspaceHandler.Summary)
				r.Post("/messages/{id}/retry", workspaceHandler.Retry)
				r.Post("/messages/{id}/pin", workspaceHandler.TogglePin)
				r.Post("/messages/{id}/expand", workspaceHandler.ToggleExpand)
				r.Post("/messages/{id}/replies", workspaceHandler.SubReply)
				r.Get("/messages/{id}/jump", workspaceHandler.Jump)

				r.Post("/chat/new", workspaceHandler.NewChat)
				r.Post("/chat/open/{messageID}", workspaceHandler.Open)
			})

			r.Route("/conversations", func(r chi.Router) {
				r.Get("/", conversationHandler.List)
				r.Put("/{id}", conversationHandler.Rename)
				r.Delete("/{id}", conversationHandler.Delete)
			})

			r.Post("/folders", conversationHandler.CreateFolder)
		})
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}
