package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	chatinfra "github.com/boddenberg/networth-bfa-go/internal/chat/infra"
	chatservice "github.com/boddenberg/networth-bfa-go/internal/chat/service"
	"github.com/boddenberg/networth-bfa-go/internal/config"
	"github.com/boddenberg/networth-bfa-go/internal/handler"
	"github.com/boddenberg/networth-bfa-go/internal/infra/cache"
	"github.com/boddenberg/networth-bfa-go/internal/infra/observability"
	"github.com/boddenberg/networth-bfa-go/internal/infra/resilience"
	"github.com/boddenberg/networth-bfa-go/internal/infra/supabase"
	"github.com/boddenberg/networth-bfa-go/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Duration("jwt_access_ttl", cfg.JWTAccessTTL),
		zap.Duration("chat_session_ttl", cfg.ChatSessionTTL),
		zap.String("gemini_model", cfg.GeminiModel),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "networth-bfa")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
	}
	supabaseCB := resilience.NewCircuitBreaker("supabase")
	geminiCB := resilience.NewCircuitBreaker("gemini")

	// --- Store ---
	if cfg.SupabaseURL == "" {
		logger.Fatal("SUPABASE_URL is required")
	}
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	store := supabase.NewClient(
		httpClient,
		cfg.SupabaseURL,
		cfg.SupabaseAnonKey,
		cfg.SupabaseServiceKey,
		supabaseCB,
		resilienceCfg,
		logger,
	)

	// --- Services ---
	finSvc := service.NewFinanceService(store, store, metrics, logger)
	authSvc := service.NewAuthService(store, cfg.JWTSecret, cfg.JWTAccessTTL, logger)

	// --- Chat ---
	var chatRegistry *chatservice.Registry
	if cfg.GeminiAPIKey != "" {
		streamer, err := chatinfra.NewGeminiStreamer(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel, geminiCB)
		if err != nil {
			logger.Fatal("failed to init gemini client", zap.Error(err))
		}
		sessions := cache.New[*chatservice.Session](cfg.ChatSessionTTL)
		defer sessions.Stop()
		chatRegistry = chatservice.NewRegistry(sessions, chatservice.SessionDeps{
			Completion: streamer,
			Contexts:   finSvc,
			Users:      store,
			Metrics:    metrics,
			Logger:     logger,
		}, logger)
		logger.Info("chat enabled", zap.String("model", cfg.GeminiModel))
	} else {
		logger.Warn("chat disabled: GEMINI_API_KEY not configured")
	}

	// --- Router ---
	router := handler.NewRouter(finSvc, authSvc, chatRegistry, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 0, // streaming websocket responses have no bound
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
