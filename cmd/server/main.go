package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/examforge/internal/config"
	"github.com/stemsi/examforge/internal/database"
	"github.com/stemsi/examforge/internal/handler"
	"github.com/stemsi/examforge/internal/identity"
	"github.com/stemsi/examforge/internal/logger"
	"github.com/stemsi/examforge/internal/profile"
	"github.com/stemsi/examforge/internal/repository"
	"github.com/stemsi/examforge/internal/router"
	"github.com/stemsi/examforge/internal/service"
	"github.com/stemsi/examforge/internal/session"
	"github.com/stemsi/examforge/internal/validator"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("doc_store", cfg.DocStore).
		Str("log_level", cfg.LogLevel).
		Msg("Starting examforge")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to Document Store ─────────────────────────────────────
	store, closeStore, err := database.OpenDocStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open document store")
	}
	defer closeStore()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Session Hub ───────────────────────────────────────────────────
	hub := session.NewHub()
	relayCtx, relayCancel := context.WithCancel(context.Background())
	go session.NewRelay(hub, rdb, log).Run(relayCtx)

	// ─── Initialize Repositories ───────────────────────────────────────
	userRepo := repository.NewUserRepository(store)
	questionRepo := repository.NewQuestionRepository(store)
	testRepo := repository.NewTestRepository(store)

	// ─── Initialize Services ──────────────────────────────────────────
	provider := identity.NewLocalProvider(cfg, store, identity.NewRedisSessionStore(rdb), hub, log)
	resolver := profile.NewResolver(userRepo, rdb, cfg.RoleCacheTTL, hub, log)
	defer resolver.Close()

	authService := service.NewAuthService(provider, userRepo, resolver, log)
	questionService := service.NewQuestionService(questionRepo)
	testService := service.NewTestService(testRepo)
	draftService := service.NewDraftService(service.NewRedisDraftStore(rdb, cfg.DraftTTL), questionRepo, testRepo, log)
	viewerService := service.NewViewerService(testRepo, questionRepo, rdb, cfg.PaperTTL, cfg.JWTExpiry, log)
	mediaService := service.NewMediaService(cfg)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:     handler.NewAuthHandler(authService),
		Question: handler.NewQuestionHandler(questionService),
		Test:     handler.NewTestHandler(testService),
		Draft:    handler.NewDraftHandler(draftService),
		Viewer:   handler.NewViewerHandler(viewerService),
		Media:    handler.NewMediaHandler(mediaService),
		Session:  handler.NewSessionHandler(hub, log, cfg.AllowedOrigins),
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(router.Guards{Verifier: provider, Hub: hub, Roles: resolver}, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop relaying session events.
	relayCancel()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
