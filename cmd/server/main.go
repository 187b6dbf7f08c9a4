package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/verdantlane/loyalty-game-server/internal/config"
	"github.com/verdantlane/loyalty-game-server/internal/database"
	"github.com/verdantlane/loyalty-game-server/internal/handler"
	"github.com/verdantlane/loyalty-game-server/internal/jobs"
	"github.com/verdantlane/loyalty-game-server/internal/middleware"
	"github.com/verdantlane/loyalty-game-server/internal/redis"
	"github.com/verdantlane/loyalty-game-server/internal/repository"
	"github.com/verdantlane/loyalty-game-server/internal/service"
	"github.com/verdantlane/loyalty-game-server/internal/token"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	isProduction := os.Getenv("FLY_APP_NAME") != ""
	if err := cfg.Validate(isProduction); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}
	cancel()
	log.Info().Msg("database connected")

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected")

	customerRepo := repository.NewCustomerRepository(db.DB)
	eventRepo := repository.NewGameEventRepository(db.DB)

	codec := token.NewCodec(cfg.GameSessionSecret)
	rateLimiter := service.NewRateLimiter(redisClient.Client)
	gameService := service.NewGameService(customerRepo, eventRepo, codec, cfg.Cooldown(), cfg.SessionTTL())
	loyaltyService := service.NewLoyaltyService(customerRepo)

	authMiddleware := middleware.NewAuthMiddleware(customerRepo)
	customerRateLimit := middleware.NewCustomerRateLimitMiddleware(rateLimiter)
	startIPLimit := middleware.NewIPRateLimitMiddleware(
		rateLimiter, config.StartIPRateLimit, config.StartIPRateWindow, "game-start",
	)
	bodyLimitMiddleware := middleware.NewBodyLimitMiddleware(0)
	securityHeaders := middleware.NewSecurityHeadersMiddleware(isProduction)

	gameHandler := handler.NewGameHandler(gameService)
	loyaltyHandler := handler.NewLoyaltyHandler(loyaltyService)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
	r.Use(securityHeaders.Handler)
	r.Use(bodyLimitMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UnixMilli(),
		})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(authMiddleware.Handler)
		r.Use(customerRateLimit.Handler)

		r.Route("/game", func(r chi.Router) {
			r.With(startIPLimit.Handler).Post("/start", gameHandler.Start)
			r.Post("/complete", gameHandler.Complete)
			r.Get("/history", gameHandler.History)
		})

		r.Get("/loyalty", loyaltyHandler.Status)
	})

	cleanupJob := jobs.NewCleanupJob(eventRepo, config.EventRetention, config.CleanupJobInterval)
	cleanupJob.Start()
	defer cleanupJob.Stop()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
