package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"campaigndash/internal/cache"
	"campaigndash/internal/config"
	"campaigndash/internal/database"
	"campaigndash/internal/handlers"
	"campaigndash/internal/identity"
	"campaigndash/internal/insights"
	"campaigndash/internal/jobs"
	"campaigndash/internal/log"
	"campaigndash/internal/queue"
	"campaigndash/internal/repository"
	"campaigndash/internal/server"
	"campaigndash/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment)

	ctx := context.Background()

	dbPool, err := database.Open(ctx, cfg.Postgres, "campaigndash-api")
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect postgres")
	}
	if cfg.Postgres.Migrate {
		if err := database.Migrate(ctx, dbPool); err != nil {
			logger.Fatal().Err(err).Msg("schema migration failed")
		}
	}

	redisClient, err := cache.Connect(ctx, cfg.Redis, "campaigndash-api")
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}

	producer := queue.NewProducer(redisClient, cfg.Queue.Stream)
	limiter := cache.NewAttemptLimiter(redisClient, "campaigndash:login:", cfg.Security.LoginMaxAttempts, cfg.Security.LoginAttemptWindow)
	verifier := identity.NewGoogleVerifier(cfg.Google.ClientID, cfg.Google.TokenInfoURL, &http.Client{Timeout: 10 * time.Second})

	authService := service.NewAuthService(
		repository.NewUserRepository(dbPool),
		repository.NewSessionRepository(dbPool),
		limiter,
		producer,
		verifier,
		cfg.Security,
		logger,
	)

	graph := insights.NewGraphClient(cfg.Facebook, nil)
	if !graph.Configured() {
		logger.Warn().Msg("facebook insights not configured, insight routes will fail")
	}
	insightsService := insights.NewService(graph, cache.NewJSONCache(redisClient, "campaigndash:insights:"), cfg.Facebook.CacheTTL, logger)

	handlerSet := handlers.NewHandlerSet(logger, cfg, authService, insightsService, map[string]handlers.Checker{
		"database": dbPool.Ping,
		"cache":    func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
	})
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet)

	scheduler := jobs.NewScheduler(producer, cfg.Jobs, logger)
	if err := scheduler.Start(); err != nil {
		logger.Error().Err(err).Msg("scheduler start failed")
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, scheduler, dbPool, redisClient)
}

func waitForShutdown(logger zerolog.Logger, srv *server.HTTPServer, scheduler *jobs.Scheduler, db *pgxpool.Pool, redisClient *redis.Client) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	scheduler.Stop()

	db.Close()
	if err := redisClient.Close(); err != nil {
		logger.Error().Err(err).Msg("redis close error")
	}

	logger.Info().Msg("server exited cleanly")
}
