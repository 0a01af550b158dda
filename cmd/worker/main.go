package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"campaigndash/internal/cache"
	"campaigndash/internal/config"
	"campaigndash/internal/database"
	"campaigndash/internal/insights"
	"campaigndash/internal/log"
	"campaigndash/internal/mailer"
	"campaigndash/internal/queue"
	"campaigndash/internal/repository"
	"campaigndash/internal/storage"
	"campaigndash/internal/tasks"
)

func main() {
	cfg, err := config.LoadWorker()
	if err != nil {
		panic(err)
	}

	logger := log.NewWithLevel(os.Stdout, cfg.Logging.Level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := cache.Connect(ctx, cfg.Redis.Conn(), "campaigndash-worker")
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection failed")
	}
	defer client.Close()

	deps := tasks.Dependencies{
		Mailer:       mailer.New(cfg.Mail, logger),
		VerifySecret: cfg.Verify.Secret,
		VerifyTTL:    cfg.Verify.TTL,
		FrontendURL:  cfg.Mail.FrontendURL,
	}

	if cfg.Postgres.DSN != "" {
		pool, err := database.Open(ctx, cfg.Postgres, "campaigndash-worker")
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect postgres")
		}
		defer pool.Close()
		deps.Sessions = repository.NewSessionRepository(pool)
	} else {
		logger.Warn().Msg("postgres not configured, cleanup tasks are no-ops")
	}

	if cfg.Storage.AccessKey != "" {
		store, err := storage.NewObjectStore(cfg.Storage)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to init object store")
		}
		if err := store.EnsureBucket(ctx); err != nil {
			logger.Warn().Err(err).Msg("ensure snapshot bucket failed")
		}
		deps.Archive = store
		deps.Insights = insights.NewService(insights.NewGraphClient(cfg.Facebook, nil), nil, 0, logger)
	} else {
		logger.Warn().Msg("object storage not configured, snapshot tasks are skipped")
	}

	processor := tasks.NewProcessor(deps, logger)
	consumer := queue.NewConsumer(
		client,
		cfg.Redis.Stream,
		cfg.Redis.Group,
		cfg.Redis.Consumer,
		cfg.Queues.ClaimInterval,
		logger,
		processor,
	)

	go func() {
		if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Fatal().Err(err).Msg("consumer stopped unexpectedly")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")
	time.Sleep(500 * time.Millisecond)
}
