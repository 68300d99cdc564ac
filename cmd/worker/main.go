package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/kriwitj/nso-forms/internal/cache"
	"github.com/kriwitj/nso-forms/internal/config"
	"github.com/kriwitj/nso-forms/internal/database"
	"github.com/kriwitj/nso-forms/internal/log"
	"github.com/kriwitj/nso-forms/internal/queue"
	"github.com/kriwitj/nso-forms/internal/repository"
	"github.com/kriwitj/nso-forms/internal/service"
	"github.com/kriwitj/nso-forms/internal/storage"
	"github.com/kriwitj/nso-forms/internal/tasks"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment, "worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection failed")
	}
	defer client.Close()

	dbPool, err := database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect postgres")
	}
	defer dbPool.Close()

	objectStore, err := storage.NewObjectStore(cfg.Storage)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init object store")
	}

	forms := repository.NewFormRepository(dbPool)
	questions := repository.NewQuestionRepository(dbPool)
	submissions := repository.NewSubmissionRepository(dbPool)

	exportService := service.NewExportService(service.ExportServiceOptions{
		Forms:       forms,
		Questions:   questions,
		Submissions: submissions,
		Exports:     repository.NewExportRepository(dbPool),
		Blobs:       objectStore,
		TimeZone:    cfg.Forms.TimeZone,
		Logger:      logger,
	})
	authService := service.NewAuthService(
		repository.NewUserRepository(dbPool),
		repository.NewSessionRepository(dbPool),
		cfg,
		logger,
	)

	processor := tasks.NewProcessor(logger, exportService, authService)
	consumer := queue.NewConsumer(
		client,
		cfg.Worker.Stream,
		cfg.Worker.Group,
		cfg.Worker.Consumer,
		cfg.Worker.ClaimInterval,
		logger,
		processor,
	)
	if err := consumer.EnsureGroup(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to create consumer group")
	}

	go func() {
		if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Fatal().Err(err).Msg("consumer stopped unexpectedly")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")
	time.Sleep(500 * time.Millisecond)
}
