package main

import (
	"context"
	"crypto/rand"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/kriwitj/nso-forms/internal/cache"
	"github.com/kriwitj/nso-forms/internal/config"
	"github.com/kriwitj/nso-forms/internal/database"
	"github.com/kriwitj/nso-forms/internal/handlers"
	"github.com/kriwitj/nso-forms/internal/jobs"
	"github.com/kriwitj/nso-forms/internal/log"
	"github.com/kriwitj/nso-forms/internal/queue"
	"github.com/kriwitj/nso-forms/internal/repository"
	"github.com/kriwitj/nso-forms/internal/server"
	"github.com/kriwitj/nso-forms/internal/service"
	"github.com/kriwitj/nso-forms/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment, "api")

	ctx := context.Background()

	if cfg.Postgres.Migrate {
		if err := database.Migrate(cfg.Postgres.DSN); err != nil {
			logger.Fatal().Err(err).Msg("failed to run migrations")
		}
	}

	dbPool, err := database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect postgres")
	}

	var redisClient *redis.Client
	if !cfg.Redis.Disabled {
		redisClient, err = cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, running without throttle and queue")
			redisClient = nil
		}
	}

	objectStore, err := storage.NewObjectStore(cfg.Storage)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init object store")
	}
	if err := objectStore.EnsureBucket(ctx); err != nil {
		logger.Warn().Err(err).Msg("ensure bucket failed")
	}

	secret := []byte(cfg.Security.DownloadSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			logger.Fatal().Err(err).Msg("failed to generate download secret")
		}
		logger.Warn().Msg("no download secret configured, tickets will not survive a restart")
	}

	users := repository.NewUserRepository(dbPool)
	sessions := repository.NewSessionRepository(dbPool)
	forms := repository.NewFormRepository(dbPool)
	questions := repository.NewQuestionRepository(dbPool)
	submissions := repository.NewSubmissionRepository(dbPool)
	exports := repository.NewExportRepository(dbPool)

	var (
		limiter  service.SubmitLimiter
		jobQueue service.JobQueue
		producer *queue.Producer
	)
	if redisClient != nil {
		limiter = cache.NewSubmitThrottle(redisClient, cfg.Forms.SubmitCooldown)
		producer = queue.NewProducer(redisClient, cfg.Worker.Stream)
		jobQueue = producer
	}

	authService := service.NewAuthService(users, sessions, cfg, logger)
	userService := service.NewUserService(users, logger)
	formService := service.NewFormService(forms, questions, cfg.Forms, logger)
	submissionService := service.NewSubmissionService(forms, questions, submissions, limiter, logger)
	exportService := service.NewExportService(service.ExportServiceOptions{
		Forms:       forms,
		Questions:   questions,
		Submissions: submissions,
		Exports:     exports,
		Blobs:       objectStore,
		Queue:       jobQueue,
		Secret:      secret,
		TicketTTL:   cfg.Security.DownloadTTL,
		TimeZone:    cfg.Forms.TimeZone,
		Logger:      logger,
	})

	if cfg.Bootstrap.AdminEmail != "" {
		admin, err := userService.EnsureAdmin(ctx, cfg.Bootstrap.AdminEmail, cfg.Bootstrap.AdminName, cfg.Bootstrap.AdminPassword)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to bootstrap admin")
		}
		logger.Info().Str("user_id", admin.ID).Msg("bootstrap admin ready")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	deps := handlers.Dependencies{
		Log:         logger,
		Config:      cfg,
		Auth:        authService,
		Users:       userService,
		Forms:       formService,
		Submissions: submissionService,
		Exports:     exportService,
		Database:    dbPool.Ping,
		Storage:     objectStore.Ping,
	}
	if redisClient != nil {
		deps.Cache = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}
	httpServer := server.NewHTTPServer(cfg, logger, handlers.NewHandlerSet(deps), registry)

	var scheduler *jobs.Scheduler
	if producer != nil {
		scheduler = jobs.NewScheduler(producer, logger)
		if err := scheduler.Start(); err != nil {
			logger.Error().Err(err).Msg("scheduler start failed")
		}
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
		if err := srv.Shutdown(context.Background()); err != nil {
			logger.Error().Err(err).Msg("forced shutdown failed")
		}
	}

	if scheduler != nil {
		cancel := scheduler.Stop()
		cancel()
	}

	db.Close()
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("redis close error")
		}
	}

	logger.Info().Msg("server exited cleanly")
}
