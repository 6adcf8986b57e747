package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"triostack/internal/config"
	"triostack/internal/infra"
	"triostack/internal/repository"
	"triostack/internal/router"
	"triostack/internal/scheduler"
	"triostack/internal/service"
	"triostack/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Production emits plain JSON; development gets the console writer.
	log.Logger = infra.NewLogger(cfg.Env, os.Stderr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	startupCtx, startupCancel := context.WithTimeout(ctx, 15*time.Second)
	m, err := infra.NewMongo(startupCtx, cfg.MongoURI, cfg.MongoDB)
	startupCancel()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to mongodb")
	}
	if err := m.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ensure indexes")
	}

	rdb, err := infra.NewRedis(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	// Worker pool for async email delivery. Handlers are wired here
	// (composition root) so the pool has full access to infrastructure.
	mailer := infra.NewMailer(cfg)
	workerHandlers := &worker.Handlers{
		Email: worker.NewEmailWorker(mailer),
	}
	worker.StartPool(ctx, rdb, workerHandlers, cfg.WorkerPoolSize)

	// Scheduler gets its own repository/service instances; they are
	// stateless wrappers over the same collections the router uses.
	userRepo := repository.NewUserRepository(m.Users())
	assetRepo := repository.NewAssetRepository(m.Assets())
	dispatcher := worker.NewDispatcher(rdb)
	notifier := service.NewNotificationService(assetRepo, userRepo, dispatcher)
	assetSvc := service.NewAssetService(assetRepo, userRepo)

	sched := scheduler.New(assetSvc, notifier)
	if err := sched.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start scheduler")
	}

	r := router.New(cfg, m, rdb)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("triostack backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}

	sched.Stop()
	cancel()
	if err := m.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close mongodb connection")
	}
	log.Info().Msg("server exited")
}
