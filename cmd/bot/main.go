package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"videobot-backend/internal/bot"
	"videobot-backend/internal/common/config"
	"videobot-backend/internal/common/keylock"
	"videobot-backend/internal/common/logger"
	categoryredis "videobot-backend/internal/features/category/repository/redis"
	categoryservice "videobot-backend/internal/features/category/service"
	userredis "videobot-backend/internal/features/user/repository/redis"
	userservice "videobot-backend/internal/features/user/service"
	videoredis "videobot-backend/internal/features/video/repository/redis"
	videoservice "videobot-backend/internal/features/video/service"
	opshttp "videobot-backend/internal/http"
	redisplatform "videobot-backend/internal/platform/redis"
	"videobot-backend/internal/platform/shortener"
	"videobot-backend/internal/platform/telegram"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	logger.Init("videobot-backend", cfg.Debug)

	rdb, err := redisplatform.Open(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	logger.Info().Msg("Redis connection established")

	locks := keylock.New()
	shortenerClient := shortener.NewClient(cfg)
	telegramClient := telegram.NewClient(cfg)

	userRepo := userredis.NewUserRepository(rdb.Client)
	categoryRepo := categoryredis.NewCategoryRepository(rdb.Client)
	videoRepo := videoredis.NewVideoRepository(rdb.Client)

	userSvc := userservice.NewUserService(userRepo, locks, shortenerClient, cfg)
	categorySvc := categoryservice.NewCategoryService(categoryRepo)
	videoSvc := videoservice.NewVideoService(videoRepo, userRepo, locks)
	logger.Info().Msg("Services initialized")

	dispatcher := bot.NewDispatcher(userSvc, categorySvc, videoSvc, cfg)
	poller := bot.NewPoller(telegramClient, dispatcher, cfg.Telegram.PollTimeout)

	server := opshttp.NewServer(cfg, rdb, categorySvc)
	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("Starting ops HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Failed to start ops HTTP server")
		}
	}()

	logger.Info().Msg("Bot started")
	poller.Run(ctx)

	logger.Info().Msg("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Ops server forced to shutdown")
	}
	logger.Info().Msg("Server exited")
}
