package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/noah-isme/school-diary-api/internal/bootstrap"
	"github.com/noah-isme/school-diary-api/internal/bot"
	"github.com/noah-isme/school-diary-api/internal/repository"
	"github.com/noah-isme/school-diary-api/internal/service"
	"github.com/noah-isme/school-diary-api/pkg/cache"
	"github.com/noah-isme/school-diary-api/pkg/config"
	"github.com/noah-isme/school-diary-api/pkg/database"
	"github.com/noah-isme/school-diary-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Telegram.Token == "" {
		logr.Fatal("TELEGRAM_TOKEN is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db.DB, "up"); err != nil {
			logr.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	// chat state lives in Redis, so the bot cannot run without it
	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Fatal("failed to connect redis", zap.Error(err))
	}
	defer redisClient.Close()

	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		logr.Fatal("failed to connect telegram", zap.Error(err))
	}
	api.Debug = cfg.Telegram.Debug
	logr.Info("telegram bot authorized", zap.String("username", api.Self.UserName))

	metricsSvc := service.NewMetricsService()
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	repos := bootstrap.NewRepositories(db)
	services := bootstrap.NewServices(repos, bootstrap.Options{
		JWT:     cfg.JWT,
		Cache:   service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.TTL, logr, cfg.Cache.Enabled),
		Metrics: metricsSvc,
		Logger:  logr,
	})

	b := bot.New(bot.Deps{
		Client:    api,
		States:    bot.NewStateStore(cacheRepo, cfg.Telegram.StateTTL),
		Sessions:  repos.Telegram,
		Auth:      services.Auth,
		Classes:   services.Classes,
		Gradebook: services.Gradebook,
		Portal:    services.StudentPortal,
		Metrics:   metricsSvc,
		Logger:    logr.Named("bot"),
	}, bot.Config{
		PollTimeout: cfg.Telegram.PollTimeout,
		MaxRetries:  cfg.Telegram.MaxRetries,
		RetryDelay:  time.Second,
	})

	if err := b.Run(ctx); err != nil {
		logr.Fatal("telegram bot stopped", zap.Error(err))
	}
	logr.Info("telegram bot stopped")
}
