package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/Freeeeeet/mentorship_bot/internal/app"
	"github.com/Freeeeeet/mentorship_bot/internal/config"
	"github.com/Freeeeeet/mentorship_bot/internal/controller"
	"github.com/Freeeeeet/mentorship_bot/internal/notify"
	"github.com/Freeeeeet/mentorship_bot/internal/repository"
	"github.com/Freeeeeet/mentorship_bot/internal/service"
	"github.com/go-telegram/bot"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	logger.Info("Starting mentorship bot", zap.String("environment", cfg.Environment))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Подключаемся к базе
	pool, err := pgxpool.New(ctx, cfg.GetDBDSN())
	if err != nil {
		logger.Fatal("Failed to create connection pool", zap.Error(err))
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Fatal("Failed to ping database", zap.Error(err))
	}

	// Применяем миграции
	migrator, err := app.NewMigrator(pool, cfg.MigrationsPath)
	if err != nil {
		logger.Fatal("Failed to create migrator", zap.Error(err))
	}
	if err := migrator.Run(ctx); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	migrator.Close()

	// Репозитории
	mentorRepo := repository.NewMentorRepository(pool)
	parentRepo := repository.NewParentRepository(pool)
	mentorshipRepo := repository.NewMentorshipRepository(pool)
	directory := repository.NewDirectory(mentorRepo, parentRepo)

	// Telegram bot
	botInstance, err := bot.New(cfg.TelegramToken)
	if err != nil {
		logger.Fatal("Failed to create bot", zap.Error(err))
	}

	// Сервисы
	gateway := notify.NewTelegramGateway(botInstance, logger)
	mentorshipService := service.NewMentorshipService(mentorshipRepo, directory, gateway, logger)

	// Фоновые напоминания о зависших запросах
	scheduler := app.NewScheduler(mentorshipService, logger)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	// Контроллер
	botController := controller.NewBotController(botInstance, mentorshipService, mentorRepo, parentRepo, logger)
	if err := botController.RegisterHandlers(ctx); err != nil {
		logger.Fatal("Failed to register handlers", zap.Error(err))
	}

	logger.Info("Bot is running")
	botInstance.Start(ctx)

	logger.Info("Bot stopped")
}
