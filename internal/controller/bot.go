package controller

import (
	"context"

	"github.com/Freeeeeet/mentorship_bot/internal/controller/handlers"
	"github.com/Freeeeeet/mentorship_bot/internal/notify"
	"github.com/Freeeeeet/mentorship_bot/internal/repository"
	"github.com/Freeeeeet/mentorship_bot/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

type BotController struct {
	bot      *bot.Bot
	handlers *handlers.Handlers
	logger   *zap.Logger
}

func NewBotController(
	botInstance *bot.Bot,
	mentorshipService *service.MentorshipService,
	mentorRepo *repository.MentorRepository,
	parentRepo *repository.ParentRepository,
	logger *zap.Logger,
) *BotController {
	cmdHandlers := handlers.NewHandlers(
		mentorshipService,
		mentorRepo,
		parentRepo,
		logger,
	)

	return &BotController{
		bot:      botInstance,
		handlers: cmdHandlers,
		logger:   logger,
	}
}

// RegisterHandlers регистрирует все обработчики команд
func (c *BotController) RegisterHandlers(ctx context.Context) error {
	// Регистрируем команды
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, c.handlers.HandleStart)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypeExact, c.handlers.HandleHelp)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/requests", bot.MatchTypeExact, c.handlers.HandleRequests)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/mymentorships", bot.MatchTypeExact, c.handlers.HandleMyMentorships)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/request", bot.MatchTypePrefix, c.handlers.HandleSendRequest)

	// Кнопки принять/отклонить из уведомлений
	c.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, notify.CallbackAcceptPrefix, bot.MatchTypePrefix, c.handlers.HandleDecisionCallback)
	c.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, notify.CallbackRejectPrefix, bot.MatchTypePrefix, c.handlers.HandleDecisionCallback)

	// Устанавливаем меню команд
	return c.setCommands(ctx)
}

// setCommands устанавливает список команд в меню бота
func (c *BotController) setCommands(ctx context.Context) error {
	commands := []models.BotCommand{
		{Command: "start", Description: "🚀 Начать работу с ботом"},
		{Command: "help", Description: "❓ Справка по командам"},
		{Command: "request", Description: "📬 Отправить запрос ментору (родитель)"},
		{Command: "requests", Description: "📥 Входящие запросы (ментор)"},
		{Command: "mymentorships", Description: "🤝 Мои менторства"},
	}

	_, err := c.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: commands,
	})
	if err != nil {
		c.logger.Error("Failed to set bot commands", zap.Error(err))
		return err
	}

	return nil
}
