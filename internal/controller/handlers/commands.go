package handlers

import (
	"context"
	"strconv"
	"strings"

	"github.com/Freeeeeet/mentorship_bot/internal/model"
	"github.com/Freeeeeet/mentorship_bot/internal/repository"
	"github.com/Freeeeeet/mentorship_bot/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

type Handlers struct {
	mentorshipService *service.MentorshipService
	mentorRepo        *repository.MentorRepository
	parentRepo        *repository.ParentRepository
	logger            *zap.Logger
}

func NewHandlers(
	mentorshipService *service.MentorshipService,
	mentorRepo *repository.MentorRepository,
	parentRepo *repository.ParentRepository,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		mentorshipService: mentorshipService,
		mentorRepo:        mentorRepo,
		parentRepo:        parentRepo,
		logger:            logger,
	}
}

// HandleStart обрабатывает команду /start
func (h *Handlers) HandleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	text := "👋 Добро пожаловать в бот менторской программы!\n\n" +
		"Родители отправляют запросы менторам от имени своих учеников, " +
		"менторы принимают или отклоняют их прямо здесь.\n\n" +
		"Используйте /help для списка команд."

	h.sendText(ctx, b, update.Message.Chat.ID, text)
}

// HandleHelp обрабатывает команду /help
func (h *Handlers) HandleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	text := "📖 Команды:\n\n" +
		"/request <id ментора> <id ученика> <сообщение> — отправить запрос на менторство (родитель)\n" +
		"/requests — входящие запросы (ментор)\n" +
		"/mymentorships — мои менторства\n" +
		"/help — эта справка"

	h.sendText(ctx, b, update.Message.Chat.ID, text)
}

// HandleSendRequest обрабатывает команду /request от родителя.
// Формат: /request <id ментора> <id ученика> <сообщение>
func (h *Handlers) HandleSendRequest(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	parent, err := h.parentRepo.GetByTelegramID(ctx, update.Message.From.ID)
	if err != nil {
		h.logger.Error("Failed to get parent", zap.Error(err))
		h.sendText(ctx, b, chatID, "❌ Произошла ошибка, попробуйте позже")
		return
	}
	if parent == nil {
		h.sendText(ctx, b, chatID, "❌ Эта команда доступна только родителям")
		return
	}

	fields := strings.Fields(update.Message.Text)
	if len(fields) < 4 {
		h.sendText(ctx, b, chatID, "Формат: /request <id ментора> <id ученика> <сообщение>")
		return
	}

	mentorID, err1 := strconv.ParseInt(fields[1], 10, 64)
	studentID, err2 := strconv.ParseInt(fields[2], 10, 64)
	if err1 != nil || err2 != nil {
		h.sendText(ctx, b, chatID, "❌ Неверный формат идентификаторов")
		return
	}
	message := strings.Join(fields[3:], " ")

	student := parent.FindStudent(studentID)
	if student == nil {
		h.sendText(ctx, b, chatID, "❌ Ученик не найден в вашем списке детей")
		return
	}

	mentorship, err := h.mentorshipService.SendRequest(ctx, service.MentorshipRequest{
		Parent:  parent,
		Student: student,
		Mentor:  &model.Mentor{ID: mentorID},
		Message: message,
	})
	if err != nil {
		h.logger.Warn("Failed to send mentorship request",
			zap.Int64("parent_id", parent.ID),
			zap.Int64("mentor_id", mentorID),
			zap.Error(err),
		)
		h.sendText(ctx, b, chatID, errorMessage(err))
		return
	}

	h.sendText(ctx, b, chatID, "📬 Запрос #"+strconv.FormatInt(mentorship.ID, 10)+" отправлен ментору!")
}

// HandleRequests показывает ментору его входящие pending запросы
func (h *Handlers) HandleRequests(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	mentor, err := h.mentorRepo.GetByTelegramID(ctx, update.Message.From.ID)
	if err != nil {
		h.logger.Error("Failed to get mentor", zap.Error(err))
		h.sendText(ctx, b, chatID, "❌ Произошла ошибка, попробуйте позже")
		return
	}
	if mentor == nil {
		h.sendText(ctx, b, chatID, "❌ Эта команда доступна только менторам")
		return
	}

	mentorships, err := h.mentorshipService.GetCurrentMentorships(ctx, mentor.ID)
	if err != nil {
		h.logger.Error("Failed to get mentorships", zap.Int64("mentor_id", mentor.ID), zap.Error(err))
		h.sendText(ctx, b, chatID, "❌ Произошла ошибка, попробуйте позже")
		return
	}

	pending := make([]*model.Mentorship, 0, len(mentorships))
	for _, m := range mentorships {
		if m.IsPending() {
			pending = append(pending, m)
		}
	}

	if len(pending) == 0 {
		h.sendText(ctx, b, chatID, "📭 Входящих запросов нет")
		return
	}

	for _, m := range pending {
		_, err := b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:      chatID,
			Text:        formatPendingRequest(m),
			ReplyMarkup: decisionKeyboard(m),
		})
		if err != nil {
			h.logger.Error("Failed to send pending request",
				zap.Int64("mentorship_id", m.ID),
				zap.Error(err),
			)
		}
	}
}

// HandleMyMentorships показывает менторства пользователя в любой роли
func (h *Handlers) HandleMyMentorships(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	userID, err := h.resolveUserID(ctx, update.Message.From.ID)
	if err != nil {
		h.logger.Error("Failed to resolve user", zap.Error(err))
		h.sendText(ctx, b, chatID, "❌ Произошла ошибка, попробуйте позже")
		return
	}
	if userID == 0 {
		h.sendText(ctx, b, chatID, "❌ Вы не зарегистрированы в менторской программе")
		return
	}

	mentorships, err := h.mentorshipService.GetCurrentMentorships(ctx, userID)
	if err != nil {
		h.logger.Error("Failed to get mentorships", zap.Int64("user_id", userID), zap.Error(err))
		h.sendText(ctx, b, chatID, "❌ Произошла ошибка, попробуйте позже")
		return
	}

	if len(mentorships) == 0 {
		h.sendText(ctx, b, chatID, "У вас пока нет менторств")
		return
	}

	var sb strings.Builder
	sb.WriteString("🤝 Ваши менторства:\n")
	for _, m := range mentorships {
		sb.WriteString("\n")
		sb.WriteString(formatMentorship(m))
		sb.WriteString("\n")
	}

	h.sendText(ctx, b, chatID, sb.String())
}

// resolveUserID ищет пользователя среди менторов и родителей по Telegram ID
func (h *Handlers) resolveUserID(ctx context.Context, telegramID int64) (int64, error) {
	mentor, err := h.mentorRepo.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return 0, err
	}
	if mentor != nil {
		return mentor.ID, nil
	}

	parent, err := h.parentRepo.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return 0, err
	}
	if parent != nil {
		return parent.ID, nil
	}

	return 0, nil
}

// sendText отправляет простое текстовое сообщение
func (h *Handlers) sendText(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		h.logger.Error("Failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
