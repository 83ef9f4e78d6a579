package handlers

import (
	"context"
	"errors"
	"strings"

	"github.com/Freeeeeet/mentorship_bot/internal/notify"
	"github.com/Freeeeeet/mentorship_bot/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// HandleDecisionCallback обрабатывает нажатие кнопок принять/отклонить
// из уведомления о запросе на менторство
func (h *Handlers) HandleDecisionCallback(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.CallbackQuery == nil {
		return
	}
	query := update.CallbackQuery

	accept := strings.HasPrefix(query.Data, notify.CallbackAcceptPrefix)
	raw := strings.TrimPrefix(query.Data, notify.CallbackAcceptPrefix)
	raw = strings.TrimPrefix(raw, notify.CallbackRejectPrefix)

	token, err := uuid.Parse(raw)
	if err != nil {
		h.answerCallback(ctx, b, query.ID, "❌ Неверный формат данных")
		return
	}

	mentorship, err := h.mentorshipService.GetByToken(ctx, token)
	if err != nil {
		h.answerCallback(ctx, b, query.ID, errorMessage(err))
		return
	}

	// Ответить на запрос может только ментор, которому он адресован
	mentor, err := h.mentorRepo.GetByTelegramID(ctx, query.From.ID)
	if err != nil {
		h.logger.Error("Failed to get mentor for callback", zap.Error(err))
		h.answerCallback(ctx, b, query.ID, "❌ Произошла ошибка, попробуйте позже")
		return
	}
	if mentor == nil || mentor.ID != mentorship.Mentor.ID {
		h.answerCallback(ctx, b, query.ID, "❌ Этот запрос адресован другому ментору")
		return
	}

	if accept {
		err = h.mentorshipService.AcceptRequest(ctx, mentorship.ID)
	} else {
		_, err = h.mentorshipService.RejectRequest(ctx, mentorship.ID, true)
	}
	if err != nil {
		h.logger.Warn("Failed to apply mentor decision",
			zap.Int64("mentorship_id", mentorship.ID),
			zap.Bool("accept", accept),
			zap.Error(err),
		)
		h.answerCallback(ctx, b, query.ID, errorMessage(err))
		return
	}

	if accept {
		h.answerCallback(ctx, b, query.ID, "🤝 Запрос принят")
	} else {
		h.answerCallback(ctx, b, query.ID, "Запрос отклонён")
	}
}

// answerCallback отвечает на callback query всплывающим сообщением
func (h *Handlers) answerCallback(ctx context.Context, b *bot.Bot, queryID, text string) {
	_, err := b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: queryID,
		Text:            text,
	})
	if err != nil {
		h.logger.Error("Failed to answer callback query", zap.Error(err))
	}
}

// errorMessage возвращает пользовательское сообщение для ошибки сервиса
func errorMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrValidation):
		return "❌ Проверьте данные запроса: все участники должны быть указаны, сообщение не может быть пустым"
	case errors.Is(err, service.ErrNotFound):
		return "❌ Запись не найдена"
	case errors.Is(err, service.ErrInvalidState):
		return "❌ Запрос уже обработан"
	default:
		return "❌ Произошла ошибка, попробуйте позже"
	}
}
