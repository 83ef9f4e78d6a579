package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

// Callback data prefixes for decision buttons. The bot controller parses
// these back into accept/reject calls.
const (
	CallbackAcceptPrefix = "mreq_accept:"
	CallbackRejectPrefix = "mreq_reject:"
)

// TelegramGateway доставляет уведомления через Telegram. Доставка
// best-effort: вызывающий код логирует ошибку и продолжает работу.
type TelegramGateway struct {
	bot    *bot.Bot
	logger *zap.Logger
}

func NewTelegramGateway(botInstance *bot.Bot, logger *zap.Logger) *TelegramGateway {
	return &TelegramGateway{
		bot:    botInstance,
		logger: logger,
	}
}

// Send рендерит шаблон и отправляет сообщение получателю.
// Транзиентные ошибки Telegram ретраятся с экспоненциальным backoff.
func (g *TelegramGateway) Send(ctx context.Context, to Recipient, tpl Template, data Data) error {
	if to.TelegramID == 0 {
		return fmt.Errorf("recipient %q has no telegram id", to.Name)
	}

	text, err := Render(tpl, data)
	if err != nil {
		return fmt.Errorf("render template: %w", err)
	}

	params := &bot.SendMessageParams{
		ChatID: to.TelegramID,
		Text:   text,
	}
	if NeedsDecisionButtons(tpl) {
		params.ReplyMarkup = decisionKeyboard(data)
	}

	backoff := retry.WithMaxRetries(3, retry.NewExponential(500*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if _, err := g.bot.SendMessage(ctx, params); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}

	g.logger.Info("Notification sent",
		zap.String("template", string(tpl)),
		zap.String("recipient", to.Name),
		zap.Int64("telegram_id", to.TelegramID),
	)

	return nil
}

// decisionKeyboard строит кнопки принять/отклонить для запроса
func decisionKeyboard(data Data) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "✅ Принять", CallbackData: CallbackAcceptPrefix + data.Token.String()},
				{Text: "❌ Отклонить", CallbackData: CallbackRejectPrefix + data.Token.String()},
			},
		},
	}
}
