package handlers

import (
	"fmt"

	"github.com/Freeeeeet/mentorship_bot/internal/model"
	"github.com/Freeeeeet/mentorship_bot/internal/notify"
	"github.com/go-telegram/bot/models"
)

// StateDisplay содержит emoji и текст для отображения состояния
type StateDisplay struct {
	Emoji string
	Text  string
}

// GetStateDisplay возвращает emoji и текст для состояния менторства
func GetStateDisplay(state model.MentorshipState) StateDisplay {
	switch state {
	case model.StatePending:
		return StateDisplay{Emoji: "⏳", Text: "Ожидает ответа"}
	case model.StateActive:
		return StateDisplay{Emoji: "🤝", Text: "Активно"}
	case model.StateRejected:
		return StateDisplay{Emoji: "❌", Text: "Отклонено"}
	case model.StateArchived:
		return StateDisplay{Emoji: "📦", Text: "Завершено"}
	default:
		return StateDisplay{Emoji: "❓", Text: string(state)}
	}
}

// formatPendingRequest форматирует входящий запрос для ментора
func formatPendingRequest(m *model.Mentorship) string {
	student := "?"
	parent := "?"
	if m.Student.IsResolved() {
		student = m.Student.Resolved.Name
	}
	if m.Parent.IsResolved() {
		parent = m.Parent.Resolved.Name
	}

	return fmt.Sprintf(
		"📬 Запрос #%d\n\n"+
			"🧑‍🎓 Ученик: %s\n"+
			"👪 Родитель: %s\n\n"+
			"💬 %s\n\n"+
			"📅 Отправлен: %s",
		m.ID,
		student,
		parent,
		m.Message,
		m.CreatedAt.Format("02.01.2006 15:04"),
	)
}

// formatMentorship форматирует менторство для списка
func formatMentorship(m *model.Mentorship) string {
	display := GetStateDisplay(m.State)

	student := "?"
	mentor := "?"
	if m.Student.IsResolved() {
		student = m.Student.Resolved.Name
	}
	if m.Mentor.IsResolved() {
		mentor = m.Mentor.Resolved.Name
	}

	text := fmt.Sprintf(
		"%s #%d — %s\n"+
			"🧑‍🎓 Ученик: %s\n"+
			"🧑‍🏫 Ментор: %s\n"+
			"📋 Сессий: %d",
		display.Emoji,
		m.ID,
		display.Text,
		student,
		mentor,
		len(m.Sessions),
	)

	if m.StartDate != nil {
		text += fmt.Sprintf("\n📅 Начало: %s", m.StartDate.Format("02.01.2006"))
	}
	if m.EndDate != nil {
		text += fmt.Sprintf("\n🏁 Окончание: %s", m.EndDate.Format("02.01.2006"))
	}

	return text
}

// decisionKeyboard строит кнопки принять/отклонить для запроса
func decisionKeyboard(m *model.Mentorship) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "✅ Принять", CallbackData: notify.CallbackAcceptPrefix + m.Token.String()},
				{Text: "❌ Отклонить", CallbackData: notify.CallbackRejectPrefix + m.Token.String()},
			},
		},
	}
}
