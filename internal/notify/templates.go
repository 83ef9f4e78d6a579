package notify

import (
	"fmt"

	"github.com/google/uuid"
)

// Template identifies a message template understood by the gateway.
type Template string

// Notification templates
const (
	TemplateRequestMentor   Template = "mentorship_request_mentor"
	TemplateRequestParent   Template = "mentorship_request_parent"
	TemplateAcceptedMentor  Template = "mentorship_accepted_mentor"
	TemplateAcceptedParent  Template = "mentorship_accepted_parent"
	TemplateRejectedMentor  Template = "mentorship_rejected_mentor"
	TemplateRejectedParent  Template = "mentorship_rejected_parent"
	TemplateRequestReminder Template = "mentorship_request_reminder"
)

// Recipient получатель уведомления
type Recipient struct {
	Name       string
	TelegramID int64
}

// Data контекст для рендеринга шаблона
type Data struct {
	MentorName  string
	ParentName  string
	StudentName string
	Message     string
	Token       uuid.UUID // токен менторства для inline-кнопок
}

// Render возвращает текст сообщения для шаблона
func Render(tpl Template, data Data) (string, error) {
	switch tpl {
	case TemplateRequestMentor:
		return fmt.Sprintf(
			"📬 Новый запрос на менторство!\n\n"+
				"👪 Родитель: %s\n"+
				"🧑‍🎓 Ученик: %s\n\n"+
				"💬 %s",
			data.ParentName, data.StudentName, data.Message,
		), nil
	case TemplateRequestParent:
		return fmt.Sprintf(
			"✅ Запрос на менторство отправлен!\n\n"+
				"🧑‍🏫 Ментор: %s\n"+
				"🧑‍🎓 Ученик: %s\n\n"+
				"Мы сообщим вам, когда ментор ответит.",
			data.MentorName, data.StudentName,
		), nil
	case TemplateAcceptedMentor:
		return fmt.Sprintf(
			"🤝 Вы приняли запрос на менторство.\n\n"+
				"🧑‍🎓 Ученик: %s\n"+
				"👪 Родитель: %s",
			data.StudentName, data.ParentName,
		), nil
	case TemplateAcceptedParent:
		return fmt.Sprintf(
			"🎉 Ментор %s принял ваш запрос!\n\n"+
				"Менторство для %s началось.",
			data.MentorName, data.StudentName,
		), nil
	case TemplateRejectedMentor:
		return fmt.Sprintf(
			"Вы отклонили запрос на менторство ученика %s.",
			data.StudentName,
		), nil
	case TemplateRejectedParent:
		return fmt.Sprintf(
			"😔 Ментор %s отклонил запрос для %s.\n\n"+
				"Вы можете отправить запрос другому ментору.",
			data.MentorName, data.StudentName,
		), nil
	case TemplateRequestReminder:
		return fmt.Sprintf(
			"⏰ Напоминание: запрос на менторство ждёт вашего ответа.\n\n"+
				"🧑‍🎓 Ученик: %s\n"+
				"💬 %s",
			data.StudentName, data.Message,
		), nil
	}
	return "", fmt.Errorf("unknown template: %s", tpl)
}

// NeedsDecisionButtons проверяет, нужны ли шаблону кнопки принять/отклонить
func NeedsDecisionButtons(tpl Template) bool {
	return tpl == TemplateRequestMentor || tpl == TemplateRequestReminder
}
