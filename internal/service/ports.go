package service

import (
	"context"
	"time"

	"github.com/Freeeeeet/mentorship_bot/internal/model"
	"github.com/Freeeeeet/mentorship_bot/internal/notify"
	"github.com/google/uuid"
)

// MentorshipStore хранилище записей менторства. Реализации возвращают
// (nil, nil), если запись не найдена.
type MentorshipStore interface {
	Create(ctx context.Context, mentorship *model.Mentorship) error
	GetByID(ctx context.Context, id int64) (*model.Mentorship, error)
	GetByToken(ctx context.Context, token uuid.UUID) (*model.Mentorship, error)
	// GetByUser возвращает менторства, где пользователь выступает в любой из
	// трёх ролей, с загруженными записями участников. Битые ссылки остаются
	// неразрешёнными (Resolved == nil).
	GetByUser(ctx context.Context, userID int64) ([]*model.Mentorship, error)
	FindPending(ctx context.Context, parentID, studentID, mentorID int64) ([]*model.Mentorship, error)
	GetPendingOlderThan(ctx context.Context, cutoff time.Time) ([]*model.Mentorship, error)
	// UpdateStateIf атомарно переводит запись из expected в next.
	// Возвращает false, если текущее состояние не совпало с expected.
	UpdateStateIf(ctx context.Context, id int64, expected, next model.MentorshipState, startDate, endDate *time.Time) (bool, error)
	AddSession(ctx context.Context, session *model.Session) error
	Delete(ctx context.Context, id int64) error
}

// UserDirectory внешний справочник пользователей
type UserDirectory interface {
	FindMentor(ctx context.Context, id int64) (*model.Mentor, error)
	FindParent(ctx context.Context, id int64) (*model.Parent, error)
	UpdateMentorLastRequest(ctx context.Context, id int64, at time.Time) error
}

// NotificationGateway шлюз доставки уведомлений (fire-and-forget)
type NotificationGateway interface {
	Send(ctx context.Context, to notify.Recipient, tpl notify.Template, data notify.Data) error
}
