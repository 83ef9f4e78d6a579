package repository

import (
	"context"
	"time"

	"github.com/Freeeeeet/mentorship_bot/internal/model"
)

// Directory объединяет репозитории пользователей в справочник для
// сервисного слоя. Записи пользователей принадлежат справочнику; движок
// жизненного цикла только читает их и обновляет время последнего запроса
// ментора.
type Directory struct {
	mentors *MentorRepository
	parents *ParentRepository
}

func NewDirectory(mentors *MentorRepository, parents *ParentRepository) *Directory {
	return &Directory{
		mentors: mentors,
		parents: parents,
	}
}

// FindMentor ищет ментора по ID
func (d *Directory) FindMentor(ctx context.Context, id int64) (*model.Mentor, error) {
	return d.mentors.GetByID(ctx, id)
}

// FindParent ищет родителя по ID вместе со списком детей
func (d *Directory) FindParent(ctx context.Context, id int64) (*model.Parent, error) {
	return d.parents.GetByID(ctx, id)
}

// UpdateMentorLastRequest обновляет время последнего запроса ментору
func (d *Directory) UpdateMentorLastRequest(ctx context.Context, id int64, at time.Time) error {
	return d.mentors.UpdateLastRequest(ctx, id, at)
}
