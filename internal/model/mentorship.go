package model

import (
	"time"

	"github.com/google/uuid"
)

// MentorshipState описывает этап жизненного цикла менторства.
//
// PENDING - запрос отправлен ментору, но ещё не принят.
// ACTIVE - менторство идёт.
// REJECTED - ментор отклонил запрос.
// ARCHIVED - менторство завершено, до этого было активным.
type MentorshipState string

// Mentorship state constants
const (
	StatePending  MentorshipState = "PENDING"
	StateActive   MentorshipState = "ACTIVE"
	StateRejected MentorshipState = "REJECTED"
	StateArchived MentorshipState = "ARCHIVED"
)

// transitions — единственные допустимые переходы.
// REJECTED и ARCHIVED терминальные.
var transitions = map[MentorshipState][]MentorshipState{
	StatePending: {StateActive, StateRejected},
	StateActive:  {StateArchived},
}

// IsValid проверяет, что состояние одно из четырёх известных
func (s MentorshipState) IsValid() bool {
	switch s {
	case StatePending, StateActive, StateRejected, StateArchived:
		return true
	}
	return false
}

// CanTransitionTo проверяет, разрешён ли переход в состояние next
func (s MentorshipState) CanTransitionTo(next MentorshipState) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal проверяет, является ли состояние терминальным
func (s MentorshipState) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// Mentorship represents a many-to-one relationship between a student and a
// mentor, mediated by the student's parent. A mentorship record is never
// deleted, only modified, so historical engagement metrics stay intact.
type Mentorship struct {
	ID      int64           `json:"id"`
	Token   uuid.UUID       `json:"token"` // идентификатор для callback-кнопок
	State   MentorshipState `json:"state"`
	Message string          `json:"message"`
	// StartDate установлен тогда и только тогда, когда состояние ACTIVE или ARCHIVED.
	StartDate *time.Time `json:"start_date"`
	// EndDate установлен тогда и только тогда, когда состояние ARCHIVED.
	EndDate   *time.Time   `json:"end_date"`
	Mentor    Ref[Mentor]  `json:"mentor"`
	Parent    Ref[Parent]  `json:"parent"`
	Student   Ref[Student] `json:"student"`
	Sessions  []Session    `json:"sessions"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt *time.Time   `json:"updated_at"`
}

// IsPending checks if the mentorship request is awaiting the mentor's decision
func (m *Mentorship) IsPending() bool {
	return m.State == StatePending
}

// IsActive checks if the mentorship is ongoing
func (m *Mentorship) IsActive() bool {
	return m.State == StateActive
}

// IsRejected checks if the mentor declined the request
func (m *Mentorship) IsRejected() bool {
	return m.State == StateRejected
}

// IsArchived checks if the mentorship has ended
func (m *Mentorship) IsArchived() bool {
	return m.State == StateArchived
}
