package model

import "time"

// Parent initiates mentorship requests on behalf of their students.
type Parent struct {
	ID         int64     `json:"id"`
	TelegramID int64     `json:"telegram_id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Students   []Student `json:"students"`
	CreatedAt  time.Time `json:"created_at"`
}

// FindStudent ищет ученика в списке детей родителя
func (p *Parent) FindStudent(studentID int64) *Student {
	for i := range p.Students {
		if p.Students[i].ID == studentID {
			return &p.Students[i]
		}
	}
	return nil
}
