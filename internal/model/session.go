package model

import "time"

// Session is a record of one mentoring interaction. Sessions belong to
// exactly one mentorship and are appended in order, never removed.
type Session struct {
	ID           int64     `json:"id"`
	MentorshipID int64     `json:"mentorship_id"`
	Rating       float64   `json:"rating"` // нормализованная оценка, 0..1
	Summary      string    `json:"summary"`
	Date         time.Time `json:"date"`
	CreatedAt    time.Time `json:"created_at"`
}

// RatingInRange проверяет, что оценка в допустимом диапазоне [0, 1]
func (s *Session) RatingInRange() bool {
	return s.Rating >= 0 && s.Rating <= 1
}
