package model

import "time"

// Mentor is a volunteer offering mentorship. Profile fields are owned by the
// user directory; the lifecycle engine only reads them and bumps
// LastRequestTime when a new request arrives.
type Mentor struct {
	ID          int64    `json:"id"`
	TelegramID  int64    `json:"telegram_id"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	College     string   `json:"college"`
	Major       string   `json:"major"`
	Subjects    []string `json:"subjects"`
	GradeLevels []string `json:"grade_levels"`
	Available   bool     `json:"available"`
	// LastRequestTime — время последнего запроса на менторство этому ментору
	LastRequestTime *time.Time `json:"last_request_time"`
	CreatedAt       time.Time  `json:"created_at"`
}
