package model

import "time"

// Student receives mentorship. A student may have only one ACTIVE mentorship
// at a time, but any number of mentorships in other states.
type Student struct {
	ID         int64     `json:"id"`
	ParentID   int64     `json:"parent_id"`
	Name       string    `json:"name"`
	GradeLevel string    `json:"grade_level"`
	Subjects   []string  `json:"subjects"`
	CreatedAt  time.Time `json:"created_at"`
}
