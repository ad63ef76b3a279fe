package models

import "time"

// Answerer types for a resolved query.
const (
	AnsweredByFaculty = "faculty"
	AnsweredByAI      = "ai"
)

// Query is a doubt posted by a student, answerable by faculty or the assistant.
type Query struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	Question       string     `gorm:"type:text;not null" json:"question"`
	Subject        string     `gorm:"size:200;index" json:"subject"`
	AskedBy        uint       `gorm:"not null;index" json:"asked_by"`
	Answer         string     `gorm:"type:text" json:"answer,omitempty"`
	AnsweredBy     *uint      `json:"answered_by,omitempty"`
	AnsweredByType string     `gorm:"size:10" json:"answered_by_type,omitempty"`
	AnsweredAt     *time.Time `json:"answered_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Answered reports whether the query has already been resolved.
func (q *Query) Answered() bool {
	return q.Answer != ""
}
