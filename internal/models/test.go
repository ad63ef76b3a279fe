package models

import (
	"time"

	"gorm.io/datatypes"
)

// TestQuestion is one question inside a mock test. The slice is stored as a
// JSON document on the test row, questions are never addressed individually.
type TestQuestion struct {
	QuestionText  string   `json:"question_text"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correct_answer"`
	Marks         float64  `json:"marks"`
}

// MockTest is a timed multiple-choice test created by a faculty member.
type MockTest struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	Title           string         `gorm:"size:255;not null" json:"title"`
	Description     string         `gorm:"type:text" json:"description"`
	Subject         string         `gorm:"size:200;index" json:"subject"`
	CourseID        *uint          `gorm:"index" json:"course_id,omitempty"`
	CreatedBy       uint           `gorm:"not null;index" json:"created_by"`
	Questions       datatypes.JSON `gorm:"type:jsonb;not null" json:"questions"`
	DurationMinutes int            `gorm:"not null" json:"duration_minutes"`
	TotalMarks      float64        `gorm:"not null" json:"total_marks"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// TestAttempt records a student's submitted answers and score for a test.
type TestAttempt struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	TestID      uint           `gorm:"not null;index:idx_attempt_test_student" json:"test_id"`
	StudentID   uint           `gorm:"not null;index:idx_attempt_test_student" json:"student_id"`
	Answers     datatypes.JSON `gorm:"type:jsonb;not null" json:"answers"`
	Score       float64        `gorm:"not null" json:"score"`
	Percentage  float64        `gorm:"not null" json:"percentage"`
	SubmittedAt time.Time      `gorm:"not null" json:"submitted_at"`
	CreatedAt   time.Time      `json:"created_at"`
}
