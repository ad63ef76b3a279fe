package models

import (
	"time"

	"gorm.io/datatypes"
)

// Assignment is work set by a faculty member for a list of students.
// AssignedTo holds the student IDs as a JSON array, an empty list means the
// assignment targets every student of the course.
type Assignment struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Title       string         `gorm:"size:255;not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	Subject     string         `gorm:"size:200;index" json:"subject"`
	CourseID    *uint          `gorm:"index" json:"course_id,omitempty"`
	CreatedBy   uint           `gorm:"not null;index" json:"created_by"`
	AssignedTo  datatypes.JSON `gorm:"type:jsonb" json:"assigned_to"`
	DueDate     time.Time      `gorm:"not null" json:"due_date"`
	MaxMarks    float64        `gorm:"not null" json:"max_marks"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Submission is a student's answer to an assignment, one per student.
type Submission struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	AssignmentID uint       `gorm:"not null;uniqueIndex:idx_submission_assignment_student" json:"assignment_id"`
	StudentID    uint       `gorm:"not null;uniqueIndex:idx_submission_assignment_student" json:"student_id"`
	Content      string     `gorm:"type:text" json:"content"`
	FileURL      string     `gorm:"size:512" json:"file_url,omitempty"`
	SubmittedAt  time.Time  `gorm:"not null" json:"submitted_at"`
	Marks        *float64   `json:"marks,omitempty"`
	Feedback     string     `gorm:"type:text" json:"feedback,omitempty"`
	GradedBy     *uint      `json:"graded_by,omitempty"`
	GradedAt     *time.Time `json:"graded_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Graded reports whether the submission has been marked.
func (s *Submission) Graded() bool {
	return s.Marks != nil
}
