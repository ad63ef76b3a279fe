package models

import "time"

// College is a partner institution whose subjects and courses live on the platform.
type College struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:200;uniqueIndex;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Location    string    `gorm:"size:200" json:"location,omitempty"`
	Website     string    `gorm:"size:255" json:"website,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Subject groups courses inside a college, e.g. "Physics" under "Science".
type Subject struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:200;not null;index:idx_subject_college_name,unique" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	CollegeID   uint      `gorm:"not null;index:idx_subject_college_name,unique" json:"college_id"`
	Category    string    `gorm:"size:100" json:"category,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Course is taught by a verified faculty member within a subject.
type Course struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Name            string    `gorm:"size:200;not null" json:"name"`
	Description     string    `gorm:"type:text" json:"description"`
	CollegeID       uint      `gorm:"not null;index" json:"college_id"`
	SubjectID       uint      `gorm:"not null;index" json:"subject_id"`
	FacultyID       uint      `gorm:"not null;index" json:"faculty_id"`
	Syllabus        string    `gorm:"type:text" json:"syllabus,omitempty"`
	DurationWeeks   int       `json:"duration_weeks,omitempty"`
	DifficultyLevel string    `gorm:"size:20" json:"difficulty_level,omitempty"`
	Price           float64   `gorm:"not null;default:0" json:"price"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Enrollment statuses.
const (
	EnrollmentStatusActive    = "active"
	EnrollmentStatusCompleted = "completed"
	EnrollmentStatusDropped   = "dropped"
)

// Enrollment links a student to a course and tracks progress.
type Enrollment struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	StudentID          uint       `gorm:"not null;index:idx_enrollment_student_course,unique" json:"student_id"`
	CourseID           uint       `gorm:"not null;index:idx_enrollment_student_course,unique" json:"course_id"`
	Status             string     `gorm:"size:20;not null;default:active" json:"status"`
	ProgressPercentage float64    `gorm:"not null;default:0" json:"progress_percentage"`
	EnrolledAt         time.Time  `json:"enrolled_at"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
}
