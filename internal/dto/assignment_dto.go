package dto

import (
	"encoding/json"
	"time"

	"github.com/noah-isme/studyfriend-api/internal/models"
)

// AssignmentCreateRequest sets an assignment. AssignedTo lists target student
// IDs, an empty list means all students of the course.
type AssignmentCreateRequest struct {
	Title       string  `json:"title" validate:"required,min=2,max=255"`
	Description string  `json:"description" validate:"max=5000"`
	Subject     string  `json:"subject" validate:"max=200"`
	CourseID    *uint   `json:"course_id,omitempty"`
	AssignedTo  []uint  `json:"assigned_to"`
	DueDate     string  `json:"due_date" validate:"required"`
	MaxMarks    float64 `json:"max_marks" validate:"required,gt=0"`
}

// AssignmentUpdateRequest patches an assignment.
type AssignmentUpdateRequest struct {
	Title       *string  `json:"title,omitempty" validate:"omitempty,min=2,max=255"`
	Description *string  `json:"description,omitempty" validate:"omitempty,max=5000"`
	DueDate     *string  `json:"due_date,omitempty"`
	MaxMarks    *float64 `json:"max_marks,omitempty" validate:"omitempty,gt=0"`
}

// SubmissionCreateRequest hands in an assignment.
type SubmissionCreateRequest struct {
	Content string `json:"content" validate:"required_without=FileURL,max=50000"`
	FileURL string `json:"file_url" validate:"omitempty,url"`
}

// GradeRequest marks a submission.
type GradeRequest struct {
	Marks    float64 `json:"marks" validate:"gte=0"`
	Feedback string  `json:"feedback" validate:"max=5000"`
}

// AssignmentResponse is the public view of an assignment.
type AssignmentResponse struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Subject     string    `json:"subject,omitempty"`
	CourseID    *uint     `json:"course_id,omitempty"`
	CreatedBy   uint      `json:"created_by"`
	AssignedTo  []uint    `json:"assigned_to,omitempty"`
	DueDate     time.Time `json:"due_date"`
	MaxMarks    float64   `json:"max_marks"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewAssignmentResponse converts an assignment model.
func NewAssignmentResponse(assignment models.Assignment) AssignmentResponse {
	var assignedTo []uint
	if len(assignment.AssignedTo) > 0 {
		_ = json.Unmarshal(assignment.AssignedTo, &assignedTo)
	}

	return AssignmentResponse{
		ID:          assignment.ID,
		Title:       assignment.Title,
		Description: assignment.Description,
		Subject:     assignment.Subject,
		CourseID:    assignment.CourseID,
		CreatedBy:   assignment.CreatedBy,
		AssignedTo:  assignedTo,
		DueDate:     assignment.DueDate,
		MaxMarks:    assignment.MaxMarks,
		CreatedAt:   assignment.CreatedAt,
	}
}

// NewAssignmentResponseSlice converts a list of assignments.
func NewAssignmentResponseSlice(assignments []models.Assignment) []AssignmentResponse {
	out := make([]AssignmentResponse, 0, len(assignments))
	for _, assignment := range assignments {
		out = append(out, NewAssignmentResponse(assignment))
	}
	return out
}

// SubmissionResponse is the public view of a submission.
type SubmissionResponse struct {
	ID           uint       `json:"id"`
	AssignmentID uint       `json:"assignment_id"`
	StudentID    uint       `json:"student_id"`
	Content      string     `json:"content,omitempty"`
	FileURL      string     `json:"file_url,omitempty"`
	SubmittedAt  time.Time  `json:"submitted_at"`
	Marks        *float64   `json:"marks,omitempty"`
	Feedback     string     `json:"feedback,omitempty"`
	GradedBy     *uint      `json:"graded_by,omitempty"`
	GradedAt     *time.Time `json:"graded_at,omitempty"`
}

// NewSubmissionResponse converts a submission model.
func NewSubmissionResponse(submission models.Submission) SubmissionResponse {
	return SubmissionResponse{
		ID:           submission.ID,
		AssignmentID: submission.AssignmentID,
		StudentID:    submission.StudentID,
		Content:      submission.Content,
		FileURL:      submission.FileURL,
		SubmittedAt:  submission.SubmittedAt,
		Marks:        submission.Marks,
		Feedback:     submission.Feedback,
		GradedBy:     submission.GradedBy,
		GradedAt:     submission.GradedAt,
	}
}

// NewSubmissionResponseSlice converts a list of submissions.
func NewSubmissionResponseSlice(submissions []models.Submission) []SubmissionResponse {
	out := make([]SubmissionResponse, 0, len(submissions))
	for _, submission := range submissions {
		out = append(out, NewSubmissionResponse(submission))
	}
	return out
}
