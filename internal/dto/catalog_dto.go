package dto

import (
	"time"

	"github.com/noah-isme/studyfriend-api/internal/models"
)

// CollegeCreateRequest adds a college.
type CollegeCreateRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=200"`
	Location string `json:"location" validate:"max=200"`
	Website  string `json:"website" validate:"omitempty,url"`
}

// CollegeUpdateRequest patches a college.
type CollegeUpdateRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,min=2,max=200"`
	Location *string `json:"location,omitempty" validate:"omitempty,max=200"`
	Website  *string `json:"website,omitempty" validate:"omitempty,url"`
}

// CollegeResponse is the public view of a college.
type CollegeResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Location  string    `json:"location,omitempty"`
	Website   string    `json:"website,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewCollegeResponse converts a college model.
func NewCollegeResponse(college models.College) CollegeResponse {
	return CollegeResponse{
		ID:        college.ID,
		Name:      college.Name,
		Location:  college.Location,
		Website:   college.Website,
		CreatedAt: college.CreatedAt,
	}
}

// NewCollegeResponseSlice converts a list of colleges.
func NewCollegeResponseSlice(colleges []models.College) []CollegeResponse {
	out := make([]CollegeResponse, 0, len(colleges))
	for _, college := range colleges {
		out = append(out, NewCollegeResponse(college))
	}
	return out
}

// SubjectCreateRequest adds a subject to a college.
type SubjectCreateRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=200"`
	CollegeID   uint   `json:"college_id" validate:"required"`
	Description string `json:"description" validate:"max=1000"`
}

// SubjectUpdateRequest patches a subject.
type SubjectUpdateRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=2,max=200"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=1000"`
}

// SubjectResponse is the public view of a subject.
type SubjectResponse struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	CollegeID   uint      `json:"college_id"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewSubjectResponse converts a subject model.
func NewSubjectResponse(subject models.Subject) SubjectResponse {
	return SubjectResponse{
		ID:          subject.ID,
		Name:        subject.Name,
		CollegeID:   subject.CollegeID,
		Description: subject.Description,
		CreatedAt:   subject.CreatedAt,
	}
}

// NewSubjectResponseSlice converts a list of subjects.
func NewSubjectResponseSlice(subjects []models.Subject) []SubjectResponse {
	out := make([]SubjectResponse, 0, len(subjects))
	for _, subject := range subjects {
		out = append(out, NewSubjectResponse(subject))
	}
	return out
}

// CourseCreateRequest adds a course taught by the named faculty member.
type CourseCreateRequest struct {
	Name            string  `json:"name" validate:"required,min=2,max=200"`
	Description     string  `json:"description" validate:"max=2000"`
	CollegeID       uint    `json:"college_id" validate:"required"`
	SubjectID       uint    `json:"subject_id" validate:"required"`
	FacultyID       uint    `json:"faculty_id" validate:"required"`
	Syllabus        string  `json:"syllabus" validate:"max=10000"`
	DurationWeeks   int     `json:"duration_weeks" validate:"gte=0,lte=104"`
	DifficultyLevel string  `json:"difficulty_level" validate:"omitempty,oneof=beginner intermediate advanced"`
	Price           float64 `json:"price" validate:"gte=0"`
}

// CourseUpdateRequest patches a course.
type CourseUpdateRequest struct {
	Name            *string  `json:"name,omitempty" validate:"omitempty,min=2,max=200"`
	Description     *string  `json:"description,omitempty" validate:"omitempty,max=2000"`
	Syllabus        *string  `json:"syllabus,omitempty" validate:"omitempty,max=10000"`
	DurationWeeks   *int     `json:"duration_weeks,omitempty" validate:"omitempty,gte=0,lte=104"`
	DifficultyLevel *string  `json:"difficulty_level,omitempty" validate:"omitempty,oneof=beginner intermediate advanced"`
	Price           *float64 `json:"price,omitempty" validate:"omitempty,gte=0"`
}

// CourseResponse is the public view of a course.
type CourseResponse struct {
	ID              uint      `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description,omitempty"`
	CollegeID       uint      `json:"college_id"`
	SubjectID       uint      `json:"subject_id"`
	FacultyID       uint      `json:"faculty_id"`
	Syllabus        string    `json:"syllabus,omitempty"`
	DurationWeeks   int       `json:"duration_weeks,omitempty"`
	DifficultyLevel string    `json:"difficulty_level,omitempty"`
	Price           float64   `json:"price"`
	CreatedAt       time.Time `json:"created_at"`
}

// NewCourseResponse converts a course model.
func NewCourseResponse(course models.Course) CourseResponse {
	return CourseResponse{
		ID:              course.ID,
		Name:            course.Name,
		Description:     course.Description,
		CollegeID:       course.CollegeID,
		SubjectID:       course.SubjectID,
		FacultyID:       course.FacultyID,
		Syllabus:        course.Syllabus,
		DurationWeeks:   course.DurationWeeks,
		DifficultyLevel: course.DifficultyLevel,
		Price:           course.Price,
		CreatedAt:       course.CreatedAt,
	}
}

// NewCourseResponseSlice converts a list of courses.
func NewCourseResponseSlice(courses []models.Course) []CourseResponse {
	out := make([]CourseResponse, 0, len(courses))
	for _, course := range courses {
		out = append(out, NewCourseResponse(course))
	}
	return out
}

// EnrollRequest enrols a student in a course.
type EnrollRequest struct {
	CourseID uint `json:"course_id" validate:"required"`
}

// ProgressUpdateRequest moves a student's progress marker.
type ProgressUpdateRequest struct {
	ProgressPercentage float64 `json:"progress_percentage" validate:"gte=0,lte=100"`
}

// EnrollmentResponse is the public view of an enrollment.
type EnrollmentResponse struct {
	ID                 uint       `json:"id"`
	StudentID          uint       `json:"student_id"`
	CourseID           uint       `json:"course_id"`
	Status             string     `json:"status"`
	ProgressPercentage float64    `json:"progress_percentage"`
	EnrolledAt         time.Time  `json:"enrolled_at"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
}

// NewEnrollmentResponse converts an enrollment model.
func NewEnrollmentResponse(enrollment models.Enrollment) EnrollmentResponse {
	return EnrollmentResponse{
		ID:                 enrollment.ID,
		StudentID:          enrollment.StudentID,
		CourseID:           enrollment.CourseID,
		Status:             enrollment.Status,
		ProgressPercentage: enrollment.ProgressPercentage,
		EnrolledAt:         enrollment.EnrolledAt,
		CompletedAt:        enrollment.CompletedAt,
	}
}

// NewEnrollmentResponseSlice converts a list of enrollments.
func NewEnrollmentResponseSlice(enrollments []models.Enrollment) []EnrollmentResponse {
	out := make([]EnrollmentResponse, 0, len(enrollments))
	for _, enrollment := range enrollments {
		out = append(out, NewEnrollmentResponse(enrollment))
	}
	return out
}
