package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/studyfriend-api/internal/dto"
	"github.com/noah-isme/studyfriend-api/internal/models"
	"github.com/noah-isme/studyfriend-api/internal/repository"
)

// Enrollment failures.
var (
	ErrAlreadyEnrolled    = errors.New("student is already enrolled in this course")
	ErrEnrollmentNotFound = errors.New("enrollment not found")
)

// EnrollmentService manages course enrollments and progress tracking.
type EnrollmentService interface {
	Enroll(ctx context.Context, studentID uint, payload dto.EnrollRequest) (dto.EnrollmentResponse, error)
	ListByStudent(ctx context.Context, studentID uint) ([]dto.EnrollmentResponse, error)
	ListByCourse(ctx context.Context, courseID uint) ([]dto.EnrollmentResponse, error)
	AvailableCourses(ctx context.Context, studentID uint) ([]dto.CourseResponse, error)
	UpdateProgress(ctx context.Context, studentID, courseID uint, payload dto.ProgressUpdateRequest) (dto.EnrollmentResponse, error)
	Drop(ctx context.Context, studentID, courseID uint) error
}

type enrollmentService struct {
	enrollments repository.EnrollmentRepository
	courses     repository.CourseRepository
	validator   *validator.Validate
	logger      zerolog.Logger
	now         func() time.Time
}

// NewEnrollmentService builds a new enrollment service.
func NewEnrollmentService(
	enrollments repository.EnrollmentRepository,
	courses repository.CourseRepository,
	validate *validator.Validate,
	logger zerolog.Logger,
) EnrollmentService {
	return &enrollmentService{
		enrollments: enrollments,
		courses:     courses,
		validator:   validate,
		logger:      logger.With().Str("component", "enrollment_service").Logger(),
		now:         time.Now,
	}
}

func (s *enrollmentService) Enroll(ctx context.Context, studentID uint, payload dto.EnrollRequest) (dto.EnrollmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.EnrollmentResponse{}, err
	}

	if _, err := s.courses.GetByID(ctx, payload.CourseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EnrollmentResponse{}, ErrCourseNotFound
		}
		return dto.EnrollmentResponse{}, err
	}

	if _, err := s.enrollments.Get(ctx, studentID, payload.CourseID); err == nil {
		return dto.EnrollmentResponse{}, ErrAlreadyEnrolled
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.EnrollmentResponse{}, err
	}

	enrollment := models.Enrollment{
		StudentID:  studentID,
		CourseID:   payload.CourseID,
		Status:     models.EnrollmentStatusActive,
		EnrolledAt: s.now(),
	}
	if err := s.enrollments.Create(ctx, &enrollment); err != nil {
		return dto.EnrollmentResponse{}, err
	}

	s.logger.Info().Uint("student_id", studentID).Uint("course_id", payload.CourseID).Msg("student enrolled")
	return dto.NewEnrollmentResponse(enrollment), nil
}

func (s *enrollmentService) ListByStudent(ctx context.Context, studentID uint) ([]dto.EnrollmentResponse, error) {
	enrollments, err := s.enrollments.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	return dto.NewEnrollmentResponseSlice(enrollments), nil
}

func (s *enrollmentService) ListByCourse(ctx context.Context, courseID uint) ([]dto.EnrollmentResponse, error) {
	enrollments, err := s.enrollments.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	return dto.NewEnrollmentResponseSlice(enrollments), nil
}

// AvailableCourses lists every course the student has not enrolled in yet.
func (s *enrollmentService) AvailableCourses(ctx context.Context, studentID uint) ([]dto.CourseResponse, error) {
	enrollments, err := s.enrollments.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	enrolled := make(map[uint]struct{}, len(enrollments))
	for _, enrollment := range enrollments {
		enrolled[enrollment.CourseID] = struct{}{}
	}

	courses, err := s.courses.List(ctx, repository.CourseFilter{})
	if err != nil {
		return nil, err
	}

	available := make([]dto.CourseResponse, 0, len(courses))
	for _, course := range courses {
		if _, ok := enrolled[course.ID]; ok {
			continue
		}
		available = append(available, dto.NewCourseResponse(course))
	}

	return available, nil
}

// UpdateProgress moves the progress marker. Reaching 100 percent marks the
// enrollment completed.
func (s *enrollmentService) UpdateProgress(ctx context.Context, studentID, courseID uint, payload dto.ProgressUpdateRequest) (dto.EnrollmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.EnrollmentResponse{}, err
	}

	enrollment, err := s.enrollments.Get(ctx, studentID, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EnrollmentResponse{}, ErrEnrollmentNotFound
		}
		return dto.EnrollmentResponse{}, err
	}

	enrollment.ProgressPercentage = payload.ProgressPercentage
	if payload.ProgressPercentage >= 100 {
		enrollment.Status = models.EnrollmentStatusCompleted
		completed := s.now()
		enrollment.CompletedAt = &completed
	}

	if err := s.enrollments.Update(ctx, &enrollment); err != nil {
		return dto.EnrollmentResponse{}, err
	}

	return dto.NewEnrollmentResponse(enrollment), nil
}

func (s *enrollmentService) Drop(ctx context.Context, studentID, courseID uint) error {
	enrollment, err := s.enrollments.Get(ctx, studentID, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEnrollmentNotFound
		}
		return err
	}

	enrollment.Status = models.EnrollmentStatusDropped
	if err := s.enrollments.Update(ctx, &enrollment); err != nil {
		return err
	}

	s.logger.Info().Uint("student_id", studentID).Uint("course_id", courseID).Msg("enrollment dropped")
	return nil
}
