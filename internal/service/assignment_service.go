package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/studyfriend-api/internal/dto"
	"github.com/noah-isme/studyfriend-api/internal/models"
	"github.com/noah-isme/studyfriend-api/internal/repository"
)

// Assignment failures.
var (
	ErrAssignmentNotFound = errors.New("assignment not found")
	ErrNotAssignmentOwner = errors.New("assignment belongs to another faculty member")
	ErrAlreadySubmitted   = errors.New("assignment has already been submitted")
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrMarksExceedMax     = errors.New("marks exceed the assignment maximum")
	ErrNotAssigned        = errors.New("assignment is not assigned to this student")
)

// AssignmentService manages assignments, submissions and grading.
type AssignmentService interface {
	List(ctx context.Context, subject string) ([]dto.AssignmentResponse, error)
	ListMine(ctx context.Context, facultyID uint) ([]dto.AssignmentResponse, error)
	Get(ctx context.Context, id uint) (dto.AssignmentResponse, error)
	Create(ctx context.Context, facultyID uint, payload dto.AssignmentCreateRequest) (dto.AssignmentResponse, error)
	Update(ctx context.Context, facultyID, id uint, payload dto.AssignmentUpdateRequest) (dto.AssignmentResponse, error)
	Delete(ctx context.Context, facultyID, id uint) error

	Submit(ctx context.Context, studentID, assignmentID uint, payload dto.SubmissionCreateRequest) (dto.SubmissionResponse, error)
	ListSubmissions(ctx context.Context, facultyID, assignmentID uint) ([]dto.SubmissionResponse, error)
	MySubmissions(ctx context.Context, studentID uint) ([]dto.SubmissionResponse, error)
	Grade(ctx context.Context, facultyID, submissionID uint, payload dto.GradeRequest) (dto.SubmissionResponse, error)
}

type assignmentService struct {
	repo          repository.AssignmentRepository
	notifications NotificationService
	validator     *validator.Validate
	logger        zerolog.Logger
	now           func() time.Time
}

// NewAssignmentService builds a new assignment service.
func NewAssignmentService(
	repo repository.AssignmentRepository,
	notifications NotificationService,
	validate *validator.Validate,
	logger zerolog.Logger,
) AssignmentService {
	return &assignmentService{
		repo:          repo,
		notifications: notifications,
		validator:     validate,
		logger:        logger.With().Str("component", "assignment_service").Logger(),
		now:           time.Now,
	}
}

func (s *assignmentService) List(ctx context.Context, subject string) ([]dto.AssignmentResponse, error) {
	assignments, err := s.repo.List(ctx, subject)
	if err != nil {
		return nil, err
	}

	return dto.NewAssignmentResponseSlice(assignments), nil
}

func (s *assignmentService) ListMine(ctx context.Context, facultyID uint) ([]dto.AssignmentResponse, error) {
	assignments, err := s.repo.ListByCreator(ctx, facultyID)
	if err != nil {
		return nil, err
	}

	return dto.NewAssignmentResponseSlice(assignments), nil
}

func (s *assignmentService) Get(ctx context.Context, id uint) (dto.AssignmentResponse, error) {
	assignment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentResponse{}, ErrAssignmentNotFound
		}
		return dto.AssignmentResponse{}, err
	}

	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) Create(ctx context.Context, facultyID uint, payload dto.AssignmentCreateRequest) (dto.AssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	dueDate, err := time.Parse(time.RFC3339, payload.DueDate)
	if err != nil {
		return dto.AssignmentResponse{}, fmt.Errorf("invalid due date: %w", err)
	}
	if !dueDate.After(s.now()) {
		return dto.AssignmentResponse{}, fmt.Errorf("due date must be in the future")
	}

	assignedTo, err := json.Marshal(payload.AssignedTo)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	assignment := models.Assignment{
		Title:       payload.Title,
		Description: payload.Description,
		Subject:     payload.Subject,
		CourseID:    payload.CourseID,
		CreatedBy:   facultyID,
		AssignedTo:  assignedTo,
		DueDate:     dueDate,
		MaxMarks:    payload.MaxMarks,
	}
	if err := s.repo.Create(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}

	for _, studentID := range payload.AssignedTo {
		s.notifications.Notify(ctx, studentID, "New assignment",
			fmt.Sprintf("%q is due %s.", assignment.Title, dueDate.Format("Jan 2, 2006")),
			models.NotificationInfo)
	}

	s.logger.Info().Uint("assignment_id", assignment.ID).Uint("faculty_id", facultyID).Msg("assignment created")
	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) Update(ctx context.Context, facultyID, id uint, payload dto.AssignmentUpdateRequest) (dto.AssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	assignment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentResponse{}, ErrAssignmentNotFound
		}
		return dto.AssignmentResponse{}, err
	}
	if assignment.CreatedBy != facultyID {
		return dto.AssignmentResponse{}, ErrNotAssignmentOwner
	}

	if payload.Title != nil {
		assignment.Title = *payload.Title
	}
	if payload.Description != nil {
		assignment.Description = *payload.Description
	}
	if payload.DueDate != nil {
		dueDate, err := time.Parse(time.RFC3339, *payload.DueDate)
		if err != nil {
			return dto.AssignmentResponse{}, fmt.Errorf("invalid due date: %w", err)
		}
		if !dueDate.After(s.now()) {
			return dto.AssignmentResponse{}, fmt.Errorf("due date must be in the future")
		}
		assignment.DueDate = dueDate
	}
	if payload.MaxMarks != nil {
		assignment.MaxMarks = *payload.MaxMarks
	}

	if err := s.repo.Update(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}

	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) Delete(ctx context.Context, facultyID, id uint) error {
	assignment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssignmentNotFound
		}
		return err
	}
	if assignment.CreatedBy != facultyID {
		return ErrNotAssignmentOwner
	}

	return s.repo.Delete(ctx, id)
}

// Submit hands in an assignment. One submission per student, late submissions
// are accepted but kept distinguishable by their timestamp.
func (s *assignmentService) Submit(ctx context.Context, studentID, assignmentID uint, payload dto.SubmissionCreateRequest) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	assignment, err := s.repo.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrAssignmentNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	var assignedTo []uint
	if len(assignment.AssignedTo) > 0 {
		if err := json.Unmarshal(assignment.AssignedTo, &assignedTo); err != nil {
			return dto.SubmissionResponse{}, err
		}
	}
	if len(assignedTo) > 0 && !containsID(assignedTo, studentID) {
		return dto.SubmissionResponse{}, ErrNotAssigned
	}

	if _, err := s.repo.GetSubmission(ctx, assignmentID, studentID); err == nil {
		return dto.SubmissionResponse{}, ErrAlreadySubmitted
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.SubmissionResponse{}, err
	}

	submission := models.Submission{
		AssignmentID: assignmentID,
		StudentID:    studentID,
		Content:      payload.Content,
		FileURL:      payload.FileURL,
		SubmittedAt:  s.now(),
	}
	if err := s.repo.CreateSubmission(ctx, &submission); err != nil {
		return dto.SubmissionResponse{}, err
	}

	s.notifications.Notify(ctx, assignment.CreatedBy, "New submission",
		fmt.Sprintf("A student submitted %q.", assignment.Title), models.NotificationInfo)

	s.logger.Info().Uint("assignment_id", assignmentID).Uint("student_id", studentID).Msg("assignment submitted")
	return dto.NewSubmissionResponse(submission), nil
}

func (s *assignmentService) ListSubmissions(ctx context.Context, facultyID, assignmentID uint) ([]dto.SubmissionResponse, error) {
	assignment, err := s.repo.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, err
	}
	if assignment.CreatedBy != facultyID {
		return nil, ErrNotAssignmentOwner
	}

	submissions, err := s.repo.ListSubmissions(ctx, assignmentID)
	if err != nil {
		return nil, err
	}

	return dto.NewSubmissionResponseSlice(submissions), nil
}

func (s *assignmentService) MySubmissions(ctx context.Context, studentID uint) ([]dto.SubmissionResponse, error) {
	submissions, err := s.repo.ListSubmissionsByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	return dto.NewSubmissionResponseSlice(submissions), nil
}

func (s *assignmentService) Grade(ctx context.Context, facultyID, submissionID uint, payload dto.GradeRequest) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	submission, err := s.repo.GetSubmissionByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	assignment, err := s.repo.GetByID(ctx, submission.AssignmentID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}
	if assignment.CreatedBy != facultyID {
		return dto.SubmissionResponse{}, ErrNotAssignmentOwner
	}
	if payload.Marks > assignment.MaxMarks {
		return dto.SubmissionResponse{}, ErrMarksExceedMax
	}

	graded := s.now()
	marks := payload.Marks
	submission.Marks = &marks
	submission.Feedback = payload.Feedback
	submission.GradedBy = &facultyID
	submission.GradedAt = &graded

	if err := s.repo.UpdateSubmission(ctx, &submission); err != nil {
		return dto.SubmissionResponse{}, err
	}

	s.notifications.Notify(ctx, submission.StudentID, "Assignment graded",
		fmt.Sprintf("%q was graded: %.1f/%.1f.", assignment.Title, marks, assignment.MaxMarks),
		models.NotificationSuccess)

	s.logger.Info().Uint("submission_id", submissionID).Float64("marks", marks).Msg("submission graded")
	return dto.NewSubmissionResponse(submission), nil
}

func containsID(ids []uint, id uint) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
