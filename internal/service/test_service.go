package service

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/studyfriend-api/internal/dto"
	"github.com/noah-isme/studyfriend-api/internal/models"
	"github.com/noah-isme/studyfriend-api/internal/repository"
)

// Test failures.
var (
	ErrTestNotFound        = errors.New("test not found")
	ErrNotTestOwner        = errors.New("test belongs to another faculty member")
	ErrAlreadyAttempted    = errors.New("test has already been attempted")
	ErrAttemptNotFound     = errors.New("attempt not found")
	ErrAnswerCountMismatch = errors.New("answer count does not match question count")
	ErrBadCorrectAnswer    = errors.New("correct answer index out of range")
)

// Marks needed to count an attempt as passed in analytics.
const passLinePercent = 40.0

// TestService manages mock tests, grading and analytics. Each student gets
// one attempt per test.
type TestService interface {
	List(ctx context.Context, subject string) ([]dto.TestResponse, error)
	ListMine(ctx context.Context, facultyID uint) ([]dto.TestResponse, error)
	Get(ctx context.Context, callerID uint, id uint) (dto.TestResponse, error)
	Create(ctx context.Context, facultyID uint, payload dto.TestCreateRequest) (dto.TestResponse, error)
	Update(ctx context.Context, facultyID, id uint, payload dto.TestUpdateRequest) (dto.TestResponse, error)
	Delete(ctx context.Context, facultyID, id uint) error
	Attempt(ctx context.Context, studentID, testID uint, payload dto.TestAttemptRequest) (dto.TestAttemptResponse, error)
	MyAttempts(ctx context.Context, studentID uint) ([]dto.TestAttemptResponse, error)
	Analytics(ctx context.Context, facultyID, testID uint) (dto.TestAnalyticsResponse, error)
}

type testService struct {
	repo      repository.TestRepository
	validator *validator.Validate
	logger    zerolog.Logger
	now       func() time.Time
}

// NewTestService builds a new test service.
func NewTestService(repo repository.TestRepository, validate *validator.Validate, logger zerolog.Logger) TestService {
	return &testService{
		repo:      repo,
		validator: validate,
		logger:    logger.With().Str("component", "test_service").Logger(),
		now:       time.Now,
	}
}

func (s *testService) List(ctx context.Context, subject string) ([]dto.TestResponse, error) {
	tests, err := s.repo.List(ctx, subject)
	if err != nil {
		return nil, err
	}

	return dto.NewTestResponseSlice(tests), nil
}

func (s *testService) ListMine(ctx context.Context, facultyID uint) ([]dto.TestResponse, error) {
	tests, err := s.repo.ListByCreator(ctx, facultyID)
	if err != nil {
		return nil, err
	}

	out := make([]dto.TestResponse, 0, len(tests))
	for _, test := range tests {
		out = append(out, dto.NewTestResponse(test, true))
	}
	return out, nil
}

// Get returns the test. Correct answers are only included for the creator.
func (s *testService) Get(ctx context.Context, callerID uint, id uint) (dto.TestResponse, error) {
	test, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.TestResponse{}, ErrTestNotFound
		}
		return dto.TestResponse{}, err
	}

	return dto.NewTestResponse(test, test.CreatedBy == callerID), nil
}

func (s *testService) Create(ctx context.Context, facultyID uint, payload dto.TestCreateRequest) (dto.TestResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.TestResponse{}, err
	}

	questions := make([]models.TestQuestion, 0, len(payload.Questions))
	var totalMarks float64
	for _, q := range payload.Questions {
		if q.CorrectAnswer >= len(q.Options) {
			return dto.TestResponse{}, ErrBadCorrectAnswer
		}
		questions = append(questions, models.TestQuestion{
			QuestionText:  q.QuestionText,
			Options:       q.Options,
			CorrectAnswer: q.CorrectAnswer,
			Marks:         q.Marks,
		})
		totalMarks += q.Marks
	}

	raw, err := json.Marshal(questions)
	if err != nil {
		return dto.TestResponse{}, err
	}

	test := models.MockTest{
		Title:           payload.Title,
		Description:     payload.Description,
		Subject:         payload.Subject,
		CourseID:        payload.CourseID,
		CreatedBy:       facultyID,
		Questions:       raw,
		DurationMinutes: payload.DurationMinutes,
		TotalMarks:      totalMarks,
	}
	if err := s.repo.Create(ctx, &test); err != nil {
		return dto.TestResponse{}, err
	}

	s.logger.Info().Uint("test_id", test.ID).Uint("faculty_id", facultyID).Msg("test created")
	return dto.NewTestResponse(test, true), nil
}

// Update patches a test owned by the caller. Swapping the question set
// recomputes the total marks.
func (s *testService) Update(ctx context.Context, facultyID, id uint, payload dto.TestUpdateRequest) (dto.TestResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.TestResponse{}, err
	}

	test, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.TestResponse{}, ErrTestNotFound
		}
		return dto.TestResponse{}, err
	}
	if test.CreatedBy != facultyID {
		return dto.TestResponse{}, ErrNotTestOwner
	}

	if payload.Title != nil {
		test.Title = *payload.Title
	}
	if payload.Description != nil {
		test.Description = *payload.Description
	}
	if payload.Subject != nil {
		test.Subject = *payload.Subject
	}
	if payload.DurationMinutes != nil {
		test.DurationMinutes = *payload.DurationMinutes
	}
	if len(payload.Questions) > 0 {
		questions := make([]models.TestQuestion, 0, len(payload.Questions))
		var totalMarks float64
		for _, q := range payload.Questions {
			if q.CorrectAnswer >= len(q.Options) {
				return dto.TestResponse{}, ErrBadCorrectAnswer
			}
			questions = append(questions, models.TestQuestion{
				QuestionText:  q.QuestionText,
				Options:       q.Options,
				CorrectAnswer: q.CorrectAnswer,
				Marks:         q.Marks,
			})
			totalMarks += q.Marks
		}
		raw, err := json.Marshal(questions)
		if err != nil {
			return dto.TestResponse{}, err
		}
		test.Questions = raw
		test.TotalMarks = totalMarks
	}

	if err := s.repo.Update(ctx, &test); err != nil {
		return dto.TestResponse{}, err
	}

	s.logger.Info().Uint("test_id", test.ID).Msg("test updated")
	return dto.NewTestResponse(test, true), nil
}

func (s *testService) Delete(ctx context.Context, facultyID, id uint) error {
	test, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTestNotFound
		}
		return err
	}
	if test.CreatedBy != facultyID {
		return ErrNotTestOwner
	}

	return s.repo.Delete(ctx, id)
}

// Attempt grades a submission. The score is the sum of marks of correctly
// answered questions, the percentage is rounded to two decimals.
func (s *testService) Attempt(ctx context.Context, studentID, testID uint, payload dto.TestAttemptRequest) (dto.TestAttemptResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.TestAttemptResponse{}, err
	}

	test, err := s.repo.GetByID(ctx, testID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.TestAttemptResponse{}, ErrTestNotFound
		}
		return dto.TestAttemptResponse{}, err
	}

	if _, err := s.repo.GetAttempt(ctx, testID, studentID); err == nil {
		return dto.TestAttemptResponse{}, ErrAlreadyAttempted
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.TestAttemptResponse{}, err
	}

	var questions []models.TestQuestion
	if err := json.Unmarshal(test.Questions, &questions); err != nil {
		return dto.TestAttemptResponse{}, err
	}
	if len(payload.Answers) != len(questions) {
		return dto.TestAttemptResponse{}, ErrAnswerCountMismatch
	}

	var score float64
	for i, q := range questions {
		if payload.Answers[i] == q.CorrectAnswer {
			score += q.Marks
		}
	}

	percentage := 0.0
	if test.TotalMarks > 0 {
		percentage = roundTwo(score / test.TotalMarks * 100)
	}

	answers, err := json.Marshal(payload.Answers)
	if err != nil {
		return dto.TestAttemptResponse{}, err
	}

	attempt := models.TestAttempt{
		TestID:      testID,
		StudentID:   studentID,
		Answers:     answers,
		Score:       score,
		Percentage:  percentage,
		SubmittedAt: s.now(),
	}
	if err := s.repo.CreateAttempt(ctx, &attempt); err != nil {
		return dto.TestAttemptResponse{}, err
	}

	s.logger.Info().
		Uint("test_id", testID).
		Uint("student_id", studentID).
		Float64("score", score).
		Msg("test attempted")
	return dto.NewTestAttemptResponse(attempt), nil
}

func (s *testService) MyAttempts(ctx context.Context, studentID uint) ([]dto.TestAttemptResponse, error) {
	attempts, err := s.repo.ListAttemptsByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	return dto.NewTestAttemptResponseSlice(attempts), nil
}

func (s *testService) Analytics(ctx context.Context, facultyID, testID uint) (dto.TestAnalyticsResponse, error) {
	test, err := s.repo.GetByID(ctx, testID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.TestAnalyticsResponse{}, ErrTestNotFound
		}
		return dto.TestAnalyticsResponse{}, err
	}
	if test.CreatedBy != facultyID {
		return dto.TestAnalyticsResponse{}, ErrNotTestOwner
	}

	attempts, err := s.repo.ListAttemptsByTest(ctx, testID)
	if err != nil {
		return dto.TestAnalyticsResponse{}, err
	}

	report := dto.TestAnalyticsResponse{TestID: testID, TotalAttempts: len(attempts)}
	if len(attempts) == 0 {
		return report, nil
	}

	var sum float64
	highest := attempts[0].Score
	lowest := attempts[0].Score
	passed := 0
	for _, attempt := range attempts {
		sum += attempt.Score
		if attempt.Score > highest {
			highest = attempt.Score
		}
		if attempt.Score < lowest {
			lowest = attempt.Score
		}
		if attempt.Percentage >= passLinePercent {
			passed++
		}
	}

	report.AverageScore = roundTwo(sum / float64(len(attempts)))
	report.HighestScore = highest
	report.LowestScore = lowest
	report.PassPercentage = roundTwo(float64(passed) / float64(len(attempts)) * 100)
	return report, nil
}

func roundTwo(v float64) float64 {
	return math.Round(v*100) / 100
}
