package dto

import (
	"encoding/json"
	"time"

	"github.com/noah-isme/studyfriend-api/internal/models"
)

// TestQuestionInput is one question in a test create request.
type TestQuestionInput struct {
	QuestionText  string   `json:"question_text" validate:"required,min=2,max=2000"`
	Options       []string `json:"options" validate:"required,min=2,max=6,dive,required,max=500"`
	CorrectAnswer int      `json:"correct_answer" validate:"gte=0"`
	Marks         float64  `json:"marks" validate:"required,gt=0"`
}

// TestCreateRequest creates a mock test with its questions inline.
type TestCreateRequest struct {
	Title           string              `json:"title" validate:"required,min=2,max=255"`
	Description     string              `json:"description" validate:"max=2000"`
	Subject         string              `json:"subject" validate:"max=200"`
	CourseID        *uint               `json:"course_id,omitempty"`
	Questions       []TestQuestionInput `json:"questions" validate:"required,min=1,max=100,dive"`
	DurationMinutes int                 `json:"duration_minutes" validate:"required,gt=0,lte=480"`
}

// TestUpdateRequest patches a mock test. Nil fields keep their current value.
// Replacing Questions recomputes the total marks.
type TestUpdateRequest struct {
	Title           *string             `json:"title,omitempty" validate:"omitempty,min=2,max=255"`
	Description     *string             `json:"description,omitempty" validate:"omitempty,max=2000"`
	Subject         *string             `json:"subject,omitempty" validate:"omitempty,max=200"`
	Questions       []TestQuestionInput `json:"questions,omitempty" validate:"omitempty,min=1,max=100,dive"`
	DurationMinutes *int                `json:"duration_minutes,omitempty" validate:"omitempty,gt=0,lte=480"`
}

// TestAttemptRequest submits a student's answers. Answers holds the chosen
// option index per question, -1 for unanswered.
type TestAttemptRequest struct {
	Answers []int `json:"answers" validate:"required,min=1"`
}

// TestResponse is the public view of a test. Questions are included without
// correct answers unless the caller owns the test.
type TestResponse struct {
	ID              uint                   `json:"id"`
	Title           string                 `json:"title"`
	Description     string                 `json:"description,omitempty"`
	Subject         string                 `json:"subject,omitempty"`
	CourseID        *uint                  `json:"course_id,omitempty"`
	CreatedBy       uint                   `json:"created_by"`
	Questions       []TestQuestionResponse `json:"questions"`
	DurationMinutes int                    `json:"duration_minutes"`
	TotalMarks      float64                `json:"total_marks"`
	CreatedAt       time.Time              `json:"created_at"`
}

// TestQuestionResponse is one question as shown to a test taker.
type TestQuestionResponse struct {
	QuestionText  string   `json:"question_text"`
	Options       []string `json:"options"`
	CorrectAnswer *int     `json:"correct_answer,omitempty"`
	Marks         float64  `json:"marks"`
}

// NewTestResponse converts a test model. When includeAnswers is false the
// correct option indexes are stripped.
func NewTestResponse(test models.MockTest, includeAnswers bool) TestResponse {
	var questions []models.TestQuestion
	_ = json.Unmarshal(test.Questions, &questions)

	out := make([]TestQuestionResponse, 0, len(questions))
	for _, q := range questions {
		item := TestQuestionResponse{
			QuestionText: q.QuestionText,
			Options:      q.Options,
			Marks:        q.Marks,
		}
		if includeAnswers {
			correct := q.CorrectAnswer
			item.CorrectAnswer = &correct
		}
		out = append(out, item)
	}

	return TestResponse{
		ID:              test.ID,
		Title:           test.Title,
		Description:     test.Description,
		Subject:         test.Subject,
		CourseID:        test.CourseID,
		CreatedBy:       test.CreatedBy,
		Questions:       out,
		DurationMinutes: test.DurationMinutes,
		TotalMarks:      test.TotalMarks,
		CreatedAt:       test.CreatedAt,
	}
}

// NewTestResponseSlice converts a list of tests without answers.
func NewTestResponseSlice(tests []models.MockTest) []TestResponse {
	out := make([]TestResponse, 0, len(tests))
	for _, test := range tests {
		out = append(out, NewTestResponse(test, false))
	}
	return out
}

// TestAttemptResponse is the graded result of a submission.
type TestAttemptResponse struct {
	ID          uint      `json:"id"`
	TestID      uint      `json:"test_id"`
	StudentID   uint      `json:"student_id"`
	Answers     []int     `json:"answers"`
	Score       float64   `json:"score"`
	Percentage  float64   `json:"percentage"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// NewTestAttemptResponse converts an attempt model.
func NewTestAttemptResponse(attempt models.TestAttempt) TestAttemptResponse {
	var answers []int
	_ = json.Unmarshal(attempt.Answers, &answers)

	return TestAttemptResponse{
		ID:          attempt.ID,
		TestID:      attempt.TestID,
		StudentID:   attempt.StudentID,
		Answers:     answers,
		Score:       attempt.Score,
		Percentage:  attempt.Percentage,
		SubmittedAt: attempt.SubmittedAt,
	}
}

// NewTestAttemptResponseSlice converts a list of attempts.
func NewTestAttemptResponseSlice(attempts []models.TestAttempt) []TestAttemptResponse {
	out := make([]TestAttemptResponse, 0, len(attempts))
	for _, attempt := range attempts {
		out = append(out, NewTestAttemptResponse(attempt))
	}
	return out
}

// TestAnalyticsResponse summarises attempts across one test.
type TestAnalyticsResponse struct {
	TestID         uint    `json:"test_id"`
	TotalAttempts  int     `json:"total_attempts"`
	AverageScore   float64 `json:"average_score"`
	HighestScore   float64 `json:"highest_score"`
	LowestScore    float64 `json:"lowest_score"`
	PassPercentage float64 `json:"pass_percentage"`
}
