package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/studyfriend-api/internal/dto"
)

func newTestTestService(repo *memoryTestRepo) TestService {
	return NewTestService(repo, validator.New(validator.WithRequiredStructEnabled()), zerolog.Nop())
}

func sampleTestPayload() dto.TestCreateRequest {
	return dto.TestCreateRequest{
		Title:   "Data Structures Midterm",
		Subject: "Computer Science",
		Questions: []dto.TestQuestionInput{
			{QuestionText: "Complexity of binary search?", Options: []string{"O(n)", "O(log n)", "O(1)"}, CorrectAnswer: 1, Marks: 2},
			{QuestionText: "A stack is...", Options: []string{"FIFO", "LIFO"}, CorrectAnswer: 1, Marks: 3},
			{QuestionText: "A queue is...", Options: []string{"FIFO", "LIFO"}, CorrectAnswer: 0, Marks: 5},
		},
		DurationMinutes: 30,
	}
}

func TestTestCreateComputesTotalMarks(t *testing.T) {
	svc := newTestTestService(newMemoryTestRepo())

	test, err := svc.Create(context.Background(), 7, sampleTestPayload())
	require.NoError(t, err)
	require.Equal(t, 10.0, test.TotalMarks)
	require.Equal(t, uint(7), test.CreatedBy)
	require.Len(t, test.Questions, 3)
}

func TestTestCreateRejectsBadAnswerIndex(t *testing.T) {
	svc := newTestTestService(newMemoryTestRepo())

	payload := sampleTestPayload()
	payload.Questions[0].CorrectAnswer = 9
	_, err := svc.Create(context.Background(), 7, payload)
	require.ErrorIs(t, err, ErrBadCorrectAnswer)
}

func TestTestUpdate(t *testing.T) {
	svc := newTestTestService(newMemoryTestRepo())

	created, err := svc.Create(context.Background(), 7, sampleTestPayload())
	require.NoError(t, err)

	title := "Data Structures Final"
	duration := 45
	updated, err := svc.Update(context.Background(), 7, created.ID, dto.TestUpdateRequest{Title: &title, DurationMinutes: &duration})
	require.NoError(t, err)
	require.Equal(t, "Data Structures Final", updated.Title)
	require.Equal(t, 45, updated.DurationMinutes)
	// Untouched fields survive a partial update.
	require.Equal(t, "Computer Science", updated.Subject)
	require.Equal(t, 10.0, updated.TotalMarks)

	// Replacing the questions recomputes the total.
	updated, err = svc.Update(context.Background(), 7, created.ID, dto.TestUpdateRequest{
		Questions: []dto.TestQuestionInput{
			{QuestionText: "A heap is...", Options: []string{"a tree shape", "a linked list"}, CorrectAnswer: 0, Marks: 4},
		},
	})
	require.NoError(t, err)
	require.Len(t, updated.Questions, 1)
	require.Equal(t, 4.0, updated.TotalMarks)

	_, err = svc.Update(context.Background(), 7, created.ID, dto.TestUpdateRequest{
		Questions: []dto.TestQuestionInput{
			{QuestionText: "A heap is...", Options: []string{"a tree shape", "a linked list"}, CorrectAnswer: 5, Marks: 4},
		},
	})
	require.ErrorIs(t, err, ErrBadCorrectAnswer)

	_, err = svc.Update(context.Background(), 8, created.ID, dto.TestUpdateRequest{Title: &title})
	require.ErrorIs(t, err, ErrNotTestOwner)

	_, err = svc.Update(context.Background(), 7, created.ID+99, dto.TestUpdateRequest{Title: &title})
	require.ErrorIs(t, err, ErrTestNotFound)
}

func TestTestGetHidesAnswersFromStudents(t *testing.T) {
	svc := newTestTestService(newMemoryTestRepo())

	created, err := svc.Create(context.Background(), 7, sampleTestPayload())
	require.NoError(t, err)

	asStudent, err := svc.Get(context.Background(), 42, created.ID)
	require.NoError(t, err)
	for _, q := range asStudent.Questions {
		require.Nil(t, q.CorrectAnswer)
	}

	asCreator, err := svc.Get(context.Background(), 7, created.ID)
	require.NoError(t, err)
	for _, q := range asCreator.Questions {
		require.NotNil(t, q.CorrectAnswer)
	}
}

func TestTestAttemptScoring(t *testing.T) {
	svc := newTestTestService(newMemoryTestRepo())

	created, err := svc.Create(context.Background(), 7, sampleTestPayload())
	require.NoError(t, err)

	// First and third correct: 2 + 5 of 10 marks.
	result, err := svc.Attempt(context.Background(), 42, created.ID, dto.TestAttemptRequest{Answers: []int{1, 0, 0}})
	require.NoError(t, err)
	require.Equal(t, 7.0, result.Score)
	require.Equal(t, 70.0, result.Percentage)

	_, err = svc.Attempt(context.Background(), 42, created.ID, dto.TestAttemptRequest{Answers: []int{1, 1, 0}})
	require.ErrorIs(t, err, ErrAlreadyAttempted)

	_, err = svc.Attempt(context.Background(), 43, created.ID, dto.TestAttemptRequest{Answers: []int{1}})
	require.ErrorIs(t, err, ErrAnswerCountMismatch)
}

func TestTestAttemptPercentageRounding(t *testing.T) {
	svc := newTestTestService(newMemoryTestRepo())

	created, err := svc.Create(context.Background(), 7, dto.TestCreateRequest{
		Title: "Rounding",
		Questions: []dto.TestQuestionInput{
			{QuestionText: "Q1?", Options: []string{"a", "b"}, CorrectAnswer: 0, Marks: 1},
			{QuestionText: "Q2?", Options: []string{"a", "b"}, CorrectAnswer: 0, Marks: 1},
			{QuestionText: "Q3?", Options: []string{"a", "b"}, CorrectAnswer: 0, Marks: 1},
		},
		DurationMinutes: 10,
	})
	require.NoError(t, err)

	result, err := svc.Attempt(context.Background(), 42, created.ID, dto.TestAttemptRequest{Answers: []int{0, 1, 1}})
	require.NoError(t, err)
	require.Equal(t, 33.33, result.Percentage)
}

func TestTestAnalytics(t *testing.T) {
	repo := newMemoryTestRepo()
	svc := newTestTestService(repo)

	created, err := svc.Create(context.Background(), 7, sampleTestPayload())
	require.NoError(t, err)

	// 10/10, 7/10 and 2/10: two attempts clear the 40 percent line.
	_, err = svc.Attempt(context.Background(), 1, created.ID, dto.TestAttemptRequest{Answers: []int{1, 1, 0}})
	require.NoError(t, err)
	_, err = svc.Attempt(context.Background(), 2, created.ID, dto.TestAttemptRequest{Answers: []int{1, 0, 0}})
	require.NoError(t, err)
	_, err = svc.Attempt(context.Background(), 3, created.ID, dto.TestAttemptRequest{Answers: []int{1, 0, 1}})
	require.NoError(t, err)

	report, err := svc.Analytics(context.Background(), 7, created.ID)
	require.NoError(t, err)
	require.Equal(t, 3, report.TotalAttempts)
	require.Equal(t, 10.0, report.HighestScore)
	require.Equal(t, 2.0, report.LowestScore)
	require.Equal(t, 6.33, report.AverageScore)
	require.Equal(t, 66.67, report.PassPercentage)

	_, err = svc.Analytics(context.Background(), 99, created.ID)
	require.ErrorIs(t, err, ErrNotTestOwner)
}

func TestTestDeleteOwnership(t *testing.T) {
	svc := newTestTestService(newMemoryTestRepo())

	created, err := svc.Create(context.Background(), 7, sampleTestPayload())
	require.NoError(t, err)

	require.ErrorIs(t, svc.Delete(context.Background(), 8, created.ID), ErrNotTestOwner)
	require.NoError(t, svc.Delete(context.Background(), 7, created.ID))
	require.ErrorIs(t, svc.Delete(context.Background(), 7, created.ID), ErrTestNotFound)
}
