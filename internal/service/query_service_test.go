package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/studyfriend-api/internal/dto"
	"github.com/noah-isme/studyfriend-api/internal/models"
	"github.com/noah-isme/studyfriend-api/internal/repository"
)

func newTestQueryService(assistant *fakeAssistant) (QueryService, *memoryNotificationRepo, *fakeQueryIndexer) {
	notifications := &memoryNotificationRepo{}
	indexer := &fakeQueryIndexer{}
	notify := NewNotificationService(notifications, zerolog.Nop())
	validate := validator.New(validator.WithRequiredStructEnabled())
	svc := NewQueryService(newMemoryQueryRepo(), assistant, notify, indexer, validate, zerolog.Nop())
	return svc, notifications, indexer
}

func TestQueryAnswerByFaculty(t *testing.T) {
	svc, notifications, indexer := newTestQueryService(&fakeAssistant{})

	created, err := svc.Create(context.Background(), 2, dto.QueryCreateRequest{
		Question: "How do I invert a Laplace transform?",
		Subject:  "Mathematics",
	})
	require.NoError(t, err)

	answered, err := svc.Answer(context.Background(), 7, created.ID, dto.QueryAnswerRequest{Answer: "Use partial fractions."})
	require.NoError(t, err)
	require.Equal(t, "Use partial fractions.", answered.Answer)
	require.Equal(t, models.AnsweredByFaculty, answered.AnsweredByType)

	_, err = svc.Answer(context.Background(), 7, created.ID, dto.QueryAnswerRequest{Answer: "Again"})
	require.ErrorIs(t, err, ErrQueryAlreadyAnswered)

	// The student hears about it, and the answer lands in the search index.
	notes, err := notifications.ListByUser(context.Background(), 2, false)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	require.Len(t, indexer.indexed, 1)
	require.Equal(t, "Use partial fractions.", indexer.indexed[0].Answer)
}

func TestQueryAnswerWithAI(t *testing.T) {
	assistant := &fakeAssistant{reply: "Split into partial fractions and use the table."}
	svc, _, indexer := newTestQueryService(assistant)

	created, err := svc.Create(context.Background(), 2, dto.QueryCreateRequest{
		Question: "How do I invert a Laplace transform?",
	})
	require.NoError(t, err)

	_, err = svc.AnswerWithAI(context.Background(), 3, created.ID)
	require.ErrorIs(t, err, ErrNotQueryOwner)

	answered, err := svc.AnswerWithAI(context.Background(), 2, created.ID)
	require.NoError(t, err)
	require.Equal(t, assistant.reply, answered.Answer)
	require.Equal(t, models.AnsweredByAI, answered.AnsweredByType)
	require.Len(t, indexer.indexed, 1)

	_, err = svc.AnswerWithAI(context.Background(), 2, created.ID)
	require.ErrorIs(t, err, ErrQueryAlreadyAnswered)
}

func TestQueryListFilters(t *testing.T) {
	svc, _, _ := newTestQueryService(&fakeAssistant{})

	first, err := svc.Create(context.Background(), 2, dto.QueryCreateRequest{Question: "What is a resonance frequency?", Subject: "Physics"})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), 3, dto.QueryCreateRequest{Question: "What is an eigenvalue exactly?", Subject: "Mathematics"})
	require.NoError(t, err)

	_, err = svc.Answer(context.Background(), 7, first.ID, dto.QueryAnswerRequest{Answer: "Where the response peaks."})
	require.NoError(t, err)

	unanswered, err := svc.List(context.Background(), repository.QueryFilter{Unanswered: true})
	require.NoError(t, err)
	require.Len(t, unanswered, 1)

	bySubject, err := svc.List(context.Background(), repository.QueryFilter{Subject: "Physics"})
	require.NoError(t, err)
	require.Len(t, bySubject, 1)

	mine, err := svc.List(context.Background(), repository.QueryFilter{AskedBy: 2})
	require.NoError(t, err)
	require.Len(t, mine, 1)
}

func TestQueryDeleteOwnership(t *testing.T) {
	svc, _, indexer := newTestQueryService(&fakeAssistant{})

	created, err := svc.Create(context.Background(), 2, dto.QueryCreateRequest{Question: "What is an eigenvalue exactly?"})
	require.NoError(t, err)

	require.ErrorIs(t, svc.Delete(context.Background(), 3, created.ID), ErrNotQueryOwner)
	require.NoError(t, svc.Delete(context.Background(), 2, created.ID))
	require.ErrorIs(t, svc.Delete(context.Background(), 2, created.ID), ErrQueryNotFound)

	// Deletion drops the indexed copy too.
	require.Equal(t, []uint{created.ID}, indexer.removed)
}
