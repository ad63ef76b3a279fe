package service

import (
	"context"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/studyfriend-api/internal/dto"
	"github.com/noah-isme/studyfriend-api/internal/models"
	"github.com/noah-isme/studyfriend-api/internal/repository"
	"github.com/noah-isme/studyfriend-api/pkg/vector"
)

type assistantFixture struct {
	assistant *fakeAssistant
	users     *memoryUserRepo
	chats     *memoryChatRepo
	queries   *memoryQueryRepo
	indexer   *fakeQueryIndexer
	service   AssistantService
	student   models.User
}

func newAssistantFixture(t *testing.T) *assistantFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&vector.Document{}))

	assistant := &fakeAssistant{reply: "Here is your answer."}
	store := vector.NewStore(db, assistant, zerolog.Nop())

	users := newMemoryUserRepo()
	enrollments := newMemoryEnrollmentRepo()
	courses := newMemoryCourseRepo(enrollments)
	queries := newMemoryQueryRepo()
	chats := newMemoryChatRepo()
	indexer := &fakeQueryIndexer{}
	validate := validator.New(validator.WithRequiredStructEnabled())

	svc := NewAssistantService(assistant, store, users, enrollments, courses, queries, chats, indexer, validate, zerolog.Nop())

	f := &assistantFixture{assistant: assistant, users: users, chats: chats, queries: queries, indexer: indexer, service: svc}
	f.student = models.User{Name: "Asha", Email: "asha@example.com", Role: models.RoleStudent, Verified: true}
	require.NoError(t, users.Create(context.Background(), &f.student))
	return f
}

func TestAssistantAsk(t *testing.T) {
	f := newAssistantFixture(t)

	response, err := f.service.Ask(context.Background(), f.student.ID, dto.AskRequest{Question: "What is an eigenvalue?"})
	require.NoError(t, err)
	require.Equal(t, "Here is your answer.", response.Answer)

	// The system prompt carries the student's profile.
	require.NotEmpty(t, f.assistant.prompts)
	require.Contains(t, f.assistant.prompts[0], "Asha")

	// The answered doubt is persisted and pushed into the search index.
	stored, err := f.queries.List(context.Background(), repository.QueryFilter{
		AskedBy:        f.student.ID,
		AnsweredByType: models.AnsweredByAI,
	})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	require.Equal(t, "What is an eigenvalue?", stored[0].Question)
	require.Equal(t, "Here is your answer.", stored[0].Answer)
	require.NotNil(t, stored[0].AnsweredAt)
	require.Len(t, f.indexer.indexed, 1)

	_, err = f.service.Ask(context.Background(), 9999, dto.AskRequest{Question: "What is an eigenvalue?"})
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestAssistantHelpersRecordQueries(t *testing.T) {
	f := newAssistantFixture(t)

	_, err := f.service.Explain(context.Background(), f.student.ID, dto.ExplainRequest{Concept: "Recursion", Subject: "Computer Science"})
	require.NoError(t, err)

	snippet := strings.Repeat("x := x + 1\n", 12)
	_, err = f.service.ExplainCode(context.Background(), f.student.ID, dto.CodeExplainRequest{Code: snippet, Language: "go"})
	require.NoError(t, err)

	_, err = f.service.SolveProblem(context.Background(), f.student.ID, dto.SolveProblemRequest{Problem: "Integrate x^2", Subject: "Mathematics"})
	require.NoError(t, err)

	// Summaries are transient and never show up as doubts.
	_, err = f.service.Summarize(context.Background(), f.student.ID, dto.SummarizeRequest{Content: "Long notes about calculus limits."})
	require.NoError(t, err)

	history, err := f.service.QueryHistory(context.Background(), f.student.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)

	questions := make([]string, 0, len(history))
	for _, entry := range history {
		questions = append(questions, entry.Question)
	}
	require.Contains(t, questions, "Explain: Recursion")
	require.Contains(t, questions, "Code explanation (go): "+snippet[:100]+"...")
	require.Contains(t, questions, "Problem: Integrate x^2")

	require.Len(t, f.indexer.indexed, 3)
}

func TestAssistantChatKeepsHistory(t *testing.T) {
	f := newAssistantFixture(t)

	first, err := f.service.Chat(context.Background(), f.student.ID, dto.ChatRequest{Message: "Explain eigenvalues"})
	require.NoError(t, err)
	require.NotZero(t, first.ConversationID)

	second, err := f.service.Chat(context.Background(), f.student.ID, dto.ChatRequest{
		ConversationID: first.ConversationID,
		Message:        "Now with an example",
	})
	require.NoError(t, err)
	require.Equal(t, first.ConversationID, second.ConversationID)

	conversation, err := f.service.Conversation(context.Background(), f.student.ID, first.ConversationID)
	require.NoError(t, err)
	require.Len(t, conversation.Messages, 4)

	// Conversations are private to their owner.
	_, err = f.service.Conversation(context.Background(), f.student.ID+1, first.ConversationID)
	require.ErrorIs(t, err, ErrConversationNotFound)

	_, err = f.service.Chat(context.Background(), f.student.ID+1, dto.ChatRequest{
		ConversationID: first.ConversationID,
		Message:        "hijack attempt",
	})
	require.ErrorIs(t, err, ErrConversationNotFound)
}

func TestAssistantDeleteConversation(t *testing.T) {
	f := newAssistantFixture(t)

	created, err := f.service.Chat(context.Background(), f.student.ID, dto.ChatRequest{Message: "Explain eigenvalues"})
	require.NoError(t, err)

	require.ErrorIs(t, f.service.DeleteConversation(context.Background(), f.student.ID+1, created.ConversationID), ErrConversationNotFound)
	require.NoError(t, f.service.DeleteConversation(context.Background(), f.student.ID, created.ConversationID))

	list, err := f.service.Conversations(context.Background(), f.student.ID)
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestAssistantGenerateQuiz(t *testing.T) {
	f := newAssistantFixture(t)
	f.assistant.reply = "Q: What is 2 + 2?\nA) 3\nB) 4\nC) 5\nD) 22\nCorrect: B"

	questions, err := f.service.GenerateQuiz(context.Background(), f.student.ID, dto.QuizGenerateRequest{
		Topic:         "Arithmetic",
		QuestionCount: 1,
	})
	require.NoError(t, err)
	require.Len(t, questions, 1)
	require.Equal(t, 1, questions[0].CorrectAnswer)

	f.assistant.reply = "Sorry, I cannot help with that."
	_, err = f.service.GenerateQuiz(context.Background(), f.student.ID, dto.QuizGenerateRequest{
		Topic:         "Arithmetic",
		QuestionCount: 1,
	})
	require.ErrorIs(t, err, ErrQuizGenerationFailed)
}

func TestAssistantStudyPlan(t *testing.T) {
	f := newAssistantFixture(t)
	f.assistant.reply = "Week 1: revise fundamentals."

	plan, err := f.service.StudyPlan(context.Background(), f.student.ID, dto.StudyPlanRequest{
		Goal:       "Pass the calculus final",
		WeeksAhead: 4,
	})
	require.NoError(t, err)
	require.Equal(t, "Week 1: revise fundamentals.", plan.Plan)
}
