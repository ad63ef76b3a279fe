package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/studyfriend-api/internal/dto"
	"github.com/noah-isme/studyfriend-api/internal/models"
	"github.com/noah-isme/studyfriend-api/internal/repository"
	"github.com/noah-isme/studyfriend-api/pkg/ai"
	"github.com/noah-isme/studyfriend-api/pkg/vector"
)

// Assistant failures.
var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrQuizGenerationFailed = errors.New("quiz generation produced no usable questions")
)

const (
	// Only well-matched materials make it into the prompt context.
	contextRelevanceFloor = 0.7
	contextMaterialLimit  = 5
	contextQueryLimit     = 5
	chatHistoryWindow     = 10
)

// AssistantService is the personalised AI layer: grounded question answering,
// running conversations, quiz generation, study plans and the single-purpose
// helpers (summaries, explanations, worked solutions).
type AssistantService interface {
	Ask(ctx context.Context, userID uint, payload dto.AskRequest) (dto.AskResponse, error)
	Chat(ctx context.Context, userID uint, payload dto.ChatRequest) (dto.ChatResponse, error)
	GenerateQuiz(ctx context.Context, userID uint, payload dto.QuizGenerateRequest) ([]ai.QuizQuestion, error)
	StudyPlan(ctx context.Context, userID uint, payload dto.StudyPlanRequest) (dto.StudyPlanResponse, error)
	Summarize(ctx context.Context, userID uint, payload dto.SummarizeRequest) (dto.SummarizeResponse, error)
	Explain(ctx context.Context, userID uint, payload dto.ExplainRequest) (dto.ExplainResponse, error)
	ExplainCode(ctx context.Context, userID uint, payload dto.CodeExplainRequest) (dto.CodeExplainResponse, error)
	SolveProblem(ctx context.Context, userID uint, payload dto.SolveProblemRequest) (dto.SolveProblemResponse, error)
	QueryHistory(ctx context.Context, userID uint) ([]dto.QueryResponse, error)
	Conversations(ctx context.Context, userID uint) ([]dto.ConversationSummary, error)
	Conversation(ctx context.Context, userID, id uint) (dto.ConversationResponse, error)
	DeleteConversation(ctx context.Context, userID, id uint) error
}

// QueryIndexer pushes answered doubts into the semantic search index.
type QueryIndexer interface {
	IndexQuery(ctx context.Context, query models.Query) error
	RemoveQuery(ctx context.Context, queryID uint) error
}

type assistantService struct {
	assistant   ai.Assistant
	store       *vector.Store
	users       repository.UserRepository
	enrollments repository.EnrollmentRepository
	courses     repository.CourseRepository
	queries     repository.QueryRepository
	chats       repository.ChatRepository
	indexer     QueryIndexer
	validator   *validator.Validate
	logger      zerolog.Logger
	now         func() time.Time
}

// NewAssistantService builds a new assistant service. The indexer may be nil
// when semantic search is disabled.
func NewAssistantService(
	assistant ai.Assistant,
	store *vector.Store,
	users repository.UserRepository,
	enrollments repository.EnrollmentRepository,
	courses repository.CourseRepository,
	queries repository.QueryRepository,
	chats repository.ChatRepository,
	indexer QueryIndexer,
	validate *validator.Validate,
	logger zerolog.Logger,
) AssistantService {
	return &assistantService{
		assistant:   assistant,
		store:       store,
		users:       users,
		enrollments: enrollments,
		courses:     courses,
		queries:     queries,
		chats:       chats,
		indexer:     indexer,
		validator:   validate,
		logger:      logger.With().Str("component", "assistant_service").Logger(),
		now:         time.Now,
	}
}

// recordAIQuery persists an assistant answer as a resolved doubt and indexes
// it for semantic search. Failures are logged, never surfaced: the answer was
// already produced.
func (s *assistantService) recordAIQuery(ctx context.Context, userID uint, question, subject, answer string) {
	answered := s.now()
	query := models.Query{
		Question:       question,
		Subject:        subject,
		AskedBy:        userID,
		Answer:         answer,
		AnsweredByType: models.AnsweredByAI,
		AnsweredAt:     &answered,
	}
	if err := s.queries.Create(ctx, &query); err != nil {
		s.logger.Warn().Err(err).Uint("user_id", userID).Msg("failed to persist assistant answer")
		return
	}
	if s.indexer != nil {
		if err := s.indexer.IndexQuery(ctx, query); err != nil {
			s.logger.Warn().Err(err).Uint("query_id", query.ID).Msg("assistant answer indexing failed")
		}
	}
}

// Ask answers a one-off question grounded in the student's profile,
// enrollments, matching materials and recent doubts.
func (s *assistantService) Ask(ctx context.Context, userID uint, payload dto.AskRequest) (dto.AskResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AskResponse{}, err
	}

	system, sources, err := s.buildContext(ctx, userID, payload.Question, payload.Subject)
	if err != nil {
		return dto.AskResponse{}, err
	}

	answer, err := s.assistant.Complete(ctx, []ai.Message{
		{Role: ai.RoleSystem, Content: system},
		{Role: ai.RoleUser, Content: payload.Question},
	})
	if err != nil {
		return dto.AskResponse{}, err
	}

	s.recordAIQuery(ctx, userID, payload.Question, payload.Subject, answer)

	return dto.AskResponse{Answer: answer, Sources: sources}, nil
}

// Chat continues a conversation, sending the last turns as model context and
// appending both sides to the stored log.
func (s *assistantService) Chat(ctx context.Context, userID uint, payload dto.ChatRequest) (dto.ChatResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ChatResponse{}, err
	}

	var conversation models.ChatConversation
	var history []models.ChatMessage

	if payload.ConversationID != 0 {
		existing, err := s.chats.GetByID(ctx, payload.ConversationID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return dto.ChatResponse{}, ErrConversationNotFound
			}
			return dto.ChatResponse{}, err
		}
		if existing.UserID != userID {
			return dto.ChatResponse{}, ErrConversationNotFound
		}
		conversation = existing
		_ = json.Unmarshal(conversation.Messages, &history)
	} else {
		conversation = models.ChatConversation{
			UserID: userID,
			Title:  truncate(payload.Message, 80),
		}
	}

	messages := []ai.Message{{
		Role:    ai.RoleSystem,
		Content: "You are StudyFriend, a friendly study assistant. Be concrete and encouraging.",
	}}
	for _, turn := range lastMessages(history, chatHistoryWindow) {
		messages = append(messages, ai.Message{Role: turn.Role, Content: turn.Content})
	}
	messages = append(messages, ai.Message{Role: ai.RoleUser, Content: payload.Message})

	reply, err := s.assistant.Complete(ctx, messages)
	if err != nil {
		return dto.ChatResponse{}, err
	}

	now := s.now()
	history = append(history,
		models.ChatMessage{Role: ai.RoleUser, Content: payload.Message, Timestamp: now},
		models.ChatMessage{Role: ai.RoleAssistant, Content: reply, Timestamp: now},
	)
	raw, err := json.Marshal(history)
	if err != nil {
		return dto.ChatResponse{}, err
	}
	conversation.Messages = raw

	if conversation.ID == 0 {
		err = s.chats.Create(ctx, &conversation)
	} else {
		err = s.chats.Update(ctx, &conversation)
	}
	if err != nil {
		return dto.ChatResponse{}, err
	}

	return dto.ChatResponse{ConversationID: conversation.ID, Reply: reply}, nil
}

// GenerateQuiz asks the model for questions in a fixed textual format and
// parses them.
func (s *assistantService) GenerateQuiz(ctx context.Context, userID uint, payload dto.QuizGenerateRequest) ([]ai.QuizQuestion, error) {
	if err := s.validator.Struct(payload); err != nil {
		return nil, err
	}

	difficulty := payload.Difficulty
	if difficulty == "" {
		difficulty = "medium"
	}

	prompt := fmt.Sprintf(
		"Generate %d %s multiple-choice questions about %q", payload.QuestionCount, difficulty, payload.Topic)
	if payload.Subject != "" {
		prompt += fmt.Sprintf(" for the subject %q", payload.Subject)
	}
	prompt += ". Use exactly this format for each question:\n" +
		"Q: <question>\nA) <option>\nB) <option>\nC) <option>\nD) <option>\nCorrect: <letter>"

	content, err := s.assistant.Complete(ctx, []ai.Message{
		{Role: ai.RoleSystem, Content: "You write exam questions. Follow the requested format exactly, no extra prose."},
		{Role: ai.RoleUser, Content: prompt},
	})
	if err != nil {
		return nil, err
	}

	questions, err := ai.ParseQuiz(content)
	if err != nil {
		s.logger.Warn().Err(err).Uint("user_id", userID).Msg("quiz output unparseable")
		return nil, ErrQuizGenerationFailed
	}

	return questions, nil
}

func (s *assistantService) StudyPlan(ctx context.Context, userID uint, payload dto.StudyPlanRequest) (dto.StudyPlanResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.StudyPlanResponse{}, err
	}

	system, _, err := s.buildContext(ctx, userID, payload.Goal, "")
	if err != nil {
		return dto.StudyPlanResponse{}, err
	}

	prompt := fmt.Sprintf(
		"Draft a week-by-week study plan covering the next %d weeks for this goal: %s",
		payload.WeeksAhead, payload.Goal)

	plan, err := s.assistant.Complete(ctx, []ai.Message{
		{Role: ai.RoleSystem, Content: system},
		{Role: ai.RoleUser, Content: prompt},
	})
	if err != nil {
		return dto.StudyPlanResponse{}, err
	}

	return dto.StudyPlanResponse{Plan: plan}, nil
}

// Summarize condenses a block of text. Summaries are transient and are not
// recorded as queries.
func (s *assistantService) Summarize(ctx context.Context, userID uint, payload dto.SummarizeRequest) (dto.SummarizeResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SummarizeResponse{}, err
	}

	system := "You summarise study material into concise, well-structured notes. Keep key terms and definitions."
	if payload.Subject != "" {
		system += fmt.Sprintf(" The material belongs to the subject %q.", payload.Subject)
	}

	summary, err := s.assistant.Complete(ctx, []ai.Message{
		{Role: ai.RoleSystem, Content: system},
		{Role: ai.RoleUser, Content: "Summarise the following:\n\n" + payload.Content},
	})
	if err != nil {
		return dto.SummarizeResponse{}, err
	}

	return dto.SummarizeResponse{
		Summary:        summary,
		Subject:        payload.Subject,
		OriginalLength: len(payload.Content),
		SummaryLength:  len(summary),
	}, nil
}

// Explain produces a concept explanation and records it as an AI-answered
// doubt.
func (s *assistantService) Explain(ctx context.Context, userID uint, payload dto.ExplainRequest) (dto.ExplainResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ExplainResponse{}, err
	}

	level := payload.Level
	if level == "" {
		level = "intermediate"
	}

	system := fmt.Sprintf("You are a patient tutor. Explain concepts at a %s level with examples.", level)
	prompt := fmt.Sprintf("Explain the concept %q", payload.Concept)
	if payload.Subject != "" {
		prompt += fmt.Sprintf(" in the context of %s", payload.Subject)
	}

	explanation, err := s.assistant.Complete(ctx, []ai.Message{
		{Role: ai.RoleSystem, Content: system},
		{Role: ai.RoleUser, Content: prompt},
	})
	if err != nil {
		return dto.ExplainResponse{}, err
	}

	s.recordAIQuery(ctx, userID, "Explain: "+payload.Concept, payload.Subject, explanation)

	return dto.ExplainResponse{Concept: payload.Concept, Explanation: explanation}, nil
}

// ExplainCode walks through a code snippet line by line.
func (s *assistantService) ExplainCode(ctx context.Context, userID uint, payload dto.CodeExplainRequest) (dto.CodeExplainResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CodeExplainResponse{}, err
	}

	system := fmt.Sprintf("You are a programming tutor. Explain %s code clearly: what it does, how it works and any pitfalls.", payload.Language)
	explanation, err := s.assistant.Complete(ctx, []ai.Message{
		{Role: ai.RoleSystem, Content: system},
		{Role: ai.RoleUser, Content: "Explain this code:\n\n" + payload.Code},
	})
	if err != nil {
		return dto.CodeExplainResponse{}, err
	}

	snippet := payload.Code
	if len(snippet) > 100 {
		snippet = snippet[:100] + "..."
	}
	question := fmt.Sprintf("Code explanation (%s): %s", payload.Language, snippet)
	s.recordAIQuery(ctx, userID, question, "Programming", explanation)

	return dto.CodeExplainResponse{Language: payload.Language, Explanation: explanation}, nil
}

// SolveProblem produces a step-by-step solution.
func (s *assistantService) SolveProblem(ctx context.Context, userID uint, payload dto.SolveProblemRequest) (dto.SolveProblemResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SolveProblemResponse{}, err
	}

	system := "You solve academic problems step by step, stating the reasoning before the result."
	if payload.Subject != "" {
		system += fmt.Sprintf(" The problem belongs to the subject %q.", payload.Subject)
	}

	solution, err := s.assistant.Complete(ctx, []ai.Message{
		{Role: ai.RoleSystem, Content: system},
		{Role: ai.RoleUser, Content: "Solve this problem:\n\n" + payload.Problem},
	})
	if err != nil {
		return dto.SolveProblemResponse{}, err
	}

	s.recordAIQuery(ctx, userID, "Problem: "+payload.Problem, payload.Subject, solution)

	return dto.SolveProblemResponse{
		Problem:  payload.Problem,
		Subject:  payload.Subject,
		Solution: solution,
	}, nil
}

// QueryHistory lists the caller's AI-answered doubts, newest first.
func (s *assistantService) QueryHistory(ctx context.Context, userID uint) ([]dto.QueryResponse, error) {
	queries, err := s.queries.List(ctx, repository.QueryFilter{
		AskedBy:        userID,
		AnsweredByType: models.AnsweredByAI,
		Limit:          20,
	})
	if err != nil {
		return nil, err
	}

	return dto.NewQueryResponseSlice(queries), nil
}

func (s *assistantService) Conversations(ctx context.Context, userID uint) ([]dto.ConversationSummary, error) {
	conversations, err := s.chats.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	return dto.NewConversationSummarySlice(conversations), nil
}

func (s *assistantService) Conversation(ctx context.Context, userID, id uint) (dto.ConversationResponse, error) {
	conversation, err := s.chats.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ConversationResponse{}, ErrConversationNotFound
		}
		return dto.ConversationResponse{}, err
	}
	if conversation.UserID != userID {
		return dto.ConversationResponse{}, ErrConversationNotFound
	}

	return dto.NewConversationResponse(conversation), nil
}

func (s *assistantService) DeleteConversation(ctx context.Context, userID, id uint) error {
	conversation, err := s.chats.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrConversationNotFound
		}
		return err
	}
	if conversation.UserID != userID {
		return ErrConversationNotFound
	}

	return s.chats.Delete(ctx, id)
}

// buildContext assembles the personalised system prompt: the user's profile,
// their enrollments with progress, semantically matched materials and their
// recent doubts.
func (s *assistantService) buildContext(ctx context.Context, userID uint, question, subject string) (string, []dto.Source, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, ErrUserNotFound
		}
		return "", nil, err
	}

	builder := strings.Builder{}
	builder.WriteString("You are StudyFriend, a personalised study assistant.\n\n## Student\n")
	builder.WriteString(fmt.Sprintf("Name: %s, role: %s", user.Name, user.Role))
	if user.Institution != "" {
		builder.WriteString(", institution: " + user.Institution)
	}
	builder.WriteString("\n")

	enrollments, err := s.enrollments.ListByStudent(ctx, userID)
	if err != nil {
		return "", nil, err
	}
	if len(enrollments) > 0 {
		builder.WriteString("\n## Enrollments\n")
		for _, enrollment := range enrollments {
			course, err := s.courses.GetByID(ctx, enrollment.CourseID)
			if err != nil {
				continue
			}
			builder.WriteString(fmt.Sprintf("- %s (%.0f%% complete, %s)\n",
				course.Name, enrollment.ProgressPercentage, enrollment.Status))
		}
	}

	var sources []dto.Source
	matches, err := s.store.Search(ctx, question, subject, contextMaterialLimit, contextRelevanceFloor)
	if err != nil {
		s.logger.Warn().Err(err).Msg("context search failed, continuing without materials")
	} else if len(matches) > 0 {
		builder.WriteString("\n## Relevant materials\n")
		for _, match := range matches {
			builder.WriteString("- " + truncate(match.Content, 300) + "\n")
			sources = append(sources, dto.Source{
				Ref:       match.Ref,
				Subject:   match.Subject,
				Relevance: match.Relevance,
			})
		}
	}

	recent, err := s.queries.ListRecentByUser(ctx, userID, contextQueryLimit)
	if err != nil {
		return "", nil, err
	}
	if len(recent) > 0 {
		builder.WriteString("\n## Recent doubts\n")
		for _, query := range recent {
			builder.WriteString("- " + truncate(query.Question, 200) + "\n")
		}
	}

	builder.WriteString("\nAnswer with this context in mind. Be specific and reference the student's courses where useful.")
	return builder.String(), sources, nil
}

func lastMessages(history []models.ChatMessage, n int) []models.ChatMessage {
	if len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
