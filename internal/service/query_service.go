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
	"github.com/noah-isme/studyfriend-api/internal/utils"
	"github.com/noah-isme/studyfriend-api/pkg/ai"
)

// Query failures.
var (
	ErrQueryNotFound        = errors.New("query not found")
	ErrQueryAlreadyAnswered = errors.New("query has already been answered")
	ErrNotQueryOwner        = errors.New("query belongs to another student")
)

// QueryService manages student doubts. Doubts can be answered by faculty or
// handed to the assistant.
type QueryService interface {
	Create(ctx context.Context, studentID uint, payload dto.QueryCreateRequest) (dto.QueryResponse, error)
	List(ctx context.Context, filter repository.QueryFilter) ([]dto.QueryResponse, error)
	Get(ctx context.Context, id uint) (dto.QueryResponse, error)
	Answer(ctx context.Context, facultyID, id uint, payload dto.QueryAnswerRequest) (dto.QueryResponse, error)
	AnswerWithAI(ctx context.Context, studentID, id uint) (dto.QueryResponse, error)
	Delete(ctx context.Context, studentID, id uint) error
}

type queryService struct {
	repo          repository.QueryRepository
	assistant     ai.Assistant
	notifications NotificationService
	indexer       QueryIndexer
	validator     *validator.Validate
	logger        zerolog.Logger
	now           func() time.Time
}

// NewQueryService builds a new query service. The indexer may be nil when
// semantic search is disabled.
func NewQueryService(
	repo repository.QueryRepository,
	assistant ai.Assistant,
	notifications NotificationService,
	indexer QueryIndexer,
	validate *validator.Validate,
	logger zerolog.Logger,
) QueryService {
	return &queryService{
		repo:          repo,
		assistant:     assistant,
		notifications: notifications,
		indexer:       indexer,
		validator:     validate,
		logger:        logger.With().Str("component", "query_service").Logger(),
		now:           time.Now,
	}
}

// indexAnswer pushes a resolved doubt into the search index, best effort.
func (s *queryService) indexAnswer(ctx context.Context, query models.Query) {
	if s.indexer == nil {
		return
	}
	if err := s.indexer.IndexQuery(ctx, query); err != nil {
		s.logger.Warn().Err(err).Uint("query_id", query.ID).Msg("query indexing failed")
	}
}

func (s *queryService) Create(ctx context.Context, studentID uint, payload dto.QueryCreateRequest) (dto.QueryResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.QueryResponse{}, err
	}

	query := models.Query{
		Question: utils.SanitizeString(payload.Question, 5000),
		Subject:  payload.Subject,
		AskedBy:  studentID,
	}
	if err := s.repo.Create(ctx, &query); err != nil {
		return dto.QueryResponse{}, err
	}

	s.logger.Info().Uint("query_id", query.ID).Uint("student_id", studentID).Msg("query posted")
	return dto.NewQueryResponse(query), nil
}

func (s *queryService) List(ctx context.Context, filter repository.QueryFilter) ([]dto.QueryResponse, error) {
	queries, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	return dto.NewQueryResponseSlice(queries), nil
}

func (s *queryService) Get(ctx context.Context, id uint) (dto.QueryResponse, error) {
	query, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.QueryResponse{}, ErrQueryNotFound
		}
		return dto.QueryResponse{}, err
	}

	return dto.NewQueryResponse(query), nil
}

func (s *queryService) Answer(ctx context.Context, facultyID, id uint, payload dto.QueryAnswerRequest) (dto.QueryResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.QueryResponse{}, err
	}

	query, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.QueryResponse{}, ErrQueryNotFound
		}
		return dto.QueryResponse{}, err
	}
	if query.Answered() {
		return dto.QueryResponse{}, ErrQueryAlreadyAnswered
	}

	answered := s.now()
	query.Answer = utils.SanitizeString(payload.Answer, 10000)
	query.AnsweredBy = &facultyID
	query.AnsweredByType = models.AnsweredByFaculty
	query.AnsweredAt = &answered

	if err := s.repo.Update(ctx, &query); err != nil {
		return dto.QueryResponse{}, err
	}

	s.indexAnswer(ctx, query)
	s.notifications.Notify(ctx, query.AskedBy, "Your doubt has been answered",
		"A faculty member answered your question.", models.NotificationSuccess)

	s.logger.Info().Uint("query_id", id).Uint("faculty_id", facultyID).Msg("query answered")
	return dto.NewQueryResponse(query), nil
}

// AnswerWithAI resolves the caller's own doubt using the assistant.
func (s *queryService) AnswerWithAI(ctx context.Context, studentID, id uint) (dto.QueryResponse, error) {
	query, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.QueryResponse{}, ErrQueryNotFound
		}
		return dto.QueryResponse{}, err
	}
	if query.AskedBy != studentID {
		return dto.QueryResponse{}, ErrNotQueryOwner
	}
	if query.Answered() {
		return dto.QueryResponse{}, ErrQueryAlreadyAnswered
	}

	messages := []ai.Message{
		{Role: ai.RoleSystem, Content: "You are a helpful tutor. Answer the student's question clearly and concisely."},
		{Role: ai.RoleUser, Content: query.Question},
	}
	answer, err := s.assistant.Complete(ctx, messages)
	if err != nil {
		return dto.QueryResponse{}, err
	}

	answered := s.now()
	query.Answer = answer
	query.AnsweredByType = models.AnsweredByAI
	query.AnsweredAt = &answered

	if err := s.repo.Update(ctx, &query); err != nil {
		return dto.QueryResponse{}, err
	}

	s.indexAnswer(ctx, query)
	s.logger.Info().Uint("query_id", id).Msg("query answered by assistant")
	return dto.NewQueryResponse(query), nil
}

func (s *queryService) Delete(ctx context.Context, studentID, id uint) error {
	query, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrQueryNotFound
		}
		return err
	}
	if query.AskedBy != studentID {
		return ErrNotQueryOwner
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if s.indexer != nil {
		if err := s.indexer.RemoveQuery(ctx, id); err != nil {
			s.logger.Warn().Err(err).Uint("query_id", id).Msg("query index removal failed")
		}
	}

	return nil
}
