package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/studyfriend-api/internal/dto"
	"github.com/noah-isme/studyfriend-api/internal/models"
	"github.com/noah-isme/studyfriend-api/internal/repository"
	"github.com/noah-isme/studyfriend-api/pkg/vector"
)

const (
	defaultSearchLimit = 10
	// Matches below this relevance are treated as noise.
	minSearchRelevance = 0.3
	bulkIndexCap       = 100
)

// ErrBadContentType rejects bulk indexing of unknown content kinds.
var ErrBadContentType = errors.New("content type must be materials, courses or queries")

// SearchService indexes study content and answers semantic queries. It also
// serves as the indexer hook for the catalog, material and query services,
// and backs the admin reindex endpoints.
type SearchService interface {
	Search(ctx context.Context, payload dto.SearchRequest) ([]dto.SearchResult, error)
	IndexCourse(ctx context.Context, course models.Course) error
	RemoveCourse(ctx context.Context, courseID uint) error
	IndexMaterial(ctx context.Context, material models.Material) error
	RemoveMaterial(ctx context.Context, materialID uint) error
	IndexQuery(ctx context.Context, query models.Query) error
	RemoveQuery(ctx context.Context, queryID uint) error

	ReindexMaterial(ctx context.Context, id uint) error
	ReindexCourse(ctx context.Context, id uint) error
	ReindexQuery(ctx context.Context, id uint) error
	BulkIndex(ctx context.Context, contentType string, limit int) (dto.BulkIndexReport, error)
}

type searchService struct {
	store     *vector.Store
	materials repository.MaterialRepository
	courses   repository.CourseRepository
	queries   repository.QueryRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewSearchService builds a new search service.
func NewSearchService(
	store *vector.Store,
	materials repository.MaterialRepository,
	courses repository.CourseRepository,
	queries repository.QueryRepository,
	validate *validator.Validate,
	logger zerolog.Logger,
) SearchService {
	return &searchService{
		store:     store,
		materials: materials,
		courses:   courses,
		queries:   queries,
		validator: validate,
		logger:    logger.With().Str("component", "search_service").Logger(),
	}
}

func (s *searchService) Search(ctx context.Context, payload dto.SearchRequest) ([]dto.SearchResult, error) {
	if err := s.validator.Struct(payload); err != nil {
		return nil, err
	}

	limit := payload.Limit
	if limit == 0 {
		limit = defaultSearchLimit
	}

	matches, err := s.store.Search(ctx, payload.Query, payload.Subject, limit, minSearchRelevance)
	if err != nil {
		return nil, err
	}

	results := make([]dto.SearchResult, 0, len(matches))
	for _, match := range matches {
		results = append(results, dto.SearchResult{
			Ref:       match.Ref,
			Content:   match.Content,
			Subject:   match.Subject,
			Relevance: match.Relevance,
		})
	}
	return results, nil
}

func (s *searchService) IndexCourse(ctx context.Context, course models.Course) error {
	content := strings.TrimSpace(course.Name + ". " + course.Description)
	if course.Syllabus != "" {
		content += "\n" + course.Syllabus
	}
	return s.store.Upsert(ctx, courseRef(course.ID), content, "")
}

func (s *searchService) RemoveCourse(ctx context.Context, courseID uint) error {
	return s.store.Delete(ctx, courseRef(courseID))
}

func (s *searchService) IndexMaterial(ctx context.Context, material models.Material) error {
	content := strings.TrimSpace(material.Title + ". " + material.Description)
	return s.store.Upsert(ctx, materialRef(material.ID), content, material.Subject)
}

func (s *searchService) RemoveMaterial(ctx context.Context, materialID uint) error {
	return s.store.Delete(ctx, materialRef(materialID))
}

// IndexQuery makes an answered doubt searchable. Unanswered queries carry no
// useful content and are skipped.
func (s *searchService) IndexQuery(ctx context.Context, query models.Query) error {
	if query.Answer == "" {
		return nil
	}
	content := strings.TrimSpace(query.Question + "\n" + query.Answer)
	return s.store.Upsert(ctx, queryRef(query.ID), content, query.Subject)
}

func (s *searchService) RemoveQuery(ctx context.Context, queryID uint) error {
	return s.store.Delete(ctx, queryRef(queryID))
}

func (s *searchService) ReindexMaterial(ctx context.Context, id uint) error {
	material, err := s.materials.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMaterialNotFound
		}
		return err
	}
	return s.IndexMaterial(ctx, material)
}

func (s *searchService) ReindexCourse(ctx context.Context, id uint) error {
	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCourseNotFound
		}
		return err
	}
	return s.IndexCourse(ctx, course)
}

func (s *searchService) ReindexQuery(ctx context.Context, id uint) error {
	query, err := s.queries.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrQueryNotFound
		}
		return err
	}
	return s.IndexQuery(ctx, query)
}

// BulkIndex refreshes the vector store for one content kind. At most
// bulkIndexCap records are processed per call.
func (s *searchService) BulkIndex(ctx context.Context, contentType string, limit int) (dto.BulkIndexReport, error) {
	if limit <= 0 || limit > bulkIndexCap {
		limit = bulkIndexCap
	}

	report := dto.BulkIndexReport{ContentType: contentType}
	index := func(ref func(context.Context) error) {
		if err := ref(ctx); err != nil {
			report.Failed++
		} else {
			report.Indexed++
		}
	}

	switch contentType {
	case "materials":
		materials, err := s.materials.List(ctx, repository.MaterialFilter{})
		if err != nil {
			return dto.BulkIndexReport{}, err
		}
		for i, material := range materials {
			if i >= limit {
				break
			}
			material := material
			index(func(ctx context.Context) error { return s.IndexMaterial(ctx, material) })
		}
	case "courses":
		courses, err := s.courses.List(ctx, repository.CourseFilter{})
		if err != nil {
			return dto.BulkIndexReport{}, err
		}
		for i, course := range courses {
			if i >= limit {
				break
			}
			course := course
			index(func(ctx context.Context) error { return s.IndexCourse(ctx, course) })
		}
	case "queries":
		queries, err := s.queries.List(ctx, repository.QueryFilter{Limit: limit})
		if err != nil {
			return dto.BulkIndexReport{}, err
		}
		for _, query := range queries {
			if query.Answer == "" {
				report.Skipped++
				continue
			}
			query := query
			index(func(ctx context.Context) error { return s.IndexQuery(ctx, query) })
		}
	default:
		return dto.BulkIndexReport{}, ErrBadContentType
	}

	s.logger.Info().
		Str("content_type", contentType).
		Int("indexed", report.Indexed).
		Int("failed", report.Failed).
		Msg("bulk index finished")
	return report, nil
}

func courseRef(id uint) string {
	return fmt.Sprintf("course:%d", id)
}

func materialRef(id uint) string {
	return fmt.Sprintf("material:%d", id)
}

func queryRef(id uint) string {
	return fmt.Sprintf("query:%d", id)
}
