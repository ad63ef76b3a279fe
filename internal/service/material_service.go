package service

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/studyfriend-api/internal/dto"
	"github.com/noah-isme/studyfriend-api/internal/models"
	"github.com/noah-isme/studyfriend-api/internal/repository"
	"github.com/noah-isme/studyfriend-api/internal/utils"
)

// Material failures.
var (
	ErrMaterialNotFound = errors.New("material not found")
	ErrNotMaterialOwner = errors.New("material belongs to another user")
)

// MaterialIndexer pushes material content into the semantic search index.
type MaterialIndexer interface {
	IndexMaterial(ctx context.Context, material models.Material) error
	RemoveMaterial(ctx context.Context, materialID uint) error
}

// MaterialService manages study materials. Private materials are only visible
// to their owner.
type MaterialService interface {
	List(ctx context.Context, filter repository.MaterialFilter) ([]dto.MaterialResponse, error)
	ListMine(ctx context.Context, userID uint) ([]dto.MaterialResponse, error)
	Get(ctx context.Context, userID, id uint) (dto.MaterialResponse, error)
	Create(ctx context.Context, userID uint, payload dto.MaterialCreateRequest) (dto.MaterialResponse, error)
	Update(ctx context.Context, userID, id uint, payload dto.MaterialUpdateRequest) (dto.MaterialResponse, error)
	Delete(ctx context.Context, userID, id uint) error
}

type materialService struct {
	repo      repository.MaterialRepository
	indexer   MaterialIndexer
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewMaterialService builds a new material service. The indexer may be nil
// when semantic search is disabled.
func NewMaterialService(repo repository.MaterialRepository, indexer MaterialIndexer, validate *validator.Validate, logger zerolog.Logger) MaterialService {
	return &materialService{
		repo:      repo,
		indexer:   indexer,
		validator: validate,
		logger:    logger.With().Str("component", "material_service").Logger(),
	}
}

func (s *materialService) List(ctx context.Context, filter repository.MaterialFilter) ([]dto.MaterialResponse, error) {
	materials, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	return dto.NewMaterialResponseSlice(materials), nil
}

func (s *materialService) ListMine(ctx context.Context, userID uint) ([]dto.MaterialResponse, error) {
	materials, err := s.repo.ListByUploader(ctx, userID)
	if err != nil {
		return nil, err
	}

	return dto.NewMaterialResponseSlice(materials), nil
}

func (s *materialService) Get(ctx context.Context, userID, id uint) (dto.MaterialResponse, error) {
	material, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.MaterialResponse{}, ErrMaterialNotFound
		}
		return dto.MaterialResponse{}, err
	}

	if material.Visibility == models.VisibilityPrivate && material.UploadedBy != userID {
		return dto.MaterialResponse{}, ErrMaterialNotFound
	}

	return dto.NewMaterialResponse(material), nil
}

func (s *materialService) Create(ctx context.Context, userID uint, payload dto.MaterialCreateRequest) (dto.MaterialResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.MaterialResponse{}, err
	}

	visibility := payload.Visibility
	if visibility == "" {
		visibility = models.VisibilityPublic
	}

	tags, err := json.Marshal(payload.Tags)
	if err != nil {
		return dto.MaterialResponse{}, err
	}

	material := models.Material{
		Title:       utils.SanitizeString(payload.Title, 255),
		Description: utils.SanitizeString(payload.Description, 2000),
		FileURL:     payload.FileURL,
		UploadedBy:  userID,
		Subject:     payload.Subject,
		CourseID:    payload.CourseID,
		Tags:        tags,
		Visibility:  visibility,
	}
	if err := s.repo.Create(ctx, &material); err != nil {
		return dto.MaterialResponse{}, err
	}

	if s.indexer != nil && material.Visibility == models.VisibilityPublic {
		if err := s.indexer.IndexMaterial(ctx, material); err != nil {
			s.logger.Warn().Err(err).Uint("material_id", material.ID).Msg("material indexing failed")
		}
	}

	s.logger.Info().Uint("material_id", material.ID).Uint("user_id", userID).Msg("material created")
	return dto.NewMaterialResponse(material), nil
}

func (s *materialService) Update(ctx context.Context, userID, id uint, payload dto.MaterialUpdateRequest) (dto.MaterialResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.MaterialResponse{}, err
	}

	material, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.MaterialResponse{}, ErrMaterialNotFound
		}
		return dto.MaterialResponse{}, err
	}
	if material.UploadedBy != userID {
		return dto.MaterialResponse{}, ErrNotMaterialOwner
	}

	if payload.Title != nil {
		material.Title = utils.SanitizeString(*payload.Title, 255)
	}
	if payload.Description != nil {
		material.Description = utils.SanitizeString(*payload.Description, 2000)
	}
	if payload.Subject != nil {
		material.Subject = *payload.Subject
	}
	if payload.Tags != nil {
		tags, err := json.Marshal(*payload.Tags)
		if err != nil {
			return dto.MaterialResponse{}, err
		}
		material.Tags = tags
	}
	if payload.Visibility != nil {
		material.Visibility = *payload.Visibility
	}

	if err := s.repo.Update(ctx, &material); err != nil {
		return dto.MaterialResponse{}, err
	}

	if s.indexer != nil {
		if material.Visibility == models.VisibilityPublic {
			if err := s.indexer.IndexMaterial(ctx, material); err != nil {
				s.logger.Warn().Err(err).Uint("material_id", material.ID).Msg("material reindexing failed")
			}
		} else {
			if err := s.indexer.RemoveMaterial(ctx, material.ID); err != nil {
				s.logger.Warn().Err(err).Uint("material_id", material.ID).Msg("material index removal failed")
			}
		}
	}

	return dto.NewMaterialResponse(material), nil
}

func (s *materialService) Delete(ctx context.Context, userID, id uint) error {
	material, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMaterialNotFound
		}
		return err
	}
	if material.UploadedBy != userID {
		return ErrNotMaterialOwner
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if s.indexer != nil {
		if err := s.indexer.RemoveMaterial(ctx, id); err != nil {
			s.logger.Warn().Err(err).Uint("material_id", id).Msg("material index removal failed")
		}
	}

	s.logger.Info().Uint("material_id", id).Msg("material deleted")
	return nil
}
