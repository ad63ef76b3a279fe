package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/studyfriend-api/internal/models"
)

// MaterialFilter describes material listing options.
type MaterialFilter struct {
	Subject  string
	CourseID uint
	Search   string
	// OwnerID widens visibility to include the owner's private materials.
	OwnerID uint
}

// MaterialRepository defines persistence operations for study materials.
type MaterialRepository interface {
	List(ctx context.Context, filter MaterialFilter) ([]models.Material, error)
	ListByUploader(ctx context.Context, uploaderID uint) ([]models.Material, error)
	GetByID(ctx context.Context, id uint) (models.Material, error)
	Create(ctx context.Context, material *models.Material) error
	Update(ctx context.Context, material *models.Material) error
	Delete(ctx context.Context, id uint) error
	Count(ctx context.Context) (int64, error)
	CountCreatedSince(ctx context.Context, since time.Time) (int64, error)
}

type materialRepository struct {
	db *gorm.DB
}

// NewMaterialRepository instantiates a GORM-backed repository.
func NewMaterialRepository(db *gorm.DB) MaterialRepository {
	return &materialRepository{db: db}
}

func (r *materialRepository) List(ctx context.Context, filter MaterialFilter) ([]models.Material, error) {
	query := r.db.WithContext(ctx).Order("created_at DESC")

	if filter.OwnerID != 0 {
		query = query.Where("visibility = ? OR uploaded_by = ?", models.VisibilityPublic, filter.OwnerID)
	} else {
		query = query.Where("visibility = ?", models.VisibilityPublic)
	}
	if filter.Subject != "" {
		query = query.Where("subject = ?", filter.Subject)
	}
	if filter.CourseID != 0 {
		query = query.Where("course_id = ?", filter.CourseID)
	}
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(strings.TrimSpace(filter.Search)) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}

	var materials []models.Material
	if err := query.Find(&materials).Error; err != nil {
		return nil, err
	}

	return materials, nil
}

func (r *materialRepository) ListByUploader(ctx context.Context, uploaderID uint) ([]models.Material, error) {
	var materials []models.Material
	err := r.db.WithContext(ctx).
		Where("uploaded_by = ?", uploaderID).
		Order("created_at DESC").
		Find(&materials).Error
	if err != nil {
		return nil, err
	}

	return materials, nil
}

func (r *materialRepository) GetByID(ctx context.Context, id uint) (models.Material, error) {
	var material models.Material
	if err := r.db.WithContext(ctx).First(&material, id).Error; err != nil {
		return models.Material{}, err
	}

	return material, nil
}

func (r *materialRepository) Create(ctx context.Context, material *models.Material) error {
	return r.db.WithContext(ctx).Create(material).Error
}

func (r *materialRepository) Update(ctx context.Context, material *models.Material) error {
	return r.db.WithContext(ctx).Save(material).Error
}

func (r *materialRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Material{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *materialRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Material{}).Count(&total).Error
	return total, err
}

func (r *materialRepository) CountCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Material{}).Where("created_at >= ?", since).Count(&total).Error
	return total, err
}
