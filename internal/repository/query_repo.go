package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/studyfriend-api/internal/models"
)

// QueryFilter describes doubt listing options.
type QueryFilter struct {
	Subject        string
	AskedBy        uint
	AnsweredByType string
	Unanswered     bool
	Limit          int
}

// QueryRepository defines persistence operations for student doubts.
type QueryRepository interface {
	List(ctx context.Context, filter QueryFilter) ([]models.Query, error)
	ListRecentByUser(ctx context.Context, userID uint, limit int) ([]models.Query, error)
	GetByID(ctx context.Context, id uint) (models.Query, error)
	Create(ctx context.Context, query *models.Query) error
	Update(ctx context.Context, query *models.Query) error
	Delete(ctx context.Context, id uint) error
	Count(ctx context.Context) (int64, error)
	CountCreatedSince(ctx context.Context, since time.Time) (int64, error)
}

type queryRepository struct {
	db *gorm.DB
}

// NewQueryRepository instantiates a GORM-backed repository.
func NewQueryRepository(db *gorm.DB) QueryRepository {
	return &queryRepository{db: db}
}

func (r *queryRepository) List(ctx context.Context, filter QueryFilter) ([]models.Query, error) {
	query := r.db.WithContext(ctx).Order("created_at DESC")
	if filter.Subject != "" {
		query = query.Where("subject = ?", filter.Subject)
	}
	if filter.AskedBy != 0 {
		query = query.Where("asked_by = ?", filter.AskedBy)
	}
	if filter.AnsweredByType != "" {
		query = query.Where("answered_by_type = ?", filter.AnsweredByType)
	}
	if filter.Unanswered {
		query = query.Where("answer = ?", "")
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var queries []models.Query
	if err := query.Find(&queries).Error; err != nil {
		return nil, err
	}

	return queries, nil
}

func (r *queryRepository) ListRecentByUser(ctx context.Context, userID uint, limit int) ([]models.Query, error) {
	var queries []models.Query
	err := r.db.WithContext(ctx).
		Where("asked_by = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&queries).Error
	if err != nil {
		return nil, err
	}

	return queries, nil
}

func (r *queryRepository) GetByID(ctx context.Context, id uint) (models.Query, error) {
	var q models.Query
	if err := r.db.WithContext(ctx).First(&q, id).Error; err != nil {
		return models.Query{}, err
	}

	return q, nil
}

func (r *queryRepository) Create(ctx context.Context, query *models.Query) error {
	return r.db.WithContext(ctx).Create(query).Error
}

func (r *queryRepository) Update(ctx context.Context, query *models.Query) error {
	return r.db.WithContext(ctx).Save(query).Error
}

func (r *queryRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Query{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *queryRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Query{}).Count(&total).Error
	return total, err
}

func (r *queryRepository) CountCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Query{}).Where("created_at >= ?", since).Count(&total).Error
	return total, err
}
