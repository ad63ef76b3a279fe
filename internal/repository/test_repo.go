package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/studyfriend-api/internal/models"
)

// TestRepository defines persistence operations for mock tests and attempts.
type TestRepository interface {
	List(ctx context.Context, subject string) ([]models.MockTest, error)
	ListByCreator(ctx context.Context, creatorID uint) ([]models.MockTest, error)
	GetByID(ctx context.Context, id uint) (models.MockTest, error)
	Create(ctx context.Context, test *models.MockTest) error
	Update(ctx context.Context, test *models.MockTest) error
	Delete(ctx context.Context, id uint) error
	Count(ctx context.Context) (int64, error)

	CreateAttempt(ctx context.Context, attempt *models.TestAttempt) error
	GetAttempt(ctx context.Context, testID, studentID uint) (models.TestAttempt, error)
	ListAttemptsByTest(ctx context.Context, testID uint) ([]models.TestAttempt, error)
	ListAttemptsByStudent(ctx context.Context, studentID uint) ([]models.TestAttempt, error)
	CountAttempts(ctx context.Context) (int64, error)
	AttemptAverages(ctx context.Context) (score, percentage float64, err error)
}

type testRepository struct {
	db *gorm.DB
}

// NewTestRepository instantiates a GORM-backed repository.
func NewTestRepository(db *gorm.DB) TestRepository {
	return &testRepository{db: db}
}

func (r *testRepository) List(ctx context.Context, subject string) ([]models.MockTest, error) {
	query := r.db.WithContext(ctx).Order("created_at DESC")
	if subject != "" {
		query = query.Where("subject = ?", subject)
	}

	var tests []models.MockTest
	if err := query.Find(&tests).Error; err != nil {
		return nil, err
	}

	return tests, nil
}

func (r *testRepository) ListByCreator(ctx context.Context, creatorID uint) ([]models.MockTest, error) {
	var tests []models.MockTest
	err := r.db.WithContext(ctx).
		Where("created_by = ?", creatorID).
		Order("created_at DESC").
		Find(&tests).Error
	if err != nil {
		return nil, err
	}

	return tests, nil
}

func (r *testRepository) GetByID(ctx context.Context, id uint) (models.MockTest, error) {
	var test models.MockTest
	if err := r.db.WithContext(ctx).First(&test, id).Error; err != nil {
		return models.MockTest{}, err
	}

	return test, nil
}

func (r *testRepository) Create(ctx context.Context, test *models.MockTest) error {
	return r.db.WithContext(ctx).Create(test).Error
}

func (r *testRepository) Update(ctx context.Context, test *models.MockTest) error {
	return r.db.WithContext(ctx).Save(test).Error
}

func (r *testRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.MockTest{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *testRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.MockTest{}).Count(&total).Error
	return total, err
}

func (r *testRepository) CountAttempts(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.TestAttempt{}).Count(&total).Error
	return total, err
}

// AttemptAverages returns the mean score and percentage across every attempt
// on the platform. Both are zero when no attempts exist.
func (r *testRepository) AttemptAverages(ctx context.Context) (float64, float64, error) {
	var row struct {
		Score      float64
		Percentage float64
	}
	err := r.db.WithContext(ctx).Model(&models.TestAttempt{}).
		Select("COALESCE(AVG(score), 0) AS score, COALESCE(AVG(percentage), 0) AS percentage").
		Scan(&row).Error
	if err != nil {
		return 0, 0, err
	}

	return row.Score, row.Percentage, nil
}

func (r *testRepository) CreateAttempt(ctx context.Context, attempt *models.TestAttempt) error {
	return r.db.WithContext(ctx).Create(attempt).Error
}

func (r *testRepository) GetAttempt(ctx context.Context, testID, studentID uint) (models.TestAttempt, error) {
	var attempt models.TestAttempt
	err := r.db.WithContext(ctx).
		Where("test_id = ? AND student_id = ?", testID, studentID).
		First(&attempt).Error
	if err != nil {
		return models.TestAttempt{}, err
	}

	return attempt, nil
}

func (r *testRepository) ListAttemptsByTest(ctx context.Context, testID uint) ([]models.TestAttempt, error) {
	var attempts []models.TestAttempt
	err := r.db.WithContext(ctx).
		Where("test_id = ?", testID).
		Order("submitted_at ASC").
		Find(&attempts).Error
	if err != nil {
		return nil, err
	}

	return attempts, nil
}

func (r *testRepository) ListAttemptsByStudent(ctx context.Context, studentID uint) ([]models.TestAttempt, error) {
	var attempts []models.TestAttempt
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("submitted_at DESC").
		Find(&attempts).Error
	if err != nil {
		return nil, err
	}

	return attempts, nil
}
