package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/studyfriend-api/internal/models"
)

// SessionRepository defines persistence operations for tutoring sessions.
type SessionRepository interface {
	ListByStudent(ctx context.Context, studentID uint) ([]models.Session, error)
	ListByFaculty(ctx context.Context, facultyID uint, status string) ([]models.Session, error)
	GetBySessionID(ctx context.Context, sessionID string) (models.Session, error)
	Create(ctx context.Context, session *models.Session) error
	Update(ctx context.Context, session *models.Session) error
	Count(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context, status string) (int64, error)
}

type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository instantiates a GORM-backed repository.
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) ListByStudent(ctx context.Context, studentID uint) ([]models.Session, error) {
	var sessions []models.Session
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("scheduled_at DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}

	return sessions, nil
}

func (r *sessionRepository) ListByFaculty(ctx context.Context, facultyID uint, status string) ([]models.Session, error) {
	query := r.db.WithContext(ctx).Where("faculty_id = ?", facultyID).Order("scheduled_at DESC")
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var sessions []models.Session
	if err := query.Find(&sessions).Error; err != nil {
		return nil, err
	}

	return sessions, nil
}

func (r *sessionRepository) GetBySessionID(ctx context.Context, sessionID string) (models.Session, error) {
	var session models.Session
	if err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&session).Error; err != nil {
		return models.Session{}, err
	}

	return session, nil
}

func (r *sessionRepository) Create(ctx context.Context, session *models.Session) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *sessionRepository) Update(ctx context.Context, session *models.Session) error {
	return r.db.WithContext(ctx).Save(session).Error
}

func (r *sessionRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Session{}).Count(&total).Error
	return total, err
}

func (r *sessionRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Session{}).Where("status = ?", status).Count(&total).Error
	return total, err
}
