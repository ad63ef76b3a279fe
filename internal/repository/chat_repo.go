package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/studyfriend-api/internal/models"
)

// ChatRepository defines persistence operations for assistant conversations.
type ChatRepository interface {
	ListByUser(ctx context.Context, userID uint) ([]models.ChatConversation, error)
	GetByID(ctx context.Context, id uint) (models.ChatConversation, error)
	Create(ctx context.Context, conversation *models.ChatConversation) error
	Update(ctx context.Context, conversation *models.ChatConversation) error
	Delete(ctx context.Context, id uint) error
}

type chatRepository struct {
	db *gorm.DB
}

// NewChatRepository instantiates a GORM-backed repository.
func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

func (r *chatRepository) ListByUser(ctx context.Context, userID uint) ([]models.ChatConversation, error) {
	var conversations []models.ChatConversation
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&conversations).Error
	if err != nil {
		return nil, err
	}

	return conversations, nil
}

func (r *chatRepository) GetByID(ctx context.Context, id uint) (models.ChatConversation, error) {
	var conversation models.ChatConversation
	if err := r.db.WithContext(ctx).First(&conversation, id).Error; err != nil {
		return models.ChatConversation{}, err
	}

	return conversation, nil
}

func (r *chatRepository) Create(ctx context.Context, conversation *models.ChatConversation) error {
	return r.db.WithContext(ctx).Create(conversation).Error
}

func (r *chatRepository) Update(ctx context.Context, conversation *models.ChatConversation) error {
	return r.db.WithContext(ctx).Save(conversation).Error
}

func (r *chatRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.ChatConversation{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
