package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/studyfriend-api/internal/dto"
	"github.com/noah-isme/studyfriend-api/internal/models"
	"github.com/noah-isme/studyfriend-api/internal/repository"
)

// ErrNotificationNotFound indicates the notification does not exist or
// belongs to someone else.
var ErrNotificationNotFound = errors.New("notification not found")

// NotificationService delivers and lists in-app notifications. Notify is
// best effort, a delivery failure never fails the calling operation.
type NotificationService interface {
	Notify(ctx context.Context, userID uint, title, message, kind string)
	List(ctx context.Context, userID uint, unreadOnly bool) ([]dto.NotificationResponse, error)
	MarkRead(ctx context.Context, userID, id uint) error
	MarkAllRead(ctx context.Context, userID uint) error
	CountUnread(ctx context.Context, userID uint) (int64, error)
}

type notificationService struct {
	repo   repository.NotificationRepository
	logger zerolog.Logger
}

// NewNotificationService builds a new notification service.
func NewNotificationService(repo repository.NotificationRepository, logger zerolog.Logger) NotificationService {
	return &notificationService{
		repo:   repo,
		logger: logger.With().Str("component", "notification_service").Logger(),
	}
}

func (s *notificationService) Notify(ctx context.Context, userID uint, title, message, kind string) {
	notification := models.Notification{
		UserID:  userID,
		Title:   title,
		Message: message,
		Type:    kind,
	}
	if err := s.repo.Create(ctx, &notification); err != nil {
		s.logger.Warn().Err(err).Uint("user_id", userID).Msg("notification delivery failed")
	}
}

func (s *notificationService) List(ctx context.Context, userID uint, unreadOnly bool) ([]dto.NotificationResponse, error) {
	notifications, err := s.repo.ListByUser(ctx, userID, unreadOnly)
	if err != nil {
		return nil, err
	}

	return dto.NewNotificationResponseSlice(notifications), nil
}

func (s *notificationService) MarkRead(ctx context.Context, userID, id uint) error {
	notification, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotificationNotFound
		}
		return err
	}
	if notification.UserID != userID {
		return ErrNotificationNotFound
	}

	return s.repo.MarkRead(ctx, id)
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID uint) error {
	return s.repo.MarkAllRead(ctx, userID)
}

func (s *notificationService) CountUnread(ctx context.Context, userID uint) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}
