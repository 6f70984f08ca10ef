package services

import (
	"context"

	"github.com/senyabanana/auction-service/internal/models"
	"github.com/senyabanana/auction-service/internal/repository"

	"github.com/google/uuid"
)

type NotificationService struct {
	Store repository.Repositories
}

// NewNotificationService создаёт новый экземпляр NotificationService.
func NewNotificationService(store repository.Repositories) *NotificationService {
	return &NotificationService{Store: store}
}

// ListNotifications возвращает уведомления пользователя, начиная с последних.
func (s *NotificationService) ListNotifications(ctx context.Context, actor models.Actor, limit, offset int) ([]models.Notification, error) {
	notifications, err := s.Store.Notifications().ListByUser(ctx, actor.UserID, limit, offset)
	if err != nil {
		return nil, err
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}
	return notifications, nil
}

// CountUnread возвращает количество непрочитанных уведомлений.
func (s *NotificationService) CountUnread(ctx context.Context, actor models.Actor) (int, error) {
	return s.Store.Notifications().CountUnread(ctx, actor.UserID)
}

// MarkRead отмечает уведомление прочитанным. Чужое уведомление считается ненайденным.
func (s *NotificationService) MarkRead(ctx context.Context, actor models.Actor, id uuid.UUID) error {
	n, err := s.Store.Notifications().GetByID(ctx, id)
	if err != nil {
		return storeError(err, "notification not found", "")
	}
	if n.UserID != actor.UserID {
		return models.NewNotFoundError("notification not found")
	}
	if n.Read {
		return nil
	}
	return storeError(s.Store.Notifications().MarkRead(ctx, id), "notification not found", "")
}
