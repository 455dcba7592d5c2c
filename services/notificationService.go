package services

import (
	"context"

	"github.com/SaltAndLight/models"
	"github.com/SaltAndLight/repositories"
)

type NotificationService struct {
	repo repositories.NotificationRepository
}

func NewNotificationService(repo repositories.NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

// List returns the recipient's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, recipient models.UserProfile, unreadOnly bool) ([]models.PrayerNotification, error) {
	notifications, err := s.repo.ListNotifications(ctx, recipient.User_Profile_ID, unreadOnly)
	if err != nil {
		return nil, err
	}
	if notifications == nil {
		notifications = []models.PrayerNotification{}
	}
	return notifications, nil
}

func (s *NotificationService) ToggleRead(ctx context.Context, recipient models.UserProfile, notificationID int) (models.PrayerNotification, error) {
	return s.repo.ToggleRead(ctx, recipient.User_Profile_ID, notificationID)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, recipient models.UserProfile) (int64, error) {
	return s.repo.MarkAllRead(ctx, recipient.User_Profile_ID)
}
