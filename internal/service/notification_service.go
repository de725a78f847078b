package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/classhub/portal-service/internal/models"
	"github.com/classhub/portal-service/internal/repository"
)

type NotificationService interface {
	ListOwn(ctx context.Context, caller models.Caller, page, limit int) ([]models.Notification, int, error)
	CountUnread(ctx context.Context, caller models.Caller) (int, error)
	MarkRead(ctx context.Context, caller models.Caller, id string) error
	MarkAllRead(ctx context.Context, caller models.Caller) error
}

type notificationService struct {
	notificationRepo repository.NotificationRepository
	logger           zerolog.Logger
}

func NewNotificationService(notificationRepo repository.NotificationRepository, logger zerolog.Logger) NotificationService {
	return &notificationService{
		notificationRepo: notificationRepo,
		logger:           logger,
	}
}

func (s *notificationService) ListOwn(ctx context.Context, caller models.Caller, page, limit int) ([]models.Notification, int, error) {
	page, limit = normalizePaging(page, limit)
	offset := (page - 1) * limit

	notifications, total, err := s.notificationRepo.ListByUser(ctx, caller.UserID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}

	return notifications, total, nil
}

func (s *notificationService) CountUnread(ctx context.Context, caller models.Caller) (int, error) {
	count, err := s.notificationRepo.CountUnread(ctx, caller.UserID)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}

	return count, nil
}

func (s *notificationService) MarkRead(ctx context.Context, caller models.Caller, id string) error {
	notification, err := s.notificationRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get notification: %w", err)
	}
	if notification == nil {
		return notFoundf("notification not found")
	}
	if notification.UserID != caller.UserID {
		return forbiddenf("not allowed to update this notification")
	}

	return s.notificationRepo.MarkRead(ctx, id)
}

func (s *notificationService) MarkAllRead(ctx context.Context, caller models.Caller) error {
	return s.notificationRepo.MarkAllRead(ctx, caller.UserID)
}
