// Package notification manages the durable, recipient-scoped notification feed.
// Notifications are pull-only: nothing is pushed over live sessions.
package notification

import (
	"campusnet/backend/internal/models"
	"campusnet/backend/internal/storage"
	"context"
	"fmt"
	"strings"
)

type Service struct {
	Storage storage.Storage
}

func NewService(s storage.Storage) *Service {
	return &Service{Storage: s}
}

// Create stores an unread notification for recipientID.
func (s *Service) Create(ctx context.Context, recipientID string, typ models.NotificationType, content, relatedID, link string) (*models.Notification, error) {
	if strings.TrimSpace(recipientID) == "" {
		return nil, fmt.Errorf("%w: recipient is required", storage.ErrValidation)
	}
	if !typ.Valid() {
		return nil, fmt.Errorf("%w: unknown notification type %q", storage.ErrValidation, typ)
	}
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: notification content is required", storage.ErrValidation)
	}

	n := &models.Notification{
		RecipientID: recipientID,
		Type:        typ,
		Content:     content,
		RelatedID:   relatedID,
		Link:        link,
	}
	if err := s.Storage.SaveNotification(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// List returns the recipient's notifications, newest first.
func (s *Service) List(ctx context.Context, recipientID string) ([]models.Notification, error) {
	return s.Storage.ListNotifications(ctx, recipientID)
}

func (s *Service) UnreadCount(ctx context.Context, recipientID string) (int64, error) {
	return s.Storage.CountUnreadNotifications(ctx, recipientID)
}

// MarkRead marks one notification read. Only its recipient may do so.
func (s *Service) MarkRead(ctx context.Context, id uint, requesterID string) (*models.Notification, error) {
	return s.Storage.MarkNotificationRead(ctx, id, requesterID)
}

// ClearAll deletes every notification of the recipient. There is no undo.
func (s *Service) ClearAll(ctx context.Context, recipientID string) (int64, error) {
	return s.Storage.ClearNotifications(ctx, recipientID)
}
