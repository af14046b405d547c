package storage

import (
	"campusnet/backend/internal/models"
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// SaveNotification persists a new notification as unread.
func (s *Service) SaveNotification(ctx context.Context, n *models.Notification) error {
	n.IsRead = false
	if err := s.DB.WithContext(ctx).Create(n).Error; err != nil {
		return dbError("save notification", err)
	}
	return nil
}

// ListNotifications returns the recipient's notifications, newest first.
func (s *Service) ListNotifications(ctx context.Context, recipientID string) ([]models.Notification, error) {
	list := []models.Notification{}
	if err := s.DB.WithContext(ctx).
		Where("recipient_id = ?", recipientID).
		Order("created_at desc").
		Order("id desc").
		Find(&list).Error; err != nil {
		return nil, dbError("list notifications", err)
	}
	return list, nil
}

func (s *Service) CountUnreadNotifications(ctx context.Context, recipientID string) (int64, error) {
	var count int64
	if err := s.DB.WithContext(ctx).Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Count(&count).Error; err != nil {
		return 0, dbError("count unread notifications", err)
	}
	return count, nil
}

// MarkNotificationRead marks one notification as read on behalf of its recipient.
func (s *Service) MarkNotificationRead(ctx context.Context, id uint, requesterID string) (*models.Notification, error) {
	var n models.Notification
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&n, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: notification", ErrNotFound)
			}
			return dbError("load notification", err)
		}
		if n.RecipientID != requesterID {
			return fmt.Errorf("%w: notification belongs to another user", ErrUnauthorized)
		}
		if n.IsRead {
			return nil
		}
		if err := tx.Model(&n).Update("is_read", true).Error; err != nil {
			return dbError("mark notification read", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	n.IsRead = true
	return &n, nil
}

// ClearNotifications deletes every notification owned by the recipient.
func (s *Service) ClearNotifications(ctx context.Context, recipientID string) (int64, error) {
	res := s.DB.WithContext(ctx).Where("recipient_id = ?", recipientID).Delete(&models.Notification{})
	if res.Error != nil {
		return 0, dbError("clear notifications", res.Error)
	}
	return res.RowsAffected, nil
}
