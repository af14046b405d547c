package storage

import (
	"campusnet/backend/internal/models"
	"context"
	"log"
)

// SaveMessage persists a message; msg.ID and msg.CreatedAt are filled by the database.
func (s *Service) SaveMessage(ctx context.Context, msg *models.Message) error {
	if err := s.DB.WithContext(ctx).Create(msg).Error; err != nil {
		log.Printf("ERROR: Failed to save message from %s to %s: %v", msg.SenderID, msg.ReceiverID, err)
		return dbError("save message", err)
	}
	return nil
}

// GetConversation returns every message exchanged between a and b, oldest first.
func (s *Service) GetConversation(ctx context.Context, a, b string) ([]models.Message, error) {
	history := []models.Message{}
	if err := s.DB.WithContext(ctx).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)", a, b, b, a).
		Order("created_at asc").
		Order("id asc").
		Find(&history).Error; err != nil {
		log.Printf("ERROR: Failed to get conversation between %s and %s: %v", a, b, err)
		return nil, dbError("get conversation", err)
	}
	return history, nil
}

// MarkMessagesRead flags every unread message from otherID to readerID as read.
func (s *Service) MarkMessagesRead(ctx context.Context, readerID, otherID string) (int64, error) {
	res := s.DB.WithContext(ctx).Model(&models.Message{}).
		Where("sender_id = ? AND receiver_id = ? AND is_read = ?", otherID, readerID, false).
		Update("is_read", true)
	if res.Error != nil {
		return 0, dbError("mark messages read", res.Error)
	}
	return res.RowsAffected, nil
}
