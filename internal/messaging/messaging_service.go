// Package messaging sends and reads direct messages between connected users.
package messaging

import (
	"campusnet/backend/internal/config"
	"campusnet/backend/internal/models"
	"campusnet/backend/internal/storage"
	"context"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"
)

// Presence is the part of the hub messaging needs for live delivery.
type Presence interface {
	Lookup(userID string) (string, bool)
	Push(sessionID string, event models.Event) error
}

// Service handles the business logic for messages.
type Service struct {
	Storage storage.Storage
	Hub     Presence
}

func NewService(s storage.Storage, hub Presence) *Service {
	return &Service{Storage: s, Hub: hub}
}

// SendMessage persists a message between two connected users and then
// delivers it live to the receiver and back to the sender, where they are
// online. Live delivery is best effort and never fails the call.
func (s *Service) SendMessage(ctx context.Context, senderID, receiverID, content string) (*models.Message, error) {
	senderID = strings.TrimSpace(senderID)
	receiverID = strings.TrimSpace(receiverID)

	switch {
	case senderID == "" || receiverID == "":
		return nil, fmt.Errorf("%w: sender and receiver are required", storage.ErrValidation)
	case senderID == receiverID:
		return nil, fmt.Errorf("%w: cannot message yourself", storage.ErrValidation)
	case strings.TrimSpace(content) == "":
		return nil, fmt.Errorf("%w: message content is required", storage.ErrValidation)
	case utf8.RuneCountInString(content) > config.MaxMessageLength:
		return nil, fmt.Errorf("%w: message is longer than %d characters", storage.ErrValidation, config.MaxMessageLength)
	}

	connected, err := s.Storage.AreConnected(ctx, senderID, receiverID)
	if err != nil {
		return nil, err
	}
	if !connected {
		return nil, fmt.Errorf("%w: you can only message your connections", storage.ErrUnauthorized)
	}

	msg := &models.Message{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
	}
	if err := s.Storage.SaveMessage(ctx, msg); err != nil {
		return nil, err
	}

	event := models.ReceiveMessageEvent(*msg)
	s.deliver(receiverID, event)
	s.deliver(senderID, event)

	_ = s.Storage.PublishEvent(ctx, config.MessageEventsChannel, models.NewDomainEvent(models.DomainMessageCreated, msg))

	return msg, nil
}

func (s *Service) deliver(userID string, event models.Event) {
	if s.Hub == nil {
		return
	}
	sessionID, ok := s.Hub.Lookup(userID)
	if !ok {
		return
	}
	if err := s.Hub.Push(sessionID, event); err != nil {
		log.Printf("WARNING: Live delivery to %s failed: %v", userID, err)
	}
}

// GetConversation returns the full history between a and b, oldest first.
// The requester must be one of the two and they must be connected.
func (s *Service) GetConversation(ctx context.Context, a, b, requesterID string) ([]models.Message, error) {
	if a == "" || b == "" {
		return nil, fmt.Errorf("%w: both participants are required", storage.ErrValidation)
	}
	if requesterID != a && requesterID != b {
		return nil, fmt.Errorf("%w: not a participant of this conversation", storage.ErrUnauthorized)
	}

	connected, err := s.Storage.AreConnected(ctx, a, b)
	if err != nil {
		return nil, err
	}
	if !connected {
		return nil, fmt.Errorf("%w: you can only view messages with your connections", storage.ErrUnauthorized)
	}

	return s.Storage.GetConversation(ctx, a, b)
}

// MarkRead marks everything otherID sent to readerID as read.
func (s *Service) MarkRead(ctx context.Context, readerID, otherID string) (int64, error) {
	if readerID == "" || otherID == "" {
		return 0, fmt.Errorf("%w: both participants are required", storage.ErrValidation)
	}
	return s.Storage.MarkMessagesRead(ctx, readerID, otherID)
}
