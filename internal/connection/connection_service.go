// Package connection runs the connection request workflow: request, accept,
// reject, and the notifications and events that go with them.
package connection

import (
	"campusnet/backend/internal/config"
	"campusnet/backend/internal/localization"
	"campusnet/backend/internal/models"
	"campusnet/backend/internal/storage"
	"context"
	"errors"
	"log"
)

// PendingRequest is an incoming request together with its sender's profile.
type PendingRequest struct {
	models.ConnectionRequest
	Sender models.Profile `json:"sender"`
}

// Service handles the business logic for connection requests.
type Service struct {
	Storage   storage.Storage
	Localizer *localization.Localizer
	Language  string
}

func NewService(s storage.Storage, l *localization.Localizer, lang string) *Service {
	if lang == "" {
		lang = localization.DefaultLanguage
	}
	return &Service{Storage: s, Localizer: l, Language: lang}
}

// Request sends a connection request and notifies the receiver. The request
// is durable before the notification is attempted, so a notification failure
// is only logged.
func (s *Service) Request(ctx context.Context, senderID, receiverID string) (*models.ConnectionRequest, error) {
	req, err := s.Storage.CreateConnectionRequest(ctx, senderID, receiverID)
	if err != nil {
		return nil, err
	}

	s.notify(ctx, &models.Notification{
		RecipientID: req.ReceiverID,
		Type:        models.NotificationConnectionRequest,
		Content:     s.Localizer.Format(s.Language, localization.KeyConnectionRequest, s.displayName(ctx, req.SenderID)),
		RelatedID:   req.SenderID,
		Link:        profileLink(req.SenderID),
	})
	s.publish(ctx, models.DomainConnectionRequested, req)

	return req, nil
}

// Accept accepts a pending request addressed to actingUserID and tells the
// original sender about it.
func (s *Service) Accept(ctx context.Context, requestID, actingUserID string) (*models.ConnectionRequest, error) {
	req, err := s.Storage.AcceptConnectionRequest(ctx, requestID, actingUserID)
	if err != nil {
		return nil, err
	}

	s.notify(ctx, &models.Notification{
		RecipientID: req.SenderID,
		Type:        models.NotificationSystem,
		Content:     s.Localizer.Format(s.Language, localization.KeyConnectionAccepted, s.displayName(ctx, req.ReceiverID)),
		RelatedID:   req.ReceiverID,
		Link:        profileLink(req.ReceiverID),
	})
	s.publish(ctx, models.DomainConnectionAccepted, req)

	return req, nil
}

// Reject rejects a pending request addressed to actingUserID. The sender is not notified.
func (s *Service) Reject(ctx context.Context, requestID, actingUserID string) (*models.ConnectionRequest, error) {
	return s.Storage.RejectConnectionRequest(ctx, requestID, actingUserID)
}

// ListPending returns the requests waiting on userID, newest first, with the
// sender's profile attached.
func (s *Service) ListPending(ctx context.Context, userID string) ([]PendingRequest, error) {
	requests, err := s.Storage.ListPendingRequests(ctx, userID)
	if err != nil {
		return nil, err
	}

	senderIDs := make([]string, 0, len(requests))
	for _, r := range requests {
		senderIDs = append(senderIDs, r.SenderID)
	}
	users, err := s.Storage.GetUsers(ctx, senderIDs)
	if err != nil {
		return nil, err
	}

	out := make([]PendingRequest, 0, len(requests))
	for _, r := range requests {
		out = append(out, PendingRequest{ConnectionRequest: r, Sender: profileOf(users, r.SenderID)})
	}
	return out, nil
}

// ListOutgoing returns the pending requests userID has sent.
func (s *Service) ListOutgoing(ctx context.Context, userID string) ([]models.ConnectionRequest, error) {
	return s.Storage.ListOutgoingRequests(ctx, userID)
}

// Connections returns the profiles of everyone userID is connected to.
// Ids unknown to the directory come back as a bare {id}.
func (s *Service) Connections(ctx context.Context, userID string) ([]models.Profile, error) {
	ids, err := s.Storage.ListConnectionIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	users, err := s.Storage.GetUsers(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]models.Profile, 0, len(ids))
	for _, id := range ids {
		out = append(out, profileOf(users, id))
	}
	return out, nil
}

func (s *Service) notify(ctx context.Context, n *models.Notification) {
	if err := s.Storage.SaveNotification(ctx, n); err != nil {
		log.Printf("ERROR: Failed to save %s notification for %s: %v", n.Type, n.RecipientID, err)
	}
}

func (s *Service) publish(ctx context.Context, typ string, req *models.ConnectionRequest) {
	_ = s.Storage.PublishEvent(ctx, config.ConnectionEventsChannel, models.NewDomainEvent(typ, req))
}

func (s *Service) displayName(ctx context.Context, userID string) string {
	user, err := s.Storage.GetUser(ctx, userID)
	if err == nil && user.Name != "" {
		return user.Name
	}
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		log.Printf("WARNING: Could not resolve name of %s: %v", userID, err)
	}
	return s.Localizer.GetString(s.Language, localization.KeyUnknownSender)
}

func profileOf(users map[string]models.User, id string) models.Profile {
	if u, ok := users[id]; ok {
		return u.Profile()
	}
	return models.Profile{ID: id}
}

func profileLink(userID string) string {
	return "/profile/" + userID
}
