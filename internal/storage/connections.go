package storage

import (
	"campusnet/backend/internal/models"
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreateConnectionRequest creates a pending request from senderID to receiverID.
// It fails with ErrConflict when the pair is already connected or a pending
// request exists between them in either direction.
func (s *Service) CreateConnectionRequest(ctx context.Context, senderID, receiverID string) (*models.ConnectionRequest, error) {
	senderID, receiverID = strings.TrimSpace(senderID), strings.TrimSpace(receiverID)
	if senderID == "" || receiverID == "" {
		return nil, fmt.Errorf("%w: missing user ids", ErrValidation)
	}
	if senderID == receiverID {
		return nil, fmt.Errorf("%w: cannot connect to yourself", ErrValidation)
	}

	req := &models.ConnectionRequest{
		SenderID:   senderID,
		ReceiverID: receiverID,
		PairKey:    models.PairKey(senderID, receiverID),
		Status:     models.ConnectionStatusPending,
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		connected, err := edgeExists(tx, req.PairKey)
		if err != nil {
			return err
		}
		if connected {
			return fmt.Errorf("%w: already connected", ErrConflict)
		}

		var pending int64
		if err := tx.Model(&models.ConnectionRequest{}).
			Where("pair_key = ? AND status = ?", req.PairKey, models.ConnectionStatusPending).
			Count(&pending).Error; err != nil {
			return dbError("count pending requests", err)
		}
		if pending > 0 {
			return fmt.Errorf("%w: connection request already exists", ErrConflict)
		}

		if err := tx.Create(req).Error; err != nil {
			// A concurrent request for the same pair won the partial unique index.
			if isDuplicate(err) {
				return fmt.Errorf("%w: connection request already exists", ErrConflict)
			}
			return dbError("create connection request", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

// AcceptConnectionRequest moves a pending request to accepted and materializes
// the edge. The status write and the edge upsert share one transaction.
func (s *Service) AcceptConnectionRequest(ctx context.Context, requestID, actingUserID string) (*models.ConnectionRequest, error) {
	return s.resolveConnectionRequest(ctx, requestID, actingUserID, models.ConnectionStatusAccepted)
}

// RejectConnectionRequest moves a pending request to rejected. No edge is touched.
func (s *Service) RejectConnectionRequest(ctx context.Context, requestID, actingUserID string) (*models.ConnectionRequest, error) {
	return s.resolveConnectionRequest(ctx, requestID, actingUserID, models.ConnectionStatusRejected)
}

func (s *Service) resolveConnectionRequest(ctx context.Context, requestID, actingUserID string, to models.ConnectionStatus) (*models.ConnectionRequest, error) {
	if strings.TrimSpace(requestID) == "" || strings.TrimSpace(actingUserID) == "" {
		return nil, fmt.Errorf("%w: missing ids", ErrValidation)
	}

	var req models.ConnectionRequest
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&req, "id = ?", requestID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: connection request", ErrNotFound)
			}
			return dbError("load connection request", err)
		}
		if req.ReceiverID != actingUserID {
			return fmt.Errorf("%w: only the receiver can %s this request", ErrUnauthorized, verbFor(to))
		}
		if req.Status.Terminal() {
			return fmt.Errorf("%w: request is already %s", ErrConflict, req.Status)
		}

		// Guarded on the current status so two concurrent resolutions cannot both succeed.
		res := tx.Model(&models.ConnectionRequest{}).
			Where("id = ? AND status = ?", req.ID, models.ConnectionStatusPending).
			Update("status", to)
		if res.Error != nil {
			return dbError("update connection request", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: request is no longer pending", ErrConflict)
		}
		req.Status = to

		if to == models.ConnectionStatusAccepted {
			if _, err := upsertEdge(tx, models.NewConnection(req.SenderID, req.ReceiverID, req.ID)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func verbFor(status models.ConnectionStatus) string {
	if status == models.ConnectionStatusAccepted {
		return "accept"
	}
	return "reject"
}

// AreConnected reports whether an edge exists between a and b. The result is
// symmetric because the edge is stored once under the canonical pair key.
func (s *Service) AreConnected(ctx context.Context, a, b string) (bool, error) {
	if a == "" || b == "" || a == b {
		return false, nil
	}
	return edgeExists(s.DB.WithContext(ctx), models.PairKey(a, b))
}

// ListPendingRequests returns pending requests addressed to userID, newest first.
func (s *Service) ListPendingRequests(ctx context.Context, userID string) ([]models.ConnectionRequest, error) {
	return s.listPending(ctx, "receiver_id = ?", userID)
}

// ListOutgoingRequests returns pending requests sent by userID, newest first.
func (s *Service) ListOutgoingRequests(ctx context.Context, userID string) ([]models.ConnectionRequest, error) {
	return s.listPending(ctx, "sender_id = ?", userID)
}

func (s *Service) listPending(ctx context.Context, cond string, userID string) ([]models.ConnectionRequest, error) {
	requests := []models.ConnectionRequest{}
	if err := s.DB.WithContext(ctx).
		Where(cond, userID).
		Where("status = ?", models.ConnectionStatusPending).
		Order("created_at desc").
		Find(&requests).Error; err != nil {
		return nil, dbError("list connection requests", err)
	}
	return requests, nil
}

// ListConnectionIDs returns the ids of every user connected to userID.
func (s *Service) ListConnectionIDs(ctx context.Context, userID string) ([]string, error) {
	var edges []models.Connection
	if err := s.DB.WithContext(ctx).
		Where("user_low_id = ? OR user_high_id = ?", userID, userID).
		Order("created_at asc").
		Find(&edges).Error; err != nil {
		return nil, dbError("list connections", err)
	}

	ids := make([]string, 0, len(edges))
	for _, e := range edges {
		ids = append(ids, e.Other(userID))
	}
	return ids, nil
}

// ImportConnections materializes edges from a connection list held by the user
// directory. Existing edges are left untouched; the number of new edges is returned.
func (s *Service) ImportConnections(ctx context.Context, userID string, peerIDs []string) (int, error) {
	if strings.TrimSpace(userID) == "" {
		return 0, fmt.Errorf("%w: missing user id", ErrValidation)
	}

	created := 0
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, peer := range peerIDs {
			peer = strings.TrimSpace(peer)
			if peer == "" || peer == userID {
				continue
			}
			n, err := upsertEdge(tx, models.NewConnection(userID, peer, ""))
			if err != nil {
				return err
			}
			created += int(n)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}

// ReconcileConnections repairs accepted requests whose edge is missing.
// It is idempotent and safe to run while requests are being accepted.
func (s *Service) ReconcileConnections(ctx context.Context) (int, error) {
	var orphans []models.ConnectionRequest
	if err := s.DB.WithContext(ctx).
		Where("status = ?", models.ConnectionStatusAccepted).
		Where("NOT EXISTS (SELECT 1 FROM connections c WHERE c.pair_key = connection_requests.pair_key)").
		Find(&orphans).Error; err != nil {
		return 0, dbError("find accepted requests without edge", err)
	}

	repaired := 0
	for _, req := range orphans {
		n, err := upsertEdge(s.DB.WithContext(ctx), models.NewConnection(req.SenderID, req.ReceiverID, req.ID))
		if err != nil {
			return repaired, err
		}
		if n > 0 {
			log.Printf("INFO: Repaired missing connection %s for request %s", req.PairKey, req.ID)
		}
		repaired += int(n)
	}
	return repaired, nil
}

func edgeExists(db *gorm.DB, pairKey string) (bool, error) {
	var count int64
	if err := db.Model(&models.Connection{}).Where("pair_key = ?", pairKey).Count(&count).Error; err != nil {
		return false, dbError("check connection", err)
	}
	return count > 0, nil
}

// upsertEdge inserts the edge unless it already exists and reports how many rows were written.
func upsertEdge(db *gorm.DB, edge models.Connection) (int64, error) {
	res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&edge)
	if res.Error != nil {
		return 0, dbError("insert connection", res.Error)
	}
	return res.RowsAffected, nil
}
