package models

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ConnectionStatus is the state of a ConnectionRequest.
type ConnectionStatus string

const (
	ConnectionStatusPending  ConnectionStatus = "pending"
	ConnectionStatusAccepted ConnectionStatus = "accepted"
	ConnectionStatusRejected ConnectionStatus = "rejected"
)

// Terminal reports whether no further transition is allowed from s.
func (s ConnectionStatus) Terminal() bool {
	return s == ConnectionStatusAccepted || s == ConnectionStatusRejected
}

// ConnectionRequest is a proposal from SenderID to ReceiverID to become connected.
// Requests are never deleted; accepted and rejected ones remain as history.
type ConnectionRequest struct {
	// ID is the unique identifier of the request (UUID).
	ID string `gorm:"primaryKey" json:"id"`
	// SenderID is the user who proposed the connection.
	SenderID string `gorm:"type:text;not null;index" json:"senderId"`
	// ReceiverID is the user who may accept or reject it.
	ReceiverID string `gorm:"type:text;not null;index" json:"receiverId"`
	// PairKey is the canonical unordered pair of both users, see PairKey.
	// At most one pending request may exist per pair.
	PairKey string `gorm:"type:text;not null;index:idx_pending_pair,unique,where:status = 'pending'" json:"-"`
	// Status is pending until the receiver accepts or rejects.
	Status    ConnectionStatus `gorm:"type:text;not null;default:'pending'" json:"status"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// BeforeCreate assigns the request ID and pair key.
func (r *ConnectionRequest) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.PairKey == "" {
		r.PairKey = PairKey(r.SenderID, r.ReceiverID)
	}
	return
}

// Connection is the accepted, symmetric edge between two users.
// It is stored once per unordered pair, so both directions always agree.
type Connection struct {
	// PairKey is the canonical key of (UserLowID, UserHighID).
	PairKey string `gorm:"primaryKey" json:"-"`
	// UserLowID is the lexicographically smaller user id of the pair.
	UserLowID string `gorm:"type:text;not null;index" json:"userLowId"`
	// UserHighID is the lexicographically greater user id of the pair.
	UserHighID string `gorm:"type:text;not null;index" json:"userHighId"`
	// RequestID is the accepted request that produced the edge, empty for imported edges.
	RequestID string    `gorm:"type:text" json:"requestId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewConnection builds the canonical edge between a and b.
func NewConnection(a, b, requestID string) Connection {
	low, high := OrderedPair(a, b)
	return Connection{
		PairKey:    PairKey(a, b),
		UserLowID:  low,
		UserHighID: high,
		RequestID:  requestID,
	}
}

// Other returns the endpoint of the edge that is not userID.
func (c *Connection) Other(userID string) string {
	if c.UserLowID == userID {
		return c.UserHighID
	}
	return c.UserLowID
}

// OrderedPair returns (min(a,b), max(a,b)).
func OrderedPair(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}

// PairKey is the canonical key of the unordered pair {a, b}. The smaller id is
// length-prefixed so ids containing ':' cannot make two pairs share a key.
func PairKey(a, b string) string {
	low, high := OrderedPair(a, b)
	return strconv.Itoa(len(low)) + ":" + low + ":" + high
}
