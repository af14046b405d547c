package models

import "time"

// Message represents a saved direct message between two connected users.
// ID is assigned by the database and grows monotonically, which breaks ties
// between messages created within the same clock tick.
type Message struct {
	ID uint `gorm:"primaryKey" json:"id"`

	// SenderID is the user who wrote the message.
	SenderID string `gorm:"type:text;not null;index:idx_conversation" json:"sender"`
	// ReceiverID is the user the message is addressed to.
	ReceiverID string `gorm:"type:text;not null;index:idx_conversation" json:"receiver"`
	// Content is the message text.
	Content string `gorm:"type:text;not null" json:"content"`
	// IsRead is flipped to true once the receiver marks the conversation as read.
	IsRead    bool      `gorm:"not null;default:false" json:"isRead"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}
