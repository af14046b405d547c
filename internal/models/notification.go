package models

import "time"

// NotificationType classifies a Notification.
type NotificationType string

const (
	NotificationConnectionRequest NotificationType = "connection_request"
	NotificationJobMatch          NotificationType = "job_match"
	NotificationLimitReached      NotificationType = "limit_reached"
	NotificationPostLike          NotificationType = "post_like"
	NotificationPostComment       NotificationType = "post_comment"
	NotificationSystem            NotificationType = "system"
	NotificationGeneral           NotificationType = "general"
)

// Valid reports whether t is one of the known notification types.
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationConnectionRequest, NotificationJobMatch, NotificationLimitReached,
		NotificationPostLike, NotificationPostComment, NotificationSystem, NotificationGeneral:
		return true
	}
	return false
}

// Notification is a durable, recipient-scoped record of an asynchronous event.
// Recipients poll for them; they stay until the recipient clears them.
type Notification struct {
	ID uint `gorm:"primaryKey" json:"id"`

	// RecipientID is the only user allowed to read, mark or clear the notification.
	RecipientID string           `gorm:"type:text;not null;index" json:"userId"`
	Type        NotificationType `gorm:"type:text;not null" json:"type"`
	Content     string           `gorm:"type:text;not null" json:"content"`
	// RelatedID points at the entity the notification is about (a user, a request, a post).
	RelatedID string    `gorm:"type:text" json:"relatedId,omitempty"`
	Link      string    `gorm:"type:text" json:"link,omitempty"`
	IsRead    bool      `gorm:"not null;default:false" json:"isRead"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}
