package chathub

import "campusnet/backend/internal/models"

// Client is one attached live transport. The hub only ever talks to a
// transport through its send channel and Close.
type Client interface {
	// GetSessionID returns the id the hub attaches the transport under.
	GetSessionID() string
	// GetUserID returns the authenticated identity that opened the transport.
	GetUserID() string

	// GetSendChannel returns the channel the hub writes outbound events to.
	// Only the hub goroutine sends on it.
	GetSendChannel() chan<- models.Event

	Run()
	// Close stops the transport. Safe to call more than once.
	Close()
}
