package chathub_test

import (
	"campusnet/backend/internal/models"
	"sync/atomic"
)

type MockClient struct {
	sessionID   string
	userID      string
	RecvChannel chan models.Event
	closed      atomic.Bool
}

func newMockClient(sessionID string) *MockClient {
	return newMockClientWithBuffer(sessionID, 64)
}

// A zero buffer models a transport that never drains.
func newMockClientWithBuffer(sessionID string, size int) *MockClient {
	return &MockClient{
		sessionID:   sessionID,
		userID:      "user-of-" + sessionID,
		RecvChannel: make(chan models.Event, size),
	}
}

func (c *MockClient) GetSessionID() string                { return c.sessionID }
func (c *MockClient) GetUserID() string                   { return c.userID }
func (c *MockClient) GetSendChannel() chan<- models.Event { return c.RecvChannel }
func (c *MockClient) Run()                                {}
func (c *MockClient) Close()                              { c.closed.Store(true) }
func (c *MockClient) IsClosed() bool                      { return c.closed.Load() }

// drain returns every event buffered so far.
func (c *MockClient) drain() []models.Event {
	var events []models.Event
	for {
		select {
		case ev := <-c.RecvChannel:
			events = append(events, ev)
		default:
			return events
		}
	}
}

// lastRoster returns the payload of the most recent onlineUsers event, and
// whether one was received at all.
func (c *MockClient) lastRoster() ([]string, bool) {
	var roster []string
	found := false
	for _, ev := range c.drain() {
		if ev.Type == models.EventOnlineUsers {
			roster = ev.Payload.([]string)
			found = true
		}
	}
	return roster, found
}
