package chathub

import (
	"campusnet/backend/internal/models"
	"campusnet/backend/internal/storage"
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
)

var (
	ErrUnknownSession = errors.New("unknown session")
	ErrSessionGone    = errors.New("session gone")
	ErrHubStopped     = errors.New("hub stopped")
)

type joinRequest struct {
	userID    string
	sessionID string
	reply     chan error
}

type leaveRequest struct {
	sessionID string
	reply     chan error
}

type lookupResult struct {
	sessionID string
	ok        bool
}

type lookupRequest struct {
	userID string
	reply  chan lookupResult
}

type pushRequest struct {
	sessionID string
	event     models.Event
	reply     chan error
}

// ManagerService is the presence registry. A single goroutine (Run) owns
// every map below; everything else talks to it over channels.
type ManagerService struct {
	clients  map[string]Client // sessionID -> transport
	users    map[string]string // userID -> sessionID
	sessions map[string]string // sessionID -> userID

	// Channels
	RegisterCh   chan Client
	UnregisterCh chan Client

	joinCh   chan joinRequest
	leaveCh  chan leaveRequest
	lookupCh chan lookupRequest
	pushCh   chan pushRequest
	onlineCh chan chan []string

	done     chan struct{}
	stopOnce sync.Once
}

func NewManagerService() *ManagerService {
	return &ManagerService{
		clients:      make(map[string]Client),
		users:        make(map[string]string),
		sessions:     make(map[string]string),
		RegisterCh:   make(chan Client),
		UnregisterCh: make(chan Client),
		joinCh:       make(chan joinRequest),
		leaveCh:      make(chan leaveRequest),
		lookupCh:     make(chan lookupRequest),
		pushCh:       make(chan pushRequest),
		onlineCh:     make(chan chan []string),
		done:         make(chan struct{}),
	}
}

// Run owns the registry until ctx is cancelled. On return every transport
// is closed and all further calls fail with ErrHubStopped.
func (m *ManagerService) Run(ctx context.Context) {
	defer m.stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("INFO: Presence hub stopping, closing %d sessions", len(m.clients))
			return

		case client := <-m.RegisterCh:
			m.clients[client.GetSessionID()] = client

		case client := <-m.UnregisterCh:
			m.detach(client.GetSessionID())

		case req := <-m.joinCh:
			req.reply <- m.join(req.userID, req.sessionID)

		case req := <-m.leaveCh:
			m.leave(req.sessionID)
			req.reply <- nil

		case req := <-m.lookupCh:
			sessionID, ok := m.users[req.userID]
			req.reply <- lookupResult{sessionID: sessionID, ok: ok}

		case req := <-m.pushCh:
			req.reply <- m.push(req.sessionID, req.event)

		case reply := <-m.onlineCh:
			reply <- m.onlineIDs()
		}
	}
}

func (m *ManagerService) stop() {
	m.stopOnce.Do(func() {
		close(m.done)
		for id, client := range m.clients {
			client.Close()
			delete(m.clients, id)
		}
		clear(m.users)
		clear(m.sessions)
	})
}

// Register attaches a transport. It receives roster broadcasts from now on,
// but is not reachable for a user until it joins.
func (m *ManagerService) Register(client Client) error {
	select {
	case m.RegisterCh <- client:
		return nil
	case <-m.done:
		return ErrHubStopped
	}
}

// Unregister detaches a failed or disconnected transport and drops its
// presence entry.
func (m *ManagerService) Unregister(client Client) error {
	select {
	case m.UnregisterCh <- client:
		return nil
	case <-m.done:
		return ErrHubStopped
	}
}

// Join binds userID to an attached session. A newer session for the same
// user replaces the older one.
func (m *ManagerService) Join(userID, sessionID string) error {
	req := joinRequest{userID: userID, sessionID: sessionID, reply: make(chan error, 1)}
	select {
	case m.joinCh <- req:
	case <-m.done:
		return ErrHubStopped
	}
	return <-req.reply
}

// Leave unbinds whatever user the session was joined as. Unknown sessions are ignored.
func (m *ManagerService) Leave(sessionID string) error {
	req := leaveRequest{sessionID: sessionID, reply: make(chan error, 1)}
	select {
	case m.leaveCh <- req:
	case <-m.done:
		return ErrHubStopped
	}
	return <-req.reply
}

// Lookup returns the live session of a user, if any.
func (m *ManagerService) Lookup(userID string) (string, bool) {
	req := lookupRequest{userID: userID, reply: make(chan lookupResult, 1)}
	select {
	case m.lookupCh <- req:
	case <-m.done:
		return "", false
	}
	res := <-req.reply
	return res.sessionID, res.ok
}

// Push enqueues an event on a session without blocking. A session whose
// buffer is full is dropped.
func (m *ManagerService) Push(sessionID string, event models.Event) error {
	req := pushRequest{sessionID: sessionID, event: event, reply: make(chan error, 1)}
	select {
	case m.pushCh <- req:
	case <-m.done:
		return ErrHubStopped
	}
	return <-req.reply
}

// Online returns the sorted ids of every joined user. Nil once the hub has stopped.
func (m *ManagerService) Online() []string {
	reply := make(chan []string, 1)
	select {
	case m.onlineCh <- reply:
	case <-m.done:
		return nil
	}
	return <-reply
}

// --- loop-side operations, only called from Run ---

func (m *ManagerService) join(userID, sessionID string) error {
	if userID == "" {
		return fmt.Errorf("%w: user id is required", storage.ErrValidation)
	}
	if _, ok := m.clients[sessionID]; !ok {
		return ErrUnknownSession
	}

	if prev, ok := m.users[userID]; ok && prev != sessionID {
		// The evicted session stays attached but is no longer addressable.
		delete(m.sessions, prev)
	}
	if prevUser, ok := m.sessions[sessionID]; ok && prevUser != userID {
		delete(m.users, prevUser)
	}
	m.users[userID] = sessionID
	m.sessions[sessionID] = userID

	m.broadcastOnline()
	return nil
}

func (m *ManagerService) leave(sessionID string) {
	userID, ok := m.sessions[sessionID]
	if !ok {
		return
	}
	delete(m.sessions, sessionID)
	if m.users[userID] == sessionID {
		delete(m.users, userID)
	}
	m.broadcastOnline()
}

func (m *ManagerService) detach(sessionID string) {
	client, ok := m.clients[sessionID]
	if !ok {
		return
	}
	delete(m.clients, sessionID)
	client.Close()
	m.leave(sessionID)
}

func (m *ManagerService) push(sessionID string, event models.Event) error {
	client, ok := m.clients[sessionID]
	if !ok {
		return ErrSessionGone
	}
	select {
	case client.GetSendChannel() <- event:
		return nil
	default:
		log.Printf("WARNING: Session %s (user %s) is not draining its buffer, dropping it", sessionID, client.GetUserID())
		m.detach(sessionID)
		return ErrSessionGone
	}
}
