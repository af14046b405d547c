package chathub

import (
	"campusnet/backend/internal/config"
	"campusnet/backend/internal/models"
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// FrameHandler processes one inbound frame for a session. A non-empty
// returned event is pushed back to the same session; a returned error is
// reported to it as an error event.
type FrameHandler func(ctx context.Context, c *WebSocketClient, frame models.Frame) (models.Event, error)

// WebSocketClient implements Client over a gorilla websocket connection.
type WebSocketClient struct {
	SessionID string
	UserID    string
	Conn      *websocket.Conn
	Hub       *ManagerService
	Send      chan models.Event
	Handle    FrameHandler

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// NewWebSocketClient wraps an upgraded connection for an authenticated user.
// ctx bounds the work done on behalf of inbound frames.
func NewWebSocketClient(ctx context.Context, conn *websocket.Conn, hub *ManagerService, userID string, handle FrameHandler) *WebSocketClient {
	ctx, cancel := context.WithCancel(ctx)
	return &WebSocketClient{
		SessionID: uuid.NewString(),
		UserID:    userID,
		Conn:      conn,
		Hub:       hub,
		Send:      make(chan models.Event, config.SendBufferSize),
		Handle:    handle,
		ctx:       ctx,
		cancel:    cancel,
	}
}

func (c *WebSocketClient) GetSessionID() string                { return c.SessionID }
func (c *WebSocketClient) GetUserID() string                   { return c.UserID }
func (c *WebSocketClient) GetSendChannel() chan<- models.Event { return c.Send }

// Run starts the pumps. The client must already be registered with the hub.
func (c *WebSocketClient) Run() {
	go c.writePump()
	go c.readPump()
}

// Close is called by the hub once the client is detached. Closing Send stops
// the write pump, which closes the connection and in turn ends the read pump.
func (c *WebSocketClient) Close() {
	c.closeOnce.Do(func() {
		c.cancel()
		close(c.Send)
	})
}

func (c *WebSocketClient) readPump() {
	defer func() {
		if err := c.Hub.Unregister(c); err != nil {
			// Hub already stopped and closed us.
			c.Close()
		}
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(config.MaxFrameSize)
	c.Conn.SetReadDeadline(time.Now().Add(config.PongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(config.PongWait))
		return nil
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				log.Printf("ERROR: Reading from session %s (user %s): %v", c.SessionID, c.UserID, err)
			}
			return
		}

		var frame models.Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			log.Printf("WARNING: Undecodable frame from user %s: %v", c.UserID, err)
			c.reply(models.ErrorEvent("malformed frame"))
			continue
		}

		if c.Handle == nil {
			continue
		}
		event, err := c.Handle(c.ctx, c, frame)
		if err != nil {
			c.reply(models.ErrorEvent(err.Error()))
			continue
		}
		if event.Type != "" {
			c.reply(event)
		}
	}
}

// reply goes through the hub so that only the hub goroutine writes to Send.
func (c *WebSocketClient) reply(event models.Event) {
	if err := c.Hub.Push(c.SessionID, event); err != nil {
		log.Printf("WARNING: Could not reply to session %s: %v", c.SessionID, err)
	}
}

func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(config.PingPeriod)

	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(config.WriteWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteJSON(event); err != nil {
				log.Printf("ERROR: Writing %s event to session %s: %v", event.Type, c.SessionID, err)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(config.WriteWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
