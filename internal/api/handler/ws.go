package handler

import (
	"campusnet/backend/internal/chathub"
	"campusnet/backend/internal/models"
	"campusnet/backend/internal/storage"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ServeWebSocket authenticates the caller, upgrades the connection and
// attaches it to the hub. The session becomes addressable after a join frame.
func (h *Handler) ServeWebSocket(c *gin.Context) {
	tokenString := extractToken(c.Request)
	if tokenString == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Authorization token missing"})
		return
	}
	userID, err := h.validateToken(tokenString)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid token or expired"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// The upgrader has already written the error response.
		log.Printf("WARNING: Websocket upgrade failed for %s: %v", userID, err)
		return
	}

	client := chathub.NewWebSocketClient(h.sessionCtx, conn, h.Hub, userID, h.dispatch)
	if err := h.Hub.Register(client); err != nil {
		client.Close()
		conn.Close()
		return
	}
	client.Run()
}

// dispatch runs one inbound frame and converts any failure into a message
// that is safe to send back over the socket.
func (h *Handler) dispatch(ctx context.Context, c *chathub.WebSocketClient, frame models.Frame) (models.Event, error) {
	event, err := h.handleFrame(ctx, c, frame)
	if err != nil {
		_, message := publicError(err)
		return models.Event{}, errors.New(message)
	}
	return event, nil
}

func (h *Handler) handleFrame(ctx context.Context, c *chathub.WebSocketClient, frame models.Frame) (models.Event, error) {
	switch frame.Type {
	case models.FrameJoin:
		var userID string
		if err := json.Unmarshal(frame.Payload, &userID); err != nil {
			return models.Event{}, fmt.Errorf("%w: join payload must be a user id", storage.ErrValidation)
		}
		if userID != c.GetUserID() {
			return models.Event{}, fmt.Errorf("%w: cannot join as another user", storage.ErrUnauthorized)
		}
		return models.Event{}, h.Hub.Join(userID, c.GetSessionID())

	case models.FrameSendMessage:
		var payload models.SendMessagePayload
		if err := json.Unmarshal(frame.Payload, &payload); err != nil {
			return models.Event{}, fmt.Errorf("%w: malformed sendMessage payload", storage.ErrValidation)
		}
		if payload.Sender != "" && payload.Sender != c.GetUserID() {
			return models.Event{}, fmt.Errorf("%w: cannot send as another user", storage.ErrUnauthorized)
		}
		// Delivery, including the echo to this session, happens inside SendMessage.
		_, err := h.Messages.SendMessage(ctx, c.GetUserID(), payload.Receiver, payload.Content)
		return models.Event{}, err

	default:
		return models.Event{}, fmt.Errorf("%w: unknown frame type %q", storage.ErrValidation, frame.Type)
	}
}
