package models

import "encoding/json"

// Outbound live event types.
const (
	EventOnlineUsers    = "onlineUsers"
	EventReceiveMessage = "receiveMessage"
	EventError          = "error"
)

// Inbound live frame types.
const (
	FrameJoin        = "join"
	FrameSendMessage = "sendMessage"
)

// Event is what the hub writes to a live session.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// ErrorPayload is the payload of an EventError.
type ErrorPayload struct {
	Message string `json:"message"`
}

// Frame is what a live session sends to the server.
// For FrameJoin the payload is the user id as a JSON string,
// for FrameSendMessage it is a SendMessagePayload.
type Frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type SendMessagePayload struct {
	Sender   string `json:"sender"`
	Receiver string `json:"receiver"`
	Content  string `json:"content"`
}

// OnlineUsersEvent builds the roster broadcast.
func OnlineUsersEvent(ids []string) Event {
	if ids == nil {
		ids = []string{}
	}
	return Event{Type: EventOnlineUsers, Payload: ids}
}

// ReceiveMessageEvent wraps a persisted message for live delivery.
func ReceiveMessageEvent(msg Message) Event {
	return Event{Type: EventReceiveMessage, Payload: msg}
}

// ErrorEvent reports a failed inbound frame back to its sender.
func ErrorEvent(message string) Event {
	return Event{Type: EventError, Payload: ErrorPayload{Message: message}}
}
