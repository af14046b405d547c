package models

import "time"

// Domain event types published for other consumers.
const (
	DomainMessageCreated      = "message.created"
	DomainConnectionRequested = "connection.requested"
	DomainConnectionAccepted  = "connection.accepted"
)

// DomainEvent is the envelope published on the Redis event channels.
type DomainEvent struct {
	Type       string    `json:"type"`
	Data       any       `json:"data"`
	OccurredAt time.Time `json:"occurredAt"`
}

func NewDomainEvent(typ string, data any) DomainEvent {
	return DomainEvent{Type: typ, Data: data, OccurredAt: time.Now().UTC()}
}
