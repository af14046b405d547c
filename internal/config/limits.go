package config

import "time"

const (
	// Messaging
	MaxMessageLength = 4000 // runes

	// Live transport
	WriteWait       = 10 * time.Second
	PongWait        = 60 * time.Second
	PingPeriod      = (PongWait * 9) / 10
	MaxFrameSize    = 4*MaxMessageLength + 1024 // bytes; a full message of 4-byte runes plus the envelope
	SendBufferSize  = 256
	ReadBufferSize  = 1024
	WriteBufferSize = 1024

	// Connections
	DefaultReconcileInterval = 5 * time.Minute
)

// Redis channels for domain events.
const (
	MessageEventsChannel    = "campusnet:events:messages"
	ConnectionEventsChannel = "campusnet:events:connections"
)
