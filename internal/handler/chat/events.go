package chat

import (
	"encoding/json"
	"time"
)

// Event is the envelope for every frame exchanged over the session channel.
type Event struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// Wire event names, client-facing.
const (
	eventConnected    = "connected"
	eventMessage      = "message"
	eventTyping       = "typing"
	eventMessageStart = "message_start"
	eventMessageChunk = "message_chunk"
	eventMessageEnd   = "message_end"
	eventError        = "error"
)

type inboundEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type sendMessagePayload struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
	Mode      string `json:"mode,omitempty"`
	ProfileID string `json:"profile_id,omitempty"`
}

type connectedPayload struct {
	SessionID string `json:"session_id"`
}

type messagePayload struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type typingPayload struct {
	Typing bool `json:"typing"`
}

type messageStartPayload struct {
	Role      string    `json:"role"`
	Timestamp time.Time `json:"timestamp"`
}

type chunkPayload struct {
	Content string `json:"content"`
}

type errorPayload struct {
	Message string `json:"message"`
}
