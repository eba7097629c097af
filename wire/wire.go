// Package wire holds the JSON messages exchanged between clients and the
// relay.
package wire

import "time"

// Client actions, sent in Request.Action.
const (
	ActionJoin = "join"
	ActionSend = "send"
)

// Relay event types, sent in Event.Type.
const (
	EventJoined    = "joined"
	EventFrame     = "frame"
	EventDelivered = "delivered"
	EventError     = "error"
)

// Frame is one chat message: a caption, the encoded match and a preview.
type Frame struct {
	ID      string    `json:"id"`
	Caption string    `json:"caption"`
	Payload string    `json:"payload"`
	Image   []byte    `json:"image,omitempty"`
	SentAt  time.Time `json:"sentAt"`
}

// Request is what a client sends to the relay.
type Request struct {
	Action       string `json:"action"`
	Conversation string `json:"conversation"`
	Frame        *Frame `json:"frame,omitempty"`
}

// Event is what the relay pushes to a client.
type Event struct {
	Type         string `json:"type"`
	Conversation string `json:"conversation,omitempty"`
	Frame        *Frame `json:"frame,omitempty"`
	// FrameID acknowledges a stored frame
	FrameID string `json:"frameId,omitempty"`
	Error   string `json:"error,omitempty"`
}
