package websocket

import (
	"encoding/json"
	"time"
)

// MessageType identifies the type of WebSocket message.
type MessageType string

const (
	// Server -> Client event types
	TypeLockStateChanged MessageType = "lock.state_changed"
	TypeKeyCreated       MessageType = "key.created"
	TypeKeyUpdated       MessageType = "key.updated"
	TypeKeyDeleted       MessageType = "key.deleted"
	TypeKeyAssigned      MessageType = "key.assigned"
	TypeEntryCreated     MessageType = "entry.created"
	TypeServiceResult    MessageType = "service.result"
	TypeNotification     MessageType = "notification"

	// Client -> Server command types
	TypePing MessageType = "ping"

	// Server -> Client response types
	TypePong  MessageType = "pong"
	TypeError MessageType = "error"
)

// Message represents a WebSocket message envelope.
type Message struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   any         `json:"payload"`
}

// NewMessage creates a new message with the current timestamp.
func NewMessage(msgType MessageType, payload any) Message {
	return Message{
		Type:      msgType,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// JSON serializes the message to JSON bytes.
func (m Message) JSON() ([]byte, error) {
	return json.Marshal(m)
}

// LockStatePayload is the payload for lock.state_changed events.
type LockStatePayload struct {
	EntityID string `json:"entity_id"`
	LockID   int    `json:"lock_id"`
	RelayID  int    `json:"relay_id"`
	State    string `json:"state"`
}

// KeyEventPayload is the payload for key.created/updated/deleted events.
type KeyEventPayload struct {
	DigitalKey string `json:"digital_key"`
	Name       string `json:"name,omitempty"`
}

// KeyAssignedPayload is the payload for key.assigned events.
type KeyAssignedPayload struct {
	EntityID   string `json:"entity_id"`
	DigitalKey string `json:"digital_key"`
}

// EntryPayload is the payload for entry.created events.
type EntryPayload struct {
	EntryID string `json:"entry_id"`
	Title   string `json:"title"`
	Host    string `json:"host"`
	Locks   int    `json:"locks"`
}

// ServiceResultPayload is the payload for service.result events. Count
// carries the result size for list services so the frontend can show
// summary counters.
type ServiceResultPayload struct {
	Service string `json:"service"`
	Success bool   `json:"success"`
	Count   *int   `json:"count,omitempty"`
	Error   string `json:"error,omitempty"`
}

// NotificationPayload is the payload for notification events.
type NotificationPayload struct {
	Level       string `json:"level"` // info, warning, error, success
	Title       string `json:"title"`
	Message     string `json:"message"`
	Dismissible bool   `json:"dismissible"`
}
