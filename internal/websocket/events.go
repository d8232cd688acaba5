package websocket

import (
	"github.com/rs/zerolog/log"
)

// EventBroadcaster handles broadcasting WebSocket events.
type EventBroadcaster struct {
	hub *Hub
}

// NewEventBroadcaster creates a new event broadcaster.
func NewEventBroadcaster(hub *Hub) *EventBroadcaster {
	return &EventBroadcaster{hub: hub}
}

// BroadcastLockStateChanged sends a lock state change event.
func (b *EventBroadcaster) BroadcastLockStateChanged(entityID string, lockID, relayID int, state string) {
	payload := LockStatePayload{
		EntityID: entityID,
		LockID:   lockID,
		RelayID:  relayID,
		State:    state,
	}

	b.broadcast(NewMessage(TypeLockStateChanged, payload))
}

// BroadcastKeyEvent sends a key lifecycle event (created/updated/deleted).
func (b *EventBroadcaster) BroadcastKeyEvent(msgType MessageType, digitalKey, name string) {
	payload := KeyEventPayload{
		DigitalKey: digitalKey,
		Name:       name,
	}

	b.broadcast(NewMessage(msgType, payload))
}

// BroadcastKeyAssigned sends a key.assigned event.
func (b *EventBroadcaster) BroadcastKeyAssigned(entityID, digitalKey string) {
	payload := KeyAssignedPayload{
		EntityID:   entityID,
		DigitalKey: digitalKey,
	}

	b.broadcast(NewMessage(TypeKeyAssigned, payload))
}

// BroadcastEntryCreated sends an entry.created event after a completed
// setup flow.
func (b *EventBroadcaster) BroadcastEntryCreated(entryID, title, host string, locks int) {
	payload := EntryPayload{
		EntryID: entryID,
		Title:   title,
		Host:    host,
		Locks:   locks,
	}

	b.broadcast(NewMessage(TypeEntryCreated, payload))
}

// BroadcastServiceResult sends a service.result summary event.
func (b *EventBroadcaster) BroadcastServiceResult(service string, success bool, count *int, errMsg string) {
	payload := ServiceResultPayload{
		Service: service,
		Success: success,
		Count:   count,
		Error:   errMsg,
	}

	b.broadcast(NewMessage(TypeServiceResult, payload))
}

// BroadcastNotification sends a notification to all connected clients.
func (b *EventBroadcaster) BroadcastNotification(level, title, message string) {
	payload := NotificationPayload{
		Level:       level,
		Title:       title,
		Message:     message,
		Dismissible: true,
	}

	b.broadcast(NewMessage(TypeNotification, payload))
}

// broadcast sends a message to all connected clients.
func (b *EventBroadcaster) broadcast(msg Message) {
	data, err := msg.JSON()
	if err != nil {
		log.Error().Err(err).Msg("encoding websocket message")
		return
	}

	b.hub.Broadcast(data)
}
