package models

import "time"

// Lock entity states.
const (
	StateLocked      = "locked"
	StateUnlocked    = "unlocked"
	StateUnavailable = "unavailable"
)

// LockEntity is a registered lock entity backed by a vendor
// {lock_id, relay_id} pair. Entity IDs use the Home Assistant
// "lock.<slug>" form.
type LockEntity struct {
	EntityID    string    `json:"entity_id"`
	EntryID     string    `json:"entry_id"`
	LockID      int       `json:"lock_id"`
	RelayID     int       `json:"relay_id"`
	Name        string    `json:"name"`
	AssignedKey *string   `json:"assigned_key,omitempty"`
	State       string    `json:"state"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IsLockDomain reports whether an entity ID belongs to the lock domain.
func IsLockDomain(entityID string) bool {
	return len(entityID) > 5 && entityID[:5] == "lock."
}
