// Package lock implements the lock entity platform: one entity per vendor
// {lock_id, relay_id} pair, with lock/unlock actions and auto-relock.
package lock

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Entity is the runtime side of one registered lock. The persisted side
// (state, assigned key) lives in the lock entity registry; the runtime
// side serializes mutations and owns the auto-relock timer.
type Entity struct {
	EntityID string
	LockID   int
	RelayID  int

	// op serializes lock/unlock against the poller refresh for this
	// entity. The poller skips entities it cannot TryLock.
	op sync.Mutex

	mu    sync.Mutex
	name  string
	state string
	timer *time.Timer
}

// Name returns the display name.
func (e *Entity) Name() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.name
}

// State returns the last known state.
func (e *Entity) State() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Entity) setName(name string) {
	e.mu.Lock()
	e.name = name
	e.mu.Unlock()
}

func (e *Entity) setState(state string) {
	e.mu.Lock()
	e.state = state
	e.mu.Unlock()
}

// armTimer schedules fn after d, replacing any pending timer.
func (e *Entity) armTimer(d time.Duration, fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.timer != nil {
		e.timer.Stop()
	}
	e.timer = time.AfterFunc(d, fn)
}

// cancelTimer stops a pending auto-relock, if any.
func (e *Entity) cancelTimer() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
}

// EntityID derives the deterministic entity ID for a vendor lock.
// Mirrors the "<lock_id>_<relay_id>" unique ID the vendor pair implies.
func EntityID(lockID, relayID int) string {
	return fmt.Sprintf("lock.ringo_%d_%d", lockID, relayID)
}

// slugify is used for display-name based aliases in logs.
func slugify(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteByte('_')
		}
	}
	return strings.Trim(b.String(), "_")
}
