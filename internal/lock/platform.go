package lock

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ringo-bridge/backend/internal/ringo"
	"github.com/ringo-bridge/backend/internal/storage"
	"github.com/ringo-bridge/backend/internal/storage/models"
	"github.com/ringo-bridge/backend/internal/websocket"
)

// vendorAPI is the slice of the Ringo client the platform needs.
type vendorAPI interface {
	ListLocks(ctx context.Context) ([]ringo.Lock, error)
	ListKeys(ctx context.Context) ([]ringo.DigitalKey, error)
	OpenDoor(ctx context.Context, lockID, relayID int, digitalKey string) error
}

// Platform manages the lock entities for one config entry.
type Platform struct {
	api      vendorAPI
	entities *storage.LockEntityRepository
	events   *websocket.EventBroadcaster
	log      zerolog.Logger

	entryID  string
	autoLock time.Duration

	mu      sync.RWMutex
	byID    map[string]*Entity
}

// NewPlatform creates a lock platform for the given config entry.
// autoLockSeconds bounds follow the config entry option; out-of-range
// values fall back to the default.
func NewPlatform(
	api vendorAPI,
	entities *storage.LockEntityRepository,
	events *websocket.EventBroadcaster,
	entryID string,
	autoLockSeconds int,
	log zerolog.Logger,
) *Platform {
	if autoLockSeconds < models.MinAutoLockTime || autoLockSeconds > models.MaxAutoLockTime {
		autoLockSeconds = models.DefaultAutoLockTime
	}

	return &Platform{
		api:      api,
		entities: entities,
		events:   events,
		log:      log.With().Str("component", "lock").Logger(),
		entryID:  entryID,
		autoLock: time.Duration(autoLockSeconds) * time.Second,
		byID:     make(map[string]*Entity),
	}
}

// Setup discovers the account's locks and registers one entity per
// {lock_id, relay_id} pair. Existing registrations keep their assigned
// key and last state; names are refreshed from the vendor.
func (p *Platform) Setup(ctx context.Context) (int, error) {
	locks, err := p.api.ListLocks(ctx)
	if err != nil {
		return 0, fmt.Errorf("discovering locks: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for _, l := range locks {
		entityID := EntityID(l.LockID, l.RelayID)

		record := &models.LockEntity{
			EntityID: entityID,
			EntryID:  p.entryID,
			LockID:   l.LockID,
			RelayID:  l.RelayID,
			Name:     l.Name,
			State:    models.StateLocked,
		}
		if err := p.entities.Upsert(ctx, record); err != nil {
			return 0, err
		}

		entity, ok := p.byID[entityID]
		if !ok {
			entity = &Entity{
				EntityID: entityID,
				LockID:   l.LockID,
				RelayID:  l.RelayID,
			}
			p.byID[entityID] = entity
		}
		entity.setName(l.Name)

		stored, err := p.entities.GetByEntityID(ctx, entityID)
		if err == nil && stored != nil {
			entity.setState(stored.State)
		}

		p.log.Debug().
			Str("entity_id", entityID).
			Str("alias", slugify(l.Name)).
			Int("lock_id", l.LockID).
			Int("relay_id", l.RelayID).
			Msg("registered lock entity")
	}

	p.log.Info().Int("locks", len(locks)).Msg("lock platform ready")
	return len(locks), nil
}

// Get returns the runtime entity for an entity ID.
func (p *Platform) Get(entityID string) (*Entity, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	entity, ok := p.byID[entityID]
	return entity, ok
}

// List returns all runtime entities, ordered by entity ID.
func (p *Platform) List() []*Entity {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]*Entity, 0, len(p.byID))
	for _, e := range p.byID {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EntityID < out[j].EntityID })
	return out
}

// Unlock opens the lock using its assigned digital key, or the first
// currently valid key covering it. On success the state flips to unlocked
// and the auto-relock timer is armed.
func (p *Platform) Unlock(ctx context.Context, entityID string) error {
	entity, ok := p.Get(entityID)
	if !ok {
		return fmt.Errorf("%w: unknown lock entity %q", ringo.ErrNotFound, entityID)
	}

	entity.op.Lock()
	defer entity.op.Unlock()

	key, err := p.selectKey(ctx, entity)
	if err != nil {
		return err
	}

	if err := p.api.OpenDoor(ctx, entity.LockID, entity.RelayID, key); err != nil {
		if errors.Is(err, ringo.ErrConnectivity) {
			p.transition(ctx, entity, models.StateUnavailable)
		}
		return err
	}

	p.transition(ctx, entity, models.StateUnlocked)

	entity.armTimer(p.autoLock, func() {
		p.autoRelock(entity)
	})
	return nil
}

// Lock marks the lock locked and cancels any pending auto-relock. The
// vendor controller relatches on its own; there is no close call to send.
func (p *Platform) Lock(ctx context.Context, entityID string) error {
	entity, ok := p.Get(entityID)
	if !ok {
		return fmt.Errorf("%w: unknown lock entity %q", ringo.ErrNotFound, entityID)
	}

	entity.op.Lock()
	defer entity.op.Unlock()

	entity.cancelTimer()
	p.transition(ctx, entity, models.StateLocked)
	return nil
}

// autoRelock is the auto-lock timer callback.
func (p *Platform) autoRelock(entity *Entity) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	p.log.Debug().Str("entity_id", entity.EntityID).Msg("auto-relock")
	p.transition(ctx, entity, models.StateLocked)
}

// selectKey picks the digital key to open with: the assigned key when it
// is still usable, otherwise the first valid key covering this lock.
func (p *Platform) selectKey(ctx context.Context, entity *Entity) (string, error) {
	keys, err := p.api.ListKeys(ctx)
	if err != nil {
		return "", err
	}

	var assigned string
	if stored, err := p.entities.GetByEntityID(ctx, entity.EntityID); err == nil && stored != nil && stored.AssignedKey != nil {
		assigned = *stored.AssignedKey
	}

	var fallback string
	for _, key := range keys {
		if !key.Usable() || !key.Opens(entity.LockID, entity.RelayID) {
			continue
		}
		if key.DigitalKey == assigned {
			return assigned, nil
		}
		if fallback == "" {
			fallback = key.DigitalKey
		}
	}

	if fallback == "" {
		return "", fmt.Errorf("%w: no valid digital key for %s", ringo.ErrNotFound, entity.EntityID)
	}
	return fallback, nil
}

// Refresh re-checks vendor reachability and refreshes entity names.
// Entities with a mutation in flight are skipped, never blocked on.
func (p *Platform) Refresh(ctx context.Context) {
	locks, err := p.api.ListLocks(ctx)

	byPair := make(map[string]ringo.Lock, len(locks))
	for _, l := range locks {
		byPair[EntityID(l.LockID, l.RelayID)] = l
	}

	for _, entity := range p.List() {
		if !entity.op.TryLock() {
			continue
		}

		switch {
		case err != nil:
			p.transition(ctx, entity, models.StateUnavailable)
		default:
			if l, ok := byPair[entity.EntityID]; ok && l.Name != "" {
				entity.setName(l.Name)
			}
			// Reachable again: an unavailable lock reports locked until
			// the next action says otherwise.
			if entity.State() == models.StateUnavailable {
				p.transition(ctx, entity, models.StateLocked)
			}
		}

		entity.op.Unlock()
	}

	if err != nil {
		p.log.Warn().Err(err).Msg("state refresh failed, entities unavailable")
	}
}

// Shutdown cancels all pending auto-relock timers.
func (p *Platform) Shutdown() {
	for _, entity := range p.List() {
		entity.cancelTimer()
	}
}

// transition stores and broadcasts a state change. No-op when the state
// is unchanged.
func (p *Platform) transition(ctx context.Context, entity *Entity, state string) {
	if entity.State() == state {
		return
	}
	entity.setState(state)

	if err := p.entities.UpdateState(ctx, entity.EntityID, state); err != nil {
		p.log.Error().Err(err).Str("entity_id", entity.EntityID).Msg("persisting lock state")
	}
	if p.events != nil {
		p.events.BroadcastLockStateChanged(entity.EntityID, entity.LockID, entity.RelayID, state)
	}
}
