// Package bridge wires config entries to their runtime: one vendor client,
// lock platform and service dispatcher per configured Ringo account.
package bridge

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ringo-bridge/backend/internal/lock"
	"github.com/ringo-bridge/backend/internal/ringo"
	"github.com/ringo-bridge/backend/internal/service"
	"github.com/ringo-bridge/backend/internal/storage"
	"github.com/ringo-bridge/backend/internal/storage/models"
	"github.com/ringo-bridge/backend/internal/websocket"
)

// Runtime is the live machinery behind one config entry.
type Runtime struct {
	Entry      *models.ConfigEntry
	Client     *ringo.Client
	Platform   *lock.Platform
	Dispatcher *service.Dispatcher
}

// Bridge owns all entry runtimes and routes entity actions and service
// calls to them.
type Bridge struct {
	entries      *storage.EntryRepository
	lockEntities *storage.LockEntityRepository
	serviceLog   *storage.ServiceLogRepository
	events       *websocket.EventBroadcaster
	poller       *lock.Poller
	log          zerolog.Logger

	mu       sync.RWMutex
	runtimes []*Runtime
}

// New creates a bridge over the given repositories.
func New(
	entries *storage.EntryRepository,
	lockEntities *storage.LockEntityRepository,
	serviceLog *storage.ServiceLogRepository,
	events *websocket.EventBroadcaster,
	poller *lock.Poller,
	log zerolog.Logger,
) *Bridge {
	return &Bridge{
		entries:      entries,
		lockEntities: lockEntities,
		serviceLog:   serviceLog,
		events:       events,
		poller:       poller,
		log:          log.With().Str("component", "bridge").Logger(),
	}
}

// LoadEntries boots a runtime for every stored config entry. Entries that
// fail to start are logged and skipped; the bridge stays up.
func (b *Bridge) LoadEntries(ctx context.Context) error {
	stored, err := b.entries.List(ctx)
	if err != nil {
		return fmt.Errorf("listing config entries: %w", err)
	}

	for i := range stored {
		entry := stored[i]
		if _, err := b.StartEntry(ctx, &entry); err != nil {
			b.log.Warn().Err(err).Str("entry_id", entry.ID).Str("host", entry.Host).
				Msg("config entry not ready, skipping")
		}
	}
	return nil
}

// StartEntry builds and registers the runtime for one config entry:
// vendor client, lock platform (with discovery) and service dispatcher.
func (b *Bridge) StartEntry(ctx context.Context, entry *models.ConfigEntry) (*Runtime, error) {
	cfg := ringo.Config{
		BaseURL: entry.Host,
		Client:  entry.Client,
		Secret:  entry.Secret,
		Timeout: 10 * time.Second,
	}
	client := ringo.New(cfg, b.log)

	if err := client.Authenticate(ctx); err != nil {
		return nil, fmt.Errorf("authenticating entry %s: %w", entry.ID, err)
	}

	platform := lock.NewPlatform(client, b.lockEntities, b.events, entry.ID, entry.AutoLockTime, b.log)
	locks, err := platform.Setup(ctx)
	if err != nil {
		return nil, fmt.Errorf("setting up lock platform: %w", err)
	}

	runtime := &Runtime{
		Entry:      entry,
		Client:     client,
		Platform:   platform,
		Dispatcher: service.NewDispatcher(client, b.lockEntities, b.serviceLog, b.events, b.log),
	}

	b.mu.Lock()
	b.runtimes = append(b.runtimes, runtime)
	b.mu.Unlock()

	if b.poller != nil {
		b.poller.Add(platform)
	}
	if b.events != nil {
		b.events.BroadcastEntryCreated(entry.ID, entry.Title, entry.Host, locks)
	}

	b.log.Info().Str("entry_id", entry.ID).Int("locks", locks).Msg("config entry ready")
	return runtime, nil
}

// Runtimes returns a snapshot of all live runtimes.
func (b *Bridge) Runtimes() []*Runtime {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]*Runtime, len(b.runtimes))
	copy(out, b.runtimes)
	return out
}

// primary returns the first configured runtime. Account-wide services
// assume a single configured account.
func (b *Bridge) primary() (*Runtime, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if len(b.runtimes) == 0 {
		return nil, fmt.Errorf("%w: no config entry is set up", ringo.ErrNotFound)
	}
	return b.runtimes[0], nil
}

// Dispatch routes a service call to the primary runtime's dispatcher.
func (b *Bridge) Dispatch(ctx context.Context, name string, args map[string]any) (any, error) {
	runtime, err := b.primary()
	if err != nil {
		return nil, err
	}
	return runtime.Dispatcher.Call(ctx, name, args)
}

// Dispatcher exposes the primary runtime's dispatcher, for schema queries.
func (b *Bridge) Dispatcher() (*service.Dispatcher, error) {
	runtime, err := b.primary()
	if err != nil {
		return nil, err
	}
	return runtime.Dispatcher, nil
}

// Unlock opens a lock entity on whichever runtime owns it.
func (b *Bridge) Unlock(ctx context.Context, entityID string) error {
	platform, err := b.platformFor(entityID)
	if err != nil {
		return err
	}
	return platform.Unlock(ctx, entityID)
}

// Lock relocks a lock entity on whichever runtime owns it.
func (b *Bridge) Lock(ctx context.Context, entityID string) error {
	platform, err := b.platformFor(entityID)
	if err != nil {
		return err
	}
	return platform.Lock(ctx, entityID)
}

func (b *Bridge) platformFor(entityID string) (*lock.Platform, error) {
	for _, runtime := range b.Runtimes() {
		if _, ok := runtime.Platform.Get(entityID); ok {
			return runtime.Platform, nil
		}
	}
	return nil, fmt.Errorf("%w: unknown lock entity %q", ringo.ErrNotFound, entityID)
}

// Shutdown stops all platforms.
func (b *Bridge) Shutdown() {
	for _, runtime := range b.Runtimes() {
		runtime.Platform.Shutdown()
	}
}
