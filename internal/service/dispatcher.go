package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/ringo-bridge/backend/internal/ringo"
	"github.com/ringo-bridge/backend/internal/storage"
	"github.com/ringo-bridge/backend/internal/storage/models"
	"github.com/ringo-bridge/backend/internal/websocket"
)

// API is the narrow vendor client surface the dispatcher needs.
// *ringo.Client satisfies it; tests substitute a stub.
type API interface {
	ListLocks(ctx context.Context) ([]ringo.Lock, error)
	ListKeys(ctx context.Context) ([]ringo.DigitalKey, error)
	ListUsers(ctx context.Context) ([]ringo.User, error)
	CreateKey(ctx context.Context, spec ringo.KeySpec) (*ringo.DigitalKey, error)
	UpdateKey(ctx context.Context, digitalKey string, spec ringo.KeySpec) (*ringo.DigitalKey, error)
	DeleteKey(ctx context.Context, digitalKey string) error
	GetKeyStatus(ctx context.Context, digitalKey string) (*ringo.KeyStatus, error)
	OpenDoorByPin(ctx context.Context, lockID, relayID int, pin string, open bool) error
}

// handler executes one validated service call.
type handler func(ctx context.Context, args map[string]any) (any, error)

// definition binds a service's declared schema to its handler.
type definition struct {
	schema  Schema
	handler handler
}

// Dispatcher validates and executes service calls against the vendor API.
type Dispatcher struct {
	api      API
	entities *storage.LockEntityRepository
	audit    *storage.ServiceLogRepository
	events   *websocket.EventBroadcaster
	log      zerolog.Logger

	defs map[string]definition
}

// NewDispatcher creates a dispatcher with the full service registry.
func NewDispatcher(
	api API,
	entities *storage.LockEntityRepository,
	audit *storage.ServiceLogRepository,
	events *websocket.EventBroadcaster,
	log zerolog.Logger,
) *Dispatcher {
	d := &Dispatcher{
		api:      api,
		entities: entities,
		audit:    audit,
		events:   events,
		log:      log.With().Str("component", "service").Logger(),
	}
	d.defs = d.definitions()
	return d
}

// Services returns the registered service names in stable order.
func (d *Dispatcher) Services() []string {
	names := make([]string, 0, len(d.defs))
	for name := range d.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SchemaFor returns the declared schema for a service, if registered.
func (d *Dispatcher) SchemaFor(name string) (Schema, bool) {
	def, ok := d.defs[name]
	return def.schema, ok
}

// Call validates args against the service's field table and, only when
// validation passes, forwards the call to the vendor API. The outcome is
// recorded in the audit log and summarized on the event stream.
func (d *Dispatcher) Call(ctx context.Context, name string, args map[string]any) (any, error) {
	def, ok := d.defs[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown service %q", ringo.ErrNotFound, name)
	}

	if args == nil {
		args = map[string]any{}
	}
	if err := def.schema.Validate(args); err != nil {
		// Validation failures are not audited as calls; nothing was dispatched.
		return nil, err
	}

	start := time.Now()
	result, err := def.handler(ctx, args)
	duration := time.Since(start)

	d.record(ctx, name, duration, err)
	d.announce(name, result, err)

	if err != nil {
		d.log.Warn().Err(err).Str("service", name).Msg("service call failed")
		return nil, err
	}

	d.log.Info().Str("service", name).Dur("duration", duration).Msg("service call completed")
	return result, nil
}

// record appends the call to the audit log. Failures to audit are logged,
// not surfaced to the caller.
func (d *Dispatcher) record(ctx context.Context, name string, duration time.Duration, callErr error) {
	call := &models.ServiceCall{
		Service:    name,
		Success:    callErr == nil,
		DurationMs: duration.Milliseconds(),
	}
	if callErr != nil {
		msg := callErr.Error()
		call.Error = &msg
	}

	if err := d.audit.Record(ctx, call); err != nil {
		d.log.Error().Err(err).Str("service", name).Msg("recording service call")
	}
}

// announce mirrors the call outcome on the WebSocket event stream.
func (d *Dispatcher) announce(name string, result any, callErr error) {
	if d.events == nil {
		return
	}

	var errMsg string
	if callErr != nil {
		errMsg = callErr.Error()
	}
	d.events.BroadcastServiceResult(name, callErr == nil, resultCount(result), errMsg)
}

// resultCount reports the size of list results for the event stream's
// summary counts.
func resultCount(result any) *int {
	var n int
	switch v := result.(type) {
	case []ringo.Lock:
		n = len(v)
	case []ringo.DigitalKey:
		n = len(v)
	case []ringo.User:
		n = len(v)
	default:
		return nil
	}
	return &n
}

// resolveLockEntity maps an entity ID to its registered vendor lock.
func (d *Dispatcher) resolveLockEntity(ctx context.Context, entityID string) (*models.LockEntity, error) {
	entity, err := d.entities.GetByEntityID(ctx, entityID)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, fmt.Errorf("%w: unknown lock entity %q", ringo.ErrNotFound, entityID)
	}
	return entity, nil
}
