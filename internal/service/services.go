package service

import (
	"context"
	"fmt"

	"github.com/ringo-bridge/backend/internal/ringo"
	"github.com/ringo-bridge/backend/internal/websocket"
)

// Service names. The registry below is the single source of truth for
// which services exist and what fields they declare.
const (
	SvcCreateKey     = "create_key"
	SvcUpdateKey     = "update_key"
	SvcDeleteKey     = "delete_key"
	SvcSetDigitalKey = "set_digital_key"
	SvcGetLocks      = "get_locks"
	SvcGetKeys       = "get_keys"
	SvcGetUsers      = "get_users"
	SvcGetKeyStatus  = "get_key_status"
	SvcOpenDoorByPin = "open_door_by_pin"
)

// keySpecFields is the field table shared by create_key and update_key.
var keySpecFields = []Field{
	{Name: "name", Type: TypeText, Required: true, Validate: validateNonEmpty},
	{Name: "times", Type: TypeObject, Required: true, Validate: validateTimes},
	{Name: "locks", Type: TypeObject, Required: true, Validate: validateLocks},
	{Name: "use_pin", Type: TypeBoolean, Required: true},
	{Name: "pins", Type: TypeObject, Required: false, Validate: validatePins},
}

// definitions builds the static service registry.
func (d *Dispatcher) definitions() map[string]definition {
	digitalKey := Field{Name: "digital_key", Type: TypeText, Required: true, Validate: validateNonEmpty}
	lockEntity := Field{Name: "entity_id", Type: TypeText, Required: true, Validate: validateLockEntityID}

	return map[string]definition{
		SvcCreateKey: {
			schema:  NewSchema(keySpecFields...),
			handler: d.createKey,
		},
		SvcUpdateKey: {
			schema:  NewSchema(append([]Field{digitalKey}, keySpecFields...)...),
			handler: d.updateKey,
		},
		SvcDeleteKey: {
			schema:  NewSchema(digitalKey),
			handler: d.deleteKey,
		},
		SvcSetDigitalKey: {
			schema:  NewSchema(lockEntity, digitalKey),
			handler: d.setDigitalKey,
		},
		SvcGetLocks: {
			schema:  NewSchema(),
			handler: d.getLocks,
		},
		SvcGetKeys: {
			schema: NewSchema(
				Field{Name: "lock_id", Type: TypeInteger, Required: false},
			),
			handler: d.getKeys,
		},
		SvcGetUsers: {
			schema:  NewSchema(),
			handler: d.getUsers,
		},
		SvcGetKeyStatus: {
			schema:  NewSchema(digitalKey),
			handler: d.getKeyStatus,
		},
		SvcOpenDoorByPin: {
			schema: NewSchema(
				lockEntity,
				Field{Name: "pin", Type: TypeText, Required: true, Validate: validateNonEmpty},
				Field{Name: "open", Type: TypeBoolean, Required: false},
			),
			handler: d.openDoorByPin,
		},
	}
}

// createKey issues a new digital key and returns it, token included.
func (d *Dispatcher) createKey(ctx context.Context, args map[string]any) (any, error) {
	spec, err := decodeKeySpec(args)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ringo.ErrValidation, err)
	}

	key, err := d.api.CreateKey(ctx, spec)
	if err != nil {
		return nil, err
	}

	if d.events != nil {
		d.events.BroadcastKeyEvent(websocket.TypeKeyCreated, key.DigitalKey, key.Name)
	}
	return key, nil
}

// updateKey replaces the fields of an existing digital key.
func (d *Dispatcher) updateKey(ctx context.Context, args map[string]any) (any, error) {
	spec, err := decodeKeySpec(args)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ringo.ErrValidation, err)
	}

	token := args["digital_key"].(string)
	key, err := d.api.UpdateKey(ctx, token, spec)
	if err != nil {
		return nil, err
	}

	if d.events != nil {
		d.events.BroadcastKeyEvent(websocket.TypeKeyUpdated, token, spec.Name)
	}
	return key, nil
}

// deleteKey revokes a digital key.
func (d *Dispatcher) deleteKey(ctx context.Context, args map[string]any) (any, error) {
	token := args["digital_key"].(string)
	if err := d.api.DeleteKey(ctx, token); err != nil {
		return nil, err
	}

	if d.events != nil {
		d.events.BroadcastKeyEvent(websocket.TypeKeyDeleted, token, "")
	}
	return map[string]string{"digital_key": token}, nil
}

// setDigitalKey associates a digital key with a registered lock entity.
// The key must exist and be valid for that lock.
func (d *Dispatcher) setDigitalKey(ctx context.Context, args map[string]any) (any, error) {
	entityID := args["entity_id"].(string)
	token := args["digital_key"].(string)

	entity, err := d.resolveLockEntity(ctx, entityID)
	if err != nil {
		return nil, err
	}

	status, err := d.api.GetKeyStatus(ctx, token)
	if err != nil {
		return nil, err
	}
	if !status.Valid && status.IsValid != 1 {
		return nil, fmt.Errorf("%w: digital key is not valid", ringo.ErrValidation)
	}
	if len(status.Locks) > 0 {
		covered := false
		for _, ref := range status.Locks {
			if ref.LockID == entity.LockID && ref.RelayID == entity.RelayID {
				covered = true
				break
			}
		}
		if !covered {
			return nil, fmt.Errorf("%w: digital key does not cover %s", ringo.ErrValidation, entityID)
		}
	}

	if err := d.entities.AssignKey(ctx, entityID, token); err != nil {
		return nil, fmt.Errorf("assigning key: %w", err)
	}

	if d.events != nil {
		d.events.BroadcastKeyAssigned(entityID, token)
	}
	return map[string]string{"entity_id": entityID, "digital_key": token}, nil
}

// getLocks returns all locks for the account.
func (d *Dispatcher) getLocks(ctx context.Context, _ map[string]any) (any, error) {
	return d.api.ListLocks(ctx)
}

// getKeys returns all keys, optionally filtered to those opening one lock.
func (d *Dispatcher) getKeys(ctx context.Context, args map[string]any) (any, error) {
	keys, err := d.api.ListKeys(ctx)
	if err != nil {
		return nil, err
	}

	raw, present := args["lock_id"]
	if !present {
		return keys, nil
	}

	lockID, _ := asInt(raw)
	known, err := d.entities.ExistsLockID(ctx, lockID)
	if err != nil {
		return nil, err
	}
	if !known {
		return nil, fmt.Errorf("%w: unknown lock_id %d", ringo.ErrNotFound, lockID)
	}

	filtered := make([]ringo.DigitalKey, 0, len(keys))
	for _, key := range keys {
		for _, ref := range key.Locks {
			if ref.LockID == lockID {
				filtered = append(filtered, key)
				break
			}
		}
	}
	return filtered, nil
}

// getUsers returns all account users.
func (d *Dispatcher) getUsers(ctx context.Context, _ map[string]any) (any, error) {
	return d.api.ListUsers(ctx)
}

// getKeyStatus returns the validity/usage status of a key.
func (d *Dispatcher) getKeyStatus(ctx context.Context, args map[string]any) (any, error) {
	return d.api.GetKeyStatus(ctx, args["digital_key"].(string))
}

// openDoorByPin unlocks a registered lock entity using a PIN code.
func (d *Dispatcher) openDoorByPin(ctx context.Context, args map[string]any) (any, error) {
	entity, err := d.resolveLockEntity(ctx, args["entity_id"].(string))
	if err != nil {
		return nil, err
	}

	open := true
	if raw, present := args["open"]; present {
		flag, _ := coerceFlag(raw)
		open = flag == 1
	}

	pin := args["pin"].(string)
	if err := d.api.OpenDoorByPin(ctx, entity.LockID, entity.RelayID, pin, open); err != nil {
		return nil, err
	}

	return map[string]any{"entity_id": entity.EntityID, "open": open}, nil
}
