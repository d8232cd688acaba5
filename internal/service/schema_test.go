package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ringo-bridge/backend/internal/ringo"
)

func TestSchemaValidate(t *testing.T) {
	schema := NewSchema(
		Field{Name: "name", Type: TypeText, Required: true, Validate: validateNonEmpty},
		Field{Name: "enabled", Type: TypeBoolean, Required: false},
		Field{Name: "count", Type: TypeInteger, Required: false},
	)

	tests := []struct {
		name    string
		args    map[string]any
		wantErr bool
	}{
		{"all fields valid", map[string]any{"name": "x", "enabled": true, "count": float64(3)}, false},
		{"only required", map[string]any{"name": "x"}, false},
		{"boolean as 0/1", map[string]any{"name": "x", "enabled": float64(1)}, false},
		{"missing required", map[string]any{"enabled": true}, true},
		{"unknown field", map[string]any{"name": "x", "extra": 1}, true},
		{"wrong type", map[string]any{"name": 12}, true},
		{"boolean out of range", map[string]any{"name": "x", "enabled": float64(2)}, true},
		{"fractional integer", map[string]any{"name": "x", "count": 1.5}, true},
		{"validator failure", map[string]any{"name": ""}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := schema.Validate(tt.args)
			if tt.wantErr {
				assert.ErrorIs(t, err, ringo.ErrValidation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCoerceFlag(t *testing.T) {
	for raw, want := range map[any]int{
		true:       1,
		false:      0,
		float64(1): 1,
		float64(0): 0,
		0:          0,
		1:          1,
	} {
		got, err := coerceFlag(raw)
		require.NoError(t, err, "value %v", raw)
		assert.Equal(t, want, got, "value %v", raw)
	}

	for _, raw := range []any{float64(2), "yes", nil, 1.5} {
		_, err := coerceFlag(raw)
		assert.Error(t, err, "value %v", raw)
	}
}

func TestParseClock(t *testing.T) {
	_, err := parseClock("08:30")
	assert.NoError(t, err)

	for _, raw := range []any{"8:3:1", "25:00", "", nil, 830} {
		_, err := parseClock(raw)
		assert.Error(t, err, "value %v", raw)
	}
}

func TestDecodeWindowSchedule(t *testing.T) {
	window, err := decodeWindow(map[string]any{
		"type":       "schedule",
		"start_time": "08:00",
		"end_time":   "18:00",
		"monday":     true,
		"friday":     float64(1),
		"sunday":     false,
	})
	require.NoError(t, err)
	assert.Equal(t, ringo.WindowSchedule, window.Type)
	assert.Equal(t, "08:00", window.StartTime)
	assert.Equal(t, 1, window.Monday)
	assert.Equal(t, 1, window.Friday)
	assert.Equal(t, 0, window.Sunday)
	assert.Equal(t, 0, window.Tuesday)
	assert.True(t, window.DaysSet())
}

func TestDecodeKeySpecNormalizesFlags(t *testing.T) {
	args := map[string]any{
		"name":    "Guest",
		"use_pin": false,
		"times": []any{
			map[string]any{"type": "date", "start": float64(10), "end": float64(20)},
		},
		"locks": []any{
			map[string]any{"lock_id": float64(5), "relay_id": float64(2)},
		},
		"pins": []any{
			map[string]any{
				"email": "g@example.com", "firstname": "G", "lastname": "T",
				"pin": "9999", "vcard_create": true,
			},
		},
	}

	spec, err := decodeKeySpec(args)
	require.NoError(t, err)
	assert.Equal(t, 0, spec.UsePin)
	require.Len(t, spec.Locks, 1)
	assert.Equal(t, ringo.LockRef{LockID: 5, RelayID: 2}, spec.Locks[0])
	require.Len(t, spec.Pins, 1)
	assert.Equal(t, 1, spec.Pins[0].VcardCreate)
}

func TestValidateLockEntityID(t *testing.T) {
	assert.NoError(t, validateLockEntityID("lock.ringo_1_1"))
	assert.Error(t, validateLockEntityID("switch.ringo_1_1"))
	assert.Error(t, validateLockEntityID("lock."))
	assert.Error(t, validateLockEntityID(42))
}
