package service

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ringo-bridge/backend/internal/ringo"
	"github.com/ringo-bridge/backend/internal/storage/models"
)

var weekdays = []string{
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
}

// validateTimes checks a times[] value: a non-empty list of tagged windows,
// each either a date range or a weekly schedule with consistent fields.
func validateTimes(value any) error {
	list, ok := value.([]any)
	if !ok {
		return fmt.Errorf("expected a list of time windows")
	}
	if len(list) == 0 {
		return fmt.Errorf("at least one time window is required")
	}

	for i, raw := range list {
		window, ok := raw.(map[string]any)
		if !ok {
			return fmt.Errorf("window %d: expected an object", i)
		}
		if err := validateWindow(window); err != nil {
			return fmt.Errorf("window %d: %w", i, err)
		}
	}
	return nil
}

func validateWindow(window map[string]any) error {
	typ, _ := window["type"].(string)

	switch typ {
	case ringo.WindowDate:
		start, err := asInt64(window["start"])
		if err != nil {
			return fmt.Errorf("start: %w", err)
		}
		end, err := asInt64(window["end"])
		if err != nil {
			return fmt.Errorf("end: %w", err)
		}
		if start > end {
			return fmt.Errorf("start %d is after end %d", start, end)
		}

	case ringo.WindowSchedule:
		start, err := parseClock(window["start_time"])
		if err != nil {
			return fmt.Errorf("start_time: %w", err)
		}
		end, err := parseClock(window["end_time"])
		if err != nil {
			return fmt.Errorf("end_time: %w", err)
		}
		if !start.Before(end) {
			return fmt.Errorf("start_time must be before end_time")
		}

		anyDay := false
		for _, day := range weekdays {
			raw, present := window[day]
			if !present {
				continue
			}
			flag, err := coerceFlag(raw)
			if err != nil {
				return fmt.Errorf("%s: %w", day, err)
			}
			if flag == 1 {
				anyDay = true
			}
		}
		if !anyDay {
			return fmt.Errorf("at least one day flag must be set")
		}

	default:
		return fmt.Errorf("type must be %q or %q", ringo.WindowDate, ringo.WindowSchedule)
	}

	return nil
}

// validateLocks checks a locks[] value: a non-empty list of
// {lock_id, relay_id} references.
func validateLocks(value any) error {
	list, ok := value.([]any)
	if !ok {
		return fmt.Errorf("expected a list of lock references")
	}
	if len(list) == 0 {
		return fmt.Errorf("at least one lock reference is required")
	}

	for i, raw := range list {
		ref, ok := raw.(map[string]any)
		if !ok {
			return fmt.Errorf("lock %d: expected an object", i)
		}
		if _, err := asInt(ref["lock_id"]); err != nil {
			return fmt.Errorf("lock %d: lock_id: %w", i, err)
		}
		if _, err := asInt(ref["relay_id"]); err != nil {
			return fmt.Errorf("lock %d: relay_id: %w", i, err)
		}
	}
	return nil
}

// validatePins checks a pins[] value: each descriptor carries the contact
// fields and the PIN code.
func validatePins(value any) error {
	list, ok := value.([]any)
	if !ok {
		return fmt.Errorf("expected a list of pin descriptors")
	}

	required := []string{"email", "firstname", "lastname", "pin"}
	for i, raw := range list {
		pin, ok := raw.(map[string]any)
		if !ok {
			return fmt.Errorf("pin %d: expected an object", i)
		}
		for _, name := range required {
			if s, ok := pin[name].(string); !ok || s == "" {
				return fmt.Errorf("pin %d: %s is required", i, name)
			}
		}
	}
	return nil
}

// validateLockEntityID rejects entity IDs outside the lock domain without
// touching the registry or the network.
func validateLockEntityID(value any) error {
	id, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected an entity id")
	}
	if !models.IsLockDomain(id) {
		return fmt.Errorf("%q is not a lock entity", id)
	}
	return nil
}

// validateNonEmpty rejects empty strings for required text fields.
func validateNonEmpty(value any) error {
	if s, ok := value.(string); !ok || s == "" {
		return fmt.Errorf("must not be empty")
	}
	return nil
}

// parseClock parses an "HH:MM" time-of-day value.
func parseClock(value any) (time.Time, error) {
	s, ok := value.(string)
	if !ok || s == "" {
		return time.Time{}, fmt.Errorf("missing time of day")
	}
	t, err := time.Parse("15:04", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time of day %q", s)
	}
	return t, nil
}

// coerceFlag accepts a boolean or 0/1 and normalizes it to 0/1.
func coerceFlag(value any) (int, error) {
	switch v := value.(type) {
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	default:
		n, err := asInt(value)
		if err != nil {
			return 0, fmt.Errorf("expected boolean or 0/1")
		}
		if n != 0 && n != 1 {
			return 0, fmt.Errorf("expected boolean or 0/1")
		}
		return n, nil
	}
}

// asInt accepts the integer shapes JSON decoding produces.
func asInt(value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("expected an integer")
		}
		return int(v), nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("expected an integer")
		}
		return int(n), nil
	default:
		return 0, fmt.Errorf("expected an integer")
	}
}

func asInt64(value any) (int64, error) {
	n, err := asInt(value)
	return int64(n), err
}
