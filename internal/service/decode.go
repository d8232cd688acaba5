package service

import (
	"fmt"

	"github.com/ringo-bridge/backend/internal/ringo"
)

// decodeKeySpec turns validated call fields into the vendor key payload.
// Boolean flags are normalized to the 0/1 the wire format expects.
func decodeKeySpec(args map[string]any) (ringo.KeySpec, error) {
	spec := ringo.KeySpec{
		Name: args["name"].(string),
		Pins: []ringo.PinDescriptor{},
	}

	usePin, err := coerceFlag(args["use_pin"])
	if err != nil {
		return spec, fmt.Errorf("use_pin: %w", err)
	}
	spec.UsePin = usePin

	for _, raw := range args["times"].([]any) {
		window, err := decodeWindow(raw.(map[string]any))
		if err != nil {
			return spec, err
		}
		spec.Times = append(spec.Times, window)
	}

	for _, raw := range args["locks"].([]any) {
		ref := raw.(map[string]any)
		lockID, _ := asInt(ref["lock_id"])
		relayID, _ := asInt(ref["relay_id"])
		spec.Locks = append(spec.Locks, ringo.LockRef{LockID: lockID, RelayID: relayID})
	}

	if raw, ok := args["pins"].([]any); ok {
		for _, p := range raw {
			spec.Pins = append(spec.Pins, decodePin(p.(map[string]any)))
		}
	}

	return spec, nil
}

func decodeWindow(raw map[string]any) (ringo.TimeWindow, error) {
	window := ringo.TimeWindow{Type: raw["type"].(string)}

	switch window.Type {
	case ringo.WindowDate:
		window.Start, _ = asInt64(raw["start"])
		window.End, _ = asInt64(raw["end"])

	case ringo.WindowSchedule:
		window.StartTime, _ = raw["start_time"].(string)
		window.EndTime, _ = raw["end_time"].(string)

		flags := make([]int, len(weekdays))
		for i, day := range weekdays {
			if v, present := raw[day]; present {
				flag, err := coerceFlag(v)
				if err != nil {
					return window, fmt.Errorf("%s: %w", day, err)
				}
				flags[i] = flag
			}
		}
		window.Monday, window.Tuesday, window.Wednesday = flags[0], flags[1], flags[2]
		window.Thursday, window.Friday = flags[3], flags[4]
		window.Saturday, window.Sunday = flags[5], flags[6]
	}

	return window, nil
}

func decodePin(raw map[string]any) ringo.PinDescriptor {
	pin := ringo.PinDescriptor{
		Email:     raw["email"].(string),
		Firstname: raw["firstname"].(string),
		Lastname:  raw["lastname"].(string),
		Pin:       raw["pin"].(string),
	}
	pin.Phone, _ = raw["phone"].(string)
	pin.NfcType, _ = raw["nfc_type"].(string)
	if v, present := raw["vcard_create"]; present {
		pin.VcardCreate, _ = coerceFlag(v)
	}
	if v, present := raw["vcard_send"]; present {
		pin.VcardSend, _ = coerceFlag(v)
	}
	return pin
}
