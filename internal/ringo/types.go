package ringo

import "encoding/json"

// Time window variants accepted by the key endpoints.
const (
	WindowDate     = "date"
	WindowSchedule = "schedule"
)

// Lock is a single relay channel on a Ringo controller.
type Lock struct {
	LockID  int    `json:"lock_id"`
	RelayID int    `json:"relay_id"`
	Name    string `json:"name,omitempty"`
}

// LockRef identifies a lock a digital key may open.
type LockRef struct {
	LockID  int `json:"lock_id"`
	RelayID int `json:"relay_id"`
}

// TimeWindow is a validity window attached to a digital key. It is a tagged
// union: Type "date" uses Start/End unix timestamps, Type "schedule" uses
// StartTime/EndTime ("HH:MM") plus the day-of-week flags. The wire format
// encodes booleans as 0/1.
type TimeWindow struct {
	Type      string `json:"type"`
	Start     int64  `json:"start,omitempty"`
	End       int64  `json:"end,omitempty"`
	StartTime string `json:"start_time,omitempty"`
	EndTime   string `json:"end_time,omitempty"`
	Monday    int    `json:"monday,omitempty"`
	Tuesday   int    `json:"tuesday,omitempty"`
	Wednesday int    `json:"wednesday,omitempty"`
	Thursday  int    `json:"thursday,omitempty"`
	Friday    int    `json:"friday,omitempty"`
	Saturday  int    `json:"saturday,omitempty"`
	Sunday    int    `json:"sunday,omitempty"`
}

// DaysSet reports whether at least one day-of-week flag is set.
func (w TimeWindow) DaysSet() bool {
	return w.Monday+w.Tuesday+w.Wednesday+w.Thursday+w.Friday+w.Saturday+w.Sunday > 0
}

// PinDescriptor is contact and credential metadata for one key holder.
type PinDescriptor struct {
	Email       string `json:"email"`
	Phone       string `json:"phone,omitempty"`
	Firstname   string `json:"firstname"`
	Lastname    string `json:"lastname"`
	Pin         string `json:"pin"`
	NfcType     string `json:"nfc_type,omitempty"`
	VcardCreate int    `json:"vcard_create,omitempty"`
	VcardSend   int    `json:"vcard_send,omitempty"`
}

// KeySpec is the payload for creating or updating a digital key.
type KeySpec struct {
	Name   string          `json:"name"`
	Times  []TimeWindow    `json:"times"`
	Locks  []LockRef       `json:"locks"`
	UsePin int             `json:"use_pin"`
	Pins   []PinDescriptor `json:"pins"`
}

// DigitalKey is a vendor-issued key as returned by the key listing.
type DigitalKey struct {
	DigitalKey string          `json:"digital_key"`
	Name       string          `json:"name"`
	Times      []TimeWindow    `json:"times,omitempty"`
	Locks      []LockRef       `json:"locks"`
	UsePin     int             `json:"use_pin"`
	Pins       []PinDescriptor `json:"pins,omitempty"`
	IsValid    int             `json:"is_valid"`
	IsEnded    int             `json:"is_ended"`
}

// Usable reports whether the key is currently accepted by the vendor.
func (k DigitalKey) Usable() bool {
	return k.IsValid == 1 && k.IsEnded == 0
}

// Opens reports whether the key covers the given lock/relay pair.
func (k DigitalKey) Opens(lockID, relayID int) bool {
	for _, ref := range k.Locks {
		if ref.LockID == lockID && ref.RelayID == relayID {
			return true
		}
	}
	return false
}

// KeyStatus is the validity/usage report for a single digital key.
type KeyStatus struct {
	DigitalKey string       `json:"digital_key"`
	Name       string       `json:"name,omitempty"`
	Valid      bool         `json:"valid"`
	IsValid    int          `json:"is_valid,omitempty"`
	IsEnded    int          `json:"is_ended,omitempty"`
	Times      []TimeWindow `json:"times,omitempty"`
	Locks      []LockRef    `json:"locks,omitempty"`
}

// User is a vendor-side account identity. The shape is vendor-defined and
// passed through untouched.
type User = map[string]any

// envelope is the {status, data} wrapper the cloud puts around responses.
type envelope struct {
	Status  int             `json:"status"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message,omitempty"`
}
