// Package models defines the persisted data structures for the bridge.
package models

import "time"

// Auto-lock duration bounds, in seconds.
const (
	DefaultAutoLockTime = 10
	MinAutoLockTime     = 1
	MaxAutoLockTime     = 60
)

// ConfigEntry is one configured Ringo account: host, credentials and
// per-account options. The host is unique; submitting the same host twice
// aborts the setup flow.
type ConfigEntry struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Host         string    `json:"host"`
	Client       string    `json:"client"`
	Secret       string    `json:"-"`
	AutoLockTime int       `json:"auto_lock_time"`
	CreatedAt    time.Time `json:"created_at"`
}
