package models

import "time"

// ServiceCall is one audit record of a dispatched service invocation.
type ServiceCall struct {
	ID         string    `json:"id"`
	Service    string    `json:"service"`
	Success    bool      `json:"success"`
	Error      *string   `json:"error,omitempty"`
	DurationMs int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}
