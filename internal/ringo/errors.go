package ringo

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure classes the API surfaces. Callers match
// with errors.Is; the wrapped message carries the vendor detail.
var (
	// ErrConnectivity indicates the cloud host could not be reached or the
	// request timed out.
	ErrConnectivity = errors.New("ringo: cannot connect")

	// ErrAuth indicates rejected credentials or an expired token that could
	// not be refreshed.
	ErrAuth = errors.New("ringo: invalid auth")

	// ErrNotFound indicates an unknown digital key or lock reference.
	ErrNotFound = errors.New("ringo: not found")

	// ErrValidation indicates a request that was rejected locally before any
	// network call.
	ErrValidation = errors.New("ringo: validation failed")
)

// VendorError is an opaque rejection reported by the Ringo cloud.
type VendorError struct {
	Status  int
	Message string
}

func (e *VendorError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("ringo: vendor error (status %d)", e.Status)
	}
	return fmt.Sprintf("ringo: vendor error (status %d): %s", e.Status, e.Message)
}

// statusError maps an HTTP status to the error taxonomy.
func statusError(status int, message string) error {
	switch {
	case status == 401 || status == 403:
		if message != "" {
			return fmt.Errorf("%w: %s", ErrAuth, message)
		}
		return ErrAuth
	case status == 404:
		if message != "" {
			return fmt.Errorf("%w: %s", ErrNotFound, message)
		}
		return ErrNotFound
	default:
		return &VendorError{Status: status, Message: message}
	}
}
