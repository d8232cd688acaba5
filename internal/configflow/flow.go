// Package configflow implements the guided setup flow for a Ringo account.
// It mirrors the host framework's config flow contract: a single "user"
// step that probes connectivity and either creates a config entry or
// reports a keyed error back to the form.
package configflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ringo-bridge/backend/internal/ringo"
	"github.com/ringo-bridge/backend/internal/storage"
	"github.com/ringo-bridge/backend/internal/storage/models"
)

// Step error keys shown on the setup form.
const (
	ErrBaseCannotConnect = "cannot_connect"
	ErrBaseInvalidAuth   = "invalid_auth"
	ErrBaseUnknown       = "unknown"
)

// ReasonAlreadyConfigured aborts the flow when the host is already set up.
const ReasonAlreadyConfigured = "already_configured"

// UserInput is the payload of the "user" step.
type UserInput struct {
	Host         string `json:"host"`
	Client       string `json:"client"`
	Secret       string `json:"secret"`
	AutoLockTime int    `json:"auto_lock_time"`
}

// StepError reports a failed validation of the user step. Base is the
// translation key the form shows.
type StepError struct {
	Base string
	Err  error
}

func (e *StepError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("config flow: %s: %v", e.Base, e.Err)
	}
	return "config flow: " + e.Base
}

func (e *StepError) Unwrap() error { return e.Err }

// AbortError ends the flow without showing the form again.
type AbortError struct {
	Reason string
}

func (e *AbortError) Error() string { return "config flow aborted: " + e.Reason }

// Probe validates credentials against a host. The default probe
// authenticates with the Ringo cloud; tests substitute their own.
type Probe func(ctx context.Context, host, client, secret string) error

// DefaultProbe authenticates against the Ringo API at the given host.
func DefaultProbe(log zerolog.Logger) Probe {
	return func(ctx context.Context, host, client, secret string) error {
		cfg := ringo.DefaultConfig(client, secret)
		cfg.BaseURL = host
		return ringo.New(cfg, log).Authenticate(ctx)
	}
}

// Flow handles the setup steps for new config entries.
type Flow struct {
	entries *storage.EntryRepository
	probe   Probe
	log     zerolog.Logger
}

// NewFlow creates a config flow backed by the entry repository.
func NewFlow(entries *storage.EntryRepository, probe Probe, log zerolog.Logger) *Flow {
	return &Flow{
		entries: entries,
		probe:   probe,
		log:     log.With().Str("component", "configflow").Logger(),
	}
}

// StepUser runs the single "user" step: normalize input, refuse
// duplicate hosts, probe connectivity, create the entry.
func (f *Flow) StepUser(ctx context.Context, input UserInput) (*models.ConfigEntry, error) {
	input.Host = strings.TrimRight(strings.TrimSpace(input.Host), "/")
	if input.Host == "" {
		input.Host = ringo.DefaultBaseURL
	}
	if input.Client == "" || input.Secret == "" {
		return nil, &StepError{Base: ErrBaseInvalidAuth, Err: errors.New("client and secret are required")}
	}
	if input.AutoLockTime == 0 {
		input.AutoLockTime = models.DefaultAutoLockTime
	}
	if input.AutoLockTime < models.MinAutoLockTime || input.AutoLockTime > models.MaxAutoLockTime {
		return nil, &StepError{
			Base: ErrBaseUnknown,
			Err:  fmt.Errorf("auto_lock_time must be between %d and %d", models.MinAutoLockTime, models.MaxAutoLockTime),
		}
	}

	existing, err := f.entries.GetByHost(ctx, input.Host)
	if err != nil {
		return nil, &StepError{Base: ErrBaseUnknown, Err: err}
	}
	if existing != nil {
		f.log.Info().Str("host", input.Host).Msg("host already configured, aborting flow")
		return nil, &AbortError{Reason: ReasonAlreadyConfigured}
	}

	if err := f.probe(ctx, input.Host, input.Client, input.Secret); err != nil {
		return nil, classifyProbeError(err)
	}

	entry := &models.ConfigEntry{
		Title:        "Ringo",
		Host:         input.Host,
		Client:       input.Client,
		Secret:       input.Secret,
		AutoLockTime: input.AutoLockTime,
	}
	if err := f.entries.Create(ctx, entry); err != nil {
		return nil, &StepError{Base: ErrBaseUnknown, Err: err}
	}

	f.log.Info().Str("host", entry.Host).Str("entry_id", entry.ID).Msg("config entry created")
	return entry, nil
}

// classifyProbeError maps probe failures to the step error keys.
func classifyProbeError(err error) error {
	switch {
	case errors.Is(err, ringo.ErrAuth):
		return &StepError{Base: ErrBaseInvalidAuth, Err: err}
	case errors.Is(err, ringo.ErrConnectivity):
		return &StepError{Base: ErrBaseCannotConnect, Err: err}
	default:
		return &StepError{Base: ErrBaseUnknown, Err: err}
	}
}
