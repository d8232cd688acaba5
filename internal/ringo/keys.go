package ringo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// ListKeys retrieves all digital keys for the account.
func (c *Client) ListKeys(ctx context.Context) ([]DigitalKey, error) {
	data, err := c.do(ctx, http.MethodGet, "/key-list", nil, nil)
	if err != nil {
		return nil, err
	}

	var keys []DigitalKey
	if err := json.Unmarshal(data, &keys); err != nil {
		return nil, fmt.Errorf("decoding keys: %w", err)
	}
	return keys, nil
}

// CreateKey issues a new digital key and returns it. The vendor assigns the
// key token.
func (c *Client) CreateKey(ctx context.Context, spec KeySpec) (*DigitalKey, error) {
	if spec.Pins == nil {
		spec.Pins = []PinDescriptor{}
	}

	data, err := c.do(ctx, http.MethodPost, "/key", nil, spec)
	if err != nil {
		return nil, err
	}

	var key DigitalKey
	if err := json.Unmarshal(data, &key); err != nil {
		return nil, fmt.Errorf("decoding created key: %w", err)
	}
	return &key, nil
}

// UpdateKey replaces the fields of an existing digital key.
func (c *Client) UpdateKey(ctx context.Context, digitalKey string, spec KeySpec) (*DigitalKey, error) {
	if spec.Pins == nil {
		spec.Pins = []PinDescriptor{}
	}

	body := struct {
		DigitalKey string `json:"digital_key"`
		KeySpec
	}{DigitalKey: digitalKey, KeySpec: spec}

	data, err := c.do(ctx, http.MethodPut, "/key", nil, body)
	if err != nil {
		return nil, err
	}

	var key DigitalKey
	if err := json.Unmarshal(data, &key); err != nil {
		return nil, fmt.Errorf("decoding updated key: %w", err)
	}
	return &key, nil
}

// DeleteKey revokes a digital key.
func (c *Client) DeleteKey(ctx context.Context, digitalKey string) error {
	body := map[string]string{"digital_key": digitalKey}
	_, err := c.do(ctx, http.MethodDelete, "/key", nil, body)
	return err
}

// GetKeyStatus retrieves the validity/usage status of a single key.
func (c *Client) GetKeyStatus(ctx context.Context, digitalKey string) (*KeyStatus, error) {
	query := map[string]string{"digital_key": digitalKey}

	data, err := c.do(ctx, http.MethodGet, "/key", query, nil)
	if err != nil {
		return nil, err
	}

	var status KeyStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("decoding key status: %w", err)
	}
	if status.DigitalKey == "" {
		status.DigitalKey = digitalKey
	}
	return &status, nil
}
