package ringo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// ListLocks retrieves all locks for the account.
func (c *Client) ListLocks(ctx context.Context) ([]Lock, error) {
	data, err := c.do(ctx, http.MethodGet, "/locks", nil, nil)
	if err != nil {
		return nil, err
	}

	var locks []Lock
	if err := json.Unmarshal(data, &locks); err != nil {
		return nil, fmt.Errorf("decoding locks: %w", err)
	}
	return locks, nil
}

// OpenDoor unlocks the given lock/relay using a digital key.
func (c *Client) OpenDoor(ctx context.Context, lockID, relayID int, digitalKey string) error {
	body := map[string]any{
		"lock_id":     lockID,
		"relay_id":    relayID,
		"digital_key": digitalKey,
	}

	_, err := c.do(ctx, http.MethodPost, "/open-door", nil, body)
	return err
}

// OpenDoorByPin unlocks (or relocks, with open=false) the given lock/relay
// using a PIN code.
func (c *Client) OpenDoorByPin(ctx context.Context, lockID, relayID int, pin string, open bool) error {
	body := map[string]any{
		"lock_id":  lockID,
		"relay_id": relayID,
		"pin":      pin,
		"open":     open,
	}

	_, err := c.do(ctx, http.MethodPost, "/open-door-by-pin", nil, body)
	return err
}
