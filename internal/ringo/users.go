package ringo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// ListUsers retrieves all account users.
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	data, err := c.do(ctx, http.MethodGet, "/users", nil, nil)
	if err != nil {
		return nil, err
	}

	var users []User
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("decoding users: %w", err)
	}
	return users, nil
}
