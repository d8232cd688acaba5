package ringo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// maxRetries bounds how often a request is retried after a transport
// failure or a stale token before the error is reported to the caller.
const maxRetries = 2

// errStaleToken marks a 401 on an authenticated request; the retry loop
// re-authenticates and tries again.
var errStaleToken = errors.New("ringo: stale token")

// Client talks to the Ringo cloud API. A single instance is shared by all
// entities and services; token refresh is serialized internally.
type Client struct {
	http *resty.Client
	cfg  Config
	log  zerolog.Logger

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// New creates a Ringo API client from the given config.
func New(cfg Config, log zerolog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	hc := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json")

	return &Client{
		http: hc,
		cfg:  cfg,
		log:  log.With().Str("component", "ringo").Logger(),
	}
}

// Authenticate exchanges the client/secret headers for a bearer token.
// The token is cached until its assumed expiry.
func (c *Client) Authenticate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.authenticateLocked(ctx)
}

// authenticateLocked performs the token exchange. Caller must hold c.mu.
func (c *Client) authenticateLocked(ctx context.Context) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Ringo-Api-Client", c.cfg.Client).
		SetHeader("Ringo-Api-Secret", c.cfg.Secret).
		Get("/token")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnectivity, err)
	}

	if !resp.IsSuccess() {
		return statusError(resp.StatusCode(), responseMessage(resp.Body()))
	}

	var env envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return fmt.Errorf("%w: malformed token response: %v", ErrAuth, err)
	}

	var token string
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &token); err != nil {
			return fmt.Errorf("%w: malformed token response: %v", ErrAuth, err)
		}
	}
	if token == "" {
		return fmt.Errorf("%w: no token in response", ErrAuth)
	}

	c.token = token
	c.tokenExpiry = time.Now().Add(tokenTTL)
	c.log.Debug().Msg("authenticated with Ringo cloud")
	return nil
}

// ensureToken re-authenticates when the cached token is missing or expired.
func (c *Client) ensureToken(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExpiry) {
		return nil
	}
	return c.authenticateLocked(ctx)
}

// invalidateToken drops the cached token, forcing a refresh on next use.
func (c *Client) invalidateToken() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

func (c *Client) currentToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// do issues one authenticated request and returns the unwrapped response
// payload. Transport failures and stale tokens are retried up to maxRetries
// times with exponential backoff; vendor rejections are returned as-is.
func (c *Client) do(ctx context.Context, method, path string, query map[string]string, body any) (json.RawMessage, error) {
	var out json.RawMessage

	op := func() error {
		if err := c.ensureToken(ctx); err != nil {
			if errors.Is(err, ErrConnectivity) {
				return err
			}
			return backoff.Permanent(err)
		}

		req := c.http.R().
			SetContext(ctx).
			SetAuthToken(c.currentToken())
		if query != nil {
			req.SetQueryParams(query)
		}
		if body != nil {
			req.SetBody(body)
		}

		resp, err := req.Execute(method, path)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrConnectivity, err)
		}

		if resp.StatusCode() == 401 {
			c.log.Debug().Str("path", path).Msg("token rejected, re-authenticating")
			c.invalidateToken()
			return errStaleToken
		}
		if !resp.IsSuccess() {
			return backoff.Permanent(statusError(resp.StatusCode(), responseMessage(resp.Body())))
		}

		out = unwrap(resp.Body())
		return nil
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(newBackOff(), maxRetries), ctx)
	err := backoff.Retry(op, bo)
	if errors.Is(err, errStaleToken) {
		return nil, fmt.Errorf("%w: token rejected after %d retries", ErrAuth, maxRetries)
	}
	if err != nil {
		c.log.Error().Err(err).Str("method", method).Str("path", path).Msg("request failed")
		return nil, err
	}
	return out, nil
}

func newBackOff() backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	bo.MaxInterval = 2 * time.Second
	return bo
}

// unwrap extracts the data payload from the vendor's {status, data}
// envelope. Responses without the envelope are returned whole.
func unwrap(body []byte) json.RawMessage {
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && len(env.Data) > 0 {
		return env.Data
	}
	return json.RawMessage(body)
}

// responseMessage pulls a human-readable message out of an error body.
func responseMessage(body []byte) string {
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && env.Message != "" {
		return env.Message
	}
	const limit = 200
	if len(body) > limit {
		body = body[:limit]
	}
	return string(body)
}
