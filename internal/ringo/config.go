// Package ringo implements the client for the Ringo door cloud API.
package ringo

import "time"

// DefaultBaseURL is the production Ringo cloud endpoint.
const DefaultBaseURL = "https://dev.ringodoor.com/api"

// tokenTTL is how long an issued bearer token is assumed to stay valid.
// The API does not report an expiry; one hour is what the vendor documents.
const tokenTTL = time.Hour

// Config holds the settings for Ringo cloud API access.
type Config struct {
	// BaseURL is the Ringo API base URL, without a trailing slash.
	BaseURL string

	// Client is the API client ID issued by Ringo.
	Client string

	// Secret is the API secret paired with the client ID.
	Secret string

	// Timeout for individual API requests.
	Timeout time.Duration
}

// DefaultConfig returns a config pointed at the production cloud.
func DefaultConfig(client, secret string) Config {
	return Config{
		BaseURL: DefaultBaseURL,
		Client:  client,
		Secret:  secret,
		Timeout: 10 * time.Second,
	}
}
