package bungie

import (
	"encoding/json"
	"fmt"

	"github.com/guardianhud/guardianhud/clients"
)

// Client talks to the Bungie.net Platform API. Every response comes back
// in the standard Bungie envelope where ErrorCode 1 means success.
type Client struct {
	*clients.BaseClient
}

func NewClient(apiKey string) *Client {
	return NewClientWithBaseURL(apiKey, BaseURL)
}

// NewClientWithBaseURL points the client at a non-default Platform host,
// for proxies and tests.
func NewClientWithBaseURL(apiKey, baseURL string) *Client {
	client := &Client{
		BaseClient: clients.NewBaseClient(baseURL),
	}

	client.SetHeader(APIKeyHeader, apiKey)
	client.SetHeader("Content-Type", "application/json")

	return client
}

// envelope is the outer response wrapper used by every Bungie endpoint.
type envelope struct {
	Response  json.RawMessage `json:"Response"`
	ErrorCode int             `json:"ErrorCode"`
	Message   string          `json:"Message"`
}

func unwrap(body []byte) (json.RawMessage, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w, raw response: %s", err, string(body))
	}
	if env.ErrorCode != ErrorCodeSuccess {
		return nil, fmt.Errorf("bungie API error (%d): %s", env.ErrorCode, env.Message)
	}
	return env.Response, nil
}
