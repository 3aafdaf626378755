package bungie

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
)

type Player struct {
	MembershipID            string `json:"membershipId"`
	MembershipType          int    `json:"membershipType"`
	DisplayName             string `json:"displayName"`
	BungieGlobalDisplayName string `json:"bungieGlobalDisplayName"`
}

// SearchPlayer looks up players by display name. membershipType -1 searches
// every platform.
func (c *Client) SearchPlayer(ctx context.Context, displayName string, membershipType int) ([]Player, error) {
	reqBody, err := json.Marshal(map[string]interface{}{
		"displayName":    displayName,
		"membershipType": membershipType,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search request: %w", err)
	}

	body, err := c.Post(ctx, SearchPlayerEndpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to search player: %w", err)
	}

	raw, err := unwrap(body)
	if err != nil {
		return nil, err
	}

	var players []Player
	if err := json.Unmarshal(raw, &players); err != nil {
		return nil, fmt.Errorf("failed to unmarshal players: %w", err)
	}
	return players, nil
}

// GetProfile fetches the raw profile document (components 100,200). Callers
// only re-serve it, so it stays untyped.
func (c *Client) GetProfile(ctx context.Context, membershipType, membershipID string) (json.RawMessage, error) {
	body, err := c.Get(ctx, fmt.Sprintf(ProfileEndpoint, membershipType, membershipID))
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return unwrap(body)
}
