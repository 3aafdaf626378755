package tracker

import (
	"context"
	"time"

	"github.com/guardianhud/guardianhud/clients/bungie"
)

// ActivityProvider is the external capability the tracker polls. A fetch
// error means "no observation this poll", never "activity became none".
type ActivityProvider interface {
	GetCurrentActivity(ctx context.Context, membershipType, membershipID, characterID string) (*bungie.Activity, error)
}

// PlayerTrackingConfig identifies one character under surveillance and how
// often to poll it.
type PlayerTrackingConfig struct {
	MembershipType string        `json:"membershipType"`
	MembershipID   string        `json:"membershipId"`
	CharacterID    string        `json:"characterId"`
	CheckInterval  time.Duration `json:"checkInterval"`
}

// ActivityChangeEvent records one detected transition. Either side may be
// nil (entered or left an activity).
type ActivityChangeEvent struct {
	PlayerID         string           `json:"playerId"`
	PreviousActivity *bungie.Activity `json:"previousActivity"`
	CurrentActivity  *bungie.Activity `json:"currentActivity"`
	Timestamp        time.Time        `json:"timestamp"`
}

// ChangeListener receives change events for every tracked player. Panics
// are recovered and logged per listener.
type ChangeListener func(ActivityChangeEvent)

// PlayerStatus is a diagnostic snapshot of one tracked player.
type PlayerStatus struct {
	Config          PlayerTrackingConfig `json:"config"`
	CurrentActivity *bungie.Activity     `json:"currentActivity"`
	IsTracking      bool                 `json:"isTracking"`
}
