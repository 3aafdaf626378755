package tracker

import (
	"context"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/guardianhud/guardianhud/clients/bungie"
)

// Tracker polls the activity provider for every registered player on that
// player's own interval and raises a change event only when the observed
// activity identifier changes. Loops are independent: a slow provider call
// for one player never blocks another player's poll.
type Tracker struct {
	provider ActivityProvider
	clock    clockwork.Clock

	mu        sync.Mutex
	configs   map[string]PlayerTrackingConfig
	current   map[string]*bungie.Activity
	loops     map[string]*pollLoop
	listeners []ChangeListener
}

// pollLoop is the cancellable handle of one player's poll goroutine. A
// check holds on to its own loop handle so a result arriving after cancel
// or replacement is discarded instead of mutating state.
type pollLoop struct {
	ctx    context.Context
	cancel context.CancelFunc
}

func NewTracker(provider ActivityProvider, clock clockwork.Clock) *Tracker {
	return &Tracker{
		provider: provider,
		clock:    clock,
		configs:  make(map[string]PlayerTrackingConfig),
		current:  make(map[string]*bungie.Activity),
		loops:    make(map[string]*pollLoop),
	}
}

// AddPlayer registers tracking config for a player and immediately starts
// (or restarts) that player's poll loop. Re-adding an existing player
// cancels the previous loop first so a player never has two pollers.
func (t *Tracker) AddPlayer(playerID string, config PlayerTrackingConfig) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.configs[playerID] = config
	t.current[playerID] = nil
	t.startPlayerLoopLocked(playerID)

	log.Info().
		Str("player_id", playerID).
		Dur("check_interval", config.CheckInterval).
		Msg("player added to activity tracking")
}

// RemovePlayer cancels the player's poll loop and discards its config and
// state. Safe to call for a player that was never added.
func (t *Tracker) RemovePlayer(playerID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if loop, ok := t.loops[playerID]; ok {
		loop.cancel()
		delete(t.loops, playerID)
	}
	delete(t.configs, playerID)
	delete(t.current, playerID)

	log.Info().Str("player_id", playerID).Msg("player removed from activity tracking")
}

// OnActivityChange registers a listener invoked for every detected
// transition across all tracked players.
func (t *Tracker) OnActivityChange(listener ChangeListener) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.listeners = append(t.listeners, listener)
}

// StartTracking (re)starts poll loops for every configured player.
func (t *Tracker) StartTracking() {
	t.mu.Lock()
	defer t.mu.Unlock()

	log.Info().Int("players", len(t.configs)).Msg("starting activity tracking")
	for playerID := range t.configs {
		t.startPlayerLoopLocked(playerID)
	}
}

// StopTracking cancels every poll loop. Configs and last-known activities
// are retained so tracking can be resumed.
func (t *Tracker) StopTracking() {
	t.mu.Lock()
	defer t.mu.Unlock()

	log.Info().Int("loops", len(t.loops)).Msg("stopping activity tracking")
	for _, loop := range t.loops {
		loop.cancel()
	}
	t.loops = make(map[string]*pollLoop)
}

// GetCurrentActivity returns the last observed activity for a player, or
// nil when the player is unknown or not in an activity.
func (t *Tracker) GetCurrentActivity(playerID string) *bungie.Activity {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current[playerID]
}

// GetAllCurrentActivities returns a snapshot copy of every player's last
// observed activity.
func (t *Tracker) GetAllCurrentActivities() map[string]*bungie.Activity {
	t.mu.Lock()
	defer t.mu.Unlock()

	snapshot := make(map[string]*bungie.Activity, len(t.current))
	for playerID, activity := range t.current {
		snapshot[playerID] = activity
	}
	return snapshot
}

// GetTrackingStatus returns a diagnostic snapshot of every tracked player.
func (t *Tracker) GetTrackingStatus() map[string]PlayerStatus {
	t.mu.Lock()
	defer t.mu.Unlock()

	status := make(map[string]PlayerStatus, len(t.configs))
	for playerID, config := range t.configs {
		_, tracking := t.loops[playerID]
		status[playerID] = PlayerStatus{
			Config:          config,
			CurrentActivity: t.current[playerID],
			IsTracking:      tracking,
		}
	}
	return status
}

// startPlayerLoopLocked cancels any existing loop for the player and starts
// a new one. Caller must hold t.mu.
func (t *Tracker) startPlayerLoopLocked(playerID string) {
	config, ok := t.configs[playerID]
	if !ok {
		return
	}

	if existing, ok := t.loops[playerID]; ok {
		existing.cancel()
	}

	ctx, cancel := context.WithCancel(context.Background())
	loop := &pollLoop{ctx: ctx, cancel: cancel}
	t.loops[playerID] = loop

	go t.runPlayerLoop(loop, playerID, config)
}

func (t *Tracker) runPlayerLoop(loop *pollLoop, playerID string, config PlayerTrackingConfig) {
	// First check happens immediately, then on the configured interval.
	t.checkPlayer(loop, playerID, config)

	ticker := t.clock.NewTicker(config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-loop.ctx.Done():
			return
		case <-ticker.Chan():
			// A tick can race the cancellation; a cancelled loop must not
			// poll again.
			if loop.ctx.Err() != nil {
				return
			}
			t.checkPlayer(loop, playerID, config)
		}
	}
}

// checkPlayer performs one poll for one player. A failed fetch leaves state
// untouched and raises nothing; the loop stays on schedule.
func (t *Tracker) checkPlayer(loop *pollLoop, playerID string, config PlayerTrackingConfig) {
	activity, err := t.provider.GetCurrentActivity(loop.ctx, config.MembershipType, config.MembershipID, config.CharacterID)
	if err != nil {
		log.Error().Err(err).Str("player_id", playerID).Msg("activity check failed")
		return
	}

	t.mu.Lock()
	// The loop may have been cancelled or replaced while the fetch was in
	// flight; its result must not mutate state or fire listeners.
	if t.loops[playerID] != loop || loop.ctx.Err() != nil {
		t.mu.Unlock()
		return
	}

	previous := t.current[playerID]
	if !hasActivityChanged(previous, activity) {
		t.mu.Unlock()
		return
	}

	t.current[playerID] = activity
	event := ActivityChangeEvent{
		PlayerID:         playerID,
		PreviousActivity: previous,
		CurrentActivity:  activity,
		Timestamp:        t.clock.Now(),
	}
	listeners := make([]ChangeListener, len(t.listeners))
	copy(listeners, t.listeners)
	t.mu.Unlock()

	log.Info().
		Str("player_id", playerID).
		Str("previous", activityName(previous)).
		Str("current", activityName(activity)).
		Msg("activity change detected")

	for _, listener := range listeners {
		notifyListener(listener, event)
	}
}

// hasActivityChanged compares by activity identifier only, so cosmetic
// payload differences never count as a transition.
func hasActivityChanged(previous, current *bungie.Activity) bool {
	if previous == nil && current == nil {
		return false
	}
	if previous == nil || current == nil {
		return true
	}
	return previous.ActivityID != current.ActivityID
}

func notifyListener(listener ChangeListener, event ActivityChangeEvent) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Interface("panic", r).
				Str("player_id", event.PlayerID).
				Msg("activity change listener panicked")
		}
	}()
	listener(event)
}

func activityName(activity *bungie.Activity) string {
	if activity == nil {
		return "Aucune"
	}
	return activity.ActivityName
}
