package timer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

const DefaultUpdateInterval = time.Second

// Engine owns the timer map and the periodic recompute pass that derives
// elapsed time from wall-clock deltas and fans updates out to observers.
// The map is mutated both by API calls and by the tick goroutine, so every
// access goes through the mutex.
type Engine struct {
	mu             sync.Mutex
	timers         map[string]*Timer
	order          []string // insertion order for listings
	callbacks      []UpdateCallback
	updateInterval time.Duration
	clock          clockwork.Clock

	ticking    bool
	cancelTick context.CancelFunc
}

// NewEngine creates a timer engine. In production pass
// clockwork.NewRealClock(); tests use a fake clock.
func NewEngine(updateInterval time.Duration, clock clockwork.Clock) *Engine {
	if updateInterval <= 0 {
		updateInterval = DefaultUpdateInterval
	}
	return &Engine{
		timers:         make(map[string]*Timer),
		updateInterval: updateInterval,
		clock:          clock,
	}
}

// StartTimer creates and stores a new active timer. It always succeeds.
func (e *Engine) StartTimer(activityType string, expectedDuration int) Timer {
	e.mu.Lock()
	defer e.mu.Unlock()

	t := &Timer{
		ID:               e.generateTimerID(),
		ActivityType:     activityType,
		StartTime:        e.clock.Now(),
		ExpectedDuration: expectedDuration,
		IsActive:         true,
		CurrentTime:      0,
	}

	e.timers[t.ID] = t
	e.order = append(e.order, t.ID)

	log.Info().
		Str("timer_id", t.ID).
		Str("activity_type", activityType).
		Int("expected_duration_sec", expectedDuration).
		Msg("timer started")

	return *t
}

// StopTimer freezes an active timer at its current elapsed time. Stop is
// terminal: a stopped timer never becomes active again, and a second stop
// reports failure with the frozen final time.
func (e *Engine) StopTimer(timerID string) StopResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.timers[timerID]
	if !ok {
		return StopResult{
			Success: false,
			Message: fmt.Sprintf("timer %s not found", timerID),
		}
	}

	if !t.IsActive {
		final := t.CurrentTime
		return StopResult{
			Success:   false,
			FinalTime: &final,
			Message:   fmt.Sprintf("timer %s already stopped", timerID),
		}
	}

	final := e.elapsedSeconds(t)
	t.CurrentTime = final
	t.IsActive = false

	log.Info().
		Str("timer_id", timerID).
		Str("activity_type", t.ActivityType).
		Str("final_time", FormatTime(final)).
		Msg("timer stopped")

	return StopResult{
		Success:   true,
		FinalTime: &final,
		Message:   fmt.Sprintf("timer stopped after %s", FormatTime(final)),
	}
}

// GetTimer returns a copy of the timer, refreshed from the clock when still
// active.
func (e *Engine) GetTimer(timerID string) (Timer, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.timers[timerID]
	if !ok {
		return Timer{}, false
	}
	snapshot := *t
	if t.IsActive {
		snapshot.CurrentTime = e.elapsedSeconds(t)
	}
	return snapshot, true
}

// GetActiveTimers returns copies of all active timers in insertion order.
func (e *Engine) GetActiveTimers() []Timer {
	return e.listTimers(true)
}

// GetAllTimers returns copies of every timer, stopped ones included, in
// insertion order.
func (e *Engine) GetAllTimers() []Timer {
	return e.listTimers(false)
}

func (e *Engine) listTimers(activeOnly bool) []Timer {
	e.mu.Lock()
	defer e.mu.Unlock()

	timers := make([]Timer, 0, len(e.order))
	for _, id := range e.order {
		t, ok := e.timers[id]
		if !ok || (activeOnly && !t.IsActive) {
			continue
		}
		snapshot := *t
		if t.IsActive {
			snapshot.CurrentTime = e.elapsedSeconds(t)
		}
		timers = append(timers, snapshot)
	}
	return timers
}

// DeleteTimer removes a timer. Returns true iff one was removed.
func (e *Engine) DeleteTimer(timerID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.timers[timerID]; !ok {
		return false
	}
	delete(e.timers, timerID)
	for i, id := range e.order {
		if id == timerID {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}

	log.Info().Str("timer_id", timerID).Msg("timer deleted")
	return true
}

// ClearAllTimers removes every timer unconditionally.
func (e *Engine) ClearAllTimers() {
	e.mu.Lock()
	defer e.mu.Unlock()

	count := len(e.timers)
	e.timers = make(map[string]*Timer)
	e.order = nil

	log.Info().Int("count", count).Msg("all timers cleared")
}

// GetTimerProgress returns the timer's progress percentage, clamped to 100.
// It returns false when the timer is unknown or has no expected duration.
func (e *Engine) GetTimerProgress(timerID string) (float64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.timers[timerID]
	if !ok || t.ExpectedDuration <= 0 {
		return 0, false
	}

	current := t.CurrentTime
	if t.IsActive {
		current = e.elapsedSeconds(t)
	}

	progress := float64(current) / float64(t.ExpectedDuration) * 100
	if progress > 100 {
		progress = 100
	}
	return progress, true
}

// StartUpdates starts the periodic recompute pass. Calling it again while
// the pass is running does not schedule a second loop; a non-nil callback
// is still registered as an additional observer.
func (e *Engine) StartUpdates(callback UpdateCallback) {
	e.mu.Lock()
	if callback != nil {
		e.callbacks = append(e.callbacks, callback)
	}
	if e.ticking {
		e.mu.Unlock()
		return
	}
	e.ticking = true
	ctx, cancel := context.WithCancel(context.Background())
	e.cancelTick = cancel
	e.mu.Unlock()

	go e.runUpdates(ctx)

	log.Info().Dur("interval", e.updateInterval).Msg("timer updates started")
}

// StopUpdates cancels the periodic pass. Safe to call when not running.
func (e *Engine) StopUpdates() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.ticking {
		return
	}
	e.cancelTick()
	e.cancelTick = nil
	e.ticking = false

	log.Info().Msg("timer updates stopped")
}

// OnUpdate registers an additional observer without touching the running
// state of the recompute pass.
func (e *Engine) OnUpdate(callback UpdateCallback) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.callbacks = append(e.callbacks, callback)
}

func (e *Engine) runUpdates(ctx context.Context) {
	ticker := e.clock.NewTicker(e.updateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			// A tick can race the cancellation; its updates must not be
			// delivered once the pass has been stopped.
			if ctx.Err() != nil {
				return
			}
			e.tick()
		}
	}
}

// tick recomputes every active timer and notifies observers in registration
// order. Inactive timers are skipped; their last state stands.
func (e *Engine) tick() {
	e.mu.Lock()
	updates := make([]Update, 0, len(e.order))
	for _, id := range e.order {
		t, ok := e.timers[id]
		if !ok || !t.IsActive {
			continue
		}

		current := e.elapsedSeconds(t)
		t.CurrentTime = current

		update := Update{
			TimerID:     t.ID,
			CurrentTime: current,
			IsActive:    true,
		}
		if t.ExpectedDuration > 0 {
			progress := float64(current) / float64(t.ExpectedDuration) * 100
			update.Progress = &progress
		}
		updates = append(updates, update)
	}
	callbacks := make([]UpdateCallback, len(e.callbacks))
	copy(callbacks, e.callbacks)
	e.mu.Unlock()

	for _, update := range updates {
		for _, callback := range callbacks {
			notify(callback, update)
		}
	}
}

func notify(callback UpdateCallback, update Update) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Interface("panic", r).
				Str("timer_id", update.TimerID).
				Msg("timer update callback panicked")
		}
	}()
	callback(update)
}

func (e *Engine) elapsedSeconds(t *Timer) int64 {
	return int64(e.clock.Now().Sub(t.StartTime) / time.Second)
}

// generateTimerID combines a wall-clock component with a random suffix.
// Caller must hold e.mu.
func (e *Engine) generateTimerID() string {
	return fmt.Sprintf("timer_%d_%s", e.clock.Now().UnixMilli(), uuid.New().String()[:8])
}
