package tracker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guardianhud/guardianhud/clients/bungie"
)

// stubProvider returns a configurable activity or error and counts calls.
type stubProvider struct {
	mu       sync.Mutex
	activity *bungie.Activity
	err      error
	calls    int
}

func (p *stubProvider) GetCurrentActivity(_ context.Context, _, _, _ string) (*bungie.Activity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return p.activity, p.err
}

func (p *stubProvider) set(activity *bungie.Activity, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.activity = activity
	p.err = err
}

func (p *stubProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func activityWithID(id, name string) *bungie.Activity {
	return &bungie.Activity{
		ActivityID:   id,
		ActivityType: "Raid",
		ActivityName: name,
	}
}

func testConfig() PlayerTrackingConfig {
	return PlayerTrackingConfig{
		MembershipType: "3",
		MembershipID:   "4611686018467260757",
		CharacterID:    "2305843009301702194",
		CheckInterval:  10 * time.Second,
	}
}

func newTestTracker(t *testing.T) (*Tracker, *stubProvider, *clockwork.FakeClock, chan ActivityChangeEvent) {
	t.Helper()
	provider := &stubProvider{}
	clk := clockwork.NewFakeClockAt(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	tr := NewTracker(provider, clk)

	events := make(chan ActivityChangeEvent, 16)
	tr.OnActivityChange(func(ev ActivityChangeEvent) { events <- ev })

	t.Cleanup(tr.StopTracking)
	return tr, provider, clk, events
}

func receiveEvent(t *testing.T, events <-chan ActivityChangeEvent) ActivityChangeEvent {
	t.Helper()
	select {
	case ev := <-events:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for activity change event")
		return ActivityChangeEvent{}
	}
}

func assertNoEvent(t *testing.T, events <-chan ActivityChangeEvent) {
	t.Helper()
	select {
	case ev := <-events:
		t.Fatalf("unexpected change event for player %s", ev.PlayerID)
	case <-time.After(100 * time.Millisecond):
	}
}

// waitForCalls blocks until the provider has served at least n polls.
func waitForCalls(t *testing.T, provider *stubProvider, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return provider.callCount() >= n
	}, 2*time.Second, 5*time.Millisecond)
}

func TestFirstObservationRaisesChangeFromNone(t *testing.T) {
	tr, provider, _, events := newTestTracker(t)
	provider.set(activityWithID("raid-1", "Jardin du salut"), nil)

	tr.AddPlayer("player1", testConfig())

	ev := receiveEvent(t, events)
	assert.Equal(t, "player1", ev.PlayerID)
	assert.Nil(t, ev.PreviousActivity)
	require.NotNil(t, ev.CurrentActivity)
	assert.Equal(t, "raid-1", ev.CurrentActivity.ActivityID)
}

func TestSameActivityIDRaisesNoEvent(t *testing.T) {
	tr, provider, clk, events := newTestTracker(t)
	provider.set(activityWithID("raid-1", "Jardin du salut"), nil)

	tr.AddPlayer("player1", testConfig())
	receiveEvent(t, events)

	// Same id with a different display name is not a transition.
	provider.set(activityWithID("raid-1", "Garden of Salvation"), nil)
	clk.BlockUntil(1)
	clk.Advance(10 * time.Second)
	waitForCalls(t, provider, 2)

	assertNoEvent(t, events)
}

func TestActivityIDChangeRaisesEvent(t *testing.T) {
	tr, provider, clk, events := newTestTracker(t)
	provider.set(activityWithID("raid-1", "Jardin du salut"), nil)

	tr.AddPlayer("player1", testConfig())
	receiveEvent(t, events)

	provider.set(activityWithID("strike-7", "Grève du Gouffre"), nil)
	clk.BlockUntil(1)
	clk.Advance(10 * time.Second)

	ev := receiveEvent(t, events)
	require.NotNil(t, ev.PreviousActivity)
	assert.Equal(t, "raid-1", ev.PreviousActivity.ActivityID)
	require.NotNil(t, ev.CurrentActivity)
	assert.Equal(t, "strike-7", ev.CurrentActivity.ActivityID)
}

func TestLeavingActivityRaisesEventWithNilCurrent(t *testing.T) {
	tr, provider, clk, events := newTestTracker(t)
	provider.set(activityWithID("raid-1", "Jardin du salut"), nil)

	tr.AddPlayer("player1", testConfig())
	receiveEvent(t, events)

	provider.set(nil, nil)
	clk.BlockUntil(1)
	clk.Advance(10 * time.Second)

	ev := receiveEvent(t, events)
	require.NotNil(t, ev.PreviousActivity)
	assert.Nil(t, ev.CurrentActivity)
}

func TestProviderFailureLeavesStateUntouched(t *testing.T) {
	tr, provider, clk, events := newTestTracker(t)
	provider.set(activityWithID("raid-1", "Jardin du salut"), nil)

	tr.AddPlayer("player1", testConfig())
	receiveEvent(t, events)

	// A failed poll raises nothing and keeps the last known-good value.
	provider.set(nil, errors.New("bungie API error (5): SystemDisabled"))
	clk.BlockUntil(1)
	clk.Advance(10 * time.Second)
	waitForCalls(t, provider, 2)
	assertNoEvent(t, events)

	current := tr.GetCurrentActivity("player1")
	require.NotNil(t, current)
	assert.Equal(t, "raid-1", current.ActivityID)

	// The next successful poll detects change against the known-good value.
	provider.set(activityWithID("strike-7", "Grève du Gouffre"), nil)
	clk.BlockUntil(1)
	clk.Advance(10 * time.Second)

	ev := receiveEvent(t, events)
	require.NotNil(t, ev.PreviousActivity)
	assert.Equal(t, "raid-1", ev.PreviousActivity.ActivityID)
	assert.Equal(t, "strike-7", ev.CurrentActivity.ActivityID)
}

func TestBothAbsentIsNoChange(t *testing.T) {
	tr, provider, clk, events := newTestTracker(t)
	provider.set(nil, nil)

	tr.AddPlayer("player1", testConfig())
	waitForCalls(t, provider, 1)
	assertNoEvent(t, events)

	clk.BlockUntil(1)
	clk.Advance(10 * time.Second)
	waitForCalls(t, provider, 2)
	assertNoEvent(t, events)
}

func TestRemovePlayerStopsPolling(t *testing.T) {
	tr, provider, clk, events := newTestTracker(t)
	provider.set(activityWithID("raid-1", "Jardin du salut"), nil)

	tr.AddPlayer("player1", testConfig())
	receiveEvent(t, events)
	clk.BlockUntil(1)

	tr.RemovePlayer("player1")
	assert.Nil(t, tr.GetCurrentActivity("player1"))

	calls := provider.callCount()
	clk.Advance(30 * time.Second)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, calls, provider.callCount())

	// Removing again is harmless.
	tr.RemovePlayer("player1")
}

func TestStopTrackingRetainsConfigAndState(t *testing.T) {
	tr, provider, clk, events := newTestTracker(t)
	provider.set(activityWithID("raid-1", "Jardin du salut"), nil)

	tr.AddPlayer("player1", testConfig())
	receiveEvent(t, events)
	clk.BlockUntil(1)

	tr.StopTracking()

	status := tr.GetTrackingStatus()
	require.Contains(t, status, "player1")
	assert.False(t, status["player1"].IsTracking)
	require.NotNil(t, status["player1"].CurrentActivity)

	// Resuming picks up where it left off; the identical activity does not
	// produce a fresh event.
	tr.StartTracking()
	waitForCalls(t, provider, 2)
	assertNoEvent(t, events)

	status = tr.GetTrackingStatus()
	assert.True(t, status["player1"].IsTracking)
}

func TestGetAllCurrentActivitiesReturnsSnapshot(t *testing.T) {
	tr, provider, _, events := newTestTracker(t)
	provider.set(activityWithID("raid-1", "Jardin du salut"), nil)

	tr.AddPlayer("player1", testConfig())
	receiveEvent(t, events)

	snapshot := tr.GetAllCurrentActivities()
	require.Contains(t, snapshot, "player1")

	// Mutating the snapshot must not touch tracker state.
	snapshot["player1"] = nil
	delete(snapshot, "player1")
	require.NotNil(t, tr.GetCurrentActivity("player1"))
}

func TestListenerPanicDoesNotStopDelivery(t *testing.T) {
	provider := &stubProvider{}
	clk := clockwork.NewFakeClockAt(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	tr := NewTracker(provider, clk)
	t.Cleanup(tr.StopTracking)

	events := make(chan ActivityChangeEvent, 16)
	tr.OnActivityChange(func(ActivityChangeEvent) { panic("bad listener") })
	tr.OnActivityChange(func(ev ActivityChangeEvent) { events <- ev })

	provider.set(activityWithID("raid-1", "Jardin du salut"), nil)
	tr.AddPlayer("player1", testConfig())

	ev := receiveEvent(t, events)
	assert.Equal(t, "raid-1", ev.CurrentActivity.ActivityID)
}
