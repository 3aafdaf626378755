package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/guardianhud/guardianhud/clients/bungie"
	"github.com/guardianhud/guardianhud/internal/events"
	"github.com/guardianhud/guardianhud/internal/timer"
	"github.com/guardianhud/guardianhud/internal/tracker"
)

// ProfileProvider is the slice of the Bungie client the REST proxy routes
// need.
type ProfileProvider interface {
	GetProfile(ctx context.Context, membershipType, membershipID string) (json.RawMessage, error)
	GetRecentActivities(ctx context.Context, membershipType, membershipID string) ([]bungie.Activity, error)
}

// NotifyFunc forwards a broadcast-worthy event to the connected sinks and
// the event bus.
type NotifyFunc func(eventType events.Type, data interface{})

// APIHandler serves the REST operations: timer start/stop/list, tracking
// diagnostics, Bungie profile proxies and the health probe.
type APIHandler struct {
	engine  *timer.Engine
	tracker *tracker.Tracker
	profile ProfileProvider
	notify  NotifyFunc
}

func NewAPIHandler(engine *timer.Engine, watcher *tracker.Tracker, profile ProfileProvider, notify NotifyFunc) *APIHandler {
	if notify == nil {
		notify = func(events.Type, interface{}) {}
	}
	return &APIHandler{
		engine:  engine,
		tracker: watcher,
		profile: profile,
		notify:  notify,
	}
}

type startTimerRequest struct {
	ActivityType     string `json:"activityType"`
	ExpectedDuration int    `json:"expectedDuration"`
}

// HandleHealth handles GET /api/health.
func (h *APIHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"status":    "OK",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HandleStartTimer handles POST /api/timer/start.
func (h *APIHandler) HandleStartTimer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req startTimerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.ActivityType == "" {
		http.Error(w, "activityType is required", http.StatusBadRequest)
		return
	}
	if req.ExpectedDuration < 0 {
		http.Error(w, "expectedDuration must be positive", http.StatusBadRequest)
		return
	}

	started := h.engine.StartTimer(req.ActivityType, req.ExpectedDuration)
	h.notify(events.TypeTimerStarted, started)

	writeJSON(w, started)
}

// HandleStopTimer handles POST /api/timer/stop/{timerId}.
func (h *APIHandler) HandleStopTimer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	timerID := strings.TrimPrefix(r.URL.Path, "/api/timer/stop/")
	if timerID == "" || strings.Contains(timerID, "/") {
		http.Error(w, "Timer ID is required", http.StatusBadRequest)
		return
	}

	result := h.engine.StopTimer(timerID)
	h.notify(events.TypeTimerStopped, map[string]interface{}{
		"timerId": timerID,
		"result":  result,
	})

	writeJSON(w, result)
}

// HandleListTimers handles GET /api/timers.
func (h *APIHandler) HandleListTimers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.engine.GetActiveTimers())
}

// HandleTypicalDuration handles GET /api/durations/{activityType}. The
// lookup is a display hint for pre-filling the expected duration.
func (h *APIHandler) HandleTypicalDuration(w http.ResponseWriter, r *http.Request) {
	activityType := strings.TrimPrefix(r.URL.Path, "/api/durations/")
	if activityType == "" {
		http.Error(w, "Activity type is required", http.StatusBadRequest)
		return
	}

	duration, ok := timer.TypicalDuration(activityType)
	if !ok {
		http.Error(w, "Unknown activity type", http.StatusNotFound)
		return
	}

	writeJSON(w, map[string]interface{}{
		"activityType":     activityType,
		"expectedDuration": duration,
	})
}

// HandleTrackingStatus handles GET /api/tracking/status.
func (h *APIHandler) HandleTrackingStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.tracker.GetTrackingStatus())
}

// HandleGetPlayer handles GET /api/player/{membershipType}/{membershipId}.
func (h *APIHandler) HandleGetPlayer(w http.ResponseWriter, r *http.Request) {
	membershipType, membershipID, ok := splitMembershipPath(r.URL.Path, "/api/player/")
	if !ok {
		http.Error(w, "membershipType and membershipId are required", http.StatusBadRequest)
		return
	}

	profile, err := h.profile.GetProfile(r.Context(), membershipType, membershipID)
	if err != nil {
		log.Error().Err(err).Str("membership_id", membershipID).Msg("failed to get player profile")
		http.Error(w, "Failed to get player profile", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(profile)
}

// HandleGetActivities handles GET /api/activities/{membershipType}/{membershipId}.
func (h *APIHandler) HandleGetActivities(w http.ResponseWriter, r *http.Request) {
	membershipType, membershipID, ok := splitMembershipPath(r.URL.Path, "/api/activities/")
	if !ok {
		http.Error(w, "membershipType and membershipId are required", http.StatusBadRequest)
		return
	}

	activities, err := h.profile.GetRecentActivities(r.Context(), membershipType, membershipID)
	if err != nil {
		log.Error().Err(err).Str("membership_id", membershipID).Msg("failed to get recent activities")
		http.Error(w, "Failed to get recent activities", http.StatusInternalServerError)
		return
	}

	writeJSON(w, activities)
}

// RegisterRoutes registers the REST routes with an HTTP mux.
func (h *APIHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/health", h.HandleHealth)
	mux.HandleFunc("/api/timer/start", h.HandleStartTimer)
	mux.HandleFunc("/api/timer/stop/", h.HandleStopTimer)
	mux.HandleFunc("/api/timers", h.HandleListTimers)
	mux.HandleFunc("/api/durations/", h.HandleTypicalDuration)
	mux.HandleFunc("/api/tracking/status", h.HandleTrackingStatus)
	mux.HandleFunc("/api/player/", h.HandleGetPlayer)
	mux.HandleFunc("/api/activities/", h.HandleGetActivities)
}

// splitMembershipPath extracts {membershipType}/{membershipId} after the
// given prefix.
func splitMembershipPath(path, prefix string) (string, string, bool) {
	rest := strings.TrimPrefix(path, prefix)
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

func writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
