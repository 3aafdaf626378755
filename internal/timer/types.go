package timer

import "time"

// Timer is one elapsed-time session for one activity instance.
type Timer struct {
	ID           string    `json:"id"`
	ActivityType string    `json:"activityType"`
	StartTime    time.Time `json:"startTime"`
	// ExpectedDuration is in seconds; 0 means no expectation and therefore
	// no progress.
	ExpectedDuration int   `json:"expectedDuration,omitempty"`
	IsActive         bool  `json:"isActive"`
	CurrentTime      int64 `json:"currentTime"`
}

// Update is pushed to observers on every recompute tick, once per active
// timer.
type Update struct {
	TimerID     string   `json:"timerId"`
	CurrentTime int64    `json:"currentTime"`
	IsActive    bool     `json:"isActive"`
	Progress    *float64 `json:"progress,omitempty"`
}

// UpdateCallback receives timer updates. Panics inside a callback are
// recovered and logged so one bad observer cannot starve the others.
type UpdateCallback func(Update)

// StopResult reports the outcome of a stop request. A stop on an unknown id
// carries no FinalTime; a stop on an already-stopped timer carries the
// frozen one.
type StopResult struct {
	Success   bool   `json:"success"`
	FinalTime *int64 `json:"finalTime,omitempty"`
	Message   string `json:"message"`
}
