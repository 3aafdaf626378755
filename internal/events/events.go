package events

import (
	"encoding/json"
	"time"
)

// Type tags every message sent to display sinks and to the event bus.
type Type string

const (
	TypeTimerStarted    Type = "TIMER_STARTED"
	TypeTimerStopped    Type = "TIMER_STOPPED"
	TypeTimerUpdate     Type = "TIMER_UPDATE"
	TypeActiveTimers    Type = "ACTIVE_TIMERS"
	TypeActivityChanged Type = "ACTIVITY_CHANGED"
	TypePing            Type = "PING"
	TypePong            Type = "PONG"
)

// Message is the tagged payload consumed by display sinks.
type Message struct {
	Type Type            `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// NewMessage marshals data into a tagged message. A marshal failure is a
// programming error in the payload type, so it surfaces as an error rather
// than a half-built message.
func NewMessage(eventType Type, data interface{}) (Message, error) {
	if data == nil {
		return Message{Type: eventType}, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: eventType, Data: raw}, nil
}

// Envelope wraps a message for the event bus, mirroring the shape other
// services consume.
type Envelope struct {
	EventID   string          `json:"eventId"`
	EventType Type            `json:"eventType"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}
