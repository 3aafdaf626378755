package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// Publisher forwards broadcast messages to an event bus for consumers other
// than the connected display sinks.
type Publisher interface {
	Publish(eventType Type, payload interface{}) error
	Close()
}

// NATSPublisher publishes envelopes to per-type NATS subjects.
type NATSPublisher struct {
	nc            *nats.Conn
	subjectPrefix string
}

// NATSConfig holds connection settings for the event bus.
type NATSConfig struct {
	URL           string
	SubjectPrefix string
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultNATSConfig returns default event bus settings.
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:           nats.DefaultURL,
		SubjectPrefix: "overlay.events",
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
	}
}

// NewNATSPublisher connects to NATS and returns a publisher.
func NewNATSPublisher(config NATSConfig) (*NATSPublisher, error) {
	opts := []nats.Option{
		nats.MaxReconnects(config.MaxReconnects),
		nats.ReconnectWait(config.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}

	nc, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	log.Info().Str("url", config.URL).Str("subject_prefix", config.SubjectPrefix).Msg("event publisher connected")

	return &NATSPublisher{
		nc:            nc,
		subjectPrefix: config.SubjectPrefix,
	}, nil
}

func (p *NATSPublisher) Publish(eventType Type, payload interface{}) error {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}

	envelope := Envelope{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now().UTC(),
		Payload:   payloadBytes,
	}

	messageBytes, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	subject := fmt.Sprintf("%s.%s", p.subjectPrefix, eventType)
	if err := p.nc.Publish(subject, messageBytes); err != nil {
		return fmt.Errorf("publish to %s: %w", subject, err)
	}
	return nil
}

func (p *NATSPublisher) Close() {
	if p.nc != nil {
		p.nc.Close()
	}
}

// NopPublisher is used when no event bus is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(Type, interface{}) error { return nil }
func (NopPublisher) Close()                          {}
