package gateway

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/guardianhud/guardianhud/internal/events"
	"github.com/guardianhud/guardianhud/internal/timer"
	"github.com/guardianhud/guardianhud/internal/tracker"
)

// Service ties the timer engine and activity tracker to the display sinks:
// it subscribes to both, forwards their updates to every connected
// WebSocket client, and mirrors everything onto the event bus.
type Service struct {
	engine            *timer.Engine
	tracker           *tracker.Tracker
	connectionManager *ConnectionManager
	wsHandler         *WebSocketHandler
	apiHandler        *APIHandler
	publisher         events.Publisher
}

// Config holds configuration for the gateway service.
type Config struct {
	ConnectionConfig ConnectionConfig
}

// DefaultConfig returns default configuration for the gateway.
func DefaultConfig() Config {
	return Config{
		ConnectionConfig: DefaultConnectionConfig(),
	}
}

// NewService creates the gateway and registers it as an observer on the
// engine and the tracker.
func NewService(config Config, engine *timer.Engine, watcher *tracker.Tracker, profile ProfileProvider, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}

	connectionManager := NewConnectionManager(config.ConnectionConfig, engine)

	s := &Service{
		engine:            engine,
		tracker:           watcher,
		connectionManager: connectionManager,
		wsHandler:         NewWebSocketHandler(connectionManager),
		publisher:         publisher,
	}
	s.apiHandler = NewAPIHandler(engine, watcher, profile, s.Notify)

	engine.OnUpdate(s.onTimerUpdate)
	watcher.OnActivityChange(s.onActivityChange)

	return s
}

// Start begins broadcasting, the timer recompute pass and activity
// tracking, then blocks until the context is cancelled.
func (s *Service) Start(ctx context.Context) error {
	log.Info().Msg("starting gateway service")

	go s.connectionManager.Start(ctx)

	s.engine.StartUpdates(nil)
	s.tracker.StartTracking()

	<-ctx.Done()

	log.Info().Msg("gateway service shutting down")
	return s.Stop()
}

// Stop halts the recompute pass, the poll loops and the event bus
// connection.
func (s *Service) Stop() error {
	s.engine.StopUpdates()
	s.tracker.StopTracking()
	s.publisher.Close()

	log.Info().Msg("gateway service stopped")
	return nil
}

// RegisterRoutes registers the WebSocket and REST routes.
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	s.wsHandler.RegisterRoutes(mux)
	s.apiHandler.RegisterRoutes(mux)
	log.Info().Msg("gateway routes registered")
}

// Notify fans one event out to every attached sink and onto the event bus.
func (s *Service) Notify(eventType events.Type, data interface{}) {
	message, err := events.NewMessage(eventType, data)
	if err != nil {
		log.Error().Err(err).Str("type", string(eventType)).Msg("failed to build broadcast message")
		return
	}
	s.connectionManager.Broadcast(message)

	if err := s.publisher.Publish(eventType, data); err != nil {
		log.Error().Err(err).Str("type", string(eventType)).Msg("failed to publish event")
	}
}

// GetStats returns statistics about the gateway service.
func (s *Service) GetStats() map[string]interface{} {
	stats := s.connectionManager.GetConnectionStats()
	stats["service"] = "overlay_gateway"
	stats["status"] = "running"
	return stats
}

func (s *Service) onTimerUpdate(update timer.Update) {
	s.Notify(events.TypeTimerUpdate, update)
}

func (s *Service) onActivityChange(event tracker.ActivityChangeEvent) {
	s.Notify(events.TypeActivityChanged, event)
}
