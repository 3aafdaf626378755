package main

import (
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/guardianhud/guardianhud/clients/bungie"
	"github.com/guardianhud/guardianhud/internal/events"
	"github.com/guardianhud/guardianhud/internal/gateway"
	"github.com/guardianhud/guardianhud/internal/timer"
	"github.com/guardianhud/guardianhud/internal/tracker"
)

// Services holds every component built by the composition root. Nothing in
// here is a package-level singleton; everything is passed by reference.
type Services struct {
	Bungie  *bungie.Client
	Engine  *timer.Engine
	Tracker *tracker.Tracker
	Gateway *gateway.Service
}

func setupServices(config *Config, apiKey string) *Services {
	clock := clockwork.NewRealClock()

	bungieClient := bungie.NewClient(apiKey)
	engine := timer.NewEngine(config.updateInterval(), clock)
	watcher := tracker.NewTracker(bungieClient, clock)

	for _, player := range config.Tracking.Players {
		watcher.AddPlayer(player.ID, tracker.PlayerTrackingConfig{
			MembershipType: player.MembershipType,
			MembershipID:   player.MembershipID,
			CharacterID:    player.CharacterID,
			CheckInterval:  time.Duration(player.CheckIntervalMs) * time.Millisecond,
		})
	}

	publisher := setupPublisher(config)

	gatewayService := gateway.NewService(gateway.DefaultConfig(), engine, watcher, bungieClient, publisher)

	return &Services{
		Bungie:  bungieClient,
		Engine:  engine,
		Tracker: watcher,
		Gateway: gatewayService,
	}
}

// setupPublisher connects the event bus bridge when a NATS URL is
// configured, otherwise broadcasts stay WebSocket-only.
func setupPublisher(config *Config) events.Publisher {
	url := getEnv("NATS_URL", config.NATS.URL)
	if url == "" {
		log.Info().Msg("no NATS URL configured, event bus disabled")
		return events.NopPublisher{}
	}

	natsConfig := events.DefaultNATSConfig()
	natsConfig.URL = url
	if config.NATS.SubjectPrefix != "" {
		natsConfig.SubjectPrefix = config.NATS.SubjectPrefix
	}

	publisher, err := events.NewNATSPublisher(natsConfig)
	if err != nil {
		log.Error().Err(err).Str("url", url).Msg("failed to connect event publisher, continuing without it")
		return events.NopPublisher{}
	}
	return publisher
}
