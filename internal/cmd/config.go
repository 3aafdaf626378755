package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the yaml configuration surface: server port, recompute
// interval and the players to watch. The Bungie API key only ever comes
// from the environment.
type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Timers struct {
		UpdateIntervalMs int `yaml:"update_interval_ms"`
	} `yaml:"timers"`
	Tracking struct {
		Players []PlayerConfig `yaml:"players"`
	} `yaml:"tracking"`
	NATS struct {
		URL           string `yaml:"url"`
		SubjectPrefix string `yaml:"subject_prefix"`
	} `yaml:"nats"`
}

// PlayerConfig identifies one tracked character.
type PlayerConfig struct {
	ID              string `yaml:"id"`
	MembershipType  string `yaml:"membership_type"`
	MembershipID    string `yaml:"membership_id"`
	CharacterID     string `yaml:"character_id"`
	CheckIntervalMs int    `yaml:"check_interval_ms"`
}

func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) validate() error {
	if c.Timers.UpdateIntervalMs < 0 {
		return fmt.Errorf("timers.update_interval_ms must be positive, got %d", c.Timers.UpdateIntervalMs)
	}
	for _, player := range c.Tracking.Players {
		if player.ID == "" {
			return fmt.Errorf("tracking player is missing an id")
		}
		if player.CheckIntervalMs <= 0 {
			return fmt.Errorf("player %s: check_interval_ms must be positive, got %d", player.ID, player.CheckIntervalMs)
		}
	}
	return nil
}

func (c *Config) updateInterval() time.Duration {
	if c.Timers.UpdateIntervalMs == 0 {
		return time.Second
	}
	return time.Duration(c.Timers.UpdateIntervalMs) * time.Millisecond
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
