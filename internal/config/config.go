// Tidewatch - Live Maritime Conditions Map
// Copyright 2026 Tidewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tidewatch/tidewatch

// Package config defines the Tidewatch configuration model and its layered
// loading: struct defaults, optional YAML file, environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/tidewatch/tidewatch/internal/geo"
)

// Config is the root configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Stream   StreamConfig   `koanf:"stream"`
	AQI      AQIConfig      `koanf:"aqi"`
	Waves    WavesConfig    `koanf:"waves"`
	Cyclones CyclonesConfig `koanf:"cyclones"`
	Cache    CacheConfig    `koanf:"cache"`
	Store    StoreConfig    `koanf:"store"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// StreamConfig configures the AIS websocket ingestor.
type StreamConfig struct {
	URL    string `koanf:"url"`
	APIKey string `koanf:"api_key"`

	// Regions are "minLat,minLon,maxLat,maxLon" boxes sent in the stream
	// subscription. Via env the list is semicolon-separated because the
	// entries themselves contain commas.
	Regions []string `koanf:"regions"`

	ReconnectDelay   time.Duration `koanf:"reconnect_delay"`
	HandshakeTimeout time.Duration `koanf:"handshake_timeout"`
}

// Boxes parses the configured regions into bounding boxes.
func (s StreamConfig) Boxes() ([]geo.BoundingBox, error) {
	boxes := make([]geo.BoundingBox, 0, len(s.Regions))
	for _, r := range s.Regions {
		box, err := geo.ParseBox(r)
		if err != nil {
			return nil, fmt.Errorf("stream region %q: %w", r, err)
		}
		boxes = append(boxes, box)
	}
	return boxes, nil
}

// AQIConfig configures the air-quality upstream.
type AQIConfig struct {
	URL     string        `koanf:"url"`
	Token   string        `koanf:"token"`
	Timeout time.Duration `koanf:"timeout"`
}

// WavesConfig configures the marine-weather upstream.
type WavesConfig struct {
	URL     string        `koanf:"url"`
	Timeout time.Duration `koanf:"timeout"`

	// GridStep is the sampling interval in degrees; MaxPoints caps how many
	// grid points a single viewport may fan out to.
	GridStep          float64 `koanf:"grid_step"`
	MaxPoints         int     `koanf:"max_points"`
	RequestsPerSecond float64 `koanf:"requests_per_second"`
}

// CyclonesConfig configures the cyclone-advisory upstream.
type CyclonesConfig struct {
	URL     string        `koanf:"url"`
	Timeout time.Duration `koanf:"timeout"`
}

// CacheConfig configures the pull-source response cache.
type CacheConfig struct {
	TTL      time.Duration `koanf:"ttl"`
	Capacity int           `koanf:"capacity"`
}

// StoreConfig configures the vessel store.
type StoreConfig struct {
	// StaleWindow is how long a vessel position stays queryable without a
	// fresh report.
	StaleWindow time.Duration `koanf:"stale_window"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    8080,
			Timeout: 30 * time.Second,
		},
		Stream: StreamConfig{
			URL:              "wss://stream.aisstream.io/v0/stream",
			APIKey:           "",
			Regions:          []string{"-90,-180,90,180"},
			ReconnectDelay:   5 * time.Second,
			HandshakeTimeout: 10 * time.Second,
		},
		AQI: AQIConfig{
			URL:     "https://api.waqi.info",
			Token:   "",
			Timeout: 10 * time.Second,
		},
		Waves: WavesConfig{
			URL:               "https://marine-api.open-meteo.com/v1/marine",
			Timeout:           10 * time.Second,
			GridStep:          2.0,
			MaxPoints:         24,
			RequestsPerSecond: 8,
		},
		Cyclones: CyclonesConfig{
			URL:     "https://www.gdacs.org/gdacsapi/api/events/geteventlist/MAP",
			Timeout: 10 * time.Second,
		},
		Cache: CacheConfig{
			TTL:      10 * time.Minute,
			Capacity: 128,
		},
		Store: StoreConfig{
			StaleWindow: 30 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate checks the configuration for values that cannot work at runtime.
// A missing AQI token is deliberately NOT an error here; the AQI endpoint
// reports it per-request so the rest of the server stays usable.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Stream.URL == "" {
		return fmt.Errorf("stream.url must not be empty")
	}
	if c.Stream.ReconnectDelay <= 0 {
		return fmt.Errorf("stream.reconnect_delay must be positive")
	}
	if len(c.Stream.Regions) == 0 {
		return fmt.Errorf("stream.regions must not be empty")
	}
	if _, err := c.Stream.Boxes(); err != nil {
		return err
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive")
	}
	if c.Cache.Capacity <= 0 {
		return fmt.Errorf("cache.capacity must be positive")
	}
	if c.Store.StaleWindow <= 0 {
		return fmt.Errorf("store.stale_window must be positive")
	}
	if c.Waves.GridStep <= 0 {
		return fmt.Errorf("waves.grid_step must be positive")
	}
	if c.Waves.MaxPoints <= 0 {
		return fmt.Errorf("waves.max_points must be positive")
	}
	return nil
}
