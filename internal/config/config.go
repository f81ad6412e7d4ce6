// Geowatch - Live Telemetry Fusion and Geographic Visualization
// Copyright 2026 Geowatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geowatch/geowatch

// Package config provides layered configuration loading for Geowatch using
// Koanf v2. Precedence, highest wins: environment variables, optional YAML
// config file, built-in defaults.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration for the Geowatch server.
type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Logging LoggingConfig `koanf:"logging"`
	Flights FlightsConfig `koanf:"flights"`
	Vessels VesselsConfig `koanf:"vessels"`
	Tiles   TilesConfig   `koanf:"tiles"`
	Detect  DetectConfig  `koanf:"detect"`
	API     APIConfig     `koanf:"api"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`
}

// LoggingConfig holds zerolog settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// RegionConfig describes one fixed geographic fan-out region of the live
// flight feed: a center point and a query radius in nautical miles.
type RegionConfig struct {
	Name     string  `koanf:"name"`
	Lat      float64 `koanf:"lat"`
	Lon      float64 `koanf:"lon"`
	RadiusNM int     `koanf:"radius_nm"`
}

// FlightsConfig holds flight aggregator settings.
type FlightsConfig struct {
	// BaseURL is the point-query endpoint of the live ADS-B feed.
	// Region coordinates are appended as /{lat}/{lon}/{radius_nm}.
	BaseURL string `koanf:"base_url"`

	// Regions is the fixed fan-out list. Defaults cover the globe in nine
	// overlapping queries; overridable via the config file only.
	Regions []RegionConfig `koanf:"regions"`

	// RequestTimeout bounds each per-region request.
	RequestTimeout time.Duration `koanf:"request_timeout"`

	UserAgent string `koanf:"user_agent"`
}

// VesselsConfig holds AIS stream ingest settings.
type VesselsConfig struct {
	// StreamURL is the websocket endpoint of the AIS feed.
	StreamURL string `koanf:"stream_url"`

	// APIKey authenticates the stream subscription.
	APIKey string `koanf:"api_key"`

	// ReconnectDelay is the fixed sleep between reconnect attempts.
	ReconnectDelay time.Duration `koanf:"reconnect_delay"`

	// SnapshotLimit caps the number of vessels returned per snapshot.
	SnapshotLimit int `koanf:"snapshot_limit"`

	// PriorityPrefixes lists MMSI prefixes ordered ahead of all other
	// vessels in snapshots. Presentation policy, not correctness.
	PriorityPrefixes []string `koanf:"priority_prefixes"`

	// BroadcastInterval is how often the dashboard hub is sent a
	// vessel_update push. Zero disables the broadcaster.
	BroadcastInterval time.Duration `koanf:"broadcast_interval"`

	// SourceTag labels each vessel record with its feed of origin.
	SourceTag string `koanf:"source_tag"`
}

// TilesConfig holds pre-built tile document serving settings.
type TilesConfig struct {
	// Dir is the root of the tile document tree: <dir>/<z>/<x>/<y>.json
	// with <dir>/index.json as the grid index.
	Dir string `koanf:"dir"`

	CacheSize int           `koanf:"cache_size"`
	CacheTTL  time.Duration `koanf:"cache_ttl"`
}

// DetectConfig holds detection georeferencing settings.
type DetectConfig struct {
	// DetectorURL is the external object-detection collaborator endpoint.
	DetectorURL string `koanf:"detector_url"`

	// ImageryURL is the satellite tile template. Placeholders {z}, {y},
	// {x} are substituted in that order by the imagery client.
	ImageryURL string `koanf:"imagery_url"`

	// MinConfidence is the detector confidence floor (0..1).
	MinConfidence float64 `koanf:"min_confidence"`

	RequestTimeout time.Duration `koanf:"request_timeout"`

	// FetchRatePerSec limits imagery tile fetches to stay inside the
	// upstream provider's usage policy.
	FetchRatePerSec float64 `koanf:"fetch_rate_per_sec"`

	// MaxUploadBytes caps the analyze-upload request body.
	MaxUploadBytes int64 `koanf:"max_upload_bytes"`
}

// APIConfig holds HTTP API policy settings.
type APIConfig struct {
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// Load loads the layered configuration. Thin alias for LoadWithKoanf kept
// for call-site brevity in main.
func Load() (*Config, error) {
	return LoadWithKoanf()
}

// Validate checks configuration invariants that would otherwise surface as
// confusing runtime failures.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range 1-65535", c.Server.Port)
	}
	if c.Flights.BaseURL == "" {
		return fmt.Errorf("flights.base_url must not be empty")
	}
	if !strings.HasPrefix(c.Flights.BaseURL, "http://") && !strings.HasPrefix(c.Flights.BaseURL, "https://") {
		return fmt.Errorf("flights.base_url %q must be an http(s) URL", c.Flights.BaseURL)
	}
	if len(c.Flights.Regions) == 0 {
		return fmt.Errorf("flights.regions must not be empty")
	}
	for _, r := range c.Flights.Regions {
		if r.Lat < -90 || r.Lat > 90 {
			return fmt.Errorf("flights.regions[%s].lat %f out of range", r.Name, r.Lat)
		}
		if r.Lon < -180 || r.Lon > 180 {
			return fmt.Errorf("flights.regions[%s].lon %f out of range", r.Name, r.Lon)
		}
		if r.RadiusNM <= 0 {
			return fmt.Errorf("flights.regions[%s].radius_nm must be positive", r.Name)
		}
	}
	if c.Vessels.StreamURL == "" {
		return fmt.Errorf("vessels.stream_url must not be empty")
	}
	if !strings.HasPrefix(c.Vessels.StreamURL, "ws://") && !strings.HasPrefix(c.Vessels.StreamURL, "wss://") {
		return fmt.Errorf("vessels.stream_url %q must be a ws(s) URL", c.Vessels.StreamURL)
	}
	if c.Vessels.ReconnectDelay <= 0 {
		return fmt.Errorf("vessels.reconnect_delay must be positive")
	}
	if c.Vessels.SnapshotLimit <= 0 {
		return fmt.Errorf("vessels.snapshot_limit must be positive")
	}
	if c.Detect.MinConfidence < 0 || c.Detect.MinConfidence > 1 {
		return fmt.Errorf("detect.min_confidence %f out of range 0-1", c.Detect.MinConfidence)
	}
	return nil
}
