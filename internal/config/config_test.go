// Geowatch - Live Telemetry Fusion and Geographic Visualization
// Copyright 2026 Geowatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geowatch/geowatch

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestDefaultConfig verifies that defaultConfig() returns proper defaults
func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	// Server defaults
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want 0.0.0.0", cfg.Server.Host)
	}
	if cfg.Server.Port != 8340 {
		t.Errorf("Server.Port = %d, want 8340", cfg.Server.Port)
	}
	if cfg.Server.Timeout != 30*time.Second {
		t.Errorf("Server.Timeout = %v, want 30s", cfg.Server.Timeout)
	}

	// Logging defaults
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format = %q, want json", cfg.Logging.Format)
	}

	// Flights defaults
	if cfg.Flights.BaseURL != "https://api.adsb.one/v2/point" {
		t.Errorf("Flights.BaseURL = %q, want adsb.one point endpoint", cfg.Flights.BaseURL)
	}
	if len(cfg.Flights.Regions) != 9 {
		t.Errorf("len(Flights.Regions) = %d, want 9", len(cfg.Flights.Regions))
	}
	if cfg.Flights.Regions[0].Name != "Americas" {
		t.Errorf("Flights.Regions[0].Name = %q, want Americas", cfg.Flights.Regions[0].Name)
	}
	if cfg.Flights.RequestTimeout != 20*time.Second {
		t.Errorf("Flights.RequestTimeout = %v, want 20s", cfg.Flights.RequestTimeout)
	}

	// Vessels defaults
	if cfg.Vessels.StreamURL != "wss://stream.aisstream.io/v0/stream" {
		t.Errorf("Vessels.StreamURL = %q, want aisstream endpoint", cfg.Vessels.StreamURL)
	}
	if cfg.Vessels.APIKey != "" {
		t.Errorf("Vessels.APIKey should be empty by default, got %q", cfg.Vessels.APIKey)
	}
	if cfg.Vessels.ReconnectDelay != 5*time.Second {
		t.Errorf("Vessels.ReconnectDelay = %v, want 5s", cfg.Vessels.ReconnectDelay)
	}
	if cfg.Vessels.SnapshotLimit != 1500 {
		t.Errorf("Vessels.SnapshotLimit = %d, want 1500", cfg.Vessels.SnapshotLimit)
	}
	if len(cfg.Vessels.PriorityPrefixes) != 5 {
		t.Errorf("len(Vessels.PriorityPrefixes) = %d, want 5", len(cfg.Vessels.PriorityPrefixes))
	}
	if cfg.Vessels.SourceTag != "AISstream_LIVE" {
		t.Errorf("Vessels.SourceTag = %q, want AISstream_LIVE", cfg.Vessels.SourceTag)
	}

	// Tiles defaults
	if cfg.Tiles.CacheSize != 512 {
		t.Errorf("Tiles.CacheSize = %d, want 512", cfg.Tiles.CacheSize)
	}
	if cfg.Tiles.CacheTTL != 10*time.Minute {
		t.Errorf("Tiles.CacheTTL = %v, want 10m", cfg.Tiles.CacheTTL)
	}

	// Detect defaults
	if cfg.Detect.MinConfidence != 0.25 {
		t.Errorf("Detect.MinConfidence = %f, want 0.25", cfg.Detect.MinConfidence)
	}
	if cfg.Detect.MaxUploadBytes != 16<<20 {
		t.Errorf("Detect.MaxUploadBytes = %d, want 16MB", cfg.Detect.MaxUploadBytes)
	}

	// API defaults
	if cfg.API.RateLimitReqs != 300 {
		t.Errorf("API.RateLimitReqs = %d, want 300", cfg.API.RateLimitReqs)
	}
	if cfg.API.RateLimitWindow != time.Minute {
		t.Errorf("API.RateLimitWindow = %v, want 1m", cfg.API.RateLimitWindow)
	}
}

func TestDefaultConfigValidates(t *testing.T) {
	cfg := defaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got %v", err)
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{
			name:   "port too low",
			mutate: func(c *Config) { c.Server.Port = 0 },
		},
		{
			name:   "port too high",
			mutate: func(c *Config) { c.Server.Port = 70000 },
		},
		{
			name:   "empty flights base url",
			mutate: func(c *Config) { c.Flights.BaseURL = "" },
		},
		{
			name:   "non-http flights base url",
			mutate: func(c *Config) { c.Flights.BaseURL = "ftp://example.com" },
		},
		{
			name:   "no regions",
			mutate: func(c *Config) { c.Flights.Regions = nil },
		},
		{
			name:   "region lat out of range",
			mutate: func(c *Config) { c.Flights.Regions[0].Lat = 91 },
		},
		{
			name:   "region lon out of range",
			mutate: func(c *Config) { c.Flights.Regions[0].Lon = -181 },
		},
		{
			name:   "region radius zero",
			mutate: func(c *Config) { c.Flights.Regions[0].RadiusNM = 0 },
		},
		{
			name:   "empty stream url",
			mutate: func(c *Config) { c.Vessels.StreamURL = "" },
		},
		{
			name:   "non-websocket stream url",
			mutate: func(c *Config) { c.Vessels.StreamURL = "https://stream.example.com" },
		},
		{
			name:   "zero reconnect delay",
			mutate: func(c *Config) { c.Vessels.ReconnectDelay = 0 },
		},
		{
			name:   "zero snapshot limit",
			mutate: func(c *Config) { c.Vessels.SnapshotLimit = 0 },
		},
		{
			name:   "confidence above one",
			mutate: func(c *Config) { c.Detect.MinConfidence = 1.5 },
		},
		{
			name:   "negative confidence",
			mutate: func(c *Config) { c.Detect.MinConfidence = -0.1 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

func TestLoadWithKoanfEnvOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("AIS_API_KEY", "test-key")
	t.Setenv("VESSELS_SNAPSHOT_LIMIT", "200")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error: %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Vessels.APIKey != "test-key" {
		t.Errorf("Vessels.APIKey = %q, want test-key", cfg.Vessels.APIKey)
	}
	if cfg.Vessels.SnapshotLimit != 200 {
		t.Errorf("Vessels.SnapshotLimit = %d, want 200", cfg.Vessels.SnapshotLimit)
	}
}

func TestLoadWithKoanfEnvSliceFields(t *testing.T) {
	t.Setenv("CORS_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("VESSELS_PRIORITY_PREFIXES", "419,412")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error: %v", err)
	}

	if len(cfg.API.CORSOrigins) != 2 {
		t.Fatalf("len(API.CORSOrigins) = %d, want 2", len(cfg.API.CORSOrigins))
	}
	if cfg.API.CORSOrigins[0] != "https://a.example.com" {
		t.Errorf("CORSOrigins[0] = %q, want https://a.example.com", cfg.API.CORSOrigins[0])
	}
	if len(cfg.Vessels.PriorityPrefixes) != 2 {
		t.Fatalf("len(Vessels.PriorityPrefixes) = %d, want 2", len(cfg.Vessels.PriorityPrefixes))
	}
}

func TestLoadWithKoanfConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("server:\n  port: 8500\nvessels:\n  snapshot_limit: 50\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error: %v", err)
	}

	if cfg.Server.Port != 8500 {
		t.Errorf("Server.Port = %d, want 8500 from config file", cfg.Server.Port)
	}
	if cfg.Vessels.SnapshotLimit != 50 {
		t.Errorf("Vessels.SnapshotLimit = %d, want 50 from config file", cfg.Vessels.SnapshotLimit)
	}
	// Untouched fields keep their defaults.
	if cfg.Flights.BaseURL != "https://api.adsb.one/v2/point" {
		t.Errorf("Flights.BaseURL = %q, want default preserved", cfg.Flights.BaseURL)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		env  string
		want string
	}{
		{"HTTP_PORT", "server.port"},
		{"LOG_LEVEL", "logging.level"},
		{"AIS_STREAM_URL", "vessels.stream_url"},
		{"AIS_API_KEY", "vessels.api_key"},
		{"FLIGHTS_REQUEST_TIMEOUT", "flights.request_timeout"},
		{"TILES_DIR", "tiles.dir"},
		{"DETECTOR_URL", "detect.detector_url"},
		{"CORS_ORIGINS", "api.cors_origins"},
		{"UNRELATED_VARIABLE", ""},
		{"PATH", ""},
	}

	for _, tt := range tests {
		if got := envTransformFunc(tt.env); got != tt.want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", tt.env, got, tt.want)
		}
	}
}
