// Geowatch - Live Telemetry Fusion and Geographic Visualization
// Copyright 2026 Geowatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geowatch/geowatch

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where a config file is searched, in priority order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/geowatch/config.yaml",
	"/etc/geowatch/config.yml",
}

// ConfigPathEnvVar overrides the config file search path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns the built-in defaults. These are applied first and
// then overridden by the config file and environment variables.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    8340,
			Timeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Flights: FlightsConfig{
			BaseURL: "https://api.adsb.one/v2/point",
			// Nine overlapping queries give full-globe coverage; the feed
			// caps each query radius, so continents are split up.
			Regions: []RegionConfig{
				{Name: "Americas", Lat: 40, Lon: -100, RadiusNM: 4000},
				{Name: "Europe", Lat: 50, Lon: 10, RadiusNM: 3000},
				{Name: "Asia", Lat: 25, Lon: 80, RadiusNM: 3000},
				{Name: "EastAsia", Lat: 35, Lon: 135, RadiusNM: 2500},
				{Name: "Oceania", Lat: -25, Lon: 135, RadiusNM: 2000},
				{Name: "Russia", Lat: 60, Lon: 90, RadiusNM: 4000},
				{Name: "China", Lat: 35, Lon: 105, RadiusNM: 2500},
				{Name: "SouthAmerica", Lat: -15, Lon: -60, RadiusNM: 3000},
				{Name: "Africa", Lat: 5, Lon: 20, RadiusNM: 3500},
			},
			RequestTimeout: 20 * time.Second,
			UserAgent:      "Geowatch/1.0",
		},
		Vessels: VesselsConfig{
			StreamURL:         "wss://stream.aisstream.io/v0/stream",
			APIKey:            "",
			ReconnectDelay:    5 * time.Second,
			SnapshotLimit:     1500,
			PriorityPrefixes:  []string{"419", "412", "413", "414", "273"},
			BroadcastInterval: 5 * time.Second,
			SourceTag:         "AISstream_LIVE",
		},
		Tiles: TilesConfig{
			Dir:       "/data/geowatch/tiles",
			CacheSize: 512,
			CacheTTL:  10 * time.Minute,
		},
		Detect: DetectConfig{
			DetectorURL:     "",
			ImageryURL:      "https://server.arcgisonline.com/ArcGIS/rest/services/World_Imagery/MapServer/tile/{z}/{y}/{x}",
			MinConfidence:   0.25,
			RequestTimeout:  10 * time.Second,
			FetchRatePerSec: 2,
			MaxUploadBytes:  16 << 20, // 16 MB
		},
		API: APIConfig{
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   300,
			RateLimitWindow: time.Minute,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//
//  1. Built-in defaults (struct provider)
//  2. Optional YAML config file
//  3. Environment variables, mapped through envTransformFunc
//
// The result is validated before being returned.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first config file that exists, or empty string.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths lists config paths parsed as comma-separated slices when
// set from the environment.
var sliceConfigPaths = []string{
	"api.cors_origins",
	"vessels.priority_prefixes",
}

// processSliceFields converts comma-separated env values to slices for the
// known slice fields. YAML-sourced values are already slices and skipped.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}
		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envTransformFunc maps environment variable names to koanf config paths.
// Unmapped variables return an empty string and are skipped, which keeps
// unrelated environment noise out of the configuration.
//
// Examples:
//   - HTTP_PORT               -> server.port
//   - AIS_API_KEY             -> vessels.api_key
//   - FLIGHTS_REQUEST_TIMEOUT -> flights.request_timeout
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Server
		"http_host":    "server.host",
		"http_port":    "server.port",
		"http_timeout": "server.timeout",

		// Logging
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",

		// Flights
		"flights_base_url":        "flights.base_url",
		"flights_request_timeout": "flights.request_timeout",
		"flights_user_agent":      "flights.user_agent",

		// Vessels
		"ais_stream_url":            "vessels.stream_url",
		"ais_api_key":               "vessels.api_key",
		"ais_reconnect_delay":       "vessels.reconnect_delay",
		"vessels_snapshot_limit":    "vessels.snapshot_limit",
		"vessels_priority_prefixes": "vessels.priority_prefixes",
		"vessels_broadcast":         "vessels.broadcast_interval",
		"vessels_source_tag":        "vessels.source_tag",

		// Tiles
		"tiles_dir":        "tiles.dir",
		"tiles_cache_size": "tiles.cache_size",
		"tiles_cache_ttl":  "tiles.cache_ttl",

		// Detection
		"detector_url":         "detect.detector_url",
		"imagery_url":          "detect.imagery_url",
		"detect_min_conf":      "detect.min_confidence",
		"detect_timeout":       "detect.request_timeout",
		"detect_fetch_rate":    "detect.fetch_rate_per_sec",
		"detect_upload_limit": "detect.max_upload_bytes",

		// API
		"cors_origins":        "api.cors_origins",
		"rate_limit_requests": "api.rate_limit_reqs",
		"rate_limit_window":   "api.rate_limit_window",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	return ""
}
