// Geowatch - Live Telemetry Fusion and Geographic Visualization
// Copyright 2026 Geowatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geowatch/geowatch

// Package main is the entry point for the Geowatch server.
//
// Geowatch fuses live telemetry feeds onto interactive maps: a multi-region
// flight aggregator over an ADS-B point API, a long-lived AIS websocket
// stream merged into an in-memory vessel table, pre-built tile documents
// served from disk, and detection georeferencing that projects object
// detector output from satellite imagery into GeoJSON.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: environment variables, optional YAML file, defaults (Koanf v2)
//  2. Vessel table and AIS stream reader
//  3. Flight aggregator with per-region circuit breakers
//  4. Tile document store with an in-process LRU cache
//  5. Detection service: imagery client plus external detector
//  6. WebSocket hub for dashboard pushes
//  7. Supervisor tree: ingest, messaging, and API layers under one root
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins): environment variables, config file (CONFIG_PATH),
// built-in defaults. The AIS feed needs AIS_API_KEY; everything else has
// a usable default.
//
// # Signal Handling
//
// The server shuts down gracefully on SIGINT and SIGTERM: the HTTP server
// drains in-flight requests with a bounded timeout, the stream and hub
// exit via context cancellation, and the supervisor reports anything that
// failed to stop.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/geowatch/geowatch/internal/api"
	"github.com/geowatch/geowatch/internal/config"
	"github.com/geowatch/geowatch/internal/detect"
	"github.com/geowatch/geowatch/internal/flights"
	"github.com/geowatch/geowatch/internal/logging"
	"github.com/geowatch/geowatch/internal/supervisor"
	"github.com/geowatch/geowatch/internal/supervisor/services"
	"github.com/geowatch/geowatch/internal/tiles"
	"github.com/geowatch/geowatch/internal/vessels"
	ws "github.com/geowatch/geowatch/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Int("port", cfg.Server.Port).
		Int("regions", len(cfg.Flights.Regions)).
		Str("ais_stream", cfg.Vessels.StreamURL).
		Str("tiles_dir", cfg.Tiles.Dir).
		Msg("Starting Geowatch")

	if cfg.Vessels.APIKey == "" {
		logging.Warn().Msg("AIS_API_KEY not set, stream subscription will be rejected upstream")
	}
	if cfg.Detect.DetectorURL == "" {
		logging.Warn().Msg("DETECTOR_URL not set, segment and upload endpoints will fail")
	}

	// Ingest components.
	table := vessels.NewTable(cfg.Vessels.SourceTag, cfg.Vessels.PriorityPrefixes)
	stream := vessels.NewStream(cfg.Vessels, table)

	// Read-path components.
	aggregator := flights.NewAggregator(flights.NewClient(cfg.Flights), cfg.Flights.Regions)
	store := tiles.NewStore(cfg.Tiles)
	detector := detect.NewHTTPDetector(cfg.Detect)
	detectSvc := detect.NewService(cfg.Detect, detector, detect.NewImageryClient(cfg.Detect))

	// Dashboard push path.
	hub := ws.NewHub()
	broadcaster := ws.NewBroadcaster(hub, table, stream, cfg.Vessels.BroadcastInterval)

	handler := api.NewHandler(cfg, aggregator, table, stream, store, detectSvc, hub)
	httpServer := &http.Server{
		Addr:              cfg.Server.Host + ":" + strconv.Itoa(cfg.Server.Port),
		Handler:           api.NewRouter(cfg, handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Supervisor tree. The sutureslog bridge feeds suture events through
	// zerolog.
	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddIngestService(stream)
	tree.AddMessagingService(services.NewWebSocketHubService(hub))
	tree.AddMessagingService(broadcaster)
	tree.AddAPIService(services.NewHTTPServerService(httpServer, cfg.Server.Timeout))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().Str("addr", httpServer.Addr).Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	<-ctx.Done()
	logging.Info().Msg("Shutdown signal received, stopping supervisor tree")

	if err := <-errCh; err != nil && ctx.Err() == nil {
		logging.Error().Err(err).Msg("Supervisor tree exited with error")
		os.Exit(1)
	}

	if report, err := tree.UnstoppedServiceReport(); err == nil && len(report) > 0 {
		for _, svc := range report {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
		}
	}

	logging.Info().Msg("Geowatch stopped")
}
