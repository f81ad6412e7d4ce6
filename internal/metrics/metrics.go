// Geowatch - Live Telemetry Fusion and Geographic Visualization
// Copyright 2026 Geowatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geowatch/geowatch

// Package metrics defines the Prometheus instrumentation for Geowatch:
// AIS stream health, flight aggregator fan-out, tile cache efficiency,
// detection pipeline, API latency, and websocket fan-out.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AIS Stream Metrics
	StreamReconnects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ais_stream_reconnects_total",
			Help: "Total number of AIS stream reconnect attempts",
		},
	)

	StreamMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ais_stream_messages_total",
			Help: "Total number of AIS stream messages processed",
		},
		[]string{"type"}, // "PositionReport", "ShipStaticData", "other"
	)

	StreamParseErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ais_stream_parse_errors_total",
			Help: "Total number of malformed AIS messages skipped",
		},
	)

	StreamConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ais_stream_connected",
			Help: "Whether the AIS stream is currently connected (0 or 1)",
		},
	)

	VesselTableSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vessel_table_entries",
			Help: "Current number of vessels in the in-memory table",
		},
	)

	// Flight Aggregator Metrics
	RegionRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flight_region_requests_total",
			Help: "Total number of per-region flight feed requests",
		},
		[]string{"region", "result"}, // result: "success", "failure", "rejected"
	)

	RegionRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "flight_region_request_duration_seconds",
			Help:    "Duration of per-region flight feed requests",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		},
		[]string{"region"},
	)

	FlightsReturned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "flight_snapshot_size",
			Help:    "Number of flights in each aggregated snapshot",
			Buckets: []float64{10, 50, 100, 500, 1000, 5000, 10000, 20000},
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// Tile Cache Metrics
	TileCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tile_cache_hits_total",
			Help: "Total number of tile document cache hits",
		},
	)

	TileCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tile_cache_misses_total",
			Help: "Total number of tile document cache misses",
		},
	)

	TileCacheSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tile_cache_entries",
			Help: "Current number of cached tile documents",
		},
	)

	TileCacheEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tile_cache_evictions_total",
			Help: "Total number of tile cache evictions (LRU or TTL expiry)",
		},
	)

	// Detection Pipeline Metrics
	DetectRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "detect_requests_total",
			Help: "Total number of detection requests",
		},
		[]string{"source", "result"}, // source: "segment", "upload"
	)

	DetectDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "detect_duration_seconds",
			Help:    "End-to-end duration of detection requests",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	ImageryFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imagery_fetches_total",
			Help: "Total number of satellite imagery tile fetches",
		},
		[]string{"result"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of active WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket messages sent",
		},
	)

	WSMessagesReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_received_total",
			Help: "Total number of WebSocket messages received",
		},
	)
)

// RecordAPIRequest records one completed API request.
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordRegionFetch records one per-region flight feed request.
func RecordRegionFetch(region string, duration time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	RegionRequests.WithLabelValues(region, result).Inc()
	RegionRequestDuration.WithLabelValues(region).Observe(duration.Seconds())
}

// RecordStreamMessage records one processed AIS message by envelope type.
func RecordStreamMessage(messageType string) {
	switch messageType {
	case "PositionReport", "ShipStaticData":
		StreamMessages.WithLabelValues(messageType).Inc()
	default:
		StreamMessages.WithLabelValues("other").Inc()
	}
}

// SetStreamConnected flips the stream connectivity gauge.
func SetStreamConnected(connected bool) {
	if connected {
		StreamConnected.Set(1)
	} else {
		StreamConnected.Set(0)
	}
}

// SetCircuitBreakerState records a breaker's state by name.
// 0=closed, 1=half-open, 2=open.
func SetCircuitBreakerState(name string, state int) {
	CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}
