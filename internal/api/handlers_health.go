// Geowatch - Live Telemetry Fusion and Geographic Visualization
// Copyright 2026 Geowatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geowatch/geowatch

package api

import (
	"net/http"
	"time"

	"github.com/geowatch/geowatch/internal/vessels"
)

// HealthStatus is the full health report payload.
type HealthStatus struct {
	Status    string               `json:"status"`
	Timestamp time.Time            `json:"timestamp"`
	Stream    vessels.StreamHealth `json:"stream"`
	Vessels   int                  `json:"vessels"`
	Clients   int                  `json:"websocket_clients"`
}

// Health reports overall server health including the AIS stream state.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	status := HealthStatus{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Stream:    h.stream.Health(),
		Vessels:   h.vessels.Len(),
		Clients:   h.hub.ClientCount(),
	}
	rw.Success(status)
}

// HealthLive is the liveness probe. It answers as long as the HTTP server
// is serving.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	rw.Success(map[string]string{"status": "alive"})
}

// HealthReady is the readiness probe. The server is ready once the AIS
// stream has connected at least once; flight and tile serving have no
// warm-up phase.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	health := h.stream.Health()
	if health.LastConnected.IsZero() && health.State != vessels.StateStreaming {
		rw.ServiceUnavailable("telemetry stream has not connected yet")
		return
	}
	rw.Success(map[string]interface{}{
		"status": "ready",
		"stream": health,
	})
}
