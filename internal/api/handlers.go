// Geowatch - Live Telemetry Fusion and Geographic Visualization
// Copyright 2026 Geowatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geowatch/geowatch

package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/geowatch/geowatch/internal/config"
	"github.com/geowatch/geowatch/internal/detect"
	"github.com/geowatch/geowatch/internal/flights"
	"github.com/geowatch/geowatch/internal/logging"
	"github.com/geowatch/geowatch/internal/tiles"
	"github.com/geowatch/geowatch/internal/vessels"
	ws "github.com/geowatch/geowatch/internal/websocket"
)

// Handler carries the dependencies every endpoint needs.
type Handler struct {
	cfg     *config.Config
	flights *flights.Aggregator
	vessels *vessels.Table
	stream  *vessels.Stream
	tiles   *tiles.Store
	detect  *detect.Service
	hub     *ws.Hub
}

// NewHandler creates the API handler.
func NewHandler(
	cfg *config.Config,
	aggregator *flights.Aggregator,
	table *vessels.Table,
	stream *vessels.Stream,
	store *tiles.Store,
	detector *detect.Service,
	hub *ws.Hub,
) *Handler {
	return &Handler{
		cfg:     cfg,
		flights: aggregator,
		vessels: table,
		stream:  stream,
		tiles:   store,
		detect:  detector,
		hub:     hub,
	}
}

// getUpgrader creates a websocket upgrader with origin checking and a
// handshake timeout to bound slow clients.
func (h *Handler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin validates dashboard connection origins. Browser
// websockets always send Origin; an empty header means a non-browser
// client, which is allowed since the feed is read-only.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	if h.cfg == nil {
		return true
	}
	for _, allowed := range h.cfg.API.CORSOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}

	logging.Warn().Str("origin", origin).Msg("websocket connection rejected: origin not allowed")
	return false
}

// WebSocket upgrades the connection and registers the client with the
// hub.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	upgrader := h.getUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		logging.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := ws.NewClient(h.hub, conn)
	h.hub.Register <- client
	client.Start()
}
