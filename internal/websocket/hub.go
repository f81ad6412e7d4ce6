// Geowatch - Live Telemetry Fusion and Geographic Visualization
// Copyright 2026 Geowatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geowatch/geowatch

// Package websocket pushes live telemetry updates to connected dashboard
// clients. A single Hub fans broadcast messages out to every client; each
// client owns its own read and write pumps against the underlying
// connection.
package websocket

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/geowatch/geowatch/internal/logging"
	"github.com/geowatch/geowatch/internal/metrics"
)

// Message types for dashboard communication.
const (
	MessageTypePing         = "ping"
	MessageTypePong         = "pong"
	MessageTypeVesselUpdate = "vessel_update"
	MessageTypeStreamState  = "stream_state"
)

// Message is the envelope every dashboard frame uses.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan Message, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
}

// RunWithContext runs the hub until the context is canceled. On shutdown
// every connected client is closed before the context error is returned,
// so a supervisor can restart the hub without leaking connections.
//
// Lifecycle events are drained before broadcasts so client state is always
// settled when a message fans out.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		default:
		}

		select {
		case client := <-h.Register:
			h.addClient(client)
			continue
		case client := <-h.Unregister:
			h.removeClient(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		case client := <-h.Register:
			h.addClient(client)
		case client := <-h.Unregister:
			h.removeClient(client)
		case message := <-h.broadcast:
			h.broadcastToClients(message)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	count := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnections.Set(float64(count))
	logging.Info().Int("total_clients", count).Msg("websocket client connected")
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	count := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnections.Set(float64(count))
	logging.Info().Int("total_clients", count).Msg("websocket client disconnected")
}

func (h *Hub) shutdown(ctx context.Context) {
	count := h.ClientCount()
	h.closeAllClients()

	logging.Info().
		Str("component", "websocket-hub").
		Int("clients_closed", count).
		AnErr("cause", ctx.Err()).
		Msg("websocket hub stopped")
}

// broadcastToClients sends a message to every connected client in client-ID
// order. A client whose send buffer is full is dropped rather than allowed
// to stall the fan-out.
func (h *Hub) broadcastToClients(message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	var toRemove []*Client
	for _, client := range clients {
		select {
		case client.send <- message:
			metrics.WSMessagesSent.Inc()
		default:
			toRemove = append(toRemove, client)
		}
	}

	for _, client := range toRemove {
		close(client.send)
		delete(h.clients, client)
	}
	if len(toRemove) > 0 {
		logging.Warn().Int("dropped", len(toRemove)).Msg("dropped slow websocket clients")
		metrics.WSConnections.Set(float64(len(h.clients)))
	}
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	for _, client := range clients {
		close(client.send)
		delete(h.clients, client)
	}
	metrics.WSConnections.Set(0)
}

// BroadcastJSON queues a typed message for every connected client. When the
// broadcast buffer is full the message is dropped; dashboard pushes are
// periodic and the next tick supersedes a lost one.
func (h *Hub) BroadcastJSON(messageType string, data interface{}) {
	message := Message{
		Type: messageType,
		Data: data,
	}

	select {
	case h.broadcast <- message:
	default:
		logging.Warn().Str("message_type", messageType).Msg("broadcast channel full, dropping message")
	}
}

// VesselUpdateData is the payload of a vessel_update push.
type VesselUpdateData struct {
	Timestamp    string `json:"timestamp"`
	VesselCount  int    `json:"vessel_count"`
	StreamState  string `json:"stream_state"`
	MessagesSeen int64  `json:"messages_seen"`
}

// BroadcastVesselUpdate notifies all clients of the current vessel table
// state.
func (h *Hub) BroadcastVesselUpdate(vesselCount int, streamState string, messagesSeen int64) {
	h.BroadcastJSON(MessageTypeVesselUpdate, VesselUpdateData{
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		VesselCount:  vesselCount,
		StreamState:  streamState,
		MessagesSeen: messagesSeen,
	})
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
