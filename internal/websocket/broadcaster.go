// Geowatch - Live Telemetry Fusion and Geographic Visualization
// Copyright 2026 Geowatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geowatch/geowatch

package websocket

import (
	"context"
	"time"

	"github.com/geowatch/geowatch/internal/vessels"
)

// Broadcaster periodically pushes a vessel_update frame to every dashboard
// client. It implements suture.Service.
type Broadcaster struct {
	hub      *Hub
	table    *vessels.Table
	stream   *vessels.Stream
	interval time.Duration
}

// NewBroadcaster creates a broadcaster ticking at the given interval.
func NewBroadcaster(hub *Hub, table *vessels.Table, stream *vessels.Stream, interval time.Duration) *Broadcaster {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Broadcaster{
		hub:      hub,
		table:    table,
		stream:   stream,
		interval: interval,
	}
}

// String implements fmt.Stringer for supervisor logs.
func (b *Broadcaster) String() string {
	return "vessel-broadcaster"
}

// Serve implements suture.Service.
func (b *Broadcaster) Serve(ctx context.Context) error {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if b.hub.ClientCount() == 0 {
				continue
			}
			health := b.stream.Health()
			b.hub.BroadcastVesselUpdate(b.table.Len(), health.State, health.MessagesProcessed)
		}
	}
}
