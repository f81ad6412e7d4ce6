// Geowatch - Live Telemetry Fusion and Geographic Visualization
// Copyright 2026 Geowatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geowatch/geowatch

package vessels

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/geowatch/geowatch/internal/config"
	"github.com/geowatch/geowatch/internal/logging"
	"github.com/geowatch/geowatch/internal/metrics"
)

// Stream connection states, surfaced through Health for operability.
const (
	StateConnecting = "connecting"
	StateStreaming  = "streaming"
	StateBackoff    = "backoff"
)

// StreamHealth is an observable snapshot of the stream's state.
type StreamHealth struct {
	State             string    `json:"state"`
	LastConnected     time.Time `json:"lastConnected"`
	Reconnects        int64     `json:"reconnects"`
	MessagesProcessed int64     `json:"messagesProcessed"`
	ParseErrors       int64     `json:"parseErrors"`
}

// Stream holds the single long-lived AIS feed connection and merges every
/// inbound message into the table. It implements suture.Service: Serve runs
// an unconditional reconnect loop and only returns when the context is
// canceled, so the supervisor layer adds crash protection on top of the
// stream's own retry-forever policy.
type Stream struct {
	cfg    config.VesselsConfig
	table  *Table
	dialer *websocket.Dialer

	mu     sync.Mutex
	health StreamHealth
}

// NewStream creates the stream service over the given table.
func NewStream(cfg config.VesselsConfig, table *Table) *Stream {
	return &Stream{
		cfg:    cfg,
		table:  table,
		dialer: websocket.DefaultDialer,
		health: StreamHealth{State: StateConnecting},
	}
}

// String implements fmt.Stringer for supervisor logging.
func (s *Stream) String() string {
	return "ais-stream"
}

// Health returns the current stream health.
func (s *Stream) Health() StreamHealth {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.health
}

// Serve implements suture.Service. Each pass dials, subscribes, and reads
// until the connection errors, then sleeps the configured delay and redials.
// Only context cancellation ends the loop.
func (s *Stream) Serve(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		s.setState(StateConnecting)
		if err := s.runConnection(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logging.Warn().Err(err).
				Dur("retry_in", s.cfg.ReconnectDelay).
				Msg("AIS stream connection lost, reconnecting")
		}

		s.setState(StateBackoff)
		metrics.StreamReconnects.Inc()
		s.mu.Lock()
		s.health.Reconnects++
		s.mu.Unlock()

		select {
		case <-time.After(s.cfg.ReconnectDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// runConnection performs one full connection attempt: dial, subscribe,
// read until error. The table merge happens outside any network wait; the
// read itself is never under the table mutex.
func (s *Stream) runConnection(ctx context.Context) error {
	conn, _, err := s.dialer.DialContext(ctx, s.cfg.StreamURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := conn.WriteJSON(newGlobalSubscription(s.cfg.APIKey)); err != nil {
		return err
	}

	logging.Info().Str("url", s.cfg.StreamURL).Msg("AIS stream connected")
	metrics.SetStreamConnected(true)
	defer metrics.SetStreamConnected(false)

	s.mu.Lock()
	s.health.State = StateStreaming
	s.health.LastConnected = time.Now()
	s.mu.Unlock()

	// Close the connection when the context ends so the blocking read
	// below unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		msgType, err := s.table.ApplyRaw(data)
		if err != nil {
			// Malformed message: count, log, keep the connection.
			metrics.StreamParseErrors.Inc()
			s.mu.Lock()
			s.health.ParseErrors++
			s.mu.Unlock()
			logging.Debug().Err(err).Msg("Skipping malformed AIS message")
			continue
		}

		metrics.RecordStreamMessage(msgType)
		s.mu.Lock()
		s.health.MessagesProcessed++
		s.mu.Unlock()
	}
}

func (s *Stream) setState(state string) {
	s.mu.Lock()
	s.health.State = state
	s.mu.Unlock()
}
