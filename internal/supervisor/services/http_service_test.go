// Geowatch - Live Telemetry Fusion and Geographic Visualization
// Copyright 2026 Geowatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geowatch/geowatch

package services

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

// fakeServer simulates http.Server lifecycle behavior.
type fakeServer struct {
	serveErr    error
	shutdownErr error
	closed      chan struct{}
	shutdowns   int
}

func newFakeServer(serveErr error) *fakeServer {
	return &fakeServer{serveErr: serveErr, closed: make(chan struct{})}
}

func (f *fakeServer) ListenAndServe() error {
	if f.serveErr != nil {
		return f.serveErr
	}
	<-f.closed
	return http.ErrServerClosed
}

func (f *fakeServer) Shutdown(_ context.Context) error {
	f.shutdowns++
	close(f.closed)
	return f.shutdownErr
}

func TestHTTPServerServiceGracefulShutdown(t *testing.T) {
	server := newFakeServer(nil)
	svc := NewHTTPServerService(server, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- svc.Serve(ctx)
	}()

	// Give the listener goroutine a moment to start, then shut down.
	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve() did not return after cancel")
	}
	if server.shutdowns != 1 {
		t.Errorf("shutdowns = %d, want 1", server.shutdowns)
	}
}

func TestHTTPServerServiceStartupFailure(t *testing.T) {
	boom := errors.New("listen tcp: address already in use")
	svc := NewHTTPServerService(newFakeServer(boom), time.Second)

	err := svc.Serve(context.Background())
	if err == nil || !errors.Is(err, boom) {
		t.Errorf("Serve() = %v, want wrapped startup error", err)
	}
}

func TestHTTPServerServiceString(t *testing.T) {
	svc := NewHTTPServerService(newFakeServer(nil), 0)
	if svc.String() != "http-server" {
		t.Errorf("String() = %q", svc.String())
	}
	if svc.shutdownTimeout != 10*time.Second {
		t.Errorf("shutdownTimeout = %v, want 10s default", svc.shutdownTimeout)
	}
}

// stubHub records whether RunWithContext ran.
type stubHub struct {
	ran chan struct{}
}

func (s *stubHub) RunWithContext(ctx context.Context) error {
	close(s.ran)
	<-ctx.Done()
	return ctx.Err()
}

func TestWebSocketHubServiceDelegates(t *testing.T) {
	hub := &stubHub{ran: make(chan struct{})}
	svc := NewWebSocketHubService(hub)
	if svc.String() != "websocket-hub" {
		t.Errorf("String() = %q", svc.String())
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- svc.Serve(ctx)
	}()

	select {
	case <-hub.ran:
	case <-time.After(time.Second):
		t.Fatal("hub never ran")
	}
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() = %v, want context.Canceled", err)
	}
}
