// Geowatch - Live Telemetry Fusion and Geographic Visualization
// Copyright 2026 Geowatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geowatch/geowatch

// Package flights aggregates live aircraft positions from a point-query
// ADS-B feed. Each request fans out to a fixed list of geographic regions,
// deduplicates by transponder hex, classifies, and returns one snapshot.
package flights

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/geowatch/geowatch/internal/config"
	"github.com/geowatch/geowatch/internal/logging"
	"github.com/geowatch/geowatch/internal/metrics"
)

// maxErrorBodySize limits how much of an error response body is read for
// diagnostics.
const maxErrorBodySize = 64 * 1024

// Altitude decodes a feed altitude field. The feed reports barometric
// altitude as the string "ground" for aircraft on the surface; that and
// null both decode to 0.
type Altitude float64

// UnmarshalJSON implements json.Unmarshaler.
func (a *Altitude) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" || data[0] == '"' {
		*a = 0
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*a = Altitude(v)
	return nil
}

// RawAircraft is one aircraft record as reported by the feed. Lat and Lon
// are pointers so absent position is distinguishable from 0,0.
type RawAircraft struct {
	Hex          string   `json:"hex"`
	Flight       string   `json:"flight"`
	Registration string   `json:"r"`
	Type         string   `json:"t"`
	Lat          *float64 `json:"lat"`
	Lon          *float64 `json:"lon"`
	AltBaro      Altitude `json:"alt_baro"`
	AltGeom      Altitude `json:"alt_geom"`
	GroundSpeed  float64  `json:"gs"`
	Track        float64  `json:"track"`
	Squawk       string   `json:"squawk"`
	Emergency    string   `json:"emergency"`
}

// regionResponse is the feed's point-query payload.
type regionResponse struct {
	Aircraft []RawAircraft `json:"ac"`
}

// Client queries the ADS-B feed one region at a time, each region behind
// its own circuit breaker so a persistently failing region stops burning
// its timeout on every snapshot.
type Client struct {
	baseURL   string
	userAgent string
	client    *http.Client
	breakers  map[string]*gobreaker.CircuitBreaker[[]RawAircraft]
}

// NewClient creates a feed client with one circuit breaker per region.
func NewClient(cfg config.FlightsConfig) *Client {
	c := &Client{
		baseURL:   cfg.BaseURL,
		userAgent: cfg.UserAgent,
		client: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		breakers: make(map[string]*gobreaker.CircuitBreaker[[]RawAircraft], len(cfg.Regions)),
	}
	for _, region := range cfg.Regions {
		c.breakers[region.Name] = newRegionBreaker(region.Name)
	}
	return c
}

// newRegionBreaker builds the breaker for one region. Opens after a 60%
// failure rate over at least 5 requests; recovers through half-open after
// two minutes.
func newRegionBreaker(name string) *gobreaker.CircuitBreaker[[]RawAircraft] {
	cbName := "flights-" + name
	metrics.SetCircuitBreakerState(cbName, 0)

	return gobreaker.NewCircuitBreaker[[]RawAircraft](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Region circuit breaker state transition")
			metrics.SetCircuitBreakerState(name, stateToInt(to))
		},
	})
}

func stateToInt(state gobreaker.State) int {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// FetchRegion queries one region through its circuit breaker. A rejected
// call (breaker open) is an error like any other; the aggregator treats it
// as a skipped region.
func (c *Client) FetchRegion(ctx context.Context, region config.RegionConfig) ([]RawAircraft, error) {
	breaker, ok := c.breakers[region.Name]
	if !ok {
		// Region added after construction, e.g. in tests. No breaker.
		return c.fetchRegion(ctx, region)
	}

	start := time.Now()
	aircraft, err := breaker.Execute(func() ([]RawAircraft, error) {
		return c.fetchRegion(ctx, region)
	})
	metrics.RecordRegionFetch(region.Name, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return aircraft, nil
}

func (c *Client) fetchRegion(ctx context.Context, region config.RegionConfig) ([]RawAircraft, error) {
	reqURL := fmt.Sprintf("%s/%g/%g/%d", c.baseURL, region.Lat, region.Lon, region.RadiusNM)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for region %s: %w", region.Name, err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("region %s request failed: %w", region.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return nil, fmt.Errorf("region %s returned HTTP %d: %s", region.Name, resp.StatusCode, body)
	}

	var payload regionResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("region %s payload decode failed: %w", region.Name, err)
	}
	return payload.Aircraft, nil
}
