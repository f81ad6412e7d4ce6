// Geowatch - Live Telemetry Fusion and Geographic Visualization
// Copyright 2026 Geowatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geowatch/geowatch

package flights

import (
	"context"
	"strings"
	"sync"

	"github.com/geowatch/geowatch/internal/config"
	"github.com/geowatch/geowatch/internal/logging"
	"github.com/geowatch/geowatch/internal/metrics"
	"github.com/geowatch/geowatch/internal/models"
)

// placeholder fills registration and type code fields the feed left empty,
// matching what the dashboard renders for unknown values.
const placeholder = "---"

// squawkPlaceholder fills an absent squawk.
const squawkPlaceholder = "----"

// Aggregator produces deduplicated flight snapshots by fanning out to the
// configured regions concurrently. Fan-out is bounded by the fixed region
// count; there is no retry, each snapshot is a fresh best-effort pass.
type Aggregator struct {
	client  *Client
	regions []config.RegionConfig
}

// NewAggregator creates an aggregator over the fixed region list.
func NewAggregator(client *Client, regions []config.RegionConfig) *Aggregator {
	return &Aggregator{client: client, regions: regions}
}

// Snapshot fetches all regions in parallel and merges the results in region
// order. The first region to report a hex wins; later duplicates are
// discarded, so one pass yields a deduplicated snapshot. A failed region is
// logged and skipped, partial results are still returned.
//
// search is an optional case-insensitive substring filter applied against
// hex, display label, and registration before a record is admitted.
func (a *Aggregator) Snapshot(ctx context.Context, search string) []models.Flight {
	search = strings.ToUpper(strings.TrimSpace(search))

	results := make([][]RawAircraft, len(a.regions))
	var wg sync.WaitGroup
	for i, region := range a.regions {
		wg.Add(1)
		go func(i int, region config.RegionConfig) {
			defer wg.Done()
			aircraft, err := a.client.FetchRegion(ctx, region)
			if err != nil {
				logging.Warn().Err(err).Str("region", region.Name).Msg("Region fetch failed, skipping")
				return
			}
			results[i] = aircraft
		}(i, region)
	}
	wg.Wait()

	seen := make(map[string]struct{})
	flights := make([]models.Flight, 0, 256)
	for _, aircraft := range results {
		for _, ac := range aircraft {
			if ac.Lat == nil || ac.Lon == nil {
				continue
			}

			hex := strings.ToUpper(ac.Hex)
			if _, dup := seen[hex]; dup {
				continue
			}

			// Display label falls back callsign -> registration -> hex.
			label := strings.TrimSpace(ac.Flight)
			if label == "" {
				label = ac.Registration
			}
			if label == "" {
				label = hex
			}

			if search != "" &&
				!strings.Contains(hex, search) &&
				!strings.Contains(strings.ToUpper(label), search) &&
				!strings.Contains(strings.ToUpper(ac.Registration), search) {
				continue
			}

			seen[hex] = struct{}{}

			altitude := float64(ac.AltBaro)
			if altitude == 0 {
				altitude = float64(ac.AltGeom)
			}
			squawk := ac.Squawk
			if squawk == "" {
				squawk = squawkPlaceholder
			}

			flights = append(flights, models.Flight{
				Identity:     strings.ToLower(hex),
				DisplayLabel: label,
				Registration: orPlaceholder(ac.Registration),
				TypeCode:     orPlaceholder(ac.Type),
				Lon:          *ac.Lon,
				Lat:          *ac.Lat,
				Altitude:     altitude,
				Speed:        ac.GroundSpeed,
				Heading:      ac.Track,
				Squawk:       squawk,
				Category:     Classify(label, ac.Type, ac.Squawk, ac.Emergency),
			})
		}
	}

	metrics.FlightsReturned.Observe(float64(len(flights)))
	return flights
}

func orPlaceholder(s string) string {
	if s == "" {
		return placeholder
	}
	return s
}
