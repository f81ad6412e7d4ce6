// Geowatch - Live Telemetry Fusion and Geographic Visualization
// Copyright 2026 Geowatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geowatch/geowatch

package api

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/geowatch/geowatch/internal/tilemath"
)

// validate is the shared validator instance. go-playground/validator
// caches struct metadata, so a single instance is both safe and cheap.
var validate = validator.New()

// SegmentRequest holds the validated query parameters for the segment
// endpoint.
type SegmentRequest struct {
	Lat  float64 `validate:"latitude"`
	Lon  float64 `validate:"longitude"`
	Zoom int     `validate:"min=1,max=22"`
}

// TileRequest holds the validated path parameters for tile document
// lookups. Coordinate-versus-zoom bounds are enforced by the tile store;
// these tags only reject obviously malformed paths.
type TileRequest struct {
	Zoom int `validate:"min=0,max=22"`
	X    int `validate:"min=0"`
	Y    int `validate:"min=0"`
}

// FlightsRequest holds the validated query parameters for the flight
// snapshot endpoint.
type FlightsRequest struct {
	Query string `validate:"omitempty,max=32"`
}

// validateRequest runs struct validation and flattens failures into
// field-level messages suitable for an error response.
func validateRequest(v interface{}) []string {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var invalid validator.ValidationErrors
	if !errors.As(err, &invalid) {
		return []string{err.Error()}
	}

	details := make([]string, 0, len(invalid))
	for _, fe := range invalid {
		details = append(details, fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag()))
	}
	return details
}

// parseFloatParam parses a required float query parameter.
func parseFloatParam(value, name string) (float64, error) {
	if value == "" {
		return 0, fmt.Errorf("missing required parameter %q", name)
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("parameter %q must be a number", name)
	}
	return f, nil
}

// parseIntParam parses an optional integer query parameter with a
// default.
func parseIntParam(value string, defaultValue int) (int, error) {
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("expected an integer, got %q", value)
	}
	return n, nil
}

// parseBBoxParam parses an optional "minLat,minLon,maxLat,maxLon" filter.
// A nil result with nil error means no filter was requested.
func parseBBoxParam(value string) (*tilemath.GeoBounds, error) {
	if value == "" {
		return nil, nil
	}

	parts := strings.Split(value, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("bbox must be minLat,minLon,maxLat,maxLon")
	}

	coords := make([]float64, 4)
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("bbox component %q is not a number", p)
		}
		coords[i] = f
	}

	bounds := &tilemath.GeoBounds{
		South: coords[0],
		West:  coords[1],
		North: coords[2],
		East:  coords[3],
	}
	if bounds.South > bounds.North {
		return nil, fmt.Errorf("bbox minLat %f exceeds maxLat %f", bounds.South, bounds.North)
	}
	return bounds, nil
}
