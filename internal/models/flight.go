// Geowatch - Live Telemetry Fusion and Geographic Visualization
// Copyright 2026 Geowatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geowatch/geowatch

// Package models defines the wire-level domain entities shared by the
// aggregation, caching, and API layers. Field names match the JSON contract
// consumed by the dashboard.
package models

// Flight classification values, ordered by display priority. A flight gets
// exactly one category; emergency outranks everything else.
const (
	FlightCategoryEmergency  = "emergency"
	FlightCategoryMilitary   = "military"
	FlightCategoryPrivate    = "private"
	FlightCategoryCommercial = "commercial"
)

// Flight is one aircraft position record as served to dashboard clients.
// Identity is the 24-bit ICAO hex address; DisplayLabel is the callsign when
// reported, else the registration, else the hex address.
type Flight struct {
	Identity     string  `json:"identity"`
	DisplayLabel string  `json:"displayLabel"`
	Registration string  `json:"registration"`
	TypeCode     string  `json:"typeCode"`
	Lon          float64 `json:"lon"`
	Lat          float64 `json:"lat"`

	// Altitude is barometric when available, geometric otherwise. Feet.
	Altitude float64 `json:"altitude"`

	// Speed is ground speed in knots.
	Speed float64 `json:"speed"`

	// Heading is the ground track in degrees.
	Heading float64 `json:"heading"`

	Squawk   string `json:"squawk"`
	Category string `json:"category"`
}
