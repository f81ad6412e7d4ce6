// Geowatch - Live Telemetry Fusion and Geographic Visualization
// Copyright 2026 Geowatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geowatch/geowatch

package models

// Vessel category values derived from AIS ship type codes.
const (
	VesselCategoryFishing   = "fishing"
	VesselCategoryTug       = "tug"
	VesselCategoryMilitary  = "military"
	VesselCategoryPilot     = "pilot"
	VesselCategorySpecial   = "special"
	VesselCategoryPassenger = "passenger"
	VesselCategoryCargo     = "cargo"
	VesselCategoryTanker    = "tanker"
)

// Vessel is one ship record as served to dashboard clients. Identity is the
// MMSI. Position reports replace the record; only Category and FlagState
// are carried forward across position updates once learned from static
// data, because a position report never knows the vessel's type.
type Vessel struct {
	Identity    string  `json:"identity"`
	DisplayName string  `json:"displayName"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`

	// Heading is true heading when reported, else course over ground,
	// else 0. Degrees.
	Heading float64 `json:"heading"`

	// Speed is speed over ground in knots.
	Speed float64 `json:"speed"`

	Category  string `json:"category"`
	IMO       int64  `json:"imo"`
	NavStatus int    `json:"navStatus"`

	// FlagState is the ISO country code resolved from the MMSI MID prefix.
	FlagState string `json:"flagState"`

	// Draft is the reported maximum static draught in meters.
	Draft float64 `json:"draft"`

	Destination string `json:"destination"`
	CallSign    string `json:"callSign"`

	// SourceTag labels the feed of origin for provenance display.
	SourceTag string `json:"sourceTag"`
}
