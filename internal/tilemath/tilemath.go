// Geowatch - Live Telemetry Fusion and Geographic Visualization
// Copyright 2026 Geowatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geowatch/geowatch

// Package tilemath implements the slippy-map tile projection used by every
// layer that touches geography: tile serving, imagery fetch, and detection
// georeferencing. It is the single source of truth for the projection; any
// divergence between forward and inverse mapping shows up as visibly
// misaligned overlays on the dashboard.
//
// The grid is the standard power-of-two Web Mercator quantization. X tiles
// are equal longitude bands; Y tiles are equal bands of asinh(tan(lat)), so
// tile height in degrees shrinks toward the poles.
package tilemath

import "math"

// TileAddress identifies one tile of the grid at a zoom level.
// Invariant: 0 <= X,Y < 2^Zoom.
type TileAddress struct {
	Zoom int `json:"zoom"`
	X    int `json:"x"`
	Y    int `json:"y"`
}

// GeoBounds is a geodetic bounding box. North > South always holds for
// bounds produced by TileAddress.Bounds.
type GeoBounds struct {
	North float64 `json:"north"`
	South float64 `json:"south"`
	West  float64 `json:"west"`
	East  float64 `json:"east"`
}

// GeoToTile quantizes a geodetic coordinate to the tile containing it.
// There is no error condition: latitudes beyond the projection's domain
// saturate to the edge tiles rather than failing.
func GeoToTile(lat, lon float64, zoom int) TileAddress {
	n := float64(int(1) << uint(zoom))

	x := int(math.Floor((lon + 180.0) / 360.0 * n))

	latRad := lat * math.Pi / 180.0
	y := int(math.Floor((1.0 - math.Asinh(math.Tan(latRad))/math.Pi) / 2.0 * n))

	// Saturate at the grid edges. lon=180 and extreme latitudes would
	// otherwise index one past the last tile.
	max := int(n) - 1
	if x < 0 {
		x = 0
	} else if x > max {
		x = max
	}
	if y < 0 {
		y = 0
	} else if y > max {
		y = max
	}

	return TileAddress{Zoom: zoom, X: x, Y: y}
}

// Bounds returns the exact analytic inverse of GeoToTile for this tile.
// Edge latitudes use the Gudermannian inverse atan(sinh(...)) rather than
// linear interpolation because Y bands are not equal-angle.
func (t TileAddress) Bounds() GeoBounds {
	n := float64(int(1) << uint(t.Zoom))

	west := float64(t.X)/n*360.0 - 180.0
	east := float64(t.X+1)/n*360.0 - 180.0

	north := tileEdgeLat(float64(t.Y), n)
	south := tileEdgeLat(float64(t.Y+1), n)

	return GeoBounds{North: north, South: south, West: west, East: east}
}

// tileEdgeLat returns the latitude of the northern edge of tile row y on a
// grid of n rows.
func tileEdgeLat(y, n float64) float64 {
	return math.Atan(math.Sinh(math.Pi*(1.0-2.0*y/n))) * 180.0 / math.Pi
}

// Valid reports whether the address is inside the grid for its zoom level.
func (t TileAddress) Valid() bool {
	if t.Zoom < 0 || t.X < 0 || t.Y < 0 {
		return false
	}
	n := 1 << uint(t.Zoom)
	return t.X < n && t.Y < n
}

// PixelToGeo maps a pixel offset within an image covering bounds b to a
// geodetic coordinate. Longitude is linear across the west-east span and
// latitude is linear across the north-south span of the band. That is an
// equirectangular approximation, acceptable at single-tile scale; the
// latitude scale is the tile's own span, never a flat degrees-per-pixel
// constant.
func PixelToGeo(px, py, width, height float64, b GeoBounds) (lat, lon float64) {
	lon = b.West + (px/width)*(b.East-b.West)
	lat = b.North - (py/height)*(b.North-b.South)
	return lat, lon
}

// Center returns the midpoint of the bounds.
func (b GeoBounds) Center() (lat, lon float64) {
	return (b.North + b.South) / 2.0, (b.West + b.East) / 2.0
}

// Contains reports whether the coordinate lies within the bounds,
// edges inclusive.
func (b GeoBounds) Contains(lat, lon float64) bool {
	return lat <= b.North && lat >= b.South && lon >= b.West && lon <= b.East
}
