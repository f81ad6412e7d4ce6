// Geowatch - Live Telemetry Fusion and Geographic Visualization
// Copyright 2026 Geowatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geowatch/geowatch

package detect

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/geowatch/geowatch/internal/tilemath"
)

// Classification labels for detector class ids. The detector emits COCO
// class ids; everything unmapped is a generic structure.
const (
	labelStructure = "STRUCTURE_UNIT"
	labelTransport = "TRANS_CLASS"
	labelBiologic  = "BIO_DETECT"
	labelInfra     = "INFRA_CLASS"

	subtypeGeneral  = "GENERAL_SECTOR"
	subtypeVehicle  = "VEHICLE_LOGISTICS"
	subtypeHuman    = "HUMAN_PRESENCE"
	subtypeInterior = "INTERIOR_ELEMENT"
)

// classifyClass maps a detector class id to a label and sub-type.
func classifyClass(classID int) (label, subtype string) {
	switch classID {
	case 2, 3, 5, 7: // car, motorcycle, bus, truck
		return labelTransport, subtypeVehicle
	case 0: // person
		return labelBiologic, subtypeHuman
	case 56, 57, 58, 59, 60, 61: // indoor furnishing classes
		return labelInfra, subtypeInterior
	default:
		return labelStructure, subtypeGeneral
	}
}

// Georeference converts pixel-space detections over an image of the given
// size and geodetic bounds into a GeoJSON feature collection.
//
// Degenerate polygons (fewer than 3 points) are discarded. Each polygon
// ring is closed by repeating its first point. When filter is non-nil, a
// detection whose bounding-box center falls outside it is dropped. Pixel
// area is retained as a diagnostic attribute only.
func Georeference(dets []RawDetection, width, height float64, bounds tilemath.GeoBounds, filter *tilemath.GeoBounds) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for i, det := range dets {
		if len(det.Polygon) < 3 {
			continue
		}

		ring := make(orb.Ring, 0, len(det.Polygon)+1)
		for _, pt := range det.Polygon {
			lat, lon := tilemath.PixelToGeo(pt[0], pt[1], width, height, bounds)
			ring = append(ring, orb.Point{lon, lat})
		}
		ring = append(ring, ring[0])

		topLat, leftLon := tilemath.PixelToGeo(det.Box[0], det.Box[1], width, height, bounds)
		bottomLat, rightLon := tilemath.PixelToGeo(det.Box[2], det.Box[3], width, height, bounds)

		if filter != nil {
			centerLat := (topLat + bottomLat) / 2
			centerLon := (leftLon + rightLon) / 2
			if !filter.Contains(centerLat, centerLon) {
				continue
			}
		}

		label, subtype := classifyClass(det.ClassID)

		feature := geojson.NewFeature(orb.Polygon{ring})
		feature.Properties = geojson.Properties{
			"id":             fmt.Sprintf("DET-%d-%d", det.ClassID, i),
			"classification": label,
			"type":           subtype,
			"area":           fmt.Sprintf("%d px", int(pixelArea(det.Polygon))),
			"status":         "VALIDATED",
			"confidence":     fmt.Sprintf("%d%%", int(det.Confidence*100)),
			"bbox": [][]float64{
				{leftLon, topLat},
				{rightLon, bottomLat},
			},
		}
		fc.Append(feature)
	}

	return fc
}

// pixelArea computes the polygon's area in pixel units via the shoelace
// formula.
func pixelArea(polygon [][2]float64) float64 {
	n := len(polygon)
	if n < 3 {
		return 0
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += polygon[i][0]*polygon[j][1] - polygon[j][0]*polygon[i][1]
	}
	return math.Abs(sum) / 2
}
