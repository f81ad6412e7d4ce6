// Geowatch - Live Telemetry Fusion and Geographic Visualization
// Copyright 2026 Geowatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geowatch/geowatch

package vessels

import "github.com/geowatch/geowatch/internal/models"

// typeCodeRange maps a half-open AIS ship type code range to a category.
type typeCodeRange struct {
	lo, hi   int // inclusive low, exclusive high
	category string
}

// typeCodeOverrides are single codes checked before the containing ranges.
var typeCodeOverrides = map[int]string{
	35: models.VesselCategoryMilitary,
	51: models.VesselCategorySpecial,
}

// typeCodeRanges are the decade bands of the AIS ship type encoding.
// First matching range wins.
var typeCodeRanges = []typeCodeRange{
	{30, 40, models.VesselCategoryFishing},
	{40, 50, models.VesselCategoryTug},
	{50, 60, models.VesselCategoryPilot},
	{60, 70, models.VesselCategoryPassenger},
	{70, 80, models.VesselCategoryCargo},
	{80, 90, models.VesselCategoryTanker},
}

// categoryForType maps a raw AIS ship type code to a category label.
// Total function: unmapped codes default to cargo, the same default a
// never-described vessel gets.
func categoryForType(code int) string {
	if category, ok := typeCodeOverrides[code]; ok {
		return category
	}
	for _, r := range typeCodeRanges {
		if code >= r.lo && code < r.hi {
			return r.category
		}
	}
	return models.VesselCategoryCargo
}
