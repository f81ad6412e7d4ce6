// Geowatch - Live Telemetry Fusion and Geographic Visualization
// Copyright 2026 Geowatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geowatch/geowatch

package flights

import (
	"strings"

	"github.com/geowatch/geowatch/internal/models"
)

// emergencySquawk is the international radiotelephony emergency code.
const emergencySquawk = "7700"

// militaryCallsignPrefixes are tactical callsign prefixes matched against
// the start of the display label.
var militaryCallsignPrefixes = []string{
	"RCH", "SPAR", "SAM", "AF1", "MAGMA", "ASCOT", "BAF", "GAF",
	"PLF", "DUKE", "NAVY", "COBRA", "VIPER", "REACH", "EVAC",
}

// militaryTypeCodes are airframe designators matched as substrings of the
// reported type code, so "C17" also catches variant codes like "C17A".
var militaryTypeCodes = []string{
	"C17", "C130", "C5", "KC135", "KC10", "F15", "F16", "F18",
	"F22", "F35", "B52", "B1", "B2", "E3", "E6", "P8", "V22",
}

// privateTypeCodes are general-aviation airframes matched exactly.
var privateTypeCodes = map[string]struct{}{
	"C172": {}, "C182": {}, "C208": {}, "PA28": {}, "SR22": {},
	"TBM9": {}, "PC12": {}, "CL60": {}, "C152": {}, "PA32": {},
}

// Classify assigns exactly one category to a flight. It is a total function
// of the display label, type code, squawk, and emergency flag; priority
// order is emergency > military > private > commercial, first match wins,
// commercial when nothing matches.
//
// The emergency flag is the feed's own emergency field; any value other
// than empty or "none" counts, as does squawk 7700.
func Classify(label, typeCode, squawk, emergency string) string {
	if isEmergency(squawk, emergency) {
		return models.FlightCategoryEmergency
	}
	if isMilitary(label, typeCode) {
		return models.FlightCategoryMilitary
	}
	if isPrivate(label, typeCode) {
		return models.FlightCategoryPrivate
	}
	return models.FlightCategoryCommercial
}

func isEmergency(squawk, emergency string) bool {
	if squawk == emergencySquawk {
		return true
	}
	return emergency != "" && emergency != "none"
}

func isMilitary(label, typeCode string) bool {
	upperLabel := strings.ToUpper(label)
	for _, p := range militaryCallsignPrefixes {
		if strings.HasPrefix(upperLabel, p) {
			return true
		}
	}
	upperType := strings.ToUpper(typeCode)
	for _, t := range militaryTypeCodes {
		if upperType != "" && strings.Contains(upperType, t) {
			return true
		}
	}
	return false
}

func isPrivate(label, typeCode string) bool {
	if strings.HasPrefix(label, "N") && len(label) <= 6 {
		return true
	}
	if strings.HasPrefix(label, "G-") || strings.HasPrefix(label, "VH-") {
		return true
	}
	_, ok := privateTypeCodes[strings.ToUpper(typeCode)]
	return ok
}
