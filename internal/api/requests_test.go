// Geowatch - Live Telemetry Fusion and Geographic Visualization
// Copyright 2026 Geowatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geowatch/geowatch

package api

import (
	"testing"
)

func TestParseBBoxParam(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantNil bool
		wantErr bool
	}{
		{name: "empty means no filter", input: "", wantNil: true},
		{name: "valid", input: "10,20,30,40"},
		{name: "valid with spaces", input: " 10 , 20 , 30 , 40 "},
		{name: "too few parts", input: "10,20,30", wantErr: true},
		{name: "non-numeric", input: "10,20,x,40", wantErr: true},
		{name: "inverted latitudes", input: "30,20,10,40", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bounds, err := parseBBoxParam(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatal("want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantNil {
				if bounds != nil {
					t.Fatalf("bounds = %+v, want nil", bounds)
				}
				return
			}
			if bounds.South != 10 || bounds.West != 20 || bounds.North != 30 || bounds.East != 40 {
				t.Errorf("bounds = %+v", bounds)
			}
		})
	}
}

func TestValidateSegmentRequest(t *testing.T) {
	if details := validateRequest(&SegmentRequest{Lat: 37.7, Lon: -122.4, Zoom: 18}); details != nil {
		t.Errorf("valid request rejected: %v", details)
	}
	if details := validateRequest(&SegmentRequest{Lat: 95, Lon: 0, Zoom: 18}); details == nil {
		t.Error("latitude 95 accepted")
	}
	if details := validateRequest(&SegmentRequest{Lat: 0, Lon: 0, Zoom: 30}); details == nil {
		t.Error("zoom 30 accepted")
	}
}

func TestValidateTileRequest(t *testing.T) {
	if details := validateRequest(&TileRequest{Zoom: 12, X: 655, Y: 1583}); details != nil {
		t.Errorf("valid request rejected: %v", details)
	}
	if details := validateRequest(&TileRequest{Zoom: -1, X: 0, Y: 0}); details == nil {
		t.Error("negative zoom accepted")
	}
	if details := validateRequest(&TileRequest{Zoom: 12, X: -3, Y: 0}); details == nil {
		t.Error("negative x accepted")
	}
}

func TestParseFloatParam(t *testing.T) {
	if _, err := parseFloatParam("", "lat"); err == nil {
		t.Error("missing value accepted")
	}
	if _, err := parseFloatParam("abc", "lat"); err == nil {
		t.Error("non-numeric value accepted")
	}
	f, err := parseFloatParam("-122.4194", "lon")
	if err != nil || f != -122.4194 {
		t.Errorf("parseFloatParam = %f, %v", f, err)
	}
}
