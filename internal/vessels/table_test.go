// Geowatch - Live Telemetry Fusion and Geographic Visualization
// Copyright 2026 Geowatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geowatch/geowatch

package vessels

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/geowatch/geowatch/internal/logging"
	"github.com/geowatch/geowatch/internal/models"
)

func TestMain(m *testing.M) {
	logging.Init(logging.Config{Level: "error", Output: io.Discard})
	os.Exit(m.Run())
}

var testPriorityPrefixes = []string{"419", "412", "413", "414", "273"}

func newTestTable() *Table {
	return NewTable("AISstream_LIVE", testPriorityPrefixes)
}

func positionEnvelope(mmsi int64, name string, lat, lon, trueHeading, cog, sog float64) *envelope {
	return &envelope{
		MessageType: msgPositionReport,
		MetaData:    metaData{MMSI: mmsi, ShipName: name},
		Message: message{
			PositionReport: &positionReport{
				Latitude:    lat,
				Longitude:   lon,
				TrueHeading: trueHeading,
				Cog:         cog,
				Sog:         sog,
			},
		},
	}
}

func staticEnvelope(mmsi int64, name string, shipType int, draught float64) *envelope {
	return &envelope{
		MessageType: msgShipStaticData,
		MetaData:    metaData{MMSI: mmsi, ShipName: name},
		Message: message{
			ShipStaticData: &shipStaticData{
				Type:        shipType,
				Draught:     draught,
				Destination: "ROTTERDAM",
				CallSign:    "TEST1",
			},
		},
	}
}

func TestApplyPositionCreatesRecord(t *testing.T) {
	table := newTestTable()
	table.Apply(positionEnvelope(235001111, " EVER TEST ", 51.9, 4.1, 0, 87.5, 12.3))

	snap := table.Snapshot(0)
	if len(snap) != 1 {
		t.Fatalf("len(snapshot) = %d, want 1", len(snap))
	}
	v := snap[0]
	if v.Identity != "235001111" {
		t.Errorf("Identity = %q, want 235001111", v.Identity)
	}
	if v.DisplayName != "EVER TEST" {
		t.Errorf("DisplayName = %q, want trimmed name", v.DisplayName)
	}
	// True heading absent: course over ground substitutes.
	if v.Heading != 87.5 {
		t.Errorf("Heading = %f, want COG fallback 87.5", v.Heading)
	}
	if v.Category != models.VesselCategoryCargo {
		t.Errorf("Category = %q, want cargo default on first sight", v.Category)
	}
	if v.FlagState != unknownFlagState {
		t.Errorf("FlagState = %q, want %q before static data", v.FlagState, unknownFlagState)
	}
	if v.SourceTag != "AISstream_LIVE" {
		t.Errorf("SourceTag = %q", v.SourceTag)
	}
}

// TestStaticThenPositionCarryForward covers the core merge invariant: a
// static update for an unseen key creates a zero-position record, and a
// later position update preserves the category and flag it established.
func TestStaticThenPositionCarryForward(t *testing.T) {
	table := newTestTable()

	table.Apply(staticEnvelope(419000123, "CHENNAI STAR", 81, 95))
	if got := table.Snapshot(0); len(got) != 0 {
		t.Fatalf("zero-position record must be excluded from snapshots, got %d", len(got))
	}
	if table.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 (record exists, just hidden)", table.Len())
	}

	table.Apply(positionEnvelope(419000123, "CHENNAI STAR", 12.3, 98.1, 45, 0, 10))
	snap := table.Snapshot(0)
	if len(snap) != 1 {
		t.Fatalf("len(snapshot) = %d, want 1 after position arrives", len(snap))
	}
	v := snap[0]
	if v.Category != models.VesselCategoryTanker {
		t.Errorf("Category = %q, want tanker carried forward from static data", v.Category)
	}
	if v.FlagState != "IN" {
		t.Errorf("FlagState = %q, want IN carried forward from MID 419", v.FlagState)
	}
	if v.Lat != 12.3 || v.Lon != 98.1 {
		t.Errorf("position = (%f, %f), want (12.3, 98.1)", v.Lat, v.Lon)
	}
}

func TestStaticUpdatesExistingInPlace(t *testing.T) {
	table := newTestTable()
	table.Apply(positionEnvelope(211003333, "NORDSEE", 54.0, 8.0, 120, 0, 9))
	table.Apply(staticEnvelope(211003333, "NORDSEE", 35, 40))

	v := table.Snapshot(0)[0]
	if v.Category != models.VesselCategoryMilitary {
		t.Errorf("Category = %q, want military for type 35", v.Category)
	}
	if v.FlagState != "DE" {
		t.Errorf("FlagState = %q, want DE for MID 211", v.FlagState)
	}
	// Position fields stay untouched by static data.
	if v.Lat != 54.0 || v.Heading != 120 {
		t.Errorf("position fields changed: lat %f heading %f", v.Lat, v.Heading)
	}
}

func TestStaticCreateConvertsDraught(t *testing.T) {
	table := newTestTable()
	table.Apply(staticEnvelope(257004444, "FJORD", 70, 85))

	table.mu.Lock()
	created := table.vessels["257004444"]
	table.mu.Unlock()
	if created.Draft != 8.5 {
		t.Errorf("Draft = %f, want 8.5 (85 decimeters)", created.Draft)
	}
	if created.Destination != "ROTTERDAM" || created.CallSign != "TEST1" {
		t.Errorf("static create fields = %q/%q", created.Destination, created.CallSign)
	}

	// A position report replaces the record; draft is only known from
	// static data and resets with it.
	table.Apply(positionEnvelope(257004444, "FJORD", 60.0, 5.0, 0, 0, 0))
	if v := table.Snapshot(0)[0]; v.Draft != 0 {
		t.Errorf("Draft after position replace = %f, want 0", v.Draft)
	}
}

func TestSnapshotPriorityOrdering(t *testing.T) {
	table := newTestTable()
	table.Apply(positionEnvelope(235000001, "BRITISH", 51, -1, 0, 0, 0))
	table.Apply(positionEnvelope(419000002, "INDIAN", 13, 80, 0, 0, 0))
	table.Apply(positionEnvelope(367000003, "AMERICAN", 37, -122, 0, 0, 0))
	table.Apply(positionEnvelope(273000004, "RUSSIAN", 60, 30, 0, 0, 0))

	snap := table.Snapshot(0)
	if len(snap) != 4 {
		t.Fatalf("len(snapshot) = %d, want 4", len(snap))
	}

	var got []string
	for _, v := range snap {
		got = append(got, v.Identity)
	}
	// Priority prefixes first, MMSI-sorted within each partition.
	want := []string{"273000004", "419000002", "235000001", "367000003"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("snapshot order = %v, want %v", got, want)
	}
}

func TestSnapshotLimit(t *testing.T) {
	table := newTestTable()
	for i := 0; i < 20; i++ {
		table.Apply(positionEnvelope(int64(500000000+i), "V", 10, 10, 0, 0, 0))
	}

	if got := len(table.Snapshot(5)); got != 5 {
		t.Errorf("len(Snapshot(5)) = %d, want 5", got)
	}
	if got := len(table.Snapshot(0)); got != 20 {
		t.Errorf("len(Snapshot(0)) = %d, want 20 (no limit)", got)
	}
}

func TestSnapshotExcludesZeroPositionSentinel(t *testing.T) {
	table := newTestTable()
	table.Apply(positionEnvelope(503000001, "NULLISLAND", 0, 0, 0, 0, 0))
	table.Apply(positionEnvelope(503000002, "EQUATOR", 0, 110, 0, 0, 0))

	snap := table.Snapshot(0)
	if len(snap) != 1 {
		t.Fatalf("len(snapshot) = %d, want 1 (only the 0,110 vessel)", len(snap))
	}
	if snap[0].Identity != "503000002" {
		t.Errorf("surviving vessel = %q, want the one with a nonzero coordinate", snap[0].Identity)
	}
}

// TestConcurrentMergeAndSnapshot exercises the table under simultaneous
// writes and reads. Run with -race; a reader must never observe a
// half-written record.
func TestConcurrentMergeAndSnapshot(t *testing.T) {
	table := newTestTable()

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				mmsi := int64(419000000 + i%50)
				if i%2 == 0 {
					table.Apply(positionEnvelope(mmsi, "RACE", 10+float64(i), 20, 0, 0, 1))
				} else {
					table.Apply(staticEnvelope(mmsi, "RACE", 70+i%20, 50))
				}
			}
		}(w)
	}
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				for _, v := range table.Snapshot(0) {
					if v.Identity == "" || v.SourceTag != "AISstream_LIVE" {
						t.Errorf("observed partially written record: %+v", v)
						return
					}
				}
			}
		}()
	}
	wg.Wait()
}

func TestCategoryForType(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{30, models.VesselCategoryFishing},
		{39, models.VesselCategoryFishing},
		{35, models.VesselCategoryMilitary},
		{40, models.VesselCategoryTug},
		{50, models.VesselCategoryPilot},
		{51, models.VesselCategorySpecial},
		{59, models.VesselCategoryPilot},
		{60, models.VesselCategoryPassenger},
		{75, models.VesselCategoryCargo},
		{89, models.VesselCategoryTanker},
		{0, models.VesselCategoryCargo},
		{99, models.VesselCategoryCargo},
		{-3, models.VesselCategoryCargo},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("type_%d", tt.code), func(t *testing.T) {
			if got := categoryForType(tt.code); got != tt.want {
				t.Errorf("categoryForType(%d) = %q, want %q", tt.code, got, tt.want)
			}
		})
	}
}

func TestFlagStateForMMSI(t *testing.T) {
	tests := []struct {
		mmsi string
		want string
	}{
		{"235123456", "GB"},
		{"419000001", "IN"},
		{"273999999", "RU"},
		{"367500000", "US"},
		{"999123456", unknownFlagState},
		{"12", unknownFlagState},
		{"", unknownFlagState},
	}
	for _, tt := range tests {
		if got := flagStateForMMSI(tt.mmsi); got != tt.want {
			t.Errorf("flagStateForMMSI(%q) = %q, want %q", tt.mmsi, got, tt.want)
		}
	}
}

func TestMMSIKey(t *testing.T) {
	if got := mmsiKey(0); got != "000000000" {
		t.Errorf("mmsiKey(0) = %q, want zero placeholder", got)
	}
	if got := mmsiKey(235001111); got != "235001111" {
		t.Errorf("mmsiKey = %q", got)
	}
}

func TestApplyRaw(t *testing.T) {
	table := newTestTable()

	frame := []byte(`{
		"MessageType": "PositionReport",
		"MetaData": {"MMSI": 235004444, "ShipName": "RAW TEST"},
		"Message": {"PositionReport": {"Latitude": 50.1, "Longitude": 1.2, "Cog": 10, "Sog": 5}}
	}`)
	msgType, err := table.ApplyRaw(frame)
	if err != nil {
		t.Fatalf("ApplyRaw() error: %v", err)
	}
	if msgType != msgPositionReport {
		t.Errorf("message type = %q, want PositionReport", msgType)
	}
	if table.Len() != 1 {
		t.Errorf("Len() = %d, want 1", table.Len())
	}

	if _, err := table.ApplyRaw([]byte("{not json")); err == nil {
		t.Error("ApplyRaw() on malformed frame: want error")
	}
}
