// Geowatch - Live Telemetry Fusion and Geographic Visualization
// Copyright 2026 Geowatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geowatch/geowatch

package vessels

import (
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/geowatch/geowatch/internal/metrics"
	"github.com/geowatch/geowatch/internal/models"
)

// Defaults for fields a message did not carry.
const (
	unknownShipName    = "UNKNOWN"
	unknownDestination = "Unknown"
	unknownCallSign    = "---"
)

// Table is the keyed in-memory vessel table. One mutex serializes the merge
// writes from the stream and the copy reads from request handlers; the
// critical section never wraps network I/O, only the merge or the copy.
// The table is never cleared and grows until process restart.
type Table struct {
	mu               sync.Mutex
	vessels          map[string]models.Vessel
	sourceTag        string
	priorityPrefixes []string
}

// NewTable creates an empty vessel table.
func NewTable(sourceTag string, priorityPrefixes []string) *Table {
	return &Table{
		vessels:          make(map[string]models.Vessel),
		sourceTag:        sourceTag,
		priorityPrefixes: priorityPrefixes,
	}
}

// Apply merges one feed envelope into the table. Envelopes that carry
// neither known message category are ignored.
func (t *Table) Apply(env *envelope) {
	mmsi := mmsiKey(env.MetaData.MMSI)
	switch {
	case env.Message.PositionReport != nil:
		t.applyPosition(mmsi, env.MetaData, env.Message.PositionReport)
	case env.Message.ShipStaticData != nil:
		t.applyStatic(mmsi, env.MetaData, env.Message.ShipStaticData)
	}
}

// ApplyRaw parses one raw feed frame and merges it into the table. The
// returned message type feeds ingest accounting.
func (t *Table) ApplyRaw(data []byte) (string, error) {
	env, err := parseEnvelope(data)
	if err != nil {
		return "", err
	}
	t.Apply(env)
	return env.MessageType, nil
}

// applyPosition replaces the record for the key. Category and FlagState are
// carried forward from any existing record, since a position report never
// knows the vessel's type; an unseen key defaults to cargo.
func (t *Table) applyPosition(mmsi string, meta metaData, pos *positionReport) {
	name := strings.TrimSpace(meta.ShipName)
	if name == "" {
		name = unknownShipName
	}

	heading := pos.TrueHeading
	if heading == 0 {
		heading = pos.Cog
	}

	v := models.Vessel{
		Identity:    mmsi,
		DisplayName: name,
		Lat:         pos.Latitude,
		Lon:         pos.Longitude,
		Heading:     heading,
		Speed:       pos.Sog,
		Category:    models.VesselCategoryCargo,
		IMO:         meta.IMO,
		NavStatus:   pos.NavigationalStatus,
		FlagState:   unknownFlagState,
		Destination: orDefault(meta.Destination, unknownDestination),
		CallSign:    orDefault(meta.CallSign, unknownCallSign),
		SourceTag:   t.sourceTag,
	}

	t.mu.Lock()
	if existing, ok := t.vessels[mmsi]; ok {
		v.Category = existing.Category
		v.FlagState = existing.FlagState
	}
	t.vessels[mmsi] = v
	size := len(t.vessels)
	t.mu.Unlock()

	metrics.VesselTableSize.Set(float64(size))
}

// applyStatic updates type-derived fields in place for a known key. An
// unseen key gets a minimal zero-position record that waits for a future
// position report; the zero position keeps it out of snapshots until then.
func (t *Table) applyStatic(mmsi string, meta metaData, static *shipStaticData) {
	category := categoryForType(static.Type)
	flag := flagStateForMMSI(mmsi)

	t.mu.Lock()
	if existing, ok := t.vessels[mmsi]; ok {
		existing.Category = category
		existing.FlagState = flag
		t.vessels[mmsi] = existing
	} else {
		t.vessels[mmsi] = models.Vessel{
			Identity:    mmsi,
			DisplayName: orDefault(strings.TrimSpace(meta.ShipName), unknownShipName),
			Category:    category,
			FlagState:   flag,
			IMO:         meta.IMO,
			// Draught arrives in decimeters.
			Draft:       static.Draught / 10,
			Destination: orDefault(static.Destination, unknownDestination),
			CallSign:    orDefault(static.CallSign, unknownCallSign),
			SourceTag:   t.sourceTag,
		}
	}
	size := len(t.vessels)
	t.mu.Unlock()

	metrics.VesselTableSize.Set(float64(size))
}

// Snapshot returns an immutable point-in-time copy of the table: records
// with the zero-position sentinel dropped, priority flag prefixes first,
// each partition sorted by MMSI for a stable presentation order, truncated
// to limit. The ordering is presentation policy, not correctness.
func (t *Table) Snapshot(limit int) []models.Vessel {
	t.mu.Lock()
	all := make([]models.Vessel, 0, len(t.vessels))
	for _, v := range t.vessels {
		all = append(all, v)
	}
	t.mu.Unlock()

	priority := make([]models.Vessel, 0, len(all))
	rest := make([]models.Vessel, 0, len(all))
	for _, v := range all {
		if v.Lat == 0 && v.Lon == 0 {
			continue
		}
		if t.hasPriorityPrefix(v.Identity) {
			priority = append(priority, v)
		} else {
			rest = append(rest, v)
		}
	}

	sort.Slice(priority, func(i, j int) bool { return priority[i].Identity < priority[j].Identity })
	sort.Slice(rest, func(i, j int) bool { return rest[i].Identity < rest[j].Identity })

	out := append(priority, rest...)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Len returns the current table size, zero-position records included.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.vessels)
}

func (t *Table) hasPriorityPrefix(mmsi string) bool {
	for _, p := range t.priorityPrefixes {
		if strings.HasPrefix(mmsi, p) {
			return true
		}
	}
	return false
}

// mmsiKey renders the numeric MMSI as the table key. A missing MMSI keeps
// the zero-padded placeholder so malformed metadata cannot collide with a
// real short key.
func mmsiKey(mmsi int64) string {
	if mmsi == 0 {
		return "000000000"
	}
	return strconv.FormatInt(mmsi, 10)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
