// Geowatch - Live Telemetry Fusion and Geographic Visualization
// Copyright 2026 Geowatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geowatch/geowatch

// Package vessels maintains the live vessel table: a single supervised
// websocket connection to an AIS feed continuously merges partial updates
// into a keyed in-memory table, and request handlers read immutable
// snapshots of it.
package vessels

import "github.com/goccy/go-json"

// Message type discriminators of the AIS feed envelope.
const (
	msgPositionReport = "PositionReport"
	msgShipStaticData = "ShipStaticData"
)

// subscription is the one-shot request sent after connecting. The bounding
// box covers the whole globe.
type subscription struct {
	APIKey        string         `json:"APIKey"`
	BoundingBoxes [][][2]float64 `json:"BoundingBoxes"`
}

func newGlobalSubscription(apiKey string) subscription {
	return subscription{
		APIKey: apiKey,
		BoundingBoxes: [][][2]float64{
			{{-90, -180}, {90, 180}},
		},
	}
}

// envelope is the feed's outer message shape. Exactly one of the inner
// message pointers is set, selected by MessageType.
type envelope struct {
	MessageType string   `json:"MessageType"`
	MetaData    metaData `json:"MetaData"`
	Message     message  `json:"Message"`
}

type message struct {
	PositionReport *positionReport `json:"PositionReport"`
	ShipStaticData *shipStaticData `json:"ShipStaticData"`
}

// metaData accompanies every feed message.
type metaData struct {
	MMSI        int64  `json:"MMSI"`
	ShipName    string `json:"ShipName"`
	IMO         int64  `json:"IMO"`
	CallSign    string `json:"CallSign"`
	Destination string `json:"Destination"`
}

// positionReport is AIS message types 1-3.
type positionReport struct {
	Latitude           float64 `json:"Latitude"`
	Longitude          float64 `json:"Longitude"`
	TrueHeading        float64 `json:"TrueHeading"`
	Cog                float64 `json:"Cog"`
	Sog                float64 `json:"Sog"`
	NavigationalStatus int     `json:"NavigationalStatus"`
}

// shipStaticData is AIS message type 5. Draught is reported in decimeters.
type shipStaticData struct {
	Type        int     `json:"Type"`
	Draught     float64 `json:"Draught"`
	Destination string  `json:"Destination"`
	CallSign    string  `json:"CallSign"`
}

// parseEnvelope decodes one raw feed message.
func parseEnvelope(data []byte) (*envelope, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	return &env, nil
}
