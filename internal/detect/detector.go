// Geowatch - Live Telemetry Fusion and Geographic Visualization
// Copyright 2026 Geowatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geowatch/geowatch

// Package detect georeferences pixel-space detector output: it fetches a
// satellite tile for a coordinate, sends it to an external object-detection
// service, and converts the returned masks and boxes into geodetic GeoJSON
// features through the tile projection.
package detect

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/geowatch/geowatch/internal/config"
)

// RawDetection is one detector output in pixel space.
type RawDetection struct {
	ClassID    int          `json:"class_id"`
	ClassName  string       `json:"class_name"`
	Confidence float64      `json:"confidence"`
	Box        [4]float64   `json:"box"`
	Polygon    [][2]float64 `json:"polygon"`
}

// Detector runs object detection on an encoded image. Implementations must
// honor the context for cancellation.
type Detector interface {
	Detect(ctx context.Context, image []byte) ([]RawDetection, error)
}

// detectorResponse is the detection service's payload shape.
type detectorResponse struct {
	Detections []RawDetection `json:"detections"`
}

// HTTPDetector posts images to an external detection service.
type HTTPDetector struct {
	url    string
	client *http.Client
}

// NewHTTPDetector creates a detector client against cfg.DetectorURL.
func NewHTTPDetector(cfg config.DetectConfig) *HTTPDetector {
	return &HTTPDetector{
		url: cfg.DetectorURL,
		client: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
	}
}

// Detect implements Detector.
func (d *HTTPDetector) Detect(ctx context.Context, image []byte) ([]RawDetection, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(image))
	if err != nil {
		return nil, fmt.Errorf("failed to create detector request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("detector request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("detector returned HTTP %d: %s", resp.StatusCode, body)
	}

	var payload detectorResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("detector payload decode failed: %w", err)
	}
	return payload.Detections, nil
}
