// Geowatch - Live Telemetry Fusion and Geographic Visualization
// Copyright 2026 Geowatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geowatch/geowatch

package detect

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/paulmach/orb/geojson"

	"github.com/geowatch/geowatch/internal/config"
	"github.com/geowatch/geowatch/internal/metrics"
	"github.com/geowatch/geowatch/internal/tilemath"
)

// ErrInvalidImage is returned when an uploaded body is not a decodable
// image. Handlers map it to 400; it is never retried.
var ErrInvalidImage = errors.New("invalid image format")

// ErrDetectorUnavailable wraps detector transport failures for the 502
// mapping in handlers.
var ErrDetectorUnavailable = errors.New("detector unavailable")

// Service ties the imagery client and the detector into the two detection
// operations the API serves.
type Service struct {
	cfg      config.DetectConfig
	detector Detector
	imagery  *ImageryClient
}

// NewService creates the detection service.
func NewService(cfg config.DetectConfig, detector Detector, imagery *ImageryClient) *Service {
	return &Service{cfg: cfg, detector: detector, imagery: imagery}
}

// SegmentResult is the outcome of one tile segmentation.
type SegmentResult struct {
	Collection *geojson.FeatureCollection
	Objects    int
	Sector     string
}

// Segment fetches the satellite tile containing (lat, lon) at the given
// zoom, runs detection on it, and georeferences the output. filter, when
// non-nil, drops detections whose bounding-box center falls outside it.
func (s *Service) Segment(ctx context.Context, lat, lon float64, zoom int, filter *tilemath.GeoBounds) (*SegmentResult, error) {
	start := time.Now()

	addr := tilemath.GeoToTile(lat, lon, zoom)
	tile, err := s.imagery.FetchTile(ctx, addr)
	if err != nil {
		metrics.DetectRequests.WithLabelValues("segment", "failure").Inc()
		return nil, err
	}

	dets, err := s.detector.Detect(ctx, tile.Data)
	if err != nil {
		metrics.DetectRequests.WithLabelValues("segment", "failure").Inc()
		return nil, fmt.Errorf("%w: %v", ErrDetectorUnavailable, err)
	}
	dets = s.aboveConfidenceFloor(dets)

	fc := Georeference(dets, float64(tile.Width), float64(tile.Height), addr.Bounds(), filter)

	metrics.DetectRequests.WithLabelValues("segment", "success").Inc()
	metrics.DetectDuration.Observe(time.Since(start).Seconds())

	return &SegmentResult{
		Collection: fc,
		Objects:    len(fc.Features),
		Sector:     fmt.Sprintf("%d/%d", addr.X, addr.Y),
	}, nil
}

// UploadObject is one detected object in an uploaded image.
type UploadObject struct {
	Object     string `json:"object"`
	Confidence string `json:"confidence"`
	Tag        string `json:"tag"`
}

// UploadReport is the analyze-upload response. Uploaded images carry no
// usable georeference, so Location is always reported unknown.
type UploadReport struct {
	Status    string            `json:"status"`
	Location  map[string]string `json:"location"`
	Objects   []UploadObject    `json:"objects"`
	Count     int               `json:"count"`
	Timestamp string            `json:"timestamp"`
}

// AnalyzeUpload validates and runs detection on an uploaded image.
func (s *Service) AnalyzeUpload(ctx context.Context, imageData []byte) (*UploadReport, error) {
	start := time.Now()

	if _, _, err := image.DecodeConfig(bytes.NewReader(imageData)); err != nil {
		metrics.DetectRequests.WithLabelValues("upload", "failure").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	dets, err := s.detector.Detect(ctx, imageData)
	if err != nil {
		metrics.DetectRequests.WithLabelValues("upload", "failure").Inc()
		return nil, fmt.Errorf("%w: %v", ErrDetectorUnavailable, err)
	}
	dets = s.aboveConfidenceFloor(dets)

	objects := make([]UploadObject, 0, len(dets))
	for _, det := range dets {
		name := strings.ToUpper(det.ClassName)
		if name == "" {
			name = fmt.Sprintf("OBJECT_%d", det.ClassID)
		}
		objects = append(objects, UploadObject{
			Object:     name,
			Confidence: fmt.Sprintf("%d%%", int(det.Confidence*100)),
			Tag:        fmt.Sprintf("DISCOVERY_%d", det.ClassID),
		})
	}

	metrics.DetectRequests.WithLabelValues("upload", "success").Inc()
	metrics.DetectDuration.Observe(time.Since(start).Seconds())

	return &UploadReport{
		Status:    "ANALYSIS_COMPLETE",
		Location:  map[string]string{"lat": "UNKNOWN", "lon": "UNKNOWN"},
		Objects:   objects,
		Count:     len(objects),
		Timestamp: time.Now().Format("2006-01-02 15:04:05"),
	}, nil
}

func (s *Service) aboveConfidenceFloor(dets []RawDetection) []RawDetection {
	if s.cfg.MinConfidence <= 0 {
		return dets
	}
	kept := dets[:0]
	for _, det := range dets {
		if det.Confidence >= s.cfg.MinConfidence {
			kept = append(kept, det)
		}
	}
	return kept
}
