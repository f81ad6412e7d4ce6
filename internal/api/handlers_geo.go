// Geowatch - Live Telemetry Fusion and Geographic Visualization
// Copyright 2026 Geowatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geowatch/geowatch

package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/paulmach/orb/geojson"

	"github.com/geowatch/geowatch/internal/detect"
	"github.com/geowatch/geowatch/internal/tilemath"
	"github.com/geowatch/geowatch/internal/tiles"
)

// Flights serves the merged flight snapshot as a bare JSON array. The
// optional q parameter filters by hex, label, or registration substring.
func (h *Handler) Flights(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	req := FlightsRequest{Query: r.URL.Query().Get("q")}
	if details := validateRequest(&req); details != nil {
		rw.ValidationError("invalid flight query", details)
		return
	}

	rw.Raw(h.flights.Snapshot(r.Context(), req.Query))
}

// Vessels serves the current vessel table snapshot as a bare JSON array.
func (h *Handler) Vessels(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	rw.Raw(h.vessels.Snapshot(h.cfg.Vessels.SnapshotLimit))
}

// TileDocument serves one pre-built tile document by z/x/y address.
func (h *Handler) TileDocument(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	z, errZ := strconv.Atoi(chi.URLParam(r, "z"))
	x, errX := strconv.Atoi(chi.URLParam(r, "x"))
	y, errY := strconv.Atoi(chi.URLParam(r, "y"))
	if errZ != nil || errX != nil || errY != nil {
		rw.BadRequest("tile coordinates must be integers")
		return
	}

	req := TileRequest{Zoom: z, X: x, Y: y}
	if details := validateRequest(&req); details != nil {
		rw.ValidationError("invalid tile address", details)
		return
	}

	doc, err := h.tiles.Tile(tilemath.TileAddress{Zoom: z, X: x, Y: y})
	switch {
	case errors.Is(err, tiles.ErrInvalidAddress):
		rw.BadRequest(err.Error())
	case errors.Is(err, tiles.ErrTileNotFound):
		rw.NotFound("no tile document at this address")
	case err != nil:
		rw.InternalError("tile read failed")
	default:
		rw.RawBytes(doc)
	}
}

// TileIndex serves the tile grid index document.
func (h *Handler) TileIndex(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	doc, err := h.tiles.Index()
	switch {
	case errors.Is(err, tiles.ErrTileNotFound):
		rw.NotFound("tile index not available")
	case err != nil:
		rw.InternalError("tile index read failed")
	default:
		rw.RawBytes(doc)
	}
}

// Segment runs detection over the satellite tile containing the requested
// point and returns georeferenced features. The optional bbox parameter
// (minLat,minLon,maxLat,maxLon) filters features by center point.
func (h *Handler) Segment(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	q := r.URL.Query()

	lat, err := parseFloatParam(q.Get("lat"), "lat")
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}
	lon, err := parseFloatParam(q.Get("lon"), "lon")
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}
	zoom, err := parseIntParam(q.Get("zoom"), 18)
	if err != nil {
		rw.BadRequest("parameter \"zoom\" must be an integer")
		return
	}

	req := SegmentRequest{Lat: lat, Lon: lon, Zoom: zoom}
	if details := validateRequest(&req); details != nil {
		rw.ValidationError("invalid segment parameters", details)
		return
	}

	filter, err := parseBBoxParam(q.Get("bbox"))
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	result, err := h.detect.Segment(r.Context(), lat, lon, zoom, filter)
	switch {
	case errors.Is(err, detect.ErrImageryUnavailable):
		rw.ExternalServiceError("imagery", err)
		return
	case errors.Is(err, detect.ErrDetectorUnavailable):
		rw.ExternalServiceError("detector", err)
		return
	case err != nil:
		rw.InternalError("segmentation failed")
		return
	}

	fc := result.Collection
	fc.ExtraMembers = geojson.Properties{
		"metadata": map[string]interface{}{
			"engine":  "YOLO_V8_SEG",
			"objects": result.Objects,
			"sector":  result.Sector,
		},
	}
	rw.Raw(fc)
}

// isBodyTooLarge reports whether err came from http.MaxBytesReader. The
// multipart reader does not always wrap the typed error, so the message
// is checked as well.
func isBodyTooLarge(err error) bool {
	var tooLarge *http.MaxBytesError
	return errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large")
}

// AnalyzeUpload runs detection over a client-supplied image. The multipart
// field may be named image or img.
func (h *Handler) AnalyzeUpload(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	maxBytes := h.cfg.Detect.MaxUploadBytes
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		file, _, err = r.FormFile("img")
	}
	if err != nil {
		if isBodyTooLarge(err) {
			rw.PayloadTooLarge("uploaded image exceeds the size limit")
			return
		}
		rw.BadRequest("multipart field \"image\" or \"img\" is required")
		return
	}
	defer file.Close()

	imageData, err := io.ReadAll(file)
	if err != nil {
		if isBodyTooLarge(err) {
			rw.PayloadTooLarge("uploaded image exceeds the size limit")
			return
		}
		rw.BadRequest("failed to read uploaded image")
		return
	}

	report, err := h.detect.AnalyzeUpload(r.Context(), imageData)
	switch {
	case errors.Is(err, detect.ErrInvalidImage):
		rw.BadRequest("uploaded file is not a decodable image")
	case errors.Is(err, detect.ErrDetectorUnavailable):
		rw.ExternalServiceError("detector", err)
	case err != nil:
		rw.InternalError("image analysis failed")
	default:
		rw.Raw(report)
	}
}
