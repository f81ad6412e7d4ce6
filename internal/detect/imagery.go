// Geowatch - Live Telemetry Fusion and Geographic Visualization
// Copyright 2026 Geowatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geowatch/geowatch

package detect

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"strconv"
	"strings"

	// Register the codecs the imagery provider serves.
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/time/rate"

	"github.com/geowatch/geowatch/internal/config"
	"github.com/geowatch/geowatch/internal/metrics"
	"github.com/geowatch/geowatch/internal/tilemath"
)

// ErrImageryUnavailable is returned when the imagery provider is down or
// serves a non-success status. Handlers map it to 502.
var ErrImageryUnavailable = fmt.Errorf("imagery provider unavailable")

// Tile is one fetched and decoded satellite tile.
type Tile struct {
	Data   []byte
	Width  int
	Height int
}

// ImageryClient fetches satellite tiles from a templated URL. Fetches are
// rate limited to stay inside the provider's usage policy.
type ImageryClient struct {
	template  string
	userAgent string
	client    *http.Client
	limiter   *rate.Limiter
}

// NewImageryClient creates a client for cfg.ImageryURL, a template with
// {z}, {y}, {x} placeholders.
func NewImageryClient(cfg config.DetectConfig) *ImageryClient {
	perSec := cfg.FetchRatePerSec
	if perSec <= 0 {
		perSec = 1
	}
	return &ImageryClient{
		template:  cfg.ImageryURL,
		userAgent: "Geowatch/1.0",
		client: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(perSec), 1),
	}
}

// FetchTile downloads and decodes the tile for addr. The image dimensions
// come from the decoded header; the raw bytes are returned for the
// detector, which does its own decoding.
func (c *ImageryClient) FetchTile(ctx context.Context, addr tilemath.TileAddress) (*Tile, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	url := strings.NewReplacer(
		"{z}", strconv.Itoa(addr.Zoom),
		"{y}", strconv.Itoa(addr.Y),
		"{x}", strconv.Itoa(addr.X),
	).Replace(c.template)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create imagery request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.ImageryFetches.WithLabelValues("failure").Inc()
		return nil, fmt.Errorf("%w: %v", ErrImageryUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.ImageryFetches.WithLabelValues("failure").Inc()
		return nil, fmt.Errorf("%w: HTTP %d", ErrImageryUnavailable, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.ImageryFetches.WithLabelValues("failure").Inc()
		return nil, fmt.Errorf("failed to read imagery response: %w", err)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		metrics.ImageryFetches.WithLabelValues("failure").Inc()
		return nil, fmt.Errorf("imagery tile decode failed: %w", err)
	}

	metrics.ImageryFetches.WithLabelValues("success").Inc()
	return &Tile{Data: data, Width: cfg.Width, Height: cfg.Height}, nil
}
