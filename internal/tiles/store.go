// Geowatch - Live Telemetry Fusion and Geographic Visualization
// Copyright 2026 Geowatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geowatch/geowatch

// Package tiles serves pre-built per-tile JSON documents from a directory
// tree laid out <dir>/<z>/<x>/<y>.json, with <dir>/index.json as the grid
// index. Documents are produced by an external build pipeline; this package
// only reads them, through an LRU cache.
package tiles

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/geowatch/geowatch/internal/config"
	"github.com/geowatch/geowatch/internal/logging"
	"github.com/geowatch/geowatch/internal/tilemath"
)

// ErrTileNotFound is returned when no document exists for a valid address.
// Handlers map it to a 404.
var ErrTileNotFound = errors.New("tile document not found")

// ErrInvalidAddress is returned for addresses outside the grid. Rejected
// before any disk access.
var ErrInvalidAddress = errors.New("invalid tile address")

// indexKey is the cache key for the grid index document.
const indexKey = "index"

// Store reads tile documents from disk with an LRU cache in front.
type Store struct {
	dir   string
	cache *docCache
}

// NewStore creates a tile store rooted at cfg.Dir. The directory is not
// required to exist at construction; lookups in a missing tree simply
// return ErrTileNotFound.
func NewStore(cfg config.TilesConfig) *Store {
	return &Store{
		dir:   cfg.Dir,
		cache: newDocCache(cfg.CacheSize, cfg.CacheTTL),
	}
}

// Tile returns the JSON document for the given address.
func (s *Store) Tile(addr tilemath.TileAddress) ([]byte, error) {
	if !addr.Valid() {
		return nil, fmt.Errorf("%w: %d/%d/%d", ErrInvalidAddress, addr.Zoom, addr.X, addr.Y)
	}

	key := fmt.Sprintf("%d/%d/%d", addr.Zoom, addr.X, addr.Y)
	if doc, ok := s.cache.Get(key); ok {
		return doc, nil
	}

	path := filepath.Join(s.dir,
		strconv.Itoa(addr.Zoom), strconv.Itoa(addr.X), strconv.Itoa(addr.Y)+".json")
	doc, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrTileNotFound
		}
		return nil, fmt.Errorf("failed to read tile %s: %w", key, err)
	}

	logging.Debug().Str("tile", key).Int("bytes", len(doc)).Msg("Tile document loaded from disk")
	s.cache.Add(key, doc)
	return doc, nil
}

// Index returns the grid index document.
func (s *Store) Index() ([]byte, error) {
	if doc, ok := s.cache.Get(indexKey); ok {
		return doc, nil
	}

	doc, err := os.ReadFile(filepath.Join(s.dir, "index.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrTileNotFound
		}
		return nil, fmt.Errorf("failed to read tile index: %w", err)
	}

	s.cache.Add(indexKey, doc)
	return doc, nil
}
