// Tidewatch - Live Maritime Conditions Map
// Copyright 2026 Tidewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tidewatch/tidewatch

// Package store holds the in-memory vessel position store. All state is
// volatile; nothing survives a restart.
package store

import (
	"sync"
	"time"

	"github.com/tidewatch/tidewatch/internal/geo"
	"github.com/tidewatch/tidewatch/internal/metrics"
	"github.com/tidewatch/tidewatch/internal/models"
)

// DefaultStaleWindow is how long a position stays queryable without a fresh
// report.
const DefaultStaleWindow = 30 * time.Minute

// VesselStore keeps the latest position per MMSI. The stream ingestor is
// the only writer; request handlers are concurrent readers. Staleness is
// enforced lazily: reads sweep before collecting, there is no background
// janitor.
type VesselStore struct {
	mu          sync.RWMutex
	vessels     map[int64]models.VesselPosition
	staleWindow time.Duration

	// now is swappable in tests.
	now func() time.Time
}

// New creates a VesselStore with the given staleness window.
// Non-positive values fall back to DefaultStaleWindow.
func New(staleWindow time.Duration) *VesselStore {
	if staleWindow <= 0 {
		staleWindow = DefaultStaleWindow
	}
	return &VesselStore{
		vessels:     make(map[int64]models.VesselPosition),
		staleWindow: staleWindow,
		now:         time.Now,
	}
}

// Upsert stores a position, replacing any prior record for the same MMSI
// (last-writer-wins, no merge). Records without a usable identity or
// geolocation are rejected; the return value reports acceptance.
func (s *VesselStore) Upsert(v models.VesselPosition) bool {
	if v.MMSI == 0 || !geo.ValidCoordinates(v.Lat, v.Lon) {
		return false
	}

	s.mu.Lock()
	s.vessels[v.MMSI] = v
	metrics.StoreSize.Set(float64(len(s.vessels)))
	s.mu.Unlock()
	return true
}

// QueryViewport returns all fresh positions inside the box, bounds
// inclusive, in unspecified order. Stale entries are swept first so a
// silent stream can never serve positions older than the window. An
// inverted box matches nothing.
func (s *VesselStore) QueryViewport(box geo.BoundingBox) []models.VesselPosition {
	now := s.now()
	s.sweep(now)

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.VesselPosition, 0)
	for _, v := range s.vessels {
		if box.Contains(v.Lat, v.Lon) {
			result = append(result, v)
		}
	}
	return result
}

// Sweep removes entries older than the window relative to now and returns
// how many were removed.
func (s *VesselStore) Sweep(now time.Time) int {
	return s.sweep(now)
}

func (s *VesselStore) sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for mmsi, v := range s.vessels {
		if now.Sub(v.ObservedAt) > s.staleWindow {
			delete(s.vessels, mmsi)
			removed++
		}
	}
	if removed > 0 {
		metrics.StoreSweepRemoved.Add(float64(removed))
		metrics.StoreSize.Set(float64(len(s.vessels)))
	}
	return removed
}

// Size sweeps, then returns the number of fresh positions held.
func (s *VesselStore) Size() int {
	s.sweep(s.now())

	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vessels)
}
