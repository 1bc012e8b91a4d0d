// Tidewatch - Live Maritime Conditions Map
// Copyright 2026 Tidewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tidewatch/tidewatch

// Package geo provides the bounding-box primitives shared by the store,
// cache and query layers.
package geo

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// BoundingBox is a rectangle in latitude/longitude space used to scope a
// query. An inverted box (min greater than max) is legal and simply matches
// nothing; callers treat it as an empty viewport, never an error.
type BoundingBox struct {
	MinLat float64
	MinLon float64
	MaxLat float64
	MaxLon float64
}

// Contains reports whether the point lies within the box, inclusive on all
// four edges.
func (b BoundingBox) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

// Rounded returns a copy of the box with every coordinate rounded to one
// decimal degree. Nearby viewports collapse onto the same rounded box, which
// is what makes response caching effective for jittery map clients panning
// around the same area. The trade-off is deliberate: wider rounding raises
// the hit rate at the cost of spatially coarser cached results.
func (b BoundingBox) Rounded() BoundingBox {
	return BoundingBox{
		MinLat: round1(b.MinLat),
		MinLon: round1(b.MinLon),
		MaxLat: round1(b.MaxLat),
		MaxLon: round1(b.MaxLon),
	}
}

// Key renders the rounded box as a stable string fragment for cache keys.
func (b BoundingBox) Key() string {
	r := b.Rounded()
	return fmt.Sprintf("%.1f,%.1f,%.1f,%.1f", r.MinLat, r.MinLon, r.MaxLat, r.MaxLon)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// ValidCoordinates reports whether lat/lon are finite and within standard
// geographic ranges (-90..90, -180..180).
func ValidCoordinates(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// ParseBox parses a "minLat,minLon,maxLat,maxLon" string, as used by the
// region entries in the stream configuration.
func ParseBox(s string) (BoundingBox, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return BoundingBox{}, fmt.Errorf("geo: expected 4 coordinates, got %d in %q", len(parts), s)
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return BoundingBox{}, fmt.Errorf("geo: invalid coordinate %q: %w", p, err)
		}
		vals[i] = v
	}
	box := BoundingBox{MinLat: vals[0], MinLon: vals[1], MaxLat: vals[2], MaxLon: vals[3]}
	if !ValidCoordinates(box.MinLat, box.MinLon) || !ValidCoordinates(box.MaxLat, box.MaxLon) {
		return BoundingBox{}, fmt.Errorf("geo: coordinates out of range in %q", s)
	}
	return box, nil
}
