// Tidewatch - Live Maritime Conditions Map
// Copyright 2026 Tidewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tidewatch/tidewatch

package models

// GeoJSON types shared by every API endpoint. All responses are
// FeatureCollections of Point features.

// Geometry is a GeoJSON geometry. Coordinates are [lon, lat] per RFC 7946.
type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// Feature is a single GeoJSON feature with free-form properties.
type Feature struct {
	Type       string                 `json:"type"`
	Geometry   Geometry               `json:"geometry"`
	Properties map[string]interface{} `json:"properties"`
}

// FeatureCollection bundles zero or more features.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// NewFeatureCollection returns an empty, well-formed collection. Features is
// non-nil so an empty collection serializes as [] rather than null.
func NewFeatureCollection() *FeatureCollection {
	return &FeatureCollection{
		Type:     "FeatureCollection",
		Features: []Feature{},
	}
}

// Add appends a feature to the collection.
func (fc *FeatureCollection) Add(f Feature) {
	fc.Features = append(fc.Features, f)
}

// PointFeature builds a Point feature at the given position.
func PointFeature(lat, lon float64, props map[string]interface{}) Feature {
	return Feature{
		Type: "Feature",
		Geometry: Geometry{
			Type:        "Point",
			Coordinates: []float64{lon, lat},
		},
		Properties: props,
	}
}
