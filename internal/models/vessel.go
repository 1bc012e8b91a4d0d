// Tidewatch - Live Maritime Conditions Map
// Copyright 2026 Tidewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tidewatch/tidewatch

// Package models holds the data types shared across the store, ingestor and
// API layers.
package models

import "time"

// VesselPosition is the latest known state of one tracked vessel.
//
// At most one record exists per MMSI at any time; a later position report
// fully replaces the prior value (last-writer-wins, no merge). ObservedAt is
// set by the stream ingestor when the report is consumed, never by readers.
type VesselPosition struct {
	MMSI       int64     `json:"mmsi"`
	Name       string    `json:"name,omitempty"`
	Lat        float64   `json:"lat"`
	Lon        float64   `json:"lon"`
	Heading    float64   `json:"heading"`
	Speed      float64   `json:"speed"`
	ObservedAt time.Time `json:"observed_at"`
}
