// Tidewatch - Live Maritime Conditions Map
// Copyright 2026 Tidewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tidewatch/tidewatch

package ingest

// Wire types for the AIS stream. Field names follow the upstream protocol
// exactly; do not rename.

// subscription is the message sent immediately after connecting. The server
// starts (or re-scopes) delivery on receipt; there is no acknowledgment.
// BoundingBoxes entries are [[minLat, minLon], [maxLat, maxLon]] pairs.
type subscription struct {
	APIKey             string         `json:"APIKey"`
	BoundingBoxes      [][][2]float64 `json:"BoundingBoxes"`
	FilterMessageTypes []string       `json:"FilterMessageTypes"`
}

// envelope is an inbound stream message, discriminated by MessageType.
// Only "PositionReport" is consumed; everything else is dropped.
type envelope struct {
	MessageType string `json:"MessageType"`
	MetaData    struct {
		MMSI     int64  `json:"MMSI"`
		ShipName string `json:"ShipName"`
	} `json:"MetaData"`
	Message struct {
		PositionReport positionReport `json:"PositionReport"`
	} `json:"Message"`
}

// positionReport carries the kinematic payload of a PositionReport message.
// Latitude and Longitude are pointers so a report that omits them is
// distinguishable from one at (0,0); reports without both are dropped.
// TrueHeading 511 is the AIS "not available" sentinel.
type positionReport struct {
	UserID      int64    `json:"UserID"`
	Latitude    *float64 `json:"Latitude"`
	Longitude   *float64 `json:"Longitude"`
	Sog         float64  `json:"Sog"`
	TrueHeading float64  `json:"TrueHeading"`
}

const headingUnavailable = 511
