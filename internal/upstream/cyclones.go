// Tidewatch - Live Maritime Conditions Map
// Copyright 2026 Tidewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tidewatch/tidewatch

package upstream

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/tidewatch/tidewatch/internal/geo"
	"github.com/tidewatch/tidewatch/internal/models"
)

// CyclonesClient fetches active tropical cyclone advisories from the GDACS
// event feed. The feed is global and already GeoJSON; the client filters it
// down to Point features of event type TC inside the requested box and
// keeps a stable subset of properties.
type CyclonesClient struct {
	url    string
	client *http.Client
}

// NewCyclonesClient creates a CyclonesClient against the given event-list
// URL. The TC event-type filter is part of the configured URL.
func NewCyclonesClient(url string, timeout time.Duration) *CyclonesClient {
	return &CyclonesClient{
		url:    url,
		client: newHTTPClient(timeout),
	}
}

// gdacsFeed mirrors the slice of the GDACS GeoJSON feed we consume.
type gdacsFeed struct {
	Features []struct {
		Geometry struct {
			Type        string    `json:"type"`
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
		Properties struct {
			EventType  string `json:"eventtype"`
			EventID    int    `json:"eventid"`
			EventName  string `json:"eventname"`
			Name       string `json:"name"`
			AlertLevel string `json:"alertlevel"`
			Severity   struct {
				Severity float64 `json:"severity"`
				Unit     string  `json:"severityunit"`
			} `json:"severitydata"`
			FromDate string `json:"fromdate"`
			ToDate   string `json:"todate"`
		} `json:"properties"`
	} `json:"features"`
}

// FetchAdvisories returns active cyclone advisories inside box.
func (c *CyclonesClient) FetchAdvisories(ctx context.Context, box geo.BoundingBox) (*models.FeatureCollection, error) {
	start := time.Now()
	fc, err := c.fetch(ctx, box)
	observe("cyclones", start, err)
	return fc, err
}

func (c *CyclonesClient) fetch(ctx context.Context, box geo.BoundingBox) (*models.FeatureCollection, error) {
	var feed gdacsFeed
	if err := getJSON(ctx, c.client, c.url, &feed); err != nil {
		return nil, fmt.Errorf("cyclones fetch: %w", err)
	}

	fc := models.NewFeatureCollection()
	for _, f := range feed.Features {
		// The feed mixes Points with track polygons; only advisory
		// positions are mapped.
		if f.Geometry.Type != "Point" || len(f.Geometry.Coordinates) < 2 {
			continue
		}
		if f.Properties.EventType != "TC" {
			continue
		}
		lon, lat := f.Geometry.Coordinates[0], f.Geometry.Coordinates[1]
		if !box.Contains(lat, lon) {
			continue
		}

		name := f.Properties.EventName
		if name == "" {
			name = f.Properties.Name
		}
		fc.Add(models.PointFeature(lat, lon, map[string]interface{}{
			"event_id":      f.Properties.EventID,
			"name":          name,
			"alert_level":   f.Properties.AlertLevel,
			"severity":      f.Properties.Severity.Severity,
			"severity_unit": f.Properties.Severity.Unit,
			"from_date":     f.Properties.FromDate,
			"to_date":       f.Properties.ToDate,
		}))
	}
	return fc, nil
}
