// Tidewatch - Live Maritime Conditions Map
// Copyright 2026 Tidewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tidewatch/tidewatch

package upstream

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/tidewatch/tidewatch/internal/geo"
	"github.com/tidewatch/tidewatch/internal/logging"
	"github.com/tidewatch/tidewatch/internal/models"
)

// WavesClient samples current sea state from the Open-Meteo marine API.
// The upstream is point-based, so a viewport is approximated by a fixed-step
// grid of sample points, one request per point, throttled by a shared rate
// limiter. Individual point failures are skipped rather than failing the
// whole viewport.
type WavesClient struct {
	baseURL   string
	gridStep  float64
	maxPoints int
	client    *http.Client
	limiter   *rate.Limiter
}

// NewWavesClient creates a WavesClient. gridStep is the sampling interval
// in degrees, maxPoints caps the fan-out per viewport, rps throttles the
// aggregate request rate.
func NewWavesClient(baseURL string, gridStep float64, maxPoints int, rps float64, timeout time.Duration) *WavesClient {
	if gridStep <= 0 {
		gridStep = 2.0
	}
	if maxPoints <= 0 {
		maxPoints = 24
	}
	if rps <= 0 {
		rps = 8
	}
	return &WavesClient{
		baseURL:   baseURL,
		gridStep:  gridStep,
		maxPoints: maxPoints,
		client:    newHTTPClient(timeout),
		limiter:   rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// marineResponse is the Open-Meteo marine "current" payload.
type marineResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Current   struct {
		WaveHeight    float64 `json:"wave_height"`
		WaveDirection float64 `json:"wave_direction"`
		WavePeriod    float64 `json:"wave_period"`
	} `json:"current"`
}

// FetchGrid returns wave conditions sampled across the box.
func (c *WavesClient) FetchGrid(ctx context.Context, box geo.BoundingBox) (*models.FeatureCollection, error) {
	start := time.Now()
	fc, err := c.fetchGrid(ctx, box)
	observe("waves", start, err)
	return fc, err
}

func (c *WavesClient) fetchGrid(ctx context.Context, box geo.BoundingBox) (*models.FeatureCollection, error) {
	points := c.gridPoints(box)
	fc := models.NewFeatureCollection()

	logger := logging.WithComponent("waves")
	for _, p := range points {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("waves rate limit wait: %w", err)
		}

		sample, err := c.fetchPoint(ctx, p[0], p[1])
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Debug().Err(err).Float64("lat", p[0]).Float64("lon", p[1]).Msg("grid point skipped")
			continue
		}
		fc.Add(models.PointFeature(sample.Latitude, sample.Longitude, map[string]interface{}{
			"wave_height":    sample.Current.WaveHeight,
			"wave_direction": sample.Current.WaveDirection,
			"wave_period":    sample.Current.WavePeriod,
		}))
	}
	return fc, nil
}

func (c *WavesClient) fetchPoint(ctx context.Context, lat, lon float64) (*marineResponse, error) {
	q := url.Values{}
	q.Set("latitude", fmt.Sprintf("%f", lat))
	q.Set("longitude", fmt.Sprintf("%f", lon))
	q.Set("current", "wave_height,wave_direction,wave_period")
	reqURL := c.baseURL + "?" + q.Encode()

	var payload marineResponse
	if err := getJSON(ctx, c.client, reqURL, &payload); err != nil {
		return nil, fmt.Errorf("waves fetch: %w", err)
	}
	return &payload, nil
}

// gridPoints lays a fixed-step grid over the box, row-major from the min
// corner, truncated at maxPoints. An inverted box produces no points.
func (c *WavesClient) gridPoints(box geo.BoundingBox) [][2]float64 {
	points := make([][2]float64, 0, c.maxPoints)
	for lat := box.MinLat; lat <= box.MaxLat; lat += c.gridStep {
		for lon := box.MinLon; lon <= box.MaxLon; lon += c.gridStep {
			if len(points) >= c.maxPoints {
				return points
			}
			points = append(points, [2]float64{lat, lon})
		}
	}
	return points
}
