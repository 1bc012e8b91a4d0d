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
	"strconv"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tidewatch/tidewatch/internal/geo"
	"github.com/tidewatch/tidewatch/internal/logging"
	"github.com/tidewatch/tidewatch/internal/metrics"
	"github.com/tidewatch/tidewatch/internal/models"
)

// AQIClient fetches air-quality stations from the WAQI map/bounds API.
//
// Calls go through a circuit breaker so a degraded upstream stops taking
// request latency once it trips:
//   - Max 3 concurrent requests in half-open state
//   - 1 minute measurement window
//   - 2 minute timeout before attempting recovery
//   - Opens at >= 60% failures with minimum 10 requests
//
// An open breaker is a transient failure like any other fetch error; the
// query engine turns it into an empty collection.
type AQIClient struct {
	baseURL string
	token   string
	client  *http.Client
	cb      *gobreaker.CircuitBreaker[*models.FeatureCollection]
}

// NewAQIClient creates an AQIClient. An empty token is allowed; FetchStations
// then fails with ErrMissingToken until one is configured.
func NewAQIClient(baseURL, token string, timeout time.Duration) *AQIClient {
	const cbName = "aqi"
	metrics.BreakerState.WithLabelValues(cbName).Set(0)

	cb := gobreaker.NewCircuitBreaker[*models.FeatureCollection](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("breaker", name).
				Str("from", stateToString(from)).
				Str("to", stateToString(to)).
				Msg("circuit breaker state transition")
			metrics.BreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})

	return &AQIClient{
		baseURL: baseURL,
		token:   token,
		client:  newHTTPClient(timeout),
		cb:      cb,
	}
}

// Configured reports whether an API token is present.
func (c *AQIClient) Configured() bool {
	return c.token != ""
}

// waqiBoundsResponse is the WAQI map/bounds payload. The aqi field arrives
// as a string and is "-" for stations without a current reading.
type waqiBoundsResponse struct {
	Status string `json:"status"`
	Data   []struct {
		Lat     float64 `json:"lat"`
		Lon     float64 `json:"lon"`
		UID     int     `json:"uid"`
		AQI     string  `json:"aqi"`
		Station struct {
			Name string `json:"name"`
			Time string `json:"time"`
		} `json:"station"`
	} `json:"data"`
}

// FetchStations returns the stations inside box as a feature collection.
// Stations without a numeric reading are skipped.
func (c *AQIClient) FetchStations(ctx context.Context, box geo.BoundingBox) (*models.FeatureCollection, error) {
	if !c.Configured() {
		return nil, ErrMissingToken
	}

	start := time.Now()
	fc, err := c.cb.Execute(func() (*models.FeatureCollection, error) {
		return c.fetch(ctx, box)
	})
	observe("aqi", start, err)
	return fc, err
}

func (c *AQIClient) fetch(ctx context.Context, box geo.BoundingBox) (*models.FeatureCollection, error) {
	// latlng order is minLat,minLon,maxLat,maxLon per the WAQI API.
	q := url.Values{}
	q.Set("latlng", fmt.Sprintf("%f,%f,%f,%f", box.MinLat, box.MinLon, box.MaxLat, box.MaxLon))
	q.Set("token", c.token)
	reqURL := c.baseURL + "/map/bounds?" + q.Encode()

	var payload waqiBoundsResponse
	if err := getJSON(ctx, c.client, reqURL, &payload); err != nil {
		return nil, fmt.Errorf("aqi fetch: %w", err)
	}
	if payload.Status != "ok" {
		return nil, fmt.Errorf("aqi fetch: upstream status %q", payload.Status)
	}

	fc := models.NewFeatureCollection()
	for _, st := range payload.Data {
		aqi, err := strconv.Atoi(st.AQI)
		if err != nil {
			// "-" marks a station without a current reading.
			continue
		}
		fc.Add(models.PointFeature(st.Lat, st.Lon, map[string]interface{}{
			"uid":     st.UID,
			"aqi":     aqi,
			"station": st.Station.Name,
			"time":    st.Station.Time,
		}))
	}
	return fc, nil
}

// stateToFloat converts breaker state to a metric value.
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// stateToString converts breaker state to a log label.
func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
