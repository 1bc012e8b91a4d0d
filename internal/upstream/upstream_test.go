// Tidewatch - Live Maritime Conditions Map
// Copyright 2026 Tidewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tidewatch/tidewatch

package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tidewatch/tidewatch/internal/geo"
)

func TestAQIFetchStations(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/map/bounds" {
			t.Errorf("path=%q", r.URL.Path)
		}
		if got := r.URL.Query().Get("token"); got != "tok" {
			t.Errorf("token=%q", got)
		}
		if got := r.URL.Query().Get("latlng"); got == "" {
			t.Error("latlng missing")
		}
		w.Write([]byte(`{"status":"ok","data":[
			{"lat":52.37,"lon":4.89,"uid":5771,"aqi":"42","station":{"name":"Amsterdam","time":"2026-08-24T10:00:00+02:00"}},
			{"lat":51.92,"lon":4.48,"uid":5772,"aqi":"-","station":{"name":"Rotterdam","time":""}}
		]}`))
	}))
	defer srv.Close()

	c := NewAQIClient(srv.URL, "tok", time.Second)
	fc, err := c.FetchStations(context.Background(), geo.BoundingBox{MinLat: 50, MinLon: 3, MaxLat: 54, MaxLon: 8})
	if err != nil {
		t.Fatalf("FetchStations: %v", err)
	}
	if len(fc.Features) != 1 {
		t.Fatalf("got %d features, want 1 (station without reading skipped)", len(fc.Features))
	}

	f := fc.Features[0]
	if f.Geometry.Coordinates[0] != 4.89 || f.Geometry.Coordinates[1] != 52.37 {
		t.Errorf("coordinates=%v, want [lon lat]", f.Geometry.Coordinates)
	}
	if f.Properties["aqi"] != 42 {
		t.Errorf("aqi=%v", f.Properties["aqi"])
	}
	if f.Properties["station"] != "Amsterdam" {
		t.Errorf("station=%v", f.Properties["station"])
	}
}

func TestAQIMissingToken(t *testing.T) {
	c := NewAQIClient("http://unused", "", time.Second)
	if c.Configured() {
		t.Error("Configured() should be false without a token")
	}
	_, err := c.FetchStations(context.Background(), geo.BoundingBox{})
	if !errors.Is(err, ErrMissingToken) {
		t.Errorf("err=%v, want ErrMissingToken", err)
	}
}

func TestAQIUpstreamErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"error","data":[]}`))
	}))
	defer srv.Close()

	c := NewAQIClient(srv.URL, "tok", time.Second)
	if _, err := c.FetchStations(context.Background(), geo.BoundingBox{}); err == nil {
		t.Error("expected error for non-ok upstream status")
	}
}

func TestWavesFetchGrid(t *testing.T) {
	var requests atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		lat := r.URL.Query().Get("latitude")
		lon := r.URL.Query().Get("longitude")
		if got := r.URL.Query().Get("current"); got != "wave_height,wave_direction,wave_period" {
			t.Errorf("current=%q", got)
		}
		w.Write([]byte(`{"latitude":` + lat + `,"longitude":` + lon + `,"current":{"wave_height":1.5,"wave_direction":240,"wave_period":7.2}}`))
	}))
	defer srv.Close()

	c := NewWavesClient(srv.URL, 2.0, 24, 1000, time.Second)
	fc, err := c.FetchGrid(context.Background(), geo.BoundingBox{MinLat: 50, MinLon: 0, MaxLat: 52, MaxLon: 2})
	if err != nil {
		t.Fatalf("FetchGrid: %v", err)
	}

	// 2x2 grid at step 2.0 over an inclusive 2-degree box.
	if len(fc.Features) != 4 {
		t.Errorf("got %d features, want 4", len(fc.Features))
	}
	if got := requests.Load(); got != 4 {
		t.Errorf("requests=%d, want 4", got)
	}
	if fc.Features[0].Properties["wave_height"] != 1.5 {
		t.Errorf("wave_height=%v", fc.Features[0].Properties["wave_height"])
	}
}

func TestWavesGridCappedAtMaxPoints(t *testing.T) {
	c := NewWavesClient("http://unused", 1.0, 5, 1000, time.Second)
	points := c.gridPoints(geo.BoundingBox{MinLat: 0, MinLon: 0, MaxLat: 10, MaxLon: 10})
	if len(points) != 5 {
		t.Errorf("got %d points, want cap of 5", len(points))
	}
}

func TestWavesInvertedBoxNoPoints(t *testing.T) {
	c := NewWavesClient("http://unused", 2.0, 24, 1000, time.Second)
	if points := c.gridPoints(geo.BoundingBox{MinLat: 10, MinLon: 10, MaxLat: 0, MaxLon: 0}); len(points) != 0 {
		t.Errorf("inverted box produced %d points", len(points))
	}
}

func TestWavesPointFailureSkipped(t *testing.T) {
	var requests atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"latitude":50,"longitude":0,"current":{"wave_height":1.0,"wave_direction":180,"wave_period":6}}`))
	}))
	defer srv.Close()

	c := NewWavesClient(srv.URL, 2.0, 24, 1000, time.Second)
	fc, err := c.FetchGrid(context.Background(), geo.BoundingBox{MinLat: 50, MinLon: 0, MaxLat: 52, MaxLon: 2})
	if err != nil {
		t.Fatalf("FetchGrid: %v", err)
	}
	if len(fc.Features) != 3 {
		t.Errorf("got %d features, want 3 (one failed point skipped)", len(fc.Features))
	}
}

const gdacsBody = `{"type":"FeatureCollection","features":[
	{"geometry":{"type":"Point","coordinates":[130.5,15.2]},
	 "properties":{"eventtype":"TC","eventid":101,"eventname":"MAWAR","alertlevel":"Orange",
	   "severitydata":{"severity":175,"severityunit":"km/h"},"fromdate":"2026-08-20","todate":"2026-08-24"}},
	{"geometry":{"type":"Point","coordinates":[10.0,45.0]},
	 "properties":{"eventtype":"EQ","eventid":102,"eventname":"QUAKE","alertlevel":"Green"}},
	{"geometry":{"type":"Polygon","coordinates":[]},
	 "properties":{"eventtype":"TC","eventid":103,"eventname":"TRACK"}},
	{"geometry":{"type":"Point","coordinates":[-60.0,25.0]},
	 "properties":{"eventtype":"TC","eventid":104,"eventname":"FARAWAY","alertlevel":"Red"}}
]}`

func TestCyclonesFiltering(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(gdacsBody))
	}))
	defer srv.Close()

	c := NewCyclonesClient(srv.URL, time.Second)
	// Western Pacific box: includes MAWAR, excludes the Atlantic event.
	fc, err := c.FetchAdvisories(context.Background(), geo.BoundingBox{MinLat: 0, MinLon: 100, MaxLat: 40, MaxLon: 160})
	if err != nil {
		t.Fatalf("FetchAdvisories: %v", err)
	}
	if len(fc.Features) != 1 {
		t.Fatalf("got %d features, want 1", len(fc.Features))
	}

	f := fc.Features[0]
	if f.Properties["name"] != "MAWAR" {
		t.Errorf("name=%v", f.Properties["name"])
	}
	if f.Properties["alert_level"] != "Orange" {
		t.Errorf("alert_level=%v", f.Properties["alert_level"])
	}
	if f.Properties["severity"] != 175.0 {
		t.Errorf("severity=%v", f.Properties["severity"])
	}
	if f.Geometry.Coordinates[0] != 130.5 || f.Geometry.Coordinates[1] != 15.2 {
		t.Errorf("coordinates=%v", f.Geometry.Coordinates)
	}
}

func TestCyclonesUpstreamDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewCyclonesClient(srv.URL, time.Second)
	if _, err := c.FetchAdvisories(context.Background(), geo.BoundingBox{}); err == nil {
		t.Error("expected error when upstream is down")
	}
}
