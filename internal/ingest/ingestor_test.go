// Tidewatch - Live Maritime Conditions Map
// Copyright 2026 Tidewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tidewatch/tidewatch

package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/tidewatch/tidewatch/internal/geo"
	"github.com/tidewatch/tidewatch/internal/models"
)

// recordingStore captures upserted positions for assertions.
type recordingStore struct {
	mu        sync.Mutex
	positions []models.VesselPosition
}

func (r *recordingStore) Upsert(v models.VesselPosition) bool {
	if v.MMSI == 0 || !geo.ValidCoordinates(v.Lat, v.Lon) {
		return false
	}
	r.mu.Lock()
	r.positions = append(r.positions, v)
	r.mu.Unlock()
	return true
}

func (r *recordingStore) snapshot() []models.VesselPosition {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.VesselPosition(nil), r.positions...)
}

// streamServer is an httptest websocket server standing in for the AIS
// upstream. It records every subscription it receives and serves the
// configured frames to each connection before closing it.
type streamServer struct {
	t      *testing.T
	frames []string

	mu   sync.Mutex
	subs []subscription
}

func (s *streamServer) handler(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	_, data, err := conn.ReadMessage()
	if err != nil {
		return
	}
	var sub subscription
	if err := json.Unmarshal(data, &sub); err != nil {
		s.t.Errorf("bad subscription payload: %v", err)
		return
	}
	s.mu.Lock()
	s.subs = append(s.subs, sub)
	s.mu.Unlock()

	for _, frame := range s.frames {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
			return
		}
	}
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
}

func (s *streamServer) subscriptions() []subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]subscription(nil), s.subs...)
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

const positionFrame = `{
	"MessageType": "PositionReport",
	"MetaData": {"MMSI": 244660920, "ShipName": "EEMSLIFT ELLEN"},
	"Message": {"PositionReport": {
		"UserID": 244660920, "Latitude": 53.18, "Longitude": 5.41,
		"Sog": 12.3, "TrueHeading": 87
	}}
}`

func TestConsumesPositionReports(t *testing.T) {
	ss := &streamServer{t: t, frames: []string{positionFrame}}
	srv := httptest.NewServer(http.HandlerFunc(ss.handler))
	defer srv.Close()

	store := &recordingStore{}
	ing := New(Options{
		URL:            wsURL(srv),
		APIKey:         "test-key",
		Boxes:          []geo.BoundingBox{{MinLat: -90, MinLon: -180, MaxLat: 90, MaxLon: 180}},
		ReconnectDelay: time.Hour, // one session only
	}, store)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		ing.Serve(ctx)
		close(done)
	}()

	waitFor(t, func() bool { return len(store.snapshot()) == 1 })
	cancel()
	<-done

	got := store.snapshot()[0]
	if got.MMSI != 244660920 {
		t.Errorf("MMSI=%d", got.MMSI)
	}
	if got.Name != "EEMSLIFT ELLEN" {
		t.Errorf("Name=%q", got.Name)
	}
	if got.Lat != 53.18 || got.Lon != 5.41 {
		t.Errorf("position=(%v,%v)", got.Lat, got.Lon)
	}
	if got.Speed != 12.3 || got.Heading != 87 {
		t.Errorf("kinematics speed=%v heading=%v", got.Speed, got.Heading)
	}
	if got.ObservedAt.IsZero() {
		t.Error("ObservedAt not set")
	}
}

func TestSubscriptionMessage(t *testing.T) {
	ss := &streamServer{t: t}
	srv := httptest.NewServer(http.HandlerFunc(ss.handler))
	defer srv.Close()

	box := geo.BoundingBox{MinLat: 50, MinLon: -2, MaxLat: 60, MaxLon: 8}
	ing := New(Options{
		URL:            wsURL(srv),
		APIKey:         "secret",
		Boxes:          []geo.BoundingBox{box},
		ReconnectDelay: time.Hour,
	}, &recordingStore{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		ing.Serve(ctx)
		close(done)
	}()

	waitFor(t, func() bool { return len(ss.subscriptions()) == 1 })
	cancel()
	<-done

	sub := ss.subscriptions()[0]
	if sub.APIKey != "secret" {
		t.Errorf("APIKey=%q", sub.APIKey)
	}
	if len(sub.FilterMessageTypes) != 1 || sub.FilterMessageTypes[0] != "PositionReport" {
		t.Errorf("FilterMessageTypes=%v", sub.FilterMessageTypes)
	}
	if len(sub.BoundingBoxes) != 1 {
		t.Fatalf("BoundingBoxes=%v", sub.BoundingBoxes)
	}
	want := [][2]float64{{50, -2}, {60, 8}}
	if sub.BoundingBoxes[0][0] != want[0] || sub.BoundingBoxes[0][1] != want[1] {
		t.Errorf("BoundingBoxes[0]=%v, want %v", sub.BoundingBoxes[0], want)
	}
}

func TestReconnectsAndResubscribes(t *testing.T) {
	ss := &streamServer{t: t}
	srv := httptest.NewServer(http.HandlerFunc(ss.handler))
	defer srv.Close()

	ing := New(Options{
		URL:            wsURL(srv),
		APIKey:         "k",
		Boxes:          []geo.BoundingBox{{MinLat: -90, MinLon: -180, MaxLat: 90, MaxLon: 180}},
		ReconnectDelay: 10 * time.Millisecond,
	}, &recordingStore{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		ing.Serve(ctx)
		close(done)
	}()

	// The server closes each connection after the subscription, so two
	// recorded subscriptions prove a full reconnect cycle.
	waitFor(t, func() bool { return len(ss.subscriptions()) >= 2 })
	cancel()
	<-done
}

func TestCancellationStopsServe(t *testing.T) {
	ss := &streamServer{t: t}
	srv := httptest.NewServer(http.HandlerFunc(ss.handler))
	defer srv.Close()

	ing := New(Options{
		URL:            wsURL(srv),
		Boxes:          []geo.BoundingBox{{MinLat: -90, MinLon: -180, MaxLat: 90, MaxLon: 180}},
		ReconnectDelay: time.Hour,
	}, &recordingStore{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		ing.Serve(ctx)
		close(done)
	}()

	waitFor(t, func() bool { return len(ss.subscriptions()) == 1 })
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not stop after cancellation")
	}
}

func TestHandleMessageFiltering(t *testing.T) {
	store := &recordingStore{}
	ing := New(Options{}, store)

	ing.handleMessage([]byte(`{not json`))
	ing.handleMessage([]byte(`{"MessageType":"ShipStaticData","Message":{}}`))
	ing.handleMessage([]byte(`{"MessageType":"PositionReport","Message":{"PositionReport":{"UserID":1,"Latitude":95,"Longitude":0}}}`))

	if n := len(store.snapshot()); n != 0 {
		t.Errorf("stored %d positions from dropped messages", n)
	}

	ing.handleMessage([]byte(`{"MessageType":"PositionReport","Message":{"PositionReport":{"UserID":7,"Latitude":1,"Longitude":2}}}`))
	if n := len(store.snapshot()); n != 1 {
		t.Errorf("stored %d positions, want 1", n)
	}
}

func TestReportWithoutGeolocationDropped(t *testing.T) {
	store := &recordingStore{}
	ing := New(Options{}, store)

	ing.handleMessage([]byte(`{"MessageType":"PositionReport","Message":{"PositionReport":{"UserID":42}}}`))
	ing.handleMessage([]byte(`{"MessageType":"PositionReport","Message":{"PositionReport":{"UserID":42,"Latitude":10}}}`))
	ing.handleMessage([]byte(`{"MessageType":"PositionReport","Message":{"PositionReport":{"UserID":42,"Longitude":20}}}`))

	if n := len(store.snapshot()); n != 0 {
		t.Errorf("stored %d positions from reports missing geolocation, want 0", n)
	}

	// An explicit (0,0) is a real position, not missing geolocation.
	ing.handleMessage([]byte(`{"MessageType":"PositionReport","Message":{"PositionReport":{"UserID":42,"Latitude":0,"Longitude":0}}}`))
	got := store.snapshot()
	if len(got) != 1 {
		t.Fatalf("stored %d positions, want 1", len(got))
	}
	if got[0].Lat != 0 || got[0].Lon != 0 {
		t.Errorf("position=(%v,%v), want (0,0)", got[0].Lat, got[0].Lon)
	}
}

func TestHeadingSentinelZeroed(t *testing.T) {
	store := &recordingStore{}
	ing := New(Options{}, store)

	ing.handleMessage([]byte(`{"MessageType":"PositionReport","Message":{"PositionReport":{"UserID":7,"Latitude":1,"Longitude":2,"TrueHeading":511}}}`))

	got := store.snapshot()
	if len(got) != 1 {
		t.Fatalf("stored %d positions, want 1", len(got))
	}
	if got[0].Heading != 0 {
		t.Errorf("heading=%v, want 0 for unavailable sentinel", got[0].Heading)
	}
}

func TestMMSIFallsBackToMetadata(t *testing.T) {
	store := &recordingStore{}
	ing := New(Options{}, store)

	ing.handleMessage([]byte(`{"MessageType":"PositionReport","MetaData":{"MMSI":999},"Message":{"PositionReport":{"Latitude":1,"Longitude":2}}}`))

	got := store.snapshot()
	if len(got) != 1 {
		t.Fatalf("stored %d positions, want 1", len(got))
	}
	if got[0].MMSI != 999 {
		t.Errorf("MMSI=%d, want metadata fallback 999", got[0].MMSI)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met within deadline")
}
