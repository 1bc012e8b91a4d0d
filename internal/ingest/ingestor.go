// Tidewatch - Live Maritime Conditions Map
// Copyright 2026 Tidewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tidewatch/tidewatch

// Package ingest runs the AIS websocket ingestor: the single long-lived
// task that connects to the stream, subscribes for the configured regions,
// and writes position reports into the vessel store. It is the store's only
// writer.
package ingest

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/tidewatch/tidewatch/internal/geo"
	"github.com/tidewatch/tidewatch/internal/logging"
	"github.com/tidewatch/tidewatch/internal/metrics"
	"github.com/tidewatch/tidewatch/internal/models"
)

// State is the ingestor's position in its connection lifecycle.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateSubscribing
	StateStreaming
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateSubscribing:
		return "subscribing"
	case StateStreaming:
		return "streaming"
	default:
		return "unknown"
	}
}

// Store is the write surface the ingestor needs from the vessel store.
type Store interface {
	Upsert(models.VesselPosition) bool
}

// Options configures an Ingestor.
type Options struct {
	URL    string
	APIKey string
	Boxes  []geo.BoundingBox

	// ReconnectDelay is the fixed wait between connection attempts. There
	// is no backoff and no retry cap: the upstream tolerates steady
	// reconnect pressure and a live map wants the feed back as soon as
	// possible.
	ReconnectDelay   time.Duration
	HandshakeTimeout time.Duration
}

// Ingestor is the stream consumer. Create with New, run with Serve; it
// reconnects forever until the context is canceled.
type Ingestor struct {
	opts  Options
	store Store
	state atomic.Int32

	// now is swappable in tests.
	now func() time.Time
}

// New creates an Ingestor writing into store.
func New(opts Options, store Store) *Ingestor {
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = 5 * time.Second
	}
	if opts.HandshakeTimeout <= 0 {
		opts.HandshakeTimeout = 10 * time.Second
	}
	return &Ingestor{
		opts:  opts,
		store: store,
		now:   time.Now,
	}
}

// State returns the current connection state.
func (i *Ingestor) State() State {
	return State(i.state.Load())
}

func (i *Ingestor) setState(s State) {
	i.state.Store(int32(s))
	metrics.IngestConnectionState.Set(float64(s))
}

// String names the ingestor in supervisor logs.
func (i *Ingestor) String() string {
	return "ais-ingestor"
}

// Serve runs the connect/subscribe/consume loop until ctx is canceled.
// Every exit from a session, clean or not, goes through the same fixed
// reconnect delay. Serve satisfies suture.Service; routine stream failures
// are handled here so the supervisor only ever sees panics.
func (i *Ingestor) Serve(ctx context.Context) error {
	logger := logging.WithComponent("ingest")
	logger.Info().Str("url", i.opts.URL).Int("regions", len(i.opts.Boxes)).Msg("ingestor starting")

	for {
		err := i.runSession(ctx)
		i.setState(StateDisconnected)

		if ctx.Err() != nil {
			logger.Info().Msg("ingestor stopping")
			return ctx.Err()
		}
		if err != nil {
			logger.Warn().Err(err).Dur("retry_in", i.opts.ReconnectDelay).Msg("stream session ended")
		}

		metrics.IngestReconnects.Inc()
		select {
		case <-time.After(i.opts.ReconnectDelay):
		case <-ctx.Done():
			logger.Info().Msg("ingestor stopping")
			return ctx.Err()
		}
	}
}

// runSession performs one connect/subscribe/consume cycle. It returns when
// the connection fails or ctx is canceled.
func (i *Ingestor) runSession(ctx context.Context) error {
	i.setState(StateConnecting)

	dialer := websocket.Dialer{
		HandshakeTimeout:  i.opts.HandshakeTimeout,
		EnableCompression: true,
	}
	conn, resp, err := dialer.DialContext(ctx, i.opts.URL, nil)
	if resp != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			return fmt.Errorf("websocket dial failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return fmt.Errorf("websocket dial: %w", err)
	}
	defer conn.Close()

	// Closing the connection is what unblocks a pending ReadMessage when
	// the context is canceled.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	if err := i.subscribe(conn); err != nil {
		return err
	}

	i.setState(StateStreaming)
	logger := logging.WithComponent("ingest")
	logger.Info().Msg("streaming position reports")

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("websocket read: %w", err)
		}
		i.handleMessage(data)
	}
}

// subscribe sends the subscription message scoping delivery to the
// configured regions. The server does not acknowledge; the first position
// report is the only confirmation.
func (i *Ingestor) subscribe(conn *websocket.Conn) error {
	i.setState(StateSubscribing)

	boxes := make([][][2]float64, 0, len(i.opts.Boxes))
	for _, b := range i.opts.Boxes {
		boxes = append(boxes, [][2]float64{
			{b.MinLat, b.MinLon},
			{b.MaxLat, b.MaxLon},
		})
	}

	sub := subscription{
		APIKey:             i.opts.APIKey,
		BoundingBoxes:      boxes,
		FilterMessageTypes: []string{"PositionReport"},
	}
	payload, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("marshal subscription: %w", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return fmt.Errorf("write subscription: %w", err)
	}
	return nil
}

// handleMessage processes one inbound frame. Malformed or non-matching
// messages are dropped without affecting the connection.
func (i *Ingestor) handleMessage(data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		metrics.IngestMessages.WithLabelValues("malformed").Inc()
		return
	}
	if env.MessageType != "PositionReport" {
		metrics.IngestMessages.WithLabelValues("filtered").Inc()
		return
	}

	report := env.Message.PositionReport
	if report.Latitude == nil || report.Longitude == nil {
		// A report without geolocation is malformed, not a vessel at (0,0).
		metrics.IngestMessages.WithLabelValues("malformed").Inc()
		return
	}

	mmsi := report.UserID
	if mmsi == 0 {
		mmsi = env.MetaData.MMSI
	}

	heading := report.TrueHeading
	if heading == headingUnavailable {
		heading = 0
	}

	v := models.VesselPosition{
		MMSI:       mmsi,
		Name:       env.MetaData.ShipName,
		Lat:        *report.Latitude,
		Lon:        *report.Longitude,
		Heading:    heading,
		Speed:      report.Sog,
		ObservedAt: i.now(),
	}
	if !i.store.Upsert(v) {
		metrics.IngestMessages.WithLabelValues("invalid").Inc()
		return
	}
	metrics.IngestMessages.WithLabelValues("consumed").Inc()
}
