// Tidewatch - Live Maritime Conditions Map
// Copyright 2026 Tidewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tidewatch/tidewatch

// Command server runs the Tidewatch aggregation server: the AIS stream
// ingestor and the GeoJSON query API under one supervision tree.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tidewatch/tidewatch/internal/api"
	"github.com/tidewatch/tidewatch/internal/cache"
	"github.com/tidewatch/tidewatch/internal/config"
	"github.com/tidewatch/tidewatch/internal/ingest"
	"github.com/tidewatch/tidewatch/internal/logging"
	"github.com/tidewatch/tidewatch/internal/query"
	"github.com/tidewatch/tidewatch/internal/store"
	"github.com/tidewatch/tidewatch/internal/supervisor"
	"github.com/tidewatch/tidewatch/internal/supervisor/services"
	"github.com/tidewatch/tidewatch/internal/upstream"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	boxes, err := cfg.Stream.Boxes()
	if err != nil {
		logging.Fatal().Err(err).Msg("invalid stream regions")
	}

	vessels := store.New(cfg.Store.StaleWindow)
	respCache := cache.New(cfg.Cache.TTL, cfg.Cache.Capacity)

	ingestor := ingest.New(ingest.Options{
		URL:              cfg.Stream.URL,
		APIKey:           cfg.Stream.APIKey,
		Boxes:            boxes,
		ReconnectDelay:   cfg.Stream.ReconnectDelay,
		HandshakeTimeout: cfg.Stream.HandshakeTimeout,
	}, vessels)

	aqi := upstream.NewAQIClient(cfg.AQI.URL, cfg.AQI.Token, cfg.AQI.Timeout)
	waves := upstream.NewWavesClient(cfg.Waves.URL, cfg.Waves.GridStep,
		cfg.Waves.MaxPoints, cfg.Waves.RequestsPerSecond, cfg.Waves.Timeout)
	cyclones := upstream.NewCyclonesClient(cfg.Cyclones.URL, cfg.Cyclones.Timeout)

	engine := query.New(vessels, respCache)
	handler := api.NewHandler(engine, vessels, respCache, ingestor, aqi, waves, cyclones, len(boxes))

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           api.NewRouter(handler),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddStreamService(ingestor)
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().
		Str("addr", cfg.Server.Addr()).
		Str("stream", cfg.Stream.URL).
		Int("regions", len(boxes)).
		Msg("tidewatch starting")

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("supervisor exited")
		os.Exit(1)
	}
	logging.Info().Msg("tidewatch stopped")
}
