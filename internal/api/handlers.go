// Tidewatch - Live Maritime Conditions Map
// Copyright 2026 Tidewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tidewatch/tidewatch

// Package api exposes the HTTP surface: health, the four viewport-filtered
// GeoJSON endpoints, and the Prometheus exposition.
package api

import (
	"net/http"

	"github.com/tidewatch/tidewatch/internal/cache"
	"github.com/tidewatch/tidewatch/internal/ingest"
	"github.com/tidewatch/tidewatch/internal/query"
	"github.com/tidewatch/tidewatch/internal/upstream"
)

// VesselCounter is the health-reporting surface of the vessel store.
type VesselCounter interface {
	Size() int
}

// StreamStatus reports the ingestor's connection state for health output.
type StreamStatus interface {
	State() ingest.State
}

// Handler carries the wired subsystems behind the HTTP endpoints.
type Handler struct {
	engine   *query.Engine
	store    VesselCounter
	cache    *cache.ResponseCache
	stream   StreamStatus
	aqi      *upstream.AQIClient
	waves    *upstream.WavesClient
	cyclones *upstream.CyclonesClient
	regions  int
}

// NewHandler wires a Handler. regions is the number of subscribed stream
// regions, reported on the health endpoint.
func NewHandler(
	engine *query.Engine,
	store VesselCounter,
	respCache *cache.ResponseCache,
	stream StreamStatus,
	aqi *upstream.AQIClient,
	waves *upstream.WavesClient,
	cyclones *upstream.CyclonesClient,
	regions int,
) *Handler {
	return &Handler{
		engine:   engine,
		store:    store,
		cache:    respCache,
		stream:   stream,
		aqi:      aqi,
		waves:    waves,
		cyclones: cyclones,
		regions:  regions,
	}
}

// healthResponse is the GET / payload.
type healthResponse struct {
	Status       string   `json:"status"`
	Vessels      int      `json:"vessels"`
	CacheEntries int      `json:"cache_entries"`
	CacheHitRate float64  `json:"cache_hit_rate"`
	StreamState  string   `json:"stream_state"`
	Regions      int      `json:"regions"`
	Sources      []string `json:"sources"`
}

// Health reports liveness plus basic operational counters.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, healthResponse{
		Status:       "ok",
		Vessels:      h.store.Size(),
		CacheEntries: h.cache.Len(),
		CacheHitRate: h.cache.HitRate(),
		StreamState:  h.stream.State().String(),
		Regions:      h.regions,
		Sources:      []string{"vessels", "aqi", "waves", "cyclones"},
	})
}

// Vessels serves live vessel positions for the viewport, straight from the
// store.
func (h *Handler) Vessels(w http.ResponseWriter, r *http.Request) {
	box, err := parseViewport(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_VIEWPORT", err.Error())
		return
	}
	writeJSON(w, r, http.StatusOK, h.engine.Vessels(box))
}

// AQI serves cached air-quality stations for the viewport. A missing token
// is the one upstream condition reported as a server error; everything
// transient degrades to an empty collection inside the engine.
func (h *Handler) AQI(w http.ResponseWriter, r *http.Request) {
	box, err := parseViewport(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_VIEWPORT", err.Error())
		return
	}

	fc, err := h.engine.CachedFetch(r.Context(), "aqi", box, h.aqi.FetchStations)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "CONFIG_ERROR", "air quality API token not configured")
		return
	}
	writeJSON(w, r, http.StatusOK, fc)
}

// Waves serves cached wave-grid samples for the viewport.
func (h *Handler) Waves(w http.ResponseWriter, r *http.Request) {
	box, err := parseViewport(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_VIEWPORT", err.Error())
		return
	}

	fc, err := h.engine.CachedFetch(r.Context(), "waves", box, h.waves.FetchGrid)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "CONFIG_ERROR", "upstream credential not configured")
		return
	}
	writeJSON(w, r, http.StatusOK, fc)
}

// Cyclones serves active cyclone advisories for the viewport, uncached.
func (h *Handler) Cyclones(w http.ResponseWriter, r *http.Request) {
	box, err := parseViewport(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_VIEWPORT", err.Error())
		return
	}

	fc, err := h.engine.Fetch(r.Context(), "cyclones", box, h.cyclones.FetchAdvisories)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "CONFIG_ERROR", "upstream credential not configured")
		return
	}
	writeJSON(w, r, http.StatusOK, fc)
}
