// Tidewatch - Live Maritime Conditions Map
// Copyright 2026 Tidewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tidewatch/tidewatch

// Package query is the viewport query engine. It joins the vessel store,
// the response cache and the upstream gateway behind two paths: live data
// straight from the store, pull data through cache-or-fetch.
package query

import (
	"context"
	"errors"

	"github.com/tidewatch/tidewatch/internal/cache"
	"github.com/tidewatch/tidewatch/internal/geo"
	"github.com/tidewatch/tidewatch/internal/logging"
	"github.com/tidewatch/tidewatch/internal/metrics"
	"github.com/tidewatch/tidewatch/internal/models"
	"github.com/tidewatch/tidewatch/internal/upstream"
)

// VesselSource is the read surface the engine needs from the vessel store.
type VesselSource interface {
	QueryViewport(box geo.BoundingBox) []models.VesselPosition
}

// FetchFunc fetches a feature collection for a viewport from an upstream.
type FetchFunc func(ctx context.Context, box geo.BoundingBox) (*models.FeatureCollection, error)

// Engine orchestrates viewport queries.
type Engine struct {
	store VesselSource
	cache *cache.ResponseCache
}

// New creates an Engine over the given store and cache.
func New(store VesselSource, c *cache.ResponseCache) *Engine {
	return &Engine{store: store, cache: c}
}

// Vessels returns live vessel positions inside box as a feature collection.
// Live data never touches the response cache; a stale-but-cached vessel map
// would defeat the point of a live feed.
func (e *Engine) Vessels(box geo.BoundingBox) *models.FeatureCollection {
	fc := models.NewFeatureCollection()
	for _, v := range e.store.QueryViewport(box) {
		fc.Add(models.PointFeature(v.Lat, v.Lon, map[string]interface{}{
			"mmsi":        v.MMSI,
			"name":        v.Name,
			"heading":     v.Heading,
			"speed":       v.Speed,
			"observed_at": v.ObservedAt,
		}))
	}
	return fc
}

// CachedFetch serves a pull source through the cache: normalized key, Get,
// fetch on miss with the RAW box (rounding is a key concern, not a query
// concern), Put, return.
//
// Fetch failures degrade to an empty valid collection so the map keeps
// rendering; only upstream.ErrMissingToken propagates, because missing
// configuration is an operator problem, not weather.
func (e *Engine) CachedFetch(ctx context.Context, sourceKind string, box geo.BoundingBox, fetch FetchFunc) (*models.FeatureCollection, error) {
	key := cache.KeyFor(sourceKind, box)

	if cached, found := e.cache.Get(key); found {
		metrics.CacheRequests.WithLabelValues(sourceKind, "hit").Inc()
		if fc, ok := cached.(*models.FeatureCollection); ok {
			return fc, nil
		}
	}
	metrics.CacheRequests.WithLabelValues(sourceKind, "miss").Inc()

	fc, err := fetch(ctx, box)
	if err != nil {
		if errors.Is(err, upstream.ErrMissingToken) {
			return nil, err
		}
		logging.Ctx(ctx).Warn().Err(err).Str("source", sourceKind).Msg("upstream fetch failed, serving empty result")
		return models.NewFeatureCollection(), nil
	}

	e.cache.Put(key, fc)
	return fc, nil
}

// Fetch serves a pull source without caching, with the same degradation
// rules as CachedFetch. Used for advisories where staleness is worse than
// upstream load.
func (e *Engine) Fetch(ctx context.Context, sourceKind string, box geo.BoundingBox, fetch FetchFunc) (*models.FeatureCollection, error) {
	fc, err := fetch(ctx, box)
	if err != nil {
		if errors.Is(err, upstream.ErrMissingToken) {
			return nil, err
		}
		logging.Ctx(ctx).Warn().Err(err).Str("source", sourceKind).Msg("upstream fetch failed, serving empty result")
		return models.NewFeatureCollection(), nil
	}
	return fc, nil
}
