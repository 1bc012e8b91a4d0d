// Tidewatch - Live Maritime Conditions Map
// Copyright 2026 Tidewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tidewatch/tidewatch

// Package metrics defines the Prometheus instrumentation for Tidewatch.
// All metrics register on the default registry via promauto and are exposed
// on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// IngestMessages counts inbound stream messages by outcome:
	// consumed, filtered, malformed, invalid.
	IngestMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tidewatch_ingest_messages_total",
			Help: "Inbound AIS stream messages by processing outcome",
		},
		[]string{"result"},
	)

	// IngestReconnects counts stream reconnect attempts.
	IngestReconnects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tidewatch_ingest_reconnects_total",
			Help: "AIS stream reconnect attempts",
		},
	)

	// IngestConnectionState reports the ingestor state machine position:
	// 0 disconnected, 1 connecting, 2 subscribing, 3 streaming.
	IngestConnectionState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tidewatch_ingest_connection_state",
			Help: "AIS stream connection state (0=disconnected 1=connecting 2=subscribing 3=streaming)",
		},
	)

	// StoreSize tracks the number of vessels currently held.
	StoreSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tidewatch_store_vessels",
			Help: "Vessel positions currently in the store",
		},
	)

	// StoreSweepRemoved counts stale vessel positions removed by sweeps.
	StoreSweepRemoved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tidewatch_store_sweep_removed_total",
			Help: "Stale vessel positions removed by staleness sweeps",
		},
	)

	// CacheRequests counts response-cache lookups by source and result
	// (hit, miss).
	CacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tidewatch_cache_requests_total",
			Help: "Response cache lookups by source and result",
		},
		[]string{"source", "result"},
	)

	// CacheEvictions counts capacity evictions from the response cache.
	CacheEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tidewatch_cache_evictions_total",
			Help: "Response cache entries evicted at capacity",
		},
	)

	// CacheEntries tracks the number of live response-cache entries.
	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tidewatch_cache_entries",
			Help: "Response cache entries currently held",
		},
	)

	// UpstreamRequests counts upstream fetches by source and result
	// (ok, error).
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tidewatch_upstream_requests_total",
			Help: "Upstream fetches by source and result",
		},
		[]string{"source", "result"},
	)

	// UpstreamDuration observes upstream fetch latency by source.
	UpstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tidewatch_upstream_request_duration_seconds",
			Help:    "Upstream fetch duration by source",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	// APIRequestsTotal counts HTTP requests by method, endpoint and status.
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tidewatch_api_requests_total",
			Help: "HTTP requests by method, endpoint and status code",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	// APIRequestDuration observes HTTP request latency.
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tidewatch_api_request_duration_seconds",
			Help:    "HTTP request duration by method and endpoint",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// APIActiveRequests tracks in-flight HTTP requests.
	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tidewatch_api_active_requests",
			Help: "HTTP requests currently being served",
		},
	)

	// BreakerState reports circuit breaker state per upstream
	// (0=closed 1=half-open 2=open).
	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tidewatch_breaker_state",
			Help: "Circuit breaker state per upstream (0=closed 1=half-open 2=open)",
		},
		[]string{"source"},
	)
)
