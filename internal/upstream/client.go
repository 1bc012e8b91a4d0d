// Tidewatch - Live Maritime Conditions Map
// Copyright 2026 Tidewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tidewatch/tidewatch

// Package upstream holds the pull-source gateway clients. Each client
// fetches from one external API and shapes the response into a GeoJSON
// feature collection; none of them cache (that is the query engine's job).
package upstream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tidewatch/tidewatch/internal/metrics"
)

// ErrMissingToken reports a missing upstream credential. It is the one
// upstream error that surfaces as an HTTP 5xx instead of degrading to an
// empty result, because no amount of retrying fixes absent configuration.
var ErrMissingToken = errors.New("upstream: API token not configured")

// newHTTPClient builds the http.Client used by the gateway clients.
func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

// getJSON performs a GET against url and decodes the JSON body into out.
// The request carries the caller's context, so endpoint timeouts and
// client disconnects propagate.
func getJSON(ctx context.Context, client *http.Client, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// observe records one upstream fetch outcome.
func observe(source string, start time.Time, err error) {
	metrics.UpstreamDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(source, "error").Inc()
	} else {
		metrics.UpstreamRequests.WithLabelValues(source, "ok").Inc()
	}
}
