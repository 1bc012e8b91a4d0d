// Tidewatch - Live Maritime Conditions Map
// Copyright 2026 Tidewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tidewatch/tidewatch

package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/tidewatch/tidewatch/internal/geo"
)

var validate = validator.New()

// viewportParams are the four required bounding-box query parameters.
// Each coordinate must be numeric and in geographic range; an inverted box
// (min above max) passes validation and simply yields an empty result.
type viewportParams struct {
	MinLat float64 `validate:"gte=-90,lte=90"`
	MinLon float64 `validate:"gte=-180,lte=180"`
	MaxLat float64 `validate:"gte=-90,lte=90"`
	MaxLon float64 `validate:"gte=-180,lte=180"`
}

// parseViewport extracts and validates the viewport from query parameters.
func parseViewport(r *http.Request) (geo.BoundingBox, error) {
	q := r.URL.Query()

	read := func(name string) (float64, error) {
		raw := q.Get(name)
		if raw == "" {
			return 0, fmt.Errorf("missing required parameter %q", name)
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0, fmt.Errorf("parameter %q must be numeric", name)
		}
		return v, nil
	}

	var params viewportParams
	var err error
	if params.MinLat, err = read("min_lat"); err != nil {
		return geo.BoundingBox{}, err
	}
	if params.MinLon, err = read("min_lon"); err != nil {
		return geo.BoundingBox{}, err
	}
	if params.MaxLat, err = read("max_lat"); err != nil {
		return geo.BoundingBox{}, err
	}
	if params.MaxLon, err = read("max_lon"); err != nil {
		return geo.BoundingBox{}, err
	}

	if err := validate.Struct(params); err != nil {
		return geo.BoundingBox{}, fmt.Errorf("viewport coordinates out of range")
	}

	return geo.BoundingBox{
		MinLat: params.MinLat,
		MinLon: params.MinLon,
		MaxLat: params.MaxLat,
		MaxLon: params.MaxLon,
	}, nil
}
