// Tidewatch - Live Maritime Conditions Map
// Copyright 2026 Tidewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tidewatch/tidewatch

package geo

import (
	"math"
	"testing"
)

func TestContainsInclusive(t *testing.T) {
	box := BoundingBox{MinLat: 10, MinLon: 20, MaxLat: 30, MaxLon: 40}

	cases := []struct {
		lat, lon float64
		want     bool
	}{
		{10, 20, true},  // min corner
		{30, 40, true},  // max corner
		{20, 30, true},  // interior
		{10, 40, true},  // mixed corner
		{9.99, 30, false},
		{30.01, 30, false},
		{20, 19.99, false},
		{20, 40.01, false},
	}
	for _, c := range cases {
		if got := box.Contains(c.lat, c.lon); got != c.want {
			t.Errorf("Contains(%v,%v)=%v, want %v", c.lat, c.lon, got, c.want)
		}
	}
}

func TestInvertedBoxContainsNothing(t *testing.T) {
	box := BoundingBox{MinLat: 30, MinLon: 40, MaxLat: 10, MaxLon: 20}
	if box.Contains(20, 30) {
		t.Error("inverted box must match nothing")
	}
}

func TestKeyRoundsToOneDecimal(t *testing.T) {
	a := BoundingBox{MinLat: 10.04, MinLon: 20.01, MaxLat: 30.04, MaxLon: 39.96}
	b := BoundingBox{MinLat: 9.96, MinLon: 19.99, MaxLat: 29.97, MaxLon: 40.04}
	if a.Key() != b.Key() {
		t.Errorf("jittered boxes should share a key: %q vs %q", a.Key(), b.Key())
	}
	if got := a.Key(); got != "10.0,20.0,30.0,40.0" {
		t.Errorf("Key()=%q", got)
	}

	far := BoundingBox{MinLat: 10.1, MinLon: 20.0, MaxLat: 30.0, MaxLon: 40.0}
	if a.Key() == far.Key() {
		t.Error("boxes differing by a tenth of a degree must not collide")
	}
}

func TestValidCoordinates(t *testing.T) {
	cases := []struct {
		lat, lon float64
		want     bool
	}{
		{0, 0, true},
		{-90, -180, true},
		{90, 180, true},
		{90.01, 0, false},
		{-90.01, 0, false},
		{0, 180.01, false},
		{0, -180.01, false},
		{math.NaN(), 0, false},
		{0, math.Inf(1), false},
	}
	for _, c := range cases {
		if got := ValidCoordinates(c.lat, c.lon); got != c.want {
			t.Errorf("ValidCoordinates(%v,%v)=%v, want %v", c.lat, c.lon, got, c.want)
		}
	}
}

func TestParseBox(t *testing.T) {
	box, err := ParseBox("-10.5, -20.25, 30, 40")
	if err != nil {
		t.Fatalf("ParseBox: %v", err)
	}
	want := BoundingBox{MinLat: -10.5, MinLon: -20.25, MaxLat: 30, MaxLon: 40}
	if box != want {
		t.Errorf("got %+v, want %+v", box, want)
	}

	for _, bad := range []string{"", "1,2,3", "1,2,3,4,5", "a,2,3,4", "91,0,10,10"} {
		if _, err := ParseBox(bad); err == nil {
			t.Errorf("ParseBox(%q): expected error", bad)
		}
	}
}
