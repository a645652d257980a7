package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var office = Point{Lat: -6.2, Lon: 106.8}

func TestDistanceMeters(t *testing.T) {
	assert.InDelta(t, 0, DistanceMeters(office, office), 0.001)

	// Monas to Bundaran HI, roughly 2.2 km.
	d := DistanceMeters(Point{-6.175392, 106.827153}, Point{-6.195004, 106.823169})
	require.Greater(t, d, 2000.0)
	assert.Less(t, d, 2400.0)
}

func TestWithinRadius(t *testing.T) {
	// 0.0005 degrees of latitude is about 55 meters.
	assert.True(t, WithinRadius(Point{-6.2005, 106.8}, office, 100))
	assert.False(t, WithinRadius(Point{-6.2015, 106.8}, office, 100))

	assert.False(t, WithinRadius(office, office, 0), "no radius configured")
	assert.False(t, WithinRadius(Point{math.NaN(), 106.8}, office, 100))
	assert.False(t, WithinRadius(Point{-6.2, 200}, office, 1_000_000))
}
