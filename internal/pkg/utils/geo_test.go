package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateHaversineDistance(t *testing.T) {
	assert.Zero(t, CalculateHaversineDistance(12.97, 77.59, 12.97, 77.59))

	// Bengaluru to Chennai is roughly 290 km
	d := CalculateHaversineDistance(12.9716, 77.5946, 13.0827, 80.2707)
	assert.InDelta(t, 290000, d, 5000)
}

func TestBounds(t *testing.T) {
	_, ok := Bounds(nil)
	assert.False(t, ok)

	box, ok := Bounds([]Point{{Lat: 12.9, Lng: 77.5}, {Lat: 13.1, Lng: 77.7}, {Lat: 13.0, Lng: 77.4}})
	assert.True(t, ok)
	assert.Equal(t, Box{South: 12.9, West: 77.4, North: 13.1, East: 77.7}, box)

	c := box.Center()
	assert.InDelta(t, 13.0, c.Lat, 1e-9)
	assert.InDelta(t, 77.55, c.Lng, 1e-9)
	assert.Greater(t, box.Diagonal(), 0.0)
}

func TestBounds_SinglePoint(t *testing.T) {
	box, ok := Bounds([]Point{{Lat: 1, Lng: 2}})
	assert.True(t, ok)
	assert.Equal(t, Point{Lat: 1, Lng: 2}, box.Center())
	assert.Zero(t, box.Diagonal())
}
