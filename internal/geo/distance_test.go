package geo_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/resqlink/disaster-server/internal/geo"
)

func TestDistanceKm_IdenticalPoints(t *testing.T) {
	assert.Equal(t, 0.0, geo.DistanceKm(28.6139, 77.2090, 28.6139, 77.2090))
	assert.Equal(t, 0.0, geo.DistanceKm(0, 0, 0, 0))
}

func TestDistanceKm_Symmetric(t *testing.T) {
	pairs := [][4]float64{
		{28.6139, 77.2090, 19.0760, 72.8777},    // Delhi <-> Mumbai
		{51.5074, -0.1278, 40.7128, -74.0060},   // London <-> New York
		{-33.8688, 151.2093, 35.6762, 139.6503}, // Sydney <-> Tokyo
		{0.001, 0.001, -0.001, -0.001},
	}

	for _, p := range pairs {
		forward := geo.DistanceKm(p[0], p[1], p[2], p[3])
		backward := geo.DistanceKm(p[2], p[3], p[0], p[1])
		assert.InDelta(t, forward, backward, 1e-9)
	}
}

func TestDistanceKm_KnownDistances(t *testing.T) {
	// Delhi to Mumbai is roughly 1150 km great-circle.
	assert.InDelta(t, 1150, geo.DistanceKm(28.6139, 77.2090, 19.0760, 72.8777), 30)

	// One degree of latitude is about 111 km.
	assert.InDelta(t, 111.2, geo.DistanceKm(0, 0, 1, 0), 0.5)
}

func TestDistanceKm_NonNegative(t *testing.T) {
	coords := [][4]float64{
		{90, 180, -90, -180},
		{12.9716, 77.5946, 12.9717, 77.5947},
		{200, 400, -300, 900}, // out of range, still defined
	}

	for _, p := range coords {
		assert.GreaterOrEqual(t, geo.DistanceKm(p[0], p[1], p[2], p[3]), 0.0)
	}
}

func TestDistanceKm_SmallOffsetWithinAlertRadius(t *testing.T) {
	// ~0.01 degrees latitude is ~1.1 km, comfortably inside the 3 km default.
	d := geo.DistanceKm(28.6139, 77.2090, 28.6239, 77.2090)
	assert.Greater(t, d, 1.0)
	assert.Less(t, d, 1.3)
}
