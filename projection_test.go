package cluster

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
)

func TestMercatorProjection(t *testing.T) {
	x, y := MercatorProjection(orb.Point{0, 0})
	assert.Equal(t, 0.5, x)
	assert.Equal(t, 0.5, y)

	x, _ = MercatorProjection(orb.Point{-180, 0})
	assert.Equal(t, 0.0, x)
	x, _ = MercatorProjection(orb.Point{180, 0})
	assert.Equal(t, 1.0, x)

	// beyond the mercator limits y saturates
	_, y = MercatorProjection(orb.Point{0, 90})
	assert.Equal(t, 0.0, y)
	_, y = MercatorProjection(orb.Point{0, -90})
	assert.Equal(t, 1.0, y)
	_, y = MercatorProjection(orb.Point{0, 89.9})
	assert.False(t, math.IsNaN(y))
}

func TestReverseMercatorProjection(t *testing.T) {
	for lon := -180.0; lon <= 180; lon += 7.5 {
		for lat := -84.9; lat < 85; lat += 3.3 {
			ll := ReverseMercatorProjection(MercatorProjection(orb.Point{lon, lat}))
			assert.InDelta(t, lon, ll.Lon(), 1e-9, "lon %v lat %v", lon, lat)
			assert.InDelta(t, lat, ll.Lat(), 1e-9, "lon %v lat %v", lon, lat)
		}
	}
}
