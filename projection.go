package cluster

import (
	"math"

	"github.com/paulmach/orb"
)

// MercatorProjection converts longitude/latitude to spherical mercator in [0..1] range.
// Latitudes beyond the mercator limits saturate to the top or bottom edge.
func MercatorProjection(ll orb.Point) (float64, float64) {
	x := ll.Lon()/360.0 + 0.5
	sin := math.Sin(ll.Lat() * math.Pi / 180.0)
	y := 0.5 - 0.25*math.Log((1+sin)/(1-sin))/math.Pi
	if y < 0 {
		y = 0
	}
	if y > 1 {
		y = 1
	}
	return x, y
}

// ReverseMercatorProjection converts spherical mercator [0..1] coordinates back to longitude/latitude.
func ReverseMercatorProjection(x, y float64) orb.Point {
	lon := (x - 0.5) * 360
	y2 := (180 - y*360) * math.Pi / 180.0
	lat := 360*math.Atan(math.Exp(y2))/math.Pi - 90
	return orb.Point{lon, lat}
}
