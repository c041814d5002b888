// Package geohash adds map-friendly annotations to resolved coordinates.
package geohash

import (
	"github.com/golang/geo/s2"
	"github.com/mmcloughlin/geohash"

	"taxi-analytics/models"
)

// RoutePrecision gives cells of roughly 150m, enough to group pickups on a
// street block.
const RoutePrecision = 7

const earthRadiusKm = 6371.0088

// Encode coordinates into a geohash with specified precision.
func Encode(lat, lon float64, precision uint) string {
	return geohash.EncodeWithPrecision(lat, lon, precision)
}

// DistanceKm returns the great-circle distance between a and b.
func DistanceKm(a, b models.Coordinates) float64 {
	p := s2.LatLngFromDegrees(a.Lat, a.Lon)
	q := s2.LatLngFromDegrees(b.Lat, b.Lon)
	return p.Distance(q).Radians() * earthRadiusKm
}
