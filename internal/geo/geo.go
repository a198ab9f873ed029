// Package geo holds the small amount of spherical geometry and bucketing
// the alert pipeline needs: great-circle distance for the monitor region
// filter, and geohash/time cells for deduplicating readings that carry no
// stable identifier.
package geo

import (
	"math"
	"time"

	"github.com/mmcloughlin/geohash"
)

const earthRadiusKm = 6371.0

// DistanceKm returns the great-circle (haversine) distance in kilometers.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := radians(lat1)
	phi2 := radians(lat2)
	dPhi := radians(lat2 - lat1)
	dLambda := radians(lon2 - lon1)

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Cell returns the geohash cell of the coordinate at the given precision.
func Cell(lat, lon float64, precision uint) string {
	return geohash.EncodeWithPrecision(lat, lon, precision)
}

// TimeBucket truncates t to a fixed window and returns it in RFC3339 UTC,
// so readings within the same window share a bucket string.
func TimeBucket(t time.Time, width time.Duration) string {
	return t.UTC().Truncate(width).Format(time.RFC3339)
}
