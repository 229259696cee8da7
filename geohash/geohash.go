// Package geohash hashes artist coordinates into strings for the
// optional location_geohash column on the artists table.
package geohash

import "github.com/mmcloughlin/geohash"

// Encode returns the geohash of the point at the given precision in
// characters. Precision is capped at 12, the full resolution of a
// geohash; zero or negative precision returns "".
func Encode(lat, lng float64, precision int) string {
	if precision <= 0 {
		return ""
	}
	if precision > 12 {
		precision = 12
	}
	return geohash.EncodeWithPrecision(lat, lng, uint(precision))
}
