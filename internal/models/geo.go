// internal/models/geo.go
package models

import "math"

const earthRadiusKm = 6371.0

// DistanceKm returns the great-circle distance to another location.
func (l Location) DistanceKm(other Location) float64 {
	lat1 := l.Latitude * math.Pi / 180
	lat2 := other.Latitude * math.Pi / 180
	dLat := (other.Latitude - l.Latitude) * math.Pi / 180
	dLon := (other.Longitude - l.Longitude) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// HasCoordinates reports whether the location carries a real geographic
// point. Zero lat and long together are treated as missing data.
func (l Location) HasCoordinates() bool {
	return l.Latitude != 0 || l.Longitude != 0
}
