package domain

import (
	"fmt"
	"math"
)

// earthRadiusKm is the mean Earth radius used for great-circle distances.
const earthRadiusKm = 6371.0

// Location is a latitude/longitude pair in decimal degrees.
type Location struct {
	Latitude  float64
	Longitude float64
}

// NewLocation validates coordinate bounds: latitude in [-90, 90],
// longitude in [-180, 180].
func NewLocation(latitude, longitude float64) (Location, error) {
	if latitude < -90 || latitude > 90 {
		return Location{}, fmt.Errorf("%w: latitude %v out of range [-90, 90]", ErrInvalidArgument, latitude)
	}
	if longitude < -180 || longitude > 180 {
		return Location{}, fmt.Errorf("%w: longitude %v out of range [-180, 180]", ErrInvalidArgument, longitude)
	}
	return Location{Latitude: latitude, Longitude: longitude}, nil
}

// DistanceTo returns the great-circle distance to other in kilometers,
// computed with the haversine formula. Symmetric and zero for identical
// coordinates.
func (l Location) DistanceTo(other Location) float64 {
	lat1 := degToRad(l.Latitude)
	lat2 := degToRad(other.Latitude)
	dLat := degToRad(other.Latitude - l.Latitude)
	dLon := degToRad(other.Longitude - l.Longitude)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

func degToRad(deg float64) float64 {
	return deg * math.Pi / 180
}
