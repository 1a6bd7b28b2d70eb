package geo

import "math"

const earthRadiusMeters = 6371000

// Coordinate is a WGS84 point in decimal degrees.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Result classifies a reported check-in location. Attempted is false when no
// coordinate was reported at all, which is a different case from reporting a
// coordinate that cannot be verified.
type Result struct {
	OnSite    bool
	Attempted bool
	DistanceM float64
}

// HaversineDistance returns the great-circle distance between two points in meters.
func HaversineDistance(a, b Coordinate) float64 {
	dLat := (b.Latitude - a.Latitude) * (math.Pi / 180.0)
	dLon := (b.Longitude - a.Longitude) * (math.Pi / 180.0)

	lat1Rad := a.Latitude * (math.Pi / 180.0)
	lat2Rad := b.Latitude * (math.Pi / 180.0)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLon/2)*math.Sin(dLon/2)*math.Cos(lat1Rad)*math.Cos(lat2Rad)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusMeters * c
}

// Validator decides whether a reported coordinate counts as on-site for a
// company's registered location.
type Validator struct {
	radiusMeters float64
}

func NewValidator(radiusMeters float64) *Validator {
	return &Validator{radiusMeters: radiusMeters}
}

// Validate compares the reported coordinate against the registered company
// location. A nil reported coordinate means no geofencing was attempted. A
// reported coordinate with no registered location cannot be verified and is
// treated as off-site.
func (v *Validator) Validate(reported, registered *Coordinate) Result {
	if reported == nil {
		return Result{Attempted: false}
	}
	if registered == nil {
		return Result{Attempted: true, OnSite: false}
	}

	dist := HaversineDistance(*reported, *registered)
	return Result{
		Attempted: true,
		OnSite:    dist < v.radiusMeters,
		DistanceM: dist,
	}
}
