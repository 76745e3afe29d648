package geo

import "math"

// EarthRadiusMeters is the mean Earth radius used by the haversine formula.
const EarthRadiusMeters = 6371000.0

// Coordinate is a WGS84 point in decimal degrees.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether the coordinate is within the valid
// latitude/longitude range (boundaries inclusive).
func (c Coordinate) Valid() bool {
	return IsValidCoordinate(c.Latitude, c.Longitude)
}

// IsValidCoordinate reports whether lat is in [-90, 90] and lon is in
// [-180, 180]. Callers must check user-submitted coordinates with this
// before computing distances; DistanceMeters itself does no bounds checking.
func IsValidCoordinate(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// DistanceMeters returns the great-circle distance between a and b in meters,
// rounded to two decimal places. Rounding keeps repeated calls with identical
// input byte-identical before threshold comparisons; the unrounded value is
// computed by rawDistanceMeters.
//
// NaN or Inf components propagate into the result.
func DistanceMeters(a, b Coordinate) float64 {
	return roundHundredths(rawDistanceMeters(a, b))
}

// rawDistanceMeters computes the haversine great-circle distance in meters
// at full float64 precision.
func rawDistanceMeters(a, b Coordinate) float64 {
	phi1 := a.Latitude * math.Pi / 180
	phi2 := b.Latitude * math.Pi / 180
	dPhi := (b.Latitude - a.Latitude) * math.Pi / 180
	dLambda := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*
			math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusMeters * c
}

// roundHundredths rounds half away from zero at the hundredths digit.
// Distances are non-negative, so this is round-half-up.
func roundHundredths(m float64) float64 {
	return math.Round(m*100) / 100
}

// Fence is a circular geofence around a reference coordinate.
type Fence struct {
	Center       Coordinate `json:"center"`
	RadiusMeters float64    `json:"radius_meters"`
}

// Verdict is the result of evaluating a point against a fence.
type Verdict struct {
	DistanceMeters float64 `json:"distance_meters"`
	WithinFence    bool    `json:"within_fence"`
}

// Evaluate computes the distance from p to the fence center and classifies
// membership. A point exactly at the radius is inside.
func (f Fence) Evaluate(p Coordinate) Verdict {
	d := DistanceMeters(p, f.Center)
	return Verdict{
		DistanceMeters: d,
		WithinFence:    d <= f.RadiusMeters,
	}
}
