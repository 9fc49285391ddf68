// Package geo provides flat-earth conversions between metric offsets and
// geographic coordinates. The approximation is valid for the scene sizes the
// simulators work with (hundreds of meters around a fixed center).
package geo

import "math"

// MetersPerDegreeLat is the length of one degree of latitude in meters.
const MetersPerDegreeLat = 111320.0

// KnotsToMetersPerSecond converts speed in knots to m/s.
const KnotsToMetersPerSecond = 0.514444

// MetersPerDegreeLon returns the length of one degree of longitude, in
// meters, at the given latitude. The scale shrinks with the cosine of the
// latitude; a lower bound keeps the value positive near the poles.
func MetersPerDegreeLon(latDeg float64) float64 {
	cosLat := math.Abs(math.Cos(latDeg * math.Pi / 180))
	if cosLat < 1e-12 {
		cosLat = 1e-12
	}
	return MetersPerDegreeLat * cosLat
}

// PositionOnCircle computes the latitude/longitude of a point on a circle of
// radiusM meters around a center. The angle is measured from east and
// increases counter-clockwise.
func PositionOnCircle(centerLat, centerLon, radiusM, angleRad float64) (lat, lon float64) {
	lat = centerLat + (radiusM*math.Sin(angleRad))/MetersPerDegreeLat
	lon = centerLon + (radiusM*math.Cos(angleRad))/MetersPerDegreeLon(centerLat)
	return lat, lon
}

// Offset shifts a position by the given metric offsets. The longitude scale
// is taken at the latitude of the shifted point's origin.
func Offset(lat, lon, northM, eastM float64) (float64, float64) {
	newLat := lat + northM/MetersPerDegreeLat
	newLon := lon + eastM/MetersPerDegreeLon(newLat)
	return newLat, newLon
}

// NormalizeAngle wraps an angle into [0, 2π).
func NormalizeAngle(rad float64) float64 {
	rad = math.Mod(rad, 2*math.Pi)
	if rad < 0 {
		rad += 2 * math.Pi
	}
	return rad
}
