package geo

import (
	"errors"
	"math"

	"saferoute/internal/model"
)

// Spherical geometry over WGS-84 coordinates. Inputs are degrees, distances
// are meters, angles are radians.

const earthRadiusM = 6371000.0

// ErrInvalidGeometry is returned for polylines with fewer than two points or
// non-finite coordinates.
var ErrInvalidGeometry = errors.New("invalid geometry")

func toRad(deg float64) float64 { return deg * math.Pi / 180 }

// GreatCircleDistance returns the haversine distance between a and b.
func GreatCircleDistance(a, b model.Coordinate) float64 {
	lat1 := toRad(a.Lat)
	lat2 := toRad(b.Lat)
	dLat := toRad(b.Lat - a.Lat)
	dLng := toRad(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusM * c
}

// Bearing returns the initial bearing from a to b. Returns 0 when a == b.
func Bearing(a, b model.Coordinate) float64 {
	lat1 := toRad(a.Lat)
	lat2 := toRad(b.Lat)
	dLng := toRad(b.Lng - a.Lng)

	y := math.Sin(dLng) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLng)

	return math.Atan2(y, x)
}

// CrossTrackDistance returns the perpendicular distance from p to the great
// circle through segStart and segEnd. Always non-negative.
func CrossTrackDistance(segStart, segEnd, p model.Coordinate) float64 {
	d13 := GreatCircleDistance(segStart, p) / earthRadiusM
	t13 := Bearing(segStart, p)
	t12 := Bearing(segStart, segEnd)

	dxt := math.Asin(math.Sin(d13)*math.Sin(t13-t12)) * earthRadiusM

	return math.Abs(dxt)
}

// AlongTrackDistance returns the signed projection of p onto the great circle
// through segStart and segEnd. Negative means before segStart; values beyond
// the segment length mean past segEnd.
func AlongTrackDistance(segStart, segEnd, p model.Coordinate) float64 {
	d13 := GreatCircleDistance(segStart, p) / earthRadiusM
	t13 := Bearing(segStart, p)
	t12 := Bearing(segStart, segEnd)

	dxt := math.Asin(math.Sin(d13) * math.Sin(t13-t12))
	dat := math.Acos(math.Cos(d13)/math.Cos(dxt)) * earthRadiusM

	if math.Cos(t13-t12) < 0 {
		return -dat
	}
	return dat
}

// DistanceToSegment returns the distance from p to the segment a-b. The
// projection is clamped to the segment: points that fall before a or past b
// measure to the nearer endpoint instead of the great-circle line.
func DistanceToSegment(p, a, b model.Coordinate) float64 {
	segLen := GreatCircleDistance(a, b)
	if segLen < 1 {
		return GreatCircleDistance(a, p)
	}

	at := AlongTrackDistance(a, b, p)
	if at < 0 {
		return GreatCircleDistance(a, p)
	}
	if at > segLen {
		return GreatCircleDistance(b, p)
	}

	return CrossTrackDistance(a, b, p)
}

// DistanceToPolyline returns the minimum distance from p to any segment of
// line. Fails when the polyline cannot form a segment.
func DistanceToPolyline(p model.Coordinate, line model.Polyline) (float64, error) {
	if len(line) < 2 {
		return math.Inf(1), ErrInvalidGeometry
	}
	min := math.Inf(1)
	for i := 0; i < len(line)-1; i++ {
		if d := DistanceToSegment(p, line[i], line[i+1]); d < min {
			min = d
		}
	}
	return min, nil
}

// RouteLengthKm returns the summed segment length of line in kilometers.
func RouteLengthKm(line model.Polyline) float64 {
	total := 0.0
	for i := 0; i < len(line)-1; i++ {
		total += GreatCircleDistance(line[i], line[i+1])
	}
	return total / 1000
}

// Validate reports whether line is usable for scoring: at least two points,
// all coordinates finite and in range.
func Validate(line model.Polyline) error {
	if len(line) < 2 {
		return ErrInvalidGeometry
	}
	for _, c := range line {
		if math.IsNaN(c.Lat) || math.IsInf(c.Lat, 0) || math.IsNaN(c.Lng) || math.IsInf(c.Lng, 0) {
			return ErrInvalidGeometry
		}
		if c.Lat < -90 || c.Lat > 90 || c.Lng < -180 || c.Lng > 180 {
			return ErrInvalidGeometry
		}
	}
	return nil
}
