package geo

import (
	"math"
	"testing"

	"saferoute/internal/model"
)

func coord(lat, lng float64) model.Coordinate { return model.Coordinate{Lat: lat, Lng: lng} }

func TestGreatCircleDistance(t *testing.T) {
	a := coord(52.2296756, 21.0122287) // Warsaw
	b := coord(41.8919300, 12.5113300) // Rome
	d := GreatCircleDistance(a, b)
	if d < 1315000 || d > 1320000 {
		t.Fatalf("Warsaw-Rome: got %.0f m, want ~1317000", d)
	}
	if GreatCircleDistance(a, a) != 0 {
		t.Fatalf("identical points should be 0")
	}
	if math.Abs(GreatCircleDistance(a, b)-GreatCircleDistance(b, a)) > 1e-6 {
		t.Fatalf("distance not symmetric")
	}
}

func TestBearingCardinal(t *testing.T) {
	origin := coord(0, 0)
	north := Bearing(origin, coord(1, 0))
	if math.Abs(north) > 1e-9 {
		t.Fatalf("north bearing: got %v, want 0", north)
	}
	east := Bearing(origin, coord(0, 1))
	if math.Abs(east-math.Pi/2) > 1e-9 {
		t.Fatalf("east bearing: got %v, want pi/2", east)
	}
}

func TestDistanceToSegmentDegenerate(t *testing.T) {
	a := coord(48.8566, 2.3522)
	p := coord(48.8600, 2.3600)
	got := DistanceToSegment(p, a, a)
	want := GreatCircleDistance(p, a)
	if math.Abs(got-want) > 1e-6 {
		t.Fatalf("degenerate segment: got %v, want %v", got, want)
	}
}

func TestDistanceToSegmentClampsToEndpoints(t *testing.T) {
	// Segment running east along the equator.
	a := coord(0, 0)
	b := coord(0, 0.01)

	// Point well before a: distance should be to a, not the infinite line.
	before := coord(0, -0.01)
	got := DistanceToSegment(before, a, b)
	want := GreatCircleDistance(before, a)
	if math.Abs(got-want) > 1e-6 {
		t.Fatalf("before start: got %v, want %v", got, want)
	}

	// Point past b.
	beyond := coord(0, 0.02)
	got = DistanceToSegment(beyond, a, b)
	want = GreatCircleDistance(beyond, b)
	if math.Abs(got-want) > 1e-6 {
		t.Fatalf("beyond end: got %v, want %v", got, want)
	}

	// Point abeam the middle: cross-track distance, roughly 1 degree-minute
	// fractions north of the segment.
	side := coord(0.001, 0.005)
	got = DistanceToSegment(side, a, b)
	if got <= 0 || got > 120 {
		t.Fatalf("abeam point: got %v, want ~111 m", got)
	}
}

func TestDistanceToSegmentNonNegative(t *testing.T) {
	pts := []model.Coordinate{
		coord(31.63, 74.87), coord(31.64, 74.88), coord(31.62, 74.86),
		coord(31.65, 74.85), coord(31.60, 74.90),
	}
	for _, p := range pts {
		for _, a := range pts {
			for _, b := range pts {
				if d := DistanceToSegment(p, a, b); d < 0 {
					t.Fatalf("negative distance for p=%v a=%v b=%v", p, a, b)
				}
			}
		}
	}
}

func TestDistanceToPolylineIsSegmentMin(t *testing.T) {
	a := coord(0, 0)
	b := coord(0, 0.01)
	c := coord(0.01, 0.01)
	p := coord(0.002, 0.012)

	line := model.Polyline{a, b, c}
	got, err := DistanceToPolyline(p, line)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := math.Min(DistanceToSegment(p, a, b), DistanceToSegment(p, b, c))
	if math.Abs(got-want) > 1e-6 {
		t.Fatalf("polyline min: got %v, want %v", got, want)
	}
}

func TestDistanceToPolylineRejectsShortLine(t *testing.T) {
	_, err := DistanceToPolyline(coord(0, 0), model.Polyline{coord(1, 1)})
	if err == nil {
		t.Fatalf("expected error for single-point polyline")
	}
}

func TestRouteLengthKm(t *testing.T) {
	// ~1.11 km of equator per 0.01 degrees of longitude.
	line := model.Polyline{coord(0, 0), coord(0, 0.01)}
	km := RouteLengthKm(line)
	if km < 1.10 || km > 1.12 {
		t.Fatalf("length: got %v km, want ~1.11", km)
	}
	if RouteLengthKm(model.Polyline{coord(0, 0)}) != 0 {
		t.Fatalf("single point length should be 0")
	}
}

func TestValidate(t *testing.T) {
	if err := Validate(model.Polyline{coord(0, 0), coord(1, 1)}); err != nil {
		t.Fatalf("valid polyline rejected: %v", err)
	}
	bad := []model.Polyline{
		{coord(0, 0)},
		{coord(math.NaN(), 0), coord(1, 1)},
		{coord(91, 0), coord(1, 1)},
		{coord(0, 181), coord(1, 1)},
	}
	for i, line := range bad {
		if err := Validate(line); err == nil {
			t.Fatalf("case %d: expected invalid geometry", i)
		}
	}
}
