package poi

import (
	"testing"

	"saferoute/internal/config"
	"saferoute/internal/model"
)

// straight west-east route along the equator, ~1.1 km
var testRoute = model.Polyline{
	{Lat: 0, Lng: 0},
	{Lat: 0, Lng: 0.005},
	{Lat: 0, Lng: 0.01},
}

// offsetLat returns a latitude whose perpendicular distance from the equator
// is approximately m meters (1 degree of latitude ~ 111320 m).
func offsetLat(m float64) float64 { return m / 111320.0 }

func lampAt(id int64, lat, lng float64) RawElement {
	return RawElement{ID: id, Type: "node", Lat: lat, Lon: lng, Tags: map[string]string{"highway": "street_lamp"}}
}

func TestClassifyCategoriesAndThresholds(t *testing.T) {
	c := NewClassifier(config.Default().POI)

	elements := []RawElement{
		lampAt(1, offsetLat(9), 0.005),  // within 10 m lamp threshold
		lampAt(2, offsetLat(11), 0.005), // beyond 10 m: dropped
		{ID: 3, Type: "node", Lat: offsetLat(29), Lon: 0.005, Tags: map[string]string{"highway": "traffic_signals"}},
		{ID: 4, Type: "node", Lat: offsetLat(31), Lon: 0.005, Tags: map[string]string{"highway": "traffic_signals"}},
		{ID: 5, Type: "node", Lat: offsetLat(74), Lon: 0.005, Tags: map[string]string{"shop": "convenience"}},
		{ID: 6, Type: "node", Lat: offsetLat(76), Lon: 0.005, Tags: map[string]string{"shop": "bakery"}},
		{ID: 7, Type: "node", Lat: offsetLat(5), Lon: 0.005, Tags: map[string]string{"amenity": "bench"}}, // no category
	}

	set, err := c.Classify(elements, testRoute)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if len(set.StreetLamps) != 1 || set.StreetLamps[0].ID != 1 {
		t.Fatalf("lamps: %+v", set.StreetLamps)
	}
	if len(set.TrafficSignals) != 1 || set.TrafficSignals[0].ID != 3 {
		t.Fatalf("signals: %+v", set.TrafficSignals)
	}
	if len(set.Shops) != 1 || set.Shops[0].ID != 5 {
		t.Fatalf("shops: %+v", set.Shops)
	}
}

func TestClassifyDedupFirstWins(t *testing.T) {
	c := NewClassifier(config.Default().POI)
	a := lampAt(10, offsetLat(3), 0.005)
	b := lampAt(11, offsetLat(3), 0.005) // same 5-decimal grid cell
	set, err := c.Classify([]RawElement{a, b}, testRoute)
	if err != nil {
		t.Fatal(err)
	}
	if len(set.StreetLamps) != 1 || set.StreetLamps[0].ID != 10 {
		t.Fatalf("dedup should keep first occurrence: %+v", set.StreetLamps)
	}
}

func TestClassifySortsByDistance(t *testing.T) {
	c := NewClassifier(config.Default().POI)
	set, err := c.Classify([]RawElement{
		lampAt(1, offsetLat(8), 0.002),
		lampAt(2, offsetLat(2), 0.005),
		lampAt(3, offsetLat(5), 0.008),
	}, testRoute)
	if err != nil {
		t.Fatal(err)
	}
	if len(set.StreetLamps) != 3 {
		t.Fatalf("lamps: %d", len(set.StreetLamps))
	}
	for i := 1; i < len(set.StreetLamps); i++ {
		if set.StreetLamps[i].DistanceM < set.StreetLamps[i-1].DistanceM {
			t.Fatalf("not sorted ascending: %+v", set.StreetLamps)
		}
	}
	if set.StreetLamps[0].ID != 2 {
		t.Fatalf("nearest lamp should sort first: %+v", set.StreetLamps[0])
	}
}

func TestClassifyWayCenterPosition(t *testing.T) {
	c := NewClassifier(config.Default().POI)
	way := RawElement{ID: 20, Type: "way", Tags: map[string]string{"shop": "mall"}}
	way.Center = &struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	}{Lat: offsetLat(50), Lon: 0.005}
	set, err := c.Classify([]RawElement{way}, testRoute)
	if err != nil {
		t.Fatal(err)
	}
	if len(set.Shops) != 1 {
		t.Fatalf("way with center should classify: %+v", set.Shops)
	}
}

func TestClassifyRejectsInvalidRoute(t *testing.T) {
	c := NewClassifier(config.Default().POI)
	if _, err := c.Classify(nil, model.Polyline{{Lat: 0, Lng: 0}}); err == nil {
		t.Fatalf("expected invalid geometry error")
	}
}

func TestFingerprintSamplingBound(t *testing.T) {
	long := make(model.Polyline, 200)
	for i := range long {
		long[i] = model.Coordinate{Lat: float64(i) * 0.001, Lng: float64(i) * 0.001}
	}
	fp := Fingerprint(long, 15)
	parts := 1
	for _, ch := range fp {
		if ch == '|' {
			parts++
		}
	}
	if parts > 16 { // maxSamples plus endpoint
		t.Fatalf("fingerprint has %d samples, want <= 16", parts)
	}
	// stable for identical input
	if fp != Fingerprint(long, 15) {
		t.Fatalf("fingerprint not stable")
	}
	// jitter beyond the rounding grid changes the key
	jittered := append(model.Polyline{}, long...)
	jittered[0].Lat += 0.01
	if fp == Fingerprint(jittered, 15) {
		t.Fatalf("fingerprint should change with geometry")
	}
}
