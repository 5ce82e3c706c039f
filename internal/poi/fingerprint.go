package poi

import (
	"fmt"
	"strings"

	"saferoute/internal/model"
)

// Fingerprint derives a stable low-cardinality cache key from a polyline by
// sampling at most maxSamples vertices plus the endpoint. Four decimals
// (~11 m grid) keep near-identical routes on the same key.
func Fingerprint(line model.Polyline, maxSamples int) string {
	if len(line) == 0 {
		return ""
	}
	if maxSamples < 2 {
		maxSamples = 2
	}
	step := (len(line) + maxSamples - 1) / maxSamples
	if step < 1 {
		step = 1
	}
	var parts []string
	for i := 0; i < len(line); i += step {
		parts = append(parts, fmt.Sprintf("%.4f,%.4f", line[i].Lat, line[i].Lng))
	}
	last := fmt.Sprintf("%.4f,%.4f", line[len(line)-1].Lat, line[len(line)-1].Lng)
	if parts[len(parts)-1] != last {
		parts = append(parts, last)
	}
	return strings.Join(parts, "|")
}

// QueryPolyline renders the sampled vertex list for an Overpass around:
// clause, six decimals, space separated.
func QueryPolyline(line model.Polyline, maxSamples int) string {
	if len(line) == 0 {
		return ""
	}
	if maxSamples < 2 {
		maxSamples = 2
	}
	step := (len(line) + maxSamples - 1) / maxSamples
	if step < 1 {
		step = 1
	}
	var parts []string
	for i := 0; i < len(line); i += step {
		parts = append(parts, fmt.Sprintf("%.6f,%.6f", line[i].Lat, line[i].Lng))
	}
	last := fmt.Sprintf("%.6f,%.6f", line[len(line)-1].Lat, line[len(line)-1].Lng)
	if parts[len(parts)-1] != last {
		parts = append(parts, last)
	}
	return strings.Join(parts, ",")
}
