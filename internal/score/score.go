package score

import (
	"fmt"
	"math"
	"strings"

	"saferoute/internal/config"
	"saferoute/internal/model"
)

// Scorer turns classified POI counts into 0-100 safety metrics. All weights
// and expected densities come from configuration so deployments can tune them
// for their city without a rebuild.
type Scorer struct {
	cfg      config.ScoringConfig
	openness OpennessJudge
}

func NewScorer(cfg config.ScoringConfig, openness OpennessJudge) *Scorer {
	if openness == nil {
		openness = HeuristicOpenness{}
	}
	return &Scorer{cfg: cfg, openness: openness}
}

const neutralScore = 50

// Score computes the per-route metrics for one candidate. hour is local time
// of day in [0,24); incidentImpact is the penalty already computed from
// nearby reports.
func (s *Scorer) Score(routeID string, lengthKm float64, pois model.POISet, hour int, incidentImpact int) model.RouteMetrics {
	lamps, signals, shops := pois.Counts()
	m := model.RouteMetrics{
		RouteID:            routeID,
		LengthKm:           lengthKm,
		StreetLightCount:   lamps,
		TrafficSignalCount: signals,
		ShopCount:          shops,
		IncidentImpact:     incidentImpact,
	}

	if lengthKm <= 0 {
		// degenerate geometry: no density is computable, report neutral
		m.LightingScore = neutralScore
		m.CrowdScore = neutralScore
		m.ShopScore = neutralScore
		m.SafetyScore = s.combine(m)
		return m
	}

	lampRatio := ratio(lamps, s.cfg.ExpectedLampsPerKm, lengthKm)
	signalRatio := ratio(signals, s.cfg.ExpectedSignalsPerKm, lengthKm)
	shopRatio := ratio(shops, s.cfg.ExpectedShopsPerKm, lengthKm)

	openShops := 0
	for _, p := range pois.Shops {
		if s.openness.IsOpen(p, hour) {
			openShops++
		}
	}
	openRatio := ratio(openShops, s.cfg.ExpectedShopsPerKm, lengthKm)

	tf := TimeFactor(hour)
	m.LightingScore = capScore(lampRatio * 100)
	m.CrowdScore = capScore((0.5*signalRatio + 0.5*shopRatio) * tf * 100)
	m.ShopScore = capScore(openRatio * 100)
	m.SafetyScore = s.combine(m)
	return m
}

// combine applies the weighted blend and clamps into [0,100].
func (s *Scorer) combine(m model.RouteMetrics) int {
	raw := float64(m.LightingScore)*s.cfg.LightingWeight +
		float64(m.CrowdScore)*s.cfg.CrowdWeight +
		float64(m.ShopScore)*s.cfg.ShopWeight -
		float64(m.IncidentImpact)*s.cfg.IncidentWeight
	v := int(math.Round(raw))
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func ratio(count int, expectedPerKm, lengthKm float64) float64 {
	expected := expectedPerKm * lengthKm
	if expected <= 0 {
		return 0
	}
	return float64(count) / expected
}

func capScore(v float64) int {
	r := int(math.Round(v))
	if r > 100 {
		return 100
	}
	if r < 0 {
		return 0
	}
	return r
}

// TimeFactor scales crowd-related signals by time of day. Activity around
// signals and shops means little at 3am, so the factor bottoms out overnight
// and ramps through the shoulder hours.
func TimeFactor(hour int) float64 {
	h := ((hour % 24) + 24) % 24
	switch {
	case h >= 9 && h <= 21:
		return 1.0
	case h == 8:
		return 0.7
	case h == 7:
		return 0.4
	case h == 22:
		return 0.6
	default: // 23:00 through 06:59
		return 0.2
	}
}

// SafetyColor returns the display color for a combined score.
func SafetyColor(score int) string {
	switch {
	case score >= 80:
		return "#10b981"
	case score >= 50:
		return "#f59e0b"
	default:
		return "#ef4444"
	}
}

// SafetyLabel returns the display band for a combined score.
func SafetyLabel(score int) string {
	switch {
	case score >= 80:
		return "Safe"
	case score >= 50:
		return "Moderate"
	default:
		return "Risky"
	}
}

// RiskFactors lists the concrete reasons a route scored below par.
func RiskFactors(m model.RouteMetrics) []string {
	var out []string
	if m.LightingScore < 40 {
		out = append(out, fmt.Sprintf("Sparse street lighting (%d lamps over %.1f km)", m.StreetLightCount, m.LengthKm))
	}
	if m.CrowdScore < 40 {
		out = append(out, "Low foot-traffic indicators along this route")
	}
	if m.ShopScore < 40 {
		out = append(out, "Few businesses likely to be open nearby")
	}
	if m.IncidentImpact > 0 {
		out = append(out, fmt.Sprintf("Recent incident reports near this route (impact %d)", m.IncidentImpact))
	}
	return out
}

// Narrative renders a one-sentence summary for the route card.
func Narrative(m model.RouteMetrics) string {
	var b strings.Builder
	switch {
	case m.SafetyScore >= 80:
		b.WriteString("Well-covered route")
	case m.SafetyScore >= 50:
		b.WriteString("Reasonable route")
	default:
		b.WriteString("Use caution on this route")
	}
	fmt.Fprintf(&b, ": %d street lamps, %d signals and %d shops within reach over %.1f km.",
		m.StreetLightCount, m.TrafficSignalCount, m.ShopCount, m.LengthKm)
	if m.IncidentImpact > 0 {
		b.WriteString(" Recent incidents were reported nearby.")
	}
	return b.String()
}
