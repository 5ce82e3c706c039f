package rank

import (
	"math"
	"sort"

	"saferoute/internal/config"
	"saferoute/internal/model"
	"saferoute/internal/score"
)

// Ranker labels candidate routes for presentation. It never recomputes
// safety; it blends the combined safety score with a duration-based
// efficiency score and picks the representative routes.
type Ranker struct {
	cfg config.RankingConfig
}

func NewRanker(cfg config.RankingConfig) *Ranker {
	return &Ranker{cfg: cfg}
}

// Scored pairs a routing candidate with its computed metrics.
type Scored struct {
	model.Candidate
	Metrics model.RouteMetrics
}

// Rank returns the labeled shortlist. Fastest and safest always go to
// distinct routes when the pool offers more than one; a third distinct
// route fills the alternative slot. A lone candidate is labeled safest.
func (r *Ranker) Rank(in []Scored) []model.RankedRoute {
	if len(in) == 0 {
		return nil
	}

	shortest := in[0].DistanceM
	fastestDur := in[0].DurationS
	for _, c := range in[1:] {
		if c.DistanceM < shortest {
			shortest = c.DistanceM
		}
		if c.DurationS < fastestDur {
			fastestDur = c.DurationS
		}
	}

	scores := make([]int, len(in))
	for i, c := range in {
		scores[i] = r.rankScore(c, fastestDur)
	}

	// routes much longer than the shortest are unreasonable detours and do
	// not compete for the safest slot
	pool := make([]int, 0, len(in))
	for i, c := range in {
		if c.DistanceM <= shortest*r.cfg.MaxDetourFactor {
			pool = append(pool, i)
		}
	}
	if len(pool) == 0 {
		for i := range in {
			pool = append(pool, i)
		}
	}

	fastest := 0
	for i := 1; i < len(in); i++ {
		if in[i].DurationS < in[fastest].DurationS ||
			(in[i].DurationS == in[fastest].DurationS && in[i].Metrics.SafetyScore > in[fastest].Metrics.SafetyScore) {
			fastest = i
		}
	}

	if len(in) == 1 {
		return []model.RankedRoute{r.decorate(in[0], model.LabelSafest, scores[0])}
	}

	safest := -1
	for _, i := range pool {
		if i == fastest {
			continue
		}
		if safest < 0 || scores[i] > scores[safest] ||
			(scores[i] == scores[safest] && in[i].DurationS < in[safest].DurationS) {
			safest = i
		}
	}

	var out []model.RankedRoute
	if safest < 0 {
		// pool collapsed onto the fastest route; it carries the safest
		// label and any remaining candidate becomes the alternative
		out = append(out, r.decorate(in[fastest], model.LabelSafest, scores[fastest]))
		if alt, ok := nextBest(scores, fastest, -1); ok {
			out = append(out, r.decorate(in[alt], model.LabelAlternative, scores[alt]))
		}
		return out
	}

	out = append(out,
		r.decorate(in[safest], model.LabelSafest, scores[safest]),
		r.decorate(in[fastest], model.LabelFastest, scores[fastest]),
	)
	if alt, ok := nextBest(scores, safest, fastest); ok {
		out = append(out, r.decorate(in[alt], model.LabelAlternative, scores[alt]))
	}
	return out
}

func (r *Ranker) rankScore(c Scored, fastestDur float64) int {
	eff := 100.0
	if fastestDur > 0 {
		eff = 100 - (c.DurationS/fastestDur-1)*200
	}
	return r.Blend(c.Metrics.SafetyScore, eff)
}

// Blend combines a safety score with an efficiency score using the
// configured weights. The fastest route's efficiency is 100 by definition,
// so callers re-scoring it after a metrics refresh pass that directly.
func (r *Ranker) Blend(safety int, efficiency float64) int {
	if efficiency < 0 {
		efficiency = 0
	}
	raw := float64(safety)*r.cfg.SafetyWeight + efficiency*r.cfg.EfficiencyWeight
	return int(math.Round(raw))
}

// nextBest returns the highest-ranked index not already holding a slot.
func nextBest(scores []int, exclude1, exclude2 int) (int, bool) {
	order := make([]int, 0, len(scores))
	for i := range scores {
		if i != exclude1 && i != exclude2 {
			order = append(order, i)
		}
	}
	if len(order) == 0 {
		return 0, false
	}
	sort.Slice(order, func(a, b int) bool { return scores[order[a]] > scores[order[b]] })
	return order[0], true
}

func (r *Ranker) decorate(c Scored, label model.RouteLabel, rankScore int) model.RankedRoute {
	return model.RankedRoute{
		Candidate:   c.Candidate,
		Label:       label,
		Metrics:     c.Metrics,
		RankScore:   rankScore,
		RiskFactors: score.RiskFactors(c.Metrics),
		Narrative:   score.Narrative(c.Metrics),
		Color:       score.SafetyColor(c.Metrics.SafetyScore),
		SafetyLabel: score.SafetyLabel(c.Metrics.SafetyScore),
	}
}
