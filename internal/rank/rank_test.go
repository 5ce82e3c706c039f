package rank

import (
	"testing"

	"saferoute/internal/config"
	"saferoute/internal/model"
)

func scored(id string, distM, durS float64, safety int) Scored {
	return Scored{
		Candidate: model.Candidate{RouteID: id, DistanceM: distM, DurationS: durS},
		Metrics:   model.RouteMetrics{RouteID: id, SafetyScore: safety},
	}
}

func newTestRanker() *Ranker {
	return NewRanker(config.Default().Ranking)
}

func find(t *testing.T, routes []model.RankedRoute, label model.RouteLabel) model.RankedRoute {
	t.Helper()
	for _, r := range routes {
		if r.Label == label {
			return r
		}
	}
	t.Fatalf("no route labeled %s in %+v", label, routes)
	return model.RankedRoute{}
}

func TestRankExcludesLongDetours(t *testing.T) {
	r := newTestRanker()
	// 8.0 km is beyond 5.0*1.3 and must not win safest despite its score
	out := r.Rank([]Scored{
		scored("a", 5000, 3600, 60),
		scored("b", 5200, 3700, 70),
		scored("c", 8000, 5600, 99),
	})
	if got := find(t, out, model.LabelSafest).RouteID; got != "b" {
		t.Fatalf("safest = %s, want b", got)
	}
	if got := find(t, out, model.LabelFastest).RouteID; got != "a" {
		t.Fatalf("fastest = %s, want a", got)
	}
	if got := find(t, out, model.LabelAlternative).RouteID; got != "c" {
		t.Fatalf("alternative = %s, want c", got)
	}
}

func TestRankDetourPoolFallback(t *testing.T) {
	r := NewRanker(config.RankingConfig{MaxDetourFactor: 0.5, SafetyWeight: 0.7, EfficiencyWeight: 0.3})
	// with an impossible detour factor nothing passes the filter; the full
	// set must be considered instead of returning nothing
	out := r.Rank([]Scored{
		scored("a", 5000, 3600, 40),
		scored("b", 5100, 3650, 90),
	})
	if got := find(t, out, model.LabelSafest).RouteID; got != "b" {
		t.Fatalf("safest = %s, want b", got)
	}
}

func TestRankSlotsStayDistinct(t *testing.T) {
	r := newTestRanker()
	// "a" has the best blend and the best duration, yet fastest and safest
	// must name different routes when more than one candidate pools
	out := r.Rank([]Scored{
		scored("a", 5000, 3600, 95),
		scored("b", 5200, 4000, 60),
		scored("c", 5300, 4100, 70),
	})
	if got := find(t, out, model.LabelFastest).RouteID; got != "a" {
		t.Fatalf("fastest = %s, want a", got)
	}
	safest := find(t, out, model.LabelSafest).RouteID
	if safest == "a" {
		t.Fatal("safest must not reuse the fastest route")
	}
	if safest != "c" { // c outranks b on the safety/efficiency blend
		t.Fatalf("safest = %s, want c", safest)
	}
	if got := find(t, out, model.LabelAlternative).RouteID; got != "b" {
		t.Fatalf("alternative = %s, want b", got)
	}
}

func TestRankEfficiencyDecidesSafestSlot(t *testing.T) {
	r := newTestRanker()
	// b and c compete for safest; c is slightly less safe but far quicker,
	// so the blend puts it ahead
	out := r.Rank([]Scored{
		scored("a", 5000, 3600, 50),
		scored("b", 5100, 5400, 80), // 50% slower: efficiency 0, rank 56
		scored("c", 5200, 4000, 75), // rank 76
	})
	if got := find(t, out, model.LabelSafest).RouteID; got != "c" {
		t.Fatalf("safest = %s, want c", got)
	}
}

func TestRankFastestTieBreaksOnSafety(t *testing.T) {
	r := newTestRanker()
	// "b" ties on duration with higher safety but is too long for the
	// safest pool, so the slots stay distinct
	out := r.Rank([]Scored{
		scored("a", 5000, 3600, 90),
		scored("b", 8000, 3600, 95),
	})
	if got := find(t, out, model.LabelFastest).RouteID; got != "b" {
		t.Fatalf("fastest tie should break on safety, got %s", got)
	}
	if got := find(t, out, model.LabelSafest).RouteID; got != "a" {
		t.Fatalf("safest = %s, want a", got)
	}
}

func TestRankScoreBlend(t *testing.T) {
	r := newTestRanker()
	out := r.Rank([]Scored{
		scored("a", 5000, 3600, 90), // efficiency 100: rank = 90*0.7+100*0.3 = 93
		scored("b", 5100, 3960, 50), // 10% slower: efficiency 80, rank = 50*0.7+80*0.3 = 59
	})
	if got := find(t, out, model.LabelFastest).RankScore; got != 93 {
		t.Fatalf("fastest rankScore = %d, want 93", got)
	}
	if got := find(t, out, model.LabelSafest).RankScore; got != 59 {
		t.Fatalf("safest rankScore = %d, want 59", got)
	}
}

func TestRankPoolCollapsedOntoFastest(t *testing.T) {
	r := newTestRanker()
	// only the fastest route survives pooling, so it takes the safest
	// label and the detour is offered as the alternative
	out := r.Rank([]Scored{
		scored("a", 5000, 3600, 90),
		scored("b", 9000, 7200, 99),
	})
	if len(out) != 2 {
		t.Fatalf("routes = %d, want 2: %+v", len(out), out)
	}
	if out[0].Label != model.LabelSafest || out[0].RouteID != "a" {
		t.Fatalf("first = %s/%s, want safest a", out[0].Label, out[0].RouteID)
	}
	if out[1].Label != model.LabelAlternative || out[1].RouteID != "b" {
		t.Fatalf("second = %s/%s, want alternative b", out[1].Label, out[1].RouteID)
	}
}

func TestRankSingleCandidate(t *testing.T) {
	r := newTestRanker()
	out := r.Rank([]Scored{scored("a", 5000, 3600, 85)})
	if len(out) != 1 || out[0].Label != model.LabelSafest {
		t.Fatalf("single candidate: %+v, want one safest route", out)
	}
	if out[0].Color != "#10b981" || out[0].SafetyLabel != "Safe" {
		t.Fatalf("display fields = %q/%q", out[0].Color, out[0].SafetyLabel)
	}
	if out[0].Narrative == "" {
		t.Fatal("narrative empty")
	}
}

func TestRankEmptyInput(t *testing.T) {
	if out := newTestRanker().Rank(nil); out != nil {
		t.Fatalf("expected nil for empty input, got %+v", out)
	}
}
