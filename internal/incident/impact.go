package incident

import (
	"context"

	"saferoute/internal/config"
	"saferoute/internal/geo"
	"saferoute/internal/model"
)

// Assessor converts active incident reports into a per-route score penalty.
type Assessor struct {
	store Store
	cfg   config.IncidentConfig
}

func NewAssessor(store Store, cfg config.IncidentConfig) *Assessor {
	return &Assessor{store: store, cfg: cfg}
}

// Impact returns the penalty for a route: a fixed amount per active incident
// within the impact radius of the route midpoint, capped at 100. An empty
// route has no midpoint and no penalty.
func (a *Assessor) Impact(ctx context.Context, route model.Polyline) (int, error) {
	if len(route) == 0 {
		return 0, nil
	}
	active, err := a.store.ListActive(ctx)
	if err != nil {
		return 0, err
	}
	mid := route[len(route)/2]

	n := 0
	for _, inc := range active {
		if geo.GreatCircleDistance(mid, inc.Location) <= a.cfg.ImpactRadiusM {
			n++
		}
	}
	impact := n * a.cfg.ImpactPerIncident
	if impact > 100 {
		impact = 100
	}
	return impact, nil
}
