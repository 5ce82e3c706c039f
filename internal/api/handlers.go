package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"saferoute/internal/geo"
	"saferoute/internal/metrics"
	"saferoute/internal/model"
	"saferoute/internal/rank"
	"saferoute/internal/routing"
	"saferoute/internal/score"
)

// PlanRoutesHandler handles POST /v1/routes/plan.
func (s *Server) PlanRoutesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req model.PlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
		return
	}
	if err := validatePlanRequest(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid plan request", err.Error(), r.URL.Path)
		return
	}

	start := time.Now()
	ctx := r.Context()

	origin, err := s.Router.Resolve(ctx, req.Origin)
	if err != nil {
		s.writeRoutingProblem(w, r, "origin", err)
		return
	}
	dest, err := s.Router.Resolve(ctx, req.Destination)
	if err != nil {
		s.writeRoutingProblem(w, r, "destination", err)
		return
	}

	cands, err := s.Router.Candidates(ctx, origin.Coordinate, dest.Coordinate)
	if err != nil {
		if errors.Is(err, routing.ErrNoRoutes) {
			metrics.PlansTotal.WithLabelValues("no_routes").Inc()
			writeProblem(w, http.StatusNotFound, "No routes found", "no walkable route between the given points", r.URL.Path)
			return
		}
		metrics.PlansTotal.WithLabelValues("upstream_error").Inc()
		writeProblem(w, http.StatusBadGateway, "Routing upstream failed", err.Error(), r.URL.Path)
		return
	}

	hour := s.hour(req.Hour)
	scored := s.scoreCandidates(ctx, cands, hour)
	if len(scored) == 0 {
		metrics.PlansTotal.WithLabelValues("no_routes").Inc()
		writeProblem(w, http.StatusNotFound, "No routes found", "no candidate route had usable geometry", r.URL.Path)
		return
	}

	routes := s.Ranker.Rank(scored)
	s.refineFastest(ctx, routes, hour)

	metrics.PlansTotal.WithLabelValues("ok").Inc()
	writeJSON(w, http.StatusOK, model.PlanResponse{
		PlanID:      uuid.NewString(),
		Origin:      origin,
		Destination: dest,
		Routes:      routes,
		ProcessedMs: time.Since(start).Milliseconds(),
	})
}

// scoreCandidates fans out POI fetches and scoring across candidates. A
// candidate with broken geometry is dropped; everything else survives even
// when POI data degrades to empty.
func (s *Server) scoreCandidates(ctx context.Context, cands []model.Candidate, hour int) []rank.Scored {
	out := make([]rank.Scored, len(cands))
	ok := make([]bool, len(cands))

	var wg sync.WaitGroup
	for i, c := range cands {
		wg.Add(1)
		go func(i int, c model.Candidate) {
			defer wg.Done()
			if err := geo.Validate(c.Path); err != nil {
				log.Printf("plan: dropping %s: %v", c.RouteID, err)
				return
			}
			set, err := s.Fetcher.Fetch(ctx, c.Path)
			if err != nil {
				log.Printf("plan: dropping %s: %v", c.RouteID, err)
				return
			}
			impact, err := s.Assessor.Impact(ctx, c.Path)
			if err != nil {
				log.Printf("plan: incident lookup for %s: %v", c.RouteID, err)
				impact = 0
			}
			m := s.Scorer.Score(c.RouteID, geo.RouteLengthKm(c.Path), set, hour, impact)
			out[i] = rank.Scored{Candidate: c, Metrics: m}
			ok[i] = true
		}(i, c)
	}
	wg.Wait()

	kept := out[:0]
	for i := range out {
		if ok[i] {
			kept = append(kept, out[i])
		}
	}
	return kept
}

// refineFastest replaces the fastest route's metrics with a tighter-radius
// re-query. The coarse figures are kept if the precise fetch fails.
func (s *Server) refineFastest(ctx context.Context, routes []model.RankedRoute, hour int) {
	for i := range routes {
		if routes[i].Label != model.LabelFastest {
			continue
		}
		set, err := s.Fetcher.FetchPrecise(ctx, routes[i].Path)
		if err != nil {
			return
		}
		impact := routes[i].Metrics.IncidentImpact
		m := s.Scorer.Score(routes[i].RouteID, geo.RouteLengthKm(routes[i].Path), set, hour, impact)
		routes[i].Metrics = m
		routes[i].RankScore = s.Ranker.Blend(m.SafetyScore, 100)
		routes[i].RiskFactors = score.RiskFactors(m)
		routes[i].Narrative = score.Narrative(m)
		routes[i].Color = score.SafetyColor(m.SafetyScore)
		routes[i].SafetyLabel = score.SafetyLabel(m.SafetyScore)
		return
	}
}

func (s *Server) writeRoutingProblem(w http.ResponseWriter, r *http.Request, which string, err error) {
	if errors.Is(err, routing.ErrAddressNotFound) {
		metrics.PlansTotal.WithLabelValues("not_found").Inc()
		writeProblem(w, http.StatusNotFound, "Address not found", which+" could not be geocoded", r.URL.Path)
		return
	}
	metrics.PlansTotal.WithLabelValues("upstream_error").Inc()
	writeProblem(w, http.StatusBadGateway, "Geocoding upstream failed", err.Error(), r.URL.Path)
}

// IncidentsHandler handles POST/GET /v1/incidents.
func (s *Server) IncidentsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var in model.IncidentInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
			return
		}
		if err := validateIncidentInput(&in); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid incident", err.Error(), r.URL.Path)
			return
		}
		inc, err := s.Incidents.Create(r.Context(), in)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "Create incident failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusCreated, inc)
	case http.MethodGet:
		items, err := s.Incidents.ListActive(r.Context())
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "List incidents failed", err.Error(), r.URL.Path)
			return
		}
		if items == nil {
			items = []model.Incident{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// IncidentByIDHandler handles GET /v1/incidents/{id}.
func (s *Server) IncidentByIDHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/v1/incidents/")
	if id == "" || strings.Contains(id, "/") {
		writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path)
		return
	}
	inc, err := s.Incidents.Get(r.Context(), id)
	if err != nil {
		writeProblem(w, http.StatusNotFound, "Incident not found", "", r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, inc)
}

func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	type pinger interface{ Ping(ctx context.Context) error }
	ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
	defer cancel()
	if pg, ok := s.Incidents.(pinger); ok {
		if err := pg.Ping(ctx); err != nil {
			writeProblem(w, http.StatusServiceUnavailable, "Not Ready", err.Error(), r.URL.Path)
			return
		}
	}
	if rc, ok := s.cache.(pinger); ok {
		if err := rc.Ping(ctx); err != nil {
			writeProblem(w, http.StatusServiceUnavailable, "Not Ready", err.Error(), r.URL.Path)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
