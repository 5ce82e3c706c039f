package api

import (
	"log"
	"time"

	"saferoute/internal/config"
	"saferoute/internal/incident"
	"saferoute/internal/poi"
	"saferoute/internal/rank"
	"saferoute/internal/routing"
	"saferoute/internal/score"
)

type Server struct {
	Cfg       config.Config
	Router    *routing.Client
	Fetcher   *poi.Fetcher
	Scorer    *score.Scorer
	Ranker    *rank.Ranker
	Incidents incident.Store
	Assessor  *incident.Assessor

	cache poi.Cache
	now   func() time.Time
}

// NewServer wires the engine from configuration. With no DATABASE_URL the
// incident store is in-memory; with no REDIS_URL the POI cache is in-memory.
func NewServer(cfg config.Config) (*Server, error) {
	var cache poi.Cache
	if cfg.RedisURL != "" {
		rc, err := poi.NewRedisCache(cfg.RedisURL, cfg.POI.CacheTTL.Std())
		if err != nil {
			log.Printf("redis cache unavailable, using memory cache: %v", err)
			cache = poi.NewMemoryCache(cfg.POI.CacheTTL.Std())
		} else {
			cache = rc
		}
	} else {
		cache = poi.NewMemoryCache(cfg.POI.CacheTTL.Std())
	}

	var incidents incident.Store
	if cfg.DatabaseURL != "" {
		pg, err := incident.NewPostgres(cfg.DatabaseURL, cfg.Incident.TTL.Std())
		if err != nil {
			return nil, err
		}
		incidents = pg
	} else {
		incidents = incident.NewMemory(cfg.Incident.TTL.Std())
	}

	client := poi.NewClient(cfg.Upstream, cfg.POI)
	fetcher := poi.NewFetcher(client, cache, poi.NewClassifier(cfg.POI), cfg.POI)

	return &Server{
		Cfg:       cfg,
		Router:    routing.NewClient(cfg.Upstream),
		Fetcher:   fetcher,
		Scorer:    score.NewScorer(cfg.Scoring, nil),
		Ranker:    rank.NewRanker(cfg.Ranking),
		Incidents: incidents,
		Assessor:  incident.NewAssessor(incidents, cfg.Incident),
		cache:     cache,
		now:       time.Now,
	}, nil
}

// hour resolves the scoring hour: an explicit request override wins, else
// the server's local clock.
func (s *Server) hour(override *int) int {
	if override != nil {
		return *override
	}
	return s.now().Hour()
}
