package api

import (
	"encoding/json"
	"net/http"
	"time"

	"saferoute/internal/buildinfo"
)

func (s *Server) DebugJSON(w http.ResponseWriter, r *http.Request) {
	info := map[string]any{
		"build": buildinfo.Info(),
		"time":  time.Now().UTC().Format(time.RFC3339),
		"config": map[string]any{
			"PORT":             s.Cfg.Port,
			"OSRM_URL":         s.Cfg.Upstream.OSRMURL,
			"OVERPASS_URL":     s.Cfg.Upstream.OverpassURL,
			"POI_CACHE_TTL":    s.Cfg.POI.CacheTTL.Std().String(),
			"HAS_DATABASE_URL": s.Cfg.DatabaseURL != "",
			"HAS_REDIS_URL":    s.Cfg.RedisURL != "",
		},
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(info)
}
