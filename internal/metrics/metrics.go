package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for the service
	Registry = prometheus.NewRegistry()

	// HTTPRequests counts requests by method, path, and status
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	// HTTPDuration records request durations in seconds
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)

	// OverpassQueries counts geodata queries by outcome (ok, transient, permanent, error)
	OverpassQueries = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "overpass_queries_total", Help: "Overpass queries by outcome."},
		[]string{"outcome"},
	)
	// OverpassDuration tracks geodata query latency in seconds
	OverpassDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "overpass_query_duration_seconds", Help: "Overpass query duration in seconds.", Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 25}},
	)

	// CacheLookups counts POI cache lookups by result (hit, miss)
	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "poi_cache_lookups_total", Help: "POI cache lookups by result."},
		[]string{"result"},
	)
	// CacheErrors counts failed cache writes (Redis backend)
	CacheErrors = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "poi_cache_errors_total", Help: "POI cache backend errors."},
	)

	// PlansTotal counts route plan computations by outcome
	PlansTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "route_plans_total", Help: "Route plan computations by outcome."},
		[]string{"outcome"},
	)
)

// RegisterDefault registers collectors to the service registry.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(OverpassQueries)
		Registry.MustRegister(OverpassDuration)
		Registry.MustRegister(CacheLookups)
		Registry.MustRegister(CacheErrors)
		Registry.MustRegister(PlansTotal)
		// Go/process collectors on our registry
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

var regOnce sync.Once
