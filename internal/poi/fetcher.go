package poi

import (
	"context"
	"errors"
	"log"

	"saferoute/internal/config"
	"saferoute/internal/geo"
	"saferoute/internal/metrics"
	"saferoute/internal/model"
)

// Fetcher is the POI acquisition pipeline: fingerprint, cache lookup, rate-
// limited Overpass query with radius expansion, classification. Upstream
// failures degrade to an empty POI set; only invalid geometry is an error.
type Fetcher struct {
	client     *Client
	cache      Cache
	classifier *Classifier
	cfg        config.POIConfig
}

func NewFetcher(client *Client, cache Cache, classifier *Classifier, cfg config.POIConfig) *Fetcher {
	return &Fetcher{client: client, cache: cache, classifier: classifier, cfg: cfg}
}

// Fetch returns classified POIs near route using the configured base radius.
func (f *Fetcher) Fetch(ctx context.Context, route model.Polyline) (model.POISet, error) {
	return f.fetch(ctx, route, f.cfg.BaseRadiusM, "")
}

// FetchPrecise re-queries at the tighter precision radius; used for the
// fastest route, which is shown prominently and deserves exact figures.
func (f *Fetcher) FetchPrecise(ctx context.Context, route model.Polyline) (model.POISet, error) {
	return f.fetch(ctx, route, f.cfg.PreciseRadiusM, ":precise")
}

func (f *Fetcher) fetch(ctx context.Context, route model.Polyline, radiusM int, keySuffix string) (model.POISet, error) {
	if err := geo.Validate(route); err != nil {
		return model.POISet{}, err
	}

	key := Fingerprint(route, f.cfg.FingerprintSamples) + keySuffix
	if elements, ok := f.cache.Get(ctx, key); ok {
		metrics.CacheLookups.WithLabelValues("hit").Inc()
		return f.classifier.Classify(elements, route)
	}
	metrics.CacheLookups.WithLabelValues("miss").Inc()

	polyline := QueryPolyline(route, f.cfg.FingerprintSamples)

	var elements []RawElement
	radius := radiusM
	for attempt := 1; ; attempt++ {
		var err error
		elements, err = f.client.Query(ctx, polyline, radius)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				// superseded or timed out: degrade, never fail the route
				return model.POISet{}, nil
			}
			log.Printf("poi: overpass query failed, degrading to empty set: %v", err)
			return model.POISet{}, nil
		}
		if len(elements) > 0 || attempt >= f.cfg.MaxAttempts {
			break
		}
		radius += f.cfg.RadiusIncrementM
	}

	f.cache.Set(ctx, key, elements)
	return f.classifier.Classify(elements, route)
}
