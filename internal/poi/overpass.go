package poi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"saferoute/internal/config"
	"saferoute/internal/metrics"
	"saferoute/internal/model"
)

// Overpass client for map features near a polyline. Upstream failures are
// classified so callers can retry transient ones and degrade on the rest.

// ErrTransient marks rate-limit/gateway failures worth one more attempt.
var ErrTransient = errors.New("transient upstream failure")

// RawElement is one undecoded Overpass feature. Ways carry their centroid in
// Center instead of Lat/Lon.
type RawElement struct {
	ID     int64             `json:"id"`
	Type   string            `json:"type"`
	Lat    float64           `json:"lat,omitempty"`
	Lon    float64           `json:"lon,omitempty"`
	Center *struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"center,omitempty"`
	Tags map[string]string `json:"tags,omitempty"`
}

// Position returns the element's coordinate, preferring the node position and
// falling back to a way centroid. ok is false when neither is present.
func (e RawElement) Position() (model.Coordinate, bool) {
	if e.Type == "node" || e.Lat != 0 || e.Lon != 0 {
		return model.Coordinate{Lat: e.Lat, Lng: e.Lon}, true
	}
	if e.Center != nil {
		return model.Coordinate{Lat: e.Center.Lat, Lng: e.Center.Lon}, true
	}
	return model.Coordinate{}, false
}

type overpassBody struct {
	Elements []RawElement `json:"elements"`
}

// Client issues rate-limited Overpass queries with a single backoff retry on
// transient failures.
type Client struct {
	url       string
	userAgent string
	backoff   time.Duration
	http      *http.Client
	limiter   *rate.Limiter

	// sleep is swapped in tests to avoid real backoff waits.
	sleep func(context.Context, time.Duration) error
}

func NewClient(cfg config.UpstreamConfig, poiCfg config.POIConfig) *Client {
	rl := poiCfg.RateLimit
	if rl <= 0 {
		rl = 2
	}
	return &Client{
		url:       cfg.OverpassURL,
		userAgent: cfg.UserAgent,
		backoff:   poiCfg.RetryBackoff.Std(),
		http:      &http.Client{Timeout: cfg.Timeout.Std()},
		limiter:   rate.NewLimiter(rate.Limit(rl), 1),
		sleep:     sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// buildQuery assembles the Overpass QL statement for the safety categories
// around a sampled polyline.
func buildQuery(polyline string, radiusM int) string {
	var b strings.Builder
	b.WriteString("[out:json][timeout:25];\n(\n")
	around := fmt.Sprintf("(around:%d,%s);\n", radiusM, polyline)
	b.WriteString(`  node["highway"="street_lamp"]` + around)
	b.WriteString(`  node["highway"="traffic_signals"]` + around)
	b.WriteString(`  way["highway"="traffic_signals"]` + around)
	b.WriteString(`  node["shop"]` + around)
	b.WriteString(`  way["shop"]` + around)
	b.WriteString(");\nout center;\n")
	return b.String()
}

// Query runs one Overpass request, retrying once after the backoff interval
// when the failure is transient.
func (c *Client) Query(ctx context.Context, polyline string, radiusM int) ([]RawElement, error) {
	elements, err := c.queryOnce(ctx, polyline, radiusM)
	if err == nil {
		return elements, nil
	}
	if !errors.Is(err, ErrTransient) {
		return nil, err
	}
	if serr := c.sleep(ctx, c.backoff); serr != nil {
		return nil, serr
	}
	return c.queryOnce(ctx, polyline, radiusM)
}

func (c *Client) queryOnce(ctx context.Context, polyline string, radiusM int) ([]RawElement, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	q := buildQuery(polyline, radiusM)
	form := url.Values{"data": {q}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.OverpassQueries.WithLabelValues("error").Inc()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// network-level timeouts are retryable
		return nil, fmt.Errorf("%w: %v", ErrTransient, err)
	}
	defer resp.Body.Close()
	metrics.OverpassDuration.Observe(time.Since(start).Seconds())

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to decode
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusGatewayTimeout || resp.StatusCode == http.StatusBadGateway:
		metrics.OverpassQueries.WithLabelValues("transient").Inc()
		return nil, fmt.Errorf("%w: status %d", ErrTransient, resp.StatusCode)
	default:
		metrics.OverpassQueries.WithLabelValues("permanent").Inc()
		return nil, fmt.Errorf("overpass: status %d", resp.StatusCode)
	}

	var body overpassBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		metrics.OverpassQueries.WithLabelValues("permanent").Inc()
		return nil, fmt.Errorf("overpass: decode: %v", err)
	}
	metrics.OverpassQueries.WithLabelValues("ok").Inc()
	return body.Elements, nil
}
