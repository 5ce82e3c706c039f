package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"saferoute/internal/config"
	"saferoute/internal/model"
)

// Client talks to the upstream routing and geocoding services. Failures here
// are fatal to a plan request: without candidate routes there is nothing to
// score.

var (
	// ErrNoRoutes means the routing service produced no candidates.
	ErrNoRoutes = errors.New("no candidate routes")
	// ErrAddressNotFound means geocoding failed to resolve a place.
	ErrAddressNotFound = errors.New("address not found")
)

const maxCandidates = 5

type Client struct {
	osrmURL      string
	nominatimURL string
	userAgent    string
	http         *http.Client
}

func NewClient(cfg config.UpstreamConfig) *Client {
	return &Client{
		osrmURL:      cfg.OSRMURL,
		nominatimURL: cfg.NominatimURL,
		userAgent:    cfg.UserAgent,
		http:         &http.Client{Timeout: cfg.Timeout.Std()},
	}
}

// Geocode resolves a free-text address through Nominatim.
func (c *Client) Geocode(ctx context.Context, address string) (model.ResolvedPlace, error) {
	q := url.Values{}
	q.Set("q", address)
	q.Set("format", "json")
	q.Set("limit", "1")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.nominatimURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return model.ResolvedPlace{}, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	resp, err := c.http.Do(req)
	if err != nil {
		return model.ResolvedPlace{}, fmt.Errorf("geocode %q: %w", address, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return model.ResolvedPlace{}, fmt.Errorf("geocode %q: status %d", address, resp.StatusCode)
	}
	var hits []struct {
		Lat     string `json:"lat"`
		Lon     string `json:"lon"`
		Display string `json:"display_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&hits); err != nil {
		return model.ResolvedPlace{}, err
	}
	if len(hits) == 0 {
		return model.ResolvedPlace{}, fmt.Errorf("%w: %s", ErrAddressNotFound, address)
	}
	var lat, lng float64
	if _, err := fmt.Sscanf(hits[0].Lat, "%f", &lat); err != nil {
		return model.ResolvedPlace{}, fmt.Errorf("geocode %q: bad lat", address)
	}
	if _, err := fmt.Sscanf(hits[0].Lon, "%f", &lng); err != nil {
		return model.ResolvedPlace{}, fmt.Errorf("geocode %q: bad lon", address)
	}
	return model.ResolvedPlace{
		Coordinate: model.Coordinate{Lat: lat, Lng: lng},
		Address:    address,
		Display:    hits[0].Display,
	}, nil
}

type osrmResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64         `json:"distance"`
		Duration float64         `json:"duration"`
		Geometry json.RawMessage `json:"geometry"`
	} `json:"routes"`
}

// decodeGeometry accepts both geometry encodings OSRM can produce: a geojson
// object with [lng, lat] pairs, or a polyline6 string.
func decodeGeometry(raw json.RawMessage) model.Polyline {
	var geo struct {
		Coordinates [][]float64 `json:"coordinates"`
	}
	if err := json.Unmarshal(raw, &geo); err == nil && len(geo.Coordinates) > 0 {
		path := make(model.Polyline, 0, len(geo.Coordinates))
		for _, c := range geo.Coordinates {
			if len(c) < 2 {
				continue
			}
			path = append(path, model.Coordinate{Lat: c[1], Lng: c[0]})
		}
		return path
	}
	var encoded string
	if err := json.Unmarshal(raw, &encoded); err == nil && encoded != "" {
		return DecodePolyline6(encoded)
	}
	return nil
}

// Candidates fetches up to maxCandidates alternative walking routes between
// origin and destination.
func (c *Client) Candidates(ctx context.Context, origin, dest model.Coordinate) ([]model.Candidate, error) {
	coords := fmt.Sprintf("%f,%f;%f,%f", origin.Lng, origin.Lat, dest.Lng, dest.Lat)
	q := url.Values{}
	q.Set("overview", "full")
	q.Set("geometries", "geojson")
	q.Set("alternatives", "true")
	q.Set("steps", "false")
	u := fmt.Sprintf("%s/route/v1/foot/%s?%s", c.osrmURL, coords, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("routing: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("routing: status %d", resp.StatusCode)
	}
	var body osrmResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("routing: decode: %w", err)
	}
	if body.Code != "Ok" || len(body.Routes) == 0 {
		return nil, ErrNoRoutes
	}

	n := len(body.Routes)
	if n > maxCandidates {
		n = maxCandidates
	}
	out := make([]model.Candidate, 0, n)
	for i := 0; i < n; i++ {
		r := body.Routes[i]
		path := decodeGeometry(r.Geometry)
		out = append(out, model.Candidate{
			RouteID:   fmt.Sprintf("route-%c", 'a'+i),
			DistanceM: r.Distance,
			DurationS: r.Duration,
			Path:      path,
		})
	}
	return out, nil
}

// Resolve turns a Place into coordinates, geocoding when needed.
func (c *Client) Resolve(ctx context.Context, p model.Place) (model.ResolvedPlace, error) {
	if p.Coord != nil {
		return model.ResolvedPlace{Coordinate: *p.Coord, Address: p.Address}, nil
	}
	if p.Address == "" {
		return model.ResolvedPlace{}, fmt.Errorf("%w: empty place", ErrAddressNotFound)
	}
	return c.Geocode(ctx, p.Address)
}
