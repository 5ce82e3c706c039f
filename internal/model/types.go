package model

// Core domain types shared across the engine.

// Coordinate is a WGS-84 point in degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Polyline is an ordered path of coordinates; order is the direction of travel.
type Polyline []Coordinate

// POICategory identifies a safety-relevant feature class.
type POICategory string

const (
	CategoryStreetLamp    POICategory = "streetlamp"
	CategoryTrafficSignal POICategory = "trafficsignal"
	CategoryShop          POICategory = "shop"
)

// POI is a mapped feature near a route. DistanceM is computed against the
// route it was classified for and is not persisted.
type POI struct {
	ID        int64             `json:"id"`
	Category  POICategory       `json:"category"`
	Coord     Coordinate        `json:"coord"`
	Tags      map[string]string `json:"tags,omitempty"`
	DistanceM float64           `json:"distanceM"`
}

// POISet holds classified POIs for one route, each list ascending by distance.
type POISet struct {
	StreetLamps    []POI `json:"streetLamps"`
	TrafficSignals []POI `json:"trafficSignals"`
	Shops          []POI `json:"shops"`
}

// Counts returns the per-category sizes in category order.
func (s POISet) Counts() (lamps, signals, shops int) {
	return len(s.StreetLamps), len(s.TrafficSignals), len(s.Shops)
}

// RouteMetrics is a projection of current POIs plus route geometry; it is
// recomputed per request and never stored.
type RouteMetrics struct {
	RouteID            string  `json:"routeId"`
	LengthKm           float64 `json:"lengthKm"`
	LightingScore      int     `json:"lightingScore"`
	CrowdScore         int     `json:"crowdScore"`
	ShopScore          int     `json:"shopScore"`
	StreetLightCount   int     `json:"streetLightCount"`
	TrafficSignalCount int     `json:"trafficSignalCount"`
	ShopCount          int     `json:"shopCount"`
	IncidentImpact     int     `json:"incidentImpact"`
	SafetyScore        int     `json:"safetyScore"`
}

// Candidate is one polyline returned by the upstream routing service.
type Candidate struct {
	RouteID   string   `json:"routeId"`
	DistanceM float64  `json:"distanceM"`
	DurationS float64  `json:"durationS"`
	Path      Polyline `json:"path"`
}

// RouteLabel marks a candidate's presentation slot.
type RouteLabel string

const (
	LabelFastest     RouteLabel = "fastest"
	LabelSafest      RouteLabel = "safest"
	LabelAlternative RouteLabel = "alternative"
)

// RankedRoute is a labeled candidate with its metrics and display strings.
type RankedRoute struct {
	Candidate
	Label       RouteLabel   `json:"label"`
	Metrics     RouteMetrics `json:"metrics"`
	RankScore   int          `json:"rankScore"`
	RiskFactors []string     `json:"riskFactors,omitempty"`
	Narrative   string       `json:"narrative,omitempty"`
	Color       string       `json:"color"`
	SafetyLabel string       `json:"safetyLabel"`
}

// Place is a plan endpoint: either coordinates or a free-text address.
type Place struct {
	Address string      `json:"address,omitempty"`
	Coord   *Coordinate `json:"coord,omitempty"`
}

// PlanRequest is the body of POST /v1/routes/plan.
type PlanRequest struct {
	Origin      Place `json:"origin"`
	Destination Place `json:"destination"`
	// Hour overrides the time-of-day factor; nil means "now".
	Hour *int `json:"hour,omitempty"`
}

// PlanResponse is the ranked route list returned to the caller.
type PlanResponse struct {
	PlanID      string        `json:"planId"`
	Origin      ResolvedPlace `json:"origin"`
	Destination ResolvedPlace `json:"destination"`
	Routes      []RankedRoute `json:"routes"`
	ProcessedMs int64         `json:"processedMs"`
}

// ResolvedPlace echoes a plan endpoint after geocoding.
type ResolvedPlace struct {
	Coordinate
	Address string `json:"address,omitempty"`
	Display string `json:"display,omitempty"`
}

// IncidentInput is the body of POST /v1/incidents.
type IncidentInput struct {
	Type        string     `json:"type"`
	Severity    int        `json:"severity"`
	Location    Coordinate `json:"location"`
	Description string     `json:"description,omitempty"`
}

// Incident is a stored report; it stops affecting scores after ExpiresAt.
type Incident struct {
	ID          string     `json:"id"`
	Type        string     `json:"type"`
	Severity    int        `json:"severity"`
	Location    Coordinate `json:"location"`
	Description string     `json:"description,omitempty"`
	ReportedAt  string     `json:"reportedAt"`
	ExpiresAt   string     `json:"expiresAt"`
}
