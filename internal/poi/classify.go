package poi

import (
	"fmt"
	"sort"

	"saferoute/internal/config"
	"saferoute/internal/geo"
	"saferoute/internal/model"
)

// Classifier turns raw Overpass elements into typed POIs with per-category
// distance thresholds enforced against a specific route.
type Classifier struct {
	lampThresholdM   float64
	signalThresholdM float64
	shopThresholdM   float64
}

func NewClassifier(cfg config.POIConfig) *Classifier {
	return &Classifier{
		lampThresholdM:   cfg.LampThresholdM,
		signalThresholdM: cfg.SignalThresholdM,
		shopThresholdM:   cfg.ShopThresholdM,
	}
}

func categoryOf(tags map[string]string) (model.POICategory, bool) {
	switch {
	case tags["highway"] == "street_lamp":
		return model.CategoryStreetLamp, true
	case tags["highway"] == "traffic_signals":
		return model.CategoryTrafficSignal, true
	case tags["shop"] != "":
		return model.CategoryShop, true
	}
	return "", false
}

func (c *Classifier) threshold(cat model.POICategory) float64 {
	switch cat {
	case model.CategoryStreetLamp:
		return c.lampThresholdM
	case model.CategoryTrafficSignal:
		return c.signalThresholdM
	default:
		return c.shopThresholdM
	}
}

// Classify deduplicates elements on a ~1.1 m coordinate grid (first
// occurrence wins), assigns categories by tag, drops anything farther from
// the route than its category threshold, and sorts each category ascending
// by distance.
func (c *Classifier) Classify(elements []RawElement, route model.Polyline) (model.POISet, error) {
	if err := geo.Validate(route); err != nil {
		return model.POISet{}, err
	}

	var set model.POISet
	seen := map[string]struct{}{}

	for _, el := range elements {
		pos, ok := el.Position()
		if !ok {
			continue
		}
		key := fmt.Sprintf("%.5f,%.5f", pos.Lat, pos.Lng)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		cat, ok := categoryOf(el.Tags)
		if !ok {
			continue
		}
		dist, err := geo.DistanceToPolyline(pos, route)
		if err != nil {
			return model.POISet{}, err
		}
		if dist > c.threshold(cat) {
			continue
		}

		p := model.POI{ID: el.ID, Category: cat, Coord: pos, Tags: el.Tags, DistanceM: dist}
		switch cat {
		case model.CategoryStreetLamp:
			set.StreetLamps = append(set.StreetLamps, p)
		case model.CategoryTrafficSignal:
			set.TrafficSignals = append(set.TrafficSignals, p)
		case model.CategoryShop:
			set.Shops = append(set.Shops, p)
		}
	}

	byDistance := func(list []model.POI) {
		sort.Slice(list, func(i, j int) bool { return list[i].DistanceM < list[j].DistanceM })
	}
	byDistance(set.StreetLamps)
	byDistance(set.TrafficSignals)
	byDistance(set.Shops)

	return set, nil
}
