package score

import (
	"strconv"
	"strings"

	"saferoute/internal/model"
)

// OpennessJudge decides whether a shop is likely open at a given local hour.
// The default implementation reads OpenStreetMap tags; a fixed-answer judge
// is handy in tests.
type OpennessJudge interface {
	IsOpen(shop model.POI, hour int) bool
}

// HeuristicOpenness interprets the opening_hours tag when present and falls
// back to per-category assumptions. Only full hours are considered; minute
// precision adds nothing at this granularity.
type HeuristicOpenness struct{}

func (HeuristicOpenness) IsOpen(shop model.POI, hour int) bool {
	h := ((hour % 24) + 24) % 24

	if oh := shop.Tags["opening_hours"]; oh != "" {
		if oh == "24/7" {
			return true
		}
		if open, to, ok := parseHoursRange(oh); ok {
			return hourInWindow(h, open, to)
		}
	}

	switch shop.Tags["shop"] {
	case "convenience", "kiosk":
		return h >= 6 && h < 23
	case "supermarket":
		return h >= 7 && h < 22
	case "alcohol", "tobacco":
		return h >= 10 || h < 2 // many stay open past midnight
	}
	// generic retail window
	return h >= 7 && h < 22
}

// parseHoursRange handles the simple "HH:MM-HH:MM" form, which covers the
// bulk of tagged shops. Anything with day rules or multiple spans falls back
// to the category heuristics.
func parseHoursRange(s string) (open, to int, ok bool) {
	parts := strings.Split(s, "-")
	if len(parts) != 2 {
		return 0, 0, false
	}
	open, ok1 := parseHour(strings.TrimSpace(parts[0]))
	to, ok2 := parseHour(strings.TrimSpace(parts[1]))
	if !ok1 || !ok2 {
		return 0, 0, false
	}
	return open, to, true
}

func parseHour(s string) (int, bool) {
	hm := strings.Split(s, ":")
	if len(hm) != 2 {
		return 0, false
	}
	h, err := strconv.Atoi(hm[0])
	if err != nil || h < 0 || h > 24 {
		return 0, false
	}
	return h % 24, true
}

// hourInWindow treats to <= open as an overnight window wrapping midnight.
func hourInWindow(h, open, to int) bool {
	if open == to {
		return true
	}
	if open < to {
		return h >= open && h < to
	}
	return h >= open || h < to
}
