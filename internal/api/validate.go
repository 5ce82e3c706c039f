package api

import (
	"fmt"

	"saferoute/internal/model"
)

func validatePlace(which string, p model.Place) error {
	if p.Address == "" && p.Coord == nil {
		return fmt.Errorf("%s requires an address or coordinates", which)
	}
	if p.Coord != nil {
		if p.Coord.Lat < -90 || p.Coord.Lat > 90 || p.Coord.Lng < -180 || p.Coord.Lng > 180 {
			return fmt.Errorf("%s coordinates out of range", which)
		}
	}
	return nil
}

func validatePlanRequest(req *model.PlanRequest) error {
	if err := validatePlace("origin", req.Origin); err != nil {
		return err
	}
	if err := validatePlace("destination", req.Destination); err != nil {
		return err
	}
	if req.Hour != nil && (*req.Hour < 0 || *req.Hour > 23) {
		return fmt.Errorf("hour must be in [0,23]")
	}
	return nil
}

func validateIncidentInput(in *model.IncidentInput) error {
	if in.Type == "" {
		return fmt.Errorf("type is required")
	}
	if in.Severity < 1 || in.Severity > 10 {
		return fmt.Errorf("severity must be in [1,10]")
	}
	if in.Location.Lat < -90 || in.Location.Lat > 90 || in.Location.Lng < -180 || in.Location.Lng > 180 {
		return fmt.Errorf("location out of range")
	}
	return nil
}
