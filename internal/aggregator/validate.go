package aggregator

import (
	"fmt"

	"github.com/omniroute/omniroute/internal/transit"
)

// ValidateRequest checks a route request before it reaches the provider.
func ValidateRequest(req transit.RouteRequest) error {
	if req.Source == "" || req.Destination == "" || req.City == "" {
		return &Error{
			Code:    "INVALID_REQUEST",
			Message: "source, destination and city are required",
			Err:     ErrValidation,
		}
	}
	if !transit.ValidPreference(req.Preference) {
		return &Error{
			Code:    "INVALID_REQUEST",
			Message: fmt.Sprintf("unknown preference %q", req.Preference),
			Err:     ErrValidation,
		}
	}
	return nil
}

// ValidateOptions checks provider output against the travel option schema and
// normalizes leg modes. Validation is all-or-nothing: a single bad option or
// leg rejects the whole response, so callers never see partial results.
func ValidateOptions(provider string, opts []transit.TravelOption) ([]transit.TravelOption, error) {
	if len(opts) == 0 {
		return nil, &Error{
			Provider: provider,
			Code:     "EMPTY_RESPONSE",
			Message:  "provider returned no travel options",
			Err:      ErrEmptyResponse,
		}
	}

	validated := make([]transit.TravelOption, len(opts))
	for i, opt := range opts {
		if err := validateOption(&opt); err != nil {
			return nil, &Error{
				Provider: provider,
				Code:     "INVALID_RESPONSE",
				Message:  fmt.Sprintf("option %d: %s", i, err),
				Err:      ErrValidation,
			}
		}
		validated[i] = opt
	}
	return validated, nil
}

func validateOption(opt *transit.TravelOption) error {
	if opt.ID == "" {
		return fmt.Errorf("missing id")
	}
	if opt.Title == "" {
		return fmt.Errorf("missing title")
	}
	if opt.TotalDurationMin <= 0 {
		return fmt.Errorf("totalDuration must be positive, got %v", opt.TotalDurationMin)
	}
	if opt.TotalCost < 0 {
		return fmt.Errorf("totalCost must be non-negative, got %v", opt.TotalCost)
	}
	if opt.TotalDistanceKm < 0 {
		return fmt.Errorf("totalDistance must be non-negative, got %v", opt.TotalDistanceKm)
	}
	if opt.CarbonFootprintKg < 0 {
		return fmt.Errorf("carbonFootprint must be non-negative, got %v", opt.CarbonFootprintKg)
	}
	if opt.Score < 0 || opt.Score > 100 {
		return fmt.Errorf("score %v outside [0, 100]", opt.Score)
	}
	if !transit.ValidTrafficStatus(opt.TrafficStatus) {
		return fmt.Errorf("unknown trafficStatus %q", opt.TrafficStatus)
	}
	if len(opt.Legs) == 0 {
		return fmt.Errorf("missing legs")
	}

	for j := range opt.Legs {
		if err := validateLeg(&opt.Legs[j]); err != nil {
			return fmt.Errorf("leg %d: %w", j, err)
		}
	}
	return nil
}

func validateLeg(leg *transit.RouteLeg) error {
	mode, ok := transit.NormalizeMode(string(leg.Mode))
	if !ok {
		return fmt.Errorf("unknown mode %q", leg.Mode)
	}
	leg.Mode = mode

	if leg.DurationMin <= 0 {
		return fmt.Errorf("duration must be positive, got %v", leg.DurationMin)
	}
	if leg.DistanceKm < 0 {
		return fmt.Errorf("distance must be non-negative, got %v", leg.DistanceKm)
	}
	if leg.Cost < 0 {
		return fmt.Errorf("cost must be non-negative, got %v", leg.Cost)
	}
	if leg.Instructions == "" {
		return fmt.Errorf("missing instructions")
	}
	if leg.CrowdLevel != "" && !transit.ValidCrowdLevel(leg.CrowdLevel) {
		return fmt.Errorf("unknown crowdLevel %q", leg.CrowdLevel)
	}
	return nil
}
