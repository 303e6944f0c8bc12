package transit

import (
	"fmt"
	"math"
)

// emissionFactors holds average kg CO2 per km for Indian urban transport.
var emissionFactors = map[TransportMode]float64{
	ModeWalk:       0,
	ModeBike:       0.005, // maintenance/production factor
	ModeMetro:      0.015,
	ModeLocalTrain: 0.018,
	ModeBus:        0.035,
	ModeAuto:       0.075,
	ModeCab:        0.180,
	ModeCarpool:    0.045,
}

// CarbonFootprint returns the estimated kg CO2 for travelling distanceKm by
// mode, rounded to two decimals. Unknown modes use a conservative default.
func CarbonFootprint(mode TransportMode, distanceKm float64) float64 {
	factor, ok := emissionFactors[mode]
	if !ok {
		factor = 0.1
	}
	return math.Round(distanceKm*factor*100) / 100
}

// RouteScore weights a route option against the traveller's preference and
// returns a value clamped to [0, 100]. Time is penalized most steeply for
// FASTEST, cost for CHEAPEST, and carbon for ECO_FRIENDLY.
func RouteScore(timeMin, costInr, carbonKg float64, preference Preference) float64 {
	score := 100.0

	switch preference {
	case PreferFastest:
		score -= timeMin * 0.5
	case PreferCheapest:
		score -= costInr * 0.1
	case PreferEco:
		score -= carbonKg * 10
	}

	score = math.Round(score)
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// FormatDuration renders minutes as a compact human-readable duration.
func FormatDuration(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	h := minutes / 60
	m := minutes % 60
	if m > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dh", h)
}
