// Package transit defines the core domain model for multimodal route search.
package transit

import (
	"strings"
	"time"
)

// TransportMode identifies a single-mode segment type within a multimodal trip.
type TransportMode string

const (
	ModeWalk       TransportMode = "WALK"
	ModeMetro      TransportMode = "METRO"
	ModeBus        TransportMode = "BUS"
	ModeAuto       TransportMode = "AUTO"
	ModeCab        TransportMode = "CAB"
	ModeBike       TransportMode = "BIKE"
	ModeLocalTrain TransportMode = "LOCAL_TRAIN"
	ModeCarpool    TransportMode = "CARPOOL"
)

// AllModes lists every valid transport mode, in display order.
func AllModes() []TransportMode {
	return []TransportMode{
		ModeWalk, ModeMetro, ModeBus, ModeAuto,
		ModeCab, ModeBike, ModeLocalTrain, ModeCarpool,
	}
}

// modeSynonyms maps common aggregator/provider spellings onto canonical modes.
// Applied case-insensitively before enum validation.
var modeSynonyms = map[string]TransportMode{
	"CAR":     ModeCab,
	"TAXI":    ModeCab,
	"TRANSIT": ModeMetro,
	"TRAIN":   ModeLocalTrain,
}

// NormalizeMode maps a raw mode string (any case, including synonyms such as
// "car", "taxi", "transit" and "train") onto a canonical TransportMode.
// Returns false when the value does not resolve to a known mode.
func NormalizeMode(raw string) (TransportMode, bool) {
	upper := strings.ToUpper(strings.TrimSpace(raw))
	if m, ok := modeSynonyms[upper]; ok {
		return m, true
	}
	for _, m := range AllModes() {
		if upper == string(m) {
			return m, true
		}
	}
	return "", false
}

// Preference expresses how route options should be weighted for a traveller.
type Preference string

const (
	PreferCheapest    Preference = "CHEAPEST"
	PreferFastest     Preference = "FASTEST"
	PreferEco         Preference = "ECO_FRIENDLY"
	PreferComfortable Preference = "COMFORTABLE"
)

// ValidPreference reports whether p is a known preference value.
func ValidPreference(p Preference) bool {
	switch p {
	case PreferCheapest, PreferFastest, PreferEco, PreferComfortable:
		return true
	}
	return false
}

// TrafficStatus describes congestion on a route or zone.
type TrafficStatus string

const (
	TrafficLow      TrafficStatus = "Low"
	TrafficModerate TrafficStatus = "Moderate"
	TrafficHeavy    TrafficStatus = "Heavy"
	TrafficGridlock TrafficStatus = "Gridlock"
)

// ValidTrafficStatus reports whether s is a known traffic status.
func ValidTrafficStatus(s TrafficStatus) bool {
	switch s {
	case TrafficLow, TrafficModerate, TrafficHeavy, TrafficGridlock:
		return true
	}
	return false
}

// CrowdLevel describes occupancy on a leg.
type CrowdLevel string

const (
	CrowdQuiet    CrowdLevel = "Quiet"
	CrowdBusy     CrowdLevel = "Busy"
	CrowdCrowded  CrowdLevel = "Crowded"
	CrowdStanding CrowdLevel = "Standing Room Only"
)

// ValidCrowdLevel reports whether c is a known crowd level.
func ValidCrowdLevel(c CrowdLevel) bool {
	switch c {
	case CrowdQuiet, CrowdBusy, CrowdCrowded, CrowdStanding:
		return true
	}
	return false
}

// Coordinate is a geographic point.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// RouteRequest is a search request for multimodal routes.
// Immutable once submitted to search.
type RouteRequest struct {
	Source               string     `json:"source"`
	Destination          string     `json:"destination"`
	City                 string     `json:"city"`
	Preference           Preference `json:"preference"`
	GroupSize            int        `json:"groupSize"`
	RequireAccessibility bool       `json:"requireAccessibility"`
	DepartureTime        string     `json:"departureTime,omitempty"`
	IsScheduled          bool       `json:"isScheduled,omitempty"`
	NaturalQuery         string     `json:"naturalQuery,omitempty"`
}

// PartialRouteRequest is a best-effort extraction from free text.
// Empty fields mean the model could not determine them.
type PartialRouteRequest struct {
	Source      string     `json:"source,omitempty"`
	Destination string     `json:"destination,omitempty"`
	City        string     `json:"city,omitempty"`
	Preference  Preference `json:"preference,omitempty"`
}

// RouteLeg is one single-mode segment of a multimodal trip.
// Owned exclusively by its parent TravelOption.
type RouteLeg struct {
	Mode           TransportMode `json:"mode"`
	Provider       string        `json:"provider,omitempty"`
	DurationMin    float64       `json:"duration"`
	DistanceKm     float64       `json:"distance"`
	Cost           float64       `json:"cost"`
	Instructions   string        `json:"instructions"`
	DelayMinutes   float64       `json:"delayMinutes,omitempty"`
	IsSurgePricing bool          `json:"isSurgePricing,omitempty"`
	IsRideShare    bool          `json:"isRideShare,omitempty"`
	Path           []Coordinate  `json:"path,omitempty"`
	CrowdLevel     CrowdLevel    `json:"crowdLevel,omitempty"`
}

// RouteInsight is an advisory annotation on a TravelOption.
type RouteInsight struct {
	Type    string `json:"type"` // price, crowd, weather, time
	Message string `json:"message"`
	Trend   string `json:"trend"` // up, down, stable
	Value   string `json:"value,omitempty"`
}

// TravelOption is one complete end-to-end route proposal composed of ordered
// legs. Read-only downstream of the aggregator except for live-status patches
// to leg delay/crowd fields and TrafficStatus.
type TravelOption struct {
	ID                   string         `json:"id"`
	Title                string         `json:"title"`
	TotalDurationMin     float64        `json:"totalDuration"`
	TotalCost            float64        `json:"totalCost"`
	TotalDistanceKm      float64        `json:"totalDistance"`
	CarbonFootprintKg    float64        `json:"carbonFootprint"`
	Score                float64        `json:"score"`
	IsWheelchairFriendly bool           `json:"isWheelchairFriendly"`
	TrafficStatus        TrafficStatus  `json:"trafficStatus"`
	Tags                 []string       `json:"tags"`
	Legs                 []RouteLeg     `json:"legs"`
	Insights             []RouteInsight `json:"insights,omitempty"`
	BestTimeToLeave      string         `json:"bestTimeToLeave,omitempty"`
}

// Booking is a confirmed (or pending, when made offline) ticket purchase.
type Booking struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	Date        time.Time  `json:"date"`
	RouteTitle  string     `json:"routeTitle"`
	TotalCost   float64    `json:"totalCost"`
	Status      string     `json:"status"` // upcoming, pending, completed, cancelled
	TicketToken string     `json:"ticketToken,omitempty"`
	Legs        []RouteLeg `json:"legs"`
	CarbonSaved float64    `json:"carbonSaved,omitempty"`
}

// Booking statuses.
const (
	BookingUpcoming  = "upcoming"
	BookingPending   = "pending"
	BookingCompleted = "completed"
	BookingCancelled = "cancelled"
)
