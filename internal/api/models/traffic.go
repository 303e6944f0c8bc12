package models

import "github.com/omniroute/omniroute/internal/traffic"

// TrafficResponse carries the zone-level traffic picture for a city.
type TrafficResponse struct {
	City    string         `json:"city"`
	Zones   []traffic.Zone `json:"zones"`
	Summary string         `json:"summary"`
	Time    Timestamp      `json:"time"`
}
