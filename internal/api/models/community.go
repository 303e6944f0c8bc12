package models

import "time"

// ReportCreateRequest submits a rider report about a transit issue.
type ReportCreateRequest struct {
	UserName string `json:"userName"`
	Mode     string `json:"mode"`
	Location string `json:"location"`
	Issue    string `json:"issue"`
}

// RideCreateRequest offers seats on a carpool ride.
type RideCreateRequest struct {
	DriverName     string    `json:"driverName"`
	Source         string    `json:"source"`
	Destination    string    `json:"destination"`
	DepartureTime  time.Time `json:"departureTime"`
	SeatsAvailable int       `json:"seatsAvailable"`
	Cost           float64   `json:"cost"`
	Rating         float64   `json:"rating"`
}
