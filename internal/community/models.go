// Package community holds rider-submitted reports and carpool rides.
package community

import (
	"errors"
	"time"

	"github.com/omniroute/omniroute/internal/transit"
)

// Predefined errors for community operations.
var (
	// ErrReportNotFound indicates the report doesn't exist.
	ErrReportNotFound = errors.New("report not found")
	// ErrRideNotFound indicates the carpool ride doesn't exist.
	ErrRideNotFound = errors.New("carpool ride not found")
	// ErrNoSeats indicates the ride is full.
	ErrNoSeats = errors.New("no seats available")
)

// Report is a rider-submitted service issue (delays, crowding, breakdowns).
type Report struct {
	ID        string                `json:"id"`
	UserName  string                `json:"userName"`
	Mode      transit.TransportMode `json:"mode"`
	Location  string                `json:"location"`
	Issue     string                `json:"issue"`
	Upvotes   int                   `json:"upvotes"`
	CreatedAt time.Time             `json:"createdAt"`
}

// CarpoolRide is a seat-sharing offer between two points.
type CarpoolRide struct {
	ID             string    `json:"id"`
	DriverName     string    `json:"driverName"`
	Source         string    `json:"source"`
	Destination    string    `json:"destination"`
	DepartureTime  time.Time `json:"departureTime"`
	SeatsAvailable int       `json:"seatsAvailable"`
	Cost           float64   `json:"cost"`
	Rating         float64   `json:"rating"`
	CreatedAt      time.Time `json:"createdAt"`
}
