package models

import "github.com/omniroute/omniroute/internal/transit"

// CheckoutRequest submits a selected travel option for booking.
type CheckoutRequest struct {
	Option transit.TravelOption `json:"option"`
}

// SMSFallbackResponse carries a prefilled sms: URI for booking a route
// over SMS when the device has no data connectivity.
type SMSFallbackResponse struct {
	URI string `json:"uri"`
}

// SyncResponse reports how many queued offline bookings were confirmed.
type SyncResponse struct {
	Confirmed int `json:"confirmed"`
}
