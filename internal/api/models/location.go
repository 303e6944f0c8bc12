package models

// ReverseGeocodeRequest resolves coordinates to a display address.
type ReverseGeocodeRequest struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// ReverseGeocodeResponse carries the resolved address.
type ReverseGeocodeResponse struct {
	Address string `json:"address"`
}
