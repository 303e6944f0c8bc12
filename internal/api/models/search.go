package models

// ParseQueryRequest asks the aggregator to extract route parameters
// from a free-text query like "cheapest way to Bandra tomorrow".
type ParseQueryRequest struct {
	Query string `json:"query"`
}
