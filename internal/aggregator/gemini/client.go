// Package gemini provides a route aggregation backend on the Gemini API.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"github.com/omniroute/omniroute/internal/aggregator"
	"github.com/omniroute/omniroute/internal/transit"
)

const (
	// ProviderName identifies this aggregation provider.
	ProviderName = "gemini"

	// RouteModel handles route generation. The pro model is used for the
	// multi-constraint reasoning routes need.
	RouteModel = "gemini-3-pro-preview"

	// ParseModel handles natural language query extraction, where the
	// cheaper flash model is enough.
	ParseModel = "gemini-3-flash-preview"
)

// ContentGenerator is the slice of the Gemini client used by this package.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// ClientConfig holds configuration for the Gemini aggregation client.
type ClientConfig struct {
	// APIKey is the Gemini API key (required unless Generator is set).
	APIKey string

	// Generator overrides the Gemini backend, for tests.
	Generator ContentGenerator

	// Logger for client operations.
	Logger zerolog.Logger

	// Clock overrides time.Now, for tests.
	Clock func() time.Time
}

// Client generates travel options through the Gemini API.
type Client struct {
	generator ContentGenerator
	logger    zerolog.Logger
	clock     func() time.Time
}

var _ aggregator.Provider = (*Client)(nil)

// NewClient creates a new Gemini aggregation client.
func NewClient(ctx context.Context, cfg ClientConfig) (*Client, error) {
	generator := cfg.Generator
	if generator == nil {
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("gemini API key is required")
		}
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey: cfg.APIKey,
		})
		if err != nil {
			return nil, fmt.Errorf("creating gemini client: %w", err)
		}
		generator = client.Models
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Client{
		generator: generator,
		logger:    cfg.Logger,
		clock:     clock,
	}, nil
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// SmartRoutes generates multimodal travel options via the route model.
func (c *Client) SmartRoutes(ctx context.Context, req transit.RouteRequest, trafficSummary string) ([]transit.TravelOption, error) {
	prompt := c.routePrompt(req, trafficSummary)

	resp, err := c.generator.GenerateContent(ctx, RouteModel, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   travelOptionsSchema(),
	})
	if err != nil {
		return nil, &aggregator.Error{
			Provider: ProviderName,
			Code:     "GENERATE_FAILED",
			Message:  "route generation call failed",
			Err:      fmt.Errorf("%w: %v", aggregator.ErrUnavailable, err),
		}
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return nil, &aggregator.Error{
			Provider: ProviderName,
			Code:     "EMPTY_RESPONSE",
			Message:  "model returned no text",
			Err:      aggregator.ErrEmptyResponse,
		}
	}

	var options []transit.TravelOption
	if err := json.Unmarshal([]byte(text), &options); err != nil {
		return nil, &aggregator.Error{
			Provider: ProviderName,
			Code:     "MALFORMED_JSON",
			Message:  "model response is not valid JSON",
			Err:      fmt.Errorf("%w: %v", aggregator.ErrValidation, err),
		}
	}
	return options, nil
}

// ParseQuery extracts route request fields from free text via the flash model.
func (c *Client) ParseQuery(ctx context.Context, query string) (transit.PartialRouteRequest, error) {
	prompt := fmt.Sprintf(
		`Extract: source, destination, city, preference from this query: %q. Respond only with JSON.`, query)

	resp, err := c.generator.GenerateContent(ctx, ParseModel, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   partialRequestSchema(),
	})
	if err != nil {
		return transit.PartialRouteRequest{}, fmt.Errorf("parsing query: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return transit.PartialRouteRequest{}, nil
	}

	var partial transit.PartialRouteRequest
	if err := json.Unmarshal([]byte(text), &partial); err != nil {
		return transit.PartialRouteRequest{}, fmt.Errorf("decoding extracted query: %w", err)
	}
	return partial, nil
}

func (c *Client) routePrompt(req transit.RouteRequest, trafficSummary string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Act as a World-Class MaaS Aggregator for India.\n")
	fmt.Fprintf(&b, "Current Time: %s\n", c.clock().Format("3:04:05 PM"))
	fmt.Fprintf(&b, "CITY TRAFFIC FEED: %s\n\n", trafficSummary)
	fmt.Fprintf(&b, "Find 3 multimodal routes in %s from %s to %s.\n\n", req.City, req.Source, req.Destination)
	b.WriteString("TRAFFIC CONSTRAINTS:\n")
	b.WriteString("1. If any zone is \"Gridlock\", deprioritize CAB/AUTO/BUS. Prefer METRO/TRAIN.\n")
	b.WriteString("2. Adjust 'totalDuration' and 'delayMinutes' based on this live feed.\n")
	fmt.Fprintf(&b, "3. If preference is %s, ensure the score reflects this.\n", req.Preference)
	if req.GroupSize > 1 {
		fmt.Fprintf(&b, "4. The group has %d travellers; prefer options with capacity for all.\n", req.GroupSize)
	}
	if req.RequireAccessibility {
		b.WriteString("5. Only propose wheelchair accessible routes.\n")
	}
	b.WriteString("\nRespond strictly in JSON format.")
	return b.String()
}

func travelOptionsSchema() *genai.Schema {
	modeValues := make([]string, 0, len(transit.AllModes()))
	for _, m := range transit.AllModes() {
		modeValues = append(modeValues, string(m))
	}

	legSchema := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"mode":           {Type: genai.TypeString, Enum: modeValues},
			"provider":       {Type: genai.TypeString},
			"duration":       {Type: genai.TypeNumber},
			"distance":       {Type: genai.TypeNumber},
			"cost":           {Type: genai.TypeNumber},
			"instructions":   {Type: genai.TypeString},
			"delayMinutes":   {Type: genai.TypeNumber},
			"isSurgePricing": {Type: genai.TypeBoolean},
			"isRideShare":    {Type: genai.TypeBoolean},
			"crowdLevel":     {Type: genai.TypeString, Enum: []string{"Quiet", "Busy", "Crowded", "Standing Room Only"}},
		},
		Required: []string{"mode", "duration", "distance", "cost", "instructions"},
	}

	insightSchema := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"type":    {Type: genai.TypeString, Enum: []string{"price", "crowd", "weather", "time"}},
			"message": {Type: genai.TypeString},
			"trend":   {Type: genai.TypeString, Enum: []string{"up", "down", "stable"}},
			"value":   {Type: genai.TypeString},
		},
	}

	return &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"id":                   {Type: genai.TypeString},
				"title":                {Type: genai.TypeString},
				"totalDuration":        {Type: genai.TypeNumber},
				"totalCost":            {Type: genai.TypeNumber},
				"totalDistance":        {Type: genai.TypeNumber},
				"carbonFootprint":      {Type: genai.TypeNumber},
				"score":                {Type: genai.TypeNumber},
				"isWheelchairFriendly": {Type: genai.TypeBoolean},
				"trafficStatus":        {Type: genai.TypeString, Enum: []string{"Low", "Moderate", "Heavy", "Gridlock"}},
				"tags":                 {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
				"bestTimeToLeave":      {Type: genai.TypeString},
				"insights":             {Type: genai.TypeArray, Items: insightSchema},
				"legs":                 {Type: genai.TypeArray, Items: legSchema},
			},
			Required: []string{"id", "title", "totalDuration", "totalCost", "legs", "score", "isWheelchairFriendly", "trafficStatus"},
		},
	}
}

func partialRequestSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"source":      {Type: genai.TypeString},
			"destination": {Type: genai.TypeString},
			"city":        {Type: genai.TypeString},
			"preference":  {Type: genai.TypeString, Enum: []string{"CHEAPEST", "FASTEST", "ECO_FRIENDLY", "COMFORTABLE"}},
		},
	}
}
