package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/omniroute/omniroute/internal/aggregator"
	"github.com/omniroute/omniroute/internal/api/middleware"
	"github.com/omniroute/omniroute/internal/api/models"
	"github.com/omniroute/omniroute/internal/api/response"
	"github.com/omniroute/omniroute/internal/profile"
	"github.com/omniroute/omniroute/internal/provider/resilience"
	"github.com/omniroute/omniroute/internal/search"
	"github.com/omniroute/omniroute/internal/transit"
)

// SearchHandler handles route search endpoints.
type SearchHandler struct {
	search   *search.Service
	profiles *profile.Service
	logger   zerolog.Logger
}

// NewSearchHandler creates a new SearchHandler.
func NewSearchHandler(searchSvc *search.Service, profiles *profile.Service, logger zerolog.Logger) *SearchHandler {
	return &SearchHandler{search: searchSvc, profiles: profiles, logger: logger}
}

// SearchRoutes handles POST /v1/routes/search - multimodal route search.
func (h *SearchHandler) SearchRoutes(w http.ResponseWriter, r *http.Request) {
	var req transit.RouteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	result, err := h.search.Search(r.Context(), req)
	if err != nil {
		h.writeSearchError(w, r, err)
		return
	}

	// Recent searches are best-effort; a profile write failure must not
	// fail the search itself.
	if h.profiles != nil {
		query := fmt.Sprintf("%s to %s", req.Source, req.Destination)
		userID := middleware.GetUserID(r.Context())
		if _, err := h.profiles.RecordSearch(r.Context(), userID, query); err != nil {
			h.logger.Warn().Err(err).Msg("failed to record recent search")
		}
	}

	// Expose the result classification so logs and metrics can track how
	// often searches degrade to cached or offline answers.
	w.Header().Set("X-Result-Source", string(result.Source))
	response.JSON(w, r, http.StatusOK, result)
}

// ParseQuery handles POST /v1/routes/parse - natural language query parsing.
func (h *SearchHandler) ParseQuery(w http.ResponseWriter, r *http.Request) {
	var req models.ParseQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}
	if req.Query == "" {
		response.BadRequest(w, r, "query is required", nil)
		return
	}

	partial := h.search.ParseQuery(r.Context(), req.Query)
	response.JSON(w, r, http.StatusOK, partial)
}

func (h *SearchHandler) writeSearchError(w http.ResponseWriter, r *http.Request, err error) {
	var aggErr *aggregator.Error
	if errors.As(err, &aggErr) && aggErr.Code == "INVALID_REQUEST" {
		response.BadRequest(w, r, aggErr.Message, nil)
		return
	}

	switch {
	case errors.Is(err, aggregator.ErrValidation):
		response.BadRequest(w, r, "route provider returned an unusable response", nil)
	case errors.Is(err, aggregator.ErrTimeout),
		errors.Is(err, aggregator.ErrUnavailable),
		errors.Is(err, aggregator.ErrEmptyResponse),
		errors.Is(err, resilience.ErrCircuitOpen):
		response.ServiceUnavailable(w, r, "route search is temporarily unavailable")
	default:
		h.logger.Error().Err(err).Msg("route search failed")
		response.InternalError(w, r, "route search failed")
	}
}
