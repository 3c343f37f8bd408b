package api

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sceneseek/sceneseek/internal/event"
	"github.com/sceneseek/sceneseek/internal/search"
)

// Search result paging constraints.
const (
	DefaultSearchLimit = 20
	MaxSearchLimit     = 50
)

// filterParams are the query parameter names forwarded to the filter
// normalizer. Both schema generations' aliases are listed; unknown
// parameters are ignored and malformed values degrade to absent.
var filterParams = []string{
	"q", "text",
	"date_from", "date_to",
	"region", "city",
	"category", "event_type",
	"price_min", "price_max",
}

// SearchHandlers holds dependencies for the search endpoint.
type SearchHandlers struct {
	pipeline *search.Service
	logger   *slog.Logger
}

// NewSearchHandlers creates a new SearchHandlers instance.
func NewSearchHandlers(pipeline *search.Service, logger *slog.Logger) *SearchHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &SearchHandlers{pipeline: pipeline, logger: logger}
}

// SearchResponse is the body of a successful search.
type SearchResponse struct {
	Results []event.Event `json:"results"`
	Total   int           `json:"total"`
}

// Search handles GET /search. Filter parameters follow the normalizer's
// contract: malformed dates and prices are treated as absent, never
// rejected. Only the limit parameter is validated here because it is a
// paging concern of the HTTP layer, not a filter.
func (h *SearchHandlers) Search(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, r, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	q := r.URL.Query()

	limit, errMsg := parseLimit(q.Get("limit"))
	if errMsg != "" {
		WriteError(w, r, http.StatusBadRequest, ErrCodeValidation, errMsg)
		return
	}

	f := search.FiltersFromMap(rawFromQuery(q))
	res, err := h.pipeline.Search(r.Context(), f.Text, f, limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "search failed", "error", err)
		WriteError(w, r, http.StatusInternalServerError, ErrCodeInternal, "Search failed")
		return
	}

	writeJSON(w, r, http.StatusOK, SearchResponse{Results: res.Events, Total: res.Total})
}

// rawFromQuery lowers query parameters into the raw filter map consumed
// by search.FiltersFromMap. Only parameters actually present in the URL
// end up in the map, so downstream code can distinguish "not mentioned"
// from "mentioned but empty".
func rawFromQuery(q url.Values) map[string]any {
	raw := make(map[string]any)
	for _, key := range filterParams {
		if q.Has(key) {
			raw[key] = q.Get(key)
		}
	}
	if styles := styleValues(q); len(styles) > 0 {
		raw["style"] = styles
	}
	return raw
}

// styleValues collects style filters from repeated ?style= parameters
// and the comma-separated ?styles= form.
func styleValues(q url.Values) []string {
	styles := append([]string(nil), q["style"]...)
	if joined := q.Get("styles"); strings.TrimSpace(joined) != "" {
		styles = append(styles, strings.Split(joined, ",")...)
	}
	return styles
}

// parseLimit validates the limit query parameter. An absent limit means
// DefaultSearchLimit; anything above MaxSearchLimit is clamped.
func parseLimit(s string) (int, string) {
	if strings.TrimSpace(s) == "" {
		return DefaultSearchLimit, ""
	}
	limit, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, "limit must be an integer"
	}
	if limit < 1 {
		return 0, "limit must be at least 1"
	}
	if limit > MaxSearchLimit {
		limit = MaxSearchLimit
	}
	return limit, ""
}
