package api

import (
	"log/slog"
	"net/http"

	"github.com/sceneseek/sceneseek/internal/event"
	"github.com/sceneseek/sceneseek/internal/recommend"
)

// RecommendHandlers holds dependencies for the recommendations endpoint.
type RecommendHandlers struct {
	service *recommend.Service
	logger  *slog.Logger
}

// NewRecommendHandlers creates a new RecommendHandlers instance.
func NewRecommendHandlers(service *recommend.Service, logger *slog.Logger) *RecommendHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecommendHandlers{service: service, logger: logger}
}

// RecommendResponse is the body of a successful recommendation.
// Relaxed reports that the region filter was dropped to fill the result;
// Fallback reports that even the relaxed search was empty and the
// results come from the affinity-ranked most-recent fallback.
type RecommendResponse struct {
	Results  []event.Event `json:"results"`
	Total    int           `json:"total"`
	Relaxed  bool          `json:"relaxed"`
	Fallback bool          `json:"fallback,omitempty"`
}

// Recommend handles GET /recommendations. It accepts the same filter
// parameters as /search plus the profile parameters home_city and
// interest (repeatable). The profile home city fills the region filter
// only when the caller did not mention one.
func (h *RecommendHandlers) Recommend(w http.ResponseWriter, r *http.Request) {
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

	profile := recommend.Profile{
		HomeCity:  q.Get("home_city"),
		Interests: q["interest"],
	}

	rec, err := h.service.Recommend(r.Context(), rawFromQuery(q), profile, limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "recommendation failed", "error", err)
		WriteError(w, r, http.StatusInternalServerError, ErrCodeInternal, "Recommendation failed")
		return
	}

	if len(rec.Events) == 0 {
		events, err := h.service.MostRecentFallback(r.Context(), profile, limit)
		if err != nil {
			h.logger.ErrorContext(r.Context(), "recommendation fallback failed", "error", err)
			WriteError(w, r, http.StatusInternalServerError, ErrCodeInternal, "Recommendation failed")
			return
		}
		writeJSON(w, r, http.StatusOK, RecommendResponse{
			Results:  events,
			Total:    len(events),
			Fallback: true,
		})
		return
	}

	writeJSON(w, r, http.StatusOK, RecommendResponse{
		Results: rec.Events,
		Total:   rec.Total,
		Relaxed: rec.Relaxed,
	})
}
