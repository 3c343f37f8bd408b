package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sceneseek/sceneseek/internal/audit"
	"github.com/sceneseek/sceneseek/internal/catalog"
	"github.com/sceneseek/sceneseek/internal/event"
	"github.com/sceneseek/sceneseek/internal/ingest"
	"github.com/sceneseek/sceneseek/internal/validate"
)

// MaxUpsertBatch caps the number of events accepted in one upsert call.
const MaxUpsertBatch = 500

// EventHandlers holds dependencies for the event catalog endpoints.
type EventHandlers struct {
	repo   catalog.Repository
	logger *slog.Logger
	audit  *audit.Logger
	now    func() time.Time
}

// NewEventHandlers creates a new EventHandlers instance.
func NewEventHandlers(repo catalog.Repository, logger *slog.Logger) *EventHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventHandlers{repo: repo, logger: logger, now: time.Now}
}

// WithNow overrides the clock. Intended for tests.
func (h *EventHandlers) WithNow(now func() time.Time) *EventHandlers {
	h.now = now
	return h
}

// WithAudit enables audit logging of admin mutations.
func (h *EventHandlers) WithAudit(a *audit.Logger) *EventHandlers {
	h.audit = a
	return h
}

// UpsertEventsRequest carries a batch of raw event records in either
// schema generation. Records are normalized and deduplicated before they
// reach the store.
type UpsertEventsRequest struct {
	Events []map[string]any `json:"events"`
}

// UpsertEventsResponse reports how many events survived normalization
// and deduplication and were written.
type UpsertEventsResponse struct {
	Upserted int `json:"upserted"`
}

// UpsertEvents handles POST /events. Admin only; the router wraps this
// handler in the JWT middleware.
func (h *EventHandlers) UpsertEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteError(w, r, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	var req UpsertEventsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON in request body")
		return
	}

	if len(req.Events) == 0 {
		WriteError(w, r, http.StatusBadRequest, ErrCodeValidation, "events must not be empty")
		return
	}
	if len(req.Events) > MaxUpsertBatch {
		WriteError(w, r, http.StatusBadRequest, ErrCodeValidation, "too many events in one batch")
		return
	}

	events := ingest.Dedupe(event.NormalizeBatch(req.Events, h.now()))
	for i := range events {
		name, err := validate.EventName(events[i].Name)
		if err != nil {
			WriteError(w, r, http.StatusBadRequest, ErrCodeValidation, "every event needs a name within 255 characters")
			return
		}
		events[i].Name = name
	}

	if err := h.repo.Upsert(r.Context(), events); err != nil {
		h.logger.ErrorContext(r.Context(), "event upsert failed", "error", err, "count", len(events))
		WriteError(w, r, http.StatusInternalServerError, ErrCodeInternal, "Failed to store events")
		return
	}

	h.logger.InfoContext(r.Context(), "events upserted", "count", len(events))
	if h.audit != nil {
		if err := h.audit.Record(r.Context(), r, audit.ActionUpsertEvents, len(events)); err != nil {
			h.logger.WarnContext(r.Context(), "audit record failed", "error", err)
		}
	}
	writeJSON(w, r, http.StatusOK, UpsertEventsResponse{Upserted: len(events)})
}

// GetEvent handles GET /events/{id}.
func (h *EventHandlers) GetEvent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, r, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/events/")
	if id == "" || strings.Contains(id, "/") {
		WriteError(w, r, http.StatusNotFound, ErrCodeNotFound, "Event not found")
		return
	}

	ev, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			WriteError(w, r, http.StatusNotFound, ErrCodeNotFound, "Event not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "event lookup failed", "error", err, "event_id", id)
		WriteError(w, r, http.StatusInternalServerError, ErrCodeInternal, "Failed to load event")
		return
	}

	writeJSON(w, r, http.StatusOK, ev)
}
