package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/sceneseek/sceneseek/internal/health"
)

// readinessTimeout bounds the time spent probing dependencies.
const readinessTimeout = 5 * time.Second

// HealthHandlers provides health and readiness check endpoints for
// Kubernetes probes. checkers maps a dependency name ("database",
// "redis") to its prober; a missing dependency is simply not checked.
type HealthHandlers struct {
	checkers map[string]health.Checker
}

// NewHealthHandlers creates a new health check handler.
func NewHealthHandlers(checkers map[string]health.Checker) *HealthHandlers {
	return &HealthHandlers{checkers: checkers}
}

// HealthResponse represents the JSON response for health checks.
type HealthResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks"`
	Timestamp string            `json:"timestamp"`
}

// Health handles GET /health (liveness probe).
// If we can respond at all, the process is alive.
func (h *HealthHandlers) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, r, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	writeJSON(w, r, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Checks:    map[string]string{"runtime": "ok"},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready handles GET /ready (readiness probe).
// Probes every configured dependency and returns 503 if any fails.
func (h *HealthHandlers) Ready(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, r, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	failures := health.CheckAll(ctx, h.checkers)

	checks := make(map[string]string, len(h.checkers))
	for name := range h.checkers {
		if err, failed := failures[name]; failed {
			checks[name] = "error"
			slog.WarnContext(ctx, "readiness check failed", "check", name, "error", err)
		} else {
			checks[name] = "ok"
		}
	}

	status := "healthy"
	statusCode := http.StatusOK
	if len(failures) > 0 {
		status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	}

	writeJSON(w, r, statusCode, HealthResponse{
		Status:    status,
		Checks:    checks,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
