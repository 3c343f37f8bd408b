package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sceneseek/sceneseek/internal/health"
)

type stubChecker struct{ err error }

func (c stubChecker) HealthCheck(ctx context.Context) error { return c.err }

func decodeHealthResponse(t *testing.T, rec *httptest.ResponseRecorder) HealthResponse {
	t.Helper()
	var resp HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode body %q: %v", rec.Body.String(), err)
	}
	return resp
}

func TestHealth(t *testing.T) {
	h := NewHealthHandlers(nil)

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	resp := decodeHealthResponse(t, rec)
	if resp.Status != "healthy" || resp.Checks["runtime"] != "ok" {
		t.Errorf("got %+v", resp)
	}
	if resp.Timestamp == "" {
		t.Error("timestamp missing")
	}
}

func TestReady_AllHealthy(t *testing.T) {
	h := NewHealthHandlers(map[string]health.Checker{
		"database": stubChecker{},
		"redis":    stubChecker{},
	})

	rec := httptest.NewRecorder()
	h.Ready(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	resp := decodeHealthResponse(t, rec)
	if resp.Status != "healthy" {
		t.Errorf("status = %q", resp.Status)
	}
	if resp.Checks["database"] != "ok" || resp.Checks["redis"] != "ok" {
		t.Errorf("checks = %v", resp.Checks)
	}
}

func TestReady_DependencyDown(t *testing.T) {
	h := NewHealthHandlers(map[string]health.Checker{
		"database": stubChecker{err: errors.New("connection refused")},
		"redis":    stubChecker{},
	})

	rec := httptest.NewRecorder()
	h.Ready(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	resp := decodeHealthResponse(t, rec)
	if resp.Status != "unhealthy" {
		t.Errorf("status = %q", resp.Status)
	}
	if resp.Checks["database"] != "error" {
		t.Errorf("database check = %q, want error", resp.Checks["database"])
	}
	if resp.Checks["redis"] != "ok" {
		t.Errorf("redis check = %q, want ok", resp.Checks["redis"])
	}
}

func TestReady_NoCheckersConfigured(t *testing.T) {
	h := NewHealthHandlers(nil)

	rec := httptest.NewRecorder()
	h.Ready(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 with nothing to check", rec.Code)
	}
}

func TestHealth_MethodNotAllowed(t *testing.T) {
	h := NewHealthHandlers(nil)

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodPost, "/health", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}
