package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sceneseek/sceneseek/internal/middleware"
)

func decodeErrorResponse(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error body %q: %v", rec.Body.String(), err)
	}
	return resp
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/search", nil)

	WriteError(rec, req, http.StatusNotFound, ErrCodeNotFound, "Event not found")

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}

	resp := decodeErrorResponse(t, rec)
	if resp.Error.Code != ErrCodeNotFound {
		t.Errorf("code = %q, want %q", resp.Error.Code, ErrCodeNotFound)
	}
	if resp.Error.Message != "Event not found" {
		t.Errorf("message = %q", resp.Error.Message)
	}
}

func TestWriteError_SetsErrorCodeOnRequest(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/search", nil)

	WriteError(rec, req, http.StatusBadRequest, ErrCodeValidation, "bad input")

	// The logging middleware reads the code from the request it already
	// holds, so WriteError must mutate the request in place.
	if code := middleware.GetErrorCode(req.Context()); code != ErrCodeValidation {
		t.Errorf("error code on request = %q, want %q", code, ErrCodeValidation)
	}
}

func TestWriteError_IncludesRequestID(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/search", nil)

	var resp ErrorResponse
	handler := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, http.StatusInternalServerError, ErrCodeInternal, "boom")
	}))
	handler.ServeHTTP(rec, req)

	resp = decodeErrorResponse(t, rec)
	if resp.Error.RequestID == "" {
		t.Error("request_id missing from error body")
	}
	if resp.Error.RequestID != rec.Header().Get(middleware.RequestIDHeader) {
		t.Error("request_id in body does not match response header")
	}
}

func TestStatusCodeMapping(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeBadRequest, http.StatusBadRequest},
		{ErrCodeAuthFailed, http.StatusUnauthorized},
		{ErrCodeForbidden, http.StatusForbidden},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		{ErrCodeUnavailable, http.StatusServiceUnavailable},
		{ErrCodeInternal, http.StatusInternalServerError},
		{"something_else", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := StatusCodeMapping(tt.code); got != tt.want {
			t.Errorf("StatusCodeMapping(%q) = %d, want %d", tt.code, got, tt.want)
		}
	}
}
