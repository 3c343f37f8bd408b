// Package audit records administrative actions against the event
// catalog in the structured log, keyed by the authenticated subject.
package audit

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sceneseek/sceneseek/internal/middleware"
)

// Actions recorded by the API layer.
const (
	ActionUpsertEvents = "upsert_events"
)

// ValidActions defines the allowed actions for audit logging.
var ValidActions = map[string]bool{
	ActionUpsertEvents: true,
}

var (
	// ErrInvalidAction is returned for an action outside ValidActions.
	ErrInvalidAction = errors.New("invalid audit action")
	// ErrMissingActor is returned when no authenticated subject is on
	// the context.
	ErrMissingActor = errors.New("audit entry has no actor")
)

// Logger writes audit entries through slog so they land in the same
// sink as the request logs and can be filtered by the "audit" marker.
type Logger struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewLogger creates an audit logger. logger may be nil to use the
// process default.
func NewLogger(logger *slog.Logger) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{logger: logger, now: time.Now}
}

// WithNow overrides the clock. Intended for tests.
func (l *Logger) WithNow(now func() time.Time) *Logger {
	l.now = now
	return l
}

// Record writes one audit entry for an administrative action. The actor
// is the authenticated subject on the request context; count is the
// number of affected records.
func (l *Logger) Record(ctx context.Context, r *http.Request, action string, count int) error {
	if !ValidActions[action] {
		return ErrInvalidAction
	}
	actor := middleware.GetSubject(ctx)
	if actor == "" {
		return ErrMissingActor
	}

	l.logger.InfoContext(ctx, "audit",
		"actor", actor,
		"action", action,
		"count", count,
		"ip", clientIP(r),
		"request_id", middleware.GetRequestID(ctx),
		"at", l.now().UTC().Format(time.RFC3339))
	return nil
}

// clientIP extracts the client address from a request, checking
// X-Forwarded-For, X-Real-IP, and RemoteAddr in that order.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first := xff
		if idx := strings.Index(xff, ","); idx != -1 {
			first = xff[:idx]
		}
		return strings.TrimSpace(first)
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return strings.TrimSpace(realIP)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
