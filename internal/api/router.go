package api

import (
	"log/slog"
	"net/http"

	"github.com/sceneseek/sceneseek/internal/auth"
	"github.com/sceneseek/sceneseek/internal/middleware"
)

// RouterConfig wires handlers and cross-cutting middleware into one
// http.Handler. Optional fields may be nil: a nil RateLimitStore
// disables rate limiting, a nil Metrics disables HTTP metrics, a nil
// MetricsHandler drops the /metrics route.
type RouterConfig struct {
	Search    *SearchHandlers
	Recommend *RecommendHandlers
	Events    *EventHandlers
	Chat      *ChatHandlers
	Health    *HealthHandlers

	JWT    *auth.JWTService
	Logger *slog.Logger

	Metrics        *middleware.Metrics
	MetricsHandler http.Handler
	RateLimitStore middleware.RateLimitStore
}

// NewRouter builds the API routing table and applies the middleware
// chain: RequestID, Tracing, Logging, HTTPMetrics, then the global rate
// limiter. Search and chat routes carry their own tighter limits on top.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	searchLimit := routeLimiter(cfg.RateLimitStore, middleware.DefaultSearchLimit(), "search", middleware.IPKeyFunc())
	chatLimit := routeLimiter(cfg.RateLimitStore, middleware.DefaultChatLimit(), "chat", middleware.UserKeyFunc())

	mux := http.NewServeMux()
	mux.Handle("/search", searchLimit(http.HandlerFunc(cfg.Search.Search)))
	mux.Handle("/recommendations", searchLimit(http.HandlerFunc(cfg.Recommend.Recommend)))
	mux.Handle("/chat", chatLimit(http.HandlerFunc(cfg.Chat.Chat)))
	mux.Handle("/events", auth.RequireAuth(cfg.JWT)(auth.RequireAdmin(http.HandlerFunc(cfg.Events.UpsertEvents))))
	mux.HandleFunc("/events/", cfg.Events.GetEvent)
	mux.HandleFunc("/health", cfg.Health.Health)
	mux.HandleFunc("/ready", cfg.Health.Ready)
	if cfg.MetricsHandler != nil {
		mux.Handle("/metrics", cfg.MetricsHandler)
	}

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			WriteError(w, r, http.StatusNotFound, ErrCodeNotFound, "The requested resource was not found")
			return
		}
		writeJSON(w, r, http.StatusOK, map[string]string{"service": "sceneseek-api"})
	})

	handler := http.Handler(mux)
	if cfg.RateLimitStore != nil {
		handler = middleware.RateLimiter(cfg.RateLimitStore, middleware.DefaultGlobalLimit(), prefixedKeys("global", middleware.IPKeyFunc()))(handler)
	}
	if cfg.Metrics != nil {
		handler = middleware.HTTPMetrics(cfg.Metrics)(handler)
	}
	handler = middleware.Logging(logger)(handler)
	handler = middleware.Tracing("sceneseek-api")(handler)
	handler = middleware.RequestID(handler)
	return handler
}

// routeLimiter returns a rate-limiting middleware for one route, or a
// pass-through when rate limiting is disabled.
func routeLimiter(store middleware.RateLimitStore, config middleware.RateLimitConfig, prefix string, keyFunc middleware.KeyFunc) func(http.Handler) http.Handler {
	if store == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return middleware.RateLimiter(store, config, prefixedKeys(prefix, keyFunc))
}

// prefixedKeys namespaces rate-limit keys per route so the global and
// per-route windows for the same client count independently.
func prefixedKeys(prefix string, keyFunc middleware.KeyFunc) middleware.KeyFunc {
	return func(r *http.Request) string {
		return prefix + "|" + keyFunc(r)
	}
}
