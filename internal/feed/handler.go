package feed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sceneseek/sceneseek/internal/event"
	"github.com/sceneseek/sceneseek/internal/ingest"
)

// Handler turns feed envelopes into catalog upserts: decode, validate,
// normalize, dedupe, upsert. Undecodable envelopes are counted and
// skipped; the connection stays up (returning an error would drop it).
type Handler struct {
	repo    ingest.Upserter
	metrics *Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// NewHandler creates a feed message handler. metrics may be nil.
func NewHandler(repo ingest.Upserter, metrics *Metrics, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		repo:    repo,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// WithNow overrides the clock. Intended for tests.
func (h *Handler) WithNow(now func() time.Time) *Handler {
	h.now = now
	return h
}

// Handle implements MessageHandler.
func (h *Handler) Handle(messageType int, payload []byte) error {
	if messageType != websocket.BinaryMessage {
		// Text pings and control chatter are not envelopes.
		return nil
	}
	return h.process(context.Background(), payload)
}

func (h *Handler) process(ctx context.Context, payload []byte) error {
	start := h.now()

	env, err := DecodeEnvelope(payload)
	if err != nil {
		h.countError()
		h.logger.Warn("skipping undecodable feed envelope",
			slog.String("error", err.Error()))
		return nil
	}

	if env.Kind != KindEvents {
		h.logger.Debug("skipping feed envelope",
			slog.String("kind", env.Kind),
			slog.String("source", env.Source))
		return nil
	}

	raws, err := env.ParseEvents()
	if err != nil {
		h.countError()
		h.logger.Warn("skipping malformed feed envelope",
			slog.String("source", env.Source),
			slog.String("error", err.Error()))
		return nil
	}

	valid := make([]map[string]any, 0, len(raws))
	discarded := 0
	for _, raw := range raws {
		if err := validateRaw(raw); err != nil {
			discarded++
			h.logger.Debug("discarding invalid feed event",
				slog.String("source", env.Source),
				slog.String("reason", err.Error()))
			continue
		}
		valid = append(valid, raw)
	}

	events := ingest.Dedupe(event.NormalizeBatch(valid, h.now()))
	if len(events) > 0 {
		if err := h.repo.Upsert(ctx, events); err != nil {
			h.countError()
			// Storage failures are worth a disconnect: the client will
			// reconnect with backoff, and the partner replays from its
			// cursor.
			return fmt.Errorf("failed to upsert feed events: %w", err)
		}
	}

	if h.metrics != nil {
		h.metrics.IncEnvelopesProcessed()
		h.metrics.AddEventsUpserted(len(events))
		h.metrics.AddEventsDiscarded(discarded)
		h.metrics.ObserveIngestLatency(h.now().Sub(start).Seconds())
	}

	h.logger.Info("feed envelope processed",
		slog.String("source", env.Source),
		slog.Int("received", len(raws)),
		slog.Int("discarded", discarded),
		slog.Int("upserted", len(events)))
	return nil
}

func (h *Handler) countError() {
	if h.metrics != nil {
		h.metrics.IncEnvelopesError()
	}
}

// validateRaw applies the minimal admission rules for feed records: a
// display name under one of the known aliases. Everything else degrades
// to absent during normalization.
func validateRaw(raw map[string]any) error {
	for _, key := range []string{"name", "event_name"} {
		if v, ok := raw[key]; ok {
			if s, ok := v.(string); ok && s != "" {
				return nil
			}
		}
	}
	return fmt.Errorf("event has no name")
}
