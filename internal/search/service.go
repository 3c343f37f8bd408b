package search

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sceneseek/sceneseek/internal/event"
)

// Store is the Event Store surface the pipeline consumes. Implementations
// may apply the matching semantics themselves or return a coarse superset;
// the pipeline re-verifies every candidate either way. Search candidates
// are expected in ascending start order (the documented tie-break order).
type Store interface {
	Search(ctx context.Context, f Filters) ([]event.Event, error)
}

// Service runs the full search pipeline: normalize, fetch, match, score,
// assemble. It is stateless apart from its dependencies and safe for
// concurrent use.
type Service struct {
	store   Store
	weights Weights
	logger  *slog.Logger

	// now is read once per request at the pipeline boundary; everything
	// below receives the reference day through Filters.
	now func() time.Time
}

// NewService creates a search service with the given store and weights.
func NewService(store Store, weights Weights, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:   store,
		weights: weights,
		logger:  logger,
		now:     time.Now,
	}
}

// WithNow overrides the clock. Intended for tests.
func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	return s
}

// Search finds and ranks events matching the free-text fragment and raw
// filters. limit <= 0 returns all matches. Store failures propagate
// unmodified; an empty result is a valid outcome, not an error.
func (s *Service) Search(ctx context.Context, text string, raw Filters, limit int) (Result, error) {
	raw.Text = text
	f := NormalizeFilters(raw, "", s.now())
	return s.Run(ctx, f, limit)
}

// Run executes the pipeline for an already-normalized filter set. Used by
// the recommendation layer, which performs its own normalization so it
// can apply profile defaults and relaxation.
func (s *Service) Run(ctx context.Context, f Filters, limit int) (Result, error) {
	candidates, err := s.store.Search(ctx, f)
	if err != nil {
		return Result{}, fmt.Errorf("event store search: %w", err)
	}

	matched := make([]event.Event, 0, len(candidates))
	scores := make([]float64, 0, len(candidates))
	for i := range candidates {
		if !Matches(&candidates[i], f) {
			continue
		}
		matched = append(matched, candidates[i])
		scores = append(scores, Score(&candidates[i], f, s.weights))
	}

	result := Assemble(matched, scores, limit)
	s.logger.InfoContext(ctx, "search completed",
		"text", f.Text,
		"candidates", len(candidates),
		"total", result.Total,
		"returned", len(result.Events))
	return result, nil
}
