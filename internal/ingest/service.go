package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sceneseek/sceneseek/internal/event"
)

// Source is a connector for one external event source.
type Source interface {
	// Name identifies the source in logs and telemetry.
	Name() string

	// FetchRaw returns raw event records ready for normalization.
	FetchRaw(ctx context.Context) ([]map[string]any, error)
}

// Upserter is the catalog surface the ingestion service writes to.
type Upserter interface {
	Upsert(ctx context.Context, events []event.Event) error
}

// Service coordinates ingestion: fetch raw records, normalize, dedupe,
// upsert. Each source is one batch; a failing source aborts the run so
// partial ingestion is visible to the operator.
type Service struct {
	sources []Source
	repo    Upserter
	logger  *slog.Logger
	now     func() time.Time
}

// NewService creates an ingestion service over the given sources.
func NewService(sources []Source, repo Upserter, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		sources: sources,
		repo:    repo,
		logger:  logger,
		now:     time.Now,
	}
}

// WithNow overrides the clock. Intended for tests.
func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	return s
}

// IngestAll runs every source and returns the total number of events
// upserted.
func (s *Service) IngestAll(ctx context.Context) (int, error) {
	total := 0
	for _, source := range s.sources {
		n, err := s.IngestFrom(ctx, source)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// IngestFrom runs a single source through the full pipeline.
func (s *Service) IngestFrom(ctx context.Context, source Source) (int, error) {
	raw, err := source.FetchRaw(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch from %s: %w", source.Name(), err)
	}

	events := event.NormalizeBatch(raw, s.now())
	deduped := Dedupe(events)

	if err := s.repo.Upsert(ctx, deduped); err != nil {
		return 0, fmt.Errorf("upsert from %s: %w", source.Name(), err)
	}

	s.logger.InfoContext(ctx, "source ingested",
		"source", source.Name(),
		"fetched", len(raw),
		"duplicates", len(events)-len(deduped),
		"upserted", len(deduped))
	return len(deduped), nil
}
