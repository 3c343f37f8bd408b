package recommend

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/sceneseek/sceneseek/internal/event"
	"github.com/sceneseek/sceneseek/internal/search"
)

// fallbackFetchLimit is how many recent events the most-recent fallback
// fetches before affinity ranking.
const fallbackFetchLimit = 100

// Store is the event store surface the fallback needs.
type Store interface {
	MostRecent(ctx context.Context, limit int) ([]event.Event, error)
}

// Recommendation is one recommendation response. Relaxed reports whether
// the region filter was dropped to produce the results.
type Recommendation struct {
	Events  []event.Event `json:"events"`
	Total   int           `json:"total"`
	Relaxed bool          `json:"relaxed"`
}

// Service applies the recommendation policy: profile-defaulted search,
// one-step region relaxation on an empty result, and short-lived caching.
type Service struct {
	pipeline *search.Service
	store    Store
	cache    Cache
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a recommendation service. cache may be nil to
// disable caching.
func NewService(pipeline *search.Service, store Store, cache Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		pipeline: pipeline,
		store:    store,
		cache:    cache,
		logger:   logger,
		now:      time.Now,
	}
}

// WithNow overrides the clock. Intended for tests.
func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	return s
}

// Recommend runs the policy for a raw filter map and a profile:
//
//  1. normalize, filling the region from the profile home city only when
//     the caller did not mention the filter at all (an explicitly empty
//     or "All" region is a request for no constraint, not an omission);
//  2. run the search pipeline; a non-empty result is returned as-is;
//  3. on an empty result with an active region filter, drop exactly that
//     filter and rerun once;
//  4. a still-empty result is a valid empty recommendation, not an error.
//
// Results are cached per normalized query and profile; cache failures
// degrade to a plain pipeline run.
func (s *Service) Recommend(ctx context.Context, raw map[string]any, profile Profile, maxResults int) (Recommendation, error) {
	homeCity := profile.HomeCity
	if rawMentionsRegion(raw) {
		homeCity = ""
	}
	f := search.NormalizeFilters(search.FiltersFromMap(raw), homeCity, s.now())

	key := cacheKey(f, profile, maxResults)
	if rec, ok := s.cached(ctx, key); ok {
		return rec, nil
	}

	res, err := s.pipeline.Run(ctx, f, maxResults)
	if err != nil {
		return Recommendation{}, fmt.Errorf("recommendation search: %w", err)
	}

	relaxed := false
	if len(res.Events) == 0 && f.HasRegion() {
		res, err = s.pipeline.Run(ctx, f.WithoutRegion(), maxResults)
		if err != nil {
			return Recommendation{}, fmt.Errorf("relaxed recommendation search: %w", err)
		}
		relaxed = len(res.Events) > 0
	}

	rec := Recommendation{Events: res.Events, Total: res.Total, Relaxed: relaxed}
	s.logger.InfoContext(ctx, "recommendation completed",
		"region", f.Region,
		"relaxed", relaxed,
		"returned", len(rec.Events))

	s.cacheStore(ctx, key, rec)
	return rec, nil
}

// MostRecentFallback returns up to maxResults recent events ranked by
// profile affinity. Callers invoke it when Recommend comes back empty
// and something is better than nothing.
func (s *Service) MostRecentFallback(ctx context.Context, profile Profile, maxResults int) ([]event.Event, error) {
	events, err := s.store.MostRecent(ctx, fallbackFetchLimit)
	if err != nil {
		return nil, fmt.Errorf("most recent fallback: %w", err)
	}

	today := s.now()
	sort.SliceStable(events, func(i, j int) bool {
		return affinityScore(&events[i], profile, today) > affinityScore(&events[j], profile, today)
	})

	if maxResults > 0 && len(events) > maxResults {
		events = events[:maxResults]
	}
	return events, nil
}

// rawMentionsRegion reports whether the caller supplied a region filter
// at all, even an empty one. Presence suppresses the profile default.
func rawMentionsRegion(raw map[string]any) bool {
	for _, key := range []string{"region", "city"} {
		if _, ok := raw[key]; ok {
			return true
		}
	}
	return false
}

func cacheKey(f search.Filters, profile Profile, maxResults int) string {
	payload, err := json.Marshal(struct {
		Filters search.Filters
		Profile Profile
		Max     int
	}{f, profile, maxResults})
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(payload)
	return "recommend:" + hex.EncodeToString(sum[:])
}

func (s *Service) cached(ctx context.Context, key string) (Recommendation, bool) {
	if s.cache == nil || key == "" {
		return Recommendation{}, false
	}
	payload, ok := s.cache.Get(ctx, key)
	if !ok {
		return Recommendation{}, false
	}
	var rec Recommendation
	if err := json.Unmarshal(payload, &rec); err != nil {
		s.logger.WarnContext(ctx, "discarding malformed cached recommendation",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return Recommendation{}, false
	}
	return rec, true
}

func (s *Service) cacheStore(ctx context.Context, key string, rec Recommendation) {
	if s.cache == nil || key == "" {
		return
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return
	}
	s.cache.Set(ctx, key, payload)
}
