package catalog

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/sceneseek/sceneseek/internal/event"
	"github.com/sceneseek/sceneseek/internal/search"
)

// InMemoryRepository is an in-memory implementation of Repository.
// Used for testing and development. Its Search applies the same coarse
// semantics as the SQL implementation: events with only a legacy
// plain_date pass the date conditions and price bounds are ignored, so
// the pipeline's re-verification is exercised the same way against both.
type InMemoryRepository struct {
	mu     sync.RWMutex
	events map[string]*event.Event
	stats  *UpsertStats
}

// NewInMemoryRepository creates a new in-memory event repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		events: make(map[string]*event.Event),
		stats:  NewUpsertStats(),
	}
}

// Stats exposes the cumulative upsert counters.
func (r *InMemoryRepository) Stats() *UpsertStats {
	return r.stats
}

// Upsert stores deep copies of the given events, keyed by ID.
func (r *InMemoryRepository) Upsert(ctx context.Context, events []event.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range events {
		cp := copyEvent(&events[i])
		if _, exists := r.events[cp.ID]; exists {
			r.stats.RecordUpdate()
		} else {
			r.stats.RecordInsert()
		}
		r.events[cp.ID] = cp
	}
	return nil
}

// Search returns coarse candidates in ascending start order, events
// without a start day last.
func (r *InMemoryRepository) Search(ctx context.Context, f search.Filters) ([]event.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []event.Event
	for _, ev := range r.events {
		if coarseMatch(ev, f) {
			out = append(out, *copyEvent(ev))
		}
	}
	sortAscendingStart(out)
	return out, nil
}

// MostRecent returns up to limit events by descending start order.
func (r *InMemoryRepository) MostRecent(ctx context.Context, limit int) ([]event.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]event.Event, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, *copyEvent(ev))
	}
	// Descending by start day, undated events last, matching the SQL
	// NULLS LAST ordering.
	sort.SliceStable(out, func(i, j int) bool {
		di, iok := out[i].StartDay()
		dj, jok := out[j].StartDay()
		switch {
		case iok && jok && !di.Equal(dj):
			return di.After(dj)
		case iok != jok:
			return iok
		default:
			return out[i].Name < out[j].Name
		}
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// GetByID retrieves a copy of one event. Returns ErrNotFound when absent.
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*event.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ev, ok := r.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyEvent(ev), nil
}

// coarseMatch mirrors the SQL WHERE clause, not the pipeline's full
// matching rules: date bounds only apply to structured starts, price
// bounds are skipped, and the past-exclusion policy is left to the
// pipeline.
func coarseMatch(ev *event.Event, f search.Filters) bool {
	if f.Text != "" && !coarseTextMatch(ev, f.Text) {
		return false
	}
	if ev.StartAt != nil {
		day := event.Day(*ev.StartAt)
		if f.DateFrom != nil && day.Before(*f.DateFrom) {
			return false
		}
		if f.DateTo != nil && day.After(*f.DateTo) {
			return false
		}
	}
	if f.Region != "" && !strings.EqualFold(ev.Region, f.Region) {
		return false
	}
	if f.Category != "" && ev.Category != f.Category {
		return false
	}
	if len(f.Styles) > 0 && !coarseStyleMatch(ev.Styles, f.Styles) {
		return false
	}
	return true
}

func coarseTextMatch(ev *event.Event, text string) bool {
	needle := strings.ToLower(text)
	for _, field := range []string{ev.Name, ev.Category, ev.Venue, ev.Region, ev.Organizer} {
		if field != "" && strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	for _, s := range ev.Styles {
		if strings.Contains(strings.ToLower(s), needle) {
			return true
		}
	}
	return false
}

func coarseStyleMatch(eventStyles, wanted []string) bool {
	for _, w := range wanted {
		needle := strings.ToLower(w)
		for _, s := range eventStyles {
			if strings.Contains(strings.ToLower(s), needle) {
				return true
			}
		}
	}
	return false
}

func sortAscendingStart(events []event.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		di, iok := events[i].StartDay()
		dj, jok := events[j].StartDay()
		switch {
		case iok && jok && !di.Equal(dj):
			return di.Before(dj)
		case iok != jok:
			return iok // dated events before undated
		default:
			return events[i].Name < events[j].Name
		}
	})
}

func copyEvent(ev *event.Event) *event.Event {
	cp := *ev
	if ev.StartAt != nil {
		t := *ev.StartAt
		cp.StartAt = &t
	}
	if ev.EndAt != nil {
		t := *ev.EndAt
		cp.EndAt = &t
	}
	if ev.PriceMin != nil {
		v := *ev.PriceMin
		cp.PriceMin = &v
	}
	if ev.PriceMax != nil {
		v := *ev.PriceMax
		cp.PriceMax = &v
	}
	if ev.Styles != nil {
		cp.Styles = append([]string(nil), ev.Styles...)
	}
	return &cp
}
