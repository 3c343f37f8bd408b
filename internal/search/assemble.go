package search

import (
	"sort"

	"github.com/sceneseek/sceneseek/internal/event"
)

// Result holds one ranked result set. Events are in rank order; Total is
// the pre-truncation candidate count and may exceed len(Events) when the
// caller asked for a display limit.
type Result struct {
	Events []event.Event `json:"events"`
	Total  int           `json:"total"`
}

// Assemble sorts candidates by score ascending and truncates to limit
// (limit <= 0 means no truncation). The sort is stable: candidates with
// equal scores keep the order they arrived from the Event Store, which
// returns search candidates in ascending start order. That store order is
// the documented tie-break.
func Assemble(candidates []event.Event, scores []float64, limit int) Result {
	type ranked struct {
		ev    event.Event
		score float64
	}

	items := make([]ranked, len(candidates))
	for i, ev := range candidates {
		items[i] = ranked{ev: ev, score: scores[i]}
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].score < items[j].score
	})

	total := len(items)
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}

	events := make([]event.Event, len(items))
	for i, item := range items {
		events[i] = item.ev
	}

	return Result{Events: events, Total: total}
}
