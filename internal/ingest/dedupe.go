package ingest

import (
	"strings"
	"time"

	"github.com/sceneseek/sceneseek/internal/event"
)

// Dedupe removes duplicate events from a batch, keeping the first
// occurrence. Two events are duplicates when they share a name
// (case-insensitive) and a start day. Events without a resolvable start
// day only collide with other undated events of the same name.
func Dedupe(events []event.Event) []event.Event {
	type dupKey struct {
		name  string
		day   time.Time
		dated bool
	}

	seen := make(map[dupKey]bool, len(events))
	out := make([]event.Event, 0, len(events))
	for i := range events {
		day, ok := events[i].StartDay()
		key := dupKey{
			name:  strings.ToLower(strings.TrimSpace(events[i].Name)),
			day:   day,
			dated: ok,
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, events[i])
	}
	return out
}
