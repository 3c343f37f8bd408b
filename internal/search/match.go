package search

import (
	"strings"

	"github.com/sceneseek/sceneseek/internal/event"
)

// Matches reports whether an event satisfies a normalized filter set.
// The Event Store applies the same semantics in SQL; the pipeline
// re-checks candidates here so the rules hold regardless of how coarse
// the store's own filtering is.
//
// Field semantics:
//   - free text: case-insensitive substring against name, category, any
//     style, venue, region, and organizer — a hit on any field satisfies
//     the text filter;
//   - dates: an exact-day query (from == to) matches on calendar-day
//     equality; otherwise the start day must lie in [from, to] inclusive;
//     events with no resolvable start never match a date-filtered query;
//   - a standing policy excludes events before today unless the caller
//     explicitly asked for a range reaching into the past;
//   - region is compared case-insensitively, category case-sensitively;
//     a style filter matches when any requested style is a
//     case-insensitive substring of any event style;
//   - price bounds contain the event's scalar price when present.
func Matches(ev *event.Event, f Filters) bool {
	if f.Text != "" && !textMatches(ev, f.Text) {
		return false
	}

	day, hasDay := ev.StartDay()

	if f.DateFrom != nil || f.DateTo != nil {
		if !hasDay {
			return false
		}
		if f.ExactDay() {
			if !day.Equal(*f.DateFrom) {
				return false
			}
		} else {
			if f.DateFrom != nil && day.Before(*f.DateFrom) {
				return false
			}
			if f.DateTo != nil && day.After(*f.DateTo) {
				return false
			}
		}
	}

	// Past events stay hidden unless the query reaches into the past.
	if hasDay && day.Before(f.Today) && !f.allowsPast() {
		return false
	}

	if f.Region != "" && !strings.EqualFold(ev.Region, f.Region) {
		return false
	}
	if f.Category != "" && ev.Category != f.Category {
		return false
	}
	if len(f.Styles) > 0 && !anyStyleMatches(ev.Styles, f.Styles) {
		return false
	}

	if f.PriceMin != nil || f.PriceMax != nil {
		price, ok := ev.PriceValue()
		if !ok {
			return false
		}
		if f.PriceMin != nil && price < *f.PriceMin {
			return false
		}
		if f.PriceMax != nil && price > *f.PriceMax {
			return false
		}
	}

	return true
}

// textMatches checks the free-text fragment against the event's
// descriptive fields, any one hit being sufficient.
func textMatches(ev *event.Event, text string) bool {
	needle := strings.ToLower(text)
	for _, field := range []string{ev.Name, ev.Category, ev.Venue, ev.Region, ev.Organizer} {
		if field != "" && strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	for _, style := range ev.Styles {
		if strings.Contains(strings.ToLower(style), needle) {
			return true
		}
	}
	return false
}

// anyStyleMatches reports whether any requested style is a
// case-insensitive substring of any event style.
func anyStyleMatches(eventStyles, wanted []string) bool {
	for _, w := range wanted {
		if styleMatches(eventStyles, w) {
			return true
		}
	}
	return false
}

func styleMatches(eventStyles []string, wanted string) bool {
	needle := strings.ToLower(wanted)
	for _, s := range eventStyles {
		if strings.Contains(strings.ToLower(s), needle) {
			return true
		}
	}
	return false
}
