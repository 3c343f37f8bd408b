package search

import (
	"math"
	"strings"

	"github.com/sceneseek/sceneseek/internal/event"
)

// Score computes the relevance score of one candidate for a normalized
// query. Lower is better: sorting ascending yields best-first order.
// Contributions are additive and every candidate always receives a score;
// fields the event is missing contribute nothing.
//
// Terms:
//   - recency: future events pay 0.5 per day until start, past events 2
//     per day since start (a secondary defense — matching already hides
//     most past events, but recommendation callers may score without
//     excluding);
//   - free-text hits: name −20, category −10, description −5, any
//     style −5;
//   - category filter match (case-insensitive equality): −5;
//   - each style filter entry matching any event style: −3, cumulative;
//   - price proximity: the absolute distance from the event's price to
//     each supplied bound, so prices far from the desired band rank
//     strictly worse than prices near or inside it;
//   - soft date violation: +10 for each explicit bound the event's day
//     falls outside, so scoring doubles as a filter pass for callers
//     that rank unfiltered candidates.
func Score(ev *event.Event, f Filters, w Weights) float64 {
	var s float64

	if day, ok := ev.StartDay(); ok {
		days := day.Sub(f.Today).Hours() / 24
		if days >= 0 {
			s += days * w.RecencyFuture
		} else {
			s += -days * w.RecencyPast
		}
	}

	if text := strings.ToLower(f.Text); text != "" {
		if ev.Name != "" && strings.Contains(strings.ToLower(ev.Name), text) {
			s -= w.TextName
		}
		if ev.Category != "" && strings.Contains(strings.ToLower(ev.Category), text) {
			s -= w.TextCategory
		}
		if ev.Description != "" && strings.Contains(strings.ToLower(ev.Description), text) {
			s -= w.TextDescription
		}
		if styleMatches(ev.Styles, text) {
			s -= w.TextStyle
		}
	}

	if f.Category != "" && ev.Category != "" && strings.EqualFold(f.Category, ev.Category) {
		s -= w.CategoryMatch
	}

	for _, style := range f.Styles {
		if styleMatches(ev.Styles, style) {
			s -= w.StyleMatch
		}
	}

	if f.PriceMin != nil || f.PriceMax != nil {
		if price, ok := ev.PriceValue(); ok {
			if f.PriceMin != nil {
				s += math.Abs(price-*f.PriceMin) * w.PriceProximity
			}
			if f.PriceMax != nil {
				s += math.Abs(price-*f.PriceMax) * w.PriceProximity
			}
		}
	}

	if day, ok := ev.StartDay(); ok {
		if f.DateFrom != nil && day.Before(*f.DateFrom) {
			s += w.DateViolation
		}
		if f.DateTo != nil && day.After(*f.DateTo) {
			s += w.DateViolation
		}
	}

	return s
}
