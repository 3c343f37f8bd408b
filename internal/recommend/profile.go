// Package recommend implements the recommendation policy on top of the
// search pipeline: profile defaults, one-step query relaxation, result
// caching, and a most-recent fallback ranked by profile affinity.
package recommend

import (
	"strings"
	"time"

	"github.com/sceneseek/sceneseek/internal/event"
)

// Profile carries the caller's stored preferences. HomeCity fills the
// region filter when the caller did not supply one; Interests drive the
// affinity ranking of the most-recent fallback.
type Profile struct {
	HomeCity  string   `json:"home_city"`
	Interests []string `json:"interests"`
}

// affinityScore rates an event against a profile, higher is better.
// Unlike the search pipeline's relevance score this is a preference
// measure for unfiltered fallback candidates: home-city affinity, one hit
// per interest keyword across the descriptive fields, a small bonus for
// events starting soon, and a nudge for tagged events.
func affinityScore(ev *event.Event, p Profile, today time.Time) float64 {
	var score float64

	if p.HomeCity != "" {
		home := strings.ToLower(p.HomeCity)
		if strings.Contains(strings.ToLower(ev.City), home) ||
			strings.Contains(strings.ToLower(ev.Region), home) {
			score += 10
		}
	}

	if len(p.Interests) > 0 {
		text := strings.ToLower(strings.Join(append([]string{
			ev.Name, ev.Category, ev.Description,
		}, ev.Styles...), " "))
		for _, interest := range p.Interests {
			kw := strings.ToLower(strings.TrimSpace(interest))
			if kw != "" && strings.Contains(text, kw) {
				score += 7
			}
		}
	}

	if day, ok := ev.StartDay(); ok {
		daysAhead := int(day.Sub(event.Day(today)).Hours() / 24)
		if daysAhead >= 0 {
			if bonus := 5 - daysAhead/2; bonus > 0 {
				score += float64(bonus)
			}
		}
	}

	if len(ev.Styles) > 0 {
		score += 2
	}

	return score
}
