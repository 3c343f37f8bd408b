// Package search implements the event search pipeline: filter
// normalization, candidate matching, relevance scoring, and result
// assembly. Every function is a pure function of its inputs; the
// reference day is carried inside the normalized Filters so that no
// stage reads the wall clock.
package search

import (
	"strconv"
	"strings"
	"time"

	"github.com/sceneseek/sceneseek/internal/event"
)

// RegionAll is the sentinel a UI sends for "any region"; it is treated as
// no constraint.
const RegionAll = "All"

// DefaultWindowDays is the size of the default search window applied when
// the caller gives no date bounds: today through today + 30 days, so
// recommendation queries default to "the upcoming month".
const DefaultWindowDays = 30

// Filters is the canonical, typed filter set for one search request.
// It is mutable during normalization only; afterwards every pipeline
// stage treats it as immutable. Nil pointers and empty strings both mean
// "no constraint".
type Filters struct {
	Text     string
	DateFrom *time.Time // inclusive, day precision
	DateTo   *time.Time // inclusive, day precision
	Region   string
	Category string
	Styles   []string
	PriceMin *float64
	PriceMax *float64

	// Today is the reference day, set by NormalizeFilters. All date
	// comparisons in matching and scoring use it instead of the wall clock.
	Today time.Time
}

// FiltersFromMap extracts recognized filter names from a raw map.
// Unrecognized names are ignored. Aliases from both schema generations
// are accepted (category/event_type, style/styles/tags).
func FiltersFromMap(raw map[string]any) Filters {
	var f Filters
	f.Text = rawString(raw, "text", "q")
	f.DateFrom = rawDate(raw, "date_from")
	f.DateTo = rawDate(raw, "date_to")
	f.Region = rawString(raw, "region", "city")
	f.Category = rawString(raw, "category", "event_type")
	f.Styles = rawStrings(raw, "style", "styles", "tags")
	f.PriceMin = rawFloat(raw, "price_min")
	f.PriceMax = rawFloat(raw, "price_max")
	return f
}

// NormalizeFilters applies defaulting and cleanup rules to a raw filter
// set and returns the canonical form used by the rest of the pipeline:
//
//   - missing date_from defaults to today, missing date_to to
//     date_from + 30 days;
//   - reversed date bounds are swapped;
//   - string values are trimmed, the "All" region sentinel is dropped;
//   - zero or negative price bounds are treated as absent (a zero
//     minimum is "no constraint", not "free events only");
//   - an unset region is filled from homeCity, the profile default —
//     explicit caller values always win over the profile.
//
// Invalid values never produce errors; they degrade to absent.
func NormalizeFilters(raw Filters, homeCity string, today time.Time) Filters {
	f := raw
	f.Today = event.Day(today)

	f.Text = strings.TrimSpace(f.Text)
	f.Region = strings.TrimSpace(f.Region)
	f.Category = strings.TrimSpace(f.Category)
	f.Styles = trimStyles(f.Styles)

	// "All" is an explicit request for no region constraint, so it must
	// not be replaced by the profile default.
	if strings.EqualFold(f.Region, RegionAll) {
		f.Region = ""
	} else if f.Region == "" {
		f.Region = strings.TrimSpace(homeCity)
	}

	if f.DateFrom == nil {
		from := f.Today
		f.DateFrom = &from
	} else {
		from := event.Day(*f.DateFrom)
		f.DateFrom = &from
	}
	if f.DateTo == nil {
		to := f.DateFrom.AddDate(0, 0, DefaultWindowDays)
		f.DateTo = &to
	} else {
		to := event.Day(*f.DateTo)
		f.DateTo = &to
	}
	if f.DateFrom.After(*f.DateTo) {
		f.DateFrom, f.DateTo = f.DateTo, f.DateFrom
	}

	f.PriceMin = positiveOrNil(f.PriceMin)
	f.PriceMax = positiveOrNil(f.PriceMax)

	return f
}

// WithoutRegion returns a copy of the filter set with the region
// constraint removed. Used by the recommendation relaxation step.
func (f Filters) WithoutRegion() Filters {
	relaxed := f
	relaxed.Region = ""
	return relaxed
}

// HasRegion reports whether a region constraint is active.
func (f Filters) HasRegion() bool {
	return f.Region != ""
}

// ExactDay reports whether the filter set is an explicit single-day query.
func (f Filters) ExactDay() bool {
	return f.DateFrom != nil && f.DateTo != nil && f.DateFrom.Equal(*f.DateTo)
}

// allowsPast reports whether the caller explicitly asked for a range
// reaching before today. The standing "no past events" policy is
// suspended only in that case.
func (f Filters) allowsPast() bool {
	return f.DateFrom != nil && f.DateFrom.Before(f.Today)
}

func trimStyles(styles []string) []string {
	out := make([]string, 0, len(styles))
	for _, s := range styles {
		if trimmed := strings.TrimSpace(s); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func positiveOrNil(v *float64) *float64 {
	if v == nil || *v <= 0 {
		return nil
	}
	return v
}

func rawString(raw map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := raw[key]; ok {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

func rawStrings(raw map[string]any, keys ...string) []string {
	for _, key := range keys {
		v, ok := raw[key]
		if !ok {
			continue
		}
		switch val := v.(type) {
		case []string:
			if len(val) > 0 {
				return val
			}
		case string:
			if strings.TrimSpace(val) != "" {
				return strings.Split(val, ",")
			}
		}
	}
	return nil
}

func rawDate(raw map[string]any, keys ...string) *time.Time {
	for _, key := range keys {
		v, ok := raw[key]
		if !ok {
			continue
		}
		switch val := v.(type) {
		case time.Time:
			d := event.Day(val)
			return &d
		case string:
			if t, err := time.Parse("2006-01-02", strings.TrimSpace(val)); err == nil {
				return &t
			}
		}
	}
	return nil
}

func rawFloat(raw map[string]any, keys ...string) *float64 {
	for _, key := range keys {
		v, ok := raw[key]
		if !ok {
			continue
		}
		switch val := v.(type) {
		case float64:
			return &val
		case int:
			f := float64(val)
			return &f
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
				return &f
			}
		}
	}
	return nil
}
