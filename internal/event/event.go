// Package event provides the canonical event model and the normalization
// that reconciles the two catalog schema generations at the ingestion boundary.
package event

import (
	"strconv"
	"strings"
	"time"
)

// Event is an immutable catalog record for one schedulable occurrence.
// Both schema generations are representable: the structured StartAt/EndAt
// form and the legacy PlainDate + TimeText form. Normalize fills the
// canonical fields from whichever form is present; downstream code never
// branches on schema generation.
type Event struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	StartAt     *time.Time `json:"start_at,omitempty"`
	EndAt       *time.Time `json:"end_at,omitempty"`
	PlainDate   string     `json:"plain_date,omitempty"` // legacy YYYY-MM-DD
	TimeText    string     `json:"time_text,omitempty"`  // legacy free-text time
	Venue       string     `json:"venue,omitempty"`
	City        string     `json:"city,omitempty"`
	Region      string     `json:"region,omitempty"`
	Category    string     `json:"category,omitempty"`
	Styles      []string   `json:"styles,omitempty"`
	PriceMin    *float64   `json:"price_min,omitempty"`
	PriceMax    *float64   `json:"price_max,omitempty"`
	Currency    string     `json:"currency,omitempty"`
	PriceText   string     `json:"price_text,omitempty"` // legacy opaque price string
	Organizer   string     `json:"organizer,omitempty"`
	Description string     `json:"description,omitempty"`
	IngestedAt  time.Time  `json:"ingested_at"`
}

// StartDay returns the calendar day of the event's temporal anchor.
// The structured StartAt wins over the legacy PlainDate. ok is false
// when neither form resolves to a date.
func (e *Event) StartDay() (time.Time, bool) {
	if e.StartAt != nil {
		return Day(*e.StartAt), true
	}
	if e.PlainDate != "" {
		if d, err := time.Parse("2006-01-02", e.PlainDate); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}

// PriceValue returns the event's scalar price for range matching and
// proximity scoring: the single bound when only one is set, the midpoint
// when both are set, or the leading number of the legacy PriceText.
// ok is false when no price is resolvable.
func (e *Event) PriceValue() (float64, bool) {
	switch {
	case e.PriceMin != nil && e.PriceMax != nil:
		return (*e.PriceMin + *e.PriceMax) / 2, true
	case e.PriceMin != nil:
		return *e.PriceMin, true
	case e.PriceMax != nil:
		return *e.PriceMax, true
	}
	if e.PriceText != "" {
		head := strings.Fields(e.PriceText)
		if len(head) > 0 {
			if v, err := strconv.ParseFloat(strings.ReplaceAll(head[0], ",", "."), 64); err == nil {
				return v, true
			}
		}
	}
	return 0, false
}

// Day truncates a timestamp to its calendar day in UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
