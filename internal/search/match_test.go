package search

import (
	"testing"
	"time"

	"github.com/sceneseek/sceneseek/internal/event"
)

// open returns a filter set with no active constraints and a fixed
// reference day, bypassing normalization so single rules can be tested
// in isolation.
func open() Filters {
	return Filters{Today: day(2026, 6, 15)}
}

func startingOn(t time.Time) *time.Time { return &t }

func TestMatches_Text(t *testing.T) {
	ev := event.Event{
		Name:      "Salsa Night",
		Category:  "party",
		Venue:     "Kulturhaus",
		Region:    "Basel",
		Organizer: "Club Tropicana",
		Styles:    []string{"Salsa", "Bachata"},
		StartAt:   startingOn(day(2026, 6, 20)),
	}

	tests := []struct {
		name string
		text string
		want bool
	}{
		{name: "name hit", text: "salsa", want: true},
		{name: "case-insensitive", text: "SALSA", want: true},
		{name: "substring", text: "als", want: true},
		{name: "category hit", text: "party", want: true},
		{name: "venue hit", text: "kulturhaus", want: true},
		{name: "organizer hit", text: "tropicana", want: true},
		{name: "style hit", text: "bachata", want: true},
		{name: "no hit anywhere", text: "techno", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := open()
			f.Text = tt.text
			if got := Matches(&ev, f); got != tt.want {
				t.Errorf("Matches(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestMatches_DateRange(t *testing.T) {
	tests := []struct {
		name  string
		start *time.Time
		plain string
		from  *time.Time
		to    *time.Time
		want  bool
	}{
		{name: "inside range", start: startingOn(day(2026, 6, 20)), from: datePtr(day(2026, 6, 15)), to: datePtr(day(2026, 6, 30)), want: true},
		{name: "on lower bound", start: startingOn(day(2026, 6, 15)), from: datePtr(day(2026, 6, 15)), to: datePtr(day(2026, 6, 30)), want: true},
		{name: "on upper bound", start: startingOn(day(2026, 6, 30)), from: datePtr(day(2026, 6, 15)), to: datePtr(day(2026, 6, 30)), want: true},
		{name: "after range", start: startingOn(day(2026, 7, 1)), from: datePtr(day(2026, 6, 15)), to: datePtr(day(2026, 6, 30)), want: false},
		{name: "exact day match", start: startingOn(day(2026, 6, 20)), from: datePtr(day(2026, 6, 20)), to: datePtr(day(2026, 6, 20)), want: true},
		{name: "exact day miss", start: startingOn(day(2026, 6, 21)), from: datePtr(day(2026, 6, 20)), to: datePtr(day(2026, 6, 20)), want: false},
		{name: "legacy plain date inside range", plain: "2026-06-20", from: datePtr(day(2026, 6, 15)), to: datePtr(day(2026, 6, 30)), want: true},
		{name: "no start excluded from date query", from: datePtr(day(2026, 6, 15)), to: datePtr(day(2026, 6, 30)), want: false},
		{name: "no start passes undated query", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := event.Event{Name: "x", StartAt: tt.start, PlainDate: tt.plain}
			f := open()
			f.DateFrom = tt.from
			f.DateTo = tt.to
			if got := Matches(&ev, f); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMatches_PastExclusion(t *testing.T) {
	yesterday := event.Event{Name: "Jazz Brunch", StartAt: startingOn(day(2026, 6, 14))}

	f := NormalizeFilters(Filters{
		DateFrom: datePtr(day(2026, 6, 1)),
		DateTo:   datePtr(day(2026, 6, 30)),
	}, "", testToday)
	if !Matches(&yesterday, f) {
		t.Error("an explicit range into the past should surface past events")
	}

	g := NormalizeFilters(Filters{}, "", testToday)
	if Matches(&yesterday, g) {
		t.Error("default window must hide past events")
	}
}

func TestMatches_RegionCategoryStyles(t *testing.T) {
	ev := event.Event{
		Name:     "Open Air",
		Region:   "Basel",
		Category: "concert",
		Styles:   []string{"Jazz Fusion", "Funk"},
		StartAt:  startingOn(day(2026, 6, 20)),
	}

	tests := []struct {
		name string
		mod  func(*Filters)
		want bool
	}{
		{name: "region case-insensitive", mod: func(f *Filters) { f.Region = "basel" }, want: true},
		{name: "region mismatch", mod: func(f *Filters) { f.Region = "Zurich" }, want: false},
		{name: "category exact", mod: func(f *Filters) { f.Category = "concert" }, want: true},
		{name: "category is case-sensitive", mod: func(f *Filters) { f.Category = "Concert" }, want: false},
		{name: "style substring", mod: func(f *Filters) { f.Styles = []string{"jazz"} }, want: true},
		{name: "any style suffices", mod: func(f *Filters) { f.Styles = []string{"techno", "funk"} }, want: true},
		{name: "no style matches", mod: func(f *Filters) { f.Styles = []string{"techno"} }, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := open()
			tt.mod(&f)
			if got := Matches(&ev, f); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMatches_PriceBounds(t *testing.T) {
	tests := []struct {
		name string
		ev   event.Event
		min  *float64
		max  *float64
		want bool
	}{
		{name: "inside band", ev: event.Event{PriceMin: floatPtr(15)}, min: floatPtr(10), max: floatPtr(20), want: true},
		{name: "above band", ev: event.Event{PriceMin: floatPtr(25)}, min: floatPtr(10), max: floatPtr(20), want: false},
		{name: "below band", ev: event.Event{PriceMin: floatPtr(5)}, min: floatPtr(10), max: floatPtr(20), want: false},
		{name: "on bound", ev: event.Event{PriceMin: floatPtr(20)}, max: floatPtr(20), want: true},
		{name: "midpoint of range", ev: event.Event{PriceMin: floatPtr(10), PriceMax: floatPtr(30)}, max: floatPtr(20), want: true},
		{name: "legacy price text", ev: event.Event{PriceText: "12,50 CHF"}, min: floatPtr(10), want: true},
		{name: "no resolvable price excluded", ev: event.Event{}, min: floatPtr(10), want: false},
		{name: "no resolvable price passes unbounded query", ev: event.Event{}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := tt.ev
			ev.Name = "x"
			ev.StartAt = startingOn(day(2026, 6, 20))
			f := open()
			f.PriceMin = tt.min
			f.PriceMax = tt.max
			if got := Matches(&ev, f); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}
