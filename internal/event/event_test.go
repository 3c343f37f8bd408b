package event

import (
	"testing"
	"time"
)

func TestStartDay(t *testing.T) {
	start := time.Date(2026, 5, 12, 21, 30, 0, 0, time.UTC)

	tests := []struct {
		name    string
		event   Event
		wantDay time.Time
		wantOK  bool
	}{
		{
			name:    "structured start",
			event:   Event{StartAt: &start},
			wantDay: time.Date(2026, 5, 12, 0, 0, 0, 0, time.UTC),
			wantOK:  true,
		},
		{
			name:    "legacy plain date",
			event:   Event{PlainDate: "2026-05-12"},
			wantDay: time.Date(2026, 5, 12, 0, 0, 0, 0, time.UTC),
			wantOK:  true,
		},
		{
			name:    "structured wins over legacy",
			event:   Event{StartAt: &start, PlainDate: "2020-01-01"},
			wantDay: time.Date(2026, 5, 12, 0, 0, 0, 0, time.UTC),
			wantOK:  true,
		},
		{
			name:   "no anchor",
			event:  Event{Name: "undated"},
			wantOK: false,
		},
		{
			name:   "unparsable legacy date",
			event:  Event{PlainDate: "next friday"},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			day, ok := tt.event.StartDay()
			if ok != tt.wantOK {
				t.Fatalf("StartDay() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && !day.Equal(tt.wantDay) {
				t.Errorf("StartDay() = %v, want %v", day, tt.wantDay)
			}
		})
	}
}

func TestPriceValue(t *testing.T) {
	f := func(v float64) *float64 { return &v }

	tests := []struct {
		name   string
		event  Event
		want   float64
		wantOK bool
	}{
		{name: "midpoint of min and max", event: Event{PriceMin: f(10), PriceMax: f(30)}, want: 20, wantOK: true},
		{name: "min only", event: Event{PriceMin: f(15)}, want: 15, wantOK: true},
		{name: "max only", event: Event{PriceMax: f(25)}, want: 25, wantOK: true},
		{name: "legacy price text", event: Event{PriceText: "12.50 EUR"}, want: 12.5, wantOK: true},
		{name: "legacy decimal comma", event: Event{PriceText: "12,50 EUR"}, want: 12.5, wantOK: true},
		{name: "free text price", event: Event{PriceText: "donation"}, wantOK: false},
		{name: "no price", event: Event{}, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.event.PriceValue()
			if ok != tt.wantOK {
				t.Fatalf("PriceValue() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("PriceValue() = %v, want %v", got, tt.want)
			}
		})
	}
}
