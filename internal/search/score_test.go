package search

import (
	"math"
	"testing"

	"github.com/sceneseek/sceneseek/internal/event"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestScore_Recency(t *testing.T) {
	w := DefaultWeights()

	tests := []struct {
		name string
		ev   event.Event
		want float64
	}{
		{name: "today scores zero", ev: event.Event{StartAt: startingOn(day(2026, 6, 15))}, want: 0},
		{name: "ten days out", ev: event.Event{StartAt: startingOn(day(2026, 6, 25))}, want: 5},
		{name: "three days past", ev: event.Event{StartAt: startingOn(day(2026, 6, 12))}, want: 6},
		{name: "no start contributes nothing", ev: event.Event{}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(&tt.ev, open(), w)
			if !almostEqual(got, tt.want) {
				t.Errorf("Score() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScore_TextHitsStack(t *testing.T) {
	w := DefaultWeights()
	ev := event.Event{
		Name:        "Salsa Night",
		Category:    "salsa party",
		Description: "An evening of salsa classics",
		Styles:      []string{"Salsa"},
		StartAt:     startingOn(day(2026, 6, 15)),
	}

	f := open()
	f.Text = "salsa"

	// name -20, category -10, description -5, style -5
	if got := Score(&ev, f, w); !almostEqual(got, -40) {
		t.Errorf("Score() = %v, want -40", got)
	}

	// A partial hit still counts each field independently.
	ev.Category = "concert"
	if got := Score(&ev, f, w); !almostEqual(got, -30) {
		t.Errorf("Score() = %v, want -30 after removing category hit", got)
	}
}

func TestScore_CategoryAndStyleFilters(t *testing.T) {
	w := DefaultWeights()
	ev := event.Event{
		Category: "Party",
		Styles:   []string{"Salsa", "Bachata"},
		StartAt:  startingOn(day(2026, 6, 15)),
	}

	f := open()
	f.Category = "party" // scoring bonus is case-insensitive
	f.Styles = []string{"salsa", "bachata", "kizomba"}

	// category -5, two matching style entries -3 each
	if got := Score(&ev, f, w); !almostEqual(got, -11) {
		t.Errorf("Score() = %v, want -11", got)
	}
}

func TestScore_PriceProximity(t *testing.T) {
	w := DefaultWeights()
	f := open()
	f.PriceMin = floatPtr(10)
	f.PriceMax = floatPtr(20)

	cheap := event.Event{PriceMin: floatPtr(15), StartAt: startingOn(day(2026, 6, 15))}
	dear := event.Event{PriceMin: floatPtr(25), StartAt: startingOn(day(2026, 6, 15))}

	// |15-10| + |15-20| = 10 against |25-10| + |25-20| = 20
	cheapScore := Score(&cheap, f, w)
	dearScore := Score(&dear, f, w)
	if !almostEqual(cheapScore, 10) {
		t.Errorf("in-band price score = %v, want 10", cheapScore)
	}
	if !almostEqual(dearScore, 20) {
		t.Errorf("out-of-band price score = %v, want 20", dearScore)
	}
	if cheapScore >= dearScore {
		t.Error("a price inside the band must rank better than one outside")
	}

	// Events without a resolvable price take no proximity penalty.
	unknown := event.Event{StartAt: startingOn(day(2026, 6, 15))}
	if got := Score(&unknown, f, w); !almostEqual(got, 0) {
		t.Errorf("priceless event score = %v, want 0", got)
	}
}

func TestScore_DateViolation(t *testing.T) {
	w := DefaultWeights()
	f := open()
	f.DateFrom = datePtr(day(2026, 6, 20))
	f.DateTo = datePtr(day(2026, 6, 25))

	early := event.Event{StartAt: startingOn(day(2026, 6, 18))}
	inside := event.Event{StartAt: startingOn(day(2026, 6, 22))}

	// early: recency 3 days * 0.5 + one violated bound
	if got := Score(&early, f, w); !almostEqual(got, 11.5) {
		t.Errorf("early score = %v, want 11.5", got)
	}
	// inside: recency only, 7 days * 0.5
	if got := Score(&inside, f, w); !almostEqual(got, 3.5) {
		t.Errorf("inside score = %v, want 3.5", got)
	}
}

func TestScore_CalibratedWeights(t *testing.T) {
	w := DefaultWeights()
	w.TextName = 100

	ev := event.Event{Name: "Salsa Night", StartAt: startingOn(day(2026, 6, 15))}
	f := open()
	f.Text = "salsa"

	if got := Score(&ev, f, w); !almostEqual(got, -100) {
		t.Errorf("Score() = %v, want -100 with calibrated name weight", got)
	}
}
