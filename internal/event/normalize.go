package event

import (
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Timestamp layouts accepted from connectors, most specific first.
var startLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Normalize converts a raw record (as produced by the CSV loader or the
// feed consumer) into a canonical Event. Field-level problems degrade to
// absent values; Normalize never fails. An event with no resolvable start
// anchors itself to now, the ingestion moment. A missing ID is assigned
// here so that re-ingestion of the same logical event (same source ID)
// stays upsert-stable.
func Normalize(raw map[string]any, now time.Time) Event {
	ev := Event{
		ID:          stringField(raw, "id"),
		Name:        stringField(raw, "name", "event_name"),
		PlainDate:   stringField(raw, "date", "event_date"),
		TimeText:    stringField(raw, "time", "event_time", "time_text"),
		Venue:       stringField(raw, "venue", "location", "event_location"),
		City:        stringField(raw, "city"),
		Region:      stringField(raw, "region"),
		Category:    stringField(raw, "category", "event_type"),
		Styles:      stringsField(raw, "styles", "tags", "style", "dance_style"),
		Currency:    stringField(raw, "currency"),
		PriceText:   stringField(raw, "price", "price_text"),
		Organizer:   stringField(raw, "organizer"),
		Description: stringField(raw, "description"),
		IngestedAt:  now,
	}

	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}

	ev.StartAt = timeField(raw, "start_at", "start_datetime")
	ev.EndAt = timeField(raw, "end_at", "end_datetime")
	ev.PriceMin = floatField(raw, "price_min")
	ev.PriceMax = floatField(raw, "price_max")

	// Anchor events with no resolvable date to the ingestion moment so the
	// invariant "name and temporal anchor never both absent" holds.
	if _, ok := ev.StartDay(); !ok {
		anchored := now
		ev.StartAt = &anchored
		slog.Debug("event has no resolvable date, anchoring to ingestion time",
			"id", ev.ID, "name", ev.Name)
	}

	return ev
}

// NormalizeBatch normalizes a slice of raw records.
func NormalizeBatch(raws []map[string]any, now time.Time) []Event {
	events := make([]Event, 0, len(raws))
	for _, raw := range raws {
		events = append(events, Normalize(raw, now))
	}
	return events
}

// stringField returns the first non-empty trimmed string among the keys.
func stringField(raw map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := raw[key]; ok {
			if s, ok := v.(string); ok {
				if trimmed := strings.TrimSpace(s); trimmed != "" {
					return trimmed
				}
			}
		}
	}
	return ""
}

// stringsField returns the first usable tag list among the keys. A plain
// string is treated as a single-element list; comma-separated strings are
// split, matching the legacy CSV encoding.
func stringsField(raw map[string]any, keys ...string) []string {
	for _, key := range keys {
		v, ok := raw[key]
		if !ok {
			continue
		}
		switch val := v.(type) {
		case []string:
			if len(val) > 0 {
				return trimAll(val)
			}
		case []any:
			out := make([]string, 0, len(val))
			for _, item := range val {
				if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
					out = append(out, strings.TrimSpace(s))
				}
			}
			if len(out) > 0 {
				return out
			}
		case string:
			if trimmed := strings.TrimSpace(val); trimmed != "" {
				return trimAll(strings.Split(trimmed, ","))
			}
		}
	}
	return nil
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// timeField parses the first parsable timestamp among the keys.
func timeField(raw map[string]any, keys ...string) *time.Time {
	for _, key := range keys {
		v, ok := raw[key]
		if !ok {
			continue
		}
		switch val := v.(type) {
		case time.Time:
			return &val
		case *time.Time:
			return val
		case string:
			trimmed := strings.TrimSpace(val)
			if trimmed == "" {
				continue
			}
			for _, layout := range startLayouts {
				if t, err := time.Parse(layout, trimmed); err == nil {
					return &t
				}
			}
		}
	}
	return nil
}

// floatField parses the first parsable number among the keys. Decimal
// commas from legacy exports are accepted.
func floatField(raw map[string]any, keys ...string) *float64 {
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
			trimmed := strings.ReplaceAll(strings.TrimSpace(val), ",", ".")
			if trimmed == "" {
				continue
			}
			if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
				return &f
			}
		}
	}
	return nil
}
