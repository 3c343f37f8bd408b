package search

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

// Weights defines the magnitudes of the relevance scoring terms. Bonus
// weights (TextName through StyleMatch) are subtracted from the score,
// penalty weights are added; see Score for the full formula.
type Weights struct {
	RecencyFuture   float64 `json:"recency_future"`   // per day until start (default: 0.5)
	RecencyPast     float64 `json:"recency_past"`     // per day since start (default: 2)
	TextName        float64 `json:"text_name"`        // text hit in name (default: 20)
	TextCategory    float64 `json:"text_category"`    // text hit in category (default: 10)
	TextDescription float64 `json:"text_description"` // text hit in description (default: 5)
	TextStyle       float64 `json:"text_style"`       // text hit in any style (default: 5)
	CategoryMatch   float64 `json:"category_match"`   // category filter match (default: 5)
	StyleMatch      float64 `json:"style_match"`      // per matching style filter (default: 3)
	PriceProximity  float64 `json:"price_proximity"`  // per unit of price distance (default: 1)
	DateViolation   float64 `json:"date_violation"`   // per violated date bound (default: 10)
}

// CalibrationConfig represents the JSON structure of the calibration file.
type CalibrationConfig struct {
	Version string  `json:"version"` // Config version for future compatibility
	Weights Weights `json:"weights"` // Weight overrides
}

// DefaultWeights returns the default scoring weights. The defaults favor
// direct name hits heavily, then category, then description/style hits,
// with recency acting as the baseline ordering among equally relevant
// events.
func DefaultWeights() Weights {
	return Weights{
		RecencyFuture:   0.5,
		RecencyPast:     2,
		TextName:        20,
		TextCategory:    10,
		TextDescription: 5,
		TextStyle:       5,
		CategoryMatch:   5,
		StyleMatch:      3,
		PriceProximity:  1,
		DateViolation:   10,
	}
}

// LoadCalibration loads scoring weights from a JSON calibration file.
// Partial configurations are merged with defaults; on any error the
// defaults are returned alongside the error so callers can degrade
// gracefully.
func LoadCalibration(filePath string) (Weights, error) {
	if filePath == "" {
		return DefaultWeights(), nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		slog.Warn("failed to read calibration file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultWeights(), fmt.Errorf("failed to read calibration file: %w", err)
	}

	var config CalibrationConfig
	if err := json.Unmarshal(data, &config); err != nil {
		slog.Warn("failed to parse calibration file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultWeights(), fmt.Errorf("failed to parse calibration file: %w", err)
	}

	merged := MergeCalibration(DefaultWeights(), config.Weights)
	logCalibrationOverrides(DefaultWeights(), merged)

	return merged, nil
}

// MergeCalibration merges override weights into base weights. Only
// non-zero override values are applied, which allows partial overrides
// in the calibration file.
func MergeCalibration(base Weights, override Weights) Weights {
	result := base

	if override.RecencyFuture != 0 {
		result.RecencyFuture = override.RecencyFuture
	}
	if override.RecencyPast != 0 {
		result.RecencyPast = override.RecencyPast
	}
	if override.TextName != 0 {
		result.TextName = override.TextName
	}
	if override.TextCategory != 0 {
		result.TextCategory = override.TextCategory
	}
	if override.TextDescription != 0 {
		result.TextDescription = override.TextDescription
	}
	if override.TextStyle != 0 {
		result.TextStyle = override.TextStyle
	}
	if override.CategoryMatch != 0 {
		result.CategoryMatch = override.CategoryMatch
	}
	if override.StyleMatch != 0 {
		result.StyleMatch = override.StyleMatch
	}
	if override.PriceProximity != 0 {
		result.PriceProximity = override.PriceProximity
	}
	if override.DateViolation != 0 {
		result.DateViolation = override.DateViolation
	}

	return result
}

// logCalibrationOverrides logs which weights were overridden from defaults.
func logCalibrationOverrides(defaults Weights, loaded Weights) {
	var overrides []string

	check := func(name string, def, got float64) {
		if got != def {
			overrides = append(overrides, fmt.Sprintf("%s: %.2f -> %.2f", name, def, got))
		}
	}
	check("recency_future", defaults.RecencyFuture, loaded.RecencyFuture)
	check("recency_past", defaults.RecencyPast, loaded.RecencyPast)
	check("text_name", defaults.TextName, loaded.TextName)
	check("text_category", defaults.TextCategory, loaded.TextCategory)
	check("text_description", defaults.TextDescription, loaded.TextDescription)
	check("text_style", defaults.TextStyle, loaded.TextStyle)
	check("category_match", defaults.CategoryMatch, loaded.CategoryMatch)
	check("style_match", defaults.StyleMatch, loaded.StyleMatch)
	check("price_proximity", defaults.PriceProximity, loaded.PriceProximity)
	check("date_violation", defaults.DateViolation, loaded.DateViolation)

	if len(overrides) > 0 {
		slog.Info("loaded scoring calibration with overrides",
			"overrides", overrides)
	} else {
		slog.Info("loaded scoring calibration (using all defaults)")
	}
}
