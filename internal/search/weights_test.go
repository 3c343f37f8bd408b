package search

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadCalibration_EmptyPathUsesDefaults(t *testing.T) {
	w, err := LoadCalibration("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w != DefaultWeights() {
		t.Errorf("weights = %+v, want defaults", w)
	}
}

func TestLoadCalibration_MissingFileDegradesToDefaults(t *testing.T) {
	w, err := LoadCalibration(filepath.Join(t.TempDir(), "nope.json"))
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
	if w != DefaultWeights() {
		t.Errorf("weights = %+v, want defaults on error", w)
	}
}

func TestLoadCalibration_PartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calibration.json")
	body := `{"version": "1", "weights": {"text_name": 40, "recency_past": 4}}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := LoadCalibration(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.TextName != 40 {
		t.Errorf("TextName = %v, want 40", w.TextName)
	}
	if w.RecencyPast != 4 {
		t.Errorf("RecencyPast = %v, want 4", w.RecencyPast)
	}
	// Everything unmentioned stays at its default.
	if w.TextCategory != DefaultWeights().TextCategory {
		t.Errorf("TextCategory = %v, want default", w.TextCategory)
	}
}

func TestLoadCalibration_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := LoadCalibration(path)
	if err == nil {
		t.Fatal("expected a parse error")
	}
	if w != DefaultWeights() {
		t.Errorf("weights = %+v, want defaults on parse error", w)
	}
}

func TestMergeCalibration_ZeroMeansKeep(t *testing.T) {
	base := DefaultWeights()
	merged := MergeCalibration(base, Weights{StyleMatch: 7})

	if merged.StyleMatch != 7 {
		t.Errorf("StyleMatch = %v, want 7", merged.StyleMatch)
	}
	merged.StyleMatch = base.StyleMatch
	if merged != base {
		t.Errorf("zero overrides must not change other weights: %+v", merged)
	}
}
