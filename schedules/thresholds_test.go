// thresholds_test.go
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0
package schedules

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadThresholdsEmptyPathReturnsDefaults(t *testing.T) {
	got, err := LoadThresholds("")
	if err != nil {
		t.Fatalf("LoadThresholds: %v", err)
	}
	if got != DefaultThresholds() {
		t.Fatalf("expected defaults for an empty path, got %+v", got)
	}
}

func TestLoadThresholdsOverridesFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "thresholds.yaml")
	content := "general_stats_byte_threshold: 500\ntraffic_gauge_threshold_rps: 25.5\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := LoadThresholds(path)
	if err != nil {
		t.Fatalf("LoadThresholds: %v", err)
	}
	if got.GeneralStatsByteThreshold != 500 {
		t.Fatalf("expected GeneralStatsByteThreshold 500, got %d", got.GeneralStatsByteThreshold)
	}
	if got.TrafficGaugeThresholdRPS != 25.5 {
		t.Fatalf("expected TrafficGaugeThresholdRPS 25.5, got %f", got.TrafficGaugeThresholdRPS)
	}
}

func TestLoadThresholdsPartialOverrideKeepsOtherDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "thresholds.yaml")
	if err := os.WriteFile(path, []byte("general_stats_byte_threshold: 900\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := LoadThresholds(path)
	if err != nil {
		t.Fatalf("LoadThresholds: %v", err)
	}
	if got.GeneralStatsByteThreshold != 900 {
		t.Fatalf("expected override to take effect, got %d", got.GeneralStatsByteThreshold)
	}
	if got.TrafficGaugeThresholdRPS != DefaultThresholds().TrafficGaugeThresholdRPS {
		t.Fatalf("expected the unset field to keep its default, got %f", got.TrafficGaugeThresholdRPS)
	}
}

func TestLoadThresholdsMissingFile(t *testing.T) {
	if _, err := LoadThresholds("/nonexistent/thresholds.yaml"); err == nil {
		t.Fatalf("expected an error for a missing thresholds file")
	}
}

func TestLoadThresholdsInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "thresholds.yaml")
	if err := os.WriteFile(path, []byte("not: [valid: yaml"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadThresholds(path); err == nil {
		t.Fatalf("expected an error for malformed YAML")
	}
}
