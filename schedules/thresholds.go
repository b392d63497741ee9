// thresholds.go: optional YAML threshold overrides for reference schedules
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0
package schedules

import (
	"os"

	errors "github.com/agilira/go-errors"
	yaml "go.yaml.in/yaml/v3"
)

// ErrCodeInvalidThresholds is returned when a thresholds file cannot be
// read or parsed.
const ErrCodeInvalidThresholds = "PULSE_INVALID_THRESHOLDS"

// Thresholds overrides the alert thresholds GeneralStats and TrafficGauge
// default to, loaded from an operator-maintained YAML file rather than
// baked into the binary.
type Thresholds struct {
	GeneralStatsByteThreshold int64   `yaml:"general_stats_byte_threshold"`
	TrafficGaugeThresholdRPS  float64 `yaml:"traffic_gauge_threshold_rps"`
}

// DefaultThresholds mirrors pulse.Config's compiled-in defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		GeneralStatsByteThreshold: 300,
		TrafficGaugeThresholdRPS:  10.0,
	}
}

// LoadThresholds reads and parses a YAML thresholds file, returning
// DefaultThresholds with zero-valued fields filled in when path is empty.
func LoadThresholds(path string) (Thresholds, error) {
	t := DefaultThresholds()
	if path == "" {
		return t, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return t, errors.Wrap(err, ErrCodeInvalidThresholds, "failed to read thresholds file").WithContext("path", path)
	}

	var loaded Thresholds
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return t, errors.Wrap(err, ErrCodeInvalidThresholds, "failed to parse thresholds file").WithContext("path", path)
	}

	if loaded.GeneralStatsByteThreshold > 0 {
		t.GeneralStatsByteThreshold = loaded.GeneralStatsByteThreshold
	}
	if loaded.TrafficGaugeThresholdRPS > 0 {
		t.TrafficGaugeThresholdRPS = loaded.TrafficGaugeThresholdRPS
	}
	return t, nil
}
