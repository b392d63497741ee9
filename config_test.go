// config_test.go
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0
package pulse

import "testing"

func TestConfigWithDefaultsFillsZeroValues(t *testing.T) {
	cfg := (&Config{}).WithDefaults()

	if cfg.FilePath != "/tmp/access.log" {
		t.Fatalf("expected default FilePath, got %q", cfg.FilePath)
	}
	if cfg.GeneralStatsPeriodSecs != 10 {
		t.Fatalf("expected default GeneralStatsPeriodSecs 10, got %d", cfg.GeneralStatsPeriodSecs)
	}
	if cfg.TrafficGaugePeriodSecs != 120 {
		t.Fatalf("expected default TrafficGaugePeriodSecs 120, got %d", cfg.TrafficGaugePeriodSecs)
	}
	if cfg.TrafficGaugeThresholdRPS != 10.0 {
		t.Fatalf("expected default TrafficGaugeThresholdRPS 10.0, got %f", cfg.TrafficGaugeThresholdRPS)
	}
	if cfg.WatchQueueCapacity != 64 {
		t.Fatalf("expected default WatchQueueCapacity 64, got %d", cfg.WatchQueueCapacity)
	}
	if !cfg.Audit.Enabled {
		t.Fatalf("expected default audit config to be enabled")
	}
}

func TestConfigWithDefaultsPreservesExplicitValues(t *testing.T) {
	cfg := (&Config{
		FilePath:                 "/var/log/custom.log",
		GeneralStatsPeriodSecs:   5,
		TrafficGaugePeriodSecs:   60,
		TrafficGaugeThresholdRPS: 50.0,
		WatchQueueCapacity:       128,
	}).WithDefaults()

	if cfg.FilePath != "/var/log/custom.log" {
		t.Fatalf("expected explicit FilePath preserved, got %q", cfg.FilePath)
	}
	if cfg.GeneralStatsPeriodSecs != 5 {
		t.Fatalf("expected explicit GeneralStatsPeriodSecs preserved, got %d", cfg.GeneralStatsPeriodSecs)
	}
	if cfg.WatchQueueCapacity != 128 {
		t.Fatalf("expected explicit WatchQueueCapacity preserved, got %d", cfg.WatchQueueCapacity)
	}
}
