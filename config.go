// config.go: configuration for the pulse tailing and dispatch pipeline
//
// Copyright (c) 2025 AGILira
// Series: AGILira System Libraries
// SPDX-License-Identifier: MPL-2.0

package pulse

import "time"

// Config configures a Scheduler and the collaborators it wires together.
// The four CLI-facing parameters named in spec.md §6
// (FilePath/GeneralStatsPeriodSecs/TrafficGaugePeriodSecs/
// TrafficGaugeThresholdRPS) live here alongside ambient tuning knobs
// carried from the teacher (audit, watch-queue capacity).
type Config struct {
	// FilePath is the log file to tail. Default: /tmp/access.log.
	FilePath string

	// ReadFromStart, when true, starts the tailer's cursor at offset 0
	// instead of the file's current end (tail mode, the default).
	ReadFromStart bool

	// GeneralStatsPeriodSecs is the period, in seconds, of the general
	// statistics reference schedule. Default: 10.
	GeneralStatsPeriodSecs int

	// TrafficGaugePeriodSecs is the period, in seconds, of the
	// high-traffic gauge reference schedule. Default: 120.
	TrafficGaugePeriodSecs int

	// TrafficGaugeThresholdRPS is the requests-per-second threshold above
	// which the traffic gauge schedule alerts. Default: 10.0.
	TrafficGaugeThresholdRPS float64

	// WatchQueueCapacity sizes the ring buffer between the tick loop and
	// the ingestion worker. Must be a power of 2; rounded up otherwise.
	// Default: 64.
	WatchQueueCapacity int64

	// Audit configures the lifecycle audit trail. Default: enabled,
	// JSONL backend under the OS temp directory.
	Audit AuditConfig
}

// WithDefaults returns a copy of c with zero-valued fields replaced by
// their defaults.
func (c *Config) WithDefaults() *Config {
	config := *c

	if config.FilePath == "" {
		config.FilePath = "/tmp/access.log"
	}
	if config.GeneralStatsPeriodSecs <= 0 {
		config.GeneralStatsPeriodSecs = 10
	}
	if config.TrafficGaugePeriodSecs <= 0 {
		config.TrafficGaugePeriodSecs = 120
	}
	if config.TrafficGaugeThresholdRPS <= 0 {
		config.TrafficGaugeThresholdRPS = 10.0
	}
	if config.WatchQueueCapacity <= 0 {
		config.WatchQueueCapacity = 64
	}
	if config.Audit == (AuditConfig{}) {
		config.Audit = DefaultAuditConfig()
	}

	return &config
}

// tickInterval is the nominal tick period the drift-compensation loop in
// scheduler.go targets. It is a constant, not a Config field, because
// spec.md §9 requires the 999ms sleep target and the adjustment term to
// be preserved literally rather than made configurable.
const tickInterval = time.Second
