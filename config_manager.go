// config_manager.go: programmatic flag+env+defaults config assembly
//
// ConfigManager is for embedders that want pulse's four CLI-shaped knobs
// without going through cmd/pulse's orpheus-based binary — e.g. a host
// application that already has its own argument vector and wants pulse's
// precedence rules (flags > env > defaults) applied to a sub-slice of it.
// Adapted from integration.go's ConfigManager, trimmed to pulse's four
// fields instead of Argus's general-purpose config-file flag set.
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package pulse

import (
	flashflags "github.com/agilira/flash-flags"
)

// ConfigManager assembles a Config from, in increasing precedence:
// compiled-in defaults, PULSE_* environment variables, and flags parsed
// with flash-flags. Mirrors integration.go's ConfigManager: registering
// each flag with its FlagSet, then reading values back through the
// FlagSet's Get* accessors after Parse.
type ConfigManager struct {
	flags *flashflags.FlagSet
}

// NewConfigManager creates a ConfigManager, seeding its flash-flags
// FlagSet's defaults from the environment (so an unset flag falls back
// to PULSE_* env vars, and only then to the compiled-in default).
func NewConfigManager(appName string) (*ConfigManager, error) {
	base, err := LoadConfigFromEnv()
	if err != nil {
		return nil, err
	}

	fs := flashflags.New(appName)
	fs.String("file-path", base.FilePath, "log file to tail")
	fs.Bool("read-from-start", base.ReadFromStart, "start at offset 0 instead of tailing from the end")
	fs.Int("general-stats-period-secs", base.GeneralStatsPeriodSecs, "general stats schedule period, seconds")
	fs.Int("traffic-gauge-period-secs", base.TrafficGaugePeriodSecs, "traffic gauge schedule period, seconds")
	fs.Float64("traffic-gauge-threshold-rps", base.TrafficGaugeThresholdRPS, "traffic gauge alert threshold, requests/sec")

	return &ConfigManager{flags: fs}, nil
}

// SetDescription sets the flash-flags FlagSet's help description.
func (cm *ConfigManager) SetDescription(description string) *ConfigManager {
	cm.flags.SetDescription(description)
	return cm
}

// Parse parses args and returns the resulting Config with defaults
// applied to anything still unset.
func (cm *ConfigManager) Parse(args []string) (*Config, error) {
	if err := cm.flags.Parse(args); err != nil {
		return nil, err
	}

	cfg := &Config{
		FilePath:                 cm.flags.GetString("file-path"),
		ReadFromStart:            cm.flags.GetBool("read-from-start"),
		GeneralStatsPeriodSecs:   cm.flags.GetInt("general-stats-period-secs"),
		TrafficGaugePeriodSecs:   cm.flags.GetInt("traffic-gauge-period-secs"),
		TrafficGaugeThresholdRPS: cm.flags.GetFloat64("traffic-gauge-threshold-rps"),
	}
	return cfg.WithDefaults(), nil
}
