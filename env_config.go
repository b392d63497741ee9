// env_config.go: environment variable configuration for pulse
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package pulse

import (
	"os"
	"strconv"
	"strings"
	"time"

	errors "github.com/agilira/go-errors"
)

// EnvConfig mirrors Config's fields as environment-variable bindings,
// following the teacher's grouped env-loader pattern.
type EnvConfig struct {
	FilePath                 string        `env:"PULSE_FILE_PATH"`
	ReadFromStart            bool          `env:"PULSE_READ_FROM_START"`
	GeneralStatsPeriodSecs   int           `env:"PULSE_GENERAL_STATS_PERIOD_SECS"`
	TrafficGaugePeriodSecs   int           `env:"PULSE_TRAFFIC_GAUGE_PERIOD_SECS"`
	TrafficGaugeThresholdRPS float64       `env:"PULSE_TRAFFIC_GAUGE_THRESHOLD_RPS"`
	WatchQueueCapacity       int64         `env:"PULSE_WATCH_QUEUE_CAPACITY"`

	AuditEnabled       bool          `env:"PULSE_AUDIT_ENABLED"`
	AuditOutputFile    string        `env:"PULSE_AUDIT_OUTPUT_FILE"`
	AuditMinLevel      string        `env:"PULSE_AUDIT_MIN_LEVEL"`
	AuditBufferSize    int           `env:"PULSE_AUDIT_BUFFER_SIZE"`
	AuditFlushInterval time.Duration `env:"PULSE_AUDIT_FLUSH_INTERVAL"`
}

// LoadConfigFromEnv loads a Config from PULSE_* environment variables,
// applying defaults for anything left unset.
func LoadConfigFromEnv() (*Config, error) {
	config := &Config{}
	envConfig := &EnvConfig{}

	if err := loadEnvVars(envConfig); err != nil {
		return nil, errors.Wrap(err, ErrCodeInvalidConfig, "failed to load environment configuration")
	}
	if err := convertEnvToConfig(envConfig, config); err != nil {
		return nil, errors.Wrap(err, ErrCodeInvalidConfig, "failed to convert environment configuration")
	}

	return config.WithDefaults(), nil
}

func loadEnvVars(envConfig *EnvConfig) error {
	loadCoreConfig(envConfig)
	if err := loadAuditConfig(envConfig); err != nil {
		return err
	}
	return nil
}

func loadCoreConfig(envConfig *EnvConfig) {
	envConfig.FilePath = os.Getenv("PULSE_FILE_PATH")

	if v := os.Getenv("PULSE_READ_FROM_START"); v != "" {
		envConfig.ReadFromStart = parseBool(v)
	}
	if v := os.Getenv("PULSE_GENERAL_STATS_PERIOD_SECS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			envConfig.GeneralStatsPeriodSecs = n
		}
	}
	if v := os.Getenv("PULSE_TRAFFIC_GAUGE_PERIOD_SECS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			envConfig.TrafficGaugePeriodSecs = n
		}
	}
	if v := os.Getenv("PULSE_TRAFFIC_GAUGE_THRESHOLD_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			envConfig.TrafficGaugeThresholdRPS = f
		}
	}
	if v := os.Getenv("PULSE_WATCH_QUEUE_CAPACITY"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			envConfig.WatchQueueCapacity = n
		}
	}
}

func loadAuditConfig(envConfig *EnvConfig) error {
	if v := os.Getenv("PULSE_AUDIT_ENABLED"); v != "" {
		envConfig.AuditEnabled = parseBool(v)
	}
	envConfig.AuditOutputFile = os.Getenv("PULSE_AUDIT_OUTPUT_FILE")
	envConfig.AuditMinLevel = os.Getenv("PULSE_AUDIT_MIN_LEVEL")

	if v := os.Getenv("PULSE_AUDIT_BUFFER_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return errors.New(ErrCodeInvalidConfig, "invalid PULSE_AUDIT_BUFFER_SIZE value")
		}
		envConfig.AuditBufferSize = n
	}
	if v := os.Getenv("PULSE_AUDIT_FLUSH_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.New(ErrCodeInvalidConfig, "invalid PULSE_AUDIT_FLUSH_INTERVAL format")
		}
		envConfig.AuditFlushInterval = d
	}
	return nil
}

func convertEnvToConfig(envConfig *EnvConfig, config *Config) error {
	config.FilePath = envConfig.FilePath
	config.ReadFromStart = envConfig.ReadFromStart
	config.GeneralStatsPeriodSecs = envConfig.GeneralStatsPeriodSecs
	config.TrafficGaugePeriodSecs = envConfig.TrafficGaugePeriodSecs
	config.TrafficGaugeThresholdRPS = envConfig.TrafficGaugeThresholdRPS
	config.WatchQueueCapacity = envConfig.WatchQueueCapacity

	if envConfig.AuditEnabled || envConfig.AuditOutputFile != "" {
		config.Audit.Enabled = envConfig.AuditEnabled
		if envConfig.AuditOutputFile != "" {
			config.Audit.OutputFile = envConfig.AuditOutputFile
		}
		if envConfig.AuditMinLevel != "" {
			level, err := parseAuditLevel(envConfig.AuditMinLevel)
			if err != nil {
				return err
			}
			config.Audit.MinLevel = level
		}
		if envConfig.AuditBufferSize > 0 {
			config.Audit.BufferSize = envConfig.AuditBufferSize
		}
		if envConfig.AuditFlushInterval > 0 {
			config.Audit.FlushInterval = envConfig.AuditFlushInterval
		}
	}
	return nil
}

func parseAuditLevel(levelStr string) (AuditLevel, error) {
	switch strings.ToLower(levelStr) {
	case "info":
		return AuditInfo, nil
	case "warn", "warning":
		return AuditWarn, nil
	case "critical", "error":
		return AuditCritical, nil
	default:
		return AuditInfo, errors.New(ErrCodeInvalidConfig, "invalid audit level")
	}
}

// parseBool parses boolean-ish environment values: true/false, 1/0,
// yes/no, on/off, enabled/disabled.
func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes", "on", "enabled":
		return true
	default:
		return false
	}
}

// GetEnvWithDefault returns the environment variable's value, or
// defaultValue if unset or empty.
func GetEnvWithDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
