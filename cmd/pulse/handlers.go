// handlers.go: command handler implementations for the pulse CLI
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0
package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	errors "github.com/agilira/go-errors"
	"github.com/agilira/orpheus/pkg/orpheus"
	"github.com/agilira/pulse"
	"github.com/agilira/pulse/clf"
	"github.com/agilira/pulse/schedules"
)

// ErrCodeInvalidFlag marks a CLI flag value that failed to parse.
const ErrCodeInvalidFlag = "PULSE_CLI_INVALID_FLAG"

// buildConfig resolves a pulse.Config from the "run" command's flags,
// layered over PULSE_* environment variables and compiled-in defaults
// (env and defaults via LoadConfigFromEnv, flags taking final precedence,
// mirroring the teacher's flags > env > file > defaults ordering).
func buildConfig(ctx *orpheus.Context) (pulse.Config, error) {
	cfg, err := pulse.LoadConfigFromEnv()
	if err != nil {
		return pulse.Config{}, errors.Wrap(err, ErrCodeInvalidFlag, "failed to load environment configuration")
	}

	if v := ctx.GetFlagString("file-path"); v != "" {
		cfg.FilePath = v
	}
	cfg.ReadFromStart = ctx.GetFlagBool("read-from-start")
	if v := ctx.GetFlagInt("general-stats-period-secs"); v > 0 {
		cfg.GeneralStatsPeriodSecs = v
	}
	if v := ctx.GetFlagInt("traffic-gauge-period-secs"); v > 0 {
		cfg.TrafficGaugePeriodSecs = v
	}
	if v := ctx.GetFlagString("traffic-gauge-threshold-rps"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return pulse.Config{}, errors.Wrap(err, ErrCodeInvalidFlag, "invalid traffic-gauge-threshold-rps").WithContext("value", v)
		}
		cfg.TrafficGaugeThresholdRPS = rps
	}

	return *cfg.WithDefaults(), nil
}

// handleRun starts the tailing pipeline and blocks until interrupted or
// until the scheduler stops itself (e.g. the watched directory vanishes).
func (m *Manager) handleRun(ctx *orpheus.Context) error {
	cfg, err := buildConfig(ctx)
	if err != nil {
		return err
	}

	thresholdsFile := ctx.GetFlagString("thresholds-file")
	thresholds, err := schedules.LoadThresholds(thresholdsFile)
	if err != nil {
		return err
	}
	if thresholdsFile == "" {
		thresholds.TrafficGaugeThresholdRPS = cfg.TrafficGaugeThresholdRPS
	}

	tailer := pulse.NewTailer(cfg.FilePath, clf.Parser{})

	sched, err := pulse.NewScheduler(tailer, cfg)
	if err != nil {
		return errors.Wrap(err, ErrCodeInvalidFlag, "failed to construct scheduler")
	}

	generalStats := schedules.NewGeneralStats("general-stats", cfg.GeneralStatsPeriodSecs, thresholds.GeneralStatsByteThreshold,
		func(periodStart, periodEnd int64, eventCount int, totalBytes int64) {
			fmt.Printf("[general-stats] window=[%d,%d) events=%d bytes=%d\n", periodStart, periodEnd, eventCount, totalBytes)
		})
	if err := sched.Register(generalStats); err != nil {
		return errors.Wrap(err, ErrCodeInvalidFlag, "failed to register general-stats schedule")
	}

	trafficGauge := schedules.NewTrafficGauge("traffic-gauge", cfg.TrafficGaugePeriodSecs, thresholds.TrafficGaugeThresholdRPS,
		func(t schedules.Transition) {
			state := "normal"
			if t.High {
				state = "high"
			}
			fmt.Printf("[traffic-gauge] second=%d state=%s average=%.2f\n", t.Second, state, t.Average)
		})
	if err := sched.Register(trafficGauge); err != nil {
		return errors.Wrap(err, ErrCodeInvalidFlag, "failed to register traffic-gauge schedule")
	}

	if err := sched.Start(); err != nil {
		return errors.Wrap(err, ErrCodeInvalidFlag, "failed to start scheduler")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	stopped := make(chan struct{})
	go func() {
		for sched.JoinTasks(1000) {
		}
		close(stopped)
	}()

	fmt.Printf("pulse: tailing %s (ctrl-c to stop)\n", cfg.FilePath)
	select {
	case <-sigCh:
		return sched.Stop()
	case <-stopped:
		return nil
	}
}

// handleInfo prints version and, with --verbose, the resolved
// configuration that "run" would use.
func (m *Manager) handleInfo(ctx *orpheus.Context) error {
	fmt.Println("pulse - soft-real-time log tailing and schedule dispatch")
	fmt.Println("Version: 1.0.0")

	if !ctx.GetFlagBool("verbose") {
		return nil
	}

	cfg, err := pulse.LoadConfigFromEnv()
	if err != nil {
		return errors.Wrap(err, ErrCodeInvalidFlag, "failed to load environment configuration")
	}
	full := cfg.WithDefaults()

	fmt.Println("\nResolved configuration:")
	fmt.Printf("  file-path:                     %s\n", full.FilePath)
	fmt.Printf("  read-from-start:               %v\n", full.ReadFromStart)
	fmt.Printf("  general-stats-period-secs:     %d\n", full.GeneralStatsPeriodSecs)
	fmt.Printf("  traffic-gauge-period-secs:     %d\n", full.TrafficGaugePeriodSecs)
	fmt.Printf("  traffic-gauge-threshold-rps:   %.2f\n", full.TrafficGaugeThresholdRPS)
	fmt.Printf("  watch-queue-capacity:          %d\n", full.WatchQueueCapacity)
	fmt.Printf("  audit-enabled:                 %v\n", full.Audit.Enabled)

	return nil
}
