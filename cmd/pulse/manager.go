// manager.go: Orpheus-powered command routing for the pulse CLI
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0
package main

import (
	"github.com/agilira/orpheus/pkg/orpheus"
)

// Manager orchestrates the pulse CLI's subcommands.
type Manager struct {
	app *orpheus.App
}

// NewManager builds the CLI: a "run" command that starts the tailing
// pipeline and blocks until signalled, and an "info" command for
// diagnostics.
func NewManager() *Manager {
	app := orpheus.New("pulse").
		SetDescription("Tails a log file and dispatches sliding windows of events to periodic schedules").
		SetVersion("1.0.0")

	m := &Manager{app: app}
	m.setupRunCommand()
	m.setupInfoCommand()
	return m
}

// Run executes the CLI with the given arguments (normally os.Args[1:]).
func (m *Manager) Run(args []string) error {
	return m.app.Run(args)
}

func (m *Manager) setupRunCommand() {
	runCmd := orpheus.NewCommand("run", "Start tailing the configured log file")
	runCmd.SetHandler(m.handleRun)
	runCmd.AddFlag("file-path", "f", "/tmp/access.log", "Log file to tail")
	runCmd.AddBoolFlag("read-from-start", "s", false, "Start at offset 0 instead of tailing from the end")
	runCmd.AddIntFlag("general-stats-period-secs", "g", 10, "General stats schedule period, seconds")
	runCmd.AddIntFlag("traffic-gauge-period-secs", "t", 120, "Traffic gauge schedule period, seconds")
	runCmd.AddFlag("traffic-gauge-threshold-rps", "r", "10.0", "Traffic gauge alert threshold, requests/sec")
	runCmd.AddFlag("thresholds-file", "", "", "Optional YAML file overriding schedule thresholds")
	m.app.AddCommand(runCmd)
}

func (m *Manager) setupInfoCommand() {
	infoCmd := orpheus.NewCommand("info", "Print configuration and version diagnostics")
	infoCmd.SetHandler(m.handleInfo)
	infoCmd.AddBoolFlag("verbose", "v", false, "Include resolved configuration values")
	m.app.AddCommand(infoCmd)
}
