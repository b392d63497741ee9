// errors.go: Error codes for the pulse tailing and dispatch pipeline
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package pulse

// Error codes returned (wrapped) via github.com/agilira/go-errors across
// the cache, tailer, dispatcher and scheduler.
const (
	ErrCodeInvalidConfig    = "PULSE_INVALID_CONFIG"
	ErrCodeInvalidSchedule  = "PULSE_INVALID_SCHEDULE"
	ErrCodeTailerIOError    = "PULSE_TAILER_IO_ERROR"
	ErrCodeFileNotFound     = "PULSE_FILE_NOT_FOUND"
	ErrCodeSchedulerBusy    = "PULSE_SCHEDULER_BUSY"
	ErrCodeSchedulerStopped = "PULSE_SCHEDULER_STOPPED"
	ErrCodeDirectoryLost    = "PULSE_DIRECTORY_LOST"
	ErrCodeWatchSetupFailed = "PULSE_WATCH_SETUP_FAILED"
)
