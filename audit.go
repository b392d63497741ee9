// audit.go: lifecycle audit trail for the tailer and dispatcher
//
// Every state transition that matters for forensic replay — file create,
// file delete, directory loss, watch shutdown, cache evictions, schedule
// panics — is recorded here with a tamper-detection checksum, buffered and
// flushed to a pluggable backend (see audit_backend.go).
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package pulse

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	timecache "github.com/agilira/go-timecache"
)

// AuditLevel represents the severity of an audit event.
type AuditLevel int

const (
	AuditInfo AuditLevel = iota
	AuditWarn
	AuditCritical
)

func (al AuditLevel) String() string {
	switch al {
	case AuditInfo:
		return "INFO"
	case AuditWarn:
		return "WARN"
	case AuditCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// AuditEvent is one lifecycle record: a tailer or dispatcher transition
// plus whatever free-form context it carries.
type AuditEvent struct {
	Timestamp   time.Time      `json:"timestamp"`
	Level       AuditLevel     `json:"level"`
	Event       string         `json:"event"`
	FilePath    string         `json:"file_path,omitempty"`
	ProcessID   int            `json:"process_id"`
	ProcessName string         `json:"process_name"`
	Context     map[string]any `json:"context,omitempty"`
	Checksum    string         `json:"checksum"`
}

// AuditConfig configures the audit system.
type AuditConfig struct {
	Enabled       bool          `json:"enabled"`
	OutputFile    string        `json:"output_file"`
	MinLevel      AuditLevel    `json:"min_level"`
	BufferSize    int           `json:"buffer_size"`
	FlushInterval time.Duration `json:"flush_interval"`
}

// DefaultAuditConfig returns the default audit configuration: enabled,
// JSONL output under the OS temp directory.
func DefaultAuditConfig() AuditConfig {
	return AuditConfig{
		Enabled:       true,
		OutputFile:    filepath.Join(os.TempDir(), "pulse", "audit.jsonl"),
		MinLevel:      AuditInfo,
		BufferSize:    256,
		FlushInterval: 5 * time.Second,
	}
}

// AuditLogger buffers AuditEvents and periodically flushes them to a
// backend (sqliteAuditBackend or jsonlAuditBackend).
type AuditLogger struct {
	config      AuditConfig
	backend     auditBackend
	buffer      []AuditEvent
	bufferMu    sync.Mutex
	flushTicker *time.Ticker
	stopCh      chan struct{}
	processID   int
	processName string
}

// NewAuditLogger creates an audit logger. If config.Enabled is false, the
// logger is a no-op: Log calls are dropped cheaply without touching disk.
func NewAuditLogger(config AuditConfig) (*AuditLogger, error) {
	logger := &AuditLogger{
		config:      config,
		buffer:      make([]AuditEvent, 0, config.BufferSize),
		stopCh:      make(chan struct{}),
		processID:   os.Getpid(),
		processName: "pulse",
	}

	if config.Enabled {
		backend, err := createAuditBackend(config)
		if err != nil {
			return nil, fmt.Errorf("failed to create audit backend: %w", err)
		}
		logger.backend = backend
	}

	if config.FlushInterval > 0 {
		logger.flushTicker = time.NewTicker(config.FlushInterval)
		go logger.flushLoop()
	}

	return logger, nil
}

// Log records an audit event if enabled and at or above MinLevel.
func (al *AuditLogger) Log(level AuditLevel, event, filePath string, context map[string]any) {
	if al == nil || !al.config.Enabled || level < al.config.MinLevel {
		return
	}

	ts := timecache.CachedTime()
	ae := AuditEvent{
		Timestamp:   ts,
		Level:       level,
		Event:       event,
		FilePath:    filePath,
		ProcessID:   al.processID,
		ProcessName: al.processName,
		Context:     context,
	}
	ae.Checksum = al.generateChecksum(ae)

	al.bufferMu.Lock()
	al.buffer = append(al.buffer, ae)
	if len(al.buffer) >= al.config.BufferSize {
		_ = al.flushBufferUnsafe()
	}
	al.bufferMu.Unlock()
}

// LogLifecycle is the convenience entry point used by the dispatcher and
// scheduler for INFO-level lifecycle transitions (file_create,
// file_delete, cache_evict, schedule_failed).
func (al *AuditLogger) LogLifecycle(event, filePath string, context map[string]any) {
	al.Log(AuditInfo, event, filePath, context)
}

// LogWarning records a WARN-level event. No code in this module calls it;
// parse errors and throttles are reported through the log package only.
func (al *AuditLogger) LogWarning(event, filePath string, context map[string]any) {
	al.Log(AuditWarn, event, filePath, context)
}

// LogCritical records a CRITICAL-level event, used for conditions that
// stop the pipeline (directory_lost, watch_closed).
func (al *AuditLogger) LogCritical(event, filePath string, context map[string]any) {
	al.Log(AuditCritical, event, filePath, context)
}

// Flush immediately writes all buffered events to the backend.
func (al *AuditLogger) Flush() error {
	if al == nil {
		return nil
	}
	al.bufferMu.Lock()
	defer al.bufferMu.Unlock()
	return al.flushBufferUnsafe()
}

// Close stops the background flusher, performs a final flush, and closes
// the backend.
func (al *AuditLogger) Close() error {
	if al == nil {
		return nil
	}
	close(al.stopCh)
	if al.flushTicker != nil {
		al.flushTicker.Stop()
	}
	if err := al.Flush(); err != nil {
		return err
	}
	if al.backend != nil {
		return al.backend.Close()
	}
	return nil
}

func (al *AuditLogger) flushLoop() {
	for {
		select {
		case <-al.flushTicker.C:
			_ = al.Flush()
		case <-al.stopCh:
			return
		}
	}
}

// flushBufferUnsafe writes the buffer to the backend. Caller must hold bufferMu.
func (al *AuditLogger) flushBufferUnsafe() error {
	if len(al.buffer) == 0 || al.backend == nil {
		return nil
	}
	if err := al.backend.Write(al.buffer); err != nil {
		return err
	}
	al.buffer = al.buffer[:0]
	return al.backend.Flush()
}

// generateChecksum produces a SHA-256 tamper-detection digest over the
// event's identifying fields.
func (al *AuditLogger) generateChecksum(event AuditEvent) string {
	data := fmt.Sprintf("%s:%s:%s:%v",
		event.Timestamp.Format(time.RFC3339Nano), event.Event, event.FilePath, event.Context)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}
