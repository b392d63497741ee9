// scheduler.go: tick-driven pipeline orchestration (spec §4.D)
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package pulse

import (
	"log"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	errors "github.com/agilira/go-errors"
	timecache "github.com/agilira/go-timecache"
	"github.com/fsnotify/fsnotify"
)

// schedulerState is the {new, running, stopped} state machine spec.md
// §4.D requires.
type schedulerState int32

const (
	stateNew schedulerState = iota
	stateRunning
	stateStopped
)

// Scheduler drives the pipeline: it owns the tick loop, the fsnotify
// directory watch, and the lifecycle of the ingestion and dispatch
// workers. The EventCache is the only state shared across all three
// workers.
type Scheduler struct {
	tailer     *Tailer
	cache      *EventCache
	dispatcher *Dispatcher
	audit      *AuditLogger
	config     Config

	watcher *fsnotify.Watcher
	queue   *watchQueue

	state atomic.Int32

	dataAvailable atomic.Bool
	tick          int64

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewScheduler constructs a Scheduler for tailer, applying cfg's defaults
// and building the audit logger from cfg.Audit.
func NewScheduler(tailer *Tailer, cfg Config) (*Scheduler, error) {
	full := *cfg.WithDefaults()

	audit, err := NewAuditLogger(full.Audit)
	if err != nil {
		return nil, errors.Wrap(err, ErrCodeInvalidConfig, "failed to create audit logger")
	}

	cache := NewEventCache()
	return &Scheduler{
		tailer:     tailer,
		cache:      cache,
		dispatcher: NewDispatcher(cache, audit),
		audit:      audit,
		config:     full,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}, nil
}

// Register adds a schedule to the dispatcher. Safe to call before or
// after Start.
func (s *Scheduler) Register(sched PeriodicSchedule) error {
	return s.dispatcher.Register(sched)
}

// IsRunning reports whether the scheduler is in the running state.
func (s *Scheduler) IsRunning() bool {
	return schedulerState(s.state.Load()) == stateRunning
}

// directoryAccessible reports whether path exists, is a directory, and
// is readable — the three failure modes spec.md §4.D step 6 names.
func directoryAccessible(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return errors.Wrap(err, ErrCodeDirectoryLost, "parent directory stat failed").WithContext("path", path)
	}
	if !info.IsDir() {
		return errors.New(ErrCodeDirectoryLost, "parent path is not a directory").WithContext("path", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, ErrCodeDirectoryLost, "parent directory not readable").WithContext("path", path)
	}
	_ = f.Close()
	return nil
}

// Start transitions new -> running: verifies the parent directory,
// registers the fsnotify watch, positions the tailer cursor, and starts
// the tick, ingestion, and dispatch workers.
func (s *Scheduler) Start() error {
	if !s.state.CompareAndSwap(int32(stateNew), int32(stateRunning)) {
		return errors.New(ErrCodeSchedulerBusy, "scheduler already running")
	}

	parent := filepath.Dir(s.tailer.Path())
	if err := directoryAccessible(parent); err != nil {
		s.state.Store(int32(stateStopped))
		close(s.doneCh)
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		s.state.Store(int32(stateStopped))
		close(s.doneCh)
		return errors.Wrap(err, ErrCodeWatchSetupFailed, "failed to create directory watcher")
	}
	if err := watcher.Add(parent); err != nil {
		_ = watcher.Close()
		s.state.Store(int32(stateStopped))
		close(s.doneCh)
		return errors.Wrap(err, ErrCodeWatchSetupFailed, "failed to watch parent directory").WithContext("path", parent)
	}
	s.watcher = watcher

	if s.config.ReadFromStart {
		s.tailer.MoveToStart()
	} else {
		s.tailer.MoveToEnd()
	}

	s.queue = newWatchQueue(s.config.WatchQueueCapacity, s.processWatchEvent)
	go s.queue.run()

	s.dispatcher.startWorker()

	s.tick = 1
	go s.runTickLoop()

	return nil
}

// Stop transitions running -> stopped and blocks until the tick loop and
// its workers have torn down. Returns an error if not currently running.
func (s *Scheduler) Stop() error {
	if !s.state.CompareAndSwap(int32(stateRunning), int32(stateStopped)) {
		return errors.New(ErrCodeSchedulerStopped, "scheduler not running")
	}
	s.requestStop()
	<-s.doneCh
	return nil
}

// JoinTasks waits up to timeoutMs for the scheduler to stop. It returns
// false immediately if the scheduler is already stopped (including by
// directory loss), true if the wait times out while still running.
func (s *Scheduler) JoinTasks(timeoutMs int) bool {
	select {
	case <-s.doneCh:
		return false
	default:
	}
	select {
	case <-s.doneCh:
		return false
	case <-time.After(time.Duration(timeoutMs) * time.Millisecond):
		return true
	}
}

func (s *Scheduler) requestStop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

// processWatchEvent is the ingestion worker's task body, invoked by
// watchQueue.run for every queued create/modify event.
func (s *Scheduler) processWatchEvent(ev watchEvent) {
	switch ev.kind {
	case watchEventCreate:
		s.cache.FullEvict()
		s.tailer.MoveToStart()
		events, err := s.tailer.FetchAvailableLines()
		if err != nil {
			log.Printf("pulse: ingestion after create: %v", err)
			return
		}
		if len(events) > 0 {
			s.cache.AddAll(events)
		}
		if s.cache.Size() > 0 {
			s.dataAvailable.Store(true)
		}
		if s.audit != nil {
			s.audit.LogLifecycle("file_create", s.tailer.Path(), map[string]any{"events": len(events)})
		}
	case watchEventModify:
		events, err := s.tailer.FetchAvailableLines()
		if err != nil {
			log.Printf("pulse: ingestion after modify: %v", err)
			return
		}
		if len(events) == 0 {
			return
		}
		s.cache.AddAll(events)
		if s.cache.Size() > 0 {
			s.dataAvailable.Store(true)
		}
	}
}

// handleWatchEvent maps one raw fsnotify event to spec.md §4.D step 3:
// CREATE and MODIFY are handed to the ingestion worker; DELETE is handled
// inline since it needs no file I/O.
func (s *Scheduler) handleWatchEvent(ev fsnotify.Event) {
	if !s.tailer.FileMatches(ev.Name) {
		return
	}

	switch {
	case ev.Op&fsnotify.Create != 0:
		if !s.queue.submit(watchEvent{kind: watchEventCreate}) {
			log.Printf("pulse: ingestion queue full, dropped create event for %s", ev.Name)
		}
	case ev.Op&fsnotify.Remove != 0 || ev.Op&fsnotify.Rename != 0:
		s.cache.FullEvict()
		s.tailer.MoveToStart()
		s.dataAvailable.Store(false)
		if s.audit != nil {
			s.audit.LogLifecycle("file_delete", ev.Name, nil)
		}
	case ev.Op&fsnotify.Write != 0:
		if !s.queue.submit(watchEvent{kind: watchEventModify}) {
			log.Printf("pulse: ingestion queue full, dropped modify event for %s", ev.Name)
		}
	default:
		log.Printf("pulse: unrecognized watch event %v for %s", ev.Op, ev.Name)
	}
}

// runTickLoop is the tick loop worker: poll the watch with a bounded
// timeout, handle at most one fs event per iteration, drift-compensate
// the ~1s cadence, dispatch when data is available, and check parent
// directory liveness.
func (s *Scheduler) runTickLoop() {
	defer s.teardown()

	adjustment := 10
	parent := filepath.Dir(s.tailer.Path())

	for {
		select {
		case <-s.stopCh:
			return
		default:
		}

		t0 := timecache.CachedTimeNano() / int64(time.Millisecond)

		timeout := time.Duration(1000-adjustment) * time.Millisecond
		if timeout < 0 {
			timeout = 0
		}
		timer := time.NewTimer(timeout)

		select {
		case <-s.stopCh:
			timer.Stop()
			return
		case ev, ok := <-s.watcher.Events:
			timer.Stop()
			if !ok {
				if s.audit != nil {
					s.audit.LogCritical("watch_closed", parent, nil)
				}
				s.state.CompareAndSwap(int32(stateRunning), int32(stateStopped))
				s.requestStop()
				return
			}
			s.handleWatchEvent(ev)
		case watchErr, ok := <-s.watcher.Errors:
			timer.Stop()
			if ok {
				log.Printf("pulse: watch error: %v", watchErr)
			}
		case <-timer.C:
		}

		now := timecache.CachedTimeNano() / int64(time.Millisecond)
		elapsed := now - t0
		if elapsed < 1000 {
			if sleepMs := 999 - elapsed; sleepMs > 0 {
				time.Sleep(time.Duration(sleepMs) * time.Millisecond)
			}
			adjustment -= 2
			if adjustment < 0 {
				adjustment = 0
			}
		} else if elapsed > 1000 {
			adjustment += int(elapsed - 1000)
		}

		if s.dataAvailable.Load() {
			s.dispatcher.Dispatch(s.tick)
			s.tick++
		}

		if err := directoryAccessible(parent); err != nil {
			if s.audit != nil {
				s.audit.LogCritical("directory_lost", parent, map[string]any{"error": err.Error()})
			}
			s.state.CompareAndSwap(int32(stateRunning), int32(stateStopped))
			s.requestStop()
			return
		}
	}
}

// teardown releases the watcher, ingestion queue, and dispatch worker,
// then signals doneCh. Runs exactly once per Scheduler, regardless of
// which path triggered the tick loop's exit.
func (s *Scheduler) teardown() {
	if s.watcher != nil {
		_ = s.watcher.Close()
	}
	if s.queue != nil {
		s.queue.stop()
	}
	s.dispatcher.stopWorker()
	if s.audit != nil {
		_ = s.audit.Close()
	}
	close(s.doneCh)
}
