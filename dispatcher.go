// dispatcher.go: period-sorted schedule registry and per-tick dispatch (spec §4.C)
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package pulse

import (
	"log"
	"sort"
	"sync"

	errors "github.com/agilira/go-errors"
	timecache "github.com/agilira/go-timecache"
)

// dispatchTask is one queued unit of serial work: either a schedule
// execution or the cache eviction that must follow the longest schedule.
type dispatchTask func()

// Dispatcher maintains registered schedules ordered by ascending period
// and, once per tick, determines which are ready, assembles each ready
// schedule's window from the cache, and runs them in ascending-period
// order on a single serial worker — generalized from boreaslite.go's
// fixed-size ring-buffer consumer loop to a channel of closures, since a
// schedule's Execute call carries a variably-shaped window rather than a
// fixed 128-byte record.
type Dispatcher struct {
	cache *EventCache
	audit *AuditLogger

	mu        sync.Mutex
	schedules []PeriodicSchedule

	lastEvictTick int64

	work    chan dispatchTask
	done    chan struct{}
	started bool
}

// NewDispatcher constructs a Dispatcher bound to cache.
func NewDispatcher(cache *EventCache, audit *AuditLogger) *Dispatcher {
	return &Dispatcher{
		cache: cache,
		audit: audit,
		work:  make(chan dispatchTask, 64),
		done:  make(chan struct{}),
	}
}

// Register validates and adds a schedule, re-sorting the registry by
// ascending PeriodSecs (ties broken by registration order). Safe to call
// before or after the serial worker has started.
func (d *Dispatcher) Register(s PeriodicSchedule) error {
	if s.PeriodSecs() <= 0 {
		return errors.New(ErrCodeInvalidSchedule, "period_secs must be > 0").
			WithContext("schedule", s.Name())
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.schedules = append(d.schedules, s)
	sort.SliceStable(d.schedules, func(i, j int) bool {
		return d.schedules[i].PeriodSecs() < d.schedules[j].PeriodSecs()
	})
	return nil
}

// startWorker launches the serial dispatch worker. Call once, before the
// first Dispatch.
func (d *Dispatcher) startWorker() {
	go func() {
		defer close(d.done)
		for task := range d.work {
			task()
		}
	}()
	d.started = true
}

// stopWorker closes the work queue and waits for the serial worker to
// drain it.
func (d *Dispatcher) stopWorker() {
	if !d.started {
		return
	}
	close(d.work)
	<-d.done
}

// Dispatch runs the spec.md §4.C algorithm for one tick: compute the
// ready set, assemble each ready schedule's window, submit executions (in
// ascending-period order) to the serial worker, and submit the coupled
// cache eviction after the longest ready schedule.
func (d *Dispatcher) Dispatch(tick int64) {
	d.mu.Lock()
	schedules := append([]PeriodicSchedule(nil), d.schedules...)
	d.mu.Unlock()

	if len(schedules) == 0 {
		return
	}

	type readyEntry struct {
		schedule  PeriodicSchedule
		isLongest bool
	}

	var ready []readyEntry
	longestIdx := len(schedules) - 1 // schedules is sorted ascending; ties keep registration order, so the last equal-period entry is here
	for i, s := range schedules {
		if tick%int64(s.PeriodSecs()) == 0 {
			ready = append(ready, readyEntry{schedule: s, isLongest: i == longestIdx})
		}
	}
	if len(ready) == 0 {
		return
	}
	longest := schedules[longestIdx]

	cacheEmpty := d.cache.Size() == 0
	canEvictNow := !cacheEmpty && tick%int64(longest.PeriodSecs()) == 0

	justAfterEvict := tick == d.lastEvictTick+1
	if canEvictNow {
		d.lastEvictTick = tick
	}

	for _, re := range ready {
		s, isLongest := re.schedule, re.isLongest

		var periodStart, periodEnd int64
		var useNow bool
		if isLongest || s.LastSeenTs() == 0 || justAfterEvict {
			periodStart = d.cache.FirstTimestamp()
		} else {
			periodStart = d.cache.FirstTimestampSince(s.LastSeenTs())
		}

		var events []Event
		if periodStart == noTimestamp {
			useNow = true
		} else {
			periodEnd = periodStart + int64(s.PeriodSecs()-1)*1000
			events = d.cache.Fetch(periodStart, periodEnd)
		}

		d.work <- func() {
			start, end := periodStart, periodEnd
			if useNow {
				start = timecache.CachedTimeNano() / int64(1_000_000)
				end = start
			}
			d.execute(s, start, end, events)
			if isLongest && canEvictNow {
				d.cache.Evict(len(events))
				if d.audit != nil {
					d.audit.LogLifecycle("cache_evict", "", map[string]any{
						"tick": tick, "schedule": s.Name(), "evicted": len(events),
					})
				}
			}
		}
	}
}

// execute runs one schedule, recovering from and logging any panic so a
// misbehaving schedule cannot stop the dispatch worker (the analogue of
// spec.md §7's "schedule's execute raised: log, continue").
func (d *Dispatcher) execute(s PeriodicSchedule, periodStart, periodEnd int64, events []Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("pulse: schedule %q panicked: %v", s.Name(), r)
			if d.audit != nil {
				d.audit.LogLifecycle("schedule_failed", "", map[string]any{
					"schedule": s.Name(), "panic": r,
				})
			}
		}
	}()
	s.Execute(periodStart, periodEnd, events)
}
