// dispatcher_test.go
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0
package pulse

import (
	"sync"
	"testing"
	"time"
)

type fakeSchedule struct {
	name       string
	periodSecs int

	mu         sync.Mutex
	lastSeenTs int64
	calls      []fakeCall
	onExecute  func(periodStart, periodEnd int64, events []Event)
}

type fakeCall struct {
	periodStart, periodEnd int64
	eventCount             int
}

func newFakeSchedule(name string, periodSecs int) *fakeSchedule {
	return &fakeSchedule{name: name, periodSecs: periodSecs}
}

func (f *fakeSchedule) Name() string      { return f.name }
func (f *fakeSchedule) PeriodSecs() int   { return f.periodSecs }
func (f *fakeSchedule) LastSeenTs() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastSeenTs
}

func (f *fakeSchedule) Execute(periodStart, periodEnd int64, events []Event) {
	f.mu.Lock()
	f.calls = append(f.calls, fakeCall{periodStart, periodEnd, len(events)})
	if len(events) > 0 {
		f.lastSeenTs = events[len(events)-1].TimestampMillis
	}
	cb := f.onExecute
	f.mu.Unlock()
	if cb != nil {
		cb(periodStart, periodEnd, events)
	}
}

func (f *fakeSchedule) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestDispatcherRegisterRejectsNonPositivePeriod(t *testing.T) {
	d := NewDispatcher(NewEventCache(), nil)
	if err := d.Register(newFakeSchedule("bad", 0)); err == nil {
		t.Fatalf("expected an error registering a schedule with period_secs <= 0")
	}
}

func TestDispatcherRegisterSortsByAscendingPeriod(t *testing.T) {
	d := NewDispatcher(NewEventCache(), nil)
	slow := newFakeSchedule("slow", 30)
	fast := newFakeSchedule("fast", 5)
	if err := d.Register(slow); err != nil {
		t.Fatalf("Register slow: %v", err)
	}
	if err := d.Register(fast); err != nil {
		t.Fatalf("Register fast: %v", err)
	}
	if d.schedules[0].Name() != "fast" || d.schedules[1].Name() != "slow" {
		t.Fatalf("expected schedules sorted ascending by period, got %v, %v", d.schedules[0].Name(), d.schedules[1].Name())
	}
}

func TestDispatcherDispatchFiresOnlyReadySchedules(t *testing.T) {
	cache := NewEventCache()
	cache.AddAll([]Event{evAt(1000), evAt(2000), evAt(3000), evAt(4000), evAt(5000)})

	d := NewDispatcher(cache, nil)
	fast := newFakeSchedule("fast", 1)
	slow := newFakeSchedule("slow", 5)
	_ = d.Register(fast)
	_ = d.Register(slow)

	d.startWorker()
	defer d.stopWorker()

	d.Dispatch(3)
	waitForCalls(t, fast, 1)
	if slow.callCount() != 0 {
		t.Fatalf("expected the period-5 schedule not to fire on tick 3")
	}

	d.Dispatch(5)
	waitForCalls(t, slow, 1)
}

func TestDispatcherDispatchEvictsAfterLongestSchedule(t *testing.T) {
	cache := NewEventCache()
	cache.AddAll([]Event{evAt(1000)})

	d := NewDispatcher(cache, nil)
	only := newFakeSchedule("only", 1)
	_ = d.Register(only)

	d.startWorker()
	d.Dispatch(1)
	waitForCalls(t, only, 1)
	d.stopWorker()

	if cache.Size() != 0 {
		t.Fatalf("expected the cache to be evicted after the only (and therefore longest) schedule ran, got size %d", cache.Size())
	}
}

func TestDispatcherExecuteRecoversFromPanic(t *testing.T) {
	cache := NewEventCache()
	cache.AddAll([]Event{evAt(1000)})

	d := NewDispatcher(cache, nil)
	panicky := newFakeSchedule("panicky", 1)
	panicky.onExecute = func(int64, int64, []Event) { panic("boom") }
	survivor := newFakeSchedule("survivor", 1)
	_ = d.Register(panicky)
	_ = d.Register(survivor)

	d.startWorker()
	defer d.stopWorker()

	d.Dispatch(1)
	waitForCalls(t, survivor, 1)
}

func waitForCalls(t *testing.T, f *fakeSchedule, want int) {
	t.Helper()
	for i := 0; i < 1000; i++ {
		if f.callCount() >= want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("schedule %q did not receive %d call(s) in time (got %d)", f.name, want, f.callCount())
}
