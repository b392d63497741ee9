// traffic_gauge.go: running-average high-traffic detector
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0
package schedules

import (
	"sort"
	"sync"

	"github.com/agilira/pulse"
)

// Transition records one crossing of TrafficGauge's threshold.
type Transition struct {
	Second  int
	High    bool
	Average float64
}

// TrafficGauge maintains a cumulative requests-per-second running
// average across every second of events it has ever observed, and
// reports a Transition each time that average crosses ThresholdRPS.
// Grounded on spec.md §8 scenario 3.
//
// The period_secs argument governs only how often the dispatcher calls
// Execute (spec.md §4.C); the running average itself is cumulative over
// the gauge's full lifetime, not windowed to one period, per the worked
// example in scenario 3.
type TrafficGauge struct {
	name         string
	periodSecs   int
	thresholdRPS float64
	onTransition func(Transition)

	mu              sync.Mutex
	lastSeenTs      int64
	secondsObserved int
	totalCount      int64
	high            bool
	transitions     []Transition
}

// NewTrafficGauge constructs a TrafficGauge schedule. onTransition may be
// nil; transitions are always recorded and retrievable via Transitions.
func NewTrafficGauge(name string, periodSecs int, thresholdRPS float64, onTransition func(Transition)) *TrafficGauge {
	return &TrafficGauge{
		name:         name,
		periodSecs:   periodSecs,
		thresholdRPS: thresholdRPS,
		onTransition: onTransition,
	}
}

// Name implements pulse.PeriodicSchedule.
func (g *TrafficGauge) Name() string { return g.name }

// PeriodSecs implements pulse.PeriodicSchedule.
func (g *TrafficGauge) PeriodSecs() int { return g.periodSecs }

// LastSeenTs implements pulse.PeriodicSchedule.
func (g *TrafficGauge) LastSeenTs() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastSeenTs
}

// Transitions returns a copy of every threshold crossing observed so far.
func (g *TrafficGauge) Transitions() []Transition {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Transition, len(g.transitions))
	copy(out, g.transitions)
	return out
}

// Execute implements pulse.PeriodicSchedule: it buckets events by the
// second they fall in, then folds each second (in order) into the
// cumulative running average, emitting a Transition whenever the average
// moves to the opposite side of thresholdRPS.
func (g *TrafficGauge) Execute(periodStart, periodEnd int64, events []pulse.Event) {
	if len(events) == 0 {
		return
	}

	buckets := make(map[int64]int64)
	for _, e := range events {
		sec := e.TimestampMillis / 1000
		buckets[sec]++
	}
	seconds := make([]int64, 0, len(buckets))
	for sec := range buckets {
		seconds = append(seconds, sec)
	}
	sort.Slice(seconds, func(i, j int) bool { return seconds[i] < seconds[j] })

	g.mu.Lock()
	var fired []Transition
	for _, sec := range seconds {
		g.secondsObserved++
		g.totalCount += buckets[sec]
		avg := float64(g.totalCount) / float64(g.secondsObserved)

		wasHigh := g.high
		g.high = avg > g.thresholdRPS
		if g.high != wasHigh {
			t := Transition{Second: g.secondsObserved, High: g.high, Average: avg}
			g.transitions = append(g.transitions, t)
			fired = append(fired, t)
		}
	}
	g.lastSeenTs = events[len(events)-1].TimestampMillis
	g.mu.Unlock()

	if g.onTransition != nil {
		for _, t := range fired {
			g.onTransition(t)
		}
	}
}
