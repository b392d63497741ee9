// Package schedules provides reference pulse.PeriodicSchedule
// implementations: GeneralStats (byte/event counting with a threshold
// alert) and TrafficGauge (running-average high-traffic detector). Both
// are the concrete "reporters/alerters" spec.md §1 names as external
// collaborators the core dispatches to but never inspects.
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0
package schedules

import (
	"sync"

	"github.com/agilira/pulse"
)

// GeneralStats counts events and total bytes observed in each of its
// periods, invoking onAlert whenever the period's total bytes exceeds
// ByteThreshold. Grounded on spec.md §8 scenario 2 ("two alerts,
// differing periods... each counting bytes... both exceed a 300-byte
// threshold").
type GeneralStats struct {
	name          string
	periodSecs    int
	byteThreshold int64
	onAlert       func(periodStart, periodEnd int64, eventCount int, totalBytes int64)

	mu         sync.Mutex
	lastSeenTs int64
}

// NewGeneralStats constructs a GeneralStats schedule. onAlert may be nil,
// in which case threshold crossings are silently dropped (useful in
// tests that only care about LastSeenTs progression).
func NewGeneralStats(name string, periodSecs int, byteThreshold int64, onAlert func(periodStart, periodEnd int64, eventCount int, totalBytes int64)) *GeneralStats {
	return &GeneralStats{
		name:          name,
		periodSecs:    periodSecs,
		byteThreshold: byteThreshold,
		onAlert:       onAlert,
	}
}

// Name implements pulse.PeriodicSchedule.
func (g *GeneralStats) Name() string { return g.name }

// PeriodSecs implements pulse.PeriodicSchedule.
func (g *GeneralStats) PeriodSecs() int { return g.periodSecs }

// LastSeenTs implements pulse.PeriodicSchedule.
func (g *GeneralStats) LastSeenTs() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastSeenTs
}

// Execute implements pulse.PeriodicSchedule: it sums the "bytes" field of
// every event in the window and fires onAlert when the sum exceeds
// byteThreshold.
func (g *GeneralStats) Execute(periodStart, periodEnd int64, events []pulse.Event) {
	var totalBytes int64
	for _, e := range events {
		totalBytes += fieldBytes(e)
	}

	if totalBytes > g.byteThreshold && g.onAlert != nil {
		g.onAlert(periodStart, periodEnd, len(events), totalBytes)
	}

	if len(events) > 0 {
		g.mu.Lock()
		g.lastSeenTs = events[len(events)-1].TimestampMillis
		g.mu.Unlock()
	}
}

// fieldBytes extracts an event's "bytes" field as int64, tolerating the
// int/int64/float64 shapes a caller-supplied Parser might produce.
func fieldBytes(e pulse.Event) int64 {
	v, ok := e.Fields["bytes"]
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}
