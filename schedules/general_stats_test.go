// general_stats_test.go
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0
package schedules

import (
	"testing"

	"github.com/agilira/pulse"
)

func eventWithBytes(ts int64, bytes int64) pulse.Event {
	return pulse.Event{TimestampMillis: ts, Fields: map[string]any{"bytes": bytes}}
}

func TestGeneralStatsFiresAboveThreshold(t *testing.T) {
	var fired bool
	var gotCount int
	var gotBytes int64
	g := NewGeneralStats("gs", 10, 300, func(periodStart, periodEnd int64, eventCount int, totalBytes int64) {
		fired = true
		gotCount = eventCount
		gotBytes = totalBytes
	})

	events := []pulse.Event{
		eventWithBytes(1000, 100),
		eventWithBytes(2000, 250),
	}
	g.Execute(1000, 9000, events)

	if !fired {
		t.Fatalf("expected onAlert to fire when total bytes (350) exceeds the threshold (300)")
	}
	if gotCount != 2 {
		t.Fatalf("expected eventCount 2, got %d", gotCount)
	}
	if gotBytes != 350 {
		t.Fatalf("expected totalBytes 350, got %d", gotBytes)
	}
}

func TestGeneralStatsDoesNotFireAtOrBelowThreshold(t *testing.T) {
	var fired bool
	g := NewGeneralStats("gs", 10, 300, func(int64, int64, int, int64) { fired = true })

	g.Execute(1000, 9000, []pulse.Event{eventWithBytes(1000, 300)})
	if fired {
		t.Fatalf("expected onAlert not to fire when total bytes equals the threshold exactly")
	}
}

func TestGeneralStatsUpdatesLastSeenTs(t *testing.T) {
	g := NewGeneralStats("gs", 10, 300, nil)
	g.Execute(1000, 9000, []pulse.Event{eventWithBytes(1000, 10), eventWithBytes(5000, 10)})
	if g.LastSeenTs() != 5000 {
		t.Fatalf("expected LastSeenTs to track the last event's timestamp, got %d", g.LastSeenTs())
	}
}

func TestGeneralStatsNilOnAlertIsSafe(t *testing.T) {
	g := NewGeneralStats("gs", 10, 1, nil)
	g.Execute(1000, 9000, []pulse.Event{eventWithBytes(1000, 1000)})
}

func TestGeneralStatsFieldBytesTypeTolerance(t *testing.T) {
	var total int64
	g := NewGeneralStats("gs", 10, 0, func(_, _ int64, _ int, totalBytes int64) { total = totalBytes })

	events := []pulse.Event{
		{TimestampMillis: 1000, Fields: map[string]any{"bytes": int(10)}},
		{TimestampMillis: 2000, Fields: map[string]any{"bytes": int64(20)}},
		{TimestampMillis: 3000, Fields: map[string]any{"bytes": float64(30)}},
		{TimestampMillis: 4000, Fields: map[string]any{}},
	}
	g.Execute(1000, 9000, events)
	if total != 60 {
		t.Fatalf("expected fieldBytes to tolerate int/int64/float64/missing, got total %d", total)
	}
}
