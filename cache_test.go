// cache_test.go
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0
package pulse

import "testing"

func evAt(ms int64) Event {
	return Event{TimestampMillis: ms, Raw: "x"}
}

func TestEventCacheAddAllSortsAndMerges(t *testing.T) {
	c := NewEventCache()
	c.AddAll([]Event{evAt(3000), evAt(1000), evAt(2000)})
	if c.Size() != 3 {
		t.Fatalf("expected 3 entries, got %d", c.Size())
	}

	c.AddAll([]Event{evAt(1500), evAt(500)})
	if c.Size() != 5 {
		t.Fatalf("expected 5 entries after second AddAll, got %d", c.Size())
	}

	got := c.Fetch(0, 10000)
	want := []int64{500, 1000, 1500, 2000, 3000}
	if len(got) != len(want) {
		t.Fatalf("expected %d fetched entries, got %d", len(want), len(got))
	}
	for i, ts := range want {
		if got[i].TimestampMillis != ts {
			t.Fatalf("entry %d: expected ts %d, got %d", i, ts, got[i].TimestampMillis)
		}
	}
}

func TestEventCacheAddAllEmptyBatchNoOp(t *testing.T) {
	c := NewEventCache()
	c.AddAll([]Event{evAt(1000)})
	c.AddAll(nil)
	if c.Size() != 1 {
		t.Fatalf("expected empty batch to be a no-op, got size %d", c.Size())
	}
}

func TestEventCacheFetchWidensToWholeSeconds(t *testing.T) {
	c := NewEventCache()
	c.AddAll([]Event{evAt(1000), evAt(1500), evAt(1999), evAt(2000), evAt(2999), evAt(3000)})

	got := c.Fetch(1500, 2500)
	for _, e := range got {
		if e.TimestampMillis < 1000 || e.TimestampMillis > 2999 {
			t.Fatalf("fetch should widen to whole-second boundaries, got ts %d", e.TimestampMillis)
		}
	}
	if len(got) != 5 {
		t.Fatalf("expected the [1000,2999] second-widened window (5 entries), got %d", len(got))
	}
}

func TestEventCacheFetchEmptyWhenNoMatch(t *testing.T) {
	c := NewEventCache()
	got := c.Fetch(0, 1000)
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice on an empty cache, got %v", got)
	}
}

func TestEventCacheFirstTimestamp(t *testing.T) {
	c := NewEventCache()
	if ts := c.FirstTimestamp(); ts != noTimestamp {
		t.Fatalf("expected noTimestamp on empty cache, got %d", ts)
	}
	c.AddAll([]Event{evAt(5000), evAt(1000)})
	if ts := c.FirstTimestamp(); ts != 1000 {
		t.Fatalf("expected first timestamp 1000, got %d", ts)
	}
}

func TestEventCacheFirstTimestampSince(t *testing.T) {
	c := NewEventCache()
	c.AddAll([]Event{evAt(1000), evAt(2000), evAt(3000)})

	if ts := c.FirstTimestampSince(1000); ts != 2000 {
		t.Fatalf("expected 2000 after 1000, got %d", ts)
	}
	if ts := c.FirstTimestampSince(3000); ts != noTimestamp {
		t.Fatalf("expected noTimestamp past the last entry, got %d", ts)
	}
}

func TestEventCacheEvict(t *testing.T) {
	c := NewEventCache()
	c.AddAll([]Event{evAt(1000), evAt(2000), evAt(3000)})
	c.Evict(2)
	if c.Size() != 1 {
		t.Fatalf("expected 1 entry remaining after evicting 2, got %d", c.Size())
	}
	got := c.Fetch(0, 10000)
	if len(got) != 1 || got[0].TimestampMillis != 3000 {
		t.Fatalf("expected only ts 3000 to remain, got %v", got)
	}
}

func TestEventCacheEvictMoreThanSizeIsFullEvict(t *testing.T) {
	c := NewEventCache()
	c.AddAll([]Event{evAt(1000), evAt(2000)})
	c.Evict(100)
	if c.Size() != 0 {
		t.Fatalf("expected over-eviction to empty the cache, got size %d", c.Size())
	}
}

func TestEventCacheFullEvict(t *testing.T) {
	c := NewEventCache()
	c.AddAll([]Event{evAt(1000), evAt(2000)})
	c.FullEvict()
	if c.Size() != 0 {
		t.Fatalf("expected FullEvict to empty the cache, got size %d", c.Size())
	}
}

func TestEventCacheTieBreakPreservesInsertionOrder(t *testing.T) {
	c := NewEventCache()
	first := Event{TimestampMillis: 1000, Raw: "first"}
	second := Event{TimestampMillis: 1000, Raw: "second"}
	c.AddAll([]Event{first, second})

	got := c.Fetch(0, 10000)
	if len(got) != 2 || got[0].Raw != "first" || got[1].Raw != "second" {
		t.Fatalf("expected insertion order preserved on ties, got %v", got)
	}
}
