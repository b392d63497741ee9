// watchqueue.go: MPSC ring buffer carrying watch events to the ingestion worker
//
// Adapted from boreaslite.go's FileChangeEvent/BoreasLite ring buffer. The
// three file-count-adaptive optimization strategies are dropped: this
// system tails exactly one file, so there is no file count to adapt a
// strategy to. What remains is the core lock-free MPSC mechanics (ring
// slots, writer/reader cursors, per-slot availability markers) that spec.md
// §4.D describes as the tick loop "submitting a task to the ingestion
// worker."
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package pulse

import (
	"runtime"
	"sync/atomic"
	"time"
)

// watchEventKind mirrors the fsnotify op that triggered ingestion work.
type watchEventKind uint8

const (
	watchEventCreate watchEventKind = iota + 1
	watchEventModify
)

// watchEvent is a single queued unit of ingestion work. Delete is handled
// inline by the tick loop per spec.md §4.D step 3 and never enters the
// queue.
type watchEvent struct {
	kind watchEventKind
}

// watchQueue is a single-producer (the tick loop), single-consumer (the
// ingestion worker) ring buffer of watchEvents.
type watchQueue struct {
	buffer   []watchEvent
	capacity int64
	mask     int64

	writerCursor atomic.Int64
	readerCursor atomic.Int64

	available []atomic.Int64

	processor func(watchEvent)

	running atomic.Bool
	dropped atomic.Int64
}

// newWatchQueue creates a ring buffer of the given power-of-two capacity
// (rounded up if not) that invokes processor for each queued event.
func newWatchQueue(capacity int64, processor func(watchEvent)) *watchQueue {
	if capacity <= 0 {
		capacity = 64
	}
	if capacity&(capacity-1) != 0 {
		c := int64(1)
		for c < capacity {
			c <<= 1
		}
		capacity = c
	}

	q := &watchQueue{
		buffer:    make([]watchEvent, capacity),
		capacity:  capacity,
		mask:      capacity - 1,
		available: make([]atomic.Int64, capacity),
		processor: processor,
	}
	for i := range q.available {
		q.available[i].Store(-1)
	}
	q.running.Store(true)
	return q
}

// submit enqueues ev. Returns false if the queue is stopped or full (an
// ingestion backlog this deep means the consumer is badly stuck; the
// event is dropped rather than blocking the tick loop).
func (q *watchQueue) submit(ev watchEvent) bool {
	if !q.running.Load() {
		return false
	}

	seq := q.writerCursor.Add(1) - 1
	if seq >= q.readerCursor.Load()+q.capacity {
		q.dropped.Add(1)
		return false
	}

	q.buffer[seq&q.mask] = ev
	q.available[seq&q.mask].Store(seq)
	return true
}

// processBatch drains every contiguous available slot starting at the
// reader cursor, returning the count processed.
func (q *watchQueue) processBatch() int {
	current := q.readerCursor.Load()
	writerPos := q.writerCursor.Load()
	if current >= writerPos {
		return 0
	}

	available := current - 1
	for seq := current; seq < writerPos; seq++ {
		if q.available[seq&q.mask].Load() == seq {
			available = seq
		} else {
			break
		}
	}
	if available < current {
		return 0
	}

	for seq := current; seq <= available; seq++ {
		idx := seq & q.mask
		q.processor(q.buffer[idx])
		q.available[idx].Store(-1)
	}
	q.readerCursor.Store(available + 1)
	return int(available - current + 1)
}

// run is the ingestion worker's consumer loop: spin briefly, then back off
// with short sleeps while idle, until stopped. It drains any remaining
// items before returning.
func (q *watchQueue) run() {
	spins := 0
	for q.running.Load() {
		if q.processBatch() > 0 {
			spins = 0
			continue
		}
		spins++
		switch {
		case spins < 2000:
			continue
		case spins < 8000:
			if spins&7 == 0 {
				runtime.Gosched()
			}
		default:
			time.Sleep(200 * time.Microsecond)
			spins = 0
		}
	}
	for q.processBatch() > 0 {
	}
}

// stop halts the consumer loop; safe to call once.
func (q *watchQueue) stop() {
	q.running.Store(false)
}
