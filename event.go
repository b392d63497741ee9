// event.go: data model shared by the tailer, cache and dispatcher
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package pulse

// Event is the opaque value produced by a Parser from one log line. pulse
// only ever looks at TimestampMillis; every other field is caller-defined
// payload carried through the cache untouched.
type Event struct {
	// TimestampMillis is a monotonic-or-near-monotonic UTC millisecond
	// timestamp. The cache sorts and windows on this field exclusively.
	TimestampMillis int64

	// Raw is the original line text, preserved so a schedule (or a test
	// asserting round-trip parse/format symmetry) can recover it without
	// the tailer having mutated the bytes.
	Raw string

	// Fields carries whatever a concrete Parser chooses to extract (e.g.
	// CLF's remote host, status code, byte count). pulse never inspects
	// it.
	Fields map[string]any
}

// Parser converts one log line into an Event. It returns (nil, nil) as a
// throttle signal: the tailer will not advance its cursor past this line
// and will re-offer the same bytes on the next call. It returns a non-nil
// error when the line is malformed; the tailer logs and skips such lines.
type Parser interface {
	Parse(line string) (*Event, error)
}

// ParserFunc adapts a plain function to the Parser interface.
type ParserFunc func(line string) (*Event, error)

// Parse implements Parser.
func (f ParserFunc) Parse(line string) (*Event, error) { return f(line) }

// PeriodicSchedule is a user-supplied consumer of event windows. The
// dispatcher stores schedules sorted by ascending PeriodSecs and is
// responsible only for calling Execute with the right window; the
// schedule owns and maintains its own LastSeenTs, updating it inside
// Execute.
type PeriodicSchedule interface {
	// Name identifies the schedule for logging and audit purposes.
	Name() string

	// PeriodSecs is the number of seconds between firings. Must be > 0.
	PeriodSecs() int

	// LastSeenTs is the millisecond timestamp of the last event this
	// schedule observed, or 0 if it has never run.
	LastSeenTs() int64

	// Execute is invoked by the dispatcher's serial worker once per tick
	// this schedule is ready. periodStart/periodEnd are millisecond
	// timestamps (the window bounds). When the cache had no applicable
	// first timestamp, both are set to the current time in milliseconds
	// and events is empty.
	Execute(periodStart, periodEnd int64, events []Event)
}
