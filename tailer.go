// tailer.go: incremental memory-mapped readout with resumable cursor (spec §4.B)
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package pulse

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"sort"

	errors "github.com/agilira/go-errors"
	"golang.org/x/sys/unix"
)

// initialLineBufCap is the starting capacity of the reusable line buffer;
// it grows by 1.5x whenever a line exceeds capacity and never shrinks, so
// steady-state readouts of similarly-sized lines reuse the same buffer.
const initialLineBufCap = 4096

// Tailer watches a single append-only file, maintaining a byte cursor
// advanced only to line boundaries.
type Tailer struct {
	path    string
	parent  string
	cursor  int64
	parser  Parser
	lineBuf []byte
}

// NewTailer constructs a Tailer for path with a caller-supplied line
// Parser. The cursor starts at 0; call MoveToEnd for tail mode.
func NewTailer(path string, parser Parser) *Tailer {
	return &Tailer{
		path:    path,
		parent:  filepath.Dir(path),
		parser:  parser,
		lineBuf: make([]byte, 0, initialLineBufCap),
	}
}

// Path returns the watched file's path.
func (t *Tailer) Path() string { return t.path }

// Cursor returns the current byte cursor, exported for tests.
func (t *Tailer) Cursor() int64 { return t.cursor }

// FileMatches reports whether name, resolved relative to the tailer's
// parent directory, is the watched file. Used by the scheduler to filter
// fsnotify events on the watched directory down to the one file it cares
// about.
func (t *Tailer) FileMatches(name string) bool {
	return filepath.Join(t.parent, filepath.Base(name)) == t.path
}

// MoveToStart resets the cursor to the beginning of the file.
func (t *Tailer) MoveToStart() {
	t.cursor = 0
}

// MoveToEnd sets the cursor to the file's current length (tail mode). It
// returns false, with cursor reset to 0, if the file does not currently
// exist; this is not an error condition worth surfacing, only logging.
func (t *Tailer) MoveToEnd() bool {
	info, err := os.Stat(t.path)
	if err != nil {
		t.cursor = 0
		if !os.IsNotExist(err) {
			log.Printf("pulse: tailer stat %s: %v", t.path, err)
		}
		return false
	}
	t.cursor = info.Size()
	return true
}

// FetchAvailableLines reads and parses whatever full lines have been
// appended since the cursor, advancing the cursor past every line it
// accepts. It returns events sorted ascending by timestamp, since an
// external producer may append out-of-order lines within one readout.
func (t *Tailer) FetchAvailableLines() ([]Event, error) {
	f, err := os.Open(t.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(err, ErrCodeFileNotFound, "tailed file does not exist").
				WithContext("path", t.path)
		}
		return nil, errors.Wrap(err, ErrCodeTailerIOError, "failed to open tailed file").
			WithContext("path", t.path)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return nil, errors.Wrap(err, ErrCodeTailerIOError, "failed to stat tailed file").
			WithContext("path", t.path)
	}
	size := info.Size()

	if size < t.cursor {
		// Truncation, not rotation (rotation arrives as CREATE/DELETE).
		t.cursor = size
		return nil, nil
	}
	if size == t.cursor {
		return nil, nil
	}

	// mmap offsets must be page-aligned, and the cursor is a line boundary
	// rather than a page boundary, so the whole file is mapped and the
	// unread region is sliced off in-process.
	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, errors.Wrap(err, ErrCodeTailerIOError, "failed to mmap tailed file").
			WithContext("path", t.path)
	}
	defer func() { _ = unix.Munmap(data) }()

	region := data[t.cursor:size]

	var events []Event
	lineStart := 0
	for {
		nl := bytes.IndexByte(region[lineStart:], '\n')
		if nl < 0 {
			break // trailing partial line: left for the next call
		}
		end := lineStart + nl

		line := region[lineStart:end]
		line = bytes.TrimSuffix(line, []byte{'\r'})

		t.lineBuf = appendGrowing(t.lineBuf, line)
		text := string(t.lineBuf)

		event, perr := t.parser.Parse(text)
		switch {
		case perr != nil:
			log.Printf("pulse: tailer parse error at offset %d: %v: %q", t.cursor+int64(lineStart), perr, text)
			lineStart = end + 1
		case event == nil:
			// Throttle signal: stop without advancing past this line.
			goto done
		default:
			events = append(events, *event)
			lineStart = end + 1
		}
	}
done:

	t.cursor += int64(lineStart)

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].TimestampMillis < events[j].TimestampMillis
	})
	return events, nil
}

// appendGrowing copies line into buf, growing buf's capacity by 1.5x
// (never shrinking) when line exceeds the current capacity.
func appendGrowing(buf, line []byte) []byte {
	if cap(buf) < len(line) {
		newCap := cap(buf) + cap(buf)/2
		if newCap < len(line) {
			newCap = len(line)
		}
		buf = make([]byte, 0, newCap)
	}
	buf = buf[:len(line)]
	copy(buf, line)
	return buf
}
