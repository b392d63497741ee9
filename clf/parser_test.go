// parser_test.go
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0
package clf

import "testing"

func TestParserParsesWellFormedLine(t *testing.T) {
	line := `127.0.0.1 - frank [10/Oct/2023:13:55:36 -0700] "GET /apache_pb.gif HTTP/1.0" 200 2326`

	var p Parser
	event, err := p.Parse(line)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if event.Raw != line {
		t.Fatalf("expected Raw to preserve the original line")
	}
	if event.Fields["host"] != "127.0.0.1" {
		t.Fatalf("expected host 127.0.0.1, got %v", event.Fields["host"])
	}
	if event.Fields["authuser"] != "frank" {
		t.Fatalf("expected authuser frank, got %v", event.Fields["authuser"])
	}
	if event.Fields["method"] != "GET" {
		t.Fatalf("expected method GET, got %v", event.Fields["method"])
	}
	if event.Fields["path"] != "/apache_pb.gif" {
		t.Fatalf("expected path /apache_pb.gif, got %v", event.Fields["path"])
	}
	if event.Fields["status"] != 200 {
		t.Fatalf("expected status 200, got %v", event.Fields["status"])
	}
	if event.Fields["bytes"] != int64(2326) {
		t.Fatalf("expected bytes 2326, got %v", event.Fields["bytes"])
	}
	if event.TimestampMillis <= 0 {
		t.Fatalf("expected a positive parsed timestamp, got %d", event.TimestampMillis)
	}
}

func TestParserTreatsDashBytesAsZero(t *testing.T) {
	line := `10.0.0.1 - - [10/Oct/2023:13:55:36 -0700] "HEAD /health HTTP/1.1" 204 -`

	var p Parser
	event, err := p.Parse(line)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if event.Fields["bytes"] != int64(0) {
		t.Fatalf("expected a dash byte count to parse as 0, got %v", event.Fields["bytes"])
	}
}

func TestParserRejectsMissingTimestamp(t *testing.T) {
	line := `10.0.0.1 - - "GET / HTTP/1.1" 200 10`

	var p Parser
	if _, err := p.Parse(line); err == nil {
		t.Fatalf("expected an error for a line missing its bracketed timestamp")
	}
}

func TestParserRejectsUnparsableStatus(t *testing.T) {
	line := `10.0.0.1 - - [10/Oct/2023:13:55:36 -0700] "GET / HTTP/1.1" NaN 10`

	var p Parser
	if _, err := p.Parse(line); err == nil {
		t.Fatalf("expected an error for an unparsable status code")
	}
}

func TestParserRejectsTruncatedFields(t *testing.T) {
	var p Parser
	if _, err := p.Parse("10.0.0.1"); err == nil {
		t.Fatalf("expected an error for a line with only one field")
	}
}

func TestParserNeverReturnsNilNil(t *testing.T) {
	var p Parser
	event, err := p.Parse("garbage")
	if event != nil {
		t.Fatalf("expected a nil event on parse failure, got %v", event)
	}
	if err == nil {
		t.Fatalf("CLF has no throttle convention: expected a non-nil error for a malformed line")
	}
}
