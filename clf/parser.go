// Package clf parses Common Log Format (CLF) access-log lines into
// pulse.Events. It is the reference Parser named by spec.md §6's
// "concrete line format" collaborator.
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0
package clf

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	errors "github.com/agilira/go-errors"

	"github.com/agilira/pulse"
)

// ErrCodeMalformedLine is returned (wrapped) when a line does not match
// the expected CLF layout.
const ErrCodeMalformedLine = "PULSE_CLF_MALFORMED_LINE"

// clfTimeLayout matches Apache's "[02/Jan/2006:15:04:05 -0700]" field.
const clfTimeLayout = "02/Jan/2006:15:04:05 -0700"

// Parser implements pulse.Parser for Common Log Format lines:
//
//	host ident authuser [timestamp] "method path protocol" status bytes
//
// A bare "-" in the bytes field is treated as zero, per the CLF
// convention for responses with no body.
type Parser struct{}

// Parse implements pulse.Parser. It never returns (nil, nil): CLF has no
// notion of a throttled line, so every call either succeeds or reports a
// malformed-line error.
func (Parser) Parse(line string) (*pulse.Event, error) {
	host, rest, ok := cut(line, ' ')
	if !ok {
		return nil, malformed(line, "missing host field")
	}
	ident, rest, ok := cut(rest, ' ')
	if !ok {
		return nil, malformed(line, "missing ident field")
	}
	authuser, rest, ok := cut(rest, ' ')
	if !ok {
		return nil, malformed(line, "missing authuser field")
	}

	tsStart := strings.IndexByte(rest, '[')
	tsEnd := strings.IndexByte(rest, ']')
	if tsStart != 0 || tsEnd < 0 {
		return nil, malformed(line, "missing bracketed timestamp")
	}
	tsText := rest[tsStart+1 : tsEnd]
	ts, err := time.Parse(clfTimeLayout, tsText)
	if err != nil {
		return nil, errors.Wrap(err, ErrCodeMalformedLine, "unparsable timestamp").WithContext("line", line)
	}
	rest = strings.TrimPrefix(rest[tsEnd+1:], " ")

	reqStart := strings.IndexByte(rest, '"')
	reqEnd := strings.IndexByte(rest[reqStart+1:], '"')
	if reqStart != 0 || reqEnd < 0 {
		return nil, malformed(line, "missing quoted request line")
	}
	request := rest[reqStart+1 : reqStart+1+reqEnd]
	rest = strings.TrimPrefix(rest[reqStart+1+reqEnd+1:], " ")

	method, remainder, _ := cut(request, ' ')
	path, protocol, _ := cut(remainder, ' ')

	statusText, bytesText, ok := cut(rest, ' ')
	if !ok {
		return nil, malformed(line, "missing status/bytes fields")
	}
	status, err := strconv.Atoi(statusText)
	if err != nil {
		return nil, errors.Wrap(err, ErrCodeMalformedLine, "unparsable status code").WithContext("line", line)
	}

	var byteCount int64
	if bytesText != "-" {
		byteCount, err = strconv.ParseInt(bytesText, 10, 64)
		if err != nil {
			return nil, errors.Wrap(err, ErrCodeMalformedLine, "unparsable byte count").WithContext("line", line)
		}
	}

	return &pulse.Event{
		TimestampMillis: ts.UnixMilli(),
		Raw:             line,
		Fields: map[string]any{
			"host":     host,
			"ident":    ident,
			"authuser": authuser,
			"method":   method,
			"path":     path,
			"protocol": protocol,
			"status":   status,
			"bytes":    byteCount,
		},
	}, nil
}

// cut splits s at the first occurrence of sep, returning (before, after, true),
// or ("", s, false) if sep is absent.
func cut(s string, sep byte) (before, after string, ok bool) {
	i := strings.IndexByte(s, sep)
	if i < 0 {
		return "", s, false
	}
	return s[:i], s[i+1:], true
}

func malformed(line, reason string) error {
	return errors.New(ErrCodeMalformedLine, fmt.Sprintf("%s: %s", reason, line)).WithContext("line", line)
}
