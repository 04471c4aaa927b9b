// Package elog provides the applydiff engine's structured event logger.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package elog

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	timecache "github.com/agilira/go-timecache"
)

// Pinned action names. Tests assert on these literal strings, per the
// engine's observable-events contract.
const (
	ActionSearchStart      = "search_start"
	ActionFastPathMatch    = "fast_path_match"
	ActionAmbiguousMatch   = "ambiguous_match"
	ActionNoMatchThreshold = "no_match_threshold"
	ActionPathEscape       = "path_escape_rejected"
)

// Field is a single structured key/value pair attached to an event.
type Field struct {
	Key   string
	Value interface{}
}

func F(key string, value interface{}) Field { return Field{Key: key, Value: value} }

// Record is the on-the-wire shape of one log line: one JSON object per line.
type Record struct {
	TS        int64                  `json:"ts"`
	Level     string                 `json:"level"`
	RID       string                 `json:"rid"`
	Subsystem string                 `json:"subsystem"`
	Action    string                 `json:"action"`
	Msg       string                 `json:"msg"`
	Context   map[string]interface{} `json:"context,omitempty"`
}

// Logger emits structured events for one engine invocation (one run ID).
type Logger interface {
	Info(subsystem, action, msg string, fields ...Field)
	Debug(subsystem, action, msg string, fields ...Field)
	Warn(subsystem, action, msg string, fields ...Field)
	RunID() string
}

// jsonLogger writes one JSON Record per line to an io.Writer.
type jsonLogger struct {
	mu  sync.Mutex
	w   io.Writer
	rid string
}

// New returns a Logger bound to w, stamping every record with a fresh run ID.
func New(w io.Writer) Logger {
	return &jsonLogger{w: w, rid: newRunID()}
}

// NewWithRunID returns a Logger bound to w using the given run ID, so that
// preview/apply/self-test invocations that share one report can correlate
// their log lines.
func NewWithRunID(w io.Writer, rid string) Logger {
	return &jsonLogger{w: w, rid: rid}
}

func newRunID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the platform RNG is broken; degrade to a
		// fixed marker rather than panic, since logging must never abort a run.
		return "rid-unavailable"
	}
	return hex.EncodeToString(buf)
}

func (l *jsonLogger) RunID() string { return l.rid }

func (l *jsonLogger) Info(subsystem, action, msg string, fields ...Field) {
	l.emit("info", subsystem, action, msg, fields)
}

func (l *jsonLogger) Debug(subsystem, action, msg string, fields ...Field) {
	l.emit("debug", subsystem, action, msg, fields)
}

func (l *jsonLogger) Warn(subsystem, action, msg string, fields ...Field) {
	l.emit("warn", subsystem, action, msg, fields)
}

func (l *jsonLogger) emit(level, subsystem, action, msg string, fields []Field) {
	rec := Record{
		TS:        timecache.CachedTime().UnixMilli(),
		Level:     level,
		RID:       l.rid,
		Subsystem: subsystem,
		Action:    action,
		Msg:       msg,
	}
	if len(fields) > 0 {
		rec.Context = make(map[string]interface{}, len(fields))
		for _, f := range fields {
			rec.Context[f.Key] = f.Value
		}
	}

	line, err := json.Marshal(rec)
	if err != nil {
		// A field that cannot be marshaled (e.g. a channel) must not take
		// down the run; fall back to a message-only record.
		line, _ = json.Marshal(Record{TS: rec.TS, Level: level, RID: l.rid,
			Subsystem: subsystem, Action: action, Msg: msg})
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.w, string(line))
}
