// Copyright (C) 2026 the xenon authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the GNU
// General Public License for more details.
//
// License: GPLv3 or later

// Package logging provides the process-wide leveled logging sink used by
// every core component.
//
// The shape mirrors the leveled-logger idiom used throughout the retrieval
// pack for hobby emulators (one *log.Logger per level, a package-level
// minimum-severity filter) rather than pulling in a structured logging
// library: the core never needs field-based querying, only a cheap,
// allocation-light sink that can be redirected to a file at startup and
// drained on shutdown.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
)

// Level is the severity of a log message.
type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

func (l Level) String() string {
	switch l {
	case Debug:
		return "DEBUG"
	case Info:
		return "INFO"
	case Warn:
		return "WARN"
	case Error:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a config string to a Level. Unknown values default to Info.
func ParseLevel(s string) Level {
	switch s {
	case "debug":
		return Debug
	case "warn", "warning":
		return Warn
	case "error":
		return Error
	default:
		return Info
	}
}

var (
	mu       sync.Mutex
	minLevel = Info
	sink     *log.Logger
	closer   io.Closer
)

// Init sets the sink's destination and minimum severity. Calling Init again
// drains and closes any previously opened file destination first.
func Init(level Level, dest io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	if closer != nil {
		_ = closer.Close()
		closer = nil
	}
	if c, ok := dest.(io.Closer); ok && dest != io.Writer(os.Stderr) && dest != io.Writer(os.Stdout) {
		closer = c
	}
	minLevel = level
	sink = log.New(dest, "", log.Ldate|log.Lmicroseconds)
}

// InitFile opens path for appending and routes the sink there; falls back to
// stderr on failure so a logging misconfiguration never blocks startup.
func InitFile(level Level, path string) error {
	if path == "" {
		Init(level, os.Stderr)
		return nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		Init(level, os.Stderr)
		return fmt.Errorf("logging: open %s: %w", path, err)
	}
	Init(level, f)
	return nil
}

func ensure() *log.Logger {
	if sink == nil {
		sink = log.New(os.Stderr, "", log.Ldate|log.Lmicroseconds)
	}
	return sink
}

// Log emits a message at the given level if it meets the configured minimum
// severity.
func Log(level Level, format string, args ...any) {
	mu.Lock()
	l := ensure()
	min := minLevel
	mu.Unlock()

	if level < min {
		return
	}
	l.Printf("%s %s", level, fmt.Sprintf(format, args...))
}

func Debugf(format string, args ...any) { Log(Debug, format, args...) }
func Infof(format string, args ...any)  { Log(Info, format, args...) }
func Warnf(format string, args ...any)  { Log(Warn, format, args...) }
func Errorf(format string, args ...any) { Log(Error, format, args...) }

// Close drains and releases any file destination opened via InitFile.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if closer != nil {
		err := closer.Close()
		closer = nil
		return err
	}
	return nil
}
