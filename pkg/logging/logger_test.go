// Copyright (C) 2025 Oowatch Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLevelString(t *testing.T) {
	cases := []struct {
		level Level
		want  string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{Level(42), "UNKNOWN"},
	}
	for _, tc := range cases {
		if got := tc.level.String(); got != tc.want {
			t.Errorf("Level(%d).String() = %q, want %q", tc.level, got, tc.want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"", LevelInfo},
		{"bogus", LevelInfo},
	}
	for _, tc := range cases {
		if got := ParseLevel(tc.in); got != tc.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestFileLogging(t *testing.T) {
	tmpDir := t.TempDir()

	logger := New(Config{
		Level:   LevelInfo,
		LogDir:  tmpDir,
		Service: "testsvc",
		Quiet:   true,
	})
	logger.Info("interval updated", "interval_minutes", 5)
	if err := logger.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	entries, err := os.ReadDir(tmpDir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}
	if !strings.HasPrefix(entries[0].Name(), "testsvc_") {
		t.Errorf("log file name = %q, want testsvc_ prefix", entries[0].Name())
	}

	data, err := os.ReadFile(filepath.Join(tmpDir, entries[0].Name()))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "interval updated") {
		t.Errorf("log file does not contain message: %s", data)
	}
	if !strings.Contains(string(data), `"service":"testsvc"`) {
		t.Errorf("log file does not contain service attribute: %s", data)
	}
}

func TestWithAddsAttributes(t *testing.T) {
	tmpDir := t.TempDir()

	logger := New(Config{LogDir: tmpDir, Service: "testsvc", Quiet: true})
	child := logger.With("request_id", "abc123")
	child.Info("handled")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	entries, err := os.ReadDir(tmpDir)
	if err != nil || len(entries) != 1 {
		t.Fatalf("ReadDir: %v (%d entries)", err, len(entries))
	}
	data, _ := os.ReadFile(filepath.Join(tmpDir, entries[0].Name()))
	if !strings.Contains(string(data), "abc123") {
		t.Errorf("child attribute missing from output: %s", data)
	}
}

func TestDebugFilteredAtInfoLevel(t *testing.T) {
	tmpDir := t.TempDir()

	logger := New(Config{Level: LevelInfo, LogDir: tmpDir, Service: "testsvc", Quiet: true})
	logger.Debug("should not appear")
	logger.Info("should appear")
	logger.Close()

	entries, _ := os.ReadDir(tmpDir)
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}
	data, _ := os.ReadFile(filepath.Join(tmpDir, entries[0].Name()))
	if strings.Contains(string(data), "should not appear") {
		t.Error("debug message was not filtered")
	}
	if !strings.Contains(string(data), "should appear") {
		t.Error("info message missing")
	}
}
