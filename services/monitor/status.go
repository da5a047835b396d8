// Copyright (C) 2025 Oowatch Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package monitor

import (
	"context"
	"errors"
	"time"
)

// OutFileStatus describes the effective out-file target's accessibility.
type OutFileStatus struct {
	// Exists reports whether the target file currently exists.
	Exists bool `json:"exists"`

	// Readable reports whether the file (or, when it doesn't exist yet,
	// its directory) can be read.
	Readable bool `json:"readable"`

	// Writable reports whether the file (or its directory) can be
	// written.
	Writable bool `json:"writable"`

	// Message is the operator-facing summary: "OK", "Permission issue",
	// "File does not exist yet", or the appdata variants.
	Message string `json:"message"`
}

// ActionRecord is the decoded last-outcome of a recorded action.
// A nil *ActionRecord means the action has never run.
type ActionRecord struct {
	// At is when the action last ran.
	At time.Time `json:"at"`

	// OK is the recorded outcome.
	OK bool `json:"ok"`

	// Message is the recorded message, when one is stored.
	Message string `json:"message,omitempty"`
}

// StatusMeta is the derived, read-mostly view of current health.
//
// It is recomputed on every read from individually stored settings plus
// the history blob; it is never persisted as a unit.
type StatusMeta struct {
	// Enabled is the watchdog's own enable flag.
	Enabled bool `json:"enabled"`

	// OutFilePath is the effective out-file path, or "(appdata)" when no
	// operator path is configured.
	OutFilePath string `json:"out_file_path"`

	// OutFileStatus describes the effective target's accessibility.
	OutFileStatus OutFileStatus `json:"out_file_status"`

	// AppdataBackupPath hints where the appdata blobs live on disk; set
	// only in appdata mode.
	AppdataBackupPath string `json:"appdata_backup_path,omitempty"`

	// IntervalMinutes is the current polling period.
	IntervalMinutes int `json:"interval_minutes"`

	// LastCheck, LastReconnect, and LastFileTest are the decoded last
	// outcomes; nil when the action has never run.
	LastCheck     *ActionRecord `json:"last_check,omitempty"`
	LastReconnect *ActionRecord `json:"last_reconnect,omitempty"`
	LastFileTest  *ActionRecord `json:"last_file_test,omitempty"`

	// History is the bounded action history, oldest first.
	History []HistoryEntry `json:"history"`
}

// =============================================================================
// Storage boundary codecs
// =============================================================================
//
// Everything round-trips through the settings store as strings:
// booleans as "1"/"0", timestamps as RFC3339, integers as decimal
// strings. These helpers are the only place malformed stored input is
// tolerated, by substituting the default.

// getValue reads a watchdog setting, substituting def when the key is
// absent or the store errors.
func (m *Monitor) getValue(ctx context.Context, key, def string) string {
	value, err := m.settings.Get(ctx, WatchdogNamespace, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			m.logger.Warn("Settings read failed", "key", key, "error", err)
		}
		return def
	}
	return value
}

// setValue writes a watchdog setting, logging (not raising) failures.
func (m *Monitor) setValue(ctx context.Context, key, value string) {
	if err := m.settings.Set(ctx, WatchdogNamespace, key, value); err != nil {
		m.logger.Warn("Settings write failed", "key", key, "error", err)
	}
}

// encodeBool renders a stored flag.
func encodeBool(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

// decodeRecord assembles an ActionRecord from its stored at/ok/message
// strings. Returns nil when the timestamp is absent or malformed.
func decodeRecord(at, ok, message string) *ActionRecord {
	if at == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, at)
	if err != nil {
		return nil
	}
	return &ActionRecord{At: t, OK: ok == "1", Message: message}
}

// storeLastCheck records the last check outcome.
func (m *Monitor) storeLastCheck(ctx context.Context, ok bool) {
	m.setValue(ctx, keyLastCheckAt, m.now().Format(time.RFC3339))
	m.setValue(ctx, keyLastCheckOK, encodeBool(ok))
}

// storeLastReconnect records the last reconnect outcome.
func (m *Monitor) storeLastReconnect(ctx context.Context, ok bool) {
	m.setValue(ctx, keyLastReconnectAt, m.now().Format(time.RFC3339))
	m.setValue(ctx, keyLastReconnectOK, encodeBool(ok))
}

// storeLastFileTest records the last file-access diagnostic outcome.
func (m *Monitor) storeLastFileTest(ctx context.Context, ok bool, message string) {
	m.setValue(ctx, keyLastFileTestAt, m.now().Format(time.RFC3339))
	m.setValue(ctx, keyLastFileTestOK, encodeBool(ok))
	m.setValue(ctx, keyLastFileTestMessage, message)
}
