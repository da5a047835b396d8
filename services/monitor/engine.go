// Copyright (C) 2025 Oowatch Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oowatch/oowatch/pkg/logging"
)

// =============================================================================
// Configuration
// =============================================================================

// Config carries the deployment-level knobs of the Monitor. Everything
// an operator changes at runtime lives in the settings store instead.
type Config struct {
	// PHPPath is the PHP interpreter used to run the health probe.
	// Defaults to "php".
	PHPPath string

	// ServerRoot is the monitored installation's root directory; the
	// probe runs "<ServerRoot>/occ onlyoffice:documentserver --check".
	ServerRoot string

	// DefaultOutFilePath seeds the out-file path when the operator has
	// not set one. Empty selects appdata mode.
	DefaultOutFilePath string

	// AppdataBackupPath is the on-disk location of the appdata blobs,
	// reported in status metadata for operators. Purely informational.
	AppdataBackupPath string

	// ProbeTimeout bounds the health-check process. Defaults to 30s.
	ProbeTimeout time.Duration
}

func (c *Config) applyDefaults() {
	if c.PHPPath == "" {
		c.PHPPath = "php"
	}
	if c.ProbeTimeout <= 0 {
		c.ProbeTimeout = defaultProbeTimeout
	}
}

// =============================================================================
// Results
// =============================================================================

// Result is the outcome of one monitor operation, shaped for both the
// admin API and the CLI.
type Result struct {
	// OK reports whether the operation succeeded.
	OK bool `json:"ok"`

	// Message is the human-readable outcome.
	Message string `json:"message"`

	// Output is the raw probe output, set on check results.
	Output string `json:"output,omitempty"`

	// Path is the out-file target, set on backup and file-test results.
	Path string `json:"path,omitempty"`

	// Source names the restore source a reconnect applied, when any.
	Source string `json:"source,omitempty"`

	// Action is ActionCheck or ActionReconnect on operations that are
	// recorded in history.
	Action string `json:"action,omitempty"`

	// Timestamp is when the operation completed.
	Timestamp time.Time `json:"ts"`

	// Meta is the refreshed status view, attached by CheckAndReconnect.
	Meta *StatusMeta `json:"meta,omitempty"`
}

// Restore source names reported in reconnect results and logs.
const (
	sourceOutFile     = "out_file"
	sourceAppdataFile = "appdata_out_file"
	sourceSnapshot    = "snapshot"
	sourceLive        = "live"
)

// =============================================================================
// Monitor
// =============================================================================

// Monitor is the watchdog engine: it probes the monitored OnlyOffice
// connector's health and restores its configuration from the best
// available backup when the probe fails.
//
// # Description
//
// The Monitor owns no storage of its own; it composes an injected
// SettingsStore (operator settings and status fields), a BlobFolder
// (snapshot, appdata out file, history), and a CommandRunner (the
// health probe). Restore sources are tried in a fixed order: the
// operator's out file, the appdata out-file blob (only when no path is
// configured), the canonical JSON snapshot, and finally a fresh capture
// of the live values.
//
// # Thread Safety
//
// Safe for concurrent use. A single mutex serializes all operations so
// a scheduled check never interleaves with an operator-triggered backup
// or settings change.
type Monitor struct {
	settings SettingsStore
	blobs    BlobFolder
	runner   CommandRunner
	backup   *BackupStore
	history  *HistoryLog
	cfg      Config

	logger *slog.Logger
	now    func() time.Time

	mu sync.Mutex
}

// Option customizes a Monitor.
type Option func(*Monitor)

// WithLogger sets the structured logger. Defaults to the process-wide
// logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Monitor) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithClock overrides the time source. Tests use this to pin
// timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) {
		if now != nil {
			m.now = now
		}
	}
}

// New creates a Monitor over the given collaborators.
//
// Inputs:
//
//	settings - The namespaced settings store. Must not be nil.
//	blobs - The backup blob folder. Must not be nil.
//	runner - The health-probe command runner. Must not be nil.
//	cfg - Deployment configuration; zero values take defaults.
//	opts - Optional overrides.
//
// Outputs:
//
//	*Monitor - The engine.
//	error - ErrNilDependency when a collaborator is nil.
func New(settings SettingsStore, blobs BlobFolder, runner CommandRunner, cfg Config, opts ...Option) (*Monitor, error) {
	if settings == nil || blobs == nil || runner == nil {
		return nil, fmt.Errorf("%w: monitor requires settings, blobs, and runner", ErrNilDependency)
	}
	cfg.applyDefaults()

	m := &Monitor{
		settings: settings,
		blobs:    blobs,
		runner:   runner,
		cfg:      cfg,
		logger:   logging.Default().Slog(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}

	backup, err := NewBackupStore(settings, blobs, ServiceConfigKeys, m.logger)
	if err != nil {
		return nil, err
	}
	m.backup = backup
	m.history = NewHistoryLog(blobs, m.logger)
	return m, nil
}

// =============================================================================
// Health check
// =============================================================================

// Check runs one health probe and records its outcome.
//
// # Description
//
// The probe is the connector's own validation command, run under the
// configured timeout. Health requires exit status 0 AND the marker
// "successfully" (case-insensitive) in the combined output; everything
// else — non-zero exit, timeout, unlaunchable binary — is unhealthy.
// The outcome is stored as the last-check fields and appended to
// history. A probe never returns an error: failure IS a result.
func (m *Monitor) Check(ctx context.Context) Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.doCheck(ctx)
}

// runProbe executes one health probe under the configured timeout and
// classifies the result. No status fields are touched.
func (m *Monitor) runProbe(ctx context.Context) probeOutcome {
	probeCtx, cancel := context.WithTimeout(ctx, m.cfg.ProbeTimeout)
	defer cancel()

	occ := filepath.Join(m.cfg.ServerRoot, "occ")
	res, runErr := m.runner.Run(probeCtx, m.cfg.PHPPath, []string{occ, "onlyoffice:documentserver", "--check"})
	return classifyProbe(res, runErr)
}

func (m *Monitor) doCheck(ctx context.Context) Result {
	outcome := m.runProbe(ctx)

	m.storeLastCheck(ctx, outcome.ok)
	m.history.Append(ctx, HistoryEntry{
		Timestamp: m.now(),
		Action:    ActionCheck,
		OK:        outcome.ok,
		Message:   outcome.message,
	})
	observeCheck(outcome.ok)

	if outcome.ok {
		m.logger.Info("OnlyOffice health check passed")
	} else {
		m.logger.Warn("OnlyOffice health check failed", "output", outcome.output)
	}

	return Result{
		OK:        outcome.ok,
		Message:   outcome.message,
		Output:    outcome.output,
		Action:    ActionCheck,
		Timestamp: m.now(),
	}
}

// =============================================================================
// Reconnect
// =============================================================================

// Reconnect restores the connector's configuration from the best
// available backup source and records the outcome.
//
// # Description
//
// Sources are tried in order until one yields at least one key/value
// pair: the operator's out file (when a path is configured), the
// appdata out-file blob (only when no path is configured), the
// canonical JSON snapshot, and finally a fresh capture of the live
// values. Every pair of the selected source is written to the
// connector's namespace, then the health probe runs again: the restore
// counts only if the service actually comes back. Exactly one restore
// attempt per invocation; a failed reconnect waits for the next cycle.
func (m *Monitor) Reconnect(ctx context.Context) Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.doReconnect(ctx)
}

func (m *Monitor) doReconnect(ctx context.Context) Result {
	snap, source := m.selectRestoreSource(ctx)

	ok := false
	var output string
	if snap != nil {
		for _, key := range snap.Keys() {
			value, _ := snap.Get(key)
			if err := m.settings.Set(ctx, ServiceNamespace, key, value); err != nil {
				m.logger.Warn("Failed to restore setting", "key", key, "error", err)
			}
		}
		m.logger.Info("OnlyOffice config restored", "source", source, "count", snap.Len())

		outcome := m.runProbe(ctx)
		ok = outcome.ok
		output = outcome.output
	}

	message := "OnlyOffice reconnection failed"
	if ok {
		message = "OnlyOffice reconnected"
	} else {
		m.logger.Error("OnlyOffice reconnection failed", "source", source)
	}

	m.storeLastReconnect(ctx, ok)
	m.history.Append(ctx, HistoryEntry{
		Timestamp: m.now(),
		Action:    ActionReconnect,
		OK:        ok,
		Message:   message,
	})
	observeReconnect(ok)

	return Result{
		OK:        ok,
		Message:   message,
		Output:    output,
		Source:    source,
		Action:    ActionReconnect,
		Timestamp: m.now(),
	}
}

// selectRestoreSource walks the fallback chain and returns the first
// source that yields pairs, with its name. Returns (nil, "none") when
// every source is exhausted.
func (m *Monitor) selectRestoreSource(ctx context.Context) (*Snapshot, string) {
	path := m.outFilePath(ctx)
	if path != "" {
		if snap, state := m.backup.LoadFlatPath(path); state == LoadHit {
			return snap, sourceOutFile
		}
	} else {
		if snap, state := m.backup.LoadFlatBlob(ctx); state == LoadHit {
			return snap, sourceAppdataFile
		}
	}

	if snap, state := m.backup.LoadCanonical(ctx); state == LoadHit {
		return snap, sourceSnapshot
	}

	// Last resort: re-capture the live values. Re-applying them is a
	// no-op for the connector but refreshes the canonical snapshot.
	snap, err := m.backup.Capture(ctx)
	if err != nil {
		m.logger.Error("No restore source available", "error", err)
		return nil, "none"
	}
	return snap, sourceLive
}

// CheckAndReconnect is the scheduled cycle: one health check, followed
// by a restore only when the check failed. The returned result carries
// the refreshed status metadata for the admin UI.
func (m *Monitor) CheckAndReconnect(ctx context.Context) Result {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := m.doCheck(ctx)
	if !result.OK {
		result = m.doReconnect(ctx)
	}

	meta := m.statusMeta(ctx)
	result.Meta = &meta
	return result
}

// =============================================================================
// Backup
// =============================================================================

// BackupNow captures the live configuration and writes both backup
// forms: the canonical JSON snapshot and the flat out file (at the
// operator's path, or as the appdata blob when no path is configured).
func (m *Monitor) BackupNow(ctx context.Context) Result {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := Result{Timestamp: m.now()}

	snap, err := m.backup.Capture(ctx)
	if err != nil {
		result.Message = "Backup failed: " + err.Error()
		observeBackup(false)
		return result
	}

	path := m.outFilePath(ctx)
	if path != "" {
		err = m.backup.WriteFlatPath(path, snap)
		result.Path = path
	} else {
		err = m.backup.WriteFlatBlob(ctx, snap)
		result.Path = appdataPathLabel
	}
	if err != nil {
		result.Message = "Backup failed: " + err.Error()
		observeBackup(false)
		return result
	}

	result.OK = true
	result.Message = "Backup saved"
	observeBackup(true)
	return result
}

// BackupJSON exports the canonical snapshot as pretty-printed JSON,
// capturing a fresh one when none is stored yet.
func (m *Monitor) BackupJSON(ctx context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.backup.ExportJSON(ctx)
}

// =============================================================================
// Out-file diagnostics
// =============================================================================

// appdataPathLabel is the placeholder path reported when no operator
// path is configured and backups go to the appdata blob.
const appdataPathLabel = "(appdata)"

// TestOutFileAccess probes the effective out-file target for read and
// write access and records the outcome as the last file test.
//
// # Description
//
// In path mode the target directory must exist and be readable and
// writable ("Directory not readable/writable" otherwise); then an
// existing target file must be readable and a uniquely named probe file
// must write and delete cleanly ("Read/write OK" / "Read/write
// failed"). In appdata mode a probe blob is written and deleted
// ("Appdata read/write OK" / "Appdata read/write failed").
func (m *Monitor) TestOutFileAccess(ctx context.Context) Result {
	m.mu.Lock()
	defer m.mu.Unlock()

	path := m.outFilePath(ctx)

	var ok bool
	var message string
	if path != "" {
		ok, message = m.testPathAccess(path)
	} else {
		ok, message = m.testAppdataAccess(ctx)
		path = appdataPathLabel
	}

	m.storeLastFileTest(ctx, ok, message)
	return Result{
		OK:        ok,
		Message:   message,
		Path:      path,
		Timestamp: m.now(),
	}
}

func (m *Monitor) testPathAccess(path string) (bool, string) {
	dir := filepath.Dir(path)

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() || !canRead(dir) || !canWrite(dir) {
		return false, "Directory not readable/writable"
	}

	readOK := true
	if fi, err := os.Stat(path); err == nil && fi.Mode().IsRegular() {
		readOK = canRead(path)
	}

	probe := filepath.Join(dir, ".oo_monitor_write_test_"+uuid.NewString())
	writeErr := os.WriteFile(probe, []byte("test"), 0640)
	if writeErr == nil {
		if err := os.Remove(probe); err != nil {
			m.logger.Warn("Failed to remove write probe", "path", probe, "error", err)
		}
	}

	if readOK && writeErr == nil {
		return true, "Read/write OK"
	}
	return false, "Read/write failed"
}

func (m *Monitor) testAppdataAccess(ctx context.Context) (bool, string) {
	probe := ".oo_monitor_test_" + uuid.NewString()
	if err := m.blobs.Write(ctx, probe, []byte("test")); err != nil {
		m.logger.Warn("Appdata write probe failed", "error", err)
		return false, "Appdata read/write failed"
	}
	if err := m.blobs.Delete(ctx, probe); err != nil {
		m.logger.Warn("Failed to remove appdata probe", "error", err)
	}
	return true, "Appdata read/write OK"
}

// =============================================================================
// Settings
// =============================================================================

// UpdateSettings stores the operator's out-file path and polling
// interval, then returns the refreshed status view.
//
// # Description
//
// A nil path leaves the setting untouched; a blank path clears it
// (appdata mode); anything else is trimmed and stored. The interval is
// clamped to a minimum of one minute, and the legacy seconds setting is
// dropped so it can never shadow the new value.
func (m *Monitor) UpdateSettings(ctx context.Context, outFilePath *string, intervalMinutes int) Result {
	m.mu.Lock()
	defer m.mu.Unlock()

	if outFilePath != nil {
		path := strings.TrimSpace(*outFilePath)
		if path == "" {
			if err := m.settings.Delete(ctx, WatchdogNamespace, keyOutFilePath); err != nil {
				m.logger.Warn("Failed to clear out-file path", "error", err)
			}
		} else {
			m.setValue(ctx, keyOutFilePath, path)
		}
	}

	if intervalMinutes < 1 {
		intervalMinutes = 1
	}
	m.setValue(ctx, keyIntervalMinutes, strconv.Itoa(intervalMinutes))
	if err := m.settings.Delete(ctx, WatchdogNamespace, keyIntervalLegacy); err != nil {
		m.logger.Warn("Failed to drop legacy interval setting", "error", err)
	}

	m.logger.Info("Watchdog settings updated",
		"path_provided", outFilePath != nil, "interval_minutes", intervalMinutes)

	meta := m.statusMeta(ctx)
	return Result{
		OK:        true,
		Message:   "Settings saved",
		Path:      meta.OutFilePath,
		Timestamp: m.now(),
		Meta:      &meta,
	}
}

// UpdateIntervalMinutes sets the polling interval, clamping values
// below one minute up to one. Boundaries that must reject bad input
// instead of clamping (the CLI) validate before calling this.
func (m *Monitor) UpdateIntervalMinutes(ctx context.Context, minutes int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if minutes < 1 {
		minutes = 1
	}
	m.setValue(ctx, keyIntervalMinutes, strconv.Itoa(minutes))
}

// GetIntervalMinutes returns the polling interval in minutes,
// migrating the legacy seconds setting on first read.
func (m *Monitor) GetIntervalMinutes(ctx context.Context) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getIntervalMinutes(ctx)
}

// GetIntervalSeconds returns the polling interval in seconds, for
// callers that still think in the legacy unit.
func (m *Monitor) GetIntervalSeconds(ctx context.Context) int {
	return m.GetIntervalMinutes(ctx) * 60
}

// getIntervalMinutes resolves the interval: the minutes setting when
// valid, otherwise the legacy seconds setting rounded to minutes (never
// below one) and written back so the migration runs once.
func (m *Monitor) getIntervalMinutes(ctx context.Context) int {
	if raw := m.getValue(ctx, keyIntervalMinutes, ""); raw != "" {
		if minutes, err := strconv.Atoi(raw); err == nil && minutes >= 1 {
			return minutes
		}
	}

	seconds := defaultLegacySeconds
	if raw := m.getValue(ctx, keyIntervalLegacy, ""); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			seconds = parsed
		}
	}

	minutes := (seconds + 30) / 60
	if minutes < 1 {
		minutes = 1
	}
	m.setValue(ctx, keyIntervalMinutes, strconv.Itoa(minutes))
	m.logger.Info("Migrated legacy interval setting",
		"seconds", seconds, "minutes", minutes)
	return minutes
}

// Enabled reports whether scheduled checks are on. Defaults to true
// until an operator turns them off.
func (m *Monitor) Enabled(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getValue(ctx, keyEnabled, "1") == "1"
}

// SetEnabled turns scheduled checks on or off.
func (m *Monitor) SetEnabled(ctx context.Context, enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setValue(ctx, keyEnabled, encodeBool(enabled))
	m.logger.Info("Watchdog enabled flag changed", "enabled", enabled)
}

// =============================================================================
// Status
// =============================================================================

// StatusMeta returns the derived status view: effective paths, target
// accessibility, interval, last outcomes, and history.
func (m *Monitor) StatusMeta(ctx context.Context) StatusMeta {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statusMeta(ctx)
}

func (m *Monitor) statusMeta(ctx context.Context) StatusMeta {
	meta := StatusMeta{
		Enabled:         m.getValue(ctx, keyEnabled, "1") == "1",
		IntervalMinutes: m.getIntervalMinutes(ctx),
		History:         m.history.Read(ctx),
	}

	path := m.outFilePath(ctx)
	if path == "" {
		meta.OutFilePath = appdataPathLabel
		meta.AppdataBackupPath = m.cfg.AppdataBackupPath
		meta.OutFileStatus = m.appdataOutFileStatus(ctx)
	} else {
		meta.OutFilePath = path
		meta.OutFileStatus = pathOutFileStatus(path)
	}

	meta.LastCheck = decodeRecord(
		m.getValue(ctx, keyLastCheckAt, ""),
		m.getValue(ctx, keyLastCheckOK, ""), "")
	meta.LastReconnect = decodeRecord(
		m.getValue(ctx, keyLastReconnectAt, ""),
		m.getValue(ctx, keyLastReconnectOK, ""), "")
	meta.LastFileTest = decodeRecord(
		m.getValue(ctx, keyLastFileTestAt, ""),
		m.getValue(ctx, keyLastFileTestOK, ""),
		m.getValue(ctx, keyLastFileTestMessage, ""))

	return meta
}

// pathOutFileStatus inspects an operator-configured target without
// touching it: existence by stat, access by access(2) semantics against
// the file itself or, before it exists, its directory.
func pathOutFileStatus(path string) OutFileStatus {
	status := OutFileStatus{}

	if fi, err := os.Stat(path); err == nil && fi.Mode().IsRegular() {
		status.Exists = true
		status.Readable = canRead(path)
		status.Writable = canWrite(path)
	} else {
		dir := filepath.Dir(path)
		status.Readable = canRead(dir)
		status.Writable = canWrite(dir)
	}

	switch {
	case !status.Readable || !status.Writable:
		status.Message = "Permission issue"
	case !status.Exists:
		status.Message = "File does not exist yet"
	default:
		status.Message = "OK"
	}
	return status
}

func (m *Monitor) appdataOutFileStatus(ctx context.Context) OutFileStatus {
	exists, err := m.blobs.Exists(ctx, outFileBlob)
	if err != nil {
		m.logger.Warn("Failed to stat appdata out file", "error", err)
		return OutFileStatus{Message: "Appdata unavailable"}
	}

	status := OutFileStatus{Exists: exists, Readable: true, Writable: true}
	if exists {
		status.Message = "Using appdata (file exists)"
	} else {
		status.Message = "Using appdata (file not created yet)"
	}
	return status
}

// outFilePath returns the effective out-file path: the operator's
// setting, the deployment default, or "" for appdata mode.
func (m *Monitor) outFilePath(ctx context.Context) string {
	if path := m.getValue(ctx, keyOutFilePath, ""); path != "" {
		return path
	}
	return m.cfg.DefaultOutFilePath
}
