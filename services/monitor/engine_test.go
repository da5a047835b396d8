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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidatesDependencies(t *testing.T) {
	_, err := New(nil, newMemBlobs(), healthyRunner(), Config{})
	require.ErrorIs(t, err, ErrNilDependency)

	_, err = New(newMemSettings(), nil, healthyRunner(), Config{})
	require.ErrorIs(t, err, ErrNilDependency)

	_, err = New(newMemSettings(), newMemBlobs(), nil, Config{})
	require.ErrorIs(t, err, ErrNilDependency)
}

func TestCheckHealthy(t *testing.T) {
	settings := newMemSettings()
	runner := healthyRunner()
	mon := newTestMonitor(t, settings, newMemBlobs(), runner)

	result := mon.Check(context.Background())

	assert.True(t, result.OK)
	assert.Equal(t, "OnlyOffice OK", result.Message)
	assert.Equal(t, ActionCheck, result.Action)

	// The probe is the connector's own validation command.
	assert.Equal(t, "php", runner.lastName)
	assert.Equal(t, []string{filepath.Join("/srv/cloud", "occ"), "onlyoffice:documentserver", "--check"}, runner.lastArgs)

	// Outcome is persisted for the status view.
	assert.Equal(t, "1", settings.get(WatchdogNamespace, keyLastCheckOK))
	assert.NotEmpty(t, settings.get(WatchdogNamespace, keyLastCheckAt))
}

func TestCheckUnhealthy(t *testing.T) {
	tests := []struct {
		name   string
		runner *fakeRunner
	}{
		{"non-zero exit", failingRunner()},
		{"zero exit without marker", &fakeRunner{result: CommandResult{ExitOK: true, Output: "connection refused"}}},
		{"unlaunchable binary", &fakeRunner{err: errors.New("exec: php not found")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := newMemSettings()
			mon := newTestMonitor(t, settings, newMemBlobs(), tt.runner)

			result := mon.Check(context.Background())

			assert.False(t, result.OK)
			assert.Equal(t, "OnlyOffice check failed", result.Message)
			assert.Equal(t, "0", settings.get(WatchdogNamespace, keyLastCheckOK))
		})
	}
}

func TestCheckAppendsHistory(t *testing.T) {
	blobs := newMemBlobs()
	mon := newTestMonitor(t, newMemSettings(), blobs, healthyRunner())

	mon.Check(context.Background())
	mon.Check(context.Background())

	history := mon.StatusMeta(context.Background()).History
	require.Len(t, history, 2)
	assert.Equal(t, ActionCheck, history[0].Action)
	assert.True(t, history[1].OK)
}

func TestReconnectFromOutFilePath(t *testing.T) {
	dir := t.TempDir()
	outFile := filepath.Join(dir, "out-oo.txt")
	require.NoError(t, os.WriteFile(outFile,
		[]byte("DocumentServerUrl=https://docs.example.com/\njwt_secret=abc123\n"), 0640))

	settings := newMemSettings()
	settings.set(WatchdogNamespace, keyOutFilePath, outFile)
	runner := healthyRunner()
	mon := newTestMonitor(t, settings, newMemBlobs(), runner)

	result := mon.Reconnect(context.Background())

	assert.True(t, result.OK)
	assert.Equal(t, "OnlyOffice reconnected", result.Message)
	assert.Equal(t, "out_file", result.Source)
	assert.Equal(t, "https://docs.example.com/", settings.get(ServiceNamespace, "DocumentServerUrl"))
	assert.Equal(t, "abc123", settings.get(ServiceNamespace, "jwt_secret"))
	assert.Equal(t, "1", settings.get(WatchdogNamespace, keyLastReconnectOK))
	// The restore is verified by re-running the health probe.
	assert.Equal(t, 1, runner.calls)
}

func TestReconnectPrefersOutFileOverOtherSources(t *testing.T) {
	dir := t.TempDir()
	outFile := filepath.Join(dir, "out-oo.txt")
	require.NoError(t, os.WriteFile(outFile, []byte("DocumentServerUrl=https://path.example.com/\n"), 0640))

	settings := newMemSettings()
	settings.set(WatchdogNamespace, keyOutFilePath, outFile)
	blobs := newMemBlobs()
	blobs.data[outFileBlob] = []byte("DocumentServerUrl=https://blob.example.com/\n")
	blobs.data[snapshotBlob] = []byte(`{"DocumentServerUrl": "https://snap.example.com/"}`)
	mon := newTestMonitor(t, settings, blobs, healthyRunner())

	result := mon.Reconnect(context.Background())

	assert.Equal(t, "out_file", result.Source)
	assert.Equal(t, "https://path.example.com/", settings.get(ServiceNamespace, "DocumentServerUrl"))
}

func TestReconnectFromAppdataBlobWhenNoPath(t *testing.T) {
	settings := newMemSettings()
	blobs := newMemBlobs()
	blobs.data[outFileBlob] = []byte("StorageUrl=https://cloud.example.com/\n")
	mon := newTestMonitor(t, settings, blobs, healthyRunner())

	result := mon.Reconnect(context.Background())

	assert.True(t, result.OK)
	assert.Equal(t, "appdata_out_file", result.Source)
	assert.Equal(t, "https://cloud.example.com/", settings.get(ServiceNamespace, "StorageUrl"))
}

func TestReconnectFallsBackToSnapshot(t *testing.T) {
	// A configured path whose file is missing must not shadow the
	// canonical snapshot.
	settings := newMemSettings()
	settings.set(WatchdogNamespace, keyOutFilePath, filepath.Join(t.TempDir(), "missing.txt"))
	blobs := newMemBlobs()
	blobs.data[snapshotBlob] = []byte(`{"secret": "s3cr3t", "demo": "false"}`)
	mon := newTestMonitor(t, settings, blobs, healthyRunner())

	result := mon.Reconnect(context.Background())

	assert.True(t, result.OK)
	assert.Equal(t, "snapshot", result.Source)
	assert.Equal(t, "s3cr3t", settings.get(ServiceNamespace, "secret"))
}

func TestReconnectLastResortCapturesLive(t *testing.T) {
	settings := newMemSettings()
	settings.set(ServiceNamespace, "DocumentServerUrl", "https://live.example.com/")
	blobs := newMemBlobs()
	mon := newTestMonitor(t, settings, blobs, healthyRunner())

	result := mon.Reconnect(context.Background())

	assert.True(t, result.OK)
	assert.Equal(t, "live", result.Source)
	// The last resort refreshes the canonical snapshot.
	assert.Contains(t, string(blobs.data[snapshotBlob]), "https://live.example.com/")
}

func TestReconnectFailsWhenRecheckFails(t *testing.T) {
	// The restore applies, but the service stays down: that is a failed
	// reconnect, not a success.
	settings := newMemSettings()
	blobs := newMemBlobs()
	blobs.data[outFileBlob] = []byte("demo=false\n")
	mon := newTestMonitor(t, settings, blobs, failingRunner())

	result := mon.Reconnect(context.Background())

	assert.False(t, result.OK)
	assert.Equal(t, "OnlyOffice reconnection failed", result.Message)
	assert.Equal(t, "appdata_out_file", result.Source)
	assert.Equal(t, "false", settings.get(ServiceNamespace, "demo"))
	assert.Equal(t, "0", settings.get(WatchdogNamespace, keyLastReconnectOK))
}

func TestReconnectExhaustion(t *testing.T) {
	settings := newMemSettings()
	settings.getErr = errors.New("store offline")
	runner := failingRunner()
	mon := newTestMonitor(t, settings, newMemBlobs(), runner)

	result := mon.Reconnect(context.Background())

	assert.False(t, result.OK)
	assert.Equal(t, "OnlyOffice reconnection failed", result.Message)
	assert.Equal(t, "none", result.Source)
	// With nothing to restore there is nothing to verify.
	assert.Equal(t, 0, runner.calls)
}

func TestCheckAndReconnect(t *testing.T) {
	t.Run("healthy check skips reconnect", func(t *testing.T) {
		settings := newMemSettings()
		mon := newTestMonitor(t, settings, newMemBlobs(), healthyRunner())

		result := mon.CheckAndReconnect(context.Background())

		assert.True(t, result.OK)
		assert.Equal(t, ActionCheck, result.Action)
		require.NotNil(t, result.Meta)
		assert.Empty(t, settings.get(WatchdogNamespace, keyLastReconnectAt))
	})

	t.Run("failed check triggers reconnect", func(t *testing.T) {
		settings := newMemSettings()
		blobs := newMemBlobs()
		blobs.data[outFileBlob] = []byte("demo=false\n")
		// The check fails, the restored service passes the re-check.
		runner := &fakeRunner{script: []CommandResult{
			{ExitOK: false, Output: "Error connecting to documentserver"},
			{ExitOK: true, Output: "Documentserver successfully connected"},
		}}
		mon := newTestMonitor(t, settings, blobs, runner)

		result := mon.CheckAndReconnect(context.Background())

		assert.True(t, result.OK)
		assert.Equal(t, ActionReconnect, result.Action)
		assert.Equal(t, "OnlyOffice reconnected", result.Message)
		assert.Equal(t, 2, runner.calls)
		require.NotNil(t, result.Meta)
		require.Len(t, result.Meta.History, 2)
		assert.Equal(t, ActionCheck, result.Meta.History[0].Action)
		assert.Equal(t, ActionReconnect, result.Meta.History[1].Action)
	})

	t.Run("restore without recovery stays failed", func(t *testing.T) {
		settings := newMemSettings()
		settings.set(ServiceNamespace, "DocumentServerUrl", "https://live.example.com/")
		mon := newTestMonitor(t, settings, newMemBlobs(), failingRunner())

		result := mon.CheckAndReconnect(context.Background())

		assert.False(t, result.OK)
		assert.Equal(t, ActionReconnect, result.Action)
		assert.Equal(t, "OnlyOffice reconnection failed", result.Message)
	})
}

func TestBackupNow(t *testing.T) {
	t.Run("writes out file at configured path", func(t *testing.T) {
		dir := t.TempDir()
		outFile := filepath.Join(dir, "backup.txt")
		settings := newMemSettings()
		settings.set(WatchdogNamespace, keyOutFilePath, outFile)
		settings.set(ServiceNamespace, "DocumentServerUrl", "https://docs.example.com/")
		blobs := newMemBlobs()
		mon := newTestMonitor(t, settings, blobs, healthyRunner())

		result := mon.BackupNow(context.Background())

		assert.True(t, result.OK)
		assert.Equal(t, "Backup saved", result.Message)
		assert.Equal(t, outFile, result.Path)

		raw, err := os.ReadFile(outFile)
		require.NoError(t, err)
		assert.Contains(t, string(raw), "DocumentServerUrl=https://docs.example.com/\n")
		assert.NotEmpty(t, blobs.data[snapshotBlob])
	})

	t.Run("writes appdata blob without a path", func(t *testing.T) {
		blobs := newMemBlobs()
		mon := newTestMonitor(t, newMemSettings(), blobs, healthyRunner())

		result := mon.BackupNow(context.Background())

		assert.True(t, result.OK)
		assert.Equal(t, "(appdata)", result.Path)
		assert.NotEmpty(t, blobs.data[outFileBlob])
	})

	t.Run("reports capture failure", func(t *testing.T) {
		settings := newMemSettings()
		settings.getErr = errors.New("store offline")
		mon := newTestMonitor(t, settings, newMemBlobs(), healthyRunner())

		result := mon.BackupNow(context.Background())

		assert.False(t, result.OK)
		assert.Contains(t, result.Message, "Backup failed: ")
	})
}

func TestTestOutFileAccess(t *testing.T) {
	t.Run("writable directory", func(t *testing.T) {
		dir := t.TempDir()
		settings := newMemSettings()
		settings.set(WatchdogNamespace, keyOutFilePath, filepath.Join(dir, "out.txt"))
		mon := newTestMonitor(t, settings, newMemBlobs(), healthyRunner())

		result := mon.TestOutFileAccess(context.Background())

		assert.True(t, result.OK)
		assert.Equal(t, "Read/write OK", result.Message)
		assert.Equal(t, "1", settings.get(WatchdogNamespace, keyLastFileTestOK))
		assert.Equal(t, "Read/write OK", settings.get(WatchdogNamespace, keyLastFileTestMessage))

		// The probe file must not survive the test.
		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("missing directory", func(t *testing.T) {
		settings := newMemSettings()
		settings.set(WatchdogNamespace, keyOutFilePath, "/nonexistent-dir-for-test/out.txt")
		mon := newTestMonitor(t, settings, newMemBlobs(), healthyRunner())

		result := mon.TestOutFileAccess(context.Background())

		assert.False(t, result.OK)
		assert.Equal(t, "Directory not readable/writable", result.Message)
	})

	t.Run("appdata mode", func(t *testing.T) {
		mon := newTestMonitor(t, newMemSettings(), newMemBlobs(), healthyRunner())

		result := mon.TestOutFileAccess(context.Background())

		assert.True(t, result.OK)
		assert.Equal(t, "Appdata read/write OK", result.Message)
		assert.Equal(t, "(appdata)", result.Path)
	})

	t.Run("appdata write failure", func(t *testing.T) {
		blobs := newMemBlobs()
		blobs.writeErr = errors.New("disk full")
		mon := newTestMonitor(t, newMemSettings(), blobs, healthyRunner())

		result := mon.TestOutFileAccess(context.Background())

		assert.False(t, result.OK)
		assert.Equal(t, "Appdata read/write failed", result.Message)
	})
}

func strptr(s string) *string { return &s }

func TestUpdateSettings(t *testing.T) {
	t.Run("stores trimmed path and interval", func(t *testing.T) {
		settings := newMemSettings()
		settings.set(WatchdogNamespace, keyIntervalLegacy, "900")
		mon := newTestMonitor(t, settings, newMemBlobs(), healthyRunner())

		result := mon.UpdateSettings(context.Background(), strptr("  /backups/out.txt "), 30)

		assert.True(t, result.OK)
		assert.Equal(t, "Settings saved", result.Message)
		assert.Equal(t, "/backups/out.txt", settings.get(WatchdogNamespace, keyOutFilePath))
		assert.Equal(t, "30", settings.get(WatchdogNamespace, keyIntervalMinutes))
		// The legacy seconds setting must never shadow the new value.
		assert.Empty(t, settings.get(WatchdogNamespace, keyIntervalLegacy))
		// The result carries the refreshed status view.
		require.NotNil(t, result.Meta)
		assert.Equal(t, "/backups/out.txt", result.Meta.OutFilePath)
	})

	t.Run("blank path clears the setting", func(t *testing.T) {
		settings := newMemSettings()
		settings.set(WatchdogNamespace, keyOutFilePath, "/backups/out.txt")
		mon := newTestMonitor(t, settings, newMemBlobs(), healthyRunner())

		result := mon.UpdateSettings(context.Background(), strptr("   "), 0)

		_, err := settings.Get(context.Background(), WatchdogNamespace, keyOutFilePath)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Equal(t, "1", settings.get(WatchdogNamespace, keyIntervalMinutes))
		require.NotNil(t, result.Meta)
		assert.Equal(t, "(appdata)", result.Meta.OutFilePath)
	})

	t.Run("nil path leaves the setting untouched", func(t *testing.T) {
		settings := newMemSettings()
		settings.set(WatchdogNamespace, keyOutFilePath, "/backups/out.txt")
		mon := newTestMonitor(t, settings, newMemBlobs(), healthyRunner())

		mon.UpdateSettings(context.Background(), nil, 5)

		assert.Equal(t, "/backups/out.txt", settings.get(WatchdogNamespace, keyOutFilePath))
		assert.Equal(t, "5", settings.get(WatchdogNamespace, keyIntervalMinutes))
	})
}

func TestUpdateSettingsClampsInterval(t *testing.T) {
	for _, minutes := range []int{0, -5} {
		settings := newMemSettings()
		mon := newTestMonitor(t, settings, newMemBlobs(), healthyRunner())

		mon.UpdateSettings(context.Background(), nil, minutes)

		assert.Equal(t, "1", settings.get(WatchdogNamespace, keyIntervalMinutes))
	}
}

func TestUpdateIntervalMinutes(t *testing.T) {
	mon := newTestMonitor(t, newMemSettings(), newMemBlobs(), healthyRunner())
	ctx := context.Background()

	mon.UpdateIntervalMinutes(ctx, 7)
	assert.Equal(t, 7, mon.GetIntervalMinutes(ctx))

	// Values below one minute are clamped, never stored as-is.
	mon.UpdateIntervalMinutes(ctx, 0)
	assert.Equal(t, 1, mon.GetIntervalMinutes(ctx))

	mon.UpdateIntervalMinutes(ctx, -5)
	assert.Equal(t, 1, mon.GetIntervalMinutes(ctx))
}

func TestIntervalMigration(t *testing.T) {
	tests := []struct {
		name    string
		seconds string
		want    int
	}{
		{"default when absent", "", 15},
		{"rounds to nearest minute", "90", 2},
		{"never below one minute", "10", 1},
		{"exact minutes", "120", 2},
		{"garbage falls back to default", "soon", 15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := newMemSettings()
			if tt.seconds != "" {
				settings.set(WatchdogNamespace, keyIntervalLegacy, tt.seconds)
			}
			mon := newTestMonitor(t, settings, newMemBlobs(), healthyRunner())

			got := mon.GetIntervalMinutes(context.Background())

			assert.Equal(t, tt.want, got)
			// Migration writes the new setting so it runs only once.
			assert.Equal(t, tt.want, mon.GetIntervalMinutes(context.Background()))
			assert.NotEmpty(t, settings.get(WatchdogNamespace, keyIntervalMinutes))
		})
	}
}

func TestGetIntervalSeconds(t *testing.T) {
	settings := newMemSettings()
	settings.set(WatchdogNamespace, keyIntervalMinutes, "3")
	mon := newTestMonitor(t, settings, newMemBlobs(), healthyRunner())

	assert.Equal(t, 180, mon.GetIntervalSeconds(context.Background()))
}

func TestEnabledFlag(t *testing.T) {
	mon := newTestMonitor(t, newMemSettings(), newMemBlobs(), healthyRunner())
	ctx := context.Background()

	assert.True(t, mon.Enabled(ctx), "enabled by default")

	mon.SetEnabled(ctx, false)
	assert.False(t, mon.Enabled(ctx))

	mon.SetEnabled(ctx, true)
	assert.True(t, mon.Enabled(ctx))
}

func TestStatusMeta(t *testing.T) {
	t.Run("appdata mode", func(t *testing.T) {
		settings := newMemSettings()
		settings.set(WatchdogNamespace, keyLastCheckAt, "2025-06-15T11:45:00Z")
		settings.set(WatchdogNamespace, keyLastCheckOK, "1")
		blobs := newMemBlobs()
		blobs.data[outFileBlob] = []byte("demo=false\n")
		mon := newTestMonitor(t, settings, blobs, healthyRunner())

		meta := mon.StatusMeta(context.Background())

		assert.Equal(t, "(appdata)", meta.OutFilePath)
		assert.True(t, meta.OutFileStatus.Exists)
		assert.Equal(t, "Using appdata (file exists)", meta.OutFileStatus.Message)
		require.NotNil(t, meta.LastCheck)
		assert.True(t, meta.LastCheck.OK)
		assert.Nil(t, meta.LastReconnect)
		assert.Nil(t, meta.LastFileTest)
	})

	t.Run("path mode", func(t *testing.T) {
		dir := t.TempDir()
		outFile := filepath.Join(dir, "out.txt")
		settings := newMemSettings()
		settings.set(WatchdogNamespace, keyOutFilePath, outFile)
		mon := newTestMonitor(t, settings, newMemBlobs(), healthyRunner())

		meta := mon.StatusMeta(context.Background())
		assert.Equal(t, outFile, meta.OutFilePath)
		assert.False(t, meta.OutFileStatus.Exists)
		assert.Equal(t, "File does not exist yet", meta.OutFileStatus.Message)

		require.NoError(t, os.WriteFile(outFile, []byte("demo=false\n"), 0640))
		meta = mon.StatusMeta(context.Background())
		assert.True(t, meta.OutFileStatus.Exists)
		assert.Equal(t, "OK", meta.OutFileStatus.Message)
	})

	t.Run("malformed record timestamp yields nil", func(t *testing.T) {
		settings := newMemSettings()
		settings.set(WatchdogNamespace, keyLastCheckAt, "yesterday")
		settings.set(WatchdogNamespace, keyLastCheckOK, "1")
		mon := newTestMonitor(t, settings, newMemBlobs(), healthyRunner())

		assert.Nil(t, mon.StatusMeta(context.Background()).LastCheck)
	})
}

func TestBackupJSONExportsCanonicalSnapshot(t *testing.T) {
	settings := newMemSettings()
	settings.set(ServiceNamespace, "DocumentServerUrl", "https://docs.example.com/")
	mon := newTestMonitor(t, settings, newMemBlobs(), healthyRunner())

	payload, err := mon.BackupJSON(context.Background())
	require.NoError(t, err)
	assert.Contains(t, string(payload), `"DocumentServerUrl": "https://docs.example.com/"`)
}
