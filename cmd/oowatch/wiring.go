// Copyright (C) 2025 Oowatch Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/oowatch/oowatch/services/monitor"
	"github.com/oowatch/oowatch/services/monitor/storage/badgerkv"
	"github.com/oowatch/oowatch/services/monitor/storage/fsblob"
)

// openMonitor wires the storage backends and the engine from the
// loaded configuration. The returned cleanup closes the settings
// database; call it exactly once.
func openMonitor() (*monitor.Monitor, func(), error) {
	store, err := badgerkv.Open(badgerkv.DefaultConfig(cfg.SettingsPath()))
	if err != nil {
		return nil, nil, fmt.Errorf("open settings store: %w", err)
	}

	blobs, err := fsblob.New(cfg.BackupPath())
	if err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("open backup folder: %w", err)
	}

	mon, err := monitor.New(store, blobs, monitor.ExecRunner{}, monitor.Config{
		PHPPath:            cfg.PHPPath,
		ServerRoot:         cfg.ServerRoot,
		DefaultOutFilePath: cfg.OutFilePath,
		AppdataBackupPath:  blobs.Dir(),
	}, monitor.WithLogger(appLogger.Slog()))
	if err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("create monitor: %w", err)
	}

	cleanup := func() {
		if err := store.Close(); err != nil {
			appLogger.Warn("Failed to close settings store", "error", err)
		}
	}
	return mon, cleanup, nil
}

// printResult renders an operation result for the terminal, or as JSON
// when --json is set.
func printResult(result monitor.Result) {
	if outputJSON {
		payload, err := json.MarshalIndent(result, "", "    ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode result: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(payload))
		return
	}

	fmt.Println(result.Message)
	if result.Output != "" {
		fmt.Println(result.Output)
	}
	if result.Path != "" {
		fmt.Printf("Target: %s\n", result.Path)
	}
}

// exitOnFailure terminates with status 1 when the result reports
// failure, so scripts can branch on the exit code.
func exitOnFailure(result monitor.Result) {
	if !result.OK {
		os.Exit(1)
	}
}
