// Copyright (C) 2025 Oowatch Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	configPath  string
	outputJSON  bool
	exportPath  string
	setEnabled  string // "on"/"off" override for the enabled flag
	setInterval int
	setOutFile  string

	rootCmd = &cobra.Command{
		Use:   "oowatch",
		Short: "A watchdog for an OnlyOffice document-server connector",
		Long: `Oowatch probes an OnlyOffice connector's health on a schedule and
				restores its configuration from flat-file or snapshot backups
				when the probe fails.`,
	}

	// --- Daemon ---
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the watchdog daemon with the admin HTTP API",
		Run:   runServe, // Defined in cmd_serve.go
	}

	// --- One-shot operations ---
	checkCmd = &cobra.Command{
		Use:   "check",
		Short: "Run one check-and-reconnect cycle and print the result",
		Run:   runCheck, // Defined in cmd_check.go
	}
	backupCmd = &cobra.Command{
		Use:   "backup",
		Short: "Capture the connector configuration and write the out file",
		Run:   runBackup, // Defined in cmd_backup.go
	}
	exportCmd = &cobra.Command{
		Use:   "export",
		Short: "Export the canonical backup snapshot as JSON",
		Run:   runExport, // Defined in cmd_backup.go
	}
	testFileCmd = &cobra.Command{
		Use:   "testfile",
		Short: "Probe the out-file target for read/write access",
		Run:   runTestFile, // Defined in cmd_check.go
	}

	// --- Settings ---
	intervalCmd = &cobra.Command{
		Use:   "interval [minutes]",
		Short: "Show or set the polling interval in minutes",
		Args:  cobra.MaximumNArgs(1),
		Run:   runInterval, // Defined in cmd_settings.go
	}
	settingsCmd = &cobra.Command{
		Use:   "settings",
		Short: "Update the out-file path, interval, or enabled flag",
		Run:   runSettings, // Defined in cmd_settings.go
	}
	statusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show the watchdog status, last outcomes, and history",
		Run:   runStatus, // Defined in cmd_settings.go
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config",
		"/etc/oowatch/config.yaml", "Path to the daemon configuration file")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false,
		"Print results as JSON")

	exportCmd.Flags().StringVarP(&exportPath, "output", "o", "",
		"Write the snapshot to a file instead of stdout")

	settingsCmd.Flags().StringVar(&setOutFile, "out-file", "",
		"Flat-file backup target; empty selects appdata mode")
	settingsCmd.Flags().IntVar(&setInterval, "interval", 0,
		"Polling interval in minutes")
	settingsCmd.Flags().StringVar(&setEnabled, "enabled", "",
		"Turn scheduled checks on or off (on/off)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(testFileCmd)
	rootCmd.AddCommand(intervalCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(statusCmd)
}
