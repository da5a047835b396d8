// Copyright (C) 2025 Oowatch Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Command oowatch runs the OnlyOffice watchdog: a daemon that probes
// the connector's health on a schedule and restores its configuration
// from backups when the probe fails, plus one-shot admin subcommands.
//
// Usage:
//
//	oowatch serve --config /etc/oowatch/config.yaml
//	oowatch check
//	oowatch backup
//	oowatch interval [minutes]
//	oowatch status
package main

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/oowatch/oowatch/pkg/logging"
	"github.com/oowatch/oowatch/services/monitor/config"
)

var (
	cfg       *config.Config
	appLogger *logging.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
}

func init() {
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		loaded, err := config.Load(configPath)
		if err != nil {
			log.Fatalf("Error loading config %s: %v", configPath, err)
		}
		cfg = loaded

		appLogger = logging.New(logging.Config{
			Level:   logging.ParseLevel(cfg.LogLevel),
			LogDir:  cfg.LogDir,
			Service: "oowatch",
		})
	}
	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		if appLogger != nil {
			if err := appLogger.Close(); err != nil {
				log.Printf("Failed to close log file: %v", err)
			}
		}
	}
}
