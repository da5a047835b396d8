// Copyright (C) 2025 Oowatch Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/oowatch/oowatch/services/monitor"
)

// runInterval prints the polling interval, or sets it when an argument
// is given. Values below one minute are rejected.
func runInterval(cmd *cobra.Command, args []string) {
	mon, cleanup, err := openMonitor()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	ctx := context.Background()

	if len(args) == 0 {
		fmt.Printf("%d\n", mon.GetIntervalMinutes(ctx))
		return
	}

	minutes, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: interval must be a number, got %q\n", args[0])
		os.Exit(1)
	}
	if minutes < 1 {
		fmt.Fprintf(os.Stderr, "Error: %v, got %d\n", monitor.ErrIntervalTooSmall, minutes)
		os.Exit(1)
	}
	mon.UpdateIntervalMinutes(ctx, minutes)
	fmt.Printf("Interval set to %d minute(s)\n", minutes)
}

// runSettings applies the --out-file / --interval / --enabled flags.
func runSettings(cmd *cobra.Command, args []string) {
	mon, cleanup, err := openMonitor()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	ctx := context.Background()

	var outFile *string
	if cmd.Flags().Changed("out-file") {
		outFile = &setOutFile
	}
	interval := setInterval
	if !cmd.Flags().Changed("interval") {
		interval = mon.GetIntervalMinutes(ctx)
	}

	result := mon.UpdateSettings(ctx, outFile, interval)

	switch setEnabled {
	case "":
	case "on":
		mon.SetEnabled(ctx, true)
	case "off":
		mon.SetEnabled(ctx, false)
	default:
		fmt.Fprintf(os.Stderr, "Error: --enabled must be on or off, got %q\n", setEnabled)
		os.Exit(1)
	}

	printResult(result)
}

// runStatus prints the status view: paths, interval, last outcomes,
// and the recent action history.
func runStatus(cmd *cobra.Command, args []string) {
	mon, cleanup, err := openMonitor()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	meta := mon.StatusMeta(context.Background())

	if outputJSON {
		payload, err := json.MarshalIndent(meta, "", "    ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode status: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(payload))
		return
	}

	enabled := "disabled"
	if meta.Enabled {
		enabled = "enabled"
	}
	fmt.Printf("Watchdog:   %s\n", enabled)
	fmt.Printf("Out file:   %s (%s)\n", meta.OutFilePath, meta.OutFileStatus.Message)
	fmt.Printf("Interval:   %d minute(s)\n", meta.IntervalMinutes)
	printRecord("Last check", meta.LastCheck)
	printRecord("Last reconnect", meta.LastReconnect)
	printRecord("Last file test", meta.LastFileTest)

	if len(meta.History) > 0 {
		fmt.Println("History:")
		for _, entry := range meta.History {
			outcome := "FAIL"
			if entry.OK {
				outcome = "OK"
			}
			fmt.Printf("  %s  %-9s %-4s %s\n",
				entry.Timestamp.Format(time.RFC3339), entry.Action, outcome, entry.Message)
		}
	}
}

func printRecord(label string, record *monitor.ActionRecord) {
	if record == nil {
		fmt.Printf("%s: never\n", label)
		return
	}
	outcome := "FAIL"
	if record.OK {
		outcome = "OK"
	}
	if record.Message != "" {
		fmt.Printf("%s: %s at %s (%s)\n", label, outcome,
			record.At.Format(time.RFC3339), record.Message)
		return
	}
	fmt.Printf("%s: %s at %s\n", label, outcome, record.At.Format(time.RFC3339))
}
