// Copyright (C) 2025 Oowatch Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// runBackup captures the connector configuration and writes both
// backup forms.
func runBackup(cmd *cobra.Command, args []string) {
	mon, cleanup, err := openMonitor()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	result := mon.BackupNow(context.Background())
	printResult(result)
	exitOnFailure(result)
}

// runExport writes the canonical snapshot JSON to stdout or --output.
func runExport(cmd *cobra.Command, args []string) {
	mon, cleanup, err := openMonitor()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	payload, err := mon.BackupJSON(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if exportPath == "" {
		fmt.Println(string(payload))
		return
	}
	if err := os.WriteFile(exportPath, payload, 0640); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", exportPath, err)
		os.Exit(1)
	}
	fmt.Printf("Snapshot written to %s\n", exportPath)
}
