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

// runCheck runs one check-and-reconnect cycle from the command line.
func runCheck(cmd *cobra.Command, args []string) {
	mon, cleanup, err := openMonitor()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	result := mon.CheckAndReconnect(context.Background())
	printResult(result)
	exitOnFailure(result)
}

// runTestFile probes the out-file target for read/write access.
func runTestFile(cmd *cobra.Command, args []string) {
	mon, cleanup, err := openMonitor()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	result := mon.TestOutFileAccess(context.Background())
	printResult(result)
	exitOnFailure(result)
}
