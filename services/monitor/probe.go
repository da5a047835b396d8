// Copyright (C) 2025 Oowatch Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package monitor

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
)

// ExecRunner is the production CommandRunner, backed by os/exec.
//
// # Description
//
// Runs the command with stdout and stderr captured separately, then
// joins them the way the admin tool's operators read them: stdout first,
// stderr appended on a new line, surrounding whitespace trimmed.
// Context cancellation (the probe timeout) kills the process; the kill
// is reported as ExitOK=false, not an error.
type ExecRunner struct{}

// Run implements CommandRunner.
func (ExecRunner) Run(ctx context.Context, name string, args []string) (CommandResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := CommandResult{
		Output: strings.TrimSpace(stdout.String() + "\n" + stderr.String()),
	}

	if ctx.Err() != nil {
		// Timed out or cancelled; unhealthy, same as a non-zero exit.
		return result, nil
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return result, nil
		}
		// The command could not be started at all.
		return result, err
	}

	result.ExitOK = true
	return result, nil
}

// probeOutcome is the classified result of one health probe.
type probeOutcome struct {
	ok      bool
	message string
	output  string
}

// classifyProbe applies the health contract: exit status 0 AND the
// case-insensitive marker "successfully" somewhere in the combined
// output.
func classifyProbe(res CommandResult, runErr error) probeOutcome {
	output := res.Output
	if runErr != nil {
		output = strings.TrimSpace(output + "\n" + runErr.Error())
	}

	ok := runErr == nil && res.ExitOK &&
		strings.Contains(strings.ToLower(output), "successfully")

	message := "OnlyOffice check failed"
	if ok {
		message = "OnlyOffice OK"
	}
	return probeOutcome{ok: ok, message: message, output: output}
}
