// Copyright (C) 2025 Oowatch Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package monitor

import "context"

// SettingsStore stores small string-valued settings, namespaced by owner.
//
// The watchdog only ever touches two namespaces: its own
// (WatchdogNamespace) and the monitored service's (ServiceNamespace).
// Other tenants of the same store are never read or written.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use.
type SettingsStore interface {
	// Get returns the value for key in namespace.
	// Returns ErrNotFound when the key does not exist.
	Get(ctx context.Context, namespace, key string) (string, error)

	// Set stores value under key in namespace, replacing any prior value.
	Set(ctx context.Context, namespace, key, value string) error

	// Delete removes key from namespace. Deleting a missing key is not
	// an error.
	Delete(ctx context.Context, namespace, key string) error
}

// BlobFolder stores named byte blobs in one logical folder.
//
// The watchdog keeps three blobs here: the canonical snapshot, the
// appdata out-file fallback, and the history log.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use.
type BlobFolder interface {
	// Exists reports whether a blob with the given name exists.
	Exists(ctx context.Context, name string) (bool, error)

	// Read returns the blob's contents.
	// Returns ErrNotFound when the blob does not exist.
	Read(ctx context.Context, name string) ([]byte, error)

	// Write stores data under name, replacing any prior contents.
	Write(ctx context.Context, name string, data []byte) error

	// Delete removes the blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error
}

// CommandResult is the outcome of one external command invocation.
type CommandResult struct {
	// ExitOK is true when the process exited with status 0.
	ExitOK bool

	// Output is the trimmed, combined stdout+stderr text.
	Output string
}

// CommandRunner executes an external administrative command.
//
// Cancellation (including the probe's 30-second timeout) is carried by
// the context; a killed process reports ExitOK=false, not an error.
// A non-nil error means the command could not be run at all (binary
// missing, fork failure).
type CommandRunner interface {
	Run(ctx context.Context, name string, args []string) (CommandResult, error)
}
