// Copyright (C) 2025 Oowatch Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package monitor implements the OnlyOffice watchdog core: the health
// probe, the backup store with its restore fallback chain, the bounded
// history log, and the derived status metadata.
//
// # Architecture
//
// The Monitor orchestrates three leaf collaborators, all injected as
// interfaces (no ambient lookup):
//
//	┌──────────────────────────────────────────────────────┐
//	│                       Monitor                        │
//	│  ┌──────────────┐ ┌────────────┐ ┌────────────────┐  │
//	│  │ SettingsStore│ │ BlobFolder │ │ CommandRunner  │  │
//	│  │ (namespaced  │ │ (backups/  │ │ (occ health    │  │
//	│  │  KV values)  │ │  blobs)    │ │  probe)        │  │
//	│  └──────────────┘ └────────────┘ └────────────────┘  │
//	└──────────────────────────────────────────────────────┘
//
// A failed probe drives the restore fallback chain: operator out-file,
// appdata out-file, canonical snapshot, and finally a fresh capture of
// the live configuration.
//
// # Error Policy
//
// Expected failure modes (unhealthy probe, missing or corrupt backup
// sources, best-effort history persistence) are result values, never
// errors. Storage errors surface as errors only where the caller can
// act on them (BackupNow reports them in its result message).
//
// # Thread Safety
//
// Monitor serializes its public operations with an internal mutex, so a
// scheduled run overlapping a manual trigger cannot interleave
// read-modify-write cycles on the history blob or the canonical
// snapshot. Cross-process coordination is out of scope.
package monitor

import "errors"

// Sentinel errors for the monitor core.
var (
	// ErrNotFound is returned by SettingsStore and BlobFolder
	// implementations when a key or blob does not exist. The core treats
	// it as "absent", distinct from a storage failure.
	ErrNotFound = errors.New("not found")

	// ErrNilDependency is returned by constructors when a required
	// collaborator is nil.
	ErrNilDependency = errors.New("nil dependency")

	// ErrIntervalTooSmall marks interval values below one minute at
	// boundaries that reject bad input outright (the CLI). The
	// programmatic UpdateIntervalMinutes clamps instead.
	ErrIntervalTooSmall = errors.New("interval must be >= 1 minute")
)
