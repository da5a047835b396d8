// Copyright (C) 2025 Oowatch Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
)

// LoadState classifies the outcome of loading a restore source.
//
// The Monitor's fallback policy treats LoadMiss and LoadUnavailable
// identically ("try the next source"); they are distinguished so logs
// can tell a missing backup from a broken store.
type LoadState int

const (
	// LoadHit means the source yielded at least one key/value pair.
	LoadHit LoadState = iota

	// LoadMiss means the source is absent, empty, or failed to parse.
	LoadMiss

	// LoadUnavailable means the backing storage errored.
	LoadUnavailable
)

// String returns the lowercase name of the state.
func (s LoadState) String() string {
	switch s {
	case LoadHit:
		return "hit"
	case LoadMiss:
		return "miss"
	case LoadUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// BackupStore captures and restores snapshots of the monitored service's
// configuration.
//
// # Description
//
// Capture reads every key in the injected key set from the service's
// live namespace and persists the result as the canonical snapshot blob
// (pretty-printed JSON). The store also reads and writes the flat-file
// serialization, both at an operator-supplied filesystem path and as the
// appdata blob fallback.
//
// # Thread Safety
//
// NOT safe for concurrent use; the Monitor's mutex serializes access.
type BackupStore struct {
	settings SettingsStore
	blobs    BlobFolder
	keys     []string
	logger   *slog.Logger
}

// NewBackupStore creates a backup store over the given collaborators.
//
// Inputs:
//
//	settings - The namespaced settings store. Must not be nil.
//	blobs - The backup blob folder. Must not be nil.
//	keys - The fixed configuration key set to capture.
//	logger - Logger for backup events. Must not be nil.
//
// Outputs:
//
//	*BackupStore - The store.
//	error - ErrNilDependency when a collaborator is nil.
func NewBackupStore(settings SettingsStore, blobs BlobFolder, keys []string, logger *slog.Logger) (*BackupStore, error) {
	if settings == nil || blobs == nil || logger == nil {
		return nil, fmt.Errorf("%w: backup store requires settings, blobs, and logger", ErrNilDependency)
	}
	return &BackupStore{
		settings: settings,
		blobs:    blobs,
		keys:     keys,
		logger:   logger,
	}, nil
}

// Capture reads the live configuration and persists it as the canonical
// snapshot.
//
// # Description
//
// Every key in the key set is present in the result; keys missing from
// the live namespace are recorded as empty strings. The snapshot is
// always returned, even when persisting the canonical blob fails — the
// caller decides whether that failure matters.
//
// Outputs:
//
//	*Snapshot - The captured snapshot (never nil).
//	error - Non-nil if reading a live value or writing the blob failed.
func (b *BackupStore) Capture(ctx context.Context) (*Snapshot, error) {
	snap := NewSnapshot()
	for _, key := range b.keys {
		value, err := b.settings.Get(ctx, ServiceNamespace, key)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return snap, fmt.Errorf("read live value %s: %w", key, err)
		}
		snap.Set(key, value)
	}

	payload, err := snap.MarshalPretty()
	if err != nil {
		return snap, fmt.Errorf("encode snapshot: %w", err)
	}
	if err := b.blobs.Write(ctx, snapshotBlob, payload); err != nil {
		return snap, fmt.Errorf("store snapshot: %w", err)
	}

	b.logger.Info("OnlyOffice config backup stored", "count", snap.Len())
	return snap, nil
}

// LoadCanonical reads the canonical snapshot blob.
//
// Absence and parse failures are LoadMiss, storage errors are
// LoadUnavailable; neither is an error — callers move on to the next
// fallback source.
func (b *BackupStore) LoadCanonical(ctx context.Context) (*Snapshot, LoadState) {
	raw, err := b.blobs.Read(ctx, snapshotBlob)
	if errors.Is(err, ErrNotFound) {
		return nil, LoadMiss
	}
	if err != nil {
		b.logger.Warn("Failed to load backup", "error", err)
		return nil, LoadUnavailable
	}

	snap := NewSnapshot()
	if err := json.Unmarshal(raw, snap); err != nil {
		b.logger.Warn("Backup snapshot is not a valid mapping", "error", err)
		return nil, LoadMiss
	}
	return snap, LoadHit
}

// LoadFlatBlob reads the appdata out-file fallback from the blob folder.
func (b *BackupStore) LoadFlatBlob(ctx context.Context) (*Snapshot, LoadState) {
	raw, err := b.blobs.Read(ctx, outFileBlob)
	if errors.Is(err, ErrNotFound) {
		return nil, LoadMiss
	}
	if err != nil {
		b.logger.Warn("Failed to read appdata out file", "error", err)
		return nil, LoadUnavailable
	}

	snap := ParseFlatFile(raw)
	if snap == nil {
		return nil, LoadMiss
	}
	b.logger.Info("Loaded OnlyOffice config from appdata out file", "count", snap.Len())
	return snap, LoadHit
}

// LoadFlatPath reads the operator-configured out file at path.
func (b *BackupStore) LoadFlatPath(path string) (*Snapshot, LoadState) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, LoadMiss
	}
	if err != nil {
		b.logger.Warn("Failed to read out file", "path", path, "error", err)
		return nil, LoadUnavailable
	}

	snap := ParseFlatFile(raw)
	if snap == nil {
		return nil, LoadMiss
	}
	b.logger.Info("Loaded OnlyOffice config from out file", "path", path, "count", snap.Len())
	return snap, LoadHit
}

// WriteFlatBlob stores the flat-file serialization as the appdata blob.
func (b *BackupStore) WriteFlatBlob(ctx context.Context, snap *Snapshot) error {
	if err := b.blobs.Write(ctx, outFileBlob, SerializeFlatFile(snap)); err != nil {
		return fmt.Errorf("store appdata out file: %w", err)
	}
	b.logger.Info("Appdata out file saved", "count", snap.Len())
	return nil
}

// WriteFlatPath stores the flat-file serialization at path.
func (b *BackupStore) WriteFlatPath(path string, snap *Snapshot) error {
	if err := os.WriteFile(path, SerializeFlatFile(snap), 0640); err != nil {
		return fmt.Errorf("write out file %s: %w", path, err)
	}
	b.logger.Info("Out file saved", "path", path, "count", snap.Len())
	return nil
}

// ExportJSON returns the canonical snapshot as pretty JSON, capturing a
// fresh one when no canonical snapshot can be loaded.
func (b *BackupStore) ExportJSON(ctx context.Context) ([]byte, error) {
	snap, state := b.LoadCanonical(ctx)
	if state != LoadHit {
		var err error
		snap, err = b.Capture(ctx)
		if err != nil {
			return nil, err
		}
	}
	return snap.MarshalPretty()
}
