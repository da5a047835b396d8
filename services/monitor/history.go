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
	"log/slog"
	"time"
)

// Action names recorded in history entries.
const (
	ActionCheck     = "check"
	ActionReconnect = "reconnect"
)

// HistoryEntry is one recorded outcome of a check or reconnect action.
type HistoryEntry struct {
	// Timestamp is when the action completed.
	Timestamp time.Time `json:"ts"`

	// Action is ActionCheck or ActionReconnect.
	Action string `json:"action"`

	// OK reports whether the action succeeded.
	OK bool `json:"ok"`

	// Message is the human-readable outcome.
	Message string `json:"message"`
}

// HistoryLog is the bounded, append-only record of recent monitor
// actions, persisted as a single JSON blob.
//
// # Description
//
// Append is a read-modify-write over the whole blob, capped at the ten
// most recent entries (FIFO eviction). Persistence is best-effort:
// failures are logged and swallowed so a storage hiccup never fails a
// check or reconnect.
//
// # Thread Safety
//
// NOT safe for concurrent use; the Monitor's mutex serializes access.
type HistoryLog struct {
	blobs  BlobFolder
	limit  int
	logger *slog.Logger
}

// NewHistoryLog creates a history log over the given blob folder.
func NewHistoryLog(blobs BlobFolder, logger *slog.Logger) *HistoryLog {
	return &HistoryLog{
		blobs:  blobs,
		limit:  historyLimit,
		logger: logger,
	}
}

// Read returns the persisted entries, oldest first.
//
// Any read or parse failure yields an empty slice, never an error.
func (h *HistoryLog) Read(ctx context.Context) []HistoryEntry {
	raw, err := h.blobs.Read(ctx, historyBlob)
	if errors.Is(err, ErrNotFound) {
		return []HistoryEntry{}
	}
	if err != nil {
		h.logger.Warn("Failed to read history", "error", err)
		return []HistoryEntry{}
	}

	var entries []HistoryEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		h.logger.Warn("History blob is not a valid entry list", "error", err)
		return []HistoryEntry{}
	}
	return entries
}

// Append records one entry, evicting the oldest beyond the cap.
//
// Best-effort: persistence failures are logged and swallowed.
func (h *HistoryLog) Append(ctx context.Context, entry HistoryEntry) {
	entries := append(h.Read(ctx), entry)
	if len(entries) > h.limit {
		entries = entries[len(entries)-h.limit:]
	}

	payload, err := json.MarshalIndent(entries, "", "    ")
	if err != nil {
		h.logger.Warn("Failed to encode history", "error", err)
		return
	}
	if err := h.blobs.Write(ctx, historyBlob, payload); err != nil {
		h.logger.Warn("Failed to write history", "error", err)
	}
}
