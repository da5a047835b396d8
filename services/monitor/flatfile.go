// Copyright (C) 2025 Oowatch Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package monitor

import "strings"

// ParseFlatFile parses the operator-editable `key=value` serialization.
//
// # Description
//
// Splits the input on line breaks (any of \n, \r\n, \r), ignores blank
// lines and lines without '=', splits each remaining line on the FIRST
// '=' only, and trims the key. Values are kept verbatim, so they may
// contain '='. Duplicate keys overwrite (last line wins); insertion
// order is otherwise preserved. Keys that trim to empty are ignored.
//
// # Outputs
//
//   - *Snapshot: the parsed mapping, or nil when zero pairs were found
//     ("no data" — callers treat it as a fallback miss).
func ParseFlatFile(data []byte) *Snapshot {
	snap := NewSnapshot()

	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	for _, line := range strings.Split(text, "\n") {
		if line == "" {
			continue
		}
		eq := strings.Index(line, "=")
		if eq < 0 {
			continue
		}
		key := strings.TrimSpace(line[:eq])
		if key == "" {
			continue
		}
		snap.Set(key, line[eq+1:])
	}

	if snap.Len() == 0 {
		return nil
	}
	return snap
}

// SerializeFlatFile renders a snapshot as `key=value` lines, one per
// entry in snapshot order, each line terminated (including the last).
func SerializeFlatFile(snap *Snapshot) []byte {
	var b strings.Builder
	for _, key := range snap.Keys() {
		value, _ := snap.Get(key)
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(value)
		b.WriteByte('\n')
	}
	return []byte(b.String())
}
