// Copyright (C) 2025 Oowatch Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package monitor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Snapshot is an ordered mapping from configuration key to value.
//
// # Description
//
// A freshly captured snapshot holds every key in ServiceConfigKeys, in
// that order, with missing live values recorded as empty strings. A
// snapshot loaded from a fallback source holds only the keys the source
// actually contained, in source order. Snapshots are never mutated after
// capture; each capture produces a full replacement.
//
// # Thread Safety
//
// NOT safe for concurrent mutation; the Monitor's mutex serializes all
// access.
type Snapshot struct {
	keys   []string
	values map[string]string
}

// NewSnapshot creates an empty snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{values: make(map[string]string)}
}

// Set stores value under key. A repeated key overwrites the value but
// keeps the key's original position.
func (s *Snapshot) Set(key, value string) {
	if _, ok := s.values[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.values[key] = value
}

// Get returns the value for key and whether it is present.
func (s *Snapshot) Get(key string) (string, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Keys returns the keys in insertion order. The returned slice is a copy.
func (s *Snapshot) Keys() []string {
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

// Len returns the number of entries.
func (s *Snapshot) Len() int {
	return len(s.keys)
}

// Map returns the entries as a plain map (order lost). The returned map
// is a copy.
func (s *Snapshot) Map() map[string]string {
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// MarshalJSON encodes the snapshot as a JSON object in insertion order.
func (s *Snapshot) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range s.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		v, err := json.Marshal(s.values[key])
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, preserving document order.
// Non-string scalar values are coerced to their string form, matching
// the loosely typed snapshots older versions wrote.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("snapshot: expected JSON object, got %v", tok)
	}

	s.keys = nil
	s.values = make(map[string]string)

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("snapshot: non-string key %v", keyTok)
		}

		var raw any
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		s.Set(key, coerceString(raw))
	}

	// Consume the closing brace.
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// coerceString renders a decoded JSON scalar as the string the settings
// store would hold.
func coerceString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}

// MarshalPretty encodes the snapshot as indented JSON, the canonical
// on-disk form.
func (s *Snapshot) MarshalPretty() ([]byte, error) {
	compact, err := s.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, compact, "", "    "); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
