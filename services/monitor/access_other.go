// Copyright (C) 2025 Oowatch Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

//go:build !unix

package monitor

import "os"

// canRead reports whether path can be opened for reading.
func canRead(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	f.Close()
	return true
}

// canWrite approximates write access where access(2) is unavailable;
// the write-then-delete probe in TestOutFileAccess is authoritative.
func canWrite(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
