// Copyright (C) 2025 Oowatch Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

//go:build unix

package monitor

import "golang.org/x/sys/unix"

// canRead reports whether the calling process may read path.
func canRead(path string) bool {
	return unix.Access(path, unix.R_OK) == nil
}

// canWrite reports whether the calling process may write path.
func canWrite(path string) bool {
	return unix.Access(path, unix.W_OK) == nil
}
