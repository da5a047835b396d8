// Copyright (C) 2025 Oowatch Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package fsblob

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oowatch/oowatch/services/monitor"
)

func newTestFolder(t *testing.T) *Folder {
	t.Helper()
	f, err := New(filepath.Join(t.TempDir(), "backup"))
	require.NoError(t, err)
	return f
}

func TestNewCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	f, err := New(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, f.Dir())

	fi, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, fi.IsDir())
}

func TestWriteReadRoundTrip(t *testing.T) {
	f := newTestFolder(t)
	ctx := context.Background()

	require.NoError(t, f.Write(ctx, "out-oo.txt", []byte("a=1\n")))

	data, err := f.Read(ctx, "out-oo.txt")
	require.NoError(t, err)
	assert.Equal(t, "a=1\n", string(data))

	// Overwrite replaces the contents.
	require.NoError(t, f.Write(ctx, "out-oo.txt", []byte("b=2\n")))
	data, err = f.Read(ctx, "out-oo.txt")
	require.NoError(t, err)
	assert.Equal(t, "b=2\n", string(data))
}

func TestWriteLeavesNoTempFiles(t *testing.T) {
	f := newTestFolder(t)
	require.NoError(t, f.Write(context.Background(), "history.json", []byte("[]")))

	entries, err := os.ReadDir(f.Dir())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "history.json", entries[0].Name())
}

func TestReadMissingIsNotFound(t *testing.T) {
	f := newTestFolder(t)
	_, err := f.Read(context.Background(), "absent.json")
	assert.ErrorIs(t, err, monitor.ErrNotFound)
}

func TestExists(t *testing.T) {
	f := newTestFolder(t)
	ctx := context.Background()

	exists, err := f.Exists(ctx, "out-oo.txt")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, f.Write(ctx, "out-oo.txt", []byte("a=1\n")))
	exists, err = f.Exists(ctx, "out-oo.txt")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestDelete(t *testing.T) {
	f := newTestFolder(t)
	ctx := context.Background()

	require.NoError(t, f.Write(ctx, "x", []byte("1")))
	require.NoError(t, f.Delete(ctx, "x"))

	exists, err := f.Exists(ctx, "x")
	require.NoError(t, err)
	assert.False(t, exists)

	// Deleting a missing blob is not an error.
	require.NoError(t, f.Delete(ctx, "x"))
}

func TestRejectsEscapingNames(t *testing.T) {
	f := newTestFolder(t)
	ctx := context.Background()

	for _, name := range []string{"", "../evil", "a/b", "..", "/abs"} {
		assert.ErrorIs(t, f.Write(ctx, name, []byte("x")), ErrBadName, "name %q", name)
		_, err := f.Read(ctx, name)
		assert.ErrorIs(t, err, ErrBadName, "name %q", name)
	}
}
