// Copyright (C) 2025 Oowatch Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package fsblob stores named blobs as files in one directory.
//
// This is the watchdog's appdata folder: the canonical snapshot, the
// out-file fallback, and the history log all live here as plain files.
package fsblob

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/oowatch/oowatch/services/monitor"
)

// ErrBadName rejects blob names that would escape the folder.
var ErrBadName = errors.New("blob name must be a bare file name")

// Folder is a directory-backed blob store.
//
// # Thread Safety
//
// Safe for concurrent use across processes to the extent the underlying
// filesystem is; writes go through a rename for atomicity.
type Folder struct {
	dir string
}

// New creates the folder at dir, making the directory if needed.
func New(dir string) (*Folder, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("create blob directory %s: %w", dir, err)
	}
	return &Folder{dir: dir}, nil
}

// Dir returns the backing directory.
func (f *Folder) Dir() string {
	return f.dir
}

func (f *Folder) path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, "..") {
		return "", fmt.Errorf("%w: got %q", ErrBadName, name)
	}
	return filepath.Join(f.dir, name), nil
}

// Exists implements monitor.BlobFolder.
func (f *Folder) Exists(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	path, err := f.path(name)
	if err != nil {
		return false, err
	}

	fi, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat blob %s: %w", name, err)
	}
	return fi.Mode().IsRegular(), nil
}

// Read implements monitor.BlobFolder.
func (f *Folder) Read(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := f.path(name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("blob %s: %w", name, monitor.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read blob %s: %w", name, err)
	}
	return data, nil
}

// Write implements monitor.BlobFolder. The blob is written to a
// temporary file and renamed into place so readers never see a torn
// write.
func (f *Folder) Write(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := f.path(name)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(f.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp for blob %s: %w", name, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write blob %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close blob %s: %w", name, err)
	}
	if err := os.Chmod(tmpName, 0640); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod blob %s: %w", name, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("store blob %s: %w", name, err)
	}
	return nil
}

// Delete implements monitor.BlobFolder. Deleting a missing blob is not
// an error.
func (f *Folder) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := f.path(name)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete blob %s: %w", name, err)
	}
	return nil
}
