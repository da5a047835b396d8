// Copyright (C) 2025 Oowatch Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package monitor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

// memSettings is an in-memory SettingsStore for tests.
type memSettings struct {
	mu   sync.Mutex
	data map[string]string

	// getErr and setErr, when set, fail every Get/Set.
	getErr error
	setErr error
}

func newMemSettings() *memSettings {
	return &memSettings{data: map[string]string{}}
}

func (m *memSettings) Get(_ context.Context, namespace, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return "", m.getErr
	}
	value, ok := m.data[namespace+"/"+key]
	if !ok {
		return "", fmt.Errorf("%s/%s: %w", namespace, key, ErrNotFound)
	}
	return value, nil
}

func (m *memSettings) Set(_ context.Context, namespace, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.data[namespace+"/"+key] = value
	return nil
}

func (m *memSettings) Delete(_ context.Context, namespace, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, namespace+"/"+key)
	return nil
}

func (m *memSettings) get(namespace, key string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[namespace+"/"+key]
}

func (m *memSettings) set(namespace, key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[namespace+"/"+key] = value
}

// memBlobs is an in-memory BlobFolder for tests.
type memBlobs struct {
	mu   sync.Mutex
	data map[string][]byte

	readErr  error
	writeErr error
}

func newMemBlobs() *memBlobs {
	return &memBlobs{data: map[string][]byte{}}
}

func (m *memBlobs) Exists(_ context.Context, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[name]
	return ok, nil
}

func (m *memBlobs) Read(_ context.Context, name string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return nil, m.readErr
	}
	data, ok := m.data[name]
	if !ok {
		return nil, fmt.Errorf("blob %s: %w", name, ErrNotFound)
	}
	return append([]byte(nil), data...), nil
}

func (m *memBlobs) Write(_ context.Context, name string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	m.data[name] = append([]byte(nil), data...)
	return nil
}

func (m *memBlobs) Delete(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, name)
	return nil
}

// fakeRunner is a scripted CommandRunner. Entries in script are
// consumed one per Run call; once exhausted, result/err repeat.
type fakeRunner struct {
	result CommandResult
	err    error

	script []CommandResult

	calls    int
	lastName string
	lastArgs []string
}

func (r *fakeRunner) Run(_ context.Context, name string, args []string) (CommandResult, error) {
	r.calls++
	r.lastName = name
	r.lastArgs = args
	if len(r.script) > 0 {
		next := r.script[0]
		r.script = r.script[1:]
		return next, nil
	}
	return r.result, r.err
}

func healthyRunner() *fakeRunner {
	return &fakeRunner{result: CommandResult{
		ExitOK: true,
		Output: "Documentserver successfully connected",
	}}
}

func failingRunner() *fakeRunner {
	return &fakeRunner{result: CommandResult{
		ExitOK: false,
		Output: "Error connecting to documentserver",
	}}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var testTime = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func newTestMonitor(t interface{ Fatalf(string, ...any) }, settings *memSettings, blobs *memBlobs, runner CommandRunner) *Monitor {
	mon, err := New(settings, blobs, runner, Config{ServerRoot: "/srv/cloud"},
		WithLogger(discardLogger()),
		WithClock(func() time.Time { return testTime }))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return mon
}
