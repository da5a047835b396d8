// Copyright (C) 2025 Oowatch Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlatFile(t *testing.T) {
	t.Run("basic pairs", func(t *testing.T) {
		snap := ParseFlatFile([]byte("a=1\nb=2\n"))
		require.NotNil(t, snap)
		assert.Equal(t, []string{"a", "b"}, snap.Keys())
		v, _ := snap.Get("b")
		assert.Equal(t, "2", v)
	})

	t.Run("windows and mac line endings", func(t *testing.T) {
		snap := ParseFlatFile([]byte("a=1\r\nb=2\rc=3\n"))
		require.NotNil(t, snap)
		assert.Equal(t, []string{"a", "b", "c"}, snap.Keys())
	})

	t.Run("splits on first equals only", func(t *testing.T) {
		snap := ParseFlatFile([]byte("secret=a=b=c\n"))
		require.NotNil(t, snap)
		v, _ := snap.Get("secret")
		assert.Equal(t, "a=b=c", v)
	})

	t.Run("skips blank lines and lines without equals", func(t *testing.T) {
		snap := ParseFlatFile([]byte("\n# not a pair\na=1\n\n"))
		require.NotNil(t, snap)
		assert.Equal(t, []string{"a"}, snap.Keys())
	})

	t.Run("trims key whitespace, keeps value verbatim", func(t *testing.T) {
		snap := ParseFlatFile([]byte("  url  = https://x/ \n"))
		require.NotNil(t, snap)
		v, ok := snap.Get("url")
		require.True(t, ok)
		assert.Equal(t, " https://x/ ", v)
	})

	t.Run("empty key is skipped", func(t *testing.T) {
		assert.Nil(t, ParseFlatFile([]byte("=value\n")))
	})

	t.Run("empty value is kept", func(t *testing.T) {
		snap := ParseFlatFile([]byte("jwt_secret=\n"))
		require.NotNil(t, snap)
		v, ok := snap.Get("jwt_secret")
		require.True(t, ok)
		assert.Empty(t, v)
	})

	t.Run("nil for content without pairs", func(t *testing.T) {
		assert.Nil(t, ParseFlatFile(nil))
		assert.Nil(t, ParseFlatFile([]byte("")))
		assert.Nil(t, ParseFlatFile([]byte("no pairs here\n")))
	})

	t.Run("duplicate key keeps last value and first position", func(t *testing.T) {
		snap := ParseFlatFile([]byte("a=1\nb=2\na=3\n"))
		require.NotNil(t, snap)
		assert.Equal(t, []string{"a", "b"}, snap.Keys())
		v, _ := snap.Get("a")
		assert.Equal(t, "3", v)
	})
}

func TestSerializeFlatFile(t *testing.T) {
	snap := NewSnapshot()
	snap.Set("DocumentServerUrl", "https://docs.example.com/")
	snap.Set("jwt_secret", "")

	got := string(SerializeFlatFile(snap))
	assert.Equal(t, "DocumentServerUrl=https://docs.example.com/\njwt_secret=\n", got)
}

func TestFlatFileRoundTrip(t *testing.T) {
	snap := NewSnapshot()
	snap.Set("a", "1")
	snap.Set("b", "x=y")
	snap.Set("c", "")

	parsed := ParseFlatFile(SerializeFlatFile(snap))
	require.NotNil(t, parsed)
	assert.Equal(t, snap.Keys(), parsed.Keys())
	assert.Equal(t, snap.Map(), parsed.Map())
}
