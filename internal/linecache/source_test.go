// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package linecache

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSource(t *testing.T) {
	lines, ok := Unpopulated().Lines()
	assert.False(t, ok)
	assert.Nil(t, lines)

	in := []string{"a\n"}
	src := Populated(in)
	in[0] = "changed\n"

	lines, ok = src.Lines()
	assert.True(t, ok)
	assert.Equal(t, []string{"a\n"}, lines)

	empty, ok := Populated(nil).Lines()
	assert.True(t, ok, "populated with nothing is still populated")
	assert.Empty(t, empty)
}

func TestSources(t *testing.T) {
	var s Sources

	_, ok := s.Lookup("x")
	assert.False(t, ok)

	s.Track("x")
	src, ok := s.Lookup("x")
	assert.True(t, ok)
	_, populated := src.Lines()
	assert.False(t, populated)

	s.Set("x", []string{"1\n"})
	src, _ = s.Lookup("x")
	lines, populated := src.Lines()
	assert.True(t, populated)
	assert.Equal(t, []string{"1\n"}, lines)

	s.Delete("x")
	_, ok = s.Lookup("x")
	assert.False(t, ok)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("boom") }

func TestSplitLines(t *testing.T) {
	lines, err := SplitLines(strings.NewReader("a\r\nb\n\nc"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a\r\n", "b\n", "\n", "c"}, lines)

	lines, err = SplitLines(strings.NewReader(""))
	require.NoError(t, err)
	assert.NotNil(t, lines)
	assert.Empty(t, lines)

	_, err = SplitLines(io.MultiReader(strings.NewReader("a\n"), failingReader{}))
	assert.EqualError(t, err, "boom")
}
