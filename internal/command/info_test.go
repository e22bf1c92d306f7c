// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package command

import (
	"crypto/sha1" //nolint:gosec
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staranto/linecache/internal/linecache"
)

func sha1Hex(s string) string {
	sum := sha1.Sum([]byte(s)) //nolint:gosec
	return hex.EncodeToString(sum[:])
}

func TestDescribeFiles(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.rb", "a\nb\nc\n")
	mtime := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)
	require.NoError(t, os.Chtimes(path, mtime, mtime))

	sources := linecache.NewSources()
	sources.Set("virtual.rb", []string{"x\n"})
	cache := linecache.New(linecache.WithSources(sources))

	rows, missing := describeFiles(cache, []string{path, "virtual.rb", filepath.Join(dir, "gone.rb")}, false, false)
	assert.Equal(t, []string{filepath.Join(dir, "gone.rb")}, missing)
	require.Len(t, rows, 2)

	assert.Equal(t, infoRow{
		File:   path,
		Path:   path,
		Lines:  3,
		Size:   int64(6),
		MTime:  "2025-03-04T05:06:07Z",
		Digest: sha1Hex("a\nb\nc\n"),
	}, rows[0])

	assert.Equal(t, "virtual.rb", rows[1].File)
	assert.Equal(t, 1, rows[1].Lines)
	assert.Equal(t, sha1Hex("x\n"), rows[1].Digest)
	assert.Nil(t, rows[1].Size)
	assert.Empty(t, rows[1].MTime)
}

func TestDescribeFiles_Human(t *testing.T) {
	path := writeFile(t, t.TempDir(), "big.txt", string(make([]byte, 2048)))
	hourAgo := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(path, hourAgo, hourAgo))
	cache := linecache.New()

	rows, missing := describeFiles(cache, []string{path}, false, true)
	assert.Empty(t, missing)
	require.Len(t, rows, 1)
	assert.Equal(t, "2.0 KiB", rows[0].Size)
	assert.Equal(t, "1 hour ago", rows[0].MTime)
}

func TestChopPrefix(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "empty",
			input:    []string{},
			expected: []string{},
		},
		{
			name:     "single file",
			input:    []string{"/home/dev/app/lib/a.rb"},
			expected: []string{"../a.rb"},
		},
		{
			name: "common prefix",
			input: []string{
				"/home/dev/app/lib/a.rb",
				"/home/dev/app/lib/b.rb",
				"/home/dev/app/test/c.rb",
			},
			expected: []string{
				"../a.rb",
				"../b.rb",
				"/home/dev/app/test/c.rb",
			},
		},
		{
			name: "majority prefix",
			input: []string{
				"/home/dev/app/a.rb",
				"/home/dev/app/b.rb",
				"/opt/ruby/c.rb",
			},
			expected: []string{
				"../a.rb",
				"../b.rb",
				"/opt/ruby/c.rb",
			},
		},
		{
			name: "too shallow",
			input: []string{
				"/home/a.rb",
				"/home/b.rb",
			},
			expected: []string{
				"/home/a.rb",
				"/home/b.rb",
			},
		},
		{
			name: "nothing shared",
			input: []string{
				"/home/dev/a.rb",
				"/opt/ruby/b.rb",
				"/usr/lib/c.rb",
			},
			expected: []string{
				"/home/dev/a.rb",
				"/opt/ruby/b.rb",
				"/usr/lib/c.rb",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dataset := make([]map[string]interface{}, len(tt.input))
			for i, p := range tt.input {
				dataset[i] = map[string]interface{}{"path": filepath.FromSlash(p)}
			}

			chopPrefix(dataset, "path")

			got := make([]string, len(dataset))
			for i, entry := range dataset {
				got[i] = filepath.ToSlash(entry["path"].(string))
			}
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestChopPrefix_SkipsNonString(t *testing.T) {
	dataset := []map[string]interface{}{
		{"path": nil},
		{"path": "/a/b/c/one.rb"},
		{"path": "/a/b/c/two.rb"},
	}
	chopPrefix(dataset, "path")
	assert.Nil(t, dataset[0]["path"])
	assert.Equal(t, filepath.FromSlash("../one.rb"), dataset[1]["path"])
}

func TestInfoCommand(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "a.rb", "a\nb\nc\n")

	out, err := runApp(t, "", "info", "-o", "json", "-a", "!mtime", path)
	require.NoError(t, err)

	var rows []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, map[string]interface{}{
		"file":   path,
		"path":   path,
		"lines":  float64(3),
		"size":   float64(6),
		"digest": sha1Hex("a\nb\nc\n"),
	}, rows[0])
}

func TestInfoCommand_Missing(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "a.rb", "a\n")

	out, err := runApp(t, "", "info", "-o", "json", "-a", "file,lines", path, filepath.Join(dir, "gone.rb"))
	assert.EqualError(t, err, "1 of 2 files could not be loaded")
	assert.Contains(t, out, `"lines":1`)
}
