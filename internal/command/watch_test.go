// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package command

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/staranto/linecache/internal/attrs"
	"github.com/staranto/linecache/internal/linecache"
	"github.com/staranto/linecache/internal/output"
)

func kinds(changes []change) []string {
	result := make([]string, len(changes))
	for i, c := range changes {
		result[i] = c.Kind
	}
	return result
}

func TestLineWatcher_Scan(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.rb", "one\ntwo\n")
	base := time.Now().Add(-time.Hour).Truncate(time.Second)
	require.NoError(t, os.Chtimes(path, base, base))

	lw, err := newLineWatcher(linecache.New(), []string{path})
	require.NoError(t, err)
	assert.Empty(t, lw.scan())

	// Same content, new mtime.
	touched := base.Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, touched, touched))
	changes := lw.scan()
	assert.Equal(t, []string{changeTouched}, kinds(changes))
	assert.Equal(t, []string{"one\n", "two\n"}, changes[0].New)

	require.NoError(t, os.WriteFile(path, []byte("one\n2\nthree\n"), 0o644))
	modified := base.Add(4 * time.Second)
	require.NoError(t, os.Chtimes(path, modified, modified))
	changes = lw.scan()
	require.Equal(t, []string{changeModified}, kinds(changes))
	assert.Equal(t, path, changes[0].Key)
	assert.Equal(t, []string{"one\n", "two\n"}, changes[0].Old)
	assert.Equal(t, []string{"one\n", "2\n", "three\n"}, changes[0].New)

	require.NoError(t, os.Remove(path))
	changes = lw.scan()
	require.Equal(t, []string{changeRemoved}, kinds(changes))
	assert.Equal(t, []string{"one\n", "2\n", "three\n"}, changes[0].Old)
	assert.Empty(t, lw.scan(), "a removed file is only reported once")

	writeFile(t, dir, "a.rb", "back\n")
	changes = lw.scan()
	require.Equal(t, []string{changeRestored}, kinds(changes))
	assert.Equal(t, []string{"back\n"}, changes[0].New)
	assert.Empty(t, lw.scan())
}

func TestLineWatcher_MissingFile(t *testing.T) {
	_, err := newLineWatcher(linecache.New(), []string{filepath.Join(t.TempDir(), "nope.rb")})
	assert.ErrorIs(t, err, linecache.ErrNotFound)
}

func TestLineWatcher_DirsAndPaths(t *testing.T) {
	dir := t.TempDir()
	other := t.TempDir()
	a := writeFile(t, dir, "a.rb", "a\n")
	b := writeFile(t, dir, "b.rb", "b\n")
	c := writeFile(t, other, "c.rb", "c\n")

	lw, err := newLineWatcher(linecache.New(), []string{a, b, c})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{dir, other}, lw.dirs())
	assert.Equal(t, map[string]string{a: a, b: b, c: c}, lw.paths())
}

func TestFingerprint(t *testing.T) {
	assert.Equal(t, fingerprint([]string{"a\n", "b\n"}), fingerprint([]string{"a\n", "b\n"}))
	assert.NotEqual(t, fingerprint([]string{"a\n", "b\n"}), fingerprint([]string{"a\n", "c\n"}))
	assert.NotEqual(t, fingerprint([]string{"ab\n"}), fingerprint([]string{"a\n", "b\n"}))
	assert.Equal(t, fingerprint(nil), fingerprint([]string{}))
}

func TestLineDiff(t *testing.T) {
	d, err := lineDiff([]string{"a\n", "b\n"}, []string{"a\n", "b\n"})
	require.NoError(t, err)
	assert.Empty(t, d)

	d, err = lineDiff([]string{"keep\n", "old\n"}, []string{"keep\n", "new\n"})
	require.NoError(t, err)
	assert.Contains(t, d, "old")
	assert.Contains(t, d, "new")
	assert.Contains(t, d, "-")
	assert.Contains(t, d, "+")
}

func TestReportChanges(t *testing.T) {
	isolate(t)

	var out bytes.Buffer
	var diff bool
	cmd := &cli.Command{
		Name:   "watch",
		Writer: &out,
		Flags:  []cli.Flag{&cli.BoolFlag{Name: "diff"}},
		Action: func(ctx context.Context, c *cli.Command) error {
			diff = c.Bool("diff")
			var al attrs.AttrList
			require.NoError(t, al.Set("time,file,change,lines"))
			require.NoError(t, al.Set("!time"))
			changes := []change{
				{Key: "a.rb", Kind: changeModified, Old: []string{"x\n"}, New: []string{"y\n", "z\n"}},
				{Key: "b.rb", Kind: changeRemoved, Old: []string{"q\n"}},
			}
			return reportChanges(c, changes, al, output.Options{Output: "json"}, true)
		},
	}
	require.NoError(t, cmd.Run(context.Background(), []string{"watch", "--diff"}))
	assert.True(t, diff)

	got := out.String()
	first, rest, _ := strings.Cut(got, "\n")
	assert.JSONEq(t, `[
		{"file": "a.rb", "change": "modified", "lines": 2},
		{"file": "b.rb", "change": "removed", "lines": 0}
	]`, first)
	assert.Contains(t, rest, "y")
	assert.NotContains(t, rest, "q")
}

func TestWatchCommand(t *testing.T) {
	isolate(t)
	path := writeFile(t, t.TempDir(), "a.rb", "start\n")

	args := []string{"linecache", "watch", "--count", "1", "-o", "json", "-a", "!time", path}
	app, err := InitApp(context.Background(), args)
	require.NoError(t, err)

	var out bytes.Buffer
	app.Writer = &out
	app.ErrWriter = io.Discard

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- app.Run(ctx, args) }()

	// Keep changing the file until the watcher is up and has seen a change.
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	content := "start\n"
	for {
		select {
		case err := <-done:
			require.NoError(t, err)
			assert.Contains(t, out.String(), `"change":"modified"`)
			assert.Contains(t, out.String(), `"file":"`+path+`"`)
			return
		case <-ticker.C:
			content += "more\n"
			require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		case <-ctx.Done():
			t.Fatal("watch did not report a change")
		}
	}
}
