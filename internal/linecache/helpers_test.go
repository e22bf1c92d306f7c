// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package linecache

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// countingFS wraps OS and counts calls so tests can see whether a cache hit
// went to disk.
type countingFS struct {
	mu       sync.Mutex
	stats    int
	opens    int
	failOpen bool
}

func (f *countingFS) Stat(path string) (os.FileInfo, error) {
	f.mu.Lock()
	f.stats++
	f.mu.Unlock()
	return OS{}.Stat(path)
}

func (f *countingFS) Open(path string) (io.ReadCloser, error) {
	f.mu.Lock()
	f.opens++
	fail := f.failOpen
	f.mu.Unlock()
	if fail {
		return nil, errors.New("injected open failure")
	}
	return OS{}.Open(path)
}

func (f *countingFS) counts() (stats, opens int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stats, f.opens
}

// writeFile writes content to name under dir and returns the full path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// rewriteFile replaces the content of path and pushes its mtime forward so
// the change is visible even on filesystems with coarse timestamps.
func rewriteFile(t *testing.T, path, content string) {
	t.Helper()

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	later := info.ModTime().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, later, later))
}
